// Package storage provides the key/value stores that back client identity and
// conversation state. A durable store survives restarts; a session store lives
// as long as one chat session.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("key not found")
	// ErrEmptyKey is returned when an operation is called with a blank key.
	ErrEmptyKey = errors.New("key must not be empty")
)

// Store is a string key/value store. Writes are last-write-wins.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Closer is implemented by stores holding an open file.
type Closer interface {
	Close() error
}

const (
	DriverMemory = "memory"
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// Open returns a durable store for the named driver.
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverBolt:
		return OpenBolt(path)
	case DriverSQLite:
		return OpenSQLite(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

// Close closes the store when it holds resources.
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}
