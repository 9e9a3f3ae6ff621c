package server

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/spigell/interactive-resume/internal/storage"
)

const durableCookieAge = 365 * 24 * time.Hour

// cookieStore is a storage.Store over the cookies of one request. Writes are
// sent back as Set-Cookie headers and are visible to later reads of the same
// request. A persistent store sets Max-Age; otherwise cookies end with the
// browser session.
type cookieStore struct {
	w          http.ResponseWriter
	r          *http.Request
	persistent bool
	secure     bool

	mu      sync.Mutex
	pending map[string]*string
}

func newCookieStore(w http.ResponseWriter, r *http.Request, persistent bool) *cookieStore {
	return &cookieStore{
		w:          w,
		r:          r,
		persistent: persistent,
		secure:     r.TLS != nil,
		pending:    make(map[string]*string),
	}
}

func (c *cookieStore) Get(key string) (string, error) {
	if key == "" {
		return "", storage.ErrEmptyKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.pending[key]; ok {
		if v == nil {
			return "", storage.ErrNotFound
		}
		return *v, nil
	}

	cookie, err := c.r.Cookie(key)
	if err != nil {
		return "", storage.ErrNotFound
	}
	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (c *cookieStore) Set(key, value string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}

	cookie := c.cookie(key, url.QueryEscape(value))
	if c.persistent {
		cookie.MaxAge = int(durableCookieAge.Seconds())
	}
	http.SetCookie(c.w, cookie)

	c.mu.Lock()
	c.pending[key] = &value
	c.mu.Unlock()

	return nil
}

func (c *cookieStore) Remove(key string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}

	cookie := c.cookie(key, "")
	cookie.MaxAge = -1
	http.SetCookie(c.w, cookie)

	c.mu.Lock()
	c.pending[key] = nil
	c.mu.Unlock()

	return nil
}

func (c *cookieStore) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
