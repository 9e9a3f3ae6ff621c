package storage

// Prefixed scopes every key of an underlying store under a fixed prefix. The
// server uses it to keep one conversation thread per session in a shared
// durable store.
type Prefixed struct {
	store  Store
	prefix string
}

func WithPrefix(store Store, prefix string) *Prefixed {
	return &Prefixed{store: store, prefix: prefix}
}

func (p *Prefixed) Get(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return p.store.Get(p.prefix + key)
}

func (p *Prefixed) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return p.store.Set(p.prefix+key, value)
}

func (p *Prefixed) Remove(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return p.store.Remove(p.prefix + key)
}
