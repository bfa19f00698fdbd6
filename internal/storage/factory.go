package storage

import "fmt"

// NewStore resolves an archive backend by name. An empty kind falls back to
// the build's default backend (memory, or sqlite when built with -tags
// sqlite).
func NewStore(kind, sqlitePath string) (Store, error) {
	if kind == "" {
		kind = DefaultStoreKind()
	}
	switch kind {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend %q, want memory or sqlite", kind)
	}
}

// CloseIfSupported releases backends holding external resources. The memory
// store holds none and is left untouched.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
