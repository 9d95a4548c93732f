package keymap

import (
	"fmt"
)

// Pair is one key/value binding.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (p Pair) String() string {
	return p.Key + " = " + p.Value
}

// Store defines the interface for key/value persistence.
// Listings are always in ascending byte order of key.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) (bool, error)
	All() ([]Pair, error)
	Len() (int, error)
	Close() error
}

// Store kinds accepted by OpenStore
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// OpenStore opens a store of the given kind. path is only used by SQLite.
func OpenStore(kind, path string) (Store, error) {
	switch kind {
	case StoreMemory, "":
		return NewMemoryStore(), nil
	case StoreSQLite:
		if path == "" {
			return nil, fmt.Errorf("sqlite store requires a database path")
		}
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store kind %q", kind)
	}
}

// FindByValue returns the pairs of s whose value equals value, in key order.
func FindByValue(s Store, value string) ([]Pair, error) {
	pairs, err := s.All()
	if err != nil {
		return nil, err
	}
	matches := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if p.Value == value {
			matches = append(matches, p)
		}
	}
	return matches, nil
}
