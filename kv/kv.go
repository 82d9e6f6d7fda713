package kv

import (
	"errors"
	"fmt"
)

// Well-known keys shared by the stateful components.
const (
	KeyMessages  = "chat.messages"
	KeyReactions = "chat.reactions"
	KeyTheme     = "theme"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("kv: key not found")

// Store is synchronous device-local key/value storage. A Put must be durable
// by the time it returns.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Open creates a Store at path using the named backend ("bolt" or "sqlite").
// An empty backend selects bolt.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", "bolt":
		return OpenBolt(path)
	case "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("kv: unknown storage backend %q", backend)
	}
}
