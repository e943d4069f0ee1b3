package store

import (
	"fmt"

	"github.com/i474232898/rainlog/internal/rainfall"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Options selects and configures a store backend.
type Options struct {
	Backend              string
	SQLitePath           string
	AllowMultiplePerDate bool
}

// Open creates the store named by opts.Backend.
func Open(opts Options) (rainfall.Store, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryStore(opts.AllowMultiplePerDate), nil
	case BackendSQLite:
		return NewSQLiteStore(opts.SQLitePath, opts.AllowMultiplePerDate)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
