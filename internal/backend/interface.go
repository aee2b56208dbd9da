package backend

import (
	"tally/internal/ledger"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the opened store and optional cleanup function
type Result struct {
	Store   ledger.Store
	Cleanup CleanupFunc
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	// SQLite specific
	SQLitePath string

	// Postgres specific
	PostgresURL string
}

// Type represents the kind of ledger store backing the application
type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types
func Types() []Type {
	return []Type{MemoryBackend, SQLiteBackend, PostgresBackend}
}
