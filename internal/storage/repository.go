// Package storage contains storage-agnostic contracts and utilities.
//
// A Session is one pinned connection to a destination store. The bulk loader
// drives it through a strict sequence (bulk mode on, begin, insert batches,
// commit, bulk mode off) and never shares it across goroutines. Backends
// (sqlite, postgres, mssql) register a Factory for their kind at init time;
// callers import tsvload/internal/storage/all and pick a kind from config.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tsvload/internal/schema"
)

// Inserter is the write half of a Session used by BatchWriter.
type Inserter interface {
	// InsertSQL renders the parameterized single-row INSERT for table using
	// the backend's placeholder and quoting rules.
	InsertSQL(table string, columns []string) string
	// InsertRows executes query once per row inside the open transaction,
	// as a single bulk call, and returns the number of rows written.
	InsertRows(ctx context.Context, query string, rows [][]any) (int64, error)
}

// Session is a single-connection handle on a destination store.
type Session interface {
	schema.Catalog
	Inserter

	// EnableBulkMode switches the connection to its high-throughput,
	// reduced-durability write mode.
	EnableBulkMode(ctx context.Context) error
	// RestoreDurability returns the connection to its default durability.
	RestoreDurability(ctx context.Context) error

	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// EnsureTable creates def if it does not exist.
	EnsureTable(ctx context.Context, def schema.TableDef) error
	Exec(ctx context.Context, sql string) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string
}

// Factory opens a Session for a Config.
type Factory func(ctx context.Context, cfg Config) (Session, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the Factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Session using the Factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Session, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds in sorted order.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
