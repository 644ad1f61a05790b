// Package storage defines the sink contract for rewritten rows and a
// kind-keyed factory that backends register with at init time.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"parsenumber/internal/rowset"
)

// ErrUnknownKind is returned by New and EnsureTable for unregistered kinds.
var ErrUnknownKind = errors.New("unsupported storage.kind")

// Repository writes batches of projected rows.
type Repository interface {
	// CopyFrom writes rows, each aligned to columns, and returns how many
	// were written. A nil cell is SQL NULL.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config describes the destination of one run.
type Config struct {
	Kind  string
	DSN   string
	Table string

	// Columns is the rewritten header, in output order.
	Columns []rowset.Column
}

// ColumnNames returns the names of c.Columns.
func (c Config) ColumnNames() []string {
	out := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		out[i] = col.Name()
	}
	return out
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs f for kind, replacing any previous factory.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w=%s", ErrUnknownKind, cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
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
