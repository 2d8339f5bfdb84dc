// Package schema describes destination tables: the runtime view read from a
// store's catalog (Table) and the static IMDb definitions used to create
// them (TableDef).
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when the catalog has no columns for a table.
var ErrNotFound = errors.New("schema: table not found")

// Catalog is the store capability the Inspector needs. Implementations must
// return columns in catalog order and an empty slice (not an error) for a
// missing table.
type Catalog interface {
	TableColumns(ctx context.Context, table string) ([]string, error)
}

// Table is the ordered column list of a destination table. It is read once
// per run and must not be mutated; the same order drives INSERT generation
// and row-width reconciliation.
type Table struct {
	Name    string
	Columns []string
}

// Width returns the number of columns.
func (t Table) Width() int { return len(t.Columns) }

// Inspector reads table layouts from a Catalog.
type Inspector struct {
	cat Catalog
}

// NewInspector returns an Inspector bound to cat.
func NewInspector(cat Catalog) *Inspector { return &Inspector{cat: cat} }

// Inspect returns the ordered columns of table exactly as the catalog lists
// them. A table without columns yields an error wrapping ErrNotFound.
func (i *Inspector) Inspect(ctx context.Context, table string) (Table, error) {
	name := strings.TrimSpace(table)
	if name == "" {
		return Table{}, fmt.Errorf("inspect: table name must not be empty")
	}
	cols, err := i.cat.TableColumns(ctx, name)
	if err != nil {
		return Table{}, fmt.Errorf("inspect %s: %w", name, err)
	}
	if len(cols) == 0 {
		return Table{}, fmt.Errorf("inspect %s: %w", name, ErrNotFound)
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return Table{Name: name, Columns: out}, nil
}
