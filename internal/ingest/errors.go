package ingest

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failed load.
type Kind int

const (
	// KindIO covers opening and reading the source.
	KindIO Kind = iota + 1
	// KindStore covers transaction control, inserts and the durability toggle.
	KindStore
	// KindUnclassified covers malformed input, cancellation and panics.
	KindUnclassified
)

// String returns the operator-facing message for k.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "error reading file"
	case KindStore:
		return "database error"
	case KindUnclassified:
		return "unexpected error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Label is the metric label for k.
func (k Kind) Label() string {
	switch k {
	case KindIO:
		return "io"
	case KindStore:
		return "store"
	case KindUnclassified:
		return "unclassified"
	default:
		return "unknown"
	}
}

// Failure is returned by Load after the open transaction was rolled back.
// Rows committed before the failure stay in the store.
type Failure struct {
	Kind  Kind
	Table string
	Path  string
	Err   error
}

func newFailure(k Kind, table, path string, err error) *Failure {
	return &Failure{Kind: k, Table: table, Path: path, Err: errors.WithStack(err)}
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s <- %s: %v", f.Kind, f.Table, f.Path, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// StackTrace exposes the capture point to zerolog's pkgerrors marshaler.
func (f *Failure) StackTrace() errors.StackTrace {
	if st, ok := f.Err.(interface{ StackTrace() errors.StackTrace }); ok {
		return st.StackTrace()
	}
	return nil
}
