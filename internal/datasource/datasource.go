// Package datasource defines where input bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens a fresh stream of input. Describe returns a human-readable
// location (path or URL) for logs and error messages.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Describe() string
}
