package storage

import (
	"context"
	"fmt"

	"tsvload/internal/parser/tsv"
	"tsvload/internal/schema"
)

// BatchWriter buffers decoded records and inserts them in fixed-size bulk
// calls. It never commits; the caller owns transaction boundaries so that
// several batches can share one transaction.
type BatchWriter struct {
	ins     Inserter
	table   schema.Table
	query   string
	size    int
	buf     []tsv.Record
	slab    [][]any
	rows    int64
	batches int64
}

// NewBatchWriter builds the INSERT for t once and returns a writer that
// flushes every size records.
func NewBatchWriter(ins Inserter, t schema.Table, size int) (*BatchWriter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batchSize must be > 0")
	}
	if ins == nil {
		return nil, fmt.Errorf("inserter must not be nil")
	}
	if t.Width() == 0 {
		return nil, fmt.Errorf("table %q has no columns", t.Name)
	}
	return &BatchWriter{
		ins:   ins,
		table: t,
		query: ins.InsertSQL(t.Name, t.Columns),
		size:  size,
		buf:   make([]tsv.Record, 0, size),
		slab:  make([][]any, 0, size),
	}, nil
}

// Query returns the INSERT statement shared by every flush.
func (w *BatchWriter) Query() string { return w.query }

// Rows returns the total number of rows flushed so far.
func (w *BatchWriter) Rows() int64 { return w.rows }

// Batches returns the number of successful flushes.
func (w *BatchWriter) Batches() int64 { return w.batches }

// Pending returns the number of buffered, unflushed records.
func (w *BatchWriter) Pending() int { return len(w.buf) }

// Add buffers rec and flushes when the buffer is full. flushed reports
// whether a flush happened during this call.
func (w *BatchWriter) Add(ctx context.Context, rec tsv.Record) (flushed bool, err error) {
	w.buf = append(w.buf, rec)
	if len(w.buf) < w.size {
		return false, nil
	}
	if _, err := w.Flush(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Flush inserts all buffered records in one bulk call and clears the buffer.
// An empty buffer is a no-op. On failure the buffer is dropped as well: the
// caller is expected to roll the transaction back.
func (w *BatchWriter) Flush(ctx context.Context) (int, error) {
	if len(w.buf) == 0 {
		return 0, nil
	}
	w.slab = w.slab[:0]
	for _, r := range w.buf {
		w.slab = append(w.slab, r.Values())
	}
	n := len(w.buf)
	w.buf = w.buf[:0]

	if _, err := w.ins.InsertRows(ctx, w.query, w.slab); err != nil {
		return 0, fmt.Errorf("insert batch of %d into %s: %w", n, w.table.Name, err)
	}
	w.rows += int64(n)
	w.batches++
	return n, nil
}
