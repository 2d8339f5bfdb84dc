// Package ingest drives one TSV file into one table.
//
// Load inspects the table, switches the session to bulk mode, then streams
// decoded records through a BatchWriter inside a transaction that is
// committed every CommitEvery rows and at end of input. Any failure rolls back
// the open transaction; earlier commits stay. Durability is restored on every
// exit path.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"tsvload/internal/datasource"
	"tsvload/internal/metrics"
	"tsvload/internal/parser/tsv"
	"tsvload/internal/schema"
	"tsvload/internal/storage"
)

const (
	DefaultBatchSize   = 10_000
	DefaultCommitEvery = 1_000_000
)

// Options tunes a Loader. Zero sizes fall back to the defaults.
type Options struct {
	BatchSize   int
	CommitEvery int64
	// BulkMode toggles the session's reduced-durability mode around a load.
	BulkMode bool
	// Job labels metrics.
	Job string
}

// Loader loads files into tables over one storage.Session. It is not safe
// for concurrent use.
type Loader struct {
	sess storage.Session
	insp *schema.Inspector
	opts Options
	log  zerolog.Logger
	now  func() time.Time
}

// NewLoader returns a Loader bound to sess.
func NewLoader(sess storage.Session, opts Options, logger zerolog.Logger) *Loader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.CommitEvery <= 0 {
		opts.CommitEvery = DefaultCommitEvery
	}
	if opts.Job == "" {
		opts.Job = "tsvload"
	}
	return &Loader{
		sess: sess,
		insp: schema.NewInspector(sess),
		opts: opts,
		log:  logger,
		now:  time.Now,
	}
}

// run holds the state of one Load call.
type run struct {
	*Loader
	ctx   context.Context
	table schema.Table
	path  string
	w     *storage.BatchWriter
	stats Stats

	txOpen       bool
	nextBoundary int64
}

// Load streams src into table. A missing table returns an error wrapping
// schema.ErrNotFound before the source is opened or bulk mode is touched.
// Every other failure is a *Failure returned after rollback.
func (l *Loader) Load(ctx context.Context, src datasource.Source, table string) (stats Stats, err error) {
	path := src.Describe()
	t, err := l.insp.Inspect(ctx, table)
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			l.log.Error().Str("table", table).Msg("table not found")
			return Stats{Table: table, Path: path}, err
		}
		return Stats{Table: table, Path: path}, l.fail(newFailure(KindStore, table, path, err))
	}
	w, err := storage.NewBatchWriter(l.sess, t, l.opts.BatchSize)
	if err != nil {
		return Stats{Table: t.Name, Path: path}, l.fail(newFailure(KindUnclassified, t.Name, path, err))
	}

	r := &run{
		Loader:       l,
		ctx:          ctx,
		table:        t,
		path:         path,
		w:            w,
		stats:        Stats{Table: t.Name, Path: path, Start: l.now()},
		nextBoundary: l.opts.CommitEvery,
	}

	defer func() {
		if p := recover(); p != nil {
			err = newFailure(KindUnclassified, t.Name, path, fmt.Errorf("panic: %v", p))
		}
		stats, err = r.finish(err)
	}()

	return Stats{}, r.stream(src)
}

func (r *run) stream(src datasource.Source) error {
	if r.opts.BulkMode {
		if err := r.sess.EnableBulkMode(r.ctx); err != nil {
			return r.failure(KindStore, err)
		}
	}

	rc, err := src.Open(r.ctx)
	if err != nil {
		return r.failure(KindIO, err)
	}
	defer rc.Close()

	if err := r.begin(); err != nil {
		return err
	}

	dec := tsv.NewDecoder(rc, r.table.Width())
	for {
		rec, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return r.readFailure(err)
		}
		if !r.txOpen {
			if err := r.begin(); err != nil {
				return err
			}
		}
		flushed, err := r.w.Add(r.ctx, rec)
		if err != nil {
			return r.failure(KindStore, err)
		}
		if flushed {
			if err := r.ctx.Err(); err != nil {
				return r.failure(KindUnclassified, err)
			}
			if err := r.maybeCommit(); err != nil {
				return err
			}
		}
	}

	if _, err := r.w.Flush(r.ctx); err != nil {
		return r.failure(KindStore, err)
	}
	if r.txOpen {
		return r.commit()
	}
	return nil
}

func (r *run) begin() error {
	if err := r.sess.Begin(r.ctx); err != nil {
		return r.failure(KindStore, err)
	}
	r.txOpen = true
	return nil
}

func (r *run) commit() error {
	if err := r.sess.Commit(r.ctx); err != nil {
		r.txOpen = false
		return r.failure(KindStore, err)
	}
	r.txOpen = false
	r.stats.Commits++
	r.stats.CommittedRows = r.w.Rows()
	return nil
}

// maybeCommit commits once the flushed total reaches the next boundary. The
// following transaction opens lazily with the next record.
func (r *run) maybeCommit() error {
	rows := r.w.Rows()
	if rows < r.nextBoundary {
		return nil
	}
	if err := r.commit(); err != nil {
		return err
	}
	for r.nextBoundary <= rows {
		r.nextBoundary += r.opts.CommitEvery
	}
	elapsed := r.now().Sub(r.stats.Start)
	r.log.Info().
		Str("table", r.table.Name).
		Int64("rows", rows).
		Msgf("Inserted %s rows... (%.2f seconds)", humanize.Comma(rows), elapsed.Seconds())
	return nil
}

func (r *run) readFailure(err error) error {
	return r.failure(KindIO, err)
}

func (r *run) failure(k Kind, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		k = KindUnclassified
	}
	return newFailure(k, r.table.Name, r.path, err)
}

// finish rolls back on failure, restores durability, logs the outcome and
// records metrics. It runs on every exit path of Load after inspection.
func (r *run) finish(err error) (Stats, error) {
	cleanup := context.WithoutCancel(r.ctx)

	if err != nil && r.txOpen {
		if rerr := r.sess.Rollback(cleanup); rerr != nil {
			r.log.Error().Err(rerr).Str("table", r.table.Name).Msg("rollback failed")
		}
		r.txOpen = false
	}
	if r.opts.BulkMode {
		if rerr := r.sess.RestoreDurability(cleanup); rerr != nil {
			r.log.Error().Err(rerr).Str("table", r.table.Name).Msg("restore durability failed")
		}
	}

	r.stats.TotalRows = r.w.Rows()
	r.stats.Batches = r.w.Batches()
	r.stats.Elapsed = r.now().Sub(r.stats.Start)
	st := r.stats

	status := "success"
	if err != nil {
		var f *Failure
		if !errors.As(err, &f) {
			f = newFailure(KindUnclassified, r.table.Name, r.path, err)
			err = f
		}
		status = f.Kind.Label()
		r.fail(f)
	} else {
		r.log.Info().
			Str("table", st.Table).
			Int64("rows", st.TotalRows).
			Float64("elapsed_s", st.Elapsed.Seconds()).
			Float64("rows_per_s", st.RowsPerSecond()).
			Msgf("Inserted a total of %s rows into %s in %.2f seconds (%s rows/second)",
				humanize.Comma(st.TotalRows), st.Table, st.Elapsed.Seconds(),
				humanize.CommafWithDigits(st.RowsPerSecond(), 2))
	}

	metrics.RecordLoad(r.opts.Job, st.Table, status, st.Elapsed)
	metrics.RecordRows(r.opts.Job, st.Table, st.CommittedRows)
	metrics.RecordBatches(r.opts.Job, st.Table, st.Batches)
	metrics.RecordCommits(r.opts.Job, st.Table, st.Commits)
	return st, err
}

func (l *Loader) fail(f *Failure) error {
	l.log.Error().
		Stack().
		Err(f).
		Str("kind", f.Kind.Label()).
		Str("table", f.Table).
		Str("path", f.Path).
		Msg(f.Kind.String())
	return f
}
