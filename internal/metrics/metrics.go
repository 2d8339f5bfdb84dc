// Package metrics is a small backend-agnostic facade for load metrics.
//
// The installed backend defaults to a no-op, so callers record
// unconditionally and the CLI decides whether anything is exported
// (see metrics/prompush and metrics/datadog).
package metrics

import "time"

// Metric names shared by the facade and its backends.
const (
	StepTotal    = "tsvload_step_total"
	StepDuration = "tsvload_step_duration_seconds"
	RowsTotal    = "tsvload_rows_total"
	BatchesTotal = "tsvload_batches_total"
	CommitsTotal = "tsvload_commits_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs b. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// ResetBackend reinstalls the no-op backend.
func ResetBackend() {
	backend = nopBackend{}
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordLoad counts one table load and its duration, labelled with the
// failure kind ("success" when err is nil).
func RecordLoad(job, table, status string, d time.Duration) {
	lbls := Labels{"job": job, "table": table, "status": status}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows adds delta inserted rows for table.
func RecordRows(job, table string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{"job": job, "table": table})
}

// RecordBatches adds delta flushed batches for table.
func RecordBatches(job, table string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{"job": job, "table": table})
}

// RecordCommits adds delta committed transactions for table.
func RecordCommits(job, table string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(CommitsTotal, float64(delta), Labels{"job": job, "table": table})
}
