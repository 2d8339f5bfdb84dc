package ingest

import "time"

// Stats describes one Load call. TotalRows counts every flushed row;
// CommittedRows excludes rows lost to a rollback.
type Stats struct {
	Table         string
	Path          string
	TotalRows     int64
	CommittedRows int64
	Batches       int64
	Commits       int64
	Start         time.Time
	Elapsed       time.Duration
}

// RowsPerSecond is TotalRows over Elapsed, or 0 before any time has passed.
func (s Stats) RowsPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.TotalRows) / s.Elapsed.Seconds()
}
