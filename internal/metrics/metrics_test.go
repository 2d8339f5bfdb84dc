package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

// fakeBackend records every call in memory.
type fakeBackend struct {
	mu         sync.Mutex
	counters   []counterCall
	histograms []histCall
	flushes    int
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func swapBackend(t *testing.T) *fakeBackend {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	fb := &fakeBackend{}
	backend = fb
	return fb
}

func TestRecordLoad(t *testing.T) {
	fb := swapBackend(t)

	RecordLoad("imdb", "title_basics", "success", 2*time.Second)
	RecordLoad("imdb", "title_akas", "database error", 1500*time.Millisecond)

	require.Len(t, fb.counters, 2)
	require.Len(t, fb.histograms, 2)

	assert.Equal(t, StepTotal, fb.counters[0].name)
	assert.Equal(t, Labels{"job": "imdb", "table": "title_basics", "status": "success"}, fb.counters[0].labels)
	assert.InDelta(t, 2.0, fb.histograms[0].value, 0.001)

	assert.Equal(t, "database error", fb.counters[1].labels["status"])
	assert.Equal(t, StepDuration, fb.histograms[1].name)
	assert.InDelta(t, 1.5, fb.histograms[1].value, 0.001)
}

func TestRecordCounts_SkipNonPositive(t *testing.T) {
	fb := swapBackend(t)

	RecordRows("imdb", "title_ratings", 3)
	RecordRows("imdb", "title_ratings", 0)
	RecordBatches("imdb", "title_ratings", 2)
	RecordBatches("imdb", "title_ratings", -1)
	RecordCommits("imdb", "title_ratings", 1)

	require.Len(t, fb.counters, 3)
	assert.Equal(t, counterCall{RowsTotal, 3, Labels{"job": "imdb", "table": "title_ratings"}}, fb.counters[0])
	assert.Equal(t, BatchesTotal, fb.counters[1].name)
	assert.Equal(t, float64(2), fb.counters[1].delta)
	assert.Equal(t, CommitsTotal, fb.counters[2].name)
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)
	require.NoError(t, Flush())
	assert.Equal(t, 1, fb.flushes)

	SetBackend(nil)
	assert.Same(t, fb, backend.(*fakeBackend))

	ResetBackend()
	assert.Equal(t, nopBackend{}, backend)
}

func TestNopBackend(t *testing.T) {
	var b Backend = nopBackend{}
	b.IncCounter(RowsTotal, 1, nil)
	b.ObserveHistogram(StepDuration, 1, nil)
	assert.NoError(t, b.Flush())
}
