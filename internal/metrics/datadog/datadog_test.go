package datadog

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsvload/internal/metrics"
)

func TestTags(t *testing.T) {
	t.Parallel()

	assert.Nil(t, tags(nil))
	assert.Equal(t,
		[]string{"status:success", "table:title_ratings"},
		tags(metrics.Labels{"table": "title_ratings", "status": "success"}))
}

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	_, err := NewBackend(Config{})
	require.Error(t, err)
}

func TestBackend_SendsToAgent(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	b, err := NewBackend(Config{Addr: pc.LocalAddr().String(), Namespace: "imdb.", GlobalTags: []string{"env:test"}})
	require.NoError(t, err)

	b.IncCounter(metrics.RowsTotal, 42, metrics.Labels{"table": "title_ratings"})
	b.ObserveHistogram(metrics.StepDuration, 1.5, metrics.Labels{"table": "title_ratings", "status": "success"})
	require.NoError(t, b.Flush())

	var got strings.Builder
	buf := make([]byte, 64*1024)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(got.String(), "tsvload_rows_total") &&
			strings.Contains(got.String(), "tsvload_step_duration_seconds") {
			break
		}
		require.NoError(t, pc.SetReadDeadline(deadline))
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			break
		}
		got.Write(buf[:n])
		got.WriteByte('\n')
	}

	out := got.String()
	assert.Contains(t, out, "imdb.tsvload_rows_total:42|c")
	assert.Contains(t, out, "imdb.tsvload_step_duration_seconds:1.5|h")
	assert.Contains(t, out, "table:title_ratings")
	assert.Contains(t, out, "env:test")
	assert.NoError(t, b.Close())
}
