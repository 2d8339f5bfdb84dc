package file

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLocalOpen covers success, missing file, and pre-canceled context.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	writeTSV := func(t *testing.T) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "title.ratings.tsv")
		require.NoError(t, os.WriteFile(p, []byte("tconst\tnumVotes\ntt1\t5\n"), 0o644))
		return p
	}

	cases := []struct {
		name            string
		prepare         func(t *testing.T) string
		makeCtx         func() context.Context
		wantErrIs       error
		wantErrContains string
		wantContent     string
	}{
		{
			name:        "success_reads_content",
			prepare:     writeTSV,
			makeCtx:     context.Background,
			wantContent: "tconst\tnumVotes\ntt1\t5\n",
		},
		{
			name: "missing_file_errors_with_wrapping",
			prepare: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.tsv")
			},
			makeCtx:         context.Background,
			wantErrIs:       os.ErrNotExist,
			wantErrContains: "open ",
		},
		{
			name:    "pre_canceled_context_short_circuits",
			prepare: writeTSV,
			makeCtx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantErrIs: context.Canceled,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			path := c.prepare(t)
			src := NewLocal(path)
			assert.Equal(t, path, src.Describe())

			rc, err := src.Open(c.makeCtx())
			if c.wantErrIs != nil {
				require.ErrorIs(t, err, c.wantErrIs)
				assert.Nil(t, rc)
				if c.wantErrContains != "" {
					assert.Contains(t, err.Error(), c.wantErrContains)
				}
				return
			}
			require.NoError(t, err)
			defer rc.Close()

			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, c.wantContent, string(got))
		})
	}
}

func TestLocalExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "name.basics.tsv")
	require.NoError(t, os.WriteFile(p, []byte("nconst\n"), 0o644))

	assert.True(t, NewLocal(p).Exists())
	assert.False(t, NewLocal(filepath.Join(dir, "nope.tsv")).Exists())
	assert.False(t, NewLocal(dir).Exists(), "directories are not sources")
}

func BenchmarkLocalOpen_Success(b *testing.B) {
	p := filepath.Join(b.TempDir(), "data.tsv")
	if err := os.WriteFile(p, []byte("payload"), 0o644); err != nil {
		b.Fatalf("write test file: %v", err)
	}
	src := NewLocal(p)
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rc, err := src.Open(ctx)
		if err != nil {
			b.Fatal(err)
		}
		_ = rc.Close()
	}
}
