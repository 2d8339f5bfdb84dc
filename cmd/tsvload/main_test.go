package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsvload/internal/storage/sqlite"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, dir string, body string) string {
	t.Helper()
	p := filepath.Join(dir, "tsvload.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "title.ratings.tsv"),
		[]byte("tconst\taverageRating\tnumVotes\ntt0000001\t5.7\t1989\ntt0000002\t\\N\t\ntt0000003\t6.5\t2000\textra\n"), 0o644))

	db := filepath.Join(dir, "imdb.db")
	cfg := writeConfig(t, dir, `
load:
  data_dir: `+dataDir+`
  batch_size: 2
  commit_every: 2
  files:
    - file: title.ratings.tsv
      table: title_ratings
    - file: title.akas.tsv
      table: title_akas
`)

	out, err := run(t, "load", "--config", cfg, "--dsn", db)
	require.NoError(t, err)
	assert.Contains(t, out, "title.ratings.tsv")
	assert.Contains(t, out, "not found")

	s, err := sqlite.Open(context.Background(), db)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM title_ratings").Scan(&n))
	assert.Equal(t, 3, n)

	var rating *float64
	require.NoError(t, s.QueryRowContext(context.Background(),
		"SELECT averageRating FROM title_ratings WHERE tconst = 'tt0000002'").Scan(&rating))
	assert.Nil(t, rating)
}

func TestLoadCommand_FailureExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	tsv := filepath.Join(dir, "x.tsv")
	require.NoError(t, os.WriteFile(tsv, []byte("a\n1\n"), 0o644))

	out, err := run(t, "load", "--dsn", filepath.Join(dir, "imdb.db"), tsv+"=no_such_table")
	require.Error(t, err)
	assert.Contains(t, out, "table not found")
}

func TestLoadCommand_ListFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crew.tsv"),
		[]byte("tconst\tdirectors\twriters\ntt1\tnm1\t\\N\ntt2\tnm2,nm3\tnm4\n"), 0o644))
	list := filepath.Join(dir, "files.txt")
	require.NoError(t, os.WriteFile(list, []byte("# crew only\ncrew.tsv=title_crew\n"), 0o644))

	db := filepath.Join(dir, "imdb.db")
	cfg := writeConfig(t, dir, "load:\n  data_dir: "+dir+"\n")
	out, err := run(t, "load", "--config", cfg, "--dsn", db, "--list", list)
	require.NoError(t, err)
	assert.Contains(t, out, "title_crew")

	s, err := sqlite.Open(context.Background(), db)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM title_crew").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSchemaAndInitCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "imdb.db")

	out, err := run(t, "init", "--dsn", db)
	require.NoError(t, err)
	assert.Equal(t, "7 tables ready\n", out)

	out, err = run(t, "schema", "title_crew", "--dsn", db)
	require.NoError(t, err)
	assert.Equal(t, "1\ttconst\n2\tdirectors\n3\twriters\n", out)

	_, err = run(t, "schema", "nope", "--dsn", db)
	require.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "validate", "--dsn", filepath.Join(dir, "x.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "configuration is valid")

	bad := writeConfig(t, dir, "load:\n  batch_size: 0\n")
	out, err = run(t, "validate", "--config", bad)
	require.Error(t, err)
	assert.True(t, strings.Contains(out, "load.batch_size"), out)

	out, err = run(t, "validate", "--kind", "oracle")
	require.Error(t, err)
	assert.Contains(t, out, "storage.kind")
}
