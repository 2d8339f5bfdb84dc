package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsvload/internal/schema"
	"tsvload/internal/storage"
)

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	got := insertSQL("title_ratings", []string{"tconst", "averageRating", "numVotes"})
	assert.Equal(t,
		`INSERT INTO "title_ratings" ("tconst", "averageRating", "numVotes") VALUES ($1, $2, $3)`,
		got)

	got = insertSQL("imdb.title_ratings", []string{"tconst"})
	assert.Equal(t, `INSERT INTO "imdb"."title_ratings" ("tconst") VALUES ($1)`, got)
}

func TestColumnsQuery(t *testing.T) {
	t.Parallel()

	q, args := columnsQuery("title_akas")
	assert.Contains(t, q, "current_schema()")
	assert.Contains(t, q, "ORDER BY ordinal_position")
	assert.Equal(t, []any{"title_akas"}, args)

	q, args = columnsQuery("imdb.title_akas")
	assert.Contains(t, q, "table_schema = $1")
	assert.Equal(t, []any{"imdb", "title_akas"}, args)
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	for _, def := range schema.IMDbTables() {
		q, err := createTableSQL(def)
		require.NoError(t, err)
		assert.Contains(t, q, `CREATE TABLE IF NOT EXISTS "`+def.Name+`" (`)
		assert.NotContains(t, q, "FOREIGN KEY", def.Name)
	}
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `"titleType"`, Dialect{}.QuoteIdent("titleType"))
	assert.Equal(t, `"a""b"`, Dialect{}.QuoteIdent(`a"b`))
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "")
	require.Error(t, err)
	_, err = Open(context.Background(), "postgres://%zz")
	require.Error(t, err)
	assert.Contains(t, storage.ListKinds(), "postgres")
}

func TestInsertRows_NoTransaction(t *testing.T) {
	t.Parallel()

	s := &Session{}
	_, err := s.InsertRows(context.Background(), "INSERT", [][]any{{"x"}})
	require.Error(t, err)
	assert.NoError(t, s.Rollback(context.Background()))
}
