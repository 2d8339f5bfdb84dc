// Package postgres implements storage.Session on a single pgx v5 connection.
//
// Rows are sent as one pgx.Batch of parameterized INSERTs per flush, which
// keeps one round trip per batch without COPY's binary-encoding demands on
// untyped text values. The bulk write mode is synchronous_commit=off for the
// session; it trades the last few commits on a server crash for throughput
// and never risks corruption.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"tsvload/internal/schema"
	"tsvload/internal/storage"
)

// Session is a pgx-backed storage.Session.
type Session struct {
	conn *pgx.Conn
	tx   pgx.Tx
}

// Open parses dsn and connects.
func Open(ctx context.Context, dsn string) (*Session, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &Session{conn: conn}, nil
}

// Dialect implements schema.Dialect for Postgres DDL.
type Dialect struct{}

func (Dialect) QuoteIdent(name string) string { return pgx.Identifier{name}.Sanitize() }

func (Dialect) TypeName(t schema.ColumnType, _ bool) string {
	switch t {
	case schema.Integer:
		return "INTEGER"
	case schema.Real:
		return "REAL"
	default:
		return "TEXT"
	}
}

// DeclareForeignKeys is false: Postgres would enforce them.
func (Dialect) DeclareForeignKeys() bool { return false }

// identifier splits an optional schema prefix.
func identifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.Split(table, "."))
}

func columnsQuery(table string) (string, []any) {
	id := identifier(table)
	if len(id) >= 2 {
		return `SELECT column_name FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`, []any{id[len(id)-2], id[len(id)-1]}
	}
	return `SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`, []any{table}
}

// TableColumns implements schema.Catalog.
func (s *Session) TableColumns(ctx context.Context, table string) ([]string, error) {
	query, args := columnsQuery(table)
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: table columns: %w", err)
	}
	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: table columns: %w", err)
	}
	return cols, nil
}

// InsertSQL builds INSERT INTO "t" ("a", "b") VALUES ($1, $2).
func (s *Session) InsertSQL(table string, columns []string) string {
	return insertSQL(table, columns)
}

func insertSQL(table string, columns []string) string {
	cols := make([]string, len(columns))
	ph := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = pgx.Identifier{c}.Sanitize()
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		identifier(table).Sanitize(),
		strings.Join(cols, ", "),
		strings.Join(ph, ", "),
	)
}

// InsertRows queues one INSERT per row and sends them as a single batch.
func (s *Session) InsertRows(ctx context.Context, query string, rows [][]any) (int64, error) {
	if s.tx == nil {
		return 0, fmt.Errorf("postgres: insert: no open transaction")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	b := &pgx.Batch{}
	for _, row := range rows {
		b.Queue(query, row...)
	}
	br := s.tx.SendBatch(ctx, b)

	var inserted int64
	for range rows {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return inserted, fmt.Errorf("postgres: insert: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return inserted, fmt.Errorf("postgres: insert: %w", err)
	}
	return inserted, nil
}

// EnableBulkMode implements storage.Session.
func (s *Session) EnableBulkMode(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, "SET synchronous_commit TO OFF"); err != nil {
		return fmt.Errorf("postgres: bulk mode: %w", err)
	}
	return nil
}

// RestoreDurability implements storage.Session.
func (s *Session) RestoreDurability(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, "RESET synchronous_commit"); err != nil {
		return fmt.Errorf("postgres: restore durability: %w", err)
	}
	return nil
}

func (s *Session) Begin(ctx context.Context) error {
	if s.tx != nil {
		return fmt.Errorf("postgres: begin: transaction already open")
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	s.tx = tx
	return nil
}

func (s *Session) Commit(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("postgres: commit: no open transaction")
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (s *Session) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}

// EnsureTable creates def if absent.
func (s *Session) EnsureTable(ctx context.Context, def schema.TableDef) error {
	q, err := createTableSQL(def)
	if err != nil {
		return err
	}
	return s.Exec(ctx, q)
}

func createTableSQL(def schema.TableDef) (string, error) {
	body, err := schema.CreateTableBody(Dialect{}, def)
	if err != nil {
		return "", err
	}
	return "CREATE TABLE IF NOT EXISTS " + identifier(def.Name).Sanitize() + " " + body, nil
}

func (s *Session) Exec(ctx context.Context, q string) error {
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if _, err := s.conn.Exec(ctx, q); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// Close rolls back any open transaction and closes the connection.
func (s *Session) Close() error {
	ctx := context.Background()
	_ = s.Rollback(ctx)
	return s.conn.Close(ctx)
}

var _ storage.Session = (*Session)(nil)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Session, error) {
		s, err := Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
