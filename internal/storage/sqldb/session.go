// Package sqldb implements storage.Session on top of database/sql for
// backends whose differences fit in a Dialect (sqlite, mssql).
//
// The session pins a single *sql.Conn: journal/durability settings are
// connection state, and the transaction must run on the connection that
// carries them.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tsvload/internal/schema"
)

// Querier is the read capability handed to Dialect.TableColumns.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Dialect captures the SQL that differs between database/sql backends.
type Dialect interface {
	schema.Dialect

	// Name prefixes error messages, e.g. "sqlite".
	Name() string
	// Placeholder returns the positional parameter marker for index i (1-based).
	Placeholder(i int) string
	// TableColumns lists the columns of table in catalog order. A missing
	// table yields an empty slice.
	TableColumns(ctx context.Context, q Querier, table string) ([]string, error)
	// BulkModeSQL and RestoreSQL toggle the reduced-durability write mode.
	BulkModeSQL() []string
	RestoreSQL() []string
	// CreateTableSQL renders a create-if-absent statement for def.
	CreateTableSQL(def schema.TableDef) (string, error)
}

// Session is a database/sql backed storage.Session.
type Session struct {
	db   *sql.DB
	conn *sql.Conn
	d    Dialect

	tx      *sql.Tx
	stmt    *sql.Stmt
	stmtSQL string
}

// Open connects with driverName/dsn, pings, and pins one connection.
func Open(ctx context.Context, driverName, dsn string, d Dialect) (*Session, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: DSN must not be empty", d.Name())
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.Name(), err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", d.Name(), err)
	}

	s, err := newSession(ctx, db, d)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newSession(ctx context.Context, db *sql.DB, d Dialect) (*Session, error) {
	db.SetMaxOpenConns(1)
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: acquire conn: %w", d.Name(), err)
	}
	return &Session{db: db, conn: conn, d: d}, nil
}

// QueryRowContext runs a single-row query on the pinned connection. It must
// not be called while a transaction is open.
func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.conn.QueryRowContext(ctx, query, args...)
}

// TableColumns implements schema.Catalog.
func (s *Session) TableColumns(ctx context.Context, table string) ([]string, error) {
	cols, err := s.d.TableColumns(ctx, s.conn, table)
	if err != nil {
		return nil, fmt.Errorf("%s: table columns: %w", s.d.Name(), err)
	}
	return cols, nil
}

// InsertSQL builds INSERT INTO <table> (<cols>) VALUES (<placeholders>).
func (s *Session) InsertSQL(table string, columns []string) string {
	cols := make([]string, len(columns))
	ph := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = s.d.QuoteIdent(c)
		ph[i] = s.d.Placeholder(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		QuoteFQN(s.d, table),
		strings.Join(cols, ", "),
		strings.Join(ph, ", "),
	)
}

// InsertRows executes query for every row through one prepared statement
// bound to the open transaction. The statement is reused across calls for
// the lifetime of the transaction.
func (s *Session) InsertRows(ctx context.Context, query string, rows [][]any) (int64, error) {
	if s.tx == nil {
		return 0, fmt.Errorf("%s: insert: no open transaction", s.d.Name())
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if s.stmt == nil || s.stmtSQL != query {
		if s.stmt != nil {
			_ = s.stmt.Close()
		}
		stmt, err := s.tx.PrepareContext(ctx, query)
		if err != nil {
			s.stmt = nil
			return 0, fmt.Errorf("%s: prepare insert: %w", s.d.Name(), err)
		}
		s.stmt, s.stmtSQL = stmt, query
	}

	var inserted int64
	for _, row := range rows {
		if _, err := s.stmt.ExecContext(ctx, row...); err != nil {
			return inserted, fmt.Errorf("%s: insert: %w", s.d.Name(), err)
		}
		inserted++
	}
	return inserted, nil
}

// EnableBulkMode implements storage.Session.
func (s *Session) EnableBulkMode(ctx context.Context) error {
	return s.execAll(ctx, "bulk mode", s.d.BulkModeSQL())
}

// RestoreDurability implements storage.Session.
func (s *Session) RestoreDurability(ctx context.Context) error {
	return s.execAll(ctx, "restore durability", s.d.RestoreSQL())
}

func (s *Session) execAll(ctx context.Context, what string, stmts []string) error {
	for _, q := range stmts {
		if _, err := s.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%s: %s: %w", s.d.Name(), what, err)
		}
	}
	return nil
}

// Begin opens a transaction on the pinned connection.
func (s *Session) Begin(ctx context.Context) error {
	if s.tx != nil {
		return fmt.Errorf("%s: begin: transaction already open", s.d.Name())
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", s.d.Name(), err)
	}
	s.tx = tx
	return nil
}

// Commit commits the open transaction.
func (s *Session) Commit(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("%s: commit: no open transaction", s.d.Name())
	}
	s.closeStmt()
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.d.Name(), err)
	}
	return nil
}

// Rollback aborts the open transaction; it is a no-op when none is open.
func (s *Session) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	s.closeStmt()
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("%s: rollback: %w", s.d.Name(), err)
	}
	return nil
}

func (s *Session) closeStmt() {
	if s.stmt != nil {
		_ = s.stmt.Close()
	}
	s.stmt, s.stmtSQL = nil, ""
}

// EnsureTable creates def if absent.
func (s *Session) EnsureTable(ctx context.Context, def schema.TableDef) error {
	q, err := s.d.CreateTableSQL(def)
	if err != nil {
		return err
	}
	return s.Exec(ctx, q)
}

// Exec executes an arbitrary statement (typically DDL) on the pinned
// connection.
func (s *Session) Exec(ctx context.Context, q string) error {
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if _, err := s.conn.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("%s: exec: %w", s.d.Name(), err)
	}
	return nil
}

// Close rolls back any open transaction and releases the connection.
func (s *Session) Close() error {
	_ = s.Rollback(context.Background())
	cerr := s.conn.Close()
	derr := s.db.Close()
	if cerr != nil {
		return fmt.Errorf("%s: close conn: %w", s.d.Name(), cerr)
	}
	if derr != nil {
		return fmt.Errorf("%s: close db: %w", s.d.Name(), derr)
	}
	return nil
}

// QuoteFQN quotes each dot-separated segment of name.
func QuoteFQN(d schema.Dialect, name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdent(strings.TrimSpace(p))
	}
	return strings.Join(parts, ".")
}
