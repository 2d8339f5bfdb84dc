// Package sqlite wires the SQLite backend (modernc.org/sqlite, pure Go) into
// the storage factory. Columns come from PRAGMA table_info and the bulk
// write mode is journal_mode=WAL, switched back to the default rollback
// journal (DELETE) when the load ends.
//
// DSN examples: "imdb.db", "file:imdb.db?_pragma=busy_timeout(5000)".
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite" // registers driver "sqlite"

	"tsvload/internal/schema"
	"tsvload/internal/storage"
	"tsvload/internal/storage/sqldb"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Dialect implements sqldb.Dialect for SQLite.
type Dialect struct{}

var _ sqldb.Dialect = Dialect{}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Dialect) Placeholder(int) string { return "?" }

// TypeName maps to SQLite column affinities.
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

// DeclareForeignKeys is true: SQLite only enforces them with
// PRAGMA foreign_keys=ON, which this backend never sets.
func (Dialect) DeclareForeignKeys() bool { return true }

// TableColumns reads PRAGMA table_info, whose rows come back in cid order.
func (d Dialect) TableColumns(ctx context.Context, q sqldb.Querier, table string) ([]string, error) {
	pragma := "PRAGMA table_info(" + d.QuoteIdent(table) + ")"
	if i := strings.LastIndex(table, "."); i > 0 {
		pragma = "PRAGMA " + d.QuoteIdent(table[:i]) + ".table_info(" + d.QuoteIdent(table[i+1:]) + ")"
	}
	rows, err := q.QueryContext(ctx, pragma)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     sql.NullString
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (Dialect) BulkModeSQL() []string { return []string{"PRAGMA journal_mode=WAL"} }
func (Dialect) RestoreSQL() []string  { return []string{"PRAGMA journal_mode=DELETE"} }

func (d Dialect) CreateTableSQL(def schema.TableDef) (string, error) {
	body, err := schema.CreateTableBody(d, def)
	if err != nil {
		return "", err
	}
	return "CREATE TABLE IF NOT EXISTS " + sqldb.QuoteFQN(d, def.Name) + " " + body, nil
}

// Open returns a Session on dsn.
func Open(ctx context.Context, dsn string) (*sqldb.Session, error) {
	return sqldb.Open(ctx, DriverName, dsn, Dialect{})
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Session, error) {
		s, err := Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
