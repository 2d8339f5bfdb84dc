// Package mssql wires Microsoft SQL Server (github.com/microsoft/go-mssqldb)
// into the storage factory through the generic database/sql session.
//
// Bulk mode forces delayed durability on the current database; restoring
// disables it again. The login therefore needs ALTER permission on the
// database. Foreign keys of the static definitions are not declared because
// SQL Server would enforce them.
package mssql

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb" // registers driver "sqlserver"
	"github.com/microsoft/go-mssqldb/msdsn"

	"tsvload/internal/schema"
	"tsvload/internal/storage"
	"tsvload/internal/storage/sqldb"
)

// DriverName is the database/sql driver name registered by go-mssqldb.
const DriverName = "sqlserver"

// Dialect implements sqldb.Dialect for SQL Server.
type Dialect struct{}

var _ sqldb.Dialect = Dialect{}

func (Dialect) Name() string { return "mssql" }

func (Dialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (Dialect) Placeholder(i int) string { return fmt.Sprintf("@p%d", i) }

// TypeName keeps key columns indexable: NVARCHAR(MAX) cannot be a primary key.
func (Dialect) TypeName(t schema.ColumnType, primaryKey bool) string {
	switch t {
	case schema.Integer:
		return "INT"
	case schema.Real:
		return "FLOAT"
	default:
		if primaryKey {
			return "NVARCHAR(450)"
		}
		return "NVARCHAR(MAX)"
	}
}

func (Dialect) DeclareForeignKeys() bool { return false }

// splitFQN separates an optional schema prefix from the table name.
func splitFQN(table string) (schemaName, name string) {
	if i := strings.LastIndex(table, "."); i > 0 {
		return table[:i], table[i+1:]
	}
	return "", table
}

// TableColumns reads INFORMATION_SCHEMA.COLUMNS in ORDINAL_POSITION order.
func (Dialect) TableColumns(ctx context.Context, q sqldb.Querier, table string) ([]string, error) {
	query, args := columnsQuery(table)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func columnsQuery(table string) (string, []any) {
	sch, name := splitFQN(table)
	if sch == "" {
		return `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = @p1
ORDER BY ORDINAL_POSITION`, []any{name}
	}
	return `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
ORDER BY ORDINAL_POSITION`, []any{sch, name}
}

func (Dialect) BulkModeSQL() []string {
	return []string{"ALTER DATABASE CURRENT SET DELAYED_DURABILITY = FORCED"}
}

func (Dialect) RestoreSQL() []string {
	return []string{"ALTER DATABASE CURRENT SET DELAYED_DURABILITY = DISABLED"}
}

// CreateTableSQL guards CREATE TABLE with OBJECT_ID since SQL Server has no
// IF NOT EXISTS clause for tables.
func (d Dialect) CreateTableSQL(def schema.TableDef) (string, error) {
	body, err := schema.CreateTableBody(d, def)
	if err != nil {
		return "", err
	}
	fqn := sqldb.QuoteFQN(d, def.Name)
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s %s",
		strings.ReplaceAll(fqn, "'", "''"), fqn, body,
	), nil
}

// Open validates dsn and returns a Session.
func Open(ctx context.Context, dsn string) (*sqldb.Session, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	return sqldb.Open(ctx, DriverName, dsn, Dialect{})
}

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Session, error) {
		s, err := Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
