package schema

import (
	"fmt"
	"strings"
)

// Dialect supplies the backend-specific pieces of a CREATE TABLE statement.
type Dialect interface {
	QuoteIdent(name string) string
	TypeName(t ColumnType, primaryKey bool) string
	// DeclareForeignKeys reports whether FOREIGN KEY clauses are emitted.
	// Stores that would enforce them return false.
	DeclareForeignKeys() bool
}

// CreateTableBody renders the parenthesized column list of def:
//
//	(
//	  "col1" TEXT,
//	  ...,
//	  PRIMARY KEY ("col1"),
//	  FOREIGN KEY ("col2") REFERENCES "t" ("c")
//	)
func CreateTableBody(d Dialect, def TableDef) (string, error) {
	if strings.TrimSpace(def.Name) == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(def.Columns) == 0 {
		return "", fmt.Errorf("ddl: table %s has no columns", def.Name)
	}

	lines := make([]string, 0, len(def.Columns)+len(def.ForeignKeys)+1)
	var pks []string
	for _, c := range def.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", def.Name)
		}
		lines = append(lines, d.QuoteIdent(c.Name)+" "+d.TypeName(c.Type, c.PrimaryKey))
		if c.PrimaryKey {
			pks = append(pks, d.QuoteIdent(c.Name))
		}
	}
	if len(pks) > 0 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	if d.DeclareForeignKeys() {
		for _, fk := range def.ForeignKeys {
			lines = append(lines, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
				d.QuoteIdent(fk.Column), d.QuoteIdent(fk.RefTable), d.QuoteIdent(fk.RefColumn)))
		}
	}
	return "(\n  " + strings.Join(lines, ",\n  ") + "\n)", nil
}
