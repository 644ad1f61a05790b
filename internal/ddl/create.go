// Package ddl renders CREATE TABLE statements for the destination table of a
// run. Backends supply a Dialect; the column list always comes from the
// rewritten row-set header.
package ddl

import (
	"fmt"
	"strings"

	"parsenumber/internal/rowset"
)

// BuildCreateTableSQL renders t in dialect d. Each column is rendered as
//
//	<quoted name> <SQLType> [NOT NULL]
//
// and the list is handed to d.Wrap.
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, c.Name)
		}

		var sb strings.Builder
		sb.WriteString(d.QuoteIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	return d.Wrap(fqn, QuoteFQN(fqn, d.QuoteIdent), strings.Join(cols, ",\n  ")), nil
}

// CreateTableSQL is FromColumns followed by BuildCreateTableSQL.
func CreateTableSQL(d Dialect, table string, cols []rowset.Column) (string, error) {
	td, err := FromColumns(d, table, cols)
	if err != nil {
		return "", err
	}
	return BuildCreateTableSQL(d, td)
}

// QuoteFQN quotes each dot-separated segment of fqn. Empty segments are
// dropped.
func QuoteFQN(fqn string, quote func(string) string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}

// QuoteDouble quotes with ANSI double quotes, doubling embedded quotes.
func QuoteDouble(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// CreateIfNotExists renders "CREATE TABLE IF NOT EXISTS" for dialects that
// support it.
func CreateIfNotExists(_, quotedTable, columns string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", quotedTable, columns)
}
