package mysql

import (
	"fmt"
	"strings"

	"parsenumber/internal/ddl"
	"parsenumber/internal/rowset"
)

// Dialect renders MySQL DDL with backtick quoting.
var Dialect = ddl.Dialect{
	Name:       "mysql",
	QuoteIdent: quoteIdent,
	MapType:    MapType,
	Wrap:       ddl.CreateIfNotExists,
}

// MapType maps a column type to a MySQL type.
func MapType(t rowset.ColumnType) (string, error) {
	switch t {
	case rowset.TypeString:
		return "TEXT", nil
	case rowset.TypeInt:
		return "BIGINT", nil
	case rowset.TypeDouble:
		return "DOUBLE", nil
	case rowset.TypeBool:
		return "BOOLEAN", nil
	default:
		return "", fmt.Errorf("mysql ddl: no type for %s", t)
	}
}

func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }
