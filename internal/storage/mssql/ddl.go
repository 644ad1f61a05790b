package mssql

import (
	"fmt"
	"strings"

	"parsenumber/internal/ddl"
	"parsenumber/internal/rowset"
)

// Dialect renders T-SQL DDL. SQL Server has no CREATE TABLE IF NOT EXISTS,
// so the statement is guarded by OBJECT_ID.
var Dialect = ddl.Dialect{
	Name:       "mssql",
	QuoteIdent: msIdent,
	MapType:    MapType,
	Wrap: func(table, quotedTable, columns string) string {
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s (\n  %s\n);",
			strings.ReplaceAll(quotedTable, "'", "''"), quotedTable, columns,
		)
	},
}

// MapType maps a column type to a SQL Server type.
func MapType(t rowset.ColumnType) (string, error) {
	switch t {
	case rowset.TypeString:
		return "NVARCHAR(MAX)", nil
	case rowset.TypeInt:
		return "BIGINT", nil
	case rowset.TypeDouble:
		return "FLOAT", nil
	case rowset.TypeBool:
		return "BIT", nil
	default:
		return "", fmt.Errorf("mssql ddl: no type for %s", t)
	}
}

func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }
