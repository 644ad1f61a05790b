package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"parsenumber/internal/ddl"
	"parsenumber/internal/rowset"
)

// Dialect renders Postgres DDL; identifiers are sanitized by pgx.
var Dialect = ddl.Dialect{
	Name:       "postgres",
	QuoteIdent: func(id string) string { return pgx.Identifier{id}.Sanitize() },
	MapType:    MapType,
	Wrap:       ddl.CreateIfNotExists,
}

// MapType maps a column type to a Postgres type.
func MapType(t rowset.ColumnType) (string, error) {
	switch t {
	case rowset.TypeString:
		return "TEXT", nil
	case rowset.TypeInt:
		return "BIGINT", nil
	case rowset.TypeDouble:
		return "DOUBLE PRECISION", nil
	case rowset.TypeBool:
		return "BOOLEAN", nil
	default:
		return "", fmt.Errorf("postgres ddl: no type for %s", t)
	}
}
