package sqlite

import (
	"fmt"

	"parsenumber/internal/ddl"
	"parsenumber/internal/rowset"
)

// Dialect renders SQLite DDL. Types follow SQLite affinities; booleans are
// stored as 0/1 integers.
var Dialect = ddl.Dialect{
	Name:       "sqlite",
	QuoteIdent: ddl.QuoteDouble,
	MapType:    MapType,
	Wrap:       ddl.CreateIfNotExists,
}

// MapType maps a column type to a SQLite type.
func MapType(t rowset.ColumnType) (string, error) {
	switch t {
	case rowset.TypeString:
		return "TEXT", nil
	case rowset.TypeInt, rowset.TypeBool:
		return "INTEGER", nil
	case rowset.TypeDouble:
		return "REAL", nil
	default:
		return "", fmt.Errorf("sqlite ddl: no type for %s", t)
	}
}
