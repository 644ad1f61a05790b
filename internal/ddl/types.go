package ddl

import "parsenumber/internal/rowset"

// ColumnDef describes a single column of a table to create.
//
// Name is unquoted; quoting happens at render time.
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef holds the table name in dotted form ("schema.table") and the
// ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect captures what differs between backends when rendering DDL.
type Dialect struct {
	// Name prefixes error messages, e.g. "postgres".
	Name string

	// QuoteIdent quotes a single identifier segment.
	QuoteIdent func(string) string

	// MapType returns the SQL type for a row-set column type.
	MapType func(rowset.ColumnType) (string, error)

	// Wrap turns the quoted table name and the rendered column list into the
	// final statement. table is the unquoted dotted name.
	Wrap func(table, quotedTable, columns string) string
}

// FromColumns builds a TableDef for cols using d's type mapping. All columns
// are nullable since rows may lack a value for any column.
func FromColumns(d Dialect, table string, cols []rowset.Column) (TableDef, error) {
	td := TableDef{FQN: table, Columns: make([]ColumnDef, 0, len(cols))}
	for _, c := range cols {
		typ, err := d.MapType(c.Type())
		if err != nil {
			return TableDef{}, err
		}
		td.Columns = append(td.Columns, ColumnDef{Name: c.Name(), SQLType: typ, Nullable: true})
	}
	return td, nil
}
