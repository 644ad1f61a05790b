// Package all registers every built-in storage backend with the storage
// factory. Import it for side effects:
//
//	import _ "parsenumber/internal/storage/all"
//
// Kinds made available: "sqlite", "postgres", "mssql", "mysql", "csv".
// A binary that needs fewer backends can import the wanted packages
// directly instead.
package all

import (
	_ "parsenumber/internal/storage/csvout"
	_ "parsenumber/internal/storage/mssql"
	_ "parsenumber/internal/storage/mysql"
	_ "parsenumber/internal/storage/postgres"
	_ "parsenumber/internal/storage/sqlite"
)
