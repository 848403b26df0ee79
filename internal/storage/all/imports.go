// Package all wires every built-in storage backend into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the storage package. Binaries that want only a subset
// of backends can import the individual subpackages instead.
package all

import (
	_ "stats19/internal/storage/mssql"
	_ "stats19/internal/storage/mysql"
	_ "stats19/internal/storage/postgres"
	_ "stats19/internal/storage/sqlite"
)
