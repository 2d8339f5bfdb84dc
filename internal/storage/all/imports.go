// Package all wires the built-in store sessions into the storage factory.
//
// Importing it for side effects runs each backend's init, which registers
// these storage kinds:
//
//   - "sqlite"   (tsvload/internal/storage/sqlite)
//   - "postgres" (tsvload/internal/storage/postgres)
//   - "mssql"    (tsvload/internal/storage/mssql)
//
// Typical usage in cmd/tsvload:
//
//	import _ "tsvload/internal/storage/all"
//
//	sess, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
//
// A binary that needs fewer backends can import the subset directly.
package all

import (
	_ "tsvload/internal/storage/mssql"
	_ "tsvload/internal/storage/postgres"
	_ "tsvload/internal/storage/sqlite"
)
