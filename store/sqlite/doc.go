// Package sqlite stores the fincrag run journal in a local SQLite file.
//
// The schema is created on open. State and metadata are stored as JSON text.
//
//	s, err := sqlite.NewSqliteCheckpointStore(sqlite.SqliteOptions{
//		Path: "./fincrag-journal.db",
//	})
package sqlite
