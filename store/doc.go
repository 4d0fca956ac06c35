// Package store defines the run journal: one checkpoint per pipeline node
// holding a RunSnapshot of the run state at that point.
//
// Implementations live in subpackages:
//   - memory: process-local, the default when a journal is enabled
//   - file: one JSON file per checkpoint
//   - sqlite: github.com/mattn/go-sqlite3
//   - postgres: github.com/jackc/pgx/v5
//   - redis: github.com/redis/go-redis/v9
//
// The CRAG orchestrator writes checkpoints after each node when a store is
// configured; `fincrag history <run-id>` reads them back with List.
package store
