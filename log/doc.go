// Package log is the leveled logging used across fincrag.
//
// Logger has four printf-style methods. GologLogger forwards them to
// github.com/kataras/golog and is the package default; NoOpLogger discards
// everything. Components take a Logger in their config and tag their lines
// with For:
//
//	logger := log.For(cfg.Logger, "session") // nil means the package default
//	logger.Info("loaded %s", ticker)
//
// The binary installs its own golog logger with SetDefaultLogger.
package log
