// Package logger provides the structured logging interface used across igfetch.
//
// It wraps zerolog. Components receive a Logger through their constructors;
// the package-level Initialize/GetLogger pair exists for the CLI entry point only.
//
//	log, err := logger.New(&cfg.Logging)
//	log.WithField("shortcode", sc).Info("Post downloaded")
//
// Tests use NewNopLogger or NewTestLogger, which records entries for assertions.
package logger
