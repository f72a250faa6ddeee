// Package logging provides structured logging for analysis job runs.
//
// This package wraps Go's log/slog to provide JSON-formatted logs carrying
// the run ID and pipeline stage, so a failed run can be diagnosed from its
// log file after the fact.
//
// # Process-wide Logger
//
// A job initializes logging once per process:
//
//	logger, err := logging.Init(".", cfg.VerboseLog)
//	if err != nil {
//	    return err
//	}
//
// Output goes to stderr and to a timestamped file in the given directory,
// named dsiBuildSoftSummative_YYYY_MM_DD_HHMM.log. Calling [Init] again
// reuses the open handlers; each call gets its own level through
// [Logger.WithLevel], so several jobs in one process share one sink without
// changing each other's verbosity.
//
// # Attributes
//
//	runLogger := logger.WithRun(runID)
//	runLogger.WithStage("load_data").Info("data loaded", "records", 42)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"data loaded","run_id":"...","stage":"load_data","records":42}
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output, or [Init] with
// t.TempDir() and [Shutdown] to inspect what was written.
package logging
