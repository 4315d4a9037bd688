// Package logging provides structured logging built on Go's standard slog
// package, with level filtering and a subsystem identifier on every entry.
//
// Initialize once at startup:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
// then log with a subsystem tag:
//
//	logging.Info("Reconcile", "Registering task definition %s", family)
//	logging.Error("AWS", err, "DescribeServices failed")
//
// Subsystems in use: Bootstrap, Config, Reconcile, AWS, Git, Docker, Watch.
// The pure merge/diff core never logs; errors there are returned as values.
package logging
