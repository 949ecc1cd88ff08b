// Package engine orchestrates a scan: it filters candidate files, runs the
// signature and entropy engines over each one with bounded concurrency and
// merges the results. External consumers should use the facade in pkg/core.
package engine
