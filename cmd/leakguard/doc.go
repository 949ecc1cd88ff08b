// Package leakguard provides the command-line interface for leakguard. It
// configures subcommands (scan, guard, redact, restore, baseline, etc.),
// parses flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/leakguard/leakguard/cmd/leakguard"
//	func main() { leakguard.Execute() }
package leakguard
