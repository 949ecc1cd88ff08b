// Package detectors implements the signature engine: a fixed table of known
// credential formats plus user-supplied patterns, each reporting zero or more
// findings for a given file path and content.
package detectors
