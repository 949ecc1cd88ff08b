// Package core provides a small, stable facade over leakguard's internal
// scanner and redactor for external integrations. It re-exports a narrow API
// surface so other programs can depend on a stable import path without
// importing the internal packages.
//
// Example:
//
//	s, err := core.NewSecretScanner(core.Config{MaxConcurrency: 4})
//	if err != nil { /* handle */ }
//	result := s.ScanFiles([]string{"config.env"})
//	_ = core.WriteJSON(os.Stdout, result)
package core
