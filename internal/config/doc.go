// Package config loads leakguard configuration from local and global YAML
// files with precedence rules and resolves it into validated settings. CLI
// flags are layered on top by the caller as one more FileConfig.
package config
