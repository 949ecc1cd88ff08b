// Package cache keeps per-repository scan state between runs: content
// hashes of files that scanned clean, so incremental scans can skip them,
// and the last scan result, so redact can reuse it without rescanning.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/leakguard/leakguard/internal/types"
)

const (
	dbName      = "leakguard-cache.json"
	resultsName = "leakguard-last-scan.json"
	version     = 1
)

// DB maps repo-relative paths to the xxhash of content that scanned clean.
type DB struct {
	Version int               `json:"version"`
	Entries map[string]uint64 `json:"entries"`
}

// stateDir prefers .git so cache files are never committed.
func stateDir(root string) (dir, prefix string) {
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return gitDir, ""
	}
	return root, "."
}

// Path is the cache file location for root.
func Path(root string) string {
	dir, prefix := stateDir(root)
	return filepath.Join(dir, prefix+dbName)
}

// Load reads the cache for root. A missing file or one written by another
// version yields an empty DB.
func Load(root string) (DB, error) {
	db := DB{Version: version, Entries: map[string]uint64{}}
	b, err := os.ReadFile(Path(root))
	if errors.Is(err, os.ErrNotExist) {
		return db, nil
	}
	if err != nil {
		return db, err
	}
	var disk DB
	if err := json.Unmarshal(b, &disk); err != nil {
		return db, fmt.Errorf("corrupt cache %s: %w", Path(root), err)
	}
	if disk.Version != version || disk.Entries == nil {
		return db, nil
	}
	return disk, nil
}

// Save writes db for root.
func Save(root string, db DB) error {
	db.Version = version
	b, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(root), b, 0o600)
}

func key(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func hashFile(path string) (uint64, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	return xxhash.Sum64(b), true
}

// Unchanged splits paths into those whose content still matches a clean
// entry and those that need scanning.
func (db DB) Unchanged(root string, paths []string) (skip, scan []string) {
	for _, p := range paths {
		want, ok := db.Entries[key(root, p)]
		if ok {
			if got, ok := hashFile(p); ok && got == want {
				skip = append(skip, p)
				continue
			}
		}
		scan = append(scan, p)
	}
	return skip, scan
}

// Record updates db from a scan of paths: files without findings or errors
// are stored, every other scanned file is forgotten.
func (db DB) Record(root string, paths []string, res *types.ScanResult) {
	dirty := map[string]bool{}
	for _, f := range res.Findings {
		dirty[key(root, f.FilePath)] = true
	}
	for _, e := range res.Errors {
		dirty[key(root, e.Path)] = true
	}
	for _, p := range paths {
		k := key(root, p)
		if dirty[k] {
			delete(db.Entries, k)
			continue
		}
		if h, ok := hashFile(p); ok {
			db.Entries[k] = h
		} else {
			delete(db.Entries, k)
		}
	}
}

// ResultsPath is where the last scan result for root is kept.
func ResultsPath(root string) string {
	dir, prefix := stateDir(root)
	return filepath.Join(dir, prefix+resultsName)
}

// SaveResults stores r as the last scan of root.
func SaveResults(root string, r *types.ScanResult) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ResultsPath(root), b, 0o600)
}

// LoadResults returns the last scan of root.
func LoadResults(root string) (*types.ScanResult, error) {
	b, err := os.ReadFile(ResultsPath(root))
	if err != nil {
		return nil, err
	}
	var r types.ScanResult
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("corrupt scan results %s: %w", ResultsPath(root), err)
	}
	return &r, nil
}
