package redact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/leakguard/leakguard/internal/types"
)

// Restore copies the backup of path over the live file and removes the
// backup.
func (r *Redactor) Restore(path string) error {
	bp := BackupPath(path)
	info, err := os.Stat(bp)
	if err != nil {
		return fmt.Errorf("no backup for %s: %w", path, err)
	}
	b, err := os.ReadFile(bp)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if err := writeWithMode(path, b, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to restore %s: %w", path, err)
	}
	if err := os.Remove(bp); err != nil {
		return fmt.Errorf("restored %s but could not remove backup: %w", path, err)
	}
	r.logger.Debug().Str("path", path).Msg("restored from backup")
	return nil
}

// RestoreAll restores each path and reports per file.
func (r *Redactor) RestoreAll(paths []string) Report {
	return r.each(paths, r.Restore)
}

// Cleanup deletes the backups of paths.
func (r *Redactor) Cleanup(paths []string) Report {
	return r.each(paths, func(p string) error {
		if err := os.Remove(BackupPath(p)); err != nil {
			return fmt.Errorf("failed to remove backup: %w", err)
		}
		return nil
	})
}

func (r *Redactor) each(paths []string, fn func(string) error) Report {
	var rep Report
	for _, p := range paths {
		d := FileDetail{Path: p}
		if err := fn(p); err != nil {
			d.Error = err.Error()
			rep.Errors = append(rep.Errors, types.FileError{Path: p, Err: d.Error})
		} else {
			d.Changed = true
			rep.FilesProcessed++
		}
		rep.Files = append(rep.Files, d)
	}
	return rep
}

// FindBackups returns the original paths of every backup under root.
func FindBackups(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), "**/*"+BackupSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to search backups: %w", err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(m, BackupSuffix))))
	}
	sort.Strings(out)
	return out, nil
}
