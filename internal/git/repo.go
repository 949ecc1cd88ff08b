// Package git reads the repository state a scan needs: the tracked file
// list, the staged snapshot for pre-commit checks, files changed since a base
// revision and repository metadata for reports. It uses go-git so no git
// binary is required.
package git

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository is returned when no repository encloses the path.
var ErrNotRepository = errors.New("not a git repository")

// Repo wraps an opened repository and its worktree root.
type Repo struct {
	repo *gogit.Repository
	root string
}

// File is a staged blob keyed by its worktree path.
type File struct {
	Path string
	Data []byte
}

// validateRoot validates and normalizes a repository path.
func validateRoot(root string) (string, error) {
	if strings.ContainsRune(root, 0) {
		return "", fmt.Errorf("invalid path: contains null byte")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access path %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", root)
	}
	return abs, nil
}

// Open finds the repository enclosing path.
func Open(path string) (*Repo, error) {
	abs, err := validateRoot(path)
	if err != nil {
		return nil, err
	}
	r, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotRepository)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repository has no worktree: %w", err)
	}
	return &Repo{repo: r, root: wt.Filesystem.Root()}, nil
}

// Root is the absolute worktree root.
func (r *Repo) Root() string { return r.root }

func (r *Repo) abs(name string) string {
	return filepath.Join(r.root, filepath.FromSlash(name))
}

// TrackedFiles lists the regular files in the index that still exist in the
// worktree, as absolute paths in index order.
func (r *Repo) TrackedFiles() ([]string, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	var out []string
	for _, e := range idx.Entries {
		if !isRegular(e.Mode) {
			continue
		}
		p := r.abs(e.Name)
		if info, err := os.Lstat(p); err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// StagedFiles returns the index content of every regular file whose staged
// blob differs from HEAD. In a repository without commits every indexed file
// counts as staged. Deleted files are not reported.
func (r *Repo) StagedFiles() ([]File, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	head, err := r.headTree()
	if err != nil {
		return nil, err
	}

	var out []File
	for _, e := range idx.Entries {
		if !isRegular(e.Mode) {
			continue
		}
		if head != nil {
			if f, err := head.File(e.Name); err == nil && f.Hash == e.Hash {
				continue
			}
		}
		data, err := r.blob(e.Hash)
		if err != nil {
			return nil, fmt.Errorf("failed to read staged %s: %w", e.Name, err)
		}
		out = append(out, File{Path: r.abs(e.Name), Data: data})
	}
	return out, nil
}

// ChangedSince lists the worktree files that were added or modified between
// base and HEAD.
func (r *Repo) ChangedSince(base string) ([]string, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(base))
	if err != nil {
		return nil, fmt.Errorf("unknown revision %q: %w", base, err)
	}
	baseCommit, err := r.repo.CommitObject(*h)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", base, err)
	}
	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, err
	}
	head, err := r.headTree()
	if err != nil {
		return nil, err
	}
	if head == nil {
		return nil, errors.New("repository has no commits")
	}
	changes, err := object.DiffTree(baseTree, head)
	if err != nil {
		return nil, fmt.Errorf("failed to diff against %q: %w", base, err)
	}
	var out []string
	for _, c := range changes {
		if c.To.Name == "" || !isRegular(c.To.TreeEntry.Mode) {
			continue
		}
		p := r.abs(c.To.Name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// Metadata describes the checked-out revision for reports. Fields are empty
// when unknown.
type Metadata struct {
	Repo   string `json:"repo,omitempty"`
	Commit string `json:"commit,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// Metadata is best-effort and never fails.
func (r *Repo) Metadata() Metadata {
	var m Metadata
	if remote, err := r.repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			m.Repo = shortRemote(urls[0])
		}
	}
	if ref, err := r.repo.Head(); err == nil {
		m.Commit = ref.Hash().String()
		if ref.Name().IsBranch() {
			m.Branch = ref.Name().Short()
		}
	}
	return m
}

// shortRemote keeps owner/name when the URL allows it.
func shortRemote(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".git")
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
		if j := strings.Index(s, "/"); j >= 0 {
			s = s[j+1:]
		}
		return s
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// headTree returns nil without error when HEAD is unborn.
func (r *Repo) headTree() (*object.Tree, error) {
	ref, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	c, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD commit: %w", err)
	}
	return c.Tree()
}

func (r *Repo) blob(h plumbing.Hash) ([]byte, error) {
	b, err := r.repo.BlobObject(h)
	if err != nil {
		return nil, err
	}
	rd, err := b.Reader()
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	return io.ReadAll(rd)
}

func isRegular(m filemode.FileMode) bool {
	return m == filemode.Regular || m == filemode.Executable || m == filemode.Deprecated
}
