package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DocumentHandle names one document in storage.
type DocumentHandle struct {
	ID    string // vault-relative slash path
	Title string
}

// Storage enumerates, reads and writes documents.
type Storage interface {
	ListDocuments(ctx context.Context) ([]DocumentHandle, error)
	Read(ctx context.Context, h DocumentHandle) (string, error)
	Write(ctx context.Context, h DocumentHandle, text string) error
	CountMatchable(ctx context.Context) (int, error)
}

// VaultStorage is a Storage over the Markdown files of a directory tree.
type VaultStorage struct {
	root     string
	excludes []string
}

// NewVaultStorage returns storage rooted at vaultPath. excludes are GLOB
// patterns matched against vault-relative paths.
func NewVaultStorage(vaultPath string, excludes []string) (*VaultStorage, error) {
	if err := validateGlobPatterns(excludes); err != nil {
		return nil, err
	}
	info, err := os.Stat(vaultPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault is not a directory: %s", vaultPath)
	}
	return &VaultStorage{root: vaultPath, excludes: excludes}, nil
}

var _ Storage = (*VaultStorage)(nil)

// Root returns the vault directory.
func (s *VaultStorage) Root() string { return s.root }

// ListDocuments returns every non-excluded .md file, sorted by path.
func (s *VaultStorage) ListDocuments(ctx context.Context) ([]DocumentHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := collectMarkdownFiles(s.root)
	if err != nil {
		return nil, err
	}
	files = filterExcluded(files, s.excludes)
	sort.Strings(files)
	out := make([]DocumentHandle, len(files))
	for i, f := range files {
		out[i] = DocumentHandle{ID: f, Title: basename(f)}
	}
	return out, nil
}

// CountMatchable returns the number of documents a corpus scan will visit.
func (s *VaultStorage) CountMatchable(ctx context.Context) (int, error) {
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *VaultStorage) Read(ctx context.Context, h DocumentHandle) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := s.fullPath(h.ID)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write replaces the document content, keeping its permission bits.
func (s *VaultStorage) Write(ctx context.Context, h DocumentHandle, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.fullPath(h.ID)
	if err != nil {
		return err
	}
	info, err := os.Stat(full)
	if err != nil {
		return err
	}
	return writeFilePreservePerm(full, []byte(text), info.Mode().Perm())
}

// fullPath maps a document id to a file path, refusing ids that leave the vault.
func (s *VaultStorage) fullPath(id string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(id))
	if rel == "." || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("document path escapes vault: %s", id)
	}
	return filepath.Join(s.root, rel), nil
}

// writeFilePreservePerm writes data to path with the given permission bits.
// os.WriteFile applies umask on file creation, so os.Chmod is called to
// ensure the exact permission bits are set.
func writeFilePreservePerm(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}

func collectMarkdownFiles(vaultPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(vaultPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != vaultPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			rel, err := filepath.Rel(vaultPath, path)
			if err != nil {
				return err
			}
			files = append(files, NormalizePath(rel))
		}
		return nil
	})
	return files, err
}
