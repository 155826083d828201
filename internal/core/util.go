package core

import (
	"path/filepath"
	"strings"
)

// NormalizePath cleans a vault-relative path: forward slashes, no leading "./".
func NormalizePath(path string) string {
	clean := filepath.ToSlash(filepath.Clean(path))
	return strings.TrimPrefix(clean, "./")
}

// basename returns the file name without extension, the default document title.
func basename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// basenameKey is the case-insensitive key used to detect ambiguous titles.
func basenameKey(path string) string {
	return strings.ToLower(basename(path))
}
