// Package videoindex builds the identifier to clip-file lookup used to
// match counter events with their footage.
package videoindex

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// NormalizeID strips leading zeros from purely numeric identifiers so that
// "007" and "7" address the same clip. A run of zeros normalizes to "0".
// Non-numeric identifiers pass through unchanged. Idempotent.
func NormalizeID(id string) string {
	cleaned := strings.TrimSpace(id)
	if !isDigits(cleaned) {
		return cleaned
	}
	if stripped := strings.TrimLeft(cleaned, "0"); stripped != "" {
		return stripped
	}
	return "0"
}

// Index recursively scans root for clip files and maps identifiers to their
// paths. The identifier is the filename stem; each file registers under both
// its raw stem and the normalized form. On key collision the earlier file in
// walk order wins: duplicate filenames across subfolders are expected when
// clips get re-exported, and the tie-break keeps matching deterministic.
// Unreadable directories are skipped rather than failing the scan.
func Index(root string, extensions []string) (map[string]string, error) {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}

	idx := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if _, ok := exts[strings.ToLower(ext)]; !ok {
			return nil
		}
		stem := strings.TrimSpace(strings.TrimSuffix(filepath.Base(path), ext))
		if stem == "" {
			return nil
		}
		register(idx, stem, path)
		register(idx, NormalizeID(stem), path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func register(idx map[string]string, key, path string) {
	if _, exists := idx[key]; !exists {
		idx[key] = path
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
