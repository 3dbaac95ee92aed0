// Package assets reads logo and signature images for invoice rendering.
//
// Assets live under a single base directory; lookups are confined to it.
// A missing asset is a normal condition: the caller degrades it to empty
// content rather than failing the invoice.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for asset operations.
var (
	// ErrAssetNotFound indicates the requested asset does not exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrInvalidBasePath indicates the configured base path is not a valid directory.
	ErrInvalidBasePath = errors.New("invalid base path")

	// ErrAssetRead indicates an I/O error occurred while reading an asset file.
	ErrAssetRead = errors.New("failed to read asset")

	// ErrPathTraversal indicates an attempt to access files outside the base path.
	ErrPathTraversal = errors.New("path traversal detected")
)

// Store reads assets from a directory on the filesystem.
type Store struct {
	basePath string
}

// NewStore creates a Store over the given base path.
// Returns ErrInvalidBasePath if the path is not a valid, readable directory.
func NewStore(basePath string) (*Store, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	// Resolve symlinks in base path for consistent containment checks.
	if realPath, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = realPath
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, absPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, absPath)
	}

	return &Store{basePath: absPath}, nil
}

// ReadAsset reads one asset by its path relative to the base directory.
// Returns ErrAssetNotFound for missing files and ErrPathTraversal for paths
// escaping the base directory.
func (s *Store) ReadAsset(path string) ([]byte, error) {
	if path == "" || strings.Contains(path, "\x00") {
		return nil, fmt.Errorf("%w: %q", ErrAssetNotFound, path)
	}

	full := filepath.Join(s.basePath, filepath.Clean("/"+path))
	if err := s.verifyContainment(full); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(full) // #nosec G304 -- path contained above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrAssetNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return content, nil
}

// verifyContainment ensures the resolved path stays inside the base
// directory, following symlinks in the existing part of the path.
func (s *Store) verifyContainment(full string) error {
	resolved := full
	if realPath, err := filepath.EvalSymlinks(full); err == nil {
		resolved = realPath
	}
	rel, err := filepath.Rel(s.basePath, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrPathTraversal, full)
	}
	return nil
}
