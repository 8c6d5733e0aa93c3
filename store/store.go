// Package store writes tiles to a directory, one file per tile.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdok/wmtsclient/wmtserr"
)

const DefaultPrefix = "IGN_WMTS"

// DirStore saves tiles in a directory that must already exist.
type DirStore struct {
	dir    string
	prefix string
}

// NewDirStore checks that dir exists and is a directory.
// An empty prefix means DefaultPrefix.
func NewDirStore(dir, prefix string) (*DirStore, error) {
	if err := CheckDir(dir); err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &DirStore{dir: dir, prefix: prefix}, nil
}

// CheckDir fails with a *wmtserr.InvalidDestinationError unless dir is an existing directory.
func CheckDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &wmtserr.InvalidDestinationError{Path: dir}
	case err != nil:
		return &wmtserr.InvalidDestinationError{Path: dir, Err: err}
	case !info.IsDir():
		return &wmtserr.InvalidDestinationError{Path: dir, Err: fmt.Errorf("not a directory")}
	}
	return nil
}

func (s *DirStore) Dir() string { return s.dir }

// Path is where the tile at (col, row) is stored: <dir>/<prefix>_<col>_<row><ext>.
func (s *DirStore) Path(col, row int, ext string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%d_%d%s", s.prefix, col, row, ext))
}

// Save writes the tile bytes, replacing an existing file, and returns the path written.
// created is false when a file was already there.
func (s *DirStore) Save(col, row int, ext string, data []byte) (path string, created bool, err error) {
	path = s.Path(col, row, ext)
	_, statErr := os.Lstat(path)
	created = errors.Is(statErr, os.ErrNotExist)
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return "", false, err
	}
	return path, created, nil
}

// Remove deletes files written by Save. Files that are already gone are not an error.
func (s *DirStore) Remove(paths ...string) error {
	var errs []error
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
