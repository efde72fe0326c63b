// Package store persists controller options, station records and
// non-volatile status in fixed-layout byte-addressable files.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Medium is a set of named byte-addressable files.
type Medium interface {
	// ReadAt reads len(p) bytes at off. Short reads return io.EOF.
	ReadAt(name string, p []byte, off int64) (int, error)

	// WriteAt writes p at off, creating and extending the file as needed.
	WriteAt(name string, p []byte, off int64) (int, error)

	// Exists reports whether the named file exists.
	Exists(name string) bool

	// Remove deletes the named file. Missing files are not an error.
	Remove(name string) error
}

// Dir is a Medium backed by files in one directory.
type Dir struct {
	path string
}

// NewDir returns a Medium rooted at path, creating the directory if needed.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

func (d *Dir) ReadAt(name string, p []byte, off int64) (int, error) {
	f, err := os.Open(filepath.Join(d.path, name))
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.ReadAt(p, off)
}

func (d *Dir) WriteAt(name string, p []byte, off int64) (int, error) {
	f, err := os.OpenFile(filepath.Join(d.path, name), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := f.WriteAt(p, off)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func (d *Dir) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(d.path, name))
	return err == nil
}

func (d *Dir) Remove(name string) error {
	err := os.Remove(filepath.Join(d.path, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// mediumReader adapts one file of a Medium to io.ReaderAt.
type mediumReader struct {
	m    Medium
	name string
}

func (r mediumReader) ReadAt(p []byte, off int64) (int, error) {
	return r.m.ReadAt(r.name, p, off)
}

var _ io.ReaderAt = mediumReader{}
