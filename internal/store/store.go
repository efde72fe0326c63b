package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// File names within the medium.
const (
	IntOptionsFile = "iopts.dat"
	StrOptionsFile = "sopts.dat"
	StationsFile   = "stns.dat"
	NVDataFile     = "nvcon.dat"
	ProgramsFile   = "prog.dat"
	DoneFile       = "done.dat"
)

// Store is the sole writer of persisted controller state. Every entity is
// addressed as record_size*index (+ field offset) within its file.
type Store struct {
	m Medium
}

// New returns a store over the given medium.
func New(m Medium) *Store {
	return &Store{m: m}
}

// ReadBlock fills buf from name at pos. Bytes past the end of the file read
// as zero; a missing file is an error.
func (s *Store) ReadBlock(name string, pos int64, buf []byte) error {
	n, err := s.m.ReadAt(name, buf, pos)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read %s@%d: %w", name, pos, err)
	}
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}

// WriteBlock writes data to name at pos.
func (s *Store) WriteBlock(name string, pos int64, data []byte) error {
	if _, err := s.m.WriteAt(name, data, pos); err != nil {
		return fmt.Errorf("write %s@%d: %w", name, pos, err)
	}
	return nil
}

// ReadByteAt reads the byte at pos.
func (s *Store) ReadByteAt(name string, pos int64) (byte, error) {
	var b [1]byte
	if err := s.ReadBlock(name, pos, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteByteAt writes v at pos.
func (s *Store) WriteByteAt(name string, pos int64, v byte) error {
	return s.WriteBlock(name, pos, []byte{v})
}

// CompareBlock reports whether the stored bytes at pos equal candidate.
// When candidate is shorter than limit the stored value must also be
// terminated by a zero byte right after it. Stored bytes are streamed through
// a small buffer rather than read in full.
func (s *Store) CompareBlock(name string, pos int64, candidate []byte, limit int) (bool, error) {
	if !s.m.Exists(name) {
		return false, nil
	}
	n := len(candidate)
	if n > limit {
		candidate = candidate[:limit]
		n = limit
	}
	want := n
	if n < limit {
		want++ // terminator
	}
	r := bufio.NewReaderSize(io.NewSectionReader(mediumReader{s.m, name}, pos, int64(want)), 16)
	for i := 0; i < want; i++ {
		c, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("compare %s@%d: %w", name, pos, err)
		}
		if i < n {
			if c != candidate[i] {
				return false, nil
			}
		} else if c != 0 {
			return false, nil
		}
	}
	return true, nil
}

// Exists reports whether the named file exists.
func (s *Store) Exists(name string) bool {
	return s.m.Exists(name)
}

// Remove deletes the named file.
func (s *Store) Remove(name string) error {
	if err := s.m.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
