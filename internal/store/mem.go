package store

import (
	"io"
	"os"
	"sync"
)

// Mem is an in-memory Medium that records every write.
type Mem struct {
	mu    sync.Mutex
	files map[string][]byte

	// Writes records every WriteAt call in order.
	Writes []WriteOp

	// WriteError, if set, is returned by WriteAt.
	WriteError error
}

// WriteOp is one recorded write.
type WriteOp struct {
	Name string
	Off  int64
	Data []byte
}

// NewMem returns an empty in-memory medium.
func NewMem() *Mem {
	return &Mem{files: make(map[string][]byte)}
}

func (m *Mem) ReadAt(name string, p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[name]
	if !ok {
		return 0, os.ErrNotExist
	}
	if off >= int64(len(f)) {
		return 0, io.EOF
	}
	n := copy(p, f[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *Mem) WriteAt(name string, p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteError != nil {
		return 0, m.WriteError
	}
	f := m.files[name]
	if end := off + int64(len(p)); end > int64(len(f)) {
		f = append(f, make([]byte, end-int64(len(f)))...)
	}
	copy(f[off:], p)
	m.files[name] = f
	m.Writes = append(m.Writes, WriteOp{Name: name, Off: off, Data: append([]byte(nil), p...)})
	return len(p), nil
}

func (m *Mem) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok
}

func (m *Mem) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
	return nil
}

// Bytes returns a copy of a file's content, or nil.
func (m *Mem) Bytes(name string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[name]
	if !ok {
		return nil
	}
	return append([]byte(nil), f...)
}

// WrittenBytes totals the bytes written to name since the last ResetWrites.
func (m *Mem) WrittenBytes(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, w := range m.Writes {
		if w.Name == name {
			n += len(w.Data)
		}
	}
	return n
}

// ResetWrites clears the write log.
func (m *Mem) ResetWrites() {
	m.mu.Lock()
	m.Writes = nil
	m.mu.Unlock()
}
