package store

import (
	"bytes"
	"errors"
	"os"
	"testing"
)

func TestReadBlockZeroFillsPastEnd(t *testing.T) {
	m := NewMem()
	s := New(m)
	if err := s.WriteBlock("f", 0, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	buf := []byte{9, 9, 9, 9, 9}
	if err := s.ReadBlock("f", 1, buf); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(buf, []byte{2, 3, 0, 0, 0}) {
		t.Errorf("got %v, want [2 3 0 0 0]", buf)
	}
}

func TestReadBlockMissingFile(t *testing.T) {
	s := New(NewMem())
	err := s.ReadBlock("nope", 0, make([]byte, 4))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestByteAccess(t *testing.T) {
	s := New(NewMem())
	if err := s.WriteByteAt("f", 4, 0x7E); err != nil {
		t.Fatalf("WriteByteAt: %v", err)
	}
	b, err := s.ReadByteAt("f", 4)
	if err != nil {
		t.Fatalf("ReadByteAt: %v", err)
	}
	if b != 0x7E {
		t.Errorf("got 0x%02x, want 0x7e", b)
	}
	// Gap before the written byte reads as zero.
	if b, _ := s.ReadByteAt("f", 2); b != 0 {
		t.Errorf("gap byte: got 0x%02x, want 0", b)
	}
}

func TestWriteErrorWrapped(t *testing.T) {
	m := NewMem()
	errDisk := errors.New("disk full")
	m.WriteError = errDisk
	err := New(m).WriteBlock("f", 0, []byte{1})
	if !errors.Is(err, errDisk) {
		t.Errorf("expected wrapped disk error, got %v", err)
	}
}

func TestCompareBlock(t *testing.T) {
	s := New(NewMem())
	slot := make([]byte, 40)
	copy(slot, "hello")
	if err := s.WriteBlock("f", 10, slot); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	tests := []struct {
		cand string
		want bool
	}{
		{"hello", true},
		{"hell", false},   // stored byte after candidate is not a terminator
		{"hello!", false}, // candidate longer than stored value
		{"jello", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := s.CompareBlock("f", 10, []byte(tt.cand), 40)
		if err != nil {
			t.Fatalf("CompareBlock(%q): %v", tt.cand, err)
		}
		if got != tt.want {
			t.Errorf("CompareBlock(%q): got %v, want %v", tt.cand, got, tt.want)
		}
	}
}

func TestCompareBlockFullSlot(t *testing.T) {
	s := New(NewMem())
	full := bytes.Repeat([]byte{'x'}, 8)
	if err := s.WriteBlock("f", 0, append(full, 'y')); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	// At capacity no terminator is expected.
	same, err := s.CompareBlock("f", 0, full, 8)
	if err != nil {
		t.Fatalf("CompareBlock: %v", err)
	}
	if !same {
		t.Error("expected full-slot match")
	}
}

func TestCompareBlockMissingFileOrShortFile(t *testing.T) {
	s := New(NewMem())
	if same, err := s.CompareBlock("nope", 0, []byte("a"), 8); same || err != nil {
		t.Errorf("missing file: got %v, %v", same, err)
	}
	if err := s.WriteBlock("f", 0, []byte("abc")); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if same, err := s.CompareBlock("f", 0, []byte("abc"), 8); same || err != nil {
		t.Errorf("unterminated at EOF: got %v, %v", same, err)
	}
}

func TestDirMedium(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	s := New(d)

	if s.Exists("f") {
		t.Fatal("file should not exist yet")
	}
	if err := s.WriteBlock("f", 3, []byte("abc")); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if !s.Exists("f") {
		t.Fatal("file should exist")
	}
	buf := make([]byte, 8)
	if err := s.ReadBlock("f", 0, buf); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(buf, []byte{0, 0, 0, 'a', 'b', 'c', 0, 0}) {
		t.Errorf("got %v", buf)
	}
	same, err := s.CompareBlock("f", 3, []byte("abc"), 5)
	if err != nil || same {
		t.Errorf("CompareBlock at EOF: got %v, %v; want false, nil", same, err)
	}
	if err := s.Remove("f"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove("f"); err != nil {
		t.Errorf("second Remove: %v", err)
	}
	if s.Exists("f") {
		t.Error("file should be gone")
	}
}
