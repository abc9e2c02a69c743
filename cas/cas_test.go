package cas

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xyrin88/anthemtool/layout"
	"github.com/xyrin88/anthemtool/xerr"
)

type fakeResolver struct {
	paths map[layout.CASID]string
}

func (f *fakeResolver) PathFor(id layout.CASID) (string, error) {
	p, ok := f.paths[id]
	if !ok {
		return "", xerr.Wrap(xerr.BundleUnavailable, "no such cas id")
	}
	return p, nil
}

func writeStoredChunkFile(t *testing.T, dir, name string, payload []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var buf []byte
	hdr := make([]byte, 8)
	binary.BigEndian.PutUint16(hdr[0:2], uint16(len(payload)))
	binary.LittleEndian.PutUint16(hdr[2:4], 0x0070)
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(payload)))
	buf = append(buf, hdr...)
	buf = append(buf, payload...)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// S2 — single uncompressed part.
func TestReadStoredChunk(t *testing.T) {
	dir := t.TempDir()
	path := writeStoredChunkFile(t, dir, "cas_01.cas", []byte("HELLO"))

	resolver := &fakeResolver{paths: map[layout.CASID]string{1: path}}
	r, err := NewReader(resolver, nil, 4)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()

	got, err := r.Read(1, 0, 5, 5, true)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != "HELLO" {
		t.Fatalf("Read() = %q, want HELLO", got)
	}
}

// S5 — missing package CAS.
func TestReadMissingFile(t *testing.T) {
	resolver := &fakeResolver{paths: map[layout.CASID]string{1: "/nonexistent/cas_05.cas"}}
	r, err := NewReader(resolver, nil, 4)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()

	_, err = r.Read(1, 0, 5, 5, true)
	if !errors.Is(err, xerr.BundleUnavailable) {
		t.Fatalf("Read() error = %v, want BundleUnavailable", err)
	}
}

func TestReadUnknownCASID(t *testing.T) {
	resolver := &fakeResolver{paths: map[layout.CASID]string{}}
	r, err := NewReader(resolver, nil, 4)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()

	_, err = r.Read(99, 0, 5, 5, true)
	if !errors.Is(err, xerr.BundleUnavailable) {
		t.Fatalf("Read() error = %v, want BundleUnavailable", err)
	}
}

func TestReadHandleCacheReused(t *testing.T) {
	dir := t.TempDir()
	path := writeStoredChunkFile(t, dir, "cas_02.cas", []byte("WORLD"))

	resolver := &fakeResolver{paths: map[layout.CASID]string{1: path}}
	r, err := NewReader(resolver, nil, 1)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()

	for i := 0; i < 3; i++ {
		got, err := r.Read(1, 0, 5, 5, true)
		if err != nil {
			t.Fatalf("Read() iteration %d error = %v", i, err)
		}
		if string(got) != "WORLD" {
			t.Fatalf("Read() = %q, want WORLD", got)
		}
	}
}

func TestReadAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := writeStoredChunkFile(t, dir, "cas_03.cas", []byte("HELLO"))
	resolver := &fakeResolver{paths: map[layout.CASID]string{1: path}}
	r, err := NewReader(resolver, nil, 4)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	r.Close()

	_, err = r.Read(1, 0, 5, 5, true)
	if !errors.Is(err, xerr.IoError) {
		t.Fatalf("Read() error = %v, want IoError", err)
	}
}
