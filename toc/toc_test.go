package toc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/xyrin88/anthemtool/xerr"
)

func beU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// S1 — empty superbundle: TOC magic at offset 0, wrapper magic at
// 0x22C, single empty body.
func TestOpenBodyWithWrapper(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(beU32(Magic))
	buf.Write(make([]byte, BodyOffset-4))
	buf.Write(beU32(WrapperMagic))
	buf.WriteByte(0x01) // varint length of wrapped body
	buf.WriteByte(0x00) // the body itself: immediate end-of-record

	r, err := OpenBody(buf.Bytes())
	if err != nil {
		t.Fatalf("OpenBody() error = %v", err)
	}
	if r.Remaining() != 1 {
		t.Fatalf("r.Remaining() = %d, want 1", r.Remaining())
	}
}

func TestOpenBodyWithoutWrapper(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(beU32(Magic))
	buf.Write(make([]byte, BodyOffset-4))
	buf.WriteByte(0x00) // body: immediate end-of-record, no wrapper magic here

	r, err := OpenBody(buf.Bytes())
	if err != nil {
		t.Fatalf("OpenBody() error = %v", err)
	}
	if r.Remaining() != 1 {
		t.Fatalf("r.Remaining() = %d, want 1", r.Remaining())
	}
}

func TestOpenBodyBadMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(beU32(0xDEADBEEF))
	buf.Write(make([]byte, BodyOffset))

	_, err := OpenBody(buf.Bytes())
	if !errors.Is(err, xerr.FormatMismatch) {
		t.Fatalf("OpenBody() error = %v, want FormatMismatch", err)
	}
}

func TestOpenSBBody(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(beU32(SBMagic))
	buf.WriteByte(0x03)
	buf.WriteString("abc")

	r, err := OpenSBBody(buf.Bytes())
	if err != nil {
		t.Fatalf("OpenSBBody() error = %v", err)
	}
	got, _ := r.ReadBytes(3)
	if string(got) != "abc" {
		t.Fatalf("OpenSBBody body = %q, want abc", got)
	}
}

func TestOpenSBBodyBadMagic(t *testing.T) {
	_, err := OpenSBBody([]byte{0, 0, 0, 0})
	if !errors.Is(err, xerr.FormatMismatch) {
		t.Fatalf("OpenSBBody() error = %v, want FormatMismatch", err)
	}
}
