package chunkio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/xyrin88/anthemtool/bitio"
	"github.com/xyrin88/anthemtool/xerr"
)

// encodeHeader builds an 8-byte chunk header per spec.md §4.3.
func encodeHeader(uncompressed uint16, code uint16, compressed uint32) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint16(b[0:2], uncompressed)
	binary.LittleEndian.PutUint16(b[2:4], code)
	binary.BigEndian.PutUint32(b[4:8], compressed)
	return b
}

type fakeDecompressor struct {
	out []byte
	err error
}

func (f *fakeDecompressor) Decompress(src []byte, dstSize uint32) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

// S2 — single uncompressed EBX part.
func TestDecompressSingleStoredChunk(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeHeader(5, codeStoredA, 5))
	buf.WriteString("HELLO")

	got, err := Decompress(bitio.New(buf.Bytes()), ByUncompressedSize(5), nil)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if string(got) != "HELLO" {
		t.Fatalf("Decompress() = %q, want HELLO", got)
	}
}

// S3 — mixed-compression part: one full-size external chunk, one small
// stored tail chunk.
func TestDecompressMixedChunks(t *testing.T) {
	c1 := bytes.Repeat([]byte{0xAB}, 0x10000)
	fake := &fakeDecompressor{out: c1}

	var buf bytes.Buffer
	// A raw uncompressed size of zero encodes 0x10000; the compressed
	// payload length is arbitrary.
	buf.Write(encodeHeader(0, codeExternal, 4))
	buf.WriteString("C1PL")
	buf.Write(encodeHeader(5, codeStoredB, 5))
	buf.WriteString("WORLD")

	got, err := Decompress(bitio.New(buf.Bytes()), ByUncompressedSize(0x10000+5), fake)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if len(got) != 0x10000+5 {
		t.Fatalf("len(got) = %d, want %d", len(got), 0x10000+5)
	}
	if !bytes.Equal(got[:0x10000], c1) {
		t.Fatalf("first 0x10000 bytes don't match decompressed C1")
	}
	if string(got[0x10000:]) != "WORLD" {
		t.Fatalf("tail = %q, want WORLD", got[0x10000:])
	}
}

// S4 — unknown compression code.
func TestDecompressUnknownCompression(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeHeader(3, 0x1234, 3))
	buf.WriteString("abc")

	_, err := Decompress(bitio.New(buf.Bytes()), ByUncompressedSize(3), nil)
	var uce *xerr.UnknownCompressionError
	if !errors.As(err, &uce) {
		t.Fatalf("Decompress() error = %v, want UnknownCompressionError", err)
	}
	if uce.Code != 0x1234 {
		t.Fatalf("uce.Code = %#x, want 0x1234", uce.Code)
	}
}

func TestDecompressByCompressedSize(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeHeader(4, codeStoredA, 4))
	buf.WriteString("DATA")

	got, err := Decompress(bitio.New(buf.Bytes()), ByCompressedSize(4), nil)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if string(got) != "DATA" {
		t.Fatalf("Decompress() = %q, want DATA", got)
	}
}

func TestDecompressDeclaredSizeMismatch(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeHeader(999, codeStoredA, 5))
	buf.WriteString("HELLO")

	_, err := Decompress(bitio.New(buf.Bytes()), ByUncompressedSize(999), nil)
	if !errors.Is(err, xerr.FormatMismatch) {
		t.Fatalf("Decompress() error = %v, want FormatMismatch", err)
	}
}

func TestDecompressExternalError(t *testing.T) {
	fake := &fakeDecompressor{err: errors.New("library blew up")}
	var buf bytes.Buffer
	buf.Write(encodeHeader(4, codeExternal, 4))
	buf.WriteString("abcd")

	_, err := Decompress(bitio.New(buf.Bytes()), ByUncompressedSize(4), fake)
	if !errors.Is(err, xerr.DecompressorError) {
		t.Fatalf("Decompress() error = %v, want DecompressorError", err)
	}
}

func TestDecompressMissingDecompressor(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeHeader(4, codeExternal, 4))
	buf.WriteString("abcd")

	_, err := Decompress(bitio.New(buf.Bytes()), ByUncompressedSize(4), nil)
	if !errors.Is(err, xerr.DecompressorError) {
		t.Fatalf("Decompress() error = %v, want DecompressorError", err)
	}
}

func TestDecompressTruncatedStream(t *testing.T) {
	_, err := Decompress(bitio.New(nil), ByUncompressedSize(5), nil)
	if !errors.Is(err, xerr.Truncated) {
		t.Fatalf("Decompress() error = %v, want Truncated", err)
	}
}
