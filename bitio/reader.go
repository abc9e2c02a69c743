// Package bitio provides the primitive cursor the rest of the decoder is
// built on: bounds-checked fixed-width integer reads, the tag stream's
// variable-length integer encoding, length-prefixed and null-terminated
// strings, seeking, and bounded sub-readers.
package bitio

import (
	"encoding/binary"

	"github.com/xyrin88/anthemtool/xerr"
)

// MaxVarintBytes is the maximum number of bytes a tag stream varint may
// occupy before decoding fails (spec.md §4.1).
const MaxVarintBytes = 9

// Reader is a cursor over an in-memory byte slice. It never mutates the
// underlying slice and is safe to fork into independent sub-readers with
// OpenSubview.
type Reader struct {
	data []byte
	pos  int
}

// New wraps data in a Reader positioned at offset 0.
func New(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the current absolute position.
func (r *Reader) Offset() int64 {
	return int64(r.pos)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int64 {
	return int64(len(r.data) - r.pos)
}

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int64 {
	return int64(len(r.data))
}

// SeekAbsolute moves the cursor to an absolute offset.
func (r *Reader) SeekAbsolute(off int64) error {
	if off < 0 || off > int64(len(r.data)) {
		return xerr.Wrapf(xerr.Truncated, "seek to %d outside buffer of length %d", off, len(r.data))
	}
	r.pos = int(off)
	return nil
}

// SeekRelative moves the cursor by delta bytes, forward or backward.
func (r *Reader) SeekRelative(delta int64) error {
	return r.SeekAbsolute(int64(r.pos) + delta)
}

func (r *Reader) need(n int) error {
	if n < 0 || n > len(r.data)-r.pos {
		return xerr.Wrapf(xerr.Truncated, "need %d bytes at offset %d, have %d", n, r.pos, len(r.data)-r.pos)
	}
	return nil
}

// ReadBytes returns the next n bytes and advances the cursor. The returned
// slice aliases the Reader's backing array; callers that need to retain it
// past further reads should copy it.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU8 reads an unsigned 8-bit integer.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian unsigned 16-bit integer.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU16BE reads a big-endian unsigned 16-bit integer, used for the
// uncompressed-size field of a chunk header.
func (r *Reader) ReadU16BE() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian unsigned 32-bit integer.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU32BE reads a big-endian unsigned 32-bit integer.
func (r *Reader) ReadU32BE() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian unsigned 64-bit integer.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadI32 reads a little-endian signed 32-bit integer.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadI64 reads a little-endian signed 64-bit integer.
func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

// ReadVarint reads the tag stream's variable-length unsigned integer: seven
// data bits per byte, MSB is a continuation flag, little-endian byte order.
// Reading a continuation run of MaxVarintBytes or more bytes fails.
func (r *Reader) ReadVarint() (uint64, error) {
	var result uint64
	for i := 0; i < MaxVarintBytes; i++ {
		b, err := r.ReadU8()
		if err != nil {
			return 0, xerr.Wrap(err, "varint")
		}
		result |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, xerr.Wrapf(xerr.Truncated, "varint exceeds %d continuation bytes", MaxVarintBytes)
}

// ReadLengthPrefixed reads a varint length followed by that many raw bytes.
func (r *Reader) ReadLengthPrefixed() ([]byte, error) {
	n, err := r.ReadVarint()
	if err != nil {
		return nil, xerr.Wrap(err, "length-prefixed string length")
	}
	if n > uint64(r.Remaining()) {
		return nil, xerr.Wrapf(xerr.Truncated, "length-prefixed string of %d bytes exceeds remaining %d", n, r.Remaining())
	}
	return r.ReadBytes(int(n))
}

// ReadCString reads bytes up to and including a trailing NUL, returning the
// bytes before it.
func (r *Reader) ReadCString() ([]byte, error) {
	start := r.pos
	for {
		if r.pos >= len(r.data) {
			return nil, xerr.Wrap(xerr.Truncated, "null-terminated string")
		}
		if r.data[r.pos] == 0 {
			s := r.data[start:r.pos]
			r.pos++
			return s, nil
		}
		r.pos++
	}
}

// OpenSubview returns an independent Reader bounded to the next n bytes of
// this Reader, and advances this Reader past them.
func (r *Reader) OpenSubview(n int) (*Reader, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return nil, xerr.Wrap(err, "subview")
	}
	return New(b), nil
}
