// Package toc opens the common envelope shared by the layout descriptor
// and every superbundle's TOC file: a fixed magic, an unmodeled header
// region, and a tag stream body starting at a fixed offset, optionally
// wrapped in one more length-prefixed container (spec.md §4.6, §6).
package toc

import (
	"encoding/binary"

	"github.com/xyrin88/anthemtool/bitio"
	"github.com/xyrin88/anthemtool/tagstream"
	"github.com/xyrin88/anthemtool/xerr"
)

// Magic is the big-endian 4-byte signature every TOC file starts with.
const Magic = 0x00D1CE01

// BodyOffset is where the tag stream body begins in a TOC file. Bytes
// between the magic and this offset are not modeled (spec.md §9(b)).
const BodyOffset = 0x22C

// WrapperMagic is the big-endian 4-byte signature of the outer container
// some superbundle TOC bodies are wrapped in. When present, exactly one
// such wrapper layer is unwrapped (spec.md §4.6).
const WrapperMagic = 0x00000030

// SBMagic is the big-endian 4-byte signature an SB file starts with at
// offset 0 (spec.md §4.6, §6).
const SBMagic = 0x00000020

// OpenBody validates the TOC magic, seeks to BodyOffset, and returns a
// Reader positioned at the start of the tag stream body — unwrapped, if
// the body happens to start with WrapperMagic.
func OpenBody(data []byte) (*bitio.Reader, error) {
	r := bitio.New(data)
	magic, err := r.ReadU32BE()
	if err != nil {
		return nil, xerr.Wrap(err, "toc magic")
	}
	if magic != Magic {
		return nil, xerr.Wrapf(xerr.FormatMismatch, "toc magic %#08x, want %#08x", magic, uint32(Magic))
	}

	if err := r.SeekAbsolute(BodyOffset); err != nil {
		return nil, xerr.Wrap(err, "toc body offset")
	}

	return unwrapOne(r)
}

// unwrapOne peeks for WrapperMagic at the reader's current position and,
// if present, consumes the 4-byte magic plus a varint length prefix and
// returns a sub-reader bounded to the declared body (spec.md §4.6: "the
// parser unwraps exactly one such layer when the wrapper magic is
// present").
func unwrapOne(r *bitio.Reader) (*bitio.Reader, error) {
	if r.Remaining() < 4 {
		return r, nil
	}
	peek, err := r.ReadBytes(4)
	if err != nil {
		return nil, xerr.Wrap(err, "toc wrapper peek")
	}
	if binary.BigEndian.Uint32(peek) != WrapperMagic {
		if err := r.SeekRelative(-4); err != nil {
			return nil, err
		}
		return r, nil
	}

	n, err := r.ReadVarint()
	if err != nil {
		return nil, xerr.Wrap(err, "toc wrapper length prefix")
	}
	if n > uint64(r.Remaining()) {
		return nil, xerr.Wrapf(xerr.FormatMismatch, "toc wrapper body of %d bytes exceeds remaining %d", n, r.Remaining())
	}
	return r.OpenSubview(int(n))
}

// OpenSBBody validates the SB magic at offset 0 and returns a Reader
// positioned at the start of its tag stream body (spec.md §4.6).
func OpenSBBody(data []byte) (*bitio.Reader, error) {
	r := bitio.New(data)
	magic, err := r.ReadU32BE()
	if err != nil {
		return nil, xerr.Wrap(err, "sb magic")
	}
	if magic != SBMagic {
		return nil, xerr.Wrapf(xerr.FormatMismatch, "sb magic %#08x, want %#08x", magic, uint32(SBMagic))
	}

	n, err := r.ReadVarint()
	if err != nil {
		return nil, xerr.Wrap(err, "sb length prefix")
	}
	if n > uint64(r.Remaining()) {
		return nil, xerr.Wrapf(xerr.FormatMismatch, "sb body of %d bytes exceeds remaining %d", n, r.Remaining())
	}
	return r.OpenSubview(int(n))
}

// NewDecoder is a small convenience wrapper so callers don't need to
// import tagstream just to build a Decoder over an opened body.
func NewDecoder(r *bitio.Reader) *tagstream.Decoder {
	return tagstream.New(r)
}
