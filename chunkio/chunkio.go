// Package chunkio implements the compression primitive and the chunked
// decompression pipeline that reads compressed byte ranges out of a CAS
// file or an embedded SB blob (spec.md §4.3).
package chunkio

import (
	"github.com/xyrin88/anthemtool/bitio"
	"github.com/xyrin88/anthemtool/xerr"
)

// Chunk compression codes this title's dialect recognizes. The split
// between codeStoredA and codeStoredB is an open question (spec.md §9(a));
// both are handled identically (copy verbatim) without collapsing the two
// constants, so a caller inspecting a decoded header can still tell which
// one a given archive used.
const (
	codeExternal = 0x1170
	codeStoredA  = 0x0070
	codeStoredB  = 0x0071
)

// maxChunkUncompressed is the uncompressed size of every non-final chunk
// in a stream (spec.md §4.3).
const maxChunkUncompressed = 0x10000

// Decompressor is the contract for the external proprietary decompression
// library (spec.md §6): a pure byte-in/byte-out primitive. The core never
// links a concrete implementation; callers plug one in through
// cas.NewReader. Implementations must document the
// platform constraint imposed by their chosen library and must be safe
// for concurrent use unless the caller serializes calls itself (spec.md
// §5).
type Decompressor interface {
	// Decompress returns exactly dstSize bytes of decompressed src, or an
	// error. Any error is treated as fatal for the containing part.
	Decompress(src []byte, dstSize uint32) ([]byte, error)
}

// ChunkHeader is the 8-byte header preceding every chunk payload (spec.md
// §4.3).
type ChunkHeader struct {
	// Uncompressed is the uncompressed size of this chunk. Exactly
	// 0x10000 for every non-final chunk; the final chunk's may be 1
	// through 0x10000 inclusive. The header stores it in 16 bits, where
	// a raw value of zero stands for 0x10000.
	Uncompressed uint32
	// Code is the compression code selecting how Compressed bytes of
	// payload decode to Uncompressed bytes (or, for 0x0070/0x0071, simply
	// equal it).
	Code uint16
	// Compressed is the size, in bytes, of the chunk's payload as stored.
	Compressed uint32
}

// ReadChunkHeader decodes one 8-byte chunk header from r.
func ReadChunkHeader(r *bitio.Reader) (ChunkHeader, error) {
	uncompressed, err := r.ReadU16BE()
	if err != nil {
		return ChunkHeader{}, xerr.Wrap(err, "chunk header uncompressed size")
	}
	code, err := r.ReadU16()
	if err != nil {
		return ChunkHeader{}, xerr.Wrap(err, "chunk header compression code")
	}
	compressed, err := r.ReadU32BE()
	if err != nil {
		return ChunkHeader{}, xerr.Wrap(err, "chunk header compressed size")
	}
	size := uint32(uncompressed)
	if size == 0 {
		size = maxChunkUncompressed
	}
	return ChunkHeader{Uncompressed: size, Code: code, Compressed: compressed}, nil
}

// Terminate selects how the pipeline knows it has consumed an entire
// stream: either the total uncompressed size is known up front (EBX/RES
// parts) or only the total compressed size is (TOC resources and chunks,
// which carry no uncompressed size, spec.md §4.3). Exactly one of UncompressedTotal/CompressedTotal is
// meaningful, selected by HasUncompressedTotal.
type Terminate struct {
	HasUncompressedTotal bool
	UncompressedTotal    uint64
	CompressedTotal      uint64
}

// ByUncompressedSize builds a Terminate that stops once n uncompressed
// bytes have been emitted.
func ByUncompressedSize(n uint64) Terminate {
	return Terminate{HasUncompressedTotal: true, UncompressedTotal: n}
}

// ByCompressedSize builds a Terminate that stops once n compressed bytes
// have been consumed.
func ByCompressedSize(n uint64) Terminate {
	return Terminate{HasUncompressedTotal: false, CompressedTotal: n}
}

// Decompress runs the chunked decompression pipeline over r, using dec for
// codeExternal chunks, until term's stop condition is reached. It returns
// the concatenated uncompressed bytes.
//
// Chunk decompression is strictly ordered within the part (spec.md §5):
// chunks are read and emitted one at a time, in stream order.
func Decompress(r *bitio.Reader, term Terminate, dec Decompressor) ([]byte, error) {
	var out []byte
	var uncompressedSeen, compressedSeen uint64

	for {
		if done(term, uncompressedSeen, compressedSeen) {
			return out, nil
		}

		hdr, err := ReadChunkHeader(r)
		if err != nil {
			return nil, xerr.Wrap(err, "chunk stream ended before termination condition")
		}

		payload, err := r.ReadBytes(int(hdr.Compressed))
		if err != nil {
			return nil, xerr.Wrap(err, "chunk payload")
		}

		chunkOut, err := decodeChunk(hdr, payload, dec)
		if err != nil {
			return nil, err
		}
		if uint64(hdr.Uncompressed) != uint64(len(chunkOut)) {
			return nil, xerr.Wrapf(xerr.FormatMismatch, "chunk declared %d uncompressed bytes, decoder produced %d", hdr.Uncompressed, len(chunkOut))
		}

		out = append(out, chunkOut...)
		uncompressedSeen += uint64(len(chunkOut))
		compressedSeen += uint64(hdr.Compressed)

		if !done(term, uncompressedSeen, compressedSeen) && hdr.Uncompressed != maxChunkUncompressed {
			return nil, xerr.Wrapf(xerr.FormatMismatch, "non-final chunk declared %d uncompressed bytes, want %d", hdr.Uncompressed, maxChunkUncompressed)
		}
	}
}

func done(term Terminate, uncompressedSeen, compressedSeen uint64) bool {
	if term.HasUncompressedTotal {
		return uncompressedSeen >= term.UncompressedTotal
	}
	return compressedSeen >= term.CompressedTotal
}

func decodeChunk(hdr ChunkHeader, payload []byte, dec Decompressor) ([]byte, error) {
	switch hdr.Code {
	case codeExternal:
		if dec == nil {
			return nil, xerr.Wrap(xerr.DecompressorError, "chunk uses external compression but no Decompressor was configured")
		}
		out, err := dec.Decompress(payload, uint32(hdr.Uncompressed))
		if err != nil {
			return nil, xerr.Wrap(xerr.DecompressorError, err.Error())
		}
		return out, nil
	case codeStoredA, codeStoredB:
		if uint32(len(payload)) != hdr.Compressed {
			return nil, xerr.Wrap(xerr.Truncated, "stored chunk payload shorter than declared compressed size")
		}
		return payload, nil
	default:
		return nil, xerr.UnknownCompression(hdr.Code)
	}
}
