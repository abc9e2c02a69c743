package chunkio

import "github.com/xyrin88/anthemtool/bitio"

// Fuzz exercises chunk header parsing and the stored-chunk path, the two
// pieces of this package driven directly off untrusted bytes (the
// external-library path can't be fuzzed without linking it).
func Fuzz(data []byte) int {
	r := bitio.New(data)
	hdr, err := ReadChunkHeader(r)
	if err != nil {
		return 0
	}
	if hdr.Code != codeStoredA && hdr.Code != codeStoredB {
		return 0
	}
	if _, err := r.ReadBytes(int(hdr.Compressed)); err != nil {
		return 0
	}
	return 1
}
