// Package cas opens CAS archive files by identifier and streams a
// compressed byte range through the chunked decompression pipeline
// (spec.md §4.4). File handles are memory-mapped and held behind a small
// bounded LRU, matching the teacher's own mmap-backed File.
package cas

import (
	"os"
	"sync"

	mmap "github.com/edsrzf/mmap-go"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/xyrin88/anthemtool/bitio"
	"github.com/xyrin88/anthemtool/chunkio"
	"github.com/xyrin88/anthemtool/layout"
	"github.com/xyrin88/anthemtool/xerr"
)

// PathResolver maps a CAS identifier to an absolute file path. Satisfied
// by *layout.Resolver's PathFor method.
type PathResolver interface {
	PathFor(id layout.CASID) (string, error)
}

type handle struct {
	f    *os.File
	data mmap.MMap
}

func (h *handle) Close() error {
	if h.data != nil {
		if err := h.data.Unmap(); err != nil {
			h.f.Close()
			return err
		}
	}
	return h.f.Close()
}

// Reader opens CAS archives on demand and caches a bounded number of
// memory-mapped handles, evicting least-recently-used (spec.md §4.4, §5).
// Safe for concurrent use by multiple extraction workers.
type Reader struct {
	resolve PathResolver
	dec     chunkio.Decompressor

	mu     sync.Mutex
	cache  *lru.Cache[string, *handle]
	closed bool
}

// NewReader builds a Reader with a handle cache of the given size
// (default: 16 if size <= 0). dec is used for codeExternal chunks and may
// be nil if the stream never contains any.
func NewReader(resolve PathResolver, dec chunkio.Decompressor, size int) (*Reader, error) {
	if size <= 0 {
		size = 16
	}
	cache, err := lru.NewWithEvict(size, func(_ string, h *handle) {
		h.Close()
	})
	if err != nil {
		return nil, xerr.Wrap(err, "cas handle cache")
	}
	return &Reader{resolve: resolve, dec: dec, cache: cache}, nil
}

// Read resolves id to a file, opens (or reuses) a mapped handle, and
// decompresses the chunk stream starting at offset. hasUncompressedSize
// selects which of the two termination modes chunkio.Terminate uses
// (spec.md §4.3): true for EBX/RES parts, which carry an uncompressed
// size, false for CHUNK parts and TOC resources, which are sized only by
// their compressed length.
func (r *Reader) Read(id layout.CASID, offset uint64, compressedSize, uncompressedSize uint64, hasUncompressedSize bool) ([]byte, error) {
	path, err := r.resolve.PathFor(id)
	if err != nil {
		return nil, err
	}

	h, err := r.open(path)
	if err != nil {
		return nil, err
	}

	if offset > uint64(len(h.data)) {
		return nil, xerr.Wrapf(xerr.Truncated, "cas offset %d exceeds file size %d", offset, len(h.data))
	}

	cur := bitio.New(h.data)
	if err := cur.SeekAbsolute(int64(offset)); err != nil {
		return nil, xerr.Wrap(err, "cas seek")
	}

	var term chunkio.Terminate
	if hasUncompressedSize {
		term = chunkio.ByUncompressedSize(uncompressedSize)
	} else {
		term = chunkio.ByCompressedSize(compressedSize)
	}

	out, err := chunkio.Decompress(cur, term, r.dec)
	if err != nil {
		return nil, xerr.Wrapf(err, "cas read at %s:%d", path, offset)
	}
	return out, nil
}

func (r *Reader) open(path string) (*handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, xerr.Wrap(xerr.IoError, "cas reader closed")
	}
	if h, ok := r.cache.Get(path); ok {
		return h, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerr.Wrapf(xerr.BundleUnavailable, "cas file %s not present", path)
		}
		return nil, xerr.Wrapf(xerr.IoError, "opening %s: %v", path, err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, xerr.Wrapf(xerr.IoError, "mapping %s: %v", path, err)
	}

	h := &handle{f: f, data: data}
	r.cache.Add(path, h)
	return h, nil
}

// Close evicts and unmaps every cached handle. Subsequent Read calls
// fail with IoError.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cache.Purge()
	return nil
}
