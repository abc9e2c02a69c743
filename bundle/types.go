// Package bundle parses a superbundle's TOC (and optional companion SB)
// into Bundle and Part records: the three-way EBX/RES/CHUNKS split off
// each bundle, plus any free-standing TOC resources (spec.md §3, §4.6).
package bundle

import "github.com/xyrin88/anthemtool/layout"

// Kind distinguishes the four part categories the engine names (spec.md
// §3, GLOSSARY).
type Kind int

// Part kinds.
const (
	EBX Kind = iota
	RES
	Chunk
	TOCResource
)

func (k Kind) String() string {
	switch k {
	case EBX:
		return "ebx"
	case RES:
		return "res"
	case Chunk:
		return "chunk"
	case TOCResource:
		return "toc_resource"
	default:
		return "unknown"
	}
}

// Part is one addressable asset fragment. Which fields are meaningful
// depends on Kind: Name and UncompressedSize apply to EBX/RES; ResType
// and Meta apply to RES; UID and Meta apply to Chunk; TOCResource carries
// only the locator triple (spec.md §3).
type Part struct {
	Kind Kind

	SHA1           [20]byte
	CASID          layout.CASID
	CASOffset      uint64
	CompressedSize uint64
	Flags          uint32

	Name             string // EBX, RES
	UncompressedSize uint64 // EBX, RES

	ResType uint32 // RES
	UID     [16]byte // Chunk

	Meta []byte // RES, Chunk
}

// Bundle is a named grouping of parts, split into the engine's three
// ordered lists (spec.md §3). Available is false when the bundle's SB
// byte range lay outside the companion SB file — a common, non-fatal
// condition for absent language bundles (spec.md §4.6).
type Bundle struct {
	Name      string
	EBX       []Part
	RES       []Part
	Chunks    []Part
	Available bool
}

// Superbundle groups the bundles and free-standing TOC resources parsed
// from one TOC (and optional SB) file. Available is false when the SB
// companion itself failed to parse (demoted during phase 3 of graph
// construction, spec.md §4.7), in which case Bundles is empty but
// Resources (parsed from the TOC alone) is still populated.
type Superbundle struct {
	Name      string
	Bundles   []Bundle
	Resources []Part
	Available bool
}
