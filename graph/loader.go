// Package graph assembles the in-memory, immutable-after-build object
// graph that relates layouts, packages, superbundles, bundles, and parts
// (spec.md §4.7). Construction proceeds through the four-phase barrier
// spec.md §4.7 describes; everything after Build returns is read-only.
package graph

import "github.com/xyrin88/anthemtool/layout"

// Loader supplies the raw bytes Build needs, keeping all filesystem
// access behind one small interface so Build itself stays independent of
// on-disk layout (spec.md §1 excludes filesystem concerns from the
// core).
type Loader interface {
	// ReadLayout returns the layout descriptor's raw TOC file bytes.
	ReadLayout() ([]byte, error)

	// ReadTOC returns the raw TOC file bytes for a superbundle in layer.
	// A missing TOC is a fatal error (spec.md §4.7 phase 2).
	ReadTOC(layer layout.LayerID, superbundle string) ([]byte, error)

	// ReadSB returns the raw SB file bytes for a superbundle in layer, or
	// (nil, nil) if the superbundle has no companion SB or it is
	// altogether absent on disk — both are the same "unavailable, not
	// fatal" condition to bundle.LinkSB (spec.md §4.6).
	ReadSB(layer layout.LayerID, superbundle string) ([]byte, error)

	// CASPath computes the absolute path of one CAS file, used to build
	// the layout.Resolver (spec.md §4.5).
	CASPath(layer layout.LayerID, pkg layout.Package, casIndex uint32) string
}
