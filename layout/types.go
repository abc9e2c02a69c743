// Package layout parses the top-level layout descriptor, enumerates
// installation packages and their dependency edges, and resolves a 32-bit
// CAS identifier to the concrete CAS file it names (spec.md §3, §4.5).
package layout

// LayerID distinguishes the two possible layers a layout names. Patch
// shadows Data by name (spec.md §3).
type LayerID uint8

// The two layers this title's dialect knows about.
const (
	Data  LayerID = 0
	Patch LayerID = 1
)

func (l LayerID) String() string {
	if l == Patch {
		return "patch"
	}
	return "data"
}

// Package is one installation package within a layer. Its Index is the
// package id used inside CAS identifiers belonging to that layer
// (spec.md §3: "the package id used in CAS identifiers").
type Package struct {
	Index        int
	Name         string
	Superbundles []string // relative paths, as declared
	Dependencies []string // other package names, resolved within the same layer
}

// Layer is one layer's worth of packages plus its free-standing
// superbundles (those not owned by any single package).
type Layer struct {
	ID               LayerID
	Packages         []Package
	FreeSuperbundles []string
}

// Descriptor is the parsed top-level layout: the Data layer is always
// present; Patch may be nil.
type Descriptor struct {
	Data  *Layer
	Patch *Layer
}

// Layer returns the layer for id, or nil if absent (only Patch can be
// absent; Data is always populated).
func (d *Descriptor) Layer(id LayerID) *Layer {
	if id == Patch {
		return d.Patch
	}
	return d.Data
}
