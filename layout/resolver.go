package layout

import (
	"fmt"
	"os"

	"github.com/xyrin88/anthemtool/xerr"
)

// casKey identifies one CAS file within a layer by the package that owns
// it and that package's local cas file index (spec.md §4.5).
type casKey struct {
	layer     LayerID
	packageID uint32
	casIndex  uint32
}

// Resolver answers path and identifier questions about a parsed
// Descriptor: where a CAS identifier's bytes live on disk, which package
// id a package name maps to within a layer, and (for diagnostics) the
// dependency edges declared between packages in the same layer.
//
// Resolution is Patch-first at two levels. Looking a package up by name,
// a package present in both layers resolves to its Patch-layer copy
// (spec.md §4.7, scenario S6); Dependencies resolves names only within
// the layer it is given. Independently, a CAS
// identifier decoded to a (package id, cas index) pair is still
// redirected to the Patch layer's file when one exists for that same
// pair, even if the identifier itself encodes Data (spec.md §4.5): the
// Patch layer can shadow individual CAS files without the owning
// package name ever being reassigned.
type Resolver struct {
	desc  *Descriptor
	codec *Codec

	paths   map[casKey]string
	byName  map[LayerID]map[string]int
	casPath func(layer LayerID, pkg Package, casIndex uint32) string
}

// NewResolver builds a Resolver over desc. casPath computes the on-disk
// path for one (layer, package, cas index) triple; callers without a
// filesystem layout in mind (tests, dry runs) can pass a function that
// simply formats an identifying string. Paths are not materialized up
// front: cas indices aren't enumerable from the descriptor alone, they
// are discovered from Part records during graph construction and
// registered on demand via Observe.
func NewResolver(desc *Descriptor, casPath func(layer LayerID, pkg Package, casIndex uint32) string) (*Resolver, error) {
	var maxPkg uint32
	for _, layer := range []*Layer{desc.Data, desc.Patch} {
		if layer == nil {
			continue
		}
		if n := uint32(len(layer.Packages)); n > maxPkg {
			maxPkg = n
		}
	}

	codec, err := NewCodec(maxPkg, 0xFFFF)
	if err != nil {
		return nil, err
	}

	r := &Resolver{
		desc:    desc,
		codec:   codec,
		paths:   make(map[casKey]string),
		byName:  make(map[LayerID]map[string]int),
		casPath: casPath,
	}

	for _, layer := range []*Layer{desc.Data, desc.Patch} {
		if layer == nil {
			continue
		}
		names := make(map[string]int, len(layer.Packages))
		for i, pkg := range layer.Packages {
			names[pkg.Name] = i
		}
		r.byName[layer.ID] = names
	}

	return r, nil
}

// Observe registers that CAS identifier id was referenced by some Part,
// making its path resolvable via PathFor. Parsing discovers cas indices
// incrementally as it reads Parts (spec.md §3), so paths are populated
// on demand rather than up front.
func (r *Resolver) Observe(id CASID) (string, error) {
	layer, pkgID, casIndex := r.codec.Decode(id)
	l := r.desc.Layer(layer)
	if l == nil || int(pkgID) >= len(l.Packages) {
		return "", xerr.Wrapf(xerr.BundleUnavailable, "cas identifier %#08x names unknown package %d in layer %s", uint32(id), pkgID, layer)
	}
	pkg := l.Packages[pkgID]

	key := casKey{layer: layer, packageID: pkgID, casIndex: casIndex}
	if p, ok := r.paths[key]; ok {
		return p, nil
	}

	p := r.casPath(layer, pkg, casIndex)
	if layer != Patch {
		if patched, ok := r.patchPath(pkgID, casIndex); ok {
			p = patched
		}
	}
	r.paths[key] = p
	return p, nil
}

// PathFor returns the path for id, observing it first if it was never
// Observe'd, and fails with BundleUnavailable if its package is absent.
func (r *Resolver) PathFor(id CASID) (string, error) {
	layer, pkgID, casIndex := r.codec.Decode(id)
	key := casKey{layer: layer, packageID: pkgID, casIndex: casIndex}
	if p, ok := r.paths[key]; ok {
		return p, nil
	}
	return r.Observe(id)
}

// patchPath returns the Patch-layer path for (pkgID, casIndex) and true
// if a file actually exists there, so a CAS identifier decoded against
// Data can still be shadowed by a Patch-layer file sharing its package
// id and cas index (spec.md §4.5, scenario S6).
func (r *Resolver) patchPath(pkgID, casIndex uint32) (string, bool) {
	patch := r.desc.Patch
	if patch == nil || int(pkgID) >= len(patch.Packages) {
		return "", false
	}
	p := r.casPath(Patch, patch.Packages[pkgID], casIndex)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// PackageID resolves name to a package id, preferring the Patch layer
// when the same name exists in both (spec.md §4.7, scenario S6: "patch
// shadowing"). The returned LayerID indicates which layer actually
// satisfied the lookup.
func (r *Resolver) PackageID(name string) (LayerID, int, error) {
	if ids, ok := r.byName[Patch]; ok {
		if i, ok := ids[name]; ok {
			return Patch, i, nil
		}
	}
	if ids, ok := r.byName[Data]; ok {
		if i, ok := ids[name]; ok {
			return Data, i, nil
		}
	}
	return 0, 0, xerr.Wrapf(xerr.BundleUnavailable, "package %q not found in either layer", name)
}

// Package returns the Package record at (layer, id).
func (r *Resolver) Package(layer LayerID, id int) (Package, error) {
	l := r.desc.Layer(layer)
	if l == nil || id < 0 || id >= len(l.Packages) {
		return Package{}, xerr.Wrapf(xerr.BundleUnavailable, "no package %d in layer %s", id, layer)
	}
	return l.Packages[id], nil
}

// Dependencies returns the ids of the packages pkg depends on, resolved
// within layer, which is pkg's own layer — dependency edges never cross layers
// (spec.md §4.5).
func (r *Resolver) Dependencies(layer LayerID, pkg Package) ([]int, error) {
	ids, ok := r.byName[layer]
	if !ok {
		return nil, xerr.Wrapf(xerr.FormatMismatch, "layer %s has no packages", layer)
	}
	out := make([]int, 0, len(pkg.Dependencies))
	for _, dep := range pkg.Dependencies {
		i, ok := ids[dep]
		if !ok {
			return nil, xerr.Wrapf(xerr.FormatMismatch, "package %q depends on unknown package %q in layer %s", pkg.Name, dep, layer)
		}
		out = append(out, i)
	}
	return out, nil
}

// String renders a CASID as layer/package/index for log messages.
func (r *Resolver) String(id CASID) string {
	layer, pkgID, casIndex := r.codec.Decode(id)
	return fmt.Sprintf("%s/%d/%d", layer, pkgID, casIndex)
}
