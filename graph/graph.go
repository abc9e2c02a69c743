package graph

import (
	"go.uber.org/zap"

	"github.com/xyrin88/anthemtool/bundle"
	"github.com/xyrin88/anthemtool/layout"
	"github.com/xyrin88/anthemtool/xerr"
)

// PackageRef names one package within the deterministic traversal order
// Packages() returns.
type PackageRef struct {
	Layer layout.LayerID
	ID    int
	Pkg   layout.Package
}

// Graph is the fully resolved, read-only game graph (spec.md §4.7). All
// fields are populated once by Build and never mutated afterward; any
// number of goroutines may call its methods concurrently.
type Graph struct {
	Descriptor *layout.Descriptor
	Resolver   *layout.Resolver

	order        []PackageRef
	superbundles map[layout.LayerID]map[string]*bundle.Superbundle
	flatBundles  map[string]map[string]*bundle.Bundle // superbundle name -> bundle name, patch-first
	bySHA1       map[[20]byte]*bundle.Part
}

// Build runs the four-phase barrier construction spec.md §4.7 describes:
// parse layout, parse every TOC, parse every SB companion, link
// cross-references. A fatal error in phases 1-2 aborts and returns it
// directly; a phase-3 SB failure only demotes that one superbundle to
// Available=false and is logged, not returned.
func Build(loader Loader, log *zap.SugaredLogger) (*Graph, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	// Phase 1: parse layout.
	layoutData, err := loader.ReadLayout()
	if err != nil {
		return nil, xerr.Wrap(err, "reading layout descriptor")
	}
	desc, unknownLayout, err := layout.ParseDescriptor(layoutData)
	if err != nil {
		return nil, xerr.Wrap(err, "parsing layout descriptor")
	}
	for _, u := range unknownLayout {
		log.Debugf("layout descriptor: unknown field %q", u.Name)
	}

	resolver, err := layout.NewResolver(desc, loader.CASPath)
	if err != nil {
		return nil, xerr.Wrap(err, "building layout resolver")
	}

	g := &Graph{
		Descriptor:   desc,
		Resolver:     resolver,
		superbundles: make(map[layout.LayerID]map[string]*bundle.Superbundle),
		flatBundles:  make(map[string]map[string]*bundle.Bundle),
		bySHA1:       make(map[[20]byte]*bundle.Part),
	}

	// Phases 2-3: parse every TOC (fatal on failure) and its SB companion
	// (non-fatal on failure, demotes the superbundle).
	for _, layerID := range []layout.LayerID{layout.Data, layout.Patch} {
		l := desc.Layer(layerID)
		if l == nil {
			continue
		}
		names := superbundleNames(l)
		bundlesByName := make(map[string]*bundle.Superbundle, len(names))

		for _, name := range names {
			tocData, err := loader.ReadTOC(layerID, name)
			if err != nil {
				return nil, xerr.Wrapf(err, "reading toc for superbundle %q in layer %s", name, layerID)
			}
			// A phase-3 failure (including an I/O error opening the SB
			// itself) only demotes this one superbundle; it never aborts
			// Build (spec.md §4.7).
			sbData, err := loader.ReadSB(layerID, name)
			if err != nil {
				log.Warnf("superbundle %q in layer %s: sb companion unavailable: %v", name, layerID, err)
				sbData = nil
			}

			sb, unknown, err := bundle.ParseSuperbundle(name, tocData, sbData)
			if sb == nil {
				return nil, xerr.Wrapf(err, "parsing toc for superbundle %q in layer %s", name, layerID)
			}
			if err != nil {
				log.Warnf("superbundle %q in layer %s: sb companion unavailable: %v", name, layerID, err)
			}
			for _, u := range unknown {
				log.Debugf("superbundle %q: unknown field %q", name, u.Name)
			}
			bundlesByName[name] = sb
		}
		g.superbundles[layerID] = bundlesByName
	}

	// Phase 4: link cross-references (SHA1 index and CAS path
	// registration, patch-first flattened bundle lookup, topological
	// package order).
	for _, layerID := range []layout.LayerID{layout.Data, layout.Patch} {
		for sbName, sb := range g.superbundles[layerID] {
			g.indexParts(sb)
			if _, ok := g.flatBundles[sbName]; !ok {
				g.flatBundles[sbName] = make(map[string]*bundle.Bundle)
			}
			for i := range sb.Bundles {
				// Patch layer is processed second in this loop's iteration
				// order and so naturally overwrites Data's entry by name,
				// matching Patch-first shadowing (spec.md §4.7).
				g.flatBundles[sbName][sb.Bundles[i].Name] = &sb.Bundles[i]
			}
		}
	}

	if err := g.buildOrder(); err != nil {
		return nil, xerr.Wrap(err, "ordering packages")
	}

	return g, nil
}

func superbundleNames(l *layout.Layer) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, pkg := range l.Packages {
		for _, sb := range pkg.Superbundles {
			add(sb)
		}
	}
	for _, sb := range l.FreeSuperbundles {
		add(sb)
	}
	return names
}

func (g *Graph) indexParts(sb *bundle.Superbundle) {
	index := func(p *bundle.Part) {
		g.bySHA1[p.SHA1] = p
		// Registering every CAS path here leaves the Resolver unwritten
		// during extraction. An unresolvable identifier records nothing
		// and surfaces again as BundleUnavailable when the part is read.
		_, _ = g.Resolver.Observe(p.CASID)
	}
	for i := range sb.Resources {
		index(&sb.Resources[i])
	}
	for bi := range sb.Bundles {
		b := &sb.Bundles[bi]
		for i := range b.EBX {
			index(&b.EBX[i])
		}
		for i := range b.RES {
			index(&b.RES[i])
		}
		for i := range b.Chunks {
			index(&b.Chunks[i])
		}
	}
}

func (g *Graph) buildOrder() error {
	for _, layerID := range []layout.LayerID{layout.Patch, layout.Data} {
		l := g.Descriptor.Layer(layerID)
		if l == nil {
			continue
		}
		idx, err := topoSortLayer(layerID, l, g.Resolver)
		if err != nil {
			return err
		}
		for _, i := range idx {
			g.order = append(g.order, PackageRef{Layer: layerID, ID: i, Pkg: l.Packages[i]})
		}
	}
	return nil
}

// Packages returns every package in deterministic dependency-topological
// order, Patch layer first (spec.md §4.7).
func (g *Graph) Packages() []PackageRef {
	return g.order
}

// Superbundle returns the superbundle named name in layer, or nil if
// absent.
func (g *Graph) Superbundle(layer layout.LayerID, name string) *bundle.Superbundle {
	if layerSBs, ok := g.superbundles[layer]; ok {
		return layerSBs[name]
	}
	return nil
}

// BundleByName looks up a bundle by (superbundle, name), preferring the
// Patch-layer copy when the same superbundle/bundle name pair exists in
// both layers (spec.md §4.7).
func (g *Graph) BundleByName(superbundle, name string) (*bundle.Bundle, bool) {
	bundles, ok := g.flatBundles[superbundle]
	if !ok {
		return nil, false
	}
	b, ok := bundles[name]
	return b, ok
}

// PartBySHA1 looks up any EBX/RES/CHUNK/TOC-resource part by its SHA1
// (spec.md §4.7).
func (g *Graph) PartBySHA1(sha1 [20]byte) (*bundle.Part, bool) {
	p, ok := g.bySHA1[sha1]
	return p, ok
}
