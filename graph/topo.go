package graph

import (
	"github.com/xyrin88/anthemtool/layout"
	"github.com/xyrin88/anthemtool/xerr"
)

// topoSortLayer orders layer's packages by dependency (Kahn's algorithm):
// a package appears only after every package it depends on. Ties (no
// remaining dependency constraint) break by ascending package id, so the
// order is deterministic (spec.md §4.8: "deterministic traversal").
func topoSortLayer(id layout.LayerID, l *layout.Layer, resolver *layout.Resolver) ([]int, error) {
	n := len(l.Packages)
	deps := make([][]int, n)
	indegree := make([]int, n)

	for i, pkg := range l.Packages {
		d, err := resolver.Dependencies(id, pkg)
		if err != nil {
			return nil, xerr.Wrapf(err, "resolving dependencies for package %q", pkg.Name)
		}
		deps[i] = d
	}
	// indegree[i] is i's remaining dependency count; dependents[d] lists
	// the packages that depend on d, so clearing a package's dependencies
	// can drop its dependents' indegree as each one emits.
	dependents := make([][]int, n)
	for i, ds := range deps {
		indegree[i] = len(ds)
		for _, d := range ds {
			dependents[d] = append(dependents[d], i)
		}
	}

	var ready []int
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		// Pop the smallest-id ready package to keep ordering deterministic.
		minIdx := 0
		for i, v := range ready {
			if v < ready[minIdx] {
				minIdx = i
			}
		}
		next := ready[minIdx]
		ready = append(ready[:minIdx], ready[minIdx+1:]...)
		order = append(order, next)

		for _, dependent := range dependents[next] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != n {
		return nil, xerr.Wrapf(xerr.FormatMismatch, "dependency cycle among packages in layer %s", id)
	}
	return order, nil
}
