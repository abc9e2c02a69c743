// Package extract walks a built graph.Graph in deterministic order,
// issues a CAS read for each part, and hands the result to an output
// sink (spec.md §4.8). It is the only component permitted to run
// concurrently; the graph and CAS reader underneath it are read-only
// (spec.md §5).
package extract

import (
	"encoding/hex"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xyrin88/anthemtool/bundle"
	"github.com/xyrin88/anthemtool/cas"
	"github.com/xyrin88/anthemtool/graph"
	"github.com/xyrin88/anthemtool/layout"
	"github.com/xyrin88/anthemtool/xerr"
)

// Summary is the run-level outcome the driver returns to its caller
// (spec.md §7): counts of parts extracted, skipped as unavailable, and
// failed outright.
type Summary struct {
	Extracted          int64
	SkippedUnavailable int64
	Failed             int64
}

// Options configures a Driver, mirroring the teacher's own *Options-struct
// constructor pattern (pe.Options).
type Options struct {
	// Sink receives every extracted part. Required.
	Sink Sink

	// Workers bounds the worker pool width. Zero or negative means
	// runtime.NumCPU(), the number of hardware threads.
	Workers int

	// Log receives skip/failure diagnostics. Nil defaults to a no-op
	// logger.
	Log *zap.SugaredLogger
}

// Driver iterates a Graph and extracts every part it names.
type Driver struct {
	graph   *graph.Graph
	cas     *cas.Reader
	sink    Sink
	log     *zap.SugaredLogger
	workers int
}

// NewDriver builds a Driver over g, reading parts through casReader
// according to opts.
func NewDriver(g *graph.Graph, casReader *cas.Reader, opts *Options) *Driver {
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Driver{graph: g, cas: casReader, sink: opts.Sink, log: log, workers: workers}
}

// Run walks the graph and extracts every part, stopping enqueuing new
// work once cancel is non-nil and Cancelled (already-dispatched work
// still completes, per spec.md §5's "polled between parts" rule).
func (d *Driver) Run(cancel *CancelFlag) (Summary, error) {
	parts := d.collect()

	var eg errgroup.Group
	eg.SetLimit(d.workers)

	var summary Summary
	for _, p := range parts {
		if cancel != nil && cancel.Cancelled() {
			break
		}
		p := p
		eg.Go(func() error {
			d.extractOne(p, &summary)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (d *Driver) extractOne(p bundle.Part, summary *Summary) {
	hasUncompressedSize := p.Kind == bundle.EBX || p.Kind == bundle.RES
	data, err := d.cas.Read(p.CASID, p.CASOffset, p.CompressedSize, p.UncompressedSize, hasUncompressedSize)
	if err != nil {
		if xerr.IsBundleUnavailable(err) {
			atomic.AddInt64(&summary.SkippedUnavailable, 1)
			d.log.Warnf("part %s unavailable: %v", partLabel(p), err)
			return
		}
		atomic.AddInt64(&summary.Failed, 1)
		d.log.Errorf("part %s failed: %v", partLabel(p), err)
		return
	}

	if err := d.sink.Emit(p, data); err != nil {
		atomic.AddInt64(&summary.Failed, 1)
		d.log.Errorf("part %s sink failed: %v", partLabel(p), err)
		return
	}
	atomic.AddInt64(&summary.Extracted, 1)
}

func partLabel(p bundle.Part) string {
	switch p.Kind {
	case bundle.EBX, bundle.RES:
		return p.Name
	case bundle.Chunk:
		return hex.EncodeToString(p.UID[:])
	default:
		return hex.EncodeToString(p.SHA1[:])
	}
}

// collect builds the deterministic work queue: packages in topological
// order, then each package's superbundles in declared order, then
// free-standing superbundles not owned by any package, each superbundle's
// TOC resources followed by its bundles in declared order, each
// available bundle's EBX, then RES, then CHUNKS parts (spec.md §4.8).
func (d *Driver) collect() []bundle.Part {
	var parts []bundle.Part
	visited := make(map[layout.LayerID]map[string]bool)
	visit := func(layer layout.LayerID, name string) {
		if visited[layer] == nil {
			visited[layer] = make(map[string]bool)
		}
		if visited[layer][name] {
			return
		}
		visited[layer][name] = true

		sb := d.graph.Superbundle(layer, name)
		if sb == nil {
			return
		}
		parts = append(parts, sb.Resources...)
		for _, b := range sb.Bundles {
			if !b.Available {
				continue
			}
			parts = append(parts, b.EBX...)
			parts = append(parts, b.RES...)
			parts = append(parts, b.Chunks...)
		}
	}

	for _, ref := range d.graph.Packages() {
		for _, sbName := range ref.Pkg.Superbundles {
			visit(ref.Layer, sbName)
		}
	}
	for _, layer := range []layout.LayerID{layout.Patch, layout.Data} {
		if l := d.graph.Descriptor.Layer(layer); l != nil {
			for _, sbName := range l.FreeSuperbundles {
				visit(layer, sbName)
			}
		}
	}
	return parts
}
