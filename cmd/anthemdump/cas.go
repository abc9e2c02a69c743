package main

import (
	"go.uber.org/zap"

	"github.com/xyrin88/anthemtool/cas"
	"github.com/xyrin88/anthemtool/graph"
)

// newCASReader builds a cas.Reader over g's resolver. dec is left nil:
// the external decompression primitive is out of core scope (spec.md
// §1), so any chunk using it fails that one part rather than the whole
// run (see chunkio.Decompressor's doc comment).
func newCASReader(g *graph.Graph, root string, log *zap.SugaredLogger) (*cas.Reader, error) {
	r, err := cas.NewReader(g.Resolver, nil, 0)
	if err != nil {
		return nil, err
	}
	log.Debugf("cas reader opened against %s", root)
	return r, nil
}
