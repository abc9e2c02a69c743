package extract

import "github.com/xyrin88/anthemtool/bundle"

// Sink is the core-facing output interface (spec.md §6): it receives one
// decompressed part at a time. identity is a logical path for EBX/RES, a
// 16-byte UID for Chunk, and a SHA1 for TOCResource — callers switch on
// part.Kind to pick the right one off part. The core does not mandate
// any filesystem layout; a Sink error is treated as a failure of that
// one part, not the run.
type Sink interface {
	Emit(part bundle.Part, data []byte) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(part bundle.Part, data []byte) error

// Emit implements Sink.
func (f SinkFunc) Emit(part bundle.Part, data []byte) error {
	return f(part, data)
}
