package main

import (
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/xyrin88/anthemtool/bundle"
)

// fsSink writes every extracted part under outDir, one file per part,
// grouped by kind. EBX/RES parts use their logical Name as a relative
// path; Chunk and TOC-resource parts have no name, so they're written
// under their identifying hash instead.
type fsSink struct {
	outDir string
}

func (s *fsSink) Emit(part bundle.Part, data []byte) error {
	path := filepath.Join(s.outDir, part.Kind.String(), partFilename(part))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func partFilename(part bundle.Part) string {
	switch part.Kind {
	case bundle.EBX, bundle.RES:
		return filepath.FromSlash(part.Name)
	case bundle.Chunk:
		return hex.EncodeToString(part.UID[:])
	default:
		return hex.EncodeToString(part.SHA1[:])
	}
}
