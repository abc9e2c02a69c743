package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xyrin88/anthemtool/layout"
)

// fsLoader reads layout/TOC/SB/CAS bytes off a plain directory tree. The
// on-disk layout is this tool's own convention, not a format the core
// cares about (spec.md §1 excludes filesystem layout from core scope):
//
//	<root>/layout.toc
//	<root>/<layer>/<superbundle>.toc
//	<root>/<layer>/<superbundle>.sb        (optional)
//	<root>/<layer>/cas/<package>/cas_<index>.cas
type fsLoader struct {
	root string
}

func (l *fsLoader) ReadLayout() ([]byte, error) {
	return os.ReadFile(filepath.Join(l.root, "layout.toc"))
}

func (l *fsLoader) ReadTOC(layerID layout.LayerID, superbundle string) ([]byte, error) {
	return os.ReadFile(filepath.Join(l.root, layerID.String(), superbundle+".toc"))
}

func (l *fsLoader) ReadSB(layerID layout.LayerID, superbundle string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.root, layerID.String(), superbundle+".sb"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

func (l *fsLoader) CASPath(layerID layout.LayerID, pkg layout.Package, casIndex uint32) string {
	return filepath.Join(l.root, layerID.String(), "cas", pkg.Name, fmt.Sprintf("cas_%04d.cas", casIndex))
}
