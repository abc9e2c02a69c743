package bundle

import (
	"github.com/xyrin88/anthemtool/bitio"
	"github.com/xyrin88/anthemtool/tagstream"
	"github.com/xyrin88/anthemtool/toc"
	"github.com/xyrin88/anthemtool/xerr"
)

// LinkSB cross-links TOC-side bundle descriptors with their bodies in
// the companion SB file (spec.md §4.6). Descriptors with no SB range
// (TOC-only bundles) pass their already-decoded parts through unchanged.
// A descriptor whose SB range lies outside sbData — or sbData is nil
// because the companion file is altogether absent — yields a Bundle with
// Available set to false rather than an error, per spec.md §4.6's
// "common for absent language bundles" carve-out.
func LinkSB(sbData []byte, descriptors []BundleDescriptor) ([]Bundle, []tagstream.UnknownField, error) {
	var body []byte
	if sbData != nil {
		b, err := toc.OpenSBBody(sbData)
		if err != nil {
			return nil, nil, xerr.Wrap(err, "sb file")
		}
		body, err = b.ReadBytes(int(b.Remaining()))
		if err != nil {
			return nil, nil, xerr.Wrap(err, "sb body")
		}
	}

	bundles := make([]Bundle, 0, len(descriptors))
	var unknown []tagstream.UnknownField

	for _, d := range descriptors {
		if !d.HasSB {
			bundles = append(bundles, Bundle{Name: d.Name, EBX: d.EBX, RES: d.RES, Chunks: d.Chunks, Available: true})
			continue
		}

		if body == nil || d.SBOffset+d.SBSize > uint64(len(body)) {
			bundles = append(bundles, Bundle{Name: d.Name, Available: false})
			continue
		}

		sub := bitio.New(body)
		if err := sub.SeekAbsolute(int64(d.SBOffset)); err != nil {
			bundles = append(bundles, Bundle{Name: d.Name, Available: false})
			continue
		}
		view, err := sub.OpenSubview(int(d.SBSize))
		if err != nil {
			bundles = append(bundles, Bundle{Name: d.Name, Available: false})
			continue
		}

		bundle := Bundle{Name: d.Name, Available: true}
		visit := &tagstream.MapVisitor{
			Children: map[string]tagstream.Visitor{
				"ebx":    partListVisitor(EBX, &bundle.EBX),
				"res":    partListVisitor(RES, &bundle.RES),
				"chunks": partListVisitor(Chunk, &bundle.Chunks),
			},
		}
		u, err := tagstream.DecodeTopLevel(view, tagstream.KindObject, visit)
		if err != nil {
			return nil, nil, xerr.Wrapf(err, "sb bundle %q body", d.Name)
		}
		unknown = append(unknown, u...)
		bundles = append(bundles, bundle)
	}

	return bundles, unknown, nil
}
