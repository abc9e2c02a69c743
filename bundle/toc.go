package bundle

import (
	"github.com/xyrin88/anthemtool/bitio"
	"github.com/xyrin88/anthemtool/tagstream"
	"github.com/xyrin88/anthemtool/toc"
	"github.com/xyrin88/anthemtool/xerr"
)

// BundleDescriptor is one bundle entry as declared at the TOC level: its
// name, and either an SB byte range (TOC+SB superbundle) or its parts
// inline (TOC-only superbundle, spec.md §3).
type BundleDescriptor struct {
	Name string

	HasSB    bool
	SBOffset uint64
	SBSize   uint64

	// Populated directly from the TOC when HasSB is false.
	EBX    []Part
	RES    []Part
	Chunks []Part
}

// ParseTOCBody decodes a superbundle TOC file into its bundle
// descriptors and free-standing TOC resources (spec.md §4.6). data is
// the raw TOC file contents, magic and all.
func ParseTOCBody(data []byte) ([]BundleDescriptor, []Part, []tagstream.UnknownField, error) {
	body, err := toc.OpenBody(data)
	if err != nil {
		return nil, nil, nil, xerr.Wrap(err, "superbundle toc")
	}
	rest, err := body.ReadBytes(int(body.Remaining()))
	if err != nil {
		return nil, nil, nil, xerr.Wrap(err, "superbundle toc body")
	}

	var descriptors []BundleDescriptor
	var resources []Part

	root := &tagstream.MapVisitor{
		Children: map[string]tagstream.Visitor{
			"resources": partListVisitor(TOCResource, &resources),
			"bundles": &tagstream.ListVisitor{
				OnObject: func() tagstream.Visitor {
					descriptors = append(descriptors, BundleDescriptor{})
					return bundleDescriptorVisitor(&descriptors[len(descriptors)-1])
				},
			},
		},
	}

	unknown, err := tagstream.DecodeTopLevel(bitio.New(rest), tagstream.KindObject, root)
	if err != nil {
		return nil, nil, nil, xerr.Wrap(err, "superbundle toc body")
	}
	return descriptors, resources, unknown, nil
}

// bundleDescriptorVisitor decodes one bundle object's fields directly
// into d, which the caller has already placed at its final storage
// address (a slice element that will not move again — see ParseTOCBody).
func bundleDescriptorVisitor(d *BundleDescriptor) tagstream.Visitor {
	return &tagstream.MapVisitor{
		Fields: map[string]func(tagstream.Value) error{
			"name": func(v tagstream.Value) error {
				d.Name = v.String
				return nil
			},
		},
		Children: map[string]tagstream.Visitor{
			"sb": &tagstream.MapVisitor{
				Fields: map[string]func(tagstream.Value) error{
					"offset": func(v tagstream.Value) error {
						d.HasSB = true
						d.SBOffset = v.Uint
						return nil
					},
					"size": func(v tagstream.Value) error {
						d.HasSB = true
						d.SBSize = v.Uint
						return nil
					},
				},
			},
			"ebx":    partListVisitor(EBX, &d.EBX),
			"res":    partListVisitor(RES, &d.RES),
			"chunks": partListVisitor(Chunk, &d.Chunks),
		},
	}
}
