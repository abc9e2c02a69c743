package layout

import (
	"github.com/xyrin88/anthemtool/bitio"
	"github.com/xyrin88/anthemtool/tagstream"
	"github.com/xyrin88/anthemtool/toc"
	"github.com/xyrin88/anthemtool/xerr"
)

// ParseDescriptor decodes the layout descriptor's TOC body into a
// Descriptor (spec.md §4.5). data is the raw bytes of the layout TOC
// file; unknown is the set of field names this parser didn't recognize,
// for diagnostic logging (spec.md §4.2).
func ParseDescriptor(data []byte) (*Descriptor, []tagstream.UnknownField, error) {
	body, err := toc.OpenBody(data)
	if err != nil {
		return nil, nil, xerr.Wrap(err, "layout descriptor")
	}
	rest, err := body.ReadBytes(int(body.Remaining()))
	if err != nil {
		return nil, nil, xerr.Wrap(err, "layout descriptor body")
	}

	desc := &Descriptor{}
	root := &tagstream.MapVisitor{
		Children: map[string]tagstream.Visitor{
			"data":  layerVisitor(Data, func(l *Layer) { desc.Data = l }),
			"patch": layerVisitor(Patch, func(l *Layer) { desc.Patch = l }),
		},
	}

	unknown, err := tagstream.DecodeTopLevel(bitio.New(rest), tagstream.KindObject, root)
	if err != nil {
		return nil, nil, xerr.Wrap(err, "layout descriptor body")
	}
	if desc.Data == nil {
		return nil, nil, xerr.Wrap(xerr.FormatMismatch, "layout descriptor has no data layer")
	}
	return desc, unknown, nil
}

// layerVisitor builds the Visitor for one "data"/"patch" layer object,
// assigning the finished Layer into the descriptor via assign once its
// container body has been fully walked.
func layerVisitor(id LayerID, assign func(*Layer)) tagstream.Visitor {
	layer := &Layer{ID: id}
	assign(layer) // pointer is stable; fields below are filled in as the body is walked
	return &tagstream.MapVisitor{
		Children: map[string]tagstream.Visitor{
			"packages": &tagstream.ListVisitor{
				OnObject: func() tagstream.Visitor {
					idx := len(layer.Packages)
					layer.Packages = append(layer.Packages, Package{Index: idx})
					return packageVisitor(func(p Package) {
						p.Index = idx
						layer.Packages[idx] = p
					})
				},
			},
			"superbundles": &tagstream.ListVisitor{
				OnScalar: func(v tagstream.Value) error {
					layer.FreeSuperbundles = append(layer.FreeSuperbundles, v.String)
					return nil
				},
			},
		},
	}
}

func packageVisitor(assign func(Package)) tagstream.Visitor {
	var pkg Package
	return &tagstream.MapVisitor{
		Fields: map[string]func(tagstream.Value) error{
			"name": func(v tagstream.Value) error {
				pkg.Name = v.String
				assign(pkg)
				return nil
			},
		},
		Children: map[string]tagstream.Visitor{
			"superbundles": &tagstream.ListVisitor{
				OnScalar: func(v tagstream.Value) error {
					pkg.Superbundles = append(pkg.Superbundles, v.String)
					assign(pkg)
					return nil
				},
			},
			"dependencies": &tagstream.ListVisitor{
				OnScalar: func(v tagstream.Value) error {
					pkg.Dependencies = append(pkg.Dependencies, v.String)
					assign(pkg)
					return nil
				},
			},
		},
	}
}
