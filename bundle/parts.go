package bundle

import (
	"github.com/xyrin88/anthemtool/layout"
	"github.com/xyrin88/anthemtool/tagstream"
)

// partVisitor returns a Visitor that decodes one part object's fields
// into p, assigning via assign after each field so a partially-decoded
// Part is visible to the caller even if the stream ends early inside a
// container (mirrors layout's packageVisitor shape).
func partVisitor(kind Kind, assign func(Part)) tagstream.Visitor {
	var p Part
	p.Kind = kind

	fields := map[string]func(tagstream.Value) error{
		"sha1": func(v tagstream.Value) error {
			p.SHA1 = v.SHA1
			assign(p)
			return nil
		},
		"casId": func(v tagstream.Value) error {
			p.CASID = layout.CASID(v.Uint)
			assign(p)
			return nil
		},
		"casOffset": func(v tagstream.Value) error {
			p.CASOffset = v.Uint
			assign(p)
			return nil
		},
		"compressedSize": func(v tagstream.Value) error {
			p.CompressedSize = v.Uint
			assign(p)
			return nil
		},
		"flags": func(v tagstream.Value) error {
			p.Flags = uint32(v.Uint)
			assign(p)
			return nil
		},
	}

	switch kind {
	case EBX, RES:
		fields["name"] = func(v tagstream.Value) error {
			p.Name = v.String
			assign(p)
			return nil
		}
		fields["uncompressedSize"] = func(v tagstream.Value) error {
			p.UncompressedSize = v.Uint
			assign(p)
			return nil
		}
	case Chunk:
		fields["uid"] = func(v tagstream.Value) error {
			p.UID = v.GUID
			assign(p)
			return nil
		}
	}

	if kind == RES {
		fields["resType"] = func(v tagstream.Value) error {
			p.ResType = uint32(v.Uint)
			assign(p)
			return nil
		}
	}
	if kind == RES || kind == Chunk {
		fields["meta"] = func(v tagstream.Value) error {
			p.Meta = append([]byte(nil), v.Blob...)
			assign(p)
			return nil
		}
	}

	return &tagstream.MapVisitor{Fields: fields}
}

// partListVisitor drives a list container of part objects of the given
// kind, appending each finished Part to out.
func partListVisitor(kind Kind, out *[]Part) tagstream.Visitor {
	return &tagstream.ListVisitor{
		OnObject: func() tagstream.Visitor {
			idx := len(*out)
			*out = append(*out, Part{Kind: kind})
			return partVisitor(kind, func(p Part) {
				(*out)[idx] = p
			})
		},
	}
}
