// Package tagstream decodes the engine's self-describing nested record
// format embedded inside TOC and SB containers: a stream of type-coded
// records, each optionally named, with containers length-prefixed by a
// tag stream varint giving the byte size of their body (spec.md §4.2).
package tagstream

import (
	"math"

	"github.com/xyrin88/anthemtool/bitio"
	"github.com/xyrin88/anthemtool/xerr"
)

// Type codes observed in this title's tag stream dialect.
const (
	codeEnd = 0x00

	codeContainerList   = 0x10
	codeContainerObject = 0x11

	codeBool   = 0x20
	codeU8     = 0x21
	codeU16    = 0x22
	codeU32    = 0x23
	codeU64    = 0x24
	codeI8     = 0x25
	codeI16    = 0x26
	codeI32    = 0x27
	codeI64    = 0x28
	codeFloat  = 0x29
	codeString = 0x30
	codeBlob   = 0x31
	codeSHA1   = 0x32
	codeGUID   = 0x33
)

// Kind identifies what sort of nested container a Container call opens.
type Kind int

// Container kinds.
const (
	KindList Kind = iota
	KindObject
)

// Value carries a decoded primitive. Exactly one field is meaningful,
// selected by Code.
type Value struct {
	Code   byte
	Bool   bool
	Uint   uint64
	Int    int64
	Float  float32
	String string
	Blob   []byte
	SHA1   [20]byte
	GUID   [16]byte
}

// UnknownField records a field name a typed view did not recognize, kept
// for diagnostic logging rather than hard failure (spec.md §4.2:
// "unknown field names are preserved as opaque pairs").
type UnknownField struct {
	Container string
	Name      string
	Value     Value
}

// Visitor is the typed view a consumer builds over one container's body.
// Field is called for each scalar record. Container is called when a
// nested container is opened; returning a non-nil Visitor descends into
// its body (recursively, with a fresh Decoder bounded to that container),
// returning (nil, nil) skips the body without error. This is the "table
// of recognized field names per container kind" spec.md §4.2 describes:
// one small Visitor per container kind, composed recursively.
type Visitor interface {
	Field(name string, v Value) error
	Container(name string, kind Kind) (Visitor, error)
}

// Decoder walks a tag stream and drives a Visitor. It is not safe for
// concurrent use, but multiple Decoders over independent sub-readers may
// run concurrently.
type Decoder struct {
	r       *bitio.Reader
	unknown []UnknownField
}

// New wraps r in a Decoder.
func New(r *bitio.Reader) *Decoder {
	return &Decoder{r: r}
}

// Walk decodes records from the current position until an end-of-record
// marker (0x00), driving visit for each field or nested container. named
// controls whether field names are expected (true inside an object body,
// false inside a list body), per spec.md §4.2.
func (d *Decoder) Walk(named bool, visit Visitor) error {
	for {
		code, err := d.r.ReadU8()
		if err != nil {
			return xerr.Wrap(err, "tag stream type code")
		}
		if code == codeEnd {
			return nil
		}

		var name string
		if named {
			n, err := d.r.ReadCString()
			if err != nil {
				return xerr.Wrap(err, "tag stream field name")
			}
			name = string(n)
		}

		if code == codeContainerList || code == codeContainerObject {
			if err := d.walkContainer(name, code, visit); err != nil {
				return err
			}
			continue
		}

		v, err := d.decodeScalar(code)
		if err != nil {
			return xerr.Wrapf(err, "tag stream field %q", name)
		}
		if m, ok := visit.(*MapVisitor); ok {
			if _, known := m.Fields[name]; !known {
				d.unknown = append(d.unknown, UnknownField{Container: m.ContainerName, Name: name, Value: v})
			}
		}
		if err := visit.Field(name, v); err != nil {
			return err
		}
	}
}

func (d *Decoder) walkContainer(name string, code byte, visit Visitor) error {
	kind := KindList
	if code == codeContainerObject {
		kind = KindObject
	}

	sub, err := d.openContainerBody()
	if err != nil {
		return xerr.Wrapf(err, "tag stream container %q", name)
	}

	child, err := visit.Container(name, kind)
	if err != nil {
		return err
	}
	if child == nil {
		return nil
	}

	sd := New(sub)
	if err := sd.Walk(kind == KindObject, child); err != nil {
		return xerr.Wrapf(err, "tag stream container %q body", name)
	}
	if sub.Remaining() != 0 {
		return xerr.Wrapf(xerr.FormatMismatch, "tag stream container %q body ends %d bytes before its declared length", name, sub.Remaining())
	}
	d.unknown = append(d.unknown, sd.unknown...)
	return nil
}

// openContainerBody reads the varint length prefix for a just-opened
// container and returns a sub-reader bounded exactly to its declared body
// size, enforcing that the body ends precisely at that boundary (spec.md
// §4.2: "a mismatch is fatal").
func (d *Decoder) openContainerBody() (*bitio.Reader, error) {
	n, err := d.r.ReadVarint()
	if err != nil {
		return nil, xerr.Wrap(err, "container length prefix")
	}
	if n > uint64(d.r.Remaining()) {
		return nil, xerr.Wrapf(xerr.FormatMismatch, "container body of %d bytes exceeds remaining %d", n, d.r.Remaining())
	}
	return d.r.OpenSubview(int(n))
}

func (d *Decoder) decodeScalar(code byte) (Value, error) {
	switch code {
	case codeBool:
		b, err := d.r.ReadU8()
		return Value{Code: code, Bool: b != 0}, err
	case codeU8:
		b, err := d.r.ReadU8()
		return Value{Code: code, Uint: uint64(b)}, err
	case codeU16:
		v, err := d.r.ReadU16()
		return Value{Code: code, Uint: uint64(v)}, err
	case codeU32:
		v, err := d.r.ReadU32()
		return Value{Code: code, Uint: uint64(v)}, err
	case codeU64:
		v, err := d.r.ReadU64()
		return Value{Code: code, Uint: v}, err
	case codeI8:
		b, err := d.r.ReadU8()
		return Value{Code: code, Int: int64(int8(b))}, err
	case codeI16:
		v, err := d.r.ReadU16()
		return Value{Code: code, Int: int64(int16(v))}, err
	case codeI32:
		v, err := d.r.ReadI32()
		return Value{Code: code, Int: int64(v)}, err
	case codeI64:
		v, err := d.r.ReadI64()
		return Value{Code: code, Int: v}, err
	case codeFloat:
		v, err := d.r.ReadU32()
		return Value{Code: code, Float: math.Float32frombits(v)}, err
	case codeString:
		b, err := d.r.ReadLengthPrefixed()
		return Value{Code: code, String: string(b)}, err
	case codeBlob:
		b, err := d.r.ReadLengthPrefixed()
		if err != nil {
			return Value{}, err
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		return Value{Code: code, Blob: cp}, nil
	case codeSHA1:
		b, err := d.r.ReadBytes(20)
		if err != nil {
			return Value{}, err
		}
		var out [20]byte
		copy(out[:], b)
		return Value{Code: code, SHA1: out}, nil
	case codeGUID:
		b, err := d.r.ReadBytes(16)
		if err != nil {
			return Value{}, err
		}
		var out [16]byte
		copy(out[:], b)
		return Value{Code: code, GUID: out}, nil
	default:
		return Value{}, xerr.UnknownTypeCode(code)
	}
}

// UnknownFields returns the opaque name/value pairs accumulated across the
// most recent Walk call, for diagnostic logging.
func (d *Decoder) UnknownFields() []UnknownField {
	return d.unknown
}

// DecodeTopLevel runs Walk over the root object or list body described by
// r, without an outer type-code/length prefix (the layout descriptor and
// SB/TOC bodies are bare objects at their respective start offsets,
// spec.md §4.6).
func DecodeTopLevel(r *bitio.Reader, kind Kind, visit Visitor) ([]UnknownField, error) {
	d := New(r)
	if err := d.Walk(kind == KindObject, visit); err != nil {
		return nil, err
	}
	return d.unknown, nil
}

// MapVisitor is a convenience Visitor built from plain maps, for the many
// small object shapes in this format: Fields handles named scalars and
// Children supplies the Visitor for each named nested container.
// Containers not present in Children are skipped rather than failing;
// fields not present in Fields are recorded by the Decoder as
// UnknownFields (tagged with ContainerName) and also passed to OnUnknown
// when it is set.
type MapVisitor struct {
	ContainerName string
	Fields        map[string]func(Value) error
	Children      map[string]Visitor
	OnUnknown     func(name string, v Value)
}

// Field implements Visitor.
func (m *MapVisitor) Field(name string, v Value) error {
	if h, ok := m.Fields[name]; ok {
		return h(v)
	}
	if m.OnUnknown != nil {
		m.OnUnknown(name, v)
	}
	return nil
}

// Container implements Visitor.
func (m *MapVisitor) Container(name string, kind Kind) (Visitor, error) {
	if child, ok := m.Children[name]; ok {
		return child, nil
	}
	return nil, nil
}

// ListVisitor drives the items of a list container, each of which arrives
// unnamed (spec.md §4.2). Use OnScalar for a list of primitives (e.g. a
// list of strings) and OnObject for a list of nested objects, called once
// per item to obtain that item's own Visitor.
type ListVisitor struct {
	OnScalar func(v Value) error
	OnObject func() Visitor
}

// Field implements Visitor.
func (l *ListVisitor) Field(name string, v Value) error {
	if l.OnScalar != nil {
		return l.OnScalar(v)
	}
	return nil
}

// Container implements Visitor.
func (l *ListVisitor) Container(name string, kind Kind) (Visitor, error) {
	if kind == KindObject && l.OnObject != nil {
		return l.OnObject(), nil
	}
	return nil, nil
}
