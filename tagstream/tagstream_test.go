package tagstream

import (
	"errors"
	"testing"

	"github.com/xyrin88/anthemtool/bitio"
	"github.com/xyrin88/anthemtool/xerr"
)

// buildObject encodes a flat object body: a sequence of (code, name, value
// bytes...) tuples terminated by 0x00, matching spec.md §4.2.
func buildObject(fields ...[]byte) []byte {
	var out []byte
	for _, f := range fields {
		out = append(out, f...)
	}
	out = append(out, codeEnd)
	return out
}

func field(code byte, name string, value []byte) []byte {
	b := []byte{code}
	b = append(b, []byte(name)...)
	b = append(b, 0x00)
	b = append(b, value...)
	return b
}

func TestWalkFlatObject(t *testing.T) {
	body := buildObject(
		field(codeU32, "id", []byte{0x2a, 0x00, 0x00, 0x00}),
		field(codeString, "name", []byte{0x03, 'f', 'o', 'o'}),
	)

	var gotID uint64
	var gotName string
	visit := &MapVisitor{
		Fields: map[string]func(Value) error{
			"id":   func(v Value) error { gotID = v.Uint; return nil },
			"name": func(v Value) error { gotName = v.String; return nil },
		},
	}

	if _, err := DecodeTopLevel(bitio.New(body), KindObject, visit); err != nil {
		t.Fatalf("DecodeTopLevel() error = %v", err)
	}
	if gotID != 0x2a || gotName != "foo" {
		t.Fatalf("got id=%d name=%q, want id=42 name=foo", gotID, gotName)
	}
}

func TestWalkNestedContainer(t *testing.T) {
	inner := buildObject(field(codeU8, "x", []byte{0x07}))
	innerContainer := append([]byte{codeContainerObject}, []byte("child")...)
	innerContainer = append(innerContainer, 0x00)
	innerContainer = append(innerContainer, byte(len(inner)))
	innerContainer = append(innerContainer, inner...)

	body := append(innerContainer, codeEnd)

	var gotX uint64
	childVisit := &MapVisitor{
		Fields: map[string]func(Value) error{
			"x": func(v Value) error { gotX = v.Uint; return nil },
		},
	}
	rootVisit := &MapVisitor{
		Children: map[string]Visitor{"child": childVisit},
	}

	if _, err := DecodeTopLevel(bitio.New(body), KindObject, rootVisit); err != nil {
		t.Fatalf("DecodeTopLevel() error = %v", err)
	}
	if gotX != 7 {
		t.Fatalf("gotX = %d, want 7", gotX)
	}
}

func TestContainerLengthMismatchFatal(t *testing.T) {
	// Declares a 10-byte body but only supplies 1 before end-of-stream.
	body := []byte{codeContainerObject}
	body = append(body, []byte("bad")...)
	body = append(body, 0x00, 10, 0x00)

	visit := &MapVisitor{Children: map[string]Visitor{"bad": &MapVisitor{}}}
	_, err := DecodeTopLevel(bitio.New(body), KindObject, visit)
	if !errors.Is(err, xerr.Truncated) && !errors.Is(err, xerr.FormatMismatch) {
		t.Fatalf("DecodeTopLevel() error = %v, want Truncated or FormatMismatch", err)
	}
}

func TestUnknownTypeCodeFatal(t *testing.T) {
	body := field(0xEE, "bogus", nil)
	visit := &MapVisitor{}
	_, err := DecodeTopLevel(bitio.New(body), KindObject, visit)
	var utc *xerr.UnknownTypeCodeError
	if !errors.As(err, &utc) {
		t.Fatalf("DecodeTopLevel() error = %v, want UnknownTypeCodeError", err)
	}
}

func TestUnknownFieldRecorded(t *testing.T) {
	body := buildObject(field(codeU8, "mystery", []byte{1}))

	var recorded []UnknownField
	visit := &MapVisitor{
		OnUnknown: func(name string, v Value) {
			recorded = append(recorded, UnknownField{Name: name, Value: v})
		},
	}
	if _, err := DecodeTopLevel(bitio.New(body), KindObject, visit); err != nil {
		t.Fatalf("DecodeTopLevel() error = %v", err)
	}
	if len(recorded) != 1 || recorded[0].Name != "mystery" {
		t.Fatalf("recorded = %+v, want one field named mystery", recorded)
	}
}

func TestListHasNoNames(t *testing.T) {
	body := []byte{codeU8, 9, codeEnd}

	var got uint64
	visit := &MapVisitor{
		Fields: map[string]func(Value) error{
			"": func(v Value) error { got = v.Uint; return nil },
		},
	}
	if _, err := DecodeTopLevel(bitio.New(body), KindList, visit); err != nil {
		t.Fatalf("DecodeTopLevel() error = %v", err)
	}
	if got != 9 {
		t.Fatalf("got = %d, want 9", got)
	}
}
