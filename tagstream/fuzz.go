package tagstream

import "github.com/xyrin88/anthemtool/bitio"

// Fuzz exercises the tag stream decoder against arbitrary input, the way
// the teacher's root fuzz.go exercises the PE parser. A discarding
// Visitor is enough: the decoder's own boundary and type-code checks are
// what's under test, not any particular typed view.
func Fuzz(data []byte) int {
	visit := &MapVisitor{}
	if _, err := DecodeTopLevel(bitio.New(data), KindObject, visit); err != nil {
		return 0
	}
	return 1
}
