package layout

// Fuzz exercises the CASID codec against arbitrary 32-bit inputs: decode
// whatever bit pattern data encodes, then assert the fields round-trip
// back through Encode (property 3, spec.md §8).
func Fuzz(data []byte) int {
	if len(data) < 4 {
		return 0
	}
	raw := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24

	codec, err := NewCodec(0xFF, 0xFFFF)
	if err != nil {
		return 0
	}

	layer, pkgID, casIndex := codec.Decode(CASID(raw))
	reencoded, err := codec.Encode(layer, pkgID, casIndex)
	if err != nil {
		panic("decode produced fields Encode rejects")
	}
	layer2, pkgID2, casIndex2 := codec.Decode(reencoded)
	if layer != layer2 || pkgID != pkgID2 || casIndex != casIndex2 {
		panic("cas identifier fields did not round-trip")
	}
	return 1
}
