package bundle

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/xyrin88/anthemtool/toc"
)

func buildSBFile(body []byte) []byte {
	var buf bytes.Buffer
	magic := make([]byte, 4)
	binary.BigEndian.PutUint32(magic, toc.SBMagic)
	buf.Write(magic)
	buf.Write(varint(len(body)))
	buf.Write(body)
	return buf.Bytes()
}

func TestLinkSBResolvesValidRange(t *testing.T) {
	var sha1 [20]byte
	sha1[1] = 0xCD
	part := partObject(sha1, 3, 10, 20, "weapons/sword", 40)
	chunksItem := append([]byte{tcObject, byte(len(part))}, part...)
	chunksList := append(chunksItem, tcEnd)

	bundleBody := container(tcList, "chunks", chunksList)
	bundleBody = append(bundleBody, tcEnd)

	sbFile := buildSBFile(bundleBody)

	descriptors := []BundleDescriptor{
		{Name: "b1", HasSB: true, SBOffset: 0, SBSize: uint64(len(bundleBody))},
	}

	bundles, _, err := LinkSB(sbFile, descriptors)
	if err != nil {
		t.Fatalf("LinkSB() error = %v", err)
	}
	if len(bundles) != 1 {
		t.Fatalf("bundles = %+v, want 1", bundles)
	}
	b := bundles[0]
	if !b.Available || b.Name != "b1" {
		t.Fatalf("bundle = %+v", b)
	}
	if len(b.Chunks) != 1 || b.Chunks[0].CASID != 3 {
		t.Fatalf("b.Chunks = %+v", b.Chunks)
	}
}

// Common case of an absent language bundle: the SB range lies outside
// the file (or the file is entirely absent) — demoted, not fatal.
func TestLinkSBOutOfRangeIsUnavailable(t *testing.T) {
	descriptors := []BundleDescriptor{
		{Name: "localized_fr", HasSB: true, SBOffset: 1000, SBSize: 10},
	}

	bundles, _, err := LinkSB(buildSBFile(nil), descriptors)
	if err != nil {
		t.Fatalf("LinkSB() error = %v", err)
	}
	if len(bundles) != 1 || bundles[0].Available {
		t.Fatalf("bundles = %+v, want unavailable", bundles)
	}
}

func TestLinkSBNilFile(t *testing.T) {
	descriptors := []BundleDescriptor{
		{Name: "localized_de", HasSB: true, SBOffset: 0, SBSize: 4},
	}

	bundles, _, err := LinkSB(nil, descriptors)
	if err != nil {
		t.Fatalf("LinkSB() error = %v", err)
	}
	if len(bundles) != 1 || bundles[0].Available {
		t.Fatalf("bundles = %+v, want unavailable", bundles)
	}
}

func TestLinkSBTOCOnlyBundlePassesThrough(t *testing.T) {
	var sha1 [20]byte
	descriptors := []BundleDescriptor{
		{Name: "cas_only", HasSB: false, EBX: []Part{{Kind: EBX, SHA1: sha1, Name: "x"}}},
	}

	bundles, _, err := LinkSB(nil, descriptors)
	if err != nil {
		t.Fatalf("LinkSB() error = %v", err)
	}
	if len(bundles) != 1 || !bundles[0].Available || len(bundles[0].EBX) != 1 {
		t.Fatalf("bundles = %+v", bundles)
	}
}
