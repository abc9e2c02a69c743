package layout

import (
	"math/bits"

	"github.com/xyrin88/anthemtool/xerr"
)

// CASID is the 32-bit value that locates a CAS file by (layer, package,
// cas file index), as carried on every Part (spec.md §3, §6).
type CASID uint32

// Codec packs and unpacks CASID values. Field widths are derived once, at
// layout-build time, from the maximum package id and cas file index
// observed across both layers (spec.md §9: "derive widths from observed
// maxima... assert that no observed identifier overflows"). The layer id
// always occupies the high bit; it only ever takes the values 0 or 1.
type Codec struct {
	packageBits  uint
	casIndexBits uint
}

// NewCodec derives a Codec from the largest package id and cas file index
// that will ever need to be encoded. It fails with FormatMismatch if the
// two fields plus the 1-bit layer id would not fit in 32 bits.
func NewCodec(maxPackageID, maxCASIndex uint32) (*Codec, error) {
	packageBits := uint(bits.Len32(maxPackageID))
	casIndexBits := uint(bits.Len32(maxCASIndex))
	if 1+packageBits+casIndexBits > 32 {
		return nil, xerr.Wrapf(xerr.FormatMismatch,
			"cas identifier fields overflow 32 bits: package needs %d bits, cas index needs %d bits", packageBits, casIndexBits)
	}
	return &Codec{packageBits: packageBits, casIndexBits: casIndexBits}, nil
}

// Encode packs a (layer, package, cas index) tuple into a CASID. It fails
// with FormatMismatch if any field does not fit in the widths this Codec
// was derived with.
func (c *Codec) Encode(layer LayerID, packageID, casIndex uint32) (CASID, error) {
	if layer > 1 {
		return 0, xerr.Wrapf(xerr.FormatMismatch, "layer id %d is not 0 or 1", layer)
	}
	if packageID >= uint32(1)<<c.packageBits {
		return 0, xerr.Wrapf(xerr.FormatMismatch, "package id %d overflows %d-bit field", packageID, c.packageBits)
	}
	if casIndex >= uint32(1)<<c.casIndexBits {
		return 0, xerr.Wrapf(xerr.FormatMismatch, "cas index %d overflows %d-bit field", casIndex, c.casIndexBits)
	}
	id := uint32(layer)<<31 | packageID<<c.casIndexBits | casIndex
	return CASID(id), nil
}

// Decode unpacks a CASID into its (layer, package, cas index) fields.
func (c *Codec) Decode(id CASID) (layer LayerID, packageID, casIndex uint32) {
	v := uint32(id)
	layer = LayerID(v >> 31)
	casIndexMask := uint32(1)<<c.casIndexBits - 1
	casIndex = v & casIndexMask
	packageMask := uint32(1)<<c.packageBits - 1
	packageID = (v >> c.casIndexBits) & packageMask
	return layer, packageID, casIndex
}
