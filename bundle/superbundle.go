package bundle

import "github.com/xyrin88/anthemtool/tagstream"

// ParseSuperbundle decodes a complete superbundle: its TOC (and,
// if sbData is non-nil, its companion SB) into a Superbundle. A failure
// while parsing the TOC itself is fatal (phase 2 of graph construction,
// spec.md §4.7) and is returned as an error with a nil Superbundle. A
// failure while linking the SB is reported as an error too, but the
// caller (graph construction, phase 3) may choose to demote the
// superbundle to Available=false rather than abort — the partially
// parsed Superbundle (TOC resources only) is still returned alongside
// that error so the caller can do so without re-parsing the TOC.
func ParseSuperbundle(name string, tocData, sbData []byte) (*Superbundle, []tagstream.UnknownField, error) {
	descriptors, resources, unknown, err := ParseTOCBody(tocData)
	if err != nil {
		return nil, nil, err
	}

	bundles, sbUnknown, err := LinkSB(sbData, descriptors)
	if err != nil {
		return &Superbundle{Name: name, Resources: resources, Available: false}, unknown, err
	}

	return &Superbundle{
		Name:      name,
		Bundles:   bundles,
		Resources: resources,
		Available: true,
	}, append(unknown, sbUnknown...), nil
}
