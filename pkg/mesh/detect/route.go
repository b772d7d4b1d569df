package detect

import (
	"github.com/meshview/meshview/pkg/mesh"
)

// DecoderFamily selects which decoder implementation handles a format.
type DecoderFamily string

const (
	// FamilyInProcess decodes text formats with the native Go decoders.
	// Bulk text scanning is cheap and avoids a cross-boundary copy.
	FamilyInProcess DecoderFamily = "in_process"

	// FamilyForeign decodes binary formats through the foreign decoder
	// module.
	FamilyForeign DecoderFamily = "foreign"
)

// Decision is the routing outcome for one detected format.
type Decision struct {
	// Family is the decoder family that will handle the bytes.
	Family DecoderFamily `json:"family"`

	// Concrete is the settled format variant. For PLY this comes from the
	// parsed header's format directive; for STL from re-checking the
	// ASCII signature against the full buffer.
	Concrete mesh.Format `json:"concrete"`
}

// Route maps a detected format to its decoder family, settling provisional
// sub-variants against the full file contents. ASCII PLY, ASCII STL and
// OBJ always go in-process; binary PLY (either endianness) and binary STL
// always go foreign.
func Route(detected mesh.Format, data []byte) Decision {
	concrete := detected

	switch detected.Family() {
	case mesh.FamilyPLY:
		// The header's format directive, not the extension, decides the
		// PLY sub-variant.
		concrete = PLYVariant(data)
	case mesh.FamilySTL:
		concrete = stlVariant(data)
	}

	family := FamilyInProcess
	if concrete.Binary() {
		family = FamilyForeign
	}
	return Decision{Family: family, Concrete: concrete}
}

// stlVariant re-applies the ASCII signature and binary plausibility checks
// from detection, now against the full buffer rather than the header slice.
func stlVariant(data []byte) mesh.Format {
	head := data
	if len(head) > magicProbeLimit {
		head = head[:magicProbeLimit]
	}
	if hasASCIISTLSignature(head) {
		return mesh.FormatStlASCII
	}
	if detectBinarySTL(head, len(data)) == mesh.FormatStlBinary {
		return mesh.FormatStlBinary
	}
	// Neither signature held. Prefer the ASCII decoder, whose failure mode
	// is a clean parse error rather than a misread binary record.
	return mesh.FormatStlASCII
}
