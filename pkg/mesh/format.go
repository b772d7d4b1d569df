package mesh

// Format identifies one of the six supported on-disk mesh format variants.
// A format is immutable once assigned to an asset.
type Format string

const (
	// FormatUnknown is the zero value; no format could be determined.
	FormatUnknown Format = ""

	// FormatStlASCII is ASCII STL ("solid ..." text).
	FormatStlASCII Format = "stl_ascii"

	// FormatStlBinary is binary STL (80-byte header, u32 triangle count,
	// 50-byte triangle records).
	FormatStlBinary Format = "stl_binary"

	// FormatPlyASCII is ASCII PLY.
	FormatPlyASCII Format = "ply_ascii"

	// FormatPlyBinaryLE is binary little-endian PLY.
	FormatPlyBinaryLE Format = "ply_binary_le"

	// FormatPlyBinaryBE is binary big-endian PLY.
	FormatPlyBinaryBE Format = "ply_binary_be"

	// FormatObj is Wavefront OBJ.
	FormatObj Format = "obj"
)

// Family groups format variants by their container family.
type Family string

const (
	FamilyUnknown Family = ""
	FamilySTL     Family = "stl"
	FamilyPLY     Family = "ply"
	FamilyOBJ     Family = "obj"
)

// Family returns the container family of the format.
func (f Format) Family() Family {
	switch f {
	case FormatStlASCII, FormatStlBinary:
		return FamilySTL
	case FormatPlyASCII, FormatPlyBinaryLE, FormatPlyBinaryBE:
		return FamilyPLY
	case FormatObj:
		return FamilyOBJ
	default:
		return FamilyUnknown
	}
}

// Binary reports whether the variant stores geometry in a binary encoding.
// Binary variants are decoded by the foreign decoder module; text variants
// are decoded in-process.
func (f Format) Binary() bool {
	switch f {
	case FormatStlBinary, FormatPlyBinaryLE, FormatPlyBinaryBE:
		return true
	default:
		return false
	}
}

// Valid reports whether f is one of the six recognized variants.
func (f Format) Valid() bool {
	switch f {
	case FormatStlASCII, FormatStlBinary, FormatPlyASCII,
		FormatPlyBinaryLE, FormatPlyBinaryBE, FormatObj:
		return true
	default:
		return false
	}
}
