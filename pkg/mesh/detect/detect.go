// Package detect classifies raw mesh file bytes into a format variant and
// routes each variant to a decoder family.
//
// Detection trusts, in priority order: magic bytes, then file extension,
// then MIME type. Magic bytes are authoritative; when the extension implies
// a different format family than the magic bytes, detection records the
// mismatch as a warning condition but still proceeds with the magic result.
package detect

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"strings"

	"github.com/meshview/meshview/pkg/mesh"
)

// Method identifies which signal produced the detection result.
type Method string

const (
	// MethodMagic means the format was identified from magic bytes.
	MethodMagic Method = "magic"

	// MethodExtension means the format was inferred from the file extension.
	MethodExtension Method = "extension"

	// MethodMIME means the format was inferred from the MIME type.
	MethodMIME Method = "mime"

	// MethodUnknown means no method yielded a recognized format.
	MethodUnknown Method = "unknown"
)

// Result is the outcome of format detection. A nil-format result with
// MethodUnknown is not an error; callers must branch on it.
type Result struct {
	// Format is the detected variant, or FormatUnknown.
	Format mesh.Format `json:"format"`

	// Method is the signal that produced the result.
	Method Method `json:"method"`

	// Mismatch is true when the extension-implied family differs from the
	// magic-byte-implied family. A warning condition, not a hard error.
	Mismatch bool `json:"mismatch"`

	// ExpectedFormat is the extension-implied format when Mismatch is set.
	ExpectedFormat mesh.Format `json:"expected_format,omitempty"`
}

// magicProbeLimit bounds how much of the header magic inspection reads.
const magicProbeLimit = 256

// Binary STL plausibility bounds for the triangle count at offset 80.
const (
	binarySTLMinTriangles = 1
	binarySTLMaxTriangles = 100_000_000
)

// Detect classifies the first bytes of a mesh file. firstBytes should hold
// at least the first 256 bytes of the file (or the whole file when
// shorter); mimeType may be empty.
func Detect(fileName, mimeType string, firstBytes []byte) Result {
	head := firstBytes
	if len(head) > magicProbeLimit {
		head = head[:magicProbeLimit]
	}

	byMagic := detectMagic(head, len(firstBytes))
	byExt := detectExtension(fileName)

	if byMagic != mesh.FormatUnknown {
		result := Result{Format: byMagic, Method: MethodMagic}
		if byExt != mesh.FormatUnknown && byExt.Family() != byMagic.Family() {
			result.Mismatch = true
			result.ExpectedFormat = byExt
		}
		return result
	}

	if byExt != mesh.FormatUnknown {
		return Result{Format: byExt, Method: MethodExtension}
	}

	if byMIME := detectMIME(mimeType); byMIME != mesh.FormatUnknown {
		return Result{Format: byMIME, Method: MethodMIME}
	}

	return Result{Method: MethodUnknown}
}

// detectMagic inspects up to the first 256 bytes. totalLen is the full
// probe length, used for the binary STL minimum-size check.
func detectMagic(head []byte, totalLen int) mesh.Format {
	if len(head) == 0 {
		return mesh.FormatUnknown
	}

	if f := detectPLYHeader(head); f != mesh.FormatUnknown {
		return f
	}

	if hasASCIISTLSignature(head) {
		return mesh.FormatStlASCII
	}

	if f := detectBinarySTL(head, totalLen); f != mesh.FormatUnknown {
		return f
	}

	if len(head) >= 2 && (bytes.HasPrefix(head, []byte("v ")) || bytes.HasPrefix(head, []byte("# "))) {
		return mesh.FormatObj
	}

	return mesh.FormatUnknown
}

// detectPLYHeader recognizes a "ply" magic line and distinguishes the
// sub-variant from the header's format directive.
func detectPLYHeader(head []byte) mesh.Format {
	if !bytes.HasPrefix(head, []byte("ply\n")) && !bytes.HasPrefix(head, []byte("ply\r\n")) {
		return mesh.FormatUnknown
	}
	return PLYVariant(head)
}

// PLYVariant reads the PLY header "format" directive from data and returns
// the concrete sub-variant. Defaults to ASCII when the directive is absent
// from the probed bytes; the decoder re-validates the header in full.
func PLYVariant(data []byte) mesh.Format {
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		fields := bytes.Fields(line)
		if len(fields) < 2 || string(fields[0]) != "format" {
			if len(fields) == 1 && string(fields[0]) == "end_header" {
				break
			}
			continue
		}
		switch string(fields[1]) {
		case "ascii":
			return mesh.FormatPlyASCII
		case "binary_little_endian":
			return mesh.FormatPlyBinaryLE
		case "binary_big_endian":
			return mesh.FormatPlyBinaryBE
		}
	}
	return mesh.FormatPlyASCII
}

// hasASCIISTLSignature checks for a case-insensitive "solid" prefix with a
// newline somewhere in the first 80 bytes. Binary STL files may also start
// with "solid" in their free-form header, so the newline requirement is
// what separates the two.
func hasASCIISTLSignature(head []byte) bool {
	if len(head) < 5 {
		return false
	}
	if !strings.EqualFold(string(head[:5]), "solid") {
		return false
	}
	window := head
	if len(window) > 80 {
		window = window[:80]
	}
	return bytes.IndexByte(window, '\n') >= 0
}

// detectBinarySTL applies the 84-byte-minimum/triangle-count heuristic: a
// little-endian u32 at offset 80 in [1, 100M] marks a plausible binary
// STL. The implied total size 84 + 50*count need not match the file.
func detectBinarySTL(head []byte, totalLen int) mesh.Format {
	if totalLen < 84 || len(head) < 84 {
		return mesh.FormatUnknown
	}
	if strings.EqualFold(string(head[:5]), "solid") {
		return mesh.FormatUnknown
	}
	count := binary.LittleEndian.Uint32(head[80:84])
	if count < binarySTLMinTriangles || count > binarySTLMaxTriangles {
		return mesh.FormatUnknown
	}
	return mesh.FormatStlBinary
}

// detectExtension maps a recognized file extension to its family-default
// variant. The PLY and STL sub-variants are provisional here; the router
// settles them against the actual bytes during decode.
func detectExtension(fileName string) mesh.Format {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".stl":
		return mesh.FormatStlBinary
	case ".ply":
		return mesh.FormatPlyASCII
	case ".obj":
		return mesh.FormatObj
	default:
		return mesh.FormatUnknown
	}
}

// detectMIME performs a substring match on the MIME type as a last resort.
func detectMIME(mimeType string) mesh.Format {
	mt := strings.ToLower(mimeType)
	switch {
	case mt == "":
		return mesh.FormatUnknown
	case strings.Contains(mt, "stl"):
		return mesh.FormatStlBinary
	case strings.Contains(mt, "ply"):
		return mesh.FormatPlyASCII
	case strings.Contains(mt, "obj"):
		return mesh.FormatObj
	default:
		return mesh.FormatUnknown
	}
}
