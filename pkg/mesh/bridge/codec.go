package bridge

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/meshview/meshview/pkg/mesh"
)

// Result blob status codes shared with the foreign module.
const (
	statusOK          uint32 = 0
	statusParseFailed uint32 = 1
	statusMemoryLimit uint32 = 2
)

// Result blob layout flags.
const flagHasNormals uint32 = 1 << 0

// Format codes shared with the foreign module's parse entry point.
const (
	formatCodeStlBinary   uint32 = 1
	formatCodePlyBinaryLE uint32 = 2
	formatCodePlyBinaryBE uint32 = 3
)

// formatCode maps a binary format variant to its wire code.
func formatCode(f mesh.Format) (uint32, error) {
	switch f {
	case mesh.FormatStlBinary:
		return formatCodeStlBinary, nil
	case mesh.FormatPlyBinaryLE:
		return formatCodePlyBinaryLE, nil
	case mesh.FormatPlyBinaryBE:
		return formatCodePlyBinaryBE, nil
	default:
		return 0, fmt.Errorf("format %q is not a foreign-decoded variant", f)
	}
}

// decodeResultBlob copies a foreign result blob out into host-owned
// slices. The blob is little-endian:
//
//	status u32
//	on failure: msgLen u32, msg bytes
//	on success: vertexCount u32, faceCount u32, flags u32,
//	            positions f64[vertexCount*3], indices u32[faceCount*3],
//	            normals f32[vertexCount*3] when flagHasNormals is set
func decodeResultBlob(blob []byte) (*ParseResult, error) {
	if len(blob) < 4 {
		return nil, fmt.Errorf("result blob truncated at %d bytes", len(blob))
	}
	status := binary.LittleEndian.Uint32(blob)
	blob = blob[4:]

	if status != statusOK {
		msg := "unspecified failure"
		if len(blob) >= 4 {
			msgLen := binary.LittleEndian.Uint32(blob)
			blob = blob[4:]
			if uint32(len(blob)) >= msgLen {
				msg = string(blob[:msgLen])
			}
		}
		if status == statusMemoryLimit {
			return nil, mesh.NewMemoryLimitError(fmt.Errorf("%s", msg))
		}
		return nil, fmt.Errorf("foreign decode failed: %s", msg)
	}

	if len(blob) < 12 {
		return nil, fmt.Errorf("result header truncated at %d bytes", len(blob))
	}
	vertexCount := binary.LittleEndian.Uint32(blob)
	faceCount := binary.LittleEndian.Uint32(blob[4:])
	flags := binary.LittleEndian.Uint32(blob[8:])
	blob = blob[12:]

	posLen := int(vertexCount) * 3 * 8
	idxLen := int(faceCount) * 3 * 4
	want := posLen + idxLen
	if flags&flagHasNormals != 0 {
		want += int(vertexCount) * 3 * 4
	}
	if len(blob) < want {
		return nil, fmt.Errorf("result arrays truncated: have %d bytes, want %d", len(blob), want)
	}

	result := &ParseResult{
		VertexCount: int(vertexCount),
		FaceCount:   int(faceCount),
		Vertices:    make([]float64, vertexCount*3),
		Indices:     make([]uint32, faceCount*3),
	}
	for i := range result.Vertices {
		result.Vertices[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	blob = blob[posLen:]
	for i := range result.Indices {
		result.Indices[i] = binary.LittleEndian.Uint32(blob[i*4:])
	}
	blob = blob[idxLen:]

	if flags&flagHasNormals != 0 {
		result.Normals = make([]float32, vertexCount*3)
		for i := range result.Normals {
			result.Normals[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
		}
	}

	return result, nil
}

// encodeResultBlob builds a success blob. Used by in-memory test decoders;
// the production encoder lives in the foreign module.
func encodeResultBlob(result *ParseResult) []byte {
	flags := uint32(0)
	if result.Normals != nil {
		flags |= flagHasNormals
	}

	size := 4 + 12 + len(result.Vertices)*8 + len(result.Indices)*4 + len(result.Normals)*4
	blob := make([]byte, size)
	binary.LittleEndian.PutUint32(blob, statusOK)
	binary.LittleEndian.PutUint32(blob[4:], uint32(result.VertexCount))
	binary.LittleEndian.PutUint32(blob[8:], uint32(result.FaceCount))
	binary.LittleEndian.PutUint32(blob[12:], flags)

	off := 16
	for _, v := range result.Vertices {
		binary.LittleEndian.PutUint64(blob[off:], math.Float64bits(v))
		off += 8
	}
	for _, idx := range result.Indices {
		binary.LittleEndian.PutUint32(blob[off:], idx)
		off += 4
	}
	for _, n := range result.Normals {
		binary.LittleEndian.PutUint32(blob[off:], math.Float32bits(n))
		off += 4
	}
	return blob
}

// encodeErrorBlob builds a failure blob with the given status and message.
func encodeErrorBlob(status uint32, msg string) []byte {
	blob := make([]byte, 8+len(msg))
	binary.LittleEndian.PutUint32(blob, status)
	binary.LittleEndian.PutUint32(blob[4:], uint32(len(msg)))
	copy(blob[8:], msg)
	return blob
}
