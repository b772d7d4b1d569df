package decode

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	binarySTLHeaderLen = 84
	binarySTLRecordLen = 50
)

// STLBinary decodes a binary STL buffer on the host side. The foreign
// decoder normally owns this format; this decoder is the exact-tier
// fallback when the foreign attempt fails structurally.
//
// Each 50-byte record holds a facet normal, three float32 vertices, and
// an attribute word, all little-endian. Vertices are not deduplicated;
// triangle k uses the implicit indices 3k, 3k+1, 3k+2.
func STLBinary(data []byte, mode Mode) (*Result, error) {
	if len(data) < binarySTLHeaderLen {
		return nil, fmt.Errorf("binary stl: header truncated at %d bytes", len(data))
	}

	declared := binary.LittleEndian.Uint32(data[80:])
	available := (len(data) - binarySTLHeaderLen) / binarySTLRecordLen

	count := int(declared)
	if count > available {
		if mode == ModeFast {
			return nil, fmt.Errorf("binary stl: header declares %d triangles but only %d fit in %d bytes",
				declared, available, len(data))
		}
		count = available
	}

	result := &Result{
		Vertices: make([]float64, 0, count*9),
		Indices:  make([]uint32, 0, count*3),
	}

	for i := 0; i < count; i++ {
		// Skip the 12-byte facet normal; stats and shading recompute
		// normals from positions.
		record := data[binarySTLHeaderLen+i*binarySTLRecordLen:]
		for corner := 0; corner < 3; corner++ {
			base := 12 + corner*12
			for axis := 0; axis < 3; axis++ {
				bits := binary.LittleEndian.Uint32(record[base+axis*4:])
				result.Vertices = append(result.Vertices, float64(math.Float32frombits(bits)))
			}
			result.Indices = append(result.Indices, uint32(i*3+corner))
		}
	}

	result.VertexCount = count * 3
	result.FaceCount = count
	return result, nil
}
