package decode

import (
	"encoding/binary"
	"math"
	"testing"
)

// binarySTLFixture builds a binary STL buffer with the given triangles,
// each a [9]float32 of corner coordinates.
func binarySTLFixture(declared uint32, triangles [][9]float32) []byte {
	buf := make([]byte, 84+len(triangles)*50)
	binary.LittleEndian.PutUint32(buf[80:], declared)
	for i, tri := range triangles {
		record := buf[84+i*50:]
		for c, v := range tri {
			binary.LittleEndian.PutUint32(record[12+c*4:], math.Float32bits(v))
		}
	}
	return buf
}

func TestSTLBinary(t *testing.T) {
	data := binarySTLFixture(2, [][9]float32{
		{0, 0, 0, 1, 0, 0, 0, 1, 0},
		{0, 0, 1, 1, 0, 1, 0, 1, 1},
	})

	result, err := STLBinary(data, ModeFast)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.FaceCount != 2 {
		t.Errorf("Expected 2 faces, got %d", result.FaceCount)
	}
	if result.VertexCount != 6 {
		t.Errorf("Expected 6 vertices, got %d", result.VertexCount)
	}
	for i, idx := range result.Indices {
		if idx != uint32(i) {
			t.Fatalf("Index %d: expected implicit index %d, got %d", i, i, idx)
		}
	}
	// Second corner of the first triangle is (1, 0, 0).
	if result.Vertices[3] != 1 || result.Vertices[4] != 0 || result.Vertices[5] != 0 {
		t.Errorf("Unexpected corner: (%f, %f, %f)",
			result.Vertices[3], result.Vertices[4], result.Vertices[5])
	}
}

func TestSTLBinaryTruncatedHeader(t *testing.T) {
	if _, err := STLBinary(make([]byte, 40), ModeFast); err == nil {
		t.Error("Expected an error for a truncated header")
	}
}

func TestSTLBinaryOverdeclaredCount(t *testing.T) {
	data := binarySTLFixture(5, [][9]float32{
		{0, 0, 0, 1, 0, 0, 0, 1, 0},
		{0, 0, 1, 1, 0, 1, 0, 1, 1},
	})

	if _, err := STLBinary(data, ModeFast); err == nil {
		t.Error("Expected a fast-mode error when the declared count exceeds the data")
	}

	result, err := STLBinary(data, ModeExact)
	if err != nil {
		t.Fatalf("Expected exact mode to salvage the file, got: %v", err)
	}
	if result.FaceCount != 2 {
		t.Errorf("Expected 2 salvaged faces, got %d", result.FaceCount)
	}
}

func TestSTLBinaryEmpty(t *testing.T) {
	result, err := STLBinary(binarySTLFixture(0, nil), ModeFast)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.FaceCount != 0 || result.VertexCount != 0 {
		t.Errorf("Expected an empty result, got %d faces, %d vertices", result.FaceCount, result.VertexCount)
	}
}
