package decode

import (
	"fmt"
	"strings"
	"testing"
)

// cubeSTL builds a minimal ASCII cube: 12 triangles, 36 vertex lines with
// full duplication.
func cubeSTL() []byte {
	var b strings.Builder
	b.WriteString("solid cube\n")
	quads := [][4][3]float64{
		{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
		{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
		{{0, 1, 0}, {1, 1, 0}, {1, 1, 1}, {0, 1, 1}},
		{{0, 0, 0}, {0, 1, 0}, {0, 1, 1}, {0, 0, 1}},
		{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
	}
	writeTri := func(a, c, d [3]float64) {
		b.WriteString("  facet normal 0 0 0\n    outer loop\n")
		for _, v := range [][3]float64{a, c, d} {
			fmt.Fprintf(&b, "      vertex %g %g %g\n", v[0], v[1], v[2])
		}
		b.WriteString("    endloop\n  endfacet\n")
	}
	for _, q := range quads {
		writeTri(q[0], q[1], q[2])
		writeTri(q[0], q[2], q[3])
	}
	b.WriteString("endsolid cube\n")
	return []byte(b.String())
}

func TestSTLASCIICube(t *testing.T) {
	result, err := STLASCII(cubeSTL(), ModeFast)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.VertexCount != 36 {
		t.Errorf("Expected 36 vertices, got %d", result.VertexCount)
	}
	if result.FaceCount != 12 {
		t.Errorf("Expected 12 faces, got %d", result.FaceCount)
	}
	if len(result.Indices) != 36 {
		t.Errorf("Expected 36 indices, got %d", len(result.Indices))
	}
	for i, idx := range result.Indices {
		if idx != uint32(i) {
			t.Fatalf("Expected implicit index %d at position %d, got %d", i, i, idx)
		}
	}
}

func TestSTLASCIIMalformedToken(t *testing.T) {
	data := []byte("solid s\nfacet\nouter loop\nvertex 0 0 zero\nvertex 0 1 0\nvertex 1 0 0\nendloop\nendfacet\nendsolid s\n")

	if _, err := STLASCII(data, ModeFast); err == nil {
		t.Fatal("Expected fast decode to fail on a malformed numeric token")
	}

	// Exact mode repairs by dropping the damaged facet.
	result, err := STLASCII(data, ModeExact)
	if err != nil {
		t.Fatalf("Expected exact decode to tolerate the token, got: %v", err)
	}
	if result.FaceCount != 0 {
		t.Errorf("Expected the damaged facet to be dropped, got %d faces", result.FaceCount)
	}
}

func TestSTLASCIIUnclosedFacet(t *testing.T) {
	data := []byte("solid s\nvertex 0 0 0\nvertex 0 1 0\n")

	if _, err := STLASCII(data, ModeFast); err == nil {
		t.Fatal("Expected fast decode to fail on an unclosed facet")
	}

	result, err := STLASCII(data, ModeExact)
	if err != nil {
		t.Fatalf("Expected exact decode to succeed, got: %v", err)
	}
	if result.VertexCount != 0 {
		t.Errorf("Expected partial corners to be discarded, got %d vertices", result.VertexCount)
	}
}

const plyQuad = `ply
format ascii 1.0
comment one quad
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
1 1 0
0 1 0
4 0 1 2 3
`

func TestPLYASCIIFanTriangulation(t *testing.T) {
	result, err := PLYASCII([]byte(plyQuad), ModeFast)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.VertexCount != 4 {
		t.Errorf("Expected 4 vertices, got %d", result.VertexCount)
	}
	if result.FaceCount != 1 {
		t.Errorf("Expected 1 face, got %d", result.FaceCount)
	}

	want := []uint32{0, 1, 2, 0, 2, 3}
	if len(result.Indices) != len(want) {
		t.Fatalf("Expected %d indices, got %d", len(want), len(result.Indices))
	}
	for i, idx := range want {
		if result.Indices[i] != idx {
			t.Errorf("Index %d: expected %d, got %d", i, idx, result.Indices[i])
		}
	}
}

func TestPLYASCIIOutOfRangeIndex(t *testing.T) {
	data := strings.Replace(plyQuad, "4 0 1 2 3", "3 0 1 9", 1)

	if _, err := PLYASCII([]byte(data), ModeFast); err == nil {
		t.Fatal("Expected fast decode to reject an out-of-range corner index")
	}

	result, err := PLYASCII([]byte(data), ModeExact)
	if err != nil {
		t.Fatalf("Expected exact decode to succeed, got: %v", err)
	}
	if result.FaceCount != 0 {
		t.Errorf("Expected the bad face to be skipped, got %d faces", result.FaceCount)
	}
}

func TestPLYASCIITruncated(t *testing.T) {
	// Header promises 4 vertices; input stops after 2.
	truncated := `ply
format ascii 1.0
element vertex 4
element face 0
end_header
0 0 0
1 0 0
`
	if _, err := PLYASCII([]byte(truncated), ModeFast); err == nil {
		t.Fatal("Expected fast decode to fail on a truncated vertex block")
	}

	result, err := PLYASCII([]byte(truncated), ModeExact)
	if err != nil {
		t.Fatalf("Expected exact decode to succeed, got: %v", err)
	}
	if result.VertexCount != 2 {
		t.Errorf("Expected 2 salvaged vertices, got %d", result.VertexCount)
	}
}

func TestOBJQuadFan(t *testing.T) {
	data := []byte("# quad\nv 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n")

	result, err := OBJ(data, ModeFast)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := []uint32{0, 1, 2, 0, 2, 3}
	if len(result.Indices) != len(want) {
		t.Fatalf("Expected %d indices, got %d", len(want), len(result.Indices))
	}
	for i, idx := range want {
		if result.Indices[i] != idx {
			t.Errorf("Index %d: expected %d, got %d", i, idx, result.Indices[i])
		}
	}
	if result.FaceCount != 1 {
		t.Errorf("Expected 1 face, got %d", result.FaceCount)
	}
}

func TestOBJNegativeIndices(t *testing.T) {
	// Relative indices resolve against the pool size at the f line.
	data := []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n")

	result, err := OBJ(data, ModeFast)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := []uint32{0, 1, 2}
	for i, idx := range want {
		if result.Indices[i] != idx {
			t.Errorf("Index %d: expected %d, got %d", i, idx, result.Indices[i])
		}
	}
}

func TestOBJSlashSuffixes(t *testing.T) {
	data := []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvn 0 0 1\nf 1/1/1 2/1/1 3/1/1\n")

	result, err := OBJ(data, ModeFast)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Indices) != 3 {
		t.Errorf("Expected 3 indices, got %d", len(result.Indices))
	}
}

func TestOBJMalformedFace(t *testing.T) {
	data := []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 x\n")

	if _, err := OBJ(data, ModeFast); err == nil {
		t.Fatal("Expected fast decode to fail on a malformed face token")
	}

	result, err := OBJ(data, ModeExact)
	if err != nil {
		t.Fatalf("Expected exact decode to succeed, got: %v", err)
	}
	if result.FaceCount != 0 {
		t.Errorf("Expected the bad face to be skipped, got %d faces", result.FaceCount)
	}
}

func TestOBJZeroIndexRejected(t *testing.T) {
	data := []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n")

	if _, err := OBJ(data, ModeFast); err == nil {
		t.Fatal("Expected fast decode to reject a 0 face index")
	}
}
