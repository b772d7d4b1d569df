package bridge

import (
	"testing"

	"github.com/meshview/meshview/pkg/mesh"
)

func TestResultBlobRoundTrip(t *testing.T) {
	in := &ParseResult{
		Vertices:    []float64{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:     []uint32{0, 1, 2},
		Normals:     []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		VertexCount: 3,
		FaceCount:   1,
	}

	out, err := decodeResultBlob(encodeResultBlob(in))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if out.VertexCount != 3 || out.FaceCount != 1 {
		t.Errorf("Unexpected counts: %d vertices, %d faces", out.VertexCount, out.FaceCount)
	}
	for i, v := range in.Vertices {
		if out.Vertices[i] != v {
			t.Fatalf("Vertex %d: expected %f, got %f", i, v, out.Vertices[i])
		}
	}
	for i, idx := range in.Indices {
		if out.Indices[i] != idx {
			t.Fatalf("Index %d: expected %d, got %d", i, idx, out.Indices[i])
		}
	}
	if len(out.Normals) != len(in.Normals) {
		t.Errorf("Expected %d normals, got %d", len(in.Normals), len(out.Normals))
	}
}

func TestResultBlobNoNormals(t *testing.T) {
	in := &ParseResult{
		Vertices:    []float64{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:     []uint32{0, 1, 2},
		VertexCount: 3,
		FaceCount:   1,
	}

	out, err := decodeResultBlob(encodeResultBlob(in))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if out.Normals != nil {
		t.Errorf("Expected no normals, got %d", len(out.Normals))
	}
}

func TestResultBlobParseFailure(t *testing.T) {
	_, err := decodeResultBlob(encodeErrorBlob(statusParseFailed, "bad header"))
	if err == nil {
		t.Fatal("Expected an error for a failure blob")
	}
	if mesh.IsMemoryLimit(err) {
		t.Error("Parse failure must not map to MemoryLimit")
	}
}

func TestResultBlobMemoryLimit(t *testing.T) {
	_, err := decodeResultBlob(encodeErrorBlob(statusMemoryLimit, "heap exhausted"))
	if err == nil {
		t.Fatal("Expected an error for a memory-limit blob")
	}
	if !mesh.IsMemoryLimit(err) {
		t.Errorf("Expected a MemoryLimit error, got: %v", err)
	}
}

func TestResultBlobTruncated(t *testing.T) {
	blob := encodeResultBlob(&ParseResult{
		Vertices:    []float64{0, 0, 0},
		Indices:     []uint32{0, 0, 0},
		VertexCount: 1,
		FaceCount:   1,
	})

	for _, cut := range []int{0, 2, 10, len(blob) - 1} {
		if _, err := decodeResultBlob(blob[:cut]); err == nil {
			t.Errorf("Expected an error for a blob truncated to %d bytes", cut)
		}
	}
}

func TestFormatCode(t *testing.T) {
	for _, f := range []mesh.Format{mesh.FormatStlBinary, mesh.FormatPlyBinaryLE, mesh.FormatPlyBinaryBE} {
		if _, err := formatCode(f); err != nil {
			t.Errorf("%s: expected a wire code, got error: %v", f, err)
		}
	}
	for _, f := range []mesh.Format{mesh.FormatStlASCII, mesh.FormatPlyASCII, mesh.FormatObj, mesh.FormatUnknown} {
		if _, err := formatCode(f); err == nil {
			t.Errorf("%s: expected an error for a non-foreign variant", f)
		}
	}
}
