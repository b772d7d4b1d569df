package bridge

import (
	"context"

	"github.com/meshview/meshview/pkg/mesh"
)

// ParseResult is the copied-out outcome of one foreign decode.
type ParseResult struct {
	// Vertices holds xyz position triples.
	Vertices []float64

	// Indices holds triangle corner indices, three per triangle.
	Indices []uint32

	// Normals holds optional per-vertex normals.
	Normals []float32

	// VertexCount is the decoder-reported vertex count.
	VertexCount int

	// FaceCount is the decoder-reported triangle count.
	FaceCount int
}

// Decoder is the foreign decoder boundary. Implementations own no shared
// memory with the caller across calls.
type Decoder interface {
	// ParseMesh decodes data as the given binary format variant. The
	// foreign-side result allocation is registered under generation and
	// stays alive until ReleaseBuffers is called with the same value.
	ParseMesh(ctx context.Context, data []byte, format mesh.Format, generation uint64) (*ParseResult, error)

	// ReleaseBuffers retires the foreign-side allocation registered under
	// generation. Unknown generations are a no-op.
	ReleaseBuffers(ctx context.Context, generation uint64) error

	// Close releases the decoder module itself.
	Close(ctx context.Context) error
}
