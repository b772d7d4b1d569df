package mesh

import (
	"sync"
	"time"
)

// Buffers holds the renderer-ready geometry of one decoded mesh.
//
// Invariants: len(Indices) is a multiple of 3, and every index is smaller
// than len(VertexPositions)/3. Normals is optional and, when present, holds
// one float32 triple per vertex.
type Buffers struct {
	// VertexPositions holds xyz triples, one per vertex.
	VertexPositions []float64

	// Indices holds triangle corner indices into VertexPositions/3.
	Indices []uint32

	// Normals holds optional per-vertex normal triples. Nil when the
	// decoder did not produce normals.
	Normals []float32

	// Generation identifies the foreign-module buffer set backing this
	// result. Zero for in-process decodes, which are not generation
	// tracked.
	Generation uint64

	releaseOnce sync.Once
	release     func()
}

// NewBuffers wraps decoded geometry together with its release operation.
// The release function may be nil for in-process results whose memory is
// reclaimed by the runtime.
func NewBuffers(positions []float64, indices []uint32, normals []float32, generation uint64, release func()) *Buffers {
	return &Buffers{
		VertexPositions: positions,
		Indices:         indices,
		Normals:         normals,
		Generation:      generation,
		release:         release,
	}
}

// VertexCount returns the number of vertices.
func (b *Buffers) VertexCount() int {
	return len(b.VertexPositions) / 3
}

// TriangleCount returns the number of triangles.
func (b *Buffers) TriangleCount() int {
	return len(b.Indices) / 3
}

// Release retires the foreign-module buffer set backing this result. It is
// idempotent: the owner must call it exactly once before discarding the
// asset, but further calls are harmless no-ops. Dereferencing the buffers
// after Release is a caller error.
func (b *Buffers) Release() {
	b.releaseOnce.Do(func() {
		if b.release != nil {
			b.release()
		}
	})
}

// Asset is one successfully loaded mesh. An asset owns its Buffers
// exclusively; its lifetime ends when the owner calls Buffers.Release,
// either because a new load superseded it or the viewing session ended.
type Asset struct {
	// ID uniquely identifies this load.
	ID string

	// FileName is the name the file was loaded under.
	FileName string

	// FileSizeBytes is the on-disk size of the source file.
	FileSizeBytes int64

	// Format is the detected on-disk format variant.
	Format Format

	// LoadedAt is when the load completed.
	LoadedAt time.Time

	// LoadDuration is how long the load took end to end.
	LoadDuration time.Duration

	// Buffers is the decoded geometry.
	Buffers *Buffers

	// Stats holds counts and bounds derived from Buffers.
	Stats *Stats
}

// Release releases the asset's buffers. Safe to call more than once.
func (a *Asset) Release() {
	if a.Buffers != nil {
		a.Buffers.Release()
	}
}
