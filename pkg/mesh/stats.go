package mesh

import "math"

// Stats holds derived mesh statistics. Stats are recomputed whenever the
// owning asset's identity changes and are never mutated in place.
type Stats struct {
	// Vertices is the number of vertices in the buffers.
	Vertices int `json:"vertices"`

	// Triangles is the number of triangles in the buffers.
	Triangles int `json:"triangles"`

	// BBox is the axis-aligned bounding box of the vertex positions.
	BBox BBox `json:"bbox"`

	// DiagonalLength is the length of the bounding box diagonal.
	DiagonalLength float64 `json:"diagonal_length"`
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// Center returns the midpoint of the box.
func (b BBox) Center() [3]float64 {
	return [3]float64{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Diagonal returns the length of the box diagonal.
func (b BBox) Diagonal() float64 {
	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]
	dz := b.Max[2] - b.Min[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// ComputeStats derives statistics from decoded buffers. The triangle count
// here, not the decoder's reported face count, is what the post-decode
// complexity guard checks.
func ComputeStats(b *Buffers) *Stats {
	stats := &Stats{
		Vertices:  b.VertexCount(),
		Triangles: b.TriangleCount(),
	}

	if stats.Vertices == 0 {
		return stats
	}

	bbox := BBox{
		Min: [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
	for i := 0; i+2 < len(b.VertexPositions); i += 3 {
		for axis := 0; axis < 3; axis++ {
			v := b.VertexPositions[i+axis]
			if v < bbox.Min[axis] {
				bbox.Min[axis] = v
			}
			if v > bbox.Max[axis] {
				bbox.Max[axis] = v
			}
		}
	}

	stats.BBox = bbox
	stats.DiagonalLength = bbox.Diagonal()
	return stats
}
