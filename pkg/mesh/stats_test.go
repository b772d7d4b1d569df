package mesh

import (
	"math"
	"testing"
)

func TestComputeStats(t *testing.T) {
	b := NewBuffers(
		[]float64{
			-5, -5, -5,
			5, -5, -5,
			5, 5, 5,
		},
		[]uint32{0, 1, 2},
		nil, 0, nil,
	)

	stats := ComputeStats(b)

	if stats.Vertices != 3 {
		t.Errorf("Expected 3 vertices, got %d", stats.Vertices)
	}
	if stats.Triangles != 1 {
		t.Errorf("Expected 1 triangle, got %d", stats.Triangles)
	}
	if stats.BBox.Min != [3]float64{-5, -5, -5} {
		t.Errorf("Unexpected bbox min: %v", stats.BBox.Min)
	}
	if stats.BBox.Max != [3]float64{5, 5, 5} {
		t.Errorf("Unexpected bbox max: %v", stats.BBox.Max)
	}

	want := math.Sqrt(300)
	if math.Abs(stats.DiagonalLength-want) > 1e-12 {
		t.Errorf("Expected diagonal %f, got %f", want, stats.DiagonalLength)
	}

	center := stats.BBox.Center()
	if center != [3]float64{0, 0, 0} {
		t.Errorf("Unexpected bbox center: %v", center)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(NewBuffers(nil, nil, nil, 0, nil))

	if stats.Vertices != 0 || stats.Triangles != 0 {
		t.Errorf("Expected zero counts, got %+v", stats)
	}
	if stats.DiagonalLength != 0 {
		t.Errorf("Expected zero diagonal, got %f", stats.DiagonalLength)
	}
}

func TestBuffersReleaseIdempotent(t *testing.T) {
	calls := 0
	b := NewBuffers([]float64{0, 0, 0}, nil, nil, 7, func() { calls++ })

	b.Release()
	b.Release()
	b.Release()

	if calls != 1 {
		t.Errorf("Expected release to run exactly once, ran %d times", calls)
	}
}

func TestBuffersReleaseNil(t *testing.T) {
	b := NewBuffers(nil, nil, nil, 0, nil)
	// In-process results have no foreign memory to retire.
	b.Release()
}
