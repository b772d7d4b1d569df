package loader

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/meshview/meshview/pkg/mesh"
	"github.com/meshview/meshview/pkg/mesh/bridge"
	"github.com/meshview/meshview/pkg/telemetry"
)

// quietTelemetry builds a telemetry stack that keeps test output clean:
// fatal-only logging, no tracing, no metrics listener.
func quietTelemetry(t *testing.T) *telemetry.Telemetry {
	t.Helper()
	cfg := telemetry.DefaultConfig()
	cfg.Logging.Level = "fatal"
	cfg.Logging.Format = "json"
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("Failed to build telemetry: %v", err)
	}
	return tel
}

func newTestLoader(t *testing.T, cfg *Config, decoder bridge.Decoder) *Loader {
	t.Helper()
	l, err := New(cfg, quietTelemetry(t), decoder, nil)
	if err != nil {
		t.Fatalf("Failed to build loader: %v", err)
	}
	return l
}

// fakeDecoder is an in-memory bridge.Decoder for orchestrator tests.
type fakeDecoder struct {
	result   *bridge.ParseResult
	parseErr error
	delay    time.Duration

	parseCalls int
	released   []uint64
}

func (d *fakeDecoder) ParseMesh(ctx context.Context, data []byte, format mesh.Format, generation uint64) (*bridge.ParseResult, error) {
	d.parseCalls++
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if d.parseErr != nil {
		return nil, d.parseErr
	}
	return d.result, nil
}

func (d *fakeDecoder) ReleaseBuffers(ctx context.Context, generation uint64) error {
	d.released = append(d.released, generation)
	return nil
}

func (d *fakeDecoder) Close(ctx context.Context) error { return nil }

// asciiSTL builds a well-formed single-triangle ASCII STL file.
func asciiSTL() []byte {
	return []byte(`solid test
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 1 0
  endloop
endfacet
endsolid test
`)
}

// damagedSTL has one good facet and one with a malformed coordinate. The
// fast tier rejects it; the exact tier salvages the good facet.
func damagedSTL() []byte {
	return []byte(`solid test
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 1 0
  endloop
endfacet
facet normal 0 0 1
  outer loop
    vertex 0 0 1
    vertex 1 0 oops
    vertex 0 1 1
  endloop
endfacet
endsolid test
`)
}

// binarySTL builds a binary STL buffer with count unit triangles.
func binarySTL(count int) []byte {
	buf := make([]byte, 84+count*50)
	binary.LittleEndian.PutUint32(buf[80:], uint32(count))
	coords := [9]float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	for i := 0; i < count; i++ {
		record := buf[84+i*50:]
		for c, v := range coords {
			binary.LittleEndian.PutUint32(record[12+c*4:], math.Float32bits(v))
		}
	}
	return buf
}

func TestLoadASCIISTL(t *testing.T) {
	l := newTestLoader(t, nil, nil)
	defer l.Close(context.Background())

	asset, err := l.LoadData(context.Background(), "cube.stl", "", asciiSTL())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if asset.Format != mesh.FormatStlASCII {
		t.Errorf("Expected format %s, got %s", mesh.FormatStlASCII, asset.Format)
	}
	if asset.Stats.Triangles != 1 {
		t.Errorf("Expected 1 triangle, got %d", asset.Stats.Triangles)
	}
	if asset.ID == "" {
		t.Error("Expected a generated asset ID")
	}
	if l.State() != StateSuccess {
		t.Errorf("Expected state %s, got %s", StateSuccess, l.State())
	}
	if l.Current() != asset {
		t.Error("Expected the asset to be current")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	l := newTestLoader(t, nil, nil)

	_, err := l.LoadData(context.Background(), "empty.stl", "", nil)
	if !mesh.IsEmptyFile(err) {
		t.Errorf("Expected an EmptyFile error, got: %v", err)
	}
}

func TestLoadFileTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFileBytes = 16
	l := newTestLoader(t, cfg, nil)

	_, err := l.LoadData(context.Background(), "big.stl", "", asciiSTL())
	if !mesh.IsFileTooLarge(err) {
		t.Errorf("Expected a FileTooLarge error, got: %v", err)
	}
}

func TestLoadUnknownFormat(t *testing.T) {
	l := newTestLoader(t, nil, nil)

	_, err := l.LoadData(context.Background(), "mystery.bin", "", []byte("not a mesh"))
	if !mesh.IsUnsupportedFormat(err) {
		t.Errorf("Expected an UnsupportedFormat error, got: %v", err)
	}
}

func TestFallbackRecoversDamagedFile(t *testing.T) {
	l := newTestLoader(t, nil, nil)
	defer l.Close(context.Background())

	fallbacks := 0
	unsubscribe := l.tel.Events.Subscribe(func(e telemetry.Event) {
		if e.Type == telemetry.EventTypeFallbackStarted {
			fallbacks++
		}
	})
	defer unsubscribe()

	asset, err := l.LoadData(context.Background(), "damaged.stl", "", damagedSTL())
	if err != nil {
		t.Fatalf("Expected the exact tier to recover the file, got: %v", err)
	}

	if asset.Stats.Triangles != 1 {
		t.Errorf("Expected 1 salvaged triangle, got %d", asset.Stats.Triangles)
	}
	if fallbacks != 1 {
		t.Errorf("Expected exactly 1 fallback, got %d", fallbacks)
	}
	if l.State() != StateSuccess {
		t.Errorf("Expected state %s, got %s", StateSuccess, l.State())
	}
}

func TestFallbackDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableFallback = false
	l := newTestLoader(t, cfg, nil)

	_, err := l.LoadData(context.Background(), "damaged.stl", "", damagedSTL())
	if !mesh.IsParseFailed(err) {
		t.Fatalf("Expected a ParseFailed error, got: %v", err)
	}

	var lerr *mesh.LoaderError
	if !errors.As(err, &lerr) {
		t.Fatalf("Expected a LoaderError, got: %v", err)
	}
	parseCtx, ok := lerr.Context.(mesh.ParseContext)
	if !ok {
		t.Fatalf("Expected a ParseContext, got %T", lerr.Context)
	}
	if len(parseCtx.Attempts) != 1 {
		t.Errorf("Expected 1 recorded attempt, got %d", len(parseCtx.Attempts))
	}
}

func TestBothTiersFail(t *testing.T) {
	l := newTestLoader(t, nil, nil)

	// Recognizable OBJ prefix, but no face ever resolves.
	data := []byte("v 0 0 0\nf 9 9 9\n")
	_, err := l.LoadData(context.Background(), "broken.obj", "", data)
	if !mesh.IsParseFailed(err) {
		t.Fatalf("Expected a ParseFailed error, got: %v", err)
	}

	var lerr *mesh.LoaderError
	if !errors.As(err, &lerr) {
		t.Fatalf("Expected a LoaderError, got: %v", err)
	}
	parseCtx := lerr.Context.(mesh.ParseContext)
	if len(parseCtx.Attempts) != 2 {
		t.Errorf("Expected 2 recorded attempts, got %d", len(parseCtx.Attempts))
	}
	if l.State() != StateExactFailed {
		t.Errorf("Expected state %s, got %s", StateExactFailed, l.State())
	}
}

func TestForeignDecodeRegistersGeneration(t *testing.T) {
	decoder := &fakeDecoder{
		result: &bridge.ParseResult{
			Vertices:    []float64{0, 0, 0, 1, 0, 0, 0, 1, 0},
			Indices:     []uint32{0, 1, 2},
			VertexCount: 3,
			FaceCount:   1,
		},
	}
	l := newTestLoader(t, nil, decoder)

	asset, err := l.LoadData(context.Background(), "model.stl", "", binarySTL(1))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if asset.Format != mesh.FormatStlBinary {
		t.Errorf("Expected format %s, got %s", mesh.FormatStlBinary, asset.Format)
	}
	if asset.Buffers.Generation == 0 {
		t.Error("Expected a nonzero generation for a foreign decode")
	}
	if l.Registry().Active() != 1 {
		t.Errorf("Expected 1 live generation, got %d", l.Registry().Active())
	}

	asset.Release()
	asset.Release() // idempotent

	if len(decoder.released) != 1 {
		t.Fatalf("Expected 1 foreign release, got %d", len(decoder.released))
	}
	if decoder.released[0] != asset.Buffers.Generation {
		t.Errorf("Released generation %d, expected %d", decoder.released[0], asset.Buffers.Generation)
	}
	if l.Registry().Active() != 0 {
		t.Errorf("Expected no live generations, got %d", l.Registry().Active())
	}
}

func TestForeignFailureFallsBackToHostDecoder(t *testing.T) {
	decoder := &fakeDecoder{parseErr: fmt.Errorf("decoder trap")}
	l := newTestLoader(t, nil, decoder)
	defer l.Close(context.Background())

	asset, err := l.LoadData(context.Background(), "model.stl", "", binarySTL(2))
	if err != nil {
		t.Fatalf("Expected the host decoder to recover, got: %v", err)
	}

	if decoder.parseCalls != 1 {
		t.Errorf("Expected 1 foreign attempt, got %d", decoder.parseCalls)
	}
	if asset.Stats.Triangles != 2 {
		t.Errorf("Expected 2 triangles, got %d", asset.Stats.Triangles)
	}
	if asset.Buffers.Generation != 0 {
		t.Errorf("Expected an in-process result, got generation %d", asset.Buffers.Generation)
	}
}

func TestTooManyTrianglesReleasesForeignBuffers(t *testing.T) {
	decoder := &fakeDecoder{
		result: &bridge.ParseResult{
			Vertices:    []float64{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 1, 0, 1, 0, 1, 1},
			Indices:     []uint32{0, 1, 2, 3, 4, 5},
			VertexCount: 6,
			FaceCount:   2,
		},
	}
	cfg := DefaultConfig()
	cfg.MaxTriangleCount = 1
	l := newTestLoader(t, cfg, decoder)

	_, err := l.LoadData(context.Background(), "model.stl", "", binarySTL(2))
	if !mesh.IsTooManyTriangles(err) {
		t.Fatalf("Expected a TooManyTriangles error, got: %v", err)
	}

	if len(decoder.released) != 1 {
		t.Errorf("Expected the rejected buffers to be released, got %d releases", len(decoder.released))
	}
	if l.Registry().Active() != 0 {
		t.Errorf("Expected no live generations, got %d", l.Registry().Active())
	}
}

func TestSupersededAssetReleased(t *testing.T) {
	decoder := &fakeDecoder{
		result: &bridge.ParseResult{
			Vertices:    []float64{0, 0, 0, 1, 0, 0, 0, 1, 0},
			Indices:     []uint32{0, 1, 2},
			VertexCount: 3,
			FaceCount:   1,
		},
	}
	l := newTestLoader(t, nil, decoder)
	defer l.Close(context.Background())

	first, err := l.LoadData(context.Background(), "a.stl", "", binarySTL(1))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	second, err := l.LoadData(context.Background(), "b.stl", "", binarySTL(1))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(decoder.released) != 1 || decoder.released[0] != first.Buffers.Generation {
		t.Errorf("Expected the superseded generation %d released, got %v",
			first.Buffers.Generation, decoder.released)
	}
	if l.Current() != second {
		t.Error("Expected the second asset to be current")
	}
}

func TestWatchdogEmitsWarning(t *testing.T) {
	decoder := &fakeDecoder{
		delay: 50 * time.Millisecond,
		result: &bridge.ParseResult{
			Vertices:    []float64{0, 0, 0, 1, 0, 0, 0, 1, 0},
			Indices:     []uint32{0, 1, 2},
			VertexCount: 3,
			FaceCount:   1,
		},
	}
	cfg := DefaultConfig()
	cfg.WatchdogTimeout = 5 * time.Millisecond
	l := newTestLoader(t, cfg, decoder)
	defer l.Close(context.Background())

	expiries := 0
	unsubscribe := l.tel.Events.Subscribe(func(e telemetry.Event) {
		if e.Type == telemetry.EventTypeWatchdogExpired {
			expiries++
		}
	})
	defer unsubscribe()

	// The watchdog is diagnostic only: the slow call still completes.
	asset, err := l.LoadData(context.Background(), "slow.stl", "", binarySTL(1))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if asset.Stats.Triangles != 1 {
		t.Errorf("Expected 1 triangle, got %d", asset.Stats.Triangles)
	}
	if expiries != 1 {
		t.Errorf("Expected 1 watchdog expiry, got %d", expiries)
	}
}

func TestStateTransitionsPublished(t *testing.T) {
	l := newTestLoader(t, nil, nil)
	defer l.Close(context.Background())

	var states []string
	unsubscribe := l.tel.Events.Subscribe(func(e telemetry.Event) {
		if e.Type == EventTypeStateChanged {
			states = append(states, e.Context["to"].(string))
		}
	})
	defer unsubscribe()

	if _, err := l.LoadData(context.Background(), "cube.stl", "", asciiSTL()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := []string{string(StateFastAttempt), string(StateSuccess)}
	if len(states) != len(want) {
		t.Fatalf("Expected transitions %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("Transition %d: expected %s, got %s", i, want[i], states[i])
		}
	}
}
