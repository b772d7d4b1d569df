package bridge

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/meshview/meshview/pkg/mesh"
)

// WASMConfig configures the WASM decoder host.
type WASMConfig struct {
	// MemoryLimitPages caps the module's linear memory in 64KB pages.
	// Default is 16384 pages (1GB), sized for meshes up to the configured
	// file limit plus decoded buffers.
	MemoryLimitPages uint32
}

// WASMDecoder runs the foreign decoder as a WASM module in a wazero
// runtime. All calls are copy-in/copy-out against the module's linear
// memory.
type WASMDecoder struct {
	runtime wazero.Runtime
	module  api.Module
	memory  api.Memory

	malloc         api.Function
	free           api.Function
	parseMesh      api.Function
	releaseBuffers api.Function
}

// NewWASMDecoder instantiates the decoder module from its compiled bytes.
func NewWASMDecoder(ctx context.Context, wasmModule []byte, cfg *WASMConfig) (*WASMDecoder, error) {
	if cfg == nil {
		cfg = &WASMConfig{}
	}
	if cfg.MemoryLimitPages == 0 {
		cfg.MemoryLimitPages = 16384
	}

	runtimeConfig := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(cfg.MemoryLimitPages).
		WithCloseOnContextDone(true)

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeConfig)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	module, err := runtime.Instantiate(ctx, wasmModule)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate decoder module: %w", err)
	}

	d := &WASMDecoder{
		runtime: runtime,
		module:  module,
	}

	d.memory = module.Memory()
	if d.memory == nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("decoder module does not export memory")
	}

	for _, export := range []struct {
		name string
		fn   *api.Function
	}{
		{"malloc", &d.malloc},
		{"free", &d.free},
		{"parse_mesh", &d.parseMesh},
		{"release_buffers", &d.releaseBuffers},
	} {
		*export.fn = module.ExportedFunction(export.name)
		if *export.fn == nil {
			runtime.Close(ctx)
			return nil, fmt.Errorf("decoder module does not export %s", export.name)
		}
	}

	return d, nil
}

// LoadWASMDecoder reads a compiled decoder module from disk and
// instantiates it.
func LoadWASMDecoder(ctx context.Context, path string, cfg *WASMConfig) (*WASMDecoder, error) {
	wasmModule, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read decoder module %q: %w", path, err)
	}
	return NewWASMDecoder(ctx, wasmModule, cfg)
}

// ParseMesh copies data into the module's heap, invokes the parse entry
// point, copies the result arrays back out and frees the input buffer.
func (d *WASMDecoder) ParseMesh(ctx context.Context, data []byte, format mesh.Format, generation uint64) (*ParseResult, error) {
	code, err := formatCode(format)
	if err != nil {
		return nil, err
	}

	inputPtr, err := d.allocate(ctx, uint32(len(data)))
	if err != nil {
		return nil, err
	}
	defer d.deallocate(ctx, inputPtr)

	if !d.memory.Write(inputPtr, data) {
		return nil, fmt.Errorf("failed to write input to decoder memory")
	}

	results, err := d.parseMesh.Call(ctx,
		uint64(inputPtr), uint64(len(data)), uint64(code), generation)
	if err != nil {
		return nil, fmt.Errorf("parse_mesh call failed: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("parse_mesh returned no results")
	}

	packed := results[0]
	resultPtr := uint32(packed >> 32)
	resultLen := uint32(packed & 0xFFFFFFFF)
	if resultLen == 0 {
		return nil, fmt.Errorf("parse_mesh returned an empty result")
	}

	// The blob's backing memory stays registered under the generation on
	// the foreign side; the copy below is the only one the host makes.
	blob, ok := d.memory.Read(resultPtr, resultLen)
	if !ok {
		return nil, fmt.Errorf("failed to read result from decoder memory")
	}

	return decodeResultBlob(blob)
}

// ReleaseBuffers retires the foreign-side allocation for a generation.
func (d *WASMDecoder) ReleaseBuffers(ctx context.Context, generation uint64) error {
	if _, err := d.releaseBuffers.Call(ctx, generation); err != nil {
		return fmt.Errorf("release_buffers call failed: %w", err)
	}
	return nil
}

// Close tears down the module and its runtime.
func (d *WASMDecoder) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return d.runtime.Close(ctx)
}

// allocate reserves size bytes in the module's heap.
func (d *WASMDecoder) allocate(ctx context.Context, size uint32) (uint32, error) {
	results, err := d.malloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, fmt.Errorf("malloc failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("malloc returned no results")
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return 0, mesh.NewMemoryLimitError(fmt.Errorf("malloc(%d) returned null", size))
	}
	return ptr, nil
}

// deallocate frees a pointer in the module's heap.
func (d *WASMDecoder) deallocate(ctx context.Context, ptr uint32) {
	// Best effort: the input copy was already consumed.
	_, _ = d.free.Call(ctx, uint64(ptr))
}
