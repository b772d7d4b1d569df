// Package bridge adapts the foreign decoder module that handles the
// binary mesh formats (binary STL, binary PLY in either endianness).
//
// # Call Convention
//
// The foreign module is a native-compiled WASM module with its own heap.
// It shares no memory with the caller across calls: every ParseMesh copies
// the input bytes into the module's linear memory, invokes the parse entry
// point by pointer and length, copies all result arrays back out
// immediately, and frees the input buffer. No pointer into foreign memory
// is retained past the call.
//
// The module must export:
//
//	malloc(size: u64) -> u32
//	free(ptr: u64)
//	parse_mesh(ptr: u32, len: u32, format: u32, generation: u64) -> u64
//	release_buffers(generation: u64)
//
// parse_mesh returns (result_ptr << 32) | result_len pointing at a result
// blob encoded per codec.go. The module registers the blob's backing
// allocation under the caller-supplied generation; release_buffers retires
// it. The host side mirrors this with a Registry entry per successful
// decode, so the owner releases both sides with one call.
//
// # Generations
//
// Generations are opaque, process-unique, monotonically increasing
// integers allocated by the Registry. A generation is never reused, and
// releasing an unknown or already-released generation is a harmless no-op.
package bridge
