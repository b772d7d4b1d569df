// Package mesh defines the core value types of the meshview loading pipeline.
//
// # Overview
//
// A load turns raw mesh file bytes (STL, OBJ, PLY in ASCII and binary
// sub-variants) into a renderer-ready Asset:
//
//  1. Detect - classify raw bytes into a Format (pkg/mesh/detect)
//  2. Route - choose the in-process or foreign decoder family (pkg/mesh/detect)
//  3. Decode - produce vertex/index buffers (pkg/mesh/decode, pkg/mesh/bridge)
//  4. Validate - enforce size and complexity guards (pkg/mesh/loader)
//  5. Assemble - wrap buffers and derived stats into an Asset
//
// # Core Domain Types
//
//   - Format: closed enumeration of the six supported format variants
//   - Buffers: vertex positions, triangle indices and optional normals,
//     plus the generation handle and a one-shot Release operation
//   - Asset: one successfully loaded mesh; owns its Buffers exclusively
//   - Stats: derived vertex/triangle counts and bounding box, recomputed
//     whenever the owning asset changes and never mutated in place
//   - LoaderError: classified load failure with a machine-checkable code
//
// # Error Classification
//
// Load failures are returned as values, never panics, and carry one of a
// closed set of codes (ErrCodeEmptyFile, ErrCodeFileTooLarge, ...). Each
// code has a constructor and an inspection helper:
//
//	if mesh.IsTooManyTriangles(err) {
//	    // the mesh exceeded the configured triangle budget
//	}
//
// # Immutability
//
// Asset, Stats and LoaderError are value objects. A new load produces a new
// Asset; the superseded asset's Buffers must be released by its owner.
package mesh
