// Package loader orchestrates the full mesh loading pipeline: fetch,
// validation, format detection, decoder routing, the two-tier decode
// fallback, and asset assembly.
//
// # Overview
//
// A Loader is an explicit context object holding its configuration,
// telemetry, foreign decoder, and buffer registry. It runs one load at a
// time; concurrent calls sequence behind the in-flight load. Each
// successful load yields a mesh.Asset and releases the asset it
// supersedes.
//
// # Validation Guard
//
// Files are rejected before decoding when empty or larger than the
// configured byte limit, and after decoding when the stats-derived
// triangle count exceeds the configured maximum. A post-decode rejection
// releases any foreign buffers the decode allocated.
//
// # Fallback Orchestrator
//
// Decoding runs in two tiers. The fast tier assumes well-formed input:
// text formats use the in-process decoders in fast mode, binary formats
// go through the foreign decoder. A structural failure (an error, or a
// result with no geometry) triggers at most one fallback to the exact
// tier, which trades speed for tolerance and repair. When both tiers
// fail, the load returns a single ParseFailed error describing both
// attempts. A load recovered by the exact tier succeeds but is logged
// as a warning.
//
// # Lock Monitor
//
// Foreign decode calls run under a diagnostic watchdog. When a call
// outlives the configured interval the loader emits a warning event and
// metric; the call itself is never cancelled and runs to completion.
package loader
