// Package pkg provides the core libraries for Spritepack sheet composition.
//
// # Overview
//
// Spritepack assembles per-animation frame files into a single sprite
// sheet texture plus a machine-readable layout descriptor. The pkg
// directory is organized into four main areas:
//
//  1. [sheet] - Domain logic (config, frame resolution, packing, compositing)
//  2. [raster] - Image decode/encode against the filesystem
//  3. [cache] - Artifact caching (file, Redis, null backends)
//  4. [pipeline] - Orchestration (load → resolve → compose → emit)
//
// plus supplements: [gifenc] for animated GIF previews, [scale] for
// resizing, [bundle] for bbolt resource files, [observability] for
// instrumentation hooks, and [buildinfo] for version stamping.
//
// # Architecture
//
// The typical data flow through Spritepack:
//
//	Layout config (TOML/JSON/YAML) + frame directories
//	         ↓
//	    [sheet] LoadConfig / Resolver (validate, decode, order frames)
//	         ↓
//	    [sheet] Pack + Composite (grid assignment, canvas painting)
//	         ↓
//	    [sheet] Emitter (texture + descriptor + preview, atomic writes)
//
// The [pipeline] package wraps these stages with caching and timing for
// the CLI and the HTTP API.
package pkg
