// Package sheet implements the sprite-sheet layout and packing core: it
// validates a layout configuration, resolves per-animation frame files
// from a directory convention, assigns frames to a fixed logical grid,
// composites them onto a single canvas, and emits the canvas together
// with a layout descriptor a game engine can consume.
//
// # Pipeline
//
// The stages run strictly in sequence, each consuming the validated
// output of the previous one:
//
//	cfg, err := sheet.LoadConfig("character.toml")
//	sets, err := sheet.NewResolver(raster.New()).Resolve(ctx, "./frames", cfg)
//	layout, err := sheet.Pack(cfg, sets)
//	canvas := sheet.Composite(cfg, layout)
//	emitter := sheet.NewEmitter(raster.New())
//	err = emitter.EmitSheet(canvas, "character.png")
//	err = emitter.EmitDescriptor(sheet.NewDescriptor(cfg, "character.png"), "character.json")
//
// # Input convention
//
// Frames live at inputDir/<animation>/<ordinal>.<ext> with a plain
// integer filename stem; 2.png sorts before 10.png. Files outside the
// convention are ignored. Each animation occupies exactly one grid row,
// frames laid left to right from column 0.
//
// # Failure model
//
// Configuration problems abort before any frame I/O. Resolution problems
// are collected across all animations and returned together as a
// *ResolveError. Output writes are atomic; a failed run never leaves a
// partial sheet behind.
package sheet
