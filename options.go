// Package anviligo wires the region, chunk, render and palette packages
// into a single entry point a host process can submit tile render requests
// to, the way oriumgames/pile's Provider wires its own LevelDB/world
// packages together for its Bedrock-edition runtime (provider.go, not
// carried forward — see DESIGN.md).
package anviligo

import (
	"runtime"

	"github.com/oriumgames/anviligo/chunk"
	"github.com/oriumgames/anviligo/palette"
)

// Options configures a World. Spec.md doesn't specify a config file format
// (§1 scopes CLI argument plumbing out), so Options is built
// programmatically by the host; cmd/anvilrender only wraps it with the
// standard flag package for a minimal local entry point.
type Options struct {
	// WorldDir is the save's root directory (the parent of region/,
	// DIM-1/region/, DIM1/region/).
	WorldDir string
	// HeightMode is the height resolution strategy of the pool's default
	// renderer. HandleTile does not use it: every TileRequest carries its
	// own HeightMapMode, and that is resolved per request (anything other
	// than "calculate" means Trust).
	HeightMode chunk.HeightMode
	// Workers bounds how many regions render concurrently. Defaults to
	// runtime.NumCPU() when zero.
	Workers int
	// Palette supplies block/biome-to-colour resolution (§4.6). Required.
	Palette *palette.Palette
	// Shade enables the optional top-shade pass (§4.5) on every render.
	Shade bool
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}
