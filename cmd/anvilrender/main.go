// Command anvilrender renders one region tile from a Java Anvil save to a
// PNG file on stdout's behalf — a minimal local entry point over the
// anviligo package for testing a palette or a save without a host process.
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"github.com/oriumgames/anviligo"
	"github.com/oriumgames/anviligo/chunk"
	"github.com/oriumgames/anviligo/hostproto"
	"github.com/oriumgames/anviligo/palette"
)

func main() {
	worldDir := flag.String("world", "", "path to the save's root directory")
	paletteFile := flag.String("palette", "", "path to a palette archive (blockstates.json + colour ramps)")
	dimension := flag.String("dimension", "overworld", "overworld, nether, or end")
	rx := flag.Int("rx", 0, "region x coordinate")
	rz := flag.Int("rz", 0, "region z coordinate")
	out := flag.String("out", "tile.png", "output PNG path")
	calculate := flag.Bool("calculate-heightmap", false, "recompute heightmaps instead of trusting stored ones")
	shade := flag.Bool("shade", false, "enable the top-shade relief pass")
	workers := flag.Int("workers", 0, "concurrent region renders (0 = runtime.NumCPU())")
	flag.Parse()

	if *worldDir == "" || *paletteFile == "" {
		fmt.Println("Usage: anvilrender -world <dir> -palette <archive.tar.gz> -rx <n> -rz <n> [-dimension overworld|nether|end] [-out tile.png]")
		os.Exit(1)
	}

	pf, err := os.Open(*paletteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open palette: %v\n", err)
		os.Exit(1)
	}
	defer pf.Close()

	pal, err := palette.Load(pf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load palette: %v\n", err)
		os.Exit(1)
	}

	heightMode := hostproto.HeightTrust
	chunkHeightMode := chunk.Trust
	if *calculate {
		heightMode = hostproto.HeightCalculate
		chunkHeightMode = chunk.Calculate
	}

	world := anviligo.NewWorld(anviligo.Options{
		WorldDir:   *worldDir,
		HeightMode: chunkHeightMode,
		Palette:    pal,
		Shade:      *shade,
		Workers:    *workers,
	})

	req := hostproto.NewTileRequest("", *rx, *rz, hostproto.Dimension(*dimension), *worldDir, heightMode)
	reply := world.HandleTile(context.Background(), req)

	switch r := reply.(type) {
	case hostproto.TileRender:
		if err := writePNG(*out, r.ImageData); err != nil {
			fmt.Fprintf(os.Stderr, "write output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *out)
	case hostproto.TileMissing:
		fmt.Println("region not present")
		os.Exit(2)
	case hostproto.TileError:
		fmt.Fprintf(os.Stderr, "render failed: %s\n", r.Message)
		os.Exit(1)
	}
}

func writePNG(path, base64Data string) error {
	data, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
