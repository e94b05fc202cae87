package palette

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/oriumgames/anviligo/anvilerr"
)

const (
	blockstatesMember = "blockstates.json"
	grassMember       = "grass-colourmap.png"
	foliageMember     = "foliage-colourmap.png"
)

// Load reads a gzipped tar archive of the three members §6.4 requires
// (blockstates.json, grass-colourmap.png, foliage-colourmap.png) and builds
// a Palette. Every member is mandatory; a missing one fails the load rather
// than producing a partially-usable Palette (§6.4: "Loader MUST fail if any
// member is absent").
//
// Grounded on original_source/fastanvil/src/rendered_palette.rs's
// load_rendered_palette, using klauspost/compress/gzip (already a teacher
// dependency, reused here for the decompression half) and stdlib archive/tar
// since no tar library appears anywhere in the retrieved pack.
func Load(r io.Reader) (*Palette, error) {
	const op = "palette.Load"

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, anvilerr.New(anvilerr.IoError, op, err)
	}
	defer gz.Close()

	var (
		blockstates map[string]RGBA
		grass       *image.NRGBA
		foliage     *image.NRGBA
	)

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, anvilerr.New(anvilerr.IoError, op, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		switch hdr.Name {
		case blockstatesMember:
			blockstates, err = decodeBlockstates(tr)
			if err != nil {
				return nil, anvilerr.New(anvilerr.IoError, op, err)
			}
		case grassMember:
			grass, err = decodeColorMap(tr)
			if err != nil {
				return nil, anvilerr.New(anvilerr.IoError, op, err)
			}
		case foliageMember:
			foliage, err = decodeColorMap(tr)
			if err != nil {
				return nil, anvilerr.New(anvilerr.IoError, op, err)
			}
		}
	}

	switch {
	case blockstates == nil:
		return nil, anvilerr.Newf(anvilerr.PaletteLookupMiss, op, "archive missing %s", blockstatesMember)
	case grass == nil:
		return nil, anvilerr.Newf(anvilerr.PaletteLookupMiss, op, "archive missing %s", grassMember)
	case foliage == nil:
		return nil, anvilerr.Newf(anvilerr.PaletteLookupMiss, op, "archive missing %s", foliageMember)
	}

	return &Palette{blockstates: blockstates, grass: grass, foliage: foliage}, nil
}

func decodeBlockstates(r io.Reader) (map[string]RGBA, error) {
	var raw map[string][4]uint8
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	out := make(map[string]RGBA, len(raw))
	for k, v := range raw {
		out[k] = RGBA{R: v[0], G: v[1], B: v[2], A: v[3]}
	}
	return out, nil
}

func decodeColorMap(r io.Reader) (*image.NRGBA, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba, nil
	}
	bounds := img.Bounds()
	nrgba := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			nrgba.Set(x, y, img.At(x, y))
		}
	}
	return nrgba, nil
}
