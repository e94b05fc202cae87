// Package hostproto defines the tile render request/reply boundary a host
// process talks across (spec.md §6.3), grounded on the Tauri command in
// original_source/app/src-tauri/src/render.rs: a TileRequest in, one of
// three tagged TileReply variants out, PNG bytes carried as base64.
package hostproto

import (
	"encoding/base64"

	"github.com/google/uuid"

	"github.com/oriumgames/anviligo/anvilerr"
	"github.com/oriumgames/anviligo/chunk"
)

// Dimension selects which of a world's three save directories a request
// targets (spec.md §6.3).
type Dimension string

const (
	Overworld Dimension = "overworld"
	Nether    Dimension = "nether"
	End       Dimension = "end"
)

// SubPath returns the region-file subdirectory for d, relative to the
// world's root directory.
func (d Dimension) SubPath() (string, error) {
	switch d {
	case Overworld:
		return "region", nil
	case Nether:
		return "DIM-1/region", nil
	case End:
		return "DIM1/region", nil
	default:
		return "", anvilerr.Newf(anvilerr.InvalidChunkMeta, "hostproto.Dimension.SubPath", "unknown dimension %q", d)
	}
}

// HeightMapMode selects the chunk height resolution strategy (spec.md
// §6.3); the wire form is one of "trust"/"calculate".
type HeightMapMode string

const (
	HeightTrust     HeightMapMode = "trust"
	HeightCalculate HeightMapMode = "calculate"
)

// Resolve maps the wire string to a chunk.HeightMode, defaulting to Trust
// for any value other than exactly "calculate" — matching the Tauri
// reference's `if tile.heightmap_mode == "calculate" { Calculate } else {
// Trust }`.
func (m HeightMapMode) Resolve() chunk.HeightMode {
	if m == HeightCalculate {
		return chunk.Calculate
	}
	return chunk.Trust
}

// TileRequest is one render job submitted by the host (spec.md §6.3).
type TileRequest struct {
	ID            string
	RX, RZ        int
	Dimension     Dimension
	WorldDir      string
	HeightMapMode HeightMapMode
}

// NewTileRequest builds a TileRequest, generating a correlation id via
// github.com/google/uuid when the host doesn't supply one — the teacher
// uses the same library for player-identity UUIDs (provider.go); reused
// here for opaque request correlation instead.
func NewTileRequest(id string, rx, rz int, dim Dimension, worldDir string, mode HeightMapMode) TileRequest {
	if id == "" {
		id = uuid.NewString()
	}
	return TileRequest{ID: id, RX: rx, RZ: rz, Dimension: dim, WorldDir: worldDir, HeightMapMode: mode}
}

// TileReply is the sealed tagged union `{ Render | Missing | Error }` of
// spec.md §6.3. Only the three concrete types below implement it, mirroring
// the sealed nbt.Value interface in nbt/value.go.
type TileReply interface {
	Kind() string
	requestEcho() (id string, rx, rz int, dim Dimension, worldDir string)
}

type baseReply struct {
	ID        string
	RX, RZ    int
	Dimension Dimension
	WorldDir  string
}

func (b baseReply) requestEcho() (string, int, int, Dimension, string) {
	return b.ID, b.RX, b.RZ, b.Dimension, b.WorldDir
}

func echoFrom(req TileRequest) baseReply {
	return baseReply{ID: req.ID, RX: req.RX, RZ: req.RZ, Dimension: req.Dimension, WorldDir: req.WorldDir}
}

// TileRender is the successful-render reply variant; ImageData is the
// region's rasterized PNG, base64-encoded for the host transport (§6.3).
type TileRender struct {
	baseReply
	ImageData string
}

func (TileRender) Kind() string { return "render" }

// NewTileRender base64-encodes png and wraps it with the echoed request
// fields.
func NewTileRender(req TileRequest, png []byte) TileRender {
	return TileRender{baseReply: echoFrom(req), ImageData: base64.StdEncoding.EncodeToString(png)}
}

// TileMissing reports that the requested region file doesn't exist, or
// exists but has no chunks for this (rx, rz) (§6.3).
type TileMissing struct {
	baseReply
}

func (TileMissing) Kind() string { return "missing" }

func NewTileMissing(req TileRequest) TileMissing {
	return TileMissing{baseReply: echoFrom(req)}
}

// TileError reports any failure during parsing or rendering (§6.3); all
// finer-grained anvilerr.Kind classification collapses into Message (§7:
// "user-visible failures ... all finer-grained kinds are flattened to
// message").
type TileError struct {
	baseReply
	Message string
}

func (TileError) Kind() string { return "error" }

func NewTileError(req TileRequest, err error) TileError {
	return TileError{baseReply: echoFrom(req), Message: err.Error()}
}
