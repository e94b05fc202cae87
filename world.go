package anviligo

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/oriumgames/anviligo/anvilerr"
	"github.com/oriumgames/anviligo/hostproto"
	"github.com/oriumgames/anviligo/region"
	"github.com/oriumgames/anviligo/render"
)

const wop = "anviligo.World"

// World is the host-facing entry point: one Options-configured render.Pool
// serving however many TileRequests come in, the way oriumgames/pile's
// Provider fronted its Bedrock world packages with a single struct (see
// options.go's doc comment). Unlike Provider, World never mutates the
// underlying save — every region file is opened read-only.
type World struct {
	opts Options
	pool *render.Pool
}

// NewWorld builds a World from opts, sizing its worker pool per
// Options.workers().
func NewWorld(opts Options) *World {
	renderer := &render.Renderer{
		Palette:    opts.Palette,
		HeightMode: opts.HeightMode,
		Shade:      opts.Shade,
	}
	return &World{opts: opts, pool: render.NewPool(renderer, opts.workers())}
}

// regionPath returns the on-disk path of the region file covering (rx, rz)
// in dimension dim.
func (w *World) regionPath(dim hostproto.Dimension, rx, rz int) (string, error) {
	sub, err := dim.SubPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(w.opts.WorldDir, sub, fmt.Sprintf("r.%d.%d.mca", rx, rz)), nil
}

// HandleTile services one TileRequest end to end: locate the region file,
// render it, and classify the outcome into the TileReply sealed union
// (spec.md §6.3). It never returns a Go error — every failure is folded
// into a TileError reply, per §7's host-boundary rule that finer-grained
// anvilerr.Kinds don't cross the process boundary.
func (w *World) HandleTile(ctx context.Context, req hostproto.TileRequest) hostproto.TileReply {
	path, err := w.regionPath(req.Dimension, req.RX, req.RZ)
	if err != nil {
		return hostproto.NewTileError(req, err)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return hostproto.NewTileMissing(req)
		}
		wrapped := anvilerr.New(anvilerr.IoError, wop, err)
		logRenderFailure(req.RX, req.RZ, string(req.Dimension), wrapped)
		return hostproto.NewTileError(req, wrapped)
	}
	defer file.Close()

	store, err := region.FromStream(file)
	if err != nil {
		logRenderFailure(req.RX, req.RZ, string(req.Dimension), err)
		return hostproto.NewTileError(req, err)
	}

	renderReq := render.Request{
		RX:    req.RX,
		RZ:    req.RZ,
		Store: store,
		Renderer: &render.Renderer{
			Palette:    w.opts.Palette,
			HeightMode: req.HeightMapMode.Resolve(),
			Shade:      w.opts.Shade,
		},
	}
	result := <-w.pool.Submit(ctx, renderReq)
	if result.Err != nil {
		logRenderFailure(req.RX, req.RZ, string(req.Dimension), result.Err)
		return hostproto.NewTileError(req, result.Err)
	}
	if result.Map.ChunksRead() == 0 {
		return hostproto.NewTileMissing(req)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, result.Map.ToImage()); err != nil {
		wrapped := anvilerr.New(anvilerr.IoError, wop, err)
		logRenderFailure(req.RX, req.RZ, string(req.Dimension), wrapped)
		return hostproto.NewTileError(req, wrapped)
	}
	return hostproto.NewTileRender(req, buf.Bytes())
}

// HandleTiles services a batch of requests concurrently, bounded by the
// World's own worker pool, and returns replies in the same order as reqs.
// Grounded on the fan-out/fan-in shape of dolthub/dolt's table-reader
// goroutines (golang.org/x/sync/errgroup), generalized here to a boundary
// function that can't itself fail: HandleTile already turns every error
// into a reply, so the errgroup only ever coordinates completion, never
// aborts early.
func (w *World) HandleTiles(ctx context.Context, reqs []hostproto.TileRequest) []hostproto.TileReply {
	replies := make([]hostproto.TileReply, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			replies[i] = w.HandleTile(gctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return replies
}
