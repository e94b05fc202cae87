package render

import (
	"context"

	"github.com/oriumgames/anviligo/region"
)

// Request identifies one region-render job: its coordinates (carried
// through to the result so a host can match replies to tiles per §6.3) and
// an already-open Store. Every request owns its Store outright — the pool
// never shares one Store across two in-flight renders (spec.md §5: "no two
// workers share a handle").
type Request struct {
	RX, RZ int
	Store  *region.Store

	// Renderer overrides the pool's default renderer for this request only,
	// letting a single Pool serve requests with different HeightMapMode or
	// Shade settings (hostproto.TileRequest carries its own per-request
	// height mode). Nil uses the pool's default.
	Renderer *Renderer
}

// Result is what a worker hands back for a Request.
type Result struct {
	Request Request
	Map     *RegionMap
	Err     error
}

// Pool runs a fixed number of region renders concurrently, the worker-pool
// model spec.md §5 describes: the host submits requests, each worker fully
// owns its region's working set, and there is no ordering guarantee between
// results. Grounded on the outgoing-packet-queue goroutine in
// go-mclib-client's Client.connectAndStartOnce (a channel-fed worker loop),
// generalized here to N workers behind a buffered semaphore rather than one
// fixed consumer.
type Pool struct {
	renderer *Renderer
	sem      chan struct{}
}

// NewPool creates a Pool bounded to workers concurrent region renders.
func NewPool(renderer *Renderer, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{renderer: renderer, sem: make(chan struct{}, workers)}
}

// Submit starts rendering req and returns a buffered reply channel the
// caller can read exactly once. Cancellation is cooperative (§5): the
// caller cancels ctx, and the worker checks it before each chunk inside
// Renderer.RenderRegion rather than being forcibly killed. If the caller
// never reads the returned channel ("drops its reply channel"), the
// goroutine still completes without blocking — the channel is buffered —
// and the result is simply discarded.
func (p *Pool) Submit(ctx context.Context, req Request) <-chan Result {
	reply := make(chan Result, 1)

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		reply <- Result{Request: req, Err: ctx.Err()}
		close(reply)
		return reply
	}

	go func() {
		defer func() { <-p.sem }()
		renderer := req.Renderer
		if renderer == nil {
			renderer = p.renderer
		}
		m, err := renderer.RenderRegion(ctx, req.RX, req.RZ, req.Store)
		reply <- Result{Request: req, Map: m, Err: err}
		close(reply)
	}()

	return reply
}
