package anviligo

import (
	"log/slog"
	"os"

	"github.com/oriumgames/anviligo/anvilerr"
)

// No logging library appears anywhere in the retrieved pack (the teacher
// included) — oriumgames/pile reaches for the standard log/fmt.Errorf only.
// log/slog is used here instead of bare log for the same reason dragonfly's
// transitively-pulled structured-logging expectations and the renderer's
// worker pool both want attributable fields (region, dimension, failure
// kind) rather than formatted strings.
var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// logRenderFailure records a per-region render failure at Warn, per §7's
// propagation rule: the renderer converts per-chunk errors into an invalid
// marker and continues, but a whole-region failure still deserves a log
// line even though the host-facing reply only carries message.
func logRenderFailure(rx, rz int, dim string, err error) {
	defaultLogger.Warn("region render failed",
		slog.Int("rx", rx),
		slog.Int("rz", rz),
		slog.String("dimension", dim),
		slog.String("kind", anvilerr.KindOf(err).String()),
		slog.String("error", err.Error()),
	)
}
