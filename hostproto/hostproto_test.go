package hostproto

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oriumgames/anviligo/chunk"
)

func TestDimensionSubPath(t *testing.T) {
	p, err := Overworld.SubPath()
	require.NoError(t, err)
	require.Equal(t, "region", p)

	p, err = Nether.SubPath()
	require.NoError(t, err)
	require.Equal(t, "DIM-1/region", p)

	p, err = End.SubPath()
	require.NoError(t, err)
	require.Equal(t, "DIM1/region", p)

	_, err = Dimension("moon").SubPath()
	require.Error(t, err)
}

func TestHeightMapModeResolve(t *testing.T) {
	require.Equal(t, chunk.Calculate, HeightMapMode("calculate").Resolve())
	require.Equal(t, chunk.Trust, HeightMapMode("trust").Resolve())
	require.Equal(t, chunk.Trust, HeightMapMode("").Resolve())
}

func TestNewTileRequestGeneratesIDWhenMissing(t *testing.T) {
	req := NewTileRequest("", 0, 0, Overworld, "/w", HeightTrust)
	require.NotEmpty(t, req.ID)

	req2 := NewTileRequest("client-supplied", 1, 2, Nether, "/w", HeightCalculate)
	require.Equal(t, "client-supplied", req2.ID)
}

func TestTileReplyVariantsEchoRequestFields(t *testing.T) {
	req := NewTileRequest("42", 0, 0, Overworld, "/w", HeightTrust)

	render := NewTileRender(req, []byte("fake-png"))
	require.Equal(t, "render", render.Kind())
	id, rx, rz, dim, dir := render.requestEcho()
	require.Equal(t, "42", id)
	require.Equal(t, 0, rx)
	require.Equal(t, 0, rz)
	require.Equal(t, Overworld, dim)
	require.Equal(t, "/w", dir)
	decoded, err := base64.StdEncoding.DecodeString(render.ImageData)
	require.NoError(t, err)
	require.Equal(t, []byte("fake-png"), decoded)

	missing := NewTileMissing(req)
	require.Equal(t, "missing", missing.Kind())

	tileErr := NewTileError(req, errors.New("boom"))
	require.Equal(t, "error", tileErr.Kind())
	require.Equal(t, "boom", tileErr.Message)
}

func TestTileReplyIsSealedInterface(t *testing.T) {
	var reply TileReply = NewTileMissing(NewTileRequest("1", 0, 0, End, "/w", HeightTrust))
	require.Equal(t, "missing", reply.Kind())
}
