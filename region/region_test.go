package region

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// memStream is a minimal in-memory io.ReadWriteSeeker, standing in for the
// os.File a real region store would be backed by.
type memStream struct {
	buf []byte
	pos int64
}

func newMemStream() *memStream { return &memStream{} }

func (m *memStream) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memStream) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memStream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = m.pos
	case io.SeekEnd:
		base = int64(len(m.buf))
	}
	m.pos = base + offset
	return m.pos, nil
}

func TestEmptyThenWriteThenReadChunk(t *testing.T) {
	stream := newMemStream()
	store, err := Empty(stream)
	require.NoError(t, err)

	payload := bytes.Repeat([]byte("chunk-data"), 500)
	require.NoError(t, store.WriteChunk(3, 5, payload))

	got, err := store.ReadChunk(3, 5)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestReadUnwrittenChunkIsNotFound(t *testing.T) {
	stream := newMemStream()
	store, err := Empty(stream)
	require.NoError(t, err)

	_, err = store.ReadChunk(1, 1)
	require.Error(t, err)
}

func TestInvalidCoordinatesRejected(t *testing.T) {
	stream := newMemStream()
	store, err := Empty(stream)
	require.NoError(t, err)

	require.Error(t, store.WriteChunk(32, 0, []byte("x")))
	require.Error(t, store.WriteChunk(0, -1, []byte("x")))
	_, err = store.ReadChunk(32, 0)
	require.Error(t, err)
}

func TestOverwriteSmallerChunkReusesSlot(t *testing.T) {
	stream := newMemStream()
	store, err := Empty(stream)
	require.NoError(t, err)

	big := bytes.Repeat([]byte{0xAB}, 9000)
	require.NoError(t, store.WriteChunk(0, 0, big))

	small := []byte("tiny")
	require.NoError(t, store.WriteChunk(0, 0, small))

	got, err := store.ReadChunk(0, 0)
	require.NoError(t, err)
	require.Equal(t, small, got)
}

func TestNoOverlapAcrossManyWritesAndRemoves(t *testing.T) {
	stream := newMemStream()
	store, err := Empty(stream)
	require.NoError(t, err)

	sizes := []int{100, 9000, 4096, 1, 50000, 4095, 4097}
	for i, size := range sizes {
		x, z := i%32, (i*7)%32
		require.NoError(t, store.WriteChunk(x, z, bytes.Repeat([]byte{byte(i)}, size)))
	}
	require.NoError(t, store.RemoveChunk(0, 0))
	for i, size := range sizes {
		x, z := i%32, (i*7)%32
		require.NoError(t, store.WriteChunk(x, z, bytes.Repeat([]byte{byte(i + 1)}, size+10)))
	}

	// No two live chunks should report overlapping sector ranges: verified
	// indirectly here by confirming every written chunk still reads back
	// exactly what was last written to it (spec.md §8.1 invariant 5).
	for i, size := range sizes {
		x, z := i%32, (i*7)%32
		got, err := store.ReadChunk(x, z)
		require.NoError(t, err)
		require.Equal(t, bytes.Repeat([]byte{byte(i + 1)}, size+10), got)
	}
}

func TestFromStreamRebuildsOffsets(t *testing.T) {
	stream := newMemStream()
	store, err := Empty(stream)
	require.NoError(t, err)
	require.NoError(t, store.WriteChunk(2, 2, bytes.Repeat([]byte{1}, 8000)))
	require.NoError(t, store.WriteChunk(10, 10, bytes.Repeat([]byte{2}, 100)))

	inner, err := store.IntoInner()
	require.NoError(t, err)

	reopened, err := FromStream(inner)
	require.NoError(t, err)

	got, err := reopened.ReadChunk(2, 2)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{1}, 8000), got)

	got, err = reopened.ReadChunk(10, 10)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{2}, 100), got)
}

func TestChunkTooLargeRejected(t *testing.T) {
	stream := newMemStream()
	store, err := Empty(stream)
	require.NoError(t, err)

	// Stored uncompressed so the payload really needs 257 sectors; zlib
	// would shrink this all-zero buffer to a single sector.
	huge := make([]byte, 256*4096)
	err = store.WriteCompressedChunk(0, 0, Uncompressed, huge)
	require.Error(t, err)
}
