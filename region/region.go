// Package region implements the Anvil region file container: the 8 KiB
// two-table header plus a sequence of 4096-byte sectors holding compressed
// chunk payloads.
//
// Grounded on fastanvil/src/region.rs (original_source/): the sector
// allocation algorithm, the sorted-offsets bookkeeping, and the 5-byte
// chunk header layout are all ported from there. klauspost/compress
// supplies the zlib/gzip codecs (already a teacher dependency, used there
// for zstd on the same kind of streaming decode/encode path; see
// oriumgames-pile/format/io.go).
package region

import (
	"bytes"
	"io"
	"sort"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/oriumgames/anviligo/anvilerr"
)

const (
	sectorSize      = 4096
	headerSize      = 2 * sectorSize
	chunkHeaderSize = 5
	gridSize        = 32
)

// CompressionScheme identifies how a chunk payload is compressed on disk.
type CompressionScheme byte

const (
	Gzip         CompressionScheme = 1
	Zlib         CompressionScheme = 2
	Uncompressed CompressionScheme = 3
)

func (s CompressionScheme) valid() bool {
	return s == Gzip || s == Zlib || s == Uncompressed
}

// location is the (offset, sector-count) pair stored in the region header
// for one chunk slot.
type location struct {
	offset  uint64 // in sectors, from the start of the file
	sectors uint64
}

func (l location) empty() bool { return l.offset == 0 && l.sectors == 0 }

// Store is an open Anvil region file. The underlying stream must support
// read, write, and seek, the way a Rust Region<S: Read+Write+Seek> does
// (spec.md §4.3).
type Store struct {
	stream io.ReadWriteSeeker
	// offsets is the sorted list of every in-use sector offset, plus a
	// trailing sentinel equal to the current end-of-data. The last entry is
	// always the next free sector if no gap can be reused.
	offsets []uint64
}

const rop = "region.Store"

// Empty writes a fresh, all-zero 8 KiB header at the start of stream and
// returns a Store positioned to append chunks starting at sector 2. The
// stream is not truncated: any bytes past the header are left in place.
func Empty(stream io.ReadWriteSeeker) (*Store, error) {
	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return nil, anvilerr.New(anvilerr.IoError, rop, err)
	}
	if _, err := stream.Write(make([]byte, headerSize)); err != nil {
		return nil, anvilerr.New(anvilerr.IoError, rop, err)
	}
	return &Store{stream: stream, offsets: []uint64{2}}, nil
}

// FromStream opens an existing region file, scanning its 1024 location
// entries to rebuild the sorted offsets list (spec.md §4.3 from_stream).
func FromStream(stream io.ReadWriteSeeker) (*Store, error) {
	s := &Store{stream: stream}

	var maxOffset, maxOffsetSectors uint64
	for z := 0; z < gridSize; z++ {
		for x := 0; x < gridSize; x++ {
			loc, err := s.location(x, z)
			if err != nil {
				return nil, err
			}
			if loc.empty() {
				continue
			}
			s.offsets = append(s.offsets, loc.offset)
			if loc.offset > maxOffset {
				maxOffset = loc.offset
				maxOffsetSectors = loc.sectors
			}
		}
	}

	sort.Slice(s.offsets, func(i, j int) bool { return s.offsets[i] < s.offsets[j] })
	end := maxOffset + maxOffsetSectors
	if end < 2 {
		// No chunk present: the first free sector follows the 2-sector header.
		end = 2
	}
	s.offsets = append(s.offsets, end)
	return s, nil
}

// IntoInner rewinds the underlying stream to sector 0 and returns it.
func (s *Store) IntoInner() (io.ReadWriteSeeker, error) {
	if _, err := s.stream.Seek(0, io.SeekStart); err != nil {
		return nil, anvilerr.New(anvilerr.IoError, rop, err)
	}
	return s.stream, nil
}

func checkCoords(x, z int) error {
	if x < 0 || x >= gridSize || z < 0 || z >= gridSize {
		return anvilerr.Newf(anvilerr.InvalidCoordinates, rop, "chunk coordinates (%d, %d) out of 0..32 range", x, z)
	}
	return nil
}

func headerPos(x, z int) int64 {
	return int64(4 * ((x % gridSize) + (z%gridSize)*gridSize))
}

func (s *Store) location(x, z int) (location, error) {
	if _, err := s.stream.Seek(headerPos(x, z), io.SeekStart); err != nil {
		return location{}, anvilerr.New(anvilerr.IoError, rop, err)
	}
	var buf [4]byte
	if _, err := io.ReadFull(s.stream, buf[:]); err != nil {
		return location{}, anvilerr.New(anvilerr.IoError, rop, err)
	}
	offset := uint64(buf[0])<<16 | uint64(buf[1])<<8 | uint64(buf[2])
	return location{offset: offset, sectors: uint64(buf[3])}, nil
}

func (s *Store) setHeader(x, z int, offset uint64, sectors int) error {
	if sectors > 255 {
		return anvilerr.Newf(anvilerr.ChunkTooLarge, rop, "chunk needs %d sectors, max is 255", sectors)
	}
	var buf [4]byte
	buf[0] = byte(offset >> 16)
	buf[1] = byte(offset >> 8)
	buf[2] = byte(offset)
	buf[3] = byte(sectors)
	if _, err := s.stream.Seek(headerPos(x, z), io.SeekStart); err != nil {
		return anvilerr.New(anvilerr.IoError, rop, err)
	}
	if _, err := s.stream.Write(buf[:]); err != nil {
		return anvilerr.New(anvilerr.IoError, rop, err)
	}
	return nil
}

type chunkMeta struct {
	compressedLen uint32
	scheme        CompressionScheme
}

func parseChunkMeta(buf [chunkHeaderSize]byte) (chunkMeta, error) {
	length := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	if length == 0 {
		return chunkMeta{}, anvilerr.Newf(anvilerr.InsufficientData, rop, "chunk length is zero")
	}
	scheme := CompressionScheme(buf[4])
	if !scheme.valid() {
		return chunkMeta{}, anvilerr.Newf(anvilerr.InvalidChunkMeta, rop, "unknown compression scheme byte %d", buf[4])
	}
	// length on disk includes the compression-scheme byte itself.
	return chunkMeta{compressedLen: length - 1, scheme: scheme}, nil
}

func encodeChunkMeta(compressedLen uint32, scheme CompressionScheme) [chunkHeaderSize]byte {
	var buf [chunkHeaderSize]byte
	n := compressedLen + 1
	buf[0] = byte(n >> 24)
	buf[1] = byte(n >> 16)
	buf[2] = byte(n >> 8)
	buf[3] = byte(n)
	buf[4] = byte(scheme)
	return buf
}

func divCeil(n, d int) int {
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}

// ReadChunk reads the chunk at (x, z) and returns its decompressed NBT
// bytes. Returns ChunkNotFound if the slot has never been written.
func (s *Store) ReadChunk(x, z int) ([]byte, error) {
	if err := checkCoords(x, z); err != nil {
		return nil, err
	}
	loc, err := s.location(x, z)
	if err != nil {
		return nil, err
	}
	if loc.empty() {
		return nil, anvilerr.Newf(anvilerr.ChunkNotFound, rop, "chunk (%d, %d) not present", x, z)
	}

	if _, err := s.stream.Seek(int64(loc.offset)*sectorSize, io.SeekStart); err != nil {
		return nil, anvilerr.New(anvilerr.IoError, rop, err)
	}
	var metaBuf [chunkHeaderSize]byte
	if _, err := io.ReadFull(s.stream, metaBuf[:]); err != nil {
		return nil, anvilerr.New(anvilerr.IoError, rop, err)
	}
	meta, err := parseChunkMeta(metaBuf)
	if err != nil {
		return nil, err
	}

	payload := io.LimitReader(s.stream, int64(meta.compressedLen))
	switch meta.scheme {
	case Zlib:
		zr, err := zlib.NewReader(payload)
		if err != nil {
			return nil, anvilerr.New(anvilerr.IoError, rop, err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, anvilerr.New(anvilerr.IoError, rop, err)
		}
		return out, nil
	case Gzip:
		gr, err := gzip.NewReader(payload)
		if err != nil {
			return nil, anvilerr.New(anvilerr.IoError, rop, err)
		}
		defer gr.Close()
		out, err := io.ReadAll(gr)
		if err != nil {
			return nil, anvilerr.New(anvilerr.IoError, rop, err)
		}
		return out, nil
	default: // Uncompressed
		out, err := io.ReadAll(payload)
		if err != nil {
			return nil, anvilerr.New(anvilerr.IoError, rop, err)
		}
		return out, nil
	}
}

// WriteChunk compresses uncompressed with zlib (the default scheme) and
// writes it via WriteCompressedChunk.
func (s *Store) WriteChunk(x, z int, uncompressed []byte) error {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(uncompressed); err != nil {
		return anvilerr.New(anvilerr.IoError, rop, err)
	}
	if err := w.Close(); err != nil {
		return anvilerr.New(anvilerr.IoError, rop, err)
	}
	return s.WriteCompressedChunk(x, z, Zlib, buf.Bytes())
}

// WriteCompressedChunk writes an already-compressed chunk payload, running
// the sector allocation algorithm from spec.md §4.3.
func (s *Store) WriteCompressedChunk(x, z int, scheme CompressionScheme, compressed []byte) error {
	if err := checkCoords(x, z); err != nil {
		return err
	}
	loc, err := s.location(x, z)
	if err != nil {
		return err
	}
	needed := divCeil(chunkHeaderSize+len(compressed), sectorSize)

	var targetOffset uint64
	switch {
	case loc.empty():
		targetOffset = s.offsets[len(s.offsets)-1]
		s.offsets = append(s.offsets, targetOffset+uint64(needed))

	default:
		i := sort.Search(len(s.offsets), func(i int) bool { return s.offsets[i] >= loc.offset })
		if i >= len(s.offsets) || s.offsets[i] != loc.offset {
			// The header pointed at an offset our table doesn't know about;
			// treat it as if absent rather than corrupt the free list.
			targetOffset = s.offsets[len(s.offsets)-1]
			s.offsets = append(s.offsets, targetOffset+uint64(needed))
			break
		}
		available := int(s.offsets[i+1] - s.offsets[i])
		if needed <= available {
			targetOffset = s.offsets[i]
		} else {
			s.offsets = append(s.offsets[:i], s.offsets[i+1:]...)
			targetOffset = s.offsets[len(s.offsets)-1]
			s.offsets = append(s.offsets, targetOffset+uint64(needed))
		}
	}

	if err := s.writeChunkData(targetOffset, scheme, compressed); err != nil {
		return err
	}
	return s.setHeader(x, z, targetOffset, needed)
}

func (s *Store) writeChunkData(offset uint64, scheme CompressionScheme, compressed []byte) error {
	if _, err := s.stream.Seek(int64(offset)*sectorSize, io.SeekStart); err != nil {
		return anvilerr.New(anvilerr.IoError, rop, err)
	}
	meta := encodeChunkMeta(uint32(len(compressed)), scheme)
	if _, err := s.stream.Write(meta[:]); err != nil {
		return anvilerr.New(anvilerr.IoError, rop, err)
	}
	if _, err := s.stream.Write(compressed); err != nil {
		return anvilerr.New(anvilerr.IoError, rop, err)
	}
	return nil
}

// RemoveChunk clears the header slot for (x, z). The data sectors are left
// in place; reclaiming them is a non-goal (spec.md §4.3).
func (s *Store) RemoveChunk(x, z int) error {
	if err := checkCoords(x, z); err != nil {
		return err
	}
	return s.setHeader(x, z, 0, 0)
}
