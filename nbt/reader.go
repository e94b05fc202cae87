package nbt

import (
	"encoding/binary"
	"io"
	"math"
	"unsafe"

	"github.com/oriumgames/anviligo/anvilerr"
)

// StringRef and BytesRef report whether the returned value aliases the
// caller's input (Borrowed) or was copied into a scratch buffer (Copied).
// Mirrors fastnbt's Reference<Borrowed, Copied> (original_source/fastnbt/src/input.rs).
type StringRef struct {
	Value    string
	Borrowed bool
}

type BytesRef struct {
	Value    []byte
	Borrowed bool
}

// Input is the low-level NBT wire reader. SliceInput borrows directly out of
// an in-memory buffer; StreamInput reads from an io.Reader into a caller
// supplied scratch buffer. Both satisfy this same surface so the binding
// layer (bind.go) and the dynamic Value decoder (value.go) are agnostic to
// which one drives them.
type Input interface {
	ConsumeTag() (Tag, error)
	ConsumeByte() (byte, error)
	ConsumeI16() (int16, error)
	ConsumeI32() (int32, error)
	ConsumeI64() (int64, error)
	ConsumeF32() (float32, error)
	ConsumeF64() (float64, error)
	ConsumeStr(scratch *[]byte) (StringRef, error)
	ConsumeBytes(n int, scratch *[]byte) (BytesRef, error)
	IgnoreValue(tag Tag) error
}

const op = "nbt.Input"

// --- SliceInput: zero-copy over an in-memory buffer ---

type SliceInput struct {
	data []byte
}

func NewSliceInput(data []byte) *SliceInput {
	return &SliceInput{data: data}
}

func (s *SliceInput) take(n int) ([]byte, error) {
	if n < 0 || n > len(s.data) {
		return nil, anvilerr.New(anvilerr.UnexpectedEof, op, io.ErrUnexpectedEOF)
	}
	out := s.data[:n]
	s.data = s.data[n:]
	return out, nil
}

func (s *SliceInput) ConsumeTag() (Tag, error) {
	b, err := s.ConsumeByte()
	if err != nil {
		return 0, err
	}
	t := Tag(b)
	if !t.Valid() {
		return 0, anvilerr.Newf(anvilerr.InvalidTag, op, "invalid tag byte %d", b)
	}
	return t, nil
}

func (s *SliceInput) ConsumeByte() (byte, error) {
	b, err := s.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *SliceInput) ConsumeI16() (int16, error) {
	b, err := s.take(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (s *SliceInput) ConsumeI32() (int32, error) {
	b, err := s.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (s *SliceInput) ConsumeI64() (int64, error) {
	b, err := s.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (s *SliceInput) ConsumeF32() (float32, error) {
	v, err := s.ConsumeI32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

func (s *SliceInput) ConsumeF64() (float64, error) {
	v, err := s.ConsumeI64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

func (s *SliceInput) ConsumeStr(scratch *[]byte) (StringRef, error) {
	n, err := s.ConsumeI16()
	if err != nil {
		return StringRef{}, err
	}
	raw, err := s.take(int(uint16(n)))
	if err != nil {
		return StringRef{}, err
	}
	if isASCII(raw) {
		// Alias raw directly: ASCII CESU-8 is byte-identical to UTF-8, so
		// this is a true zero-copy borrow of the input (spec.md §8.1
		// invariant 2), not just a logical one.
		return StringRef{Value: bytesToString(raw), Borrowed: true}, nil
	}
	decoded, err := decodeCESU8(raw)
	if err != nil {
		return StringRef{}, err
	}
	return StringRef{Value: decoded, Borrowed: false}, nil
}

func (s *SliceInput) ConsumeBytes(n int, scratch *[]byte) (BytesRef, error) {
	raw, err := s.take(n)
	if err != nil {
		return BytesRef{}, err
	}
	return BytesRef{Value: raw, Borrowed: true}, nil
}

func (s *SliceInput) IgnoreValue(tag Tag) error {
	return ignoreValue(s, tag)
}

// bytesToString aliases b without copying. Safe here because NBT input
// buffers are treated as immutable for the lifetime of the decoded value
// (spec.md §3.6: tag values are owned by the call that produced them and do
// not outlive it in mutated form).
func bytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// --- StreamInput: copies into a scratch buffer from an io.Reader ---

type StreamInput struct {
	r io.Reader
}

func NewStreamInput(r io.Reader) *StreamInput {
	return &StreamInput{r: r}
}

func (s *StreamInput) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, anvilerr.New(anvilerr.UnexpectedEof, op, err)
		}
		return nil, anvilerr.New(anvilerr.IoError, op, err)
	}
	return buf, nil
}

func (s *StreamInput) ConsumeTag() (Tag, error) {
	b, err := s.readN(1)
	if err != nil {
		return 0, err
	}
	t := Tag(b[0])
	if !t.Valid() {
		return 0, anvilerr.Newf(anvilerr.InvalidTag, op, "invalid tag byte %d", b[0])
	}
	return t, nil
}

func (s *StreamInput) ConsumeByte() (byte, error) {
	b, err := s.readN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *StreamInput) ConsumeI16() (int16, error) {
	b, err := s.readN(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (s *StreamInput) ConsumeI32() (int32, error) {
	b, err := s.readN(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (s *StreamInput) ConsumeI64() (int64, error) {
	b, err := s.readN(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (s *StreamInput) ConsumeF32() (float32, error) {
	v, err := s.ConsumeI32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

func (s *StreamInput) ConsumeF64() (float64, error) {
	v, err := s.ConsumeI64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

func (s *StreamInput) ConsumeStr(scratch *[]byte) (StringRef, error) {
	n, err := s.ConsumeI16()
	if err != nil {
		return StringRef{}, err
	}
	raw, err := s.readN(int(uint16(n)))
	if err != nil {
		return StringRef{}, err
	}
	*scratch = append((*scratch)[:0], raw...)
	if isASCII(*scratch) {
		return StringRef{Value: string(*scratch), Borrowed: false}, nil
	}
	decoded, err := decodeCESU8(*scratch)
	if err != nil {
		return StringRef{}, err
	}
	return StringRef{Value: decoded, Borrowed: false}, nil
}

func (s *StreamInput) ConsumeBytes(n int, scratch *[]byte) (BytesRef, error) {
	raw, err := s.readN(n)
	if err != nil {
		return BytesRef{}, err
	}
	return BytesRef{Value: raw, Borrowed: false}, nil
}

func (s *StreamInput) IgnoreValue(tag Tag) error {
	return ignoreValue(s, tag)
}

// ignoreValue skips a value of the given tag without materializing it,
// recursing into compounds and lists. Shared by both Input implementations
// (original_source/fastnbt/src/input.rs Input::ignore_value).
func ignoreValue(in Input, tag Tag) error {
	var scratch []byte
	switch tag {
	case TagByte:
		_, err := in.ConsumeByte()
		return err
	case TagShort:
		_, err := in.ConsumeI16()
		return err
	case TagInt:
		_, err := in.ConsumeI32()
		return err
	case TagLong:
		_, err := in.ConsumeI64()
		return err
	case TagFloat:
		_, err := in.ConsumeF32()
		return err
	case TagDouble:
		_, err := in.ConsumeF64()
		return err
	case TagString:
		_, err := in.ConsumeStr(&scratch)
		return err
	case TagByteArray:
		n, err := in.ConsumeI32()
		if err != nil {
			return err
		}
		_, err = in.ConsumeBytes(int(n), &scratch)
		return err
	case TagIntArray:
		n, err := in.ConsumeI32()
		if err != nil {
			return err
		}
		for i := int32(0); i < n; i++ {
			if _, err := in.ConsumeI32(); err != nil {
				return err
			}
		}
		return nil
	case TagLongArray:
		n, err := in.ConsumeI32()
		if err != nil {
			return err
		}
		for i := int32(0); i < n; i++ {
			if _, err := in.ConsumeI64(); err != nil {
				return err
			}
		}
		return nil
	case TagCompound:
		for {
			t, err := in.ConsumeTag()
			if err != nil {
				return err
			}
			if t == TagEnd {
				return nil
			}
			if _, err := in.ConsumeStr(&scratch); err != nil {
				return err
			}
			if err := in.IgnoreValue(t); err != nil {
				return err
			}
		}
	case TagList:
		elemTag, err := in.ConsumeTag()
		if err != nil {
			return err
		}
		n, err := in.ConsumeI32()
		if err != nil {
			return err
		}
		if n > 0 && elemTag == TagEnd {
			return anvilerr.Newf(anvilerr.InvalidTag, op, "list of End with non-zero length")
		}
		for i := int32(0); i < n; i++ {
			if err := in.IgnoreValue(elemTag); err != nil {
				return err
			}
		}
		return nil
	default:
		return anvilerr.Newf(anvilerr.InvalidTag, op, "cannot ignore tag %s", tag)
	}
}
