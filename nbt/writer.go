package nbt

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/oriumgames/anviligo/anvilerr"
)

// Writer emits the NBT binary wire format. Unlike the reference
// implementation's serde-driven writer — which must buffer a field's payload
// before it can know which tag to emit, because serde resolves the Rust type
// at serialization time — the binding layer (bind.go) first converts a Go
// value into a Value tree whose nodes already know their Tag, so Writer
// itself can stay a plain single-pass emitter.
type Writer struct {
	w   io.Writer
	buf [8]byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

const wop = "nbt.Writer"

func (w *Writer) wrap(err error) error {
	if err == nil {
		return nil
	}
	return anvilerr.New(anvilerr.IoError, wop, err)
}

func (w *Writer) WriteTag(t Tag) error {
	w.buf[0] = byte(t)
	_, err := w.w.Write(w.buf[:1])
	return w.wrap(err)
}

// WriteName writes an NBT string without a preceding tag byte — used for
// both root/field names and String payloads.
func (w *Writer) WriteName(s string) error {
	encoded := encodeCESU8(nil, s)
	if len(encoded) > 0xFFFF {
		return anvilerr.Newf(anvilerr.SequenceTooLong, wop, "name/string too long: %d bytes", len(encoded))
	}
	binary.BigEndian.PutUint16(w.buf[:2], uint16(len(encoded)))
	if _, err := w.w.Write(w.buf[:2]); err != nil {
		return w.wrap(err)
	}
	_, err := w.w.Write(encoded)
	return w.wrap(err)
}

func (w *Writer) WriteByte(v byte) error {
	w.buf[0] = v
	_, err := w.w.Write(w.buf[:1])
	return w.wrap(err)
}

func (w *Writer) WriteI16(v int16) error {
	binary.BigEndian.PutUint16(w.buf[:2], uint16(v))
	_, err := w.w.Write(w.buf[:2])
	return w.wrap(err)
}

func (w *Writer) WriteI32(v int32) error {
	binary.BigEndian.PutUint32(w.buf[:4], uint32(v))
	_, err := w.w.Write(w.buf[:4])
	return w.wrap(err)
}

func (w *Writer) WriteI64(v int64) error {
	binary.BigEndian.PutUint64(w.buf[:8], uint64(v))
	_, err := w.w.Write(w.buf[:8])
	return w.wrap(err)
}

func (w *Writer) WriteF32(v float32) error {
	return w.WriteI32(int32(math.Float32bits(v)))
}

func (w *Writer) WriteF64(v float64) error {
	return w.WriteI64(int64(math.Float64bits(v)))
}

func (w *Writer) WriteRawBytes(b []byte) error {
	_, err := w.w.Write(b)
	return w.wrap(err)
}

func (w *Writer) WriteByteArray(b []byte) error {
	if err := w.WriteI32(int32(len(b))); err != nil {
		return err
	}
	return w.WriteRawBytes(b)
}

func (w *Writer) WriteIntArray(v []int32) error {
	if err := w.WriteI32(int32(len(v))); err != nil {
		return err
	}
	for _, x := range v {
		if err := w.WriteI32(x); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) WriteLongArray(v []int64) error {
	if err := w.WriteI32(int32(len(v))); err != nil {
		return err
	}
	for _, x := range v {
		if err := w.WriteI64(x); err != nil {
			return err
		}
	}
	return nil
}

// WriteListHeader writes the element-kind byte and length of a List. For a
// zero-length list, elemTag should be TagEnd per spec.md §3.1 and §8.2.
func (w *Writer) WriteListHeader(elemTag Tag, n int) error {
	if err := w.WriteTag(elemTag); err != nil {
		return err
	}
	return w.WriteI32(int32(n))
}

// WriteCompoundEnd writes the terminating End tag byte of a Compound.
func (w *Writer) WriteCompoundEnd() error {
	return w.WriteTag(TagEnd)
}

// WriteFieldHeader writes the (tag, name) preceding a Compound field's
// payload.
func (w *Writer) WriteFieldHeader(t Tag, name string) error {
	if err := w.WriteTag(t); err != nil {
		return err
	}
	return w.WriteName(name)
}
