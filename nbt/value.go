package nbt

import (
	"sort"

	"github.com/oriumgames/anviligo/anvilerr"
)

// Value is the universal dynamic binding target: any well-formed NBT
// document decodes to a Value and — modulo Compound key ordering, which NBT
// does not specify — re-encodes to a byte-identical blob (spec.md §4.2.3,
// §8.1 invariant 1). The interface is sealed: only the concrete types in
// this file implement it.
type Value interface {
	Tag() Tag
	encode(w *Writer) error
}

type Byte int8
type Short int16
type Int int32
type Long int64
type Float float32
type Double float64
type String string

func (Byte) Tag() Tag   { return TagByte }
func (Short) Tag() Tag  { return TagShort }
func (Int) Tag() Tag    { return TagInt }
func (Long) Tag() Tag   { return TagLong }
func (Float) Tag() Tag  { return TagFloat }
func (Double) Tag() Tag { return TagDouble }
func (String) Tag() Tag { return TagString }

func (v Byte) encode(w *Writer) error   { return w.WriteByte(byte(v)) }
func (v Short) encode(w *Writer) error  { return w.WriteI16(int16(v)) }
func (v Int) encode(w *Writer) error    { return w.WriteI32(int32(v)) }
func (v Long) encode(w *Writer) error   { return w.WriteI64(int64(v)) }
func (v Float) encode(w *Writer) error  { return w.WriteF32(float32(v)) }
func (v Double) encode(w *Writer) error { return w.WriteF64(float64(v)) }
func (v String) encode(w *Writer) error { return w.WriteName(string(v)) }

func (ByteArray) Tag() Tag { return TagByteArray }
func (IntArray) Tag() Tag  { return TagIntArray }
func (LongArray) Tag() Tag { return TagLongArray }

func (v ByteArray) encode(w *Writer) error { return w.WriteByteArray(v) }
func (v IntArray) encode(w *Writer) error  { return w.WriteIntArray(v) }
func (v LongArray) encode(w *Writer) error { return w.WriteLongArray(v) }

// List holds a homogeneous NBT list. Elem is the element kind on the wire;
// for an empty list this is conventionally TagEnd (spec.md §3.1, §8.2).
type List struct {
	Elem  Tag
	Items []Value
}

func (List) Tag() Tag { return TagList }

func (v List) encode(w *Writer) error {
	elem := v.Elem
	if len(v.Items) == 0 && elem == 0 {
		elem = TagEnd
	}
	if err := w.WriteListHeader(elem, len(v.Items)); err != nil {
		return err
	}
	for _, item := range v.Items {
		if err := item.encode(w); err != nil {
			return err
		}
	}
	return nil
}

// Compound holds named NBT values. Key ordering is not preserved (matches a
// Go map's iteration order and the specification's explicit non-guarantee).
type Compound map[string]Value

func (Compound) Tag() Tag { return TagCompound }

func (v Compound) encode(w *Writer) error {
	// Sort for deterministic test fixtures; the wire format itself does not
	// require any particular order.
	names := make([]string, 0, len(v))
	for k := range v {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		val := v[name]
		if err := w.WriteFieldHeader(val.Tag(), name); err != nil {
			return err
		}
		if err := val.encode(w); err != nil {
			return err
		}
	}
	return w.WriteCompoundEnd()
}

// Dialect selects the root-compound framing (spec.md §6.5).
type Dialect int

const (
	// FileDialect is the default on-disk framing: tag byte, root name
	// (possibly empty), then payload.
	FileDialect Dialect = iota
	// NetworkDialect omits the root name.
	NetworkDialect
)

const vop = "nbt.Value"

// DecodeValue reads one fully-formed root Compound (with its name) from in,
// per dialect.
func DecodeValue(in Input, dialect Dialect) (name string, root Compound, err error) {
	tag, err := in.ConsumeTag()
	if err != nil {
		return "", nil, err
	}
	if tag != TagCompound {
		return "", nil, anvilerr.Newf(anvilerr.NoRootCompound, vop, "root tag was %s, not Compound", tag)
	}
	if dialect == FileDialect {
		var scratch []byte
		ref, err := in.ConsumeStr(&scratch)
		if err != nil {
			return "", nil, err
		}
		name = ref.Value
	}
	root, err = decodeCompoundBody(in)
	if err != nil {
		return "", nil, err
	}
	return name, root, nil
}

// EncodeValue writes root back out as a single Compound document.
func EncodeValue(w *Writer, name string, root Compound, dialect Dialect) error {
	if err := w.WriteTag(TagCompound); err != nil {
		return err
	}
	if dialect == FileDialect {
		if err := w.WriteName(name); err != nil {
			return err
		}
	}
	return root.encode(w)
}

func decodeCompoundBody(in Input) (Compound, error) {
	out := Compound{}
	var scratch []byte
	for {
		tag, err := in.ConsumeTag()
		if err != nil {
			return nil, err
		}
		if tag == TagEnd {
			return out, nil
		}
		nameRef, err := in.ConsumeStr(&scratch)
		if err != nil {
			return nil, err
		}
		val, err := decodeValue(in, tag)
		if err != nil {
			return nil, err
		}
		out[nameRef.Value] = val
	}
}

func decodeValue(in Input, tag Tag) (Value, error) {
	var scratch []byte
	switch tag {
	case TagByte:
		b, err := in.ConsumeByte()
		return Byte(int8(b)), err
	case TagShort:
		v, err := in.ConsumeI16()
		return Short(v), err
	case TagInt:
		v, err := in.ConsumeI32()
		return Int(v), err
	case TagLong:
		v, err := in.ConsumeI64()
		return Long(v), err
	case TagFloat:
		v, err := in.ConsumeF32()
		return Float(v), err
	case TagDouble:
		v, err := in.ConsumeF64()
		return Double(v), err
	case TagString:
		ref, err := in.ConsumeStr(&scratch)
		if err != nil {
			return nil, err
		}
		return String(ref.Value), nil
	case TagByteArray:
		n, err := in.ConsumeI32()
		if err != nil {
			return nil, err
		}
		ref, err := in.ConsumeBytes(int(n), &scratch)
		if err != nil {
			return nil, err
		}
		out := make(ByteArray, len(ref.Value))
		copy(out, ref.Value)
		return out, nil
	case TagIntArray:
		n, err := in.ConsumeI32()
		if err != nil {
			return nil, err
		}
		out := make(IntArray, n)
		for i := range out {
			v, err := in.ConsumeI32()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case TagLongArray:
		n, err := in.ConsumeI32()
		if err != nil {
			return nil, err
		}
		out := make(LongArray, n)
		for i := range out {
			v, err := in.ConsumeI64()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case TagCompound:
		return decodeCompoundBody(in)
	case TagList:
		elemTag, err := in.ConsumeTag()
		if err != nil {
			return nil, err
		}
		n, err := in.ConsumeI32()
		if err != nil {
			return nil, err
		}
		if n > 0 && elemTag == TagEnd {
			return nil, anvilerr.Newf(anvilerr.InvalidTag, vop, "list of End with non-zero length")
		}
		var items []Value
		if n > 0 {
			items = make([]Value, 0, n)
		}
		for i := int32(0); i < n; i++ {
			item, err := decodeValue(in, elemTag)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return List{Elem: elemTag, Items: items}, nil
	default:
		return nil, anvilerr.Newf(anvilerr.InvalidTag, vop, "unexpected tag %s", tag)
	}
}
