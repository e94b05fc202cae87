package nbt

import (
	"math/big"
	"reflect"
	"strings"

	"github.com/oriumgames/anviligo/anvilerr"
)

// Struct tags follow the `nbt:"Name[,omitempty]"` convention used across the
// Orium Games NBT tooling (github.com/oriumgames/nbt): the tag names the
// field on the wire, and a field tagged `nbt:"*"` collects any Compound
// entries not claimed by another field into a map[string]any (spec.md §4.2.1
// point 4, "unknown fields during struct decode are skipped, not errored").

const bop = "nbt.Bind"

// Options tunes the binding layer's decode limits.
type Options struct {
	// MaxSequenceLength caps List/Array/ByteArray/Compound lengths accepted
	// when binding into Go values. The check runs after the whole document
	// has been decoded into a Value, so it limits what is bound, not what the
	// decoder allocates for a length prefix. Zero means unlimited.
	MaxSequenceLength int
}

// Unmarshal decodes a single root Compound document from data into v, which
// must be a non-nil pointer to a struct, map, or Value-compatible type.
func Unmarshal(data []byte, v any, dialect Dialect, opts Options) error {
	in := NewSliceInput(data)
	_, root, err := DecodeValue(in, dialect)
	if err != nil {
		return err
	}
	return bindValue(root, reflect.ValueOf(v), opts)
}

// Marshal encodes v (a struct, map[string]any, or Compound) as a single
// root Compound document named name.
func Marshal(v any, name string, dialect Dialect) ([]byte, error) {
	val, err := toValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	compound, ok := val.(Compound)
	if !ok {
		return nil, anvilerr.Newf(anvilerr.TypeMismatch, bop, "root value must encode as a Compound, got %T", val)
	}
	return encodeToBytes(compound, name, dialect)
}

func encodeToBytes(root Compound, name string, dialect Dialect) ([]byte, error) {
	var sink byteSink
	w := NewWriter(&sink)
	if err := EncodeValue(w, name, root, dialect); err != nil {
		return nil, err
	}
	return sink.buf, nil
}

type byteSink struct{ buf []byte }

func (b *byteSink) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// bindValue assigns a decoded Value into the Go value pointed to by dst,
// dispatching on dst's static type the way the reference codec's generated
// bindings dispatch at compile time (spec.md §4.2.1).
func bindValue(v Value, dst reflect.Value, opts Options) error {
	if dst.Kind() != reflect.Ptr || dst.IsNil() {
		return anvilerr.Newf(anvilerr.TypeMismatch, bop, "bind target must be a non-nil pointer, got %s", dst.Type())
	}
	return bindInto(v, dst.Elem(), opts)
}

func bindInto(v Value, dst reflect.Value, opts Options) error {
	// Value target (including the elements of a Compound): keep it as is.
	if dst.Type() == reflect.TypeOf((*Value)(nil)).Elem() {
		dst.Set(reflect.ValueOf(v))
		return nil
	}

	// any / interface{} target: materialize the closest native Go shape.
	if dst.Kind() == reflect.Interface && dst.NumMethod() == 0 {
		native, err := toNative(v)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(native))
		return nil
	}

	switch dst.Kind() {
	case reflect.Bool:
		// Minecraft stores booleans as Byte 0/1 (spec.md §4.2.1 point 2).
		b, ok := v.(Byte)
		if !ok {
			return typeMismatch(v, dst)
		}
		dst.SetBool(b != 0)
		return nil

	case reflect.Int8:
		b, ok := v.(Byte)
		if !ok {
			return typeMismatch(v, dst)
		}
		dst.SetInt(int64(b))
		return nil

	case reflect.Int16:
		s, ok := v.(Short)
		if !ok {
			return typeMismatch(v, dst)
		}
		dst.SetInt(int64(s))
		return nil

	case reflect.Int32, reflect.Int:
		i, ok := v.(Int)
		if !ok {
			return typeMismatch(v, dst)
		}
		dst.SetInt(int64(i))
		return nil

	case reflect.Int64:
		l, ok := v.(Long)
		if !ok {
			return typeMismatch(v, dst)
		}
		dst.SetInt(int64(l))
		return nil

	case reflect.Float32:
		f, ok := v.(Float)
		if !ok {
			return typeMismatch(v, dst)
		}
		dst.SetFloat(float64(f))
		return nil

	case reflect.Float64:
		d, ok := v.(Double)
		if !ok {
			return typeMismatch(v, dst)
		}
		dst.SetFloat(float64(d))
		return nil

	case reflect.String:
		s, ok := v.(String)
		if !ok {
			return typeMismatch(v, dst)
		}
		dst.SetString(string(s))
		return nil
	}

	// Named array types take priority over the generic slice/list path
	// (spec.md §4.2.1 point 3): only ByteArray/IntArray/LongArray bind to an
	// Array tag; any other slice type only matches a List.
	switch dst.Type() {
	case reflect.TypeOf(ByteArray(nil)):
		ba, ok := v.(ByteArray)
		if !ok {
			return arrayAsSequence(v, dst)
		}
		if err := checkLen(len(ba), opts); err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(append(ByteArray(nil), ba...)))
		return nil
	case reflect.TypeOf(IntArray(nil)):
		ia, ok := v.(IntArray)
		if !ok {
			return arrayAsSequence(v, dst)
		}
		if err := checkLen(len(ia), opts); err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(append(IntArray(nil), ia...)))
		return nil
	case reflect.TypeOf(LongArray(nil)):
		la, ok := v.(LongArray)
		if !ok {
			return arrayAsSequence(v, dst)
		}
		if err := checkLen(len(la), opts); err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(append(LongArray(nil), la...)))
		return nil
	}

	// 128-bit integers (e.g. UUIDs) are conventionally stored as an IntArray
	// of 4 big-endian words; big.Int is the Go-native target (spec.md
	// §4.2.1 point 6, the "128-bit integral" rule).
	if dst.Type() == reflect.TypeOf(big.Int{}) {
		ia, ok := v.(IntArray)
		if !ok || len(ia) != 4 {
			return anvilerr.Newf(anvilerr.IntegralOutOfRange, bop, "128-bit integer requires an IntArray of 4, got %T", v)
		}
		dst.Set(reflect.ValueOf(*bigIntFromQuad(ia)))
		return nil
	}

	switch dst.Kind() {
	case reflect.Slice:
		list, ok := v.(List)
		if !ok {
			if ba, ok := v.(ByteArray); ok {
				return bindByteSliceAsList(ba, dst, opts)
			}
			return typeMismatch(v, dst)
		}
		if err := checkLen(len(list.Items), opts); err != nil {
			return err
		}
		out := reflect.MakeSlice(dst.Type(), len(list.Items), len(list.Items))
		for i, item := range list.Items {
			if err := bindInto(item, out.Index(i), opts); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil

	case reflect.Map:
		compound, ok := v.(Compound)
		if !ok {
			return typeMismatch(v, dst)
		}
		if err := checkLen(len(compound), opts); err != nil {
			return err
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(compound))
		for name, val := range compound {
			elem := reflect.New(dst.Type().Elem()).Elem()
			if err := bindInto(val, elem, opts); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(name), elem)
		}
		dst.Set(out)
		return nil

	case reflect.Struct:
		compound, ok := v.(Compound)
		if !ok {
			return typeMismatch(v, dst)
		}
		return bindStruct(compound, dst, opts)

	case reflect.Ptr:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return bindInto(v, dst.Elem(), opts)
	}

	return anvilerr.Newf(anvilerr.TypeMismatch, bop, "cannot bind %s into unsupported Go type %s", v.Tag(), dst.Type())
}

// bindByteSliceAsList allows a []int8/[]uint8-shaped custom slice (not the
// ByteArray named type) to accept an incoming ByteArray, per
// spec.md §4.2.1 point 3's "ArrayAsSequence" compatibility note.
func bindByteSliceAsList(ba ByteArray, dst reflect.Value, opts Options) error {
	if dst.Type().Elem().Kind() != reflect.Uint8 && dst.Type().Elem().Kind() != reflect.Int8 {
		return anvilerr.Newf(anvilerr.ArrayAsSequence, bop, "ByteArray cannot bind to %s", dst.Type())
	}
	if err := checkLen(len(ba), opts); err != nil {
		return err
	}
	out := reflect.MakeSlice(dst.Type(), len(ba), len(ba))
	for i, b := range ba {
		if dst.Type().Elem().Kind() == reflect.Uint8 {
			out.Index(i).SetUint(uint64(b))
		} else {
			out.Index(i).SetInt(int64(int8(b)))
		}
	}
	dst.Set(out)
	return nil
}

type fieldSpec struct {
	index     int
	name      string
	omitempty bool
	isExtra   bool
}

func parseFieldSpec(sf reflect.StructField, idx int) (fieldSpec, bool) {
	tag, ok := sf.Tag.Lookup("nbt")
	if !ok || tag == "-" {
		return fieldSpec{}, false
	}
	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "*" {
		return fieldSpec{index: idx, isExtra: true}, true
	}
	if name == "" {
		name = sf.Name
	}
	spec := fieldSpec{index: idx, name: name}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			spec.omitempty = true
		}
	}
	return spec, true
}

func bindStruct(compound Compound, dst reflect.Value, opts Options) error {
	t := dst.Type()
	var extraField *fieldSpec
	byName := make(map[string]fieldSpec, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		spec, ok := parseFieldSpec(sf, i)
		if !ok {
			continue
		}
		if spec.isExtra {
			s := spec
			extraField = &s
			continue
		}
		byName[spec.name] = spec
	}

	claimed := make(map[string]bool, len(byName))
	for name, val := range compound {
		spec, ok := byName[name]
		if !ok {
			// Unknown field: skipped (spec.md §4.2.1 point 4), unless the
			// struct wants it collected into its catch-all map.
			continue
		}
		claimed[name] = true
		if err := bindInto(val, dst.Field(spec.index), opts); err != nil {
			return err
		}
	}

	if extraField != nil {
		extra := reflect.MakeMap(t.Field(extraField.index).Type)
		for name, val := range compound {
			if claimed[name] {
				continue
			}
			native, err := toNative(val)
			if err != nil {
				return err
			}
			extra.SetMapIndex(reflect.ValueOf(name), reflect.ValueOf(native))
		}
		dst.Field(extraField.index).Set(extra)
	}

	return nil
}

func checkLen(n int, opts Options) error {
	if opts.MaxSequenceLength > 0 && n > opts.MaxSequenceLength {
		return anvilerr.Newf(anvilerr.SequenceTooLong, bop, "sequence length %d exceeds max %d", n, opts.MaxSequenceLength)
	}
	return nil
}

func typeMismatch(v Value, dst reflect.Value) error {
	return anvilerr.Newf(anvilerr.TypeMismatch, bop, "cannot bind tag %s into Go type %s", v.Tag(), dst.Type())
}

func arrayAsSequence(v Value, dst reflect.Value) error {
	return anvilerr.Newf(anvilerr.ArrayAsSequence, bop, "tag %s is not an Array, required by %s", v.Tag(), dst.Type())
}

// toNative converts a Value into the plain Go type an interface{}/any field
// or a "*" catch-all map would hold.
func toNative(v Value) (any, error) {
	switch t := v.(type) {
	case Byte:
		return int8(t), nil
	case Short:
		return int16(t), nil
	case Int:
		return int32(t), nil
	case Long:
		return int64(t), nil
	case Float:
		return float32(t), nil
	case Double:
		return float64(t), nil
	case String:
		return string(t), nil
	case ByteArray:
		return append(ByteArray(nil), t...), nil
	case IntArray:
		return append(IntArray(nil), t...), nil
	case LongArray:
		return append(LongArray(nil), t...), nil
	case List:
		out := make([]any, len(t.Items))
		for i, item := range t.Items {
			n, err := toNative(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case Compound:
		out := make(map[string]any, len(t))
		for k, val := range t {
			n, err := toNative(val)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	default:
		return nil, anvilerr.Newf(anvilerr.TypeMismatch, bop, "unrecognized Value implementation %T", v)
	}
}

// toValue is the inverse of bindInto: it converts a Go value (struct, map,
// slice, or Value) into an encodable Value tree, for Marshal.
func toValue(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return nil, anvilerr.Newf(anvilerr.TypeMismatch, bop, "cannot encode invalid value")
	}
	if v, ok := rv.Interface().(Value); ok {
		return v, nil
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, anvilerr.Newf(anvilerr.TypeMismatch, bop, "cannot encode nil")
		}
		return toValue(rv.Elem())
	case reflect.Bool:
		if rv.Bool() {
			return Byte(1), nil
		}
		return Byte(0), nil
	case reflect.Int8:
		return Byte(rv.Int()), nil
	case reflect.Int16:
		return Short(rv.Int()), nil
	case reflect.Int32, reflect.Int:
		return Int(rv.Int()), nil
	case reflect.Int64:
		return Long(rv.Int()), nil
	case reflect.Float32:
		return Float(rv.Float()), nil
	case reflect.Float64:
		return Double(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Slice, reflect.Array:
		switch rv.Type() {
		case reflect.TypeOf(ByteArray(nil)):
			return append(ByteArray(nil), rv.Interface().(ByteArray)...), nil
		case reflect.TypeOf(IntArray(nil)):
			return append(IntArray(nil), rv.Interface().(IntArray)...), nil
		case reflect.TypeOf(LongArray(nil)):
			return append(LongArray(nil), rv.Interface().(LongArray)...), nil
		}
		items := make([]Value, rv.Len())
		elem := TagEnd
		for i := range items {
			v, err := toValue(rv.Index(i))
			if err != nil {
				return nil, err
			}
			items[i] = v
			elem = v.Tag()
		}
		return List{Elem: elem, Items: items}, nil
	case reflect.Map:
		out := Compound{}
		for _, key := range rv.MapKeys() {
			v, err := toValue(rv.MapIndex(key))
			if err != nil {
				return nil, err
			}
			out[key.String()] = v
		}
		return out, nil
	case reflect.Struct:
		return structToValue(rv)
	default:
		return nil, anvilerr.Newf(anvilerr.TypeMismatch, bop, "cannot encode Go type %s", rv.Type())
	}
}

func structToValue(rv reflect.Value) (Value, error) {
	t := rv.Type()
	out := Compound{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		spec, ok := parseFieldSpec(sf, i)
		if !ok {
			continue
		}
		field := rv.Field(i)
		if spec.isExtra {
			if field.Kind() != reflect.Map {
				continue
			}
			for _, key := range field.MapKeys() {
				v, err := toValue(field.MapIndex(key))
				if err != nil {
					return nil, err
				}
				out[key.String()] = v
			}
			continue
		}
		if spec.omitempty && field.IsZero() {
			continue
		}
		v, err := toValue(field)
		if err != nil {
			return nil, err
		}
		out[spec.name] = v
	}
	return out, nil
}

func bigIntFromQuad(ia IntArray) *big.Int {
	b := make([]byte, 16)
	for i, word := range ia {
		be := uint32(word)
		b[i*4+0] = byte(be >> 24)
		b[i*4+1] = byte(be >> 16)
		b[i*4+2] = byte(be >> 8)
		b[i*4+3] = byte(be)
	}
	return new(big.Int).SetBytes(b)
}
