package nbt

import (
	"io"

	"github.com/oriumgames/anviligo/anvilerr"
)

// EventKind identifies one token out of the pull parser (spec.md §4.2.4).
// Grounded on the event walker in original_source/fastnbt/src/de2/ and
// original_source/fastnbt/src/stream.rs, which drive serde's visitor
// callbacks off the same kind of token stream.
type EventKind int

const (
	EventTag EventKind = iota
	EventName
	EventByte
	EventShort
	EventInt
	EventLong
	EventFloat
	EventDouble
	EventString
	EventByteArray
	EventIntArray
	EventLongArray
	EventCompoundStart
	EventCompoundEnd
	EventListStart
	EventListEnd
)

// Event is one token from Parser.Next. Only the fields relevant to Kind are
// populated; the rest are zero.
type Event struct {
	Kind       EventKind
	Tag        Tag
	Name       string
	ByteVal    byte
	ShortVal   int16
	IntVal     int32
	LongVal    int64
	FloatVal   float32
	DoubleVal  float64
	StringVal  string
	ByteArray  ByteArray
	IntArray   IntArray
	LongArray  LongArray
	ListKind   Tag
	ListLength int
}

// frame tracks one nested Compound or List the parser is inside of.
type frame struct {
	isList    bool
	elemTag   Tag
	remaining int
}

// Parser is the pull/event NBT reader (spec.md §4.2.4). It exists so a
// caller can walk down to a subtree of interest — e.g. a single chunk's
// `Heightmaps` compound — without materializing everything above it as a
// Value or struct.
type Parser struct {
	in      Input
	stack   []frame
	started bool
	done    bool
	scratch []byte
}

func NewParser(in Input) *Parser {
	return &Parser{in: in}
}

const pop = "nbt.Parser"

// Next returns the next event. At the top level, before any Compound has
// been opened, io.EOF is returned cleanly once the stream is exhausted
// between values — distinct from an error surfacing mid-value, which comes
// back wrapped in an *anvilerr.Error (spec.md §4.2.4 last sentence).
func (p *Parser) Next() (Event, error) {
	if p.done {
		return Event{}, io.EOF
	}

	if len(p.stack) == 0 {
		if p.started {
			p.done = true
			return Event{}, io.EOF
		}
		p.started = true
		tag, err := p.in.ConsumeTag()
		if err != nil {
			if anvilerr.Is(err, anvilerr.UnexpectedEof) {
				p.done = true
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if tag != TagCompound {
			return Event{}, anvilerr.Newf(anvilerr.NoRootCompound, pop, "root tag was %s, not Compound", tag)
		}
		name, err := p.consumeName()
		if err != nil {
			return Event{}, err
		}
		p.stack = append(p.stack, frame{})
		return Event{Kind: EventCompoundStart, Name: name}, nil
	}

	top := &p.stack[len(p.stack)-1]

	if top.isList {
		if top.remaining == 0 {
			p.stack = p.stack[:len(p.stack)-1]
			return Event{Kind: EventListEnd}, nil
		}
		top.remaining--
		return p.nextValueEvent(top.elemTag, "")
	}

	// Inside a Compound: read the next field header, or End.
	tag, err := p.in.ConsumeTag()
	if err != nil {
		return Event{}, err
	}
	if tag == TagEnd {
		p.stack = p.stack[:len(p.stack)-1]
		if len(p.stack) == 0 {
			p.done = true
		}
		return Event{Kind: EventCompoundEnd}, nil
	}
	name, err := p.consumeName()
	if err != nil {
		return Event{}, err
	}
	return p.nextValueEvent(tag, name)
}

func (p *Parser) consumeName() (string, error) {
	ref, err := p.in.ConsumeStr(&p.scratch)
	if err != nil {
		return "", err
	}
	return ref.Value, nil
}

// nextValueEvent reads one value of the given tag and, for scalars, returns
// it directly; for Compound/List it pushes a frame and returns the Start
// event only — the caller drives further Next calls to walk the subtree.
func (p *Parser) nextValueEvent(tag Tag, name string) (Event, error) {
	switch tag {
	case TagByte:
		v, err := p.in.ConsumeByte()
		return Event{Kind: EventByte, Tag: tag, Name: name, ByteVal: v}, err
	case TagShort:
		v, err := p.in.ConsumeI16()
		return Event{Kind: EventShort, Tag: tag, Name: name, ShortVal: v}, err
	case TagInt:
		v, err := p.in.ConsumeI32()
		return Event{Kind: EventInt, Tag: tag, Name: name, IntVal: v}, err
	case TagLong:
		v, err := p.in.ConsumeI64()
		return Event{Kind: EventLong, Tag: tag, Name: name, LongVal: v}, err
	case TagFloat:
		v, err := p.in.ConsumeF32()
		return Event{Kind: EventFloat, Tag: tag, Name: name, FloatVal: v}, err
	case TagDouble:
		v, err := p.in.ConsumeF64()
		return Event{Kind: EventDouble, Tag: tag, Name: name, DoubleVal: v}, err
	case TagString:
		ref, err := p.in.ConsumeStr(&p.scratch)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: EventString, Tag: tag, Name: name, StringVal: ref.Value}, nil
	case TagByteArray:
		n, err := p.in.ConsumeI32()
		if err != nil {
			return Event{}, err
		}
		ref, err := p.in.ConsumeBytes(int(n), &p.scratch)
		if err != nil {
			return Event{}, err
		}
		out := make(ByteArray, len(ref.Value))
		copy(out, ref.Value)
		return Event{Kind: EventByteArray, Tag: tag, Name: name, ByteArray: out}, nil
	case TagIntArray:
		n, err := p.in.ConsumeI32()
		if err != nil {
			return Event{}, err
		}
		out := make(IntArray, n)
		for i := range out {
			v, err := p.in.ConsumeI32()
			if err != nil {
				return Event{}, err
			}
			out[i] = v
		}
		return Event{Kind: EventIntArray, Tag: tag, Name: name, IntArray: out}, nil
	case TagLongArray:
		n, err := p.in.ConsumeI32()
		if err != nil {
			return Event{}, err
		}
		out := make(LongArray, n)
		for i := range out {
			v, err := p.in.ConsumeI64()
			if err != nil {
				return Event{}, err
			}
			out[i] = v
		}
		return Event{Kind: EventLongArray, Tag: tag, Name: name, LongArray: out}, nil
	case TagCompound:
		p.stack = append(p.stack, frame{})
		return Event{Kind: EventCompoundStart, Name: name}, nil
	case TagList:
		elemTag, err := p.in.ConsumeTag()
		if err != nil {
			return Event{}, err
		}
		n, err := p.in.ConsumeI32()
		if err != nil {
			return Event{}, err
		}
		if n > 0 && elemTag == TagEnd {
			return Event{}, anvilerr.Newf(anvilerr.InvalidTag, pop, "list of End with non-zero length")
		}
		p.stack = append(p.stack, frame{isList: true, elemTag: elemTag, remaining: int(n)})
		return Event{Kind: EventListStart, Name: name, ListKind: elemTag, ListLength: int(n)}, nil
	default:
		return Event{}, anvilerr.Newf(anvilerr.InvalidTag, pop, "unexpected tag %s", tag)
	}
}

// SkipCompound consumes events until the CompoundStart most recently opened
// (the parser must be positioned exactly after receiving that event) is
// closed, discarding everything inside without building a Value (spec.md
// §4.2.4, "skip current compound" helper).
func (p *Parser) SkipCompound() error {
	depth := 1
	for depth > 0 {
		ev, err := p.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case EventCompoundStart:
			depth++
		case EventCompoundEnd:
			depth--
		case EventListStart:
			if err := p.skipList(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Parser) skipList() error {
	depth := 1
	for depth > 0 {
		ev, err := p.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case EventListStart:
			depth++
		case EventListEnd:
			depth--
		case EventCompoundStart:
			if err := p.SkipCompound(); err != nil {
				return err
			}
		}
	}
	return nil
}

// AdvanceToNamed scans forward, skipping sibling fields, until it enters a
// Compound or List whose field name equals name, returning the Start event
// that opened it. Returns io.EOF if the enclosing scope closes first
// (spec.md §4.2.4, "advance until a compound/list with a given name"
// helper).
func (p *Parser) AdvanceToNamed(name string) (Event, error) {
	for {
		ev, err := p.Next()
		if err != nil {
			return Event{}, err
		}
		switch ev.Kind {
		case EventCompoundStart:
			if ev.Name == name {
				return ev, nil
			}
			if err := p.SkipCompound(); err != nil {
				return Event{}, err
			}
		case EventListStart:
			if ev.Name == name {
				return ev, nil
			}
			if err := p.skipList(); err != nil {
				return Event{}, err
			}
		case EventCompoundEnd, EventListEnd:
			return Event{}, io.EOF
		}
	}
}
