// Package anvilerr defines the error vocabulary shared by the nbt, region,
// chunk and render packages. Every fallible operation in this module returns
// an *Error (or wraps one), so callers can dispatch on Kind the way
// the host boundary in hostproto does.
package anvilerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the failure. Names mirror the error vocabulary of the
// specification this module implements, not Go convention (no "Err" prefix),
// so log lines and the host Error reply read the same across languages.
type Kind int

const (
	Unknown Kind = iota
	IoError
	UnexpectedEof
	InvalidTag
	NonUnicodeString
	TypeMismatch
	NoRootCompound
	ArrayAsSequence
	SequenceTooLong
	IntegralOutOfRange
	InvalidChunkMeta
	ChunkNotFound
	InvalidCoordinates
	ChunkTooLarge
	InsufficientData
	MalformedBits
	UnknownBlockId
	PaletteLookupMiss
)

func (k Kind) String() string {
	switch k {
	case IoError:
		return "IoError"
	case UnexpectedEof:
		return "UnexpectedEof"
	case InvalidTag:
		return "InvalidTag"
	case NonUnicodeString:
		return "NonUnicodeString"
	case TypeMismatch:
		return "TypeMismatch"
	case NoRootCompound:
		return "NoRootCompound"
	case ArrayAsSequence:
		return "ArrayAsSequence"
	case SequenceTooLong:
		return "SequenceTooLong"
	case IntegralOutOfRange:
		return "IntegralOutOfRange"
	case InvalidChunkMeta:
		return "InvalidChunkMeta"
	case ChunkNotFound:
		return "ChunkNotFound"
	case InvalidCoordinates:
		return "InvalidCoordinates"
	case ChunkTooLarge:
		return "ChunkTooLarge"
	case InsufficientData:
		return "InsufficientData"
	case MalformedBits:
		return "MalformedBits"
	case UnknownBlockId:
		return "UnknownBlockId"
	case PaletteLookupMiss:
		return "PaletteLookupMiss"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with a Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error, attaching a stack trace to cause when it doesn't
// already carry one.
func New(kind Kind, op string, cause error) *Error {
	if cause != nil {
		if _, hasStack := cause.(interface{ StackTrace() errors.StackTrace }); !hasStack {
			cause = errors.WithStack(cause)
		}
	}
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Newf is New with a formatted cause message and no underlying error.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// Is reports whether err is an *Error of the given Kind, looking through
// wrapped causes.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			if e.Kind == kind {
				return true
			}
			err = e.Err
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// KindOf extracts the Kind from err, or Unknown if err is not (or does not
// wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			return ae.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	_ = e
	return Unknown
}
