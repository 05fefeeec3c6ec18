package cbor42

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind rather than matching error strings.
type Kind string

const (
	KindIO               Kind = "IO"
	KindUTF8             Kind = "UTF8"
	KindLengthOutOfRange Kind = "LengthOutOfRange"
	KindNumberOutOfRange Kind = "NumberOutOfRange"
	KindUnexpectedCode   Kind = "UnexpectedCode"
	KindUnknownTag       Kind = "UnknownTag"
	KindInvalidCIDPrefix Kind = "InvalidCIDPrefix"
	KindCID              Kind = "CID"
	KindUnexpectedKey    Kind = "UnexpectedKey"
	KindDepthLimit       Kind = "DepthLimit"
	KindTrailingData     Kind = "TrailingData"
)

// Error is the structured error returned by every encode and decode path.
//
// Offset is the input position of the item that failed, or -1 when the
// error was raised while encoding. Code carries the offending byte for
// KindUnexpectedCode, KindUnknownTag and KindInvalidCIDPrefix.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	Offset  int64
	Code    byte
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "cbor42: " + e.Message
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

func encodeError(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Offset: -1, Message: msg, Cause: cause}
}

func unexpectedCode(off int64, lead byte) error {
	return &Error{
		Kind:    KindUnexpectedCode,
		Offset:  off,
		Code:    lead,
		Message: fmt.Sprintf("unexpected code 0x%02x", lead),
	}
}
