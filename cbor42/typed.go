package cbor42

import (
	"fmt"
	"math"

	"github.com/ipfs/go-cid"
)

// A TryReader claims or declines the item introduced by lead, which the
// caller has already consumed.
//
// It returns (v, true, nil) after consuming the whole item, (zero, false,
// nil) when lead does not introduce an item of its type and nothing more
// was read, and (zero, false, err) when the item is malformed. Declining
// lets composite readers such as TryOptional tell a type mismatch apart
// from bad input.
type TryReader[T any] func(r *Reader, lead byte) (T, bool, error)

// Read consumes one leading byte and decodes the item with try. A decline
// becomes a KindUnexpectedCode error.
func Read[T any](r *Reader, try TryReader[T]) (T, error) {
	var zero T
	start := r.off
	lead, err := r.ReadU8()
	if err != nil {
		return zero, err
	}
	v, ok, err := try(r, lead)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, unexpectedCode(start, lead)
	}
	return v, nil
}

func TryBool(_ *Reader, lead byte) (bool, bool, error) {
	switch lead {
	case simpleFalse:
		return false, true, nil
	case simpleTrue:
		return true, true, nil
	}
	return false, false, nil
}

// tryUnsigned claims major type 0 items whose argument form is no wider
// than maxInfo.
func tryUnsigned(r *Reader, lead, maxInfo byte) (uint64, bool, error) {
	major, info := split(lead)
	if major != MajorUnsigned || info > maxInfo {
		return 0, false, nil
	}
	return r.readArg(info)
}

func TryUint8(r *Reader, lead byte) (uint8, bool, error) {
	n, ok, err := tryUnsigned(r, lead, infoUint8)
	return uint8(n), ok, err
}

func TryUint16(r *Reader, lead byte) (uint16, bool, error) {
	n, ok, err := tryUnsigned(r, lead, infoUint16)
	return uint16(n), ok, err
}

func TryUint32(r *Reader, lead byte) (uint32, bool, error) {
	n, ok, err := tryUnsigned(r, lead, infoUint32)
	return uint32(n), ok, err
}

func TryUint64(r *Reader, lead byte) (uint64, bool, error) {
	return tryUnsigned(r, lead, infoUint64)
}

// trySigned claims major type 0 and 1 items whose argument form is no
// wider than maxInfo and fails with KindNumberOutOfRange when the value
// does not fit in [min, max].
func trySigned(r *Reader, lead, maxInfo byte, min, max int64) (int64, bool, error) {
	major, info := split(lead)
	if (major != MajorUnsigned && major != MajorNegative) || info > maxInfo {
		return 0, false, nil
	}
	start := r.off - 1
	n, ok, err := r.readArg(info)
	if !ok || err != nil {
		return 0, ok, err
	}
	if major == MajorUnsigned {
		if n > uint64(max) {
			return 0, false, numberOutOfRange(start, false, n)
		}
		return int64(n), true, nil
	}
	// -1-n >= min  <=>  n <= -1-min
	if n > uint64(-1-min) {
		return 0, false, numberOutOfRange(start, true, n)
	}
	return -1 - int64(n), true, nil
}

func numberOutOfRange(off int64, negative bool, n uint64) error {
	v := fmt.Sprint(n)
	if negative {
		v = fmt.Sprintf("-1-%d", n)
	}
	return &Error{Kind: KindNumberOutOfRange, Offset: off, Message: fmt.Sprintf("integer %s out of range", v)}
}

func TryInt8(r *Reader, lead byte) (int8, bool, error) {
	n, ok, err := trySigned(r, lead, infoUint8, math.MinInt8, math.MaxInt8)
	return int8(n), ok, err
}

func TryInt16(r *Reader, lead byte) (int16, bool, error) {
	n, ok, err := trySigned(r, lead, infoUint16, math.MinInt16, math.MaxInt16)
	return int16(n), ok, err
}

func TryInt32(r *Reader, lead byte) (int32, bool, error) {
	n, ok, err := trySigned(r, lead, infoUint32, math.MinInt32, math.MaxInt32)
	return int32(n), ok, err
}

func TryInt64(r *Reader, lead byte) (int64, bool, error) {
	return trySigned(r, lead, infoUint64, math.MinInt64, math.MaxInt64)
}

// TryFloat32 claims single precision floats only.
func TryFloat32(r *Reader, lead byte) (float32, bool, error) {
	if lead != simpleFloat32 {
		return 0, false, nil
	}
	f, err := r.ReadF32()
	return f, err == nil, err
}

// TryFloat64 claims single and double precision floats.
func TryFloat64(r *Reader, lead byte) (float64, bool, error) {
	switch lead {
	case simpleFloat32:
		f, err := r.ReadF32()
		return float64(f), err == nil, err
	case simpleFloat64:
		f, err := r.ReadF64()
		return f, err == nil, err
	}
	return 0, false, nil
}

func TryString(r *Reader, lead byte) (string, bool, error) {
	major, info := split(lead)
	if major != MajorText {
		return "", false, nil
	}
	n, ok, err := r.readLen(info)
	if !ok || err != nil {
		return "", ok, err
	}
	s, err := r.ReadStr(n)
	return s, err == nil, err
}

func TryBytes(r *Reader, lead byte) ([]byte, bool, error) {
	major, info := split(lead)
	if major != MajorBytes {
		return nil, false, nil
	}
	n, ok, err := r.readLen(info)
	if !ok || err != nil {
		return nil, ok, err
	}
	b, err := r.ReadBytes(n)
	return b, err == nil, err
}

// TryLink claims tag 42 links in their one-byte tag form.
func TryLink(r *Reader, lead byte) (cid.Cid, bool, error) {
	if lead != tagUint8Lead {
		return cid.Undef, false, nil
	}
	c, err := r.readLink()
	return c, err == nil, err
}

// TryOptional claims null and undefined as nil and defers everything else
// to elem.
func TryOptional[T any](elem TryReader[T]) TryReader[*T] {
	return func(r *Reader, lead byte) (*T, bool, error) {
		if lead == simpleNull || lead == simpleUndef {
			return nil, true, nil
		}
		v, ok, err := elem(r, lead)
		if !ok || err != nil {
			return nil, ok, err
		}
		return &v, true, nil
	}
}

// TryList claims lists whose elements all decode with elem.
func TryList[T any](elem TryReader[T]) TryReader[[]T] {
	return func(r *Reader, lead byte) ([]T, bool, error) {
		major, info := split(lead)
		if major != MajorList {
			return nil, false, nil
		}
		n, ok, err := r.readLen(info)
		if !ok || err != nil {
			return nil, ok, err
		}
		l, err := readList(r, n, elem)
		return l, err == nil, err
	}
}

// TryMap claims maps with text keys whose values all decode with elem.
func TryMap[T any](elem TryReader[T]) TryReader[map[string]T] {
	return func(r *Reader, lead byte) (map[string]T, bool, error) {
		major, info := split(lead)
		if major != MajorMap {
			return nil, false, nil
		}
		n, ok, err := r.readLen(info)
		if !ok || err != nil {
			return nil, ok, err
		}
		m, err := readMap(r, n, elem)
		return m, err == nil, err
	}
}

// ReadListHeader reads a list header and returns its element count.
func (r *Reader) ReadListHeader() (int, error) { return Read(r, tryHeader(MajorList)) }

// ReadMapHeader reads a map header and returns its entry count.
func (r *Reader) ReadMapHeader() (int, error) { return Read(r, tryHeader(MajorMap)) }

func tryHeader(want Major) TryReader[int] {
	return func(r *Reader, lead byte) (int, bool, error) {
		major, info := split(lead)
		if major != want {
			return 0, false, nil
		}
		return r.readLen(info)
	}
}

func readList[T any](r *Reader, n int, elem TryReader[T]) ([]T, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.leave()
	out := make([]T, 0, min(n, maxPreallocItems))
	for range n {
		v, err := Read(r, elem)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// readMap decodes n entries. A repeated key overwrites the earlier value.
func readMap[T any](r *Reader, n int, elem TryReader[T]) (map[string]T, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.leave()
	out := make(map[string]T, min(n, maxPreallocItems))
	for range n {
		k, err := Read(r, TryString)
		if err != nil {
			return nil, err
		}
		v, err := Read(r, elem)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
