package cbor42

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// maxPrealloc limits how much a length prefix alone can make the Reader
// allocate. Longer runs grow as bytes actually arrive, so a hostile length
// on a short input fails with an I/O error instead of exhausting memory.
const maxPrealloc = 64 << 10

// maxPreallocItems caps the initial capacity of decoded lists and maps.
const maxPreallocItems = 1024

// Reader reads primitive items from an io.Reader for the duration of one
// decode. It is not safe for concurrent use.
type Reader struct {
	r   io.Reader
	off int64
	buf [8]byte

	// MaxDepth bounds list and map nesting. Zero means unlimited.
	MaxDepth int
	depth    int
}

// NewReader returns a Reader consuming r. The io.Reader is not copied.
func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 { return r.off }

func (r *Reader) ioErr(err error) error {
	return &Error{Kind: KindIO, Offset: r.off, Message: "read failed", Cause: err}
}

func (r *Reader) fill(n int) ([]byte, error) {
	p := r.buf[:n]
	m, err := io.ReadFull(r.r, p)
	r.off += int64(m)
	if err != nil {
		return nil, r.ioErr(err)
	}
	return p, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	p, err := r.fill(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (r *Reader) ReadU16() (uint16, error) {
	p, err := r.fill(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	p, err := r.fill(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	p, err := r.fill(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(p), nil
}

func (r *Reader) ReadF32() (float32, error) {
	u, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

func (r *Reader) ReadF64() (float64, error) {
	u, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, &Error{Kind: KindLengthOutOfRange, Offset: r.off, Message: fmt.Sprintf("negative length %d", n)}
	}
	if n <= maxPrealloc {
		p := make([]byte, n)
		m, err := io.ReadFull(r.r, p)
		r.off += int64(m)
		if err != nil {
			return nil, r.ioErr(err)
		}
		return p, nil
	}
	var buf bytes.Buffer
	buf.Grow(maxPrealloc)
	m, err := io.CopyN(&buf, r.r, int64(n))
	r.off += m
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, r.ioErr(err)
	}
	return buf.Bytes(), nil
}

// ReadStr reads exactly n bytes and validates them as UTF-8.
func (r *Reader) ReadStr(n int) (string, error) {
	start := r.off
	p, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(p) {
		return "", &Error{Kind: KindUTF8, Offset: start, Message: "invalid utf-8 in text string"}
	}
	return string(p), nil
}

// Skip discards exactly n bytes.
func (r *Reader) Skip(n int) error {
	m, err := io.CopyN(io.Discard, r.r, int64(n))
	r.off += m
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return r.ioErr(err)
	}
	return nil
}

// ReadKey reads a text string item and fails with KindUnexpectedKey unless
// it equals key. Fixed-schema records use it to match their field names.
func (r *Reader) ReadKey(key string) error {
	start := r.off
	got, err := Read(r, TryString)
	if err != nil {
		return err
	}
	if got != key {
		return &Error{
			Kind:    KindUnexpectedKey,
			Offset:  start,
			Message: fmt.Sprintf("unexpected key %q, want %q", got, key),
		}
	}
	return nil
}

// readArg decodes the argument selected by info: inline for 0..23, or an
// explicit 1, 2, 4 or 8 byte big-endian value for 24..27. ok is false for
// the reserved codes 28..31.
func (r *Reader) readArg(info byte) (n uint64, ok bool, err error) {
	switch info {
	case infoUint8:
		v, err := r.ReadU8()
		return uint64(v), err == nil, err
	case infoUint16:
		v, err := r.ReadU16()
		return uint64(v), err == nil, err
	case infoUint32:
		v, err := r.ReadU32()
		return uint64(v), err == nil, err
	case infoUint64:
		v, err := r.ReadU64()
		return v, err == nil, err
	}
	if info <= maxInline {
		return uint64(info), true, nil
	}
	return 0, false, nil
}

// readLen is readArg for lengths and counts, which must fit in an int.
func (r *Reader) readLen(info byte) (int, bool, error) {
	start := r.off
	n, ok, err := r.readArg(info)
	if !ok || err != nil {
		return 0, ok, err
	}
	if n > math.MaxInt {
		return 0, false, &Error{Kind: KindLengthOutOfRange, Offset: start, Message: fmt.Sprintf("length %d exceeds addressable size", n)}
	}
	return int(n), true, nil
}

func (r *Reader) enter() error {
	r.depth++
	if r.MaxDepth > 0 && r.depth > r.MaxDepth {
		r.depth--
		return &Error{Kind: KindDepthLimit, Offset: r.off, Message: fmt.Sprintf("nesting exceeds %d", r.MaxDepth)}
	}
	return nil
}

func (r *Reader) leave() { r.depth-- }
