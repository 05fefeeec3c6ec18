package cbor42

import (
	"encoding/binary"
	"io"
	"math"
)

// Writer writes primitive items to an io.Writer. It is not safe for
// concurrent use.
type Writer struct {
	w   io.Writer
	buf [9]byte
}

// NewWriter returns a Writer producing to w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

func (w *Writer) write(p []byte) error {
	if _, err := w.w.Write(p); err != nil {
		return encodeError(KindIO, "write failed", err)
	}
	return nil
}

// WriteRaw writes p unchanged.
func (w *Writer) WriteRaw(p []byte) error { return w.write(p) }

func (w *Writer) WriteU8(v uint8) error {
	w.buf[0] = v
	return w.write(w.buf[:1])
}

func (w *Writer) WriteU16(v uint16) error {
	binary.BigEndian.PutUint16(w.buf[:2], v)
	return w.write(w.buf[:2])
}

func (w *Writer) WriteU32(v uint32) error {
	binary.BigEndian.PutUint32(w.buf[:4], v)
	return w.write(w.buf[:4])
}

func (w *Writer) WriteU64(v uint64) error {
	binary.BigEndian.PutUint64(w.buf[:8], v)
	return w.write(w.buf[:8])
}

func (w *Writer) WriteF32(f float32) error { return w.WriteU32(math.Float32bits(f)) }

func (w *Writer) WriteF64(f float64) error { return w.WriteU64(math.Float64bits(f)) }

// widths lists the explicit argument forms from narrowest to widest.
var widths = [...]struct {
	info byte
	size int
	max  uint64
}{
	{infoUint8, 1, math.MaxUint8},
	{infoUint16, 2, math.MaxUint16},
	{infoUint32, 4, math.MaxUint32},
	{infoUint64, 8, math.MaxUint64},
}

// WriteWidth writes a leading byte for major with argument n using the
// smallest form that holds n: inline for 0..23, otherwise the narrowest of
// the 1, 2, 4 and 8 byte big-endian forms. Every integer, length and tag
// goes through here, so the output is always in canonical form.
func (w *Writer) WriteWidth(major Major, n uint64) error {
	if n <= uint64(maxInline) {
		w.buf[0] = head(major, byte(n))
		return w.write(w.buf[:1])
	}
	for _, f := range widths {
		if n > f.max {
			continue
		}
		w.buf[0] = head(major, f.info)
		var be [8]byte
		binary.BigEndian.PutUint64(be[:], n)
		copy(w.buf[1:], be[8-f.size:])
		return w.write(w.buf[:1+f.size])
	}
	panic("unreachable")
}

// WriteTag writes a tag header.
func (w *Writer) WriteTag(tag uint64) error { return w.WriteWidth(MajorTag, tag) }
