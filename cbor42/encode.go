package cbor42

import (
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/ipfs/go-cid"

	"xdao.co/cbor42/ipld"
)

// Non-finite float32 values are written in their half-precision form.
var (
	posInfBytes = [3]byte{simpleFloat16, 0x7c, 0x00}
	negInfBytes = [3]byte{simpleFloat16, 0xfc, 0x00}
	nanBytes    = [3]byte{simpleFloat16, 0x7e, 0x00}
)

func (w *Writer) WriteNull() error { return w.WriteU8(simpleNull) }

func (w *Writer) WriteBool(b bool) error {
	if b {
		return w.WriteU8(simpleTrue)
	}
	return w.WriteU8(simpleFalse)
}

// WriteUint writes u as an unsigned integer.
func (w *Writer) WriteUint(u uint64) error { return w.WriteWidth(MajorUnsigned, u) }

// WriteInt writes i, using major type 1 with argument -1-i when negative.
func (w *Writer) WriteInt(i int64) error {
	if i < 0 {
		return w.WriteWidth(MajorNegative, uint64(-(i + 1)))
	}
	return w.WriteWidth(MajorUnsigned, uint64(i))
}

// WriteInteger writes i, failing with KindNumberOutOfRange when it lies
// outside [-2^64, 2^64-1].
func (w *Writer) WriteInteger(i ipld.Integer) error {
	neg, mag, ok := i.Wire()
	if !ok {
		return encodeError(KindNumberOutOfRange, fmt.Sprintf("integer %s out of range", i), nil)
	}
	if neg {
		return w.WriteWidth(MajorNegative, mag)
	}
	return w.WriteWidth(MajorUnsigned, mag)
}

// WriteFloat32 writes f in single precision. Infinities and NaN are written
// as the three byte half-precision forms f9 7c00, f9 fc00 and f9 7e00.
//
// The decoder does not accept half-precision input, so non-finite floats do
// not round trip.
func (w *Writer) WriteFloat32(f float32) error {
	switch {
	case math.IsInf(float64(f), 1):
		return w.write(posInfBytes[:])
	case math.IsInf(float64(f), -1):
		return w.write(negInfBytes[:])
	case math.IsNaN(float64(f)):
		return w.write(nanBytes[:])
	}
	if err := w.WriteU8(simpleFloat32); err != nil {
		return err
	}
	return w.WriteF32(f)
}

// WriteFloat64 writes f in the narrowest of single or double precision that
// holds it exactly. Non-finite values go through WriteFloat32.
func (w *Writer) WriteFloat64(f float64) error {
	if math.IsInf(f, 0) || math.IsNaN(f) || float64(float32(f)) == f {
		return w.WriteFloat32(float32(f))
	}
	if err := w.WriteU8(simpleFloat64); err != nil {
		return err
	}
	return w.WriteF64(f)
}

func (w *Writer) WriteByteString(p []byte) error {
	if err := w.WriteWidth(MajorBytes, uint64(len(p))); err != nil {
		return err
	}
	return w.write(p)
}

// WriteTextString writes s, which must be valid UTF-8.
func (w *Writer) WriteTextString(s string) error {
	if !utf8.ValidString(s) {
		return encodeError(KindUTF8, "invalid utf-8 in text string", nil)
	}
	if err := w.WriteWidth(MajorText, uint64(len(s))); err != nil {
		return err
	}
	if _, err := io.WriteString(w.w, s); err != nil {
		return encodeError(KindIO, "write failed", err)
	}
	return nil
}

func (w *Writer) WriteListHeader(n int) error { return w.WriteWidth(MajorList, uint64(n)) }

func (w *Writer) WriteMapHeader(n int) error { return w.WriteWidth(MajorMap, uint64(n)) }

// WriteLink writes c as tag 42 over a byte string holding a zero byte
// followed by the binary CID.
func (w *Writer) WriteLink(c cid.Cid) error {
	if !c.Defined() {
		return encodeError(KindCID, "undefined cid", nil)
	}
	b := c.Bytes()
	if err := w.WriteTag(TagCID); err != nil {
		return err
	}
	if err := w.WriteWidth(MajorBytes, uint64(len(b))+1); err != nil {
		return err
	}
	if err := w.WriteU8(0); err != nil {
		return err
	}
	return w.write(b)
}

// WriteValue writes v and everything nested in it. Map entries are written
// in sorted key order.
func (w *Writer) WriteValue(v ipld.Value) error {
	switch t := v.(type) {
	case ipld.Null:
		return w.WriteNull()
	case ipld.Bool:
		return w.WriteBool(bool(t))
	case ipld.Integer:
		return w.WriteInteger(t)
	case ipld.Float:
		return w.WriteFloat64(float64(t))
	case ipld.Bytes:
		return w.WriteByteString(t)
	case ipld.String:
		return w.WriteTextString(string(t))
	case ipld.List:
		if err := w.WriteListHeader(len(t)); err != nil {
			return err
		}
		for _, e := range t {
			if err := w.WriteValue(e); err != nil {
				return err
			}
		}
		return nil
	case ipld.Map:
		if err := w.WriteMapHeader(len(t)); err != nil {
			return err
		}
		return t.Range(func(k string, e ipld.Value) error {
			if err := w.WriteTextString(k); err != nil {
				return err
			}
			return w.WriteValue(e)
		})
	case ipld.Link:
		return w.WriteLink(t.Cid)
	case nil:
		return w.WriteNull()
	}
	return encodeError(KindUnexpectedCode, fmt.Sprintf("unsupported value %T", v), nil)
}
