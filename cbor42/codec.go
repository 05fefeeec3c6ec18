package cbor42

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"

	"xdao.co/cbor42/ipld"
	"xdao.co/cbor42/multicodec"
)

// Code is the multicodec code of blocks in this format.
const Code uint64 = 0x51

// Codec encodes and decodes whole blocks. The zero value is ready to use.
type Codec struct {
	// MaxDepth bounds list and map nesting on decode. Zero means unlimited.
	MaxDepth int
}

func (Codec) Code() uint64 { return Code }
func (Codec) Name() string { return "cbor" }

// Encode returns the canonical encoding of v.
func (c Codec) Encode(v ipld.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.EncodeTo(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo writes the canonical encoding of v to w.
func (Codec) EncodeTo(w io.Writer, v ipld.Value) error {
	return NewWriter(w).WriteValue(v)
}

// Decode decodes data, which must hold exactly one item.
func (c Codec) Decode(data []byte) (ipld.Value, error) {
	r := c.reader(bytes.NewReader(data))
	v, err := r.ReadValue()
	if err != nil {
		return nil, err
	}
	if err := checkTrailing(r, len(data)); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeFrom decodes one item from src. Bytes after the item are left
// unread.
func (c Codec) DecodeFrom(src io.Reader) (ipld.Value, error) {
	return c.reader(src).ReadValue()
}

// References calls fn for every link in data without building the value.
// data must hold exactly one well formed item.
func (c Codec) References(data []byte, fn func(cid.Cid) error) error {
	r := c.reader(bytes.NewReader(data))
	if err := r.ScanLinks(fn); err != nil {
		return err
	}
	return checkTrailing(r, len(data))
}

// Links returns every link in data in wire order, duplicates included.
func (c Codec) Links(data []byte) ([]cid.Cid, error) {
	var out []cid.Cid
	err := c.References(data, func(id cid.Cid) error {
		out = append(out, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c Codec) reader(src io.Reader) *Reader {
	r := NewReader(src)
	r.MaxDepth = c.MaxDepth
	return r
}

func checkTrailing(r *Reader, size int) error {
	if rest := int64(size) - r.Offset(); rest > 0 {
		return &Error{Kind: KindTrailingData, Offset: r.Offset(), Message: fmt.Sprintf("%d trailing bytes", rest)}
	}
	return nil
}

// Encode encodes v with the zero Codec.
func Encode(v ipld.Value) ([]byte, error) { return Codec{}.Encode(v) }

// Decode decodes data with the zero Codec.
func Decode(data []byte) (ipld.Value, error) { return Codec{}.Decode(data) }

func init() { multicodec.MustRegister(Codec{}) }
