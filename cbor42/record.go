package cbor42

import (
	"bytes"
)

// Marshaler is implemented by fixed-schema records that write themselves
// directly with a Writer.
type Marshaler interface {
	MarshalCBOR42(w *Writer) error
}

// Unmarshaler is implemented by fixed-schema records that read themselves
// directly from a Reader, typically with ReadMapHeader and ReadKey.
type Unmarshaler interface {
	UnmarshalCBOR42(r *Reader) error
}

// Marshal returns the encoding of m.
func Marshal(m Marshaler) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.MarshalCBOR42(NewWriter(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into u. data must hold exactly one record.
func Unmarshal(data []byte, u Unmarshaler) error {
	r := NewReader(bytes.NewReader(data))
	if err := u.UnmarshalCBOR42(r); err != nil {
		return err
	}
	return checkTrailing(r, len(data))
}
