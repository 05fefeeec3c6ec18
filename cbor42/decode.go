package cbor42

import (
	"fmt"

	"xdao.co/cbor42/ipld"
)

// TryInteger claims major type 0 and 1 items of any width.
func TryInteger(r *Reader, lead byte) (ipld.Integer, bool, error) {
	major, info := split(lead)
	if major != MajorUnsigned && major != MajorNegative {
		return ipld.Integer{}, false, nil
	}
	n, ok, err := r.readArg(info)
	if !ok || err != nil {
		return ipld.Integer{}, ok, err
	}
	if major == MajorNegative {
		return ipld.NegUint(n), true, nil
	}
	return ipld.Uint(n), true, nil
}

// TryValue claims any item of the generic value model. It declines the
// reserved additional information codes 28..31 and every simple value it
// does not know, including half-precision floats.
func TryValue(r *Reader, lead byte) (ipld.Value, bool, error) {
	major, info := split(lead)
	switch major {
	case MajorUnsigned, MajorNegative:
		i, ok, err := TryInteger(r, lead)
		if !ok || err != nil {
			return nil, ok, err
		}
		return i, true, nil

	case MajorBytes:
		b, ok, err := TryBytes(r, lead)
		if !ok || err != nil {
			return nil, ok, err
		}
		return ipld.Bytes(b), true, nil

	case MajorText:
		s, ok, err := TryString(r, lead)
		if !ok || err != nil {
			return nil, ok, err
		}
		return ipld.String(s), true, nil

	case MajorList:
		n, ok, err := r.readLen(info)
		if !ok || err != nil {
			return nil, ok, err
		}
		l, err := readList(r, n, TryValue)
		if err != nil {
			return nil, false, err
		}
		return ipld.List(l), true, nil

	case MajorMap:
		n, ok, err := r.readLen(info)
		if !ok || err != nil {
			return nil, ok, err
		}
		m, err := readMap(r, n, TryValue)
		if err != nil {
			return nil, false, err
		}
		return ipld.Map(m), true, nil

	case MajorTag:
		if info >= infoReserved {
			return nil, false, nil
		}
		c, ok, err := TryLink(r, lead)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, unknownTagForm(r.off-1, lead)
		}
		return ipld.NewLink(c), true, nil
	}

	switch lead {
	case simpleFalse:
		return ipld.Bool(false), true, nil
	case simpleTrue:
		return ipld.Bool(true), true, nil
	case simpleNull, simpleUndef:
		return ipld.Null{}, true, nil
	case simpleFloat32, simpleFloat64:
		f, ok, err := TryFloat64(r, lead)
		if !ok || err != nil {
			return nil, ok, err
		}
		return ipld.Float(f), true, nil
	}
	return nil, false, nil
}

func unknownTagForm(off int64, lead byte) error {
	return &Error{Kind: KindUnknownTag, Offset: off, Code: lead, Message: fmt.Sprintf("unsupported tag form 0x%02x", lead)}
}

// ReadValue decodes one complete item.
func (r *Reader) ReadValue() (ipld.Value, error) { return Read(r, TryValue) }
