package grpccas

import (
	"github.com/ipfs/go-cid"

	"xdao.co/cbor42/cbor42"
)

// putRequest is the payload of a Put call: the block and the CID prefix
// the server must store it under.
//
// Wire form is a cbor42 map with its keys in canonical order:
//
//	{"codec": uint, "data": bytes, "mhlen": int, "mhtype": uint}
type putRequest struct {
	Prefix cid.Prefix
	Data   []byte
}

func (p *putRequest) MarshalCBOR42(w *cbor42.Writer) error {
	if err := w.WriteMapHeader(4); err != nil {
		return err
	}
	if err := w.WriteTextString("codec"); err != nil {
		return err
	}
	if err := w.WriteUint(p.Prefix.Codec); err != nil {
		return err
	}
	if err := w.WriteTextString("data"); err != nil {
		return err
	}
	if err := w.WriteByteString(p.Data); err != nil {
		return err
	}
	if err := w.WriteTextString("mhlen"); err != nil {
		return err
	}
	if err := w.WriteInt(int64(p.Prefix.MhLength)); err != nil {
		return err
	}
	if err := w.WriteTextString("mhtype"); err != nil {
		return err
	}
	return w.WriteUint(p.Prefix.MhType)
}

func (p *putRequest) UnmarshalCBOR42(r *cbor42.Reader) error {
	n, err := r.ReadMapHeader()
	if err != nil {
		return err
	}
	if n != 4 {
		return &cbor42.Error{Kind: cbor42.KindUnexpectedKey, Offset: r.Offset(), Message: "put request must have 4 fields"}
	}
	if err := r.ReadKey("codec"); err != nil {
		return err
	}
	if p.Prefix.Codec, err = cbor42.Read(r, cbor42.TryUint64); err != nil {
		return err
	}
	if err := r.ReadKey("data"); err != nil {
		return err
	}
	if p.Data, err = cbor42.Read(r, cbor42.TryBytes); err != nil {
		return err
	}
	if err := r.ReadKey("mhlen"); err != nil {
		return err
	}
	mhlen, err := cbor42.Read(r, cbor42.TryInt32)
	if err != nil {
		return err
	}
	if err := r.ReadKey("mhtype"); err != nil {
		return err
	}
	if p.Prefix.MhType, err = cbor42.Read(r, cbor42.TryUint64); err != nil {
		return err
	}
	p.Prefix.Version = 1
	p.Prefix.MhLength = int(mhlen)
	return nil
}
