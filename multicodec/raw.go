package multicodec

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/cbor42/ipld"
)

// Raw is the identity codec: a block is a single byte string.
type Raw struct{}

func (Raw) Code() uint64 { return cid.Raw }
func (Raw) Name() string { return "raw" }

func (Raw) Encode(v ipld.Value) ([]byte, error) {
	b, ok := v.(ipld.Bytes)
	if !ok {
		return nil, fmt.Errorf("multicodec: raw codec cannot encode %s", kindName(v))
	}
	return append([]byte(nil), b...), nil
}

func (Raw) Decode(data []byte) (ipld.Value, error) {
	return ipld.Bytes(append([]byte(nil), data...)), nil
}

func (Raw) References([]byte, func(cid.Cid) error) error { return nil }

func kindName(v ipld.Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}

func init() { MustRegister(Raw{}) }
