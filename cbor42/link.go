package cbor42

import (
	"fmt"

	"github.com/ipfs/go-cid"
)

// readLink decodes the remainder of a link after its leading 0xd8 byte.
//
// Only the exact form the encoder produces for CIDs of 23 bytes or more is
// accepted: tag 42 in its one-byte form, then a byte string whose length is
// held in a single explicit byte. Shorter CIDs, which the encoder writes
// with an inline length, are rejected here.
func (r *Reader) readLink() (cid.Cid, error) {
	start := r.off - 1
	tag, err := r.ReadU8()
	if err != nil {
		return cid.Undef, err
	}
	if uint64(tag) != TagCID {
		return cid.Undef, &Error{Kind: KindUnknownTag, Offset: start, Code: tag, Message: fmt.Sprintf("unknown tag %d", tag)}
	}
	lead, err := r.ReadU8()
	if err != nil {
		return cid.Undef, err
	}
	if lead != linkBytesLead {
		return cid.Undef, &Error{Kind: KindUnknownTag, Offset: r.off - 1, Code: lead, Message: fmt.Sprintf("unexpected link payload code 0x%02x", lead)}
	}
	n, err := r.ReadU8()
	if err != nil {
		return cid.Undef, err
	}
	if n == 0 {
		return cid.Undef, &Error{Kind: KindLengthOutOfRange, Offset: r.off - 1, Message: "empty link payload"}
	}
	payload := r.off
	p, err := r.ReadBytes(int(n))
	if err != nil {
		return cid.Undef, err
	}
	if p[0] != 0 {
		return cid.Undef, &Error{Kind: KindInvalidCIDPrefix, Offset: payload, Code: p[0], Message: fmt.Sprintf("invalid cid prefix 0x%02x", p[0])}
	}
	c, err := cid.Cast(p[1:])
	if err != nil {
		return cid.Undef, &Error{Kind: KindCID, Offset: payload + 1, Message: "invalid cid", Cause: err}
	}
	return c, nil
}
