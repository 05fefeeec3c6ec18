package storage

import (
	"github.com/ipfs/go-cid"

	"xdao.co/cbor42/cidutil"
)

// CAS is a minimal content-addressable block store.
//
// Contract:
// - Put derives the CID of data under prefix and stores data under it.
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - Get MUST verify returned bytes against the CID (ErrCIDMismatch).
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(prefix cid.Prefix, data []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// Sum derives the CID data is stored under for prefix, mapping an
// undefined result to ErrInvalidCID.
func Sum(prefix cid.Prefix, data []byte) (cid.Cid, error) {
	id, err := cidutil.Sum(prefix, data)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, ErrInvalidCID
	}
	return id, nil
}

// Verify returns ErrCIDMismatch unless id addresses data.
func Verify(id cid.Cid, data []byte) error {
	ok, err := cidutil.Matches(id, data)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCIDMismatch
	}
	return nil
}
