package testkit

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/cbor42/cbor42"
	"xdao.co/cbor42/cidutil"
	"xdao.co/cbor42/ipld"
	"xdao.co/cbor42/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte("hello, cbor42 storage")

		id, err := cas.Put(cidutil.Prefix(cid.Raw), want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := cidutil.CIDv1RawSHA256CID(want)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
		}
		if !id.Equals(wantID) {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
		if err := storage.Verify(id, got); err != nil {
			t.Fatalf("Get returned bytes not matching requested CID: %v", err)
		}
	})

	t.Run("CBORBlockRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		leaf, err := cas.Put(cidutil.Prefix(cid.Raw), []byte("leaf"))
		if err != nil {
			t.Fatalf("Put leaf failed: %v", err)
		}
		want := ipld.Map{
			"name":  ipld.String("root"),
			"size":  ipld.Int(4),
			"child": ipld.NewLink(leaf),
		}
		data, err := cbor42.Encode(want)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		id, err := cas.Put(cidutil.Prefix(cbor42.Code), data)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if id.Type() != cbor42.Code {
			t.Fatalf("Put CID codec: got 0x%x want 0x%x", id.Type(), cbor42.Code)
		}

		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		v, err := cbor42.Decode(got)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if !ipld.Equal(v, want) {
			t.Fatalf("decoded block mismatch")
		}
	})

	t.Run("PrefixSelectsHash", func(t *testing.T) {
		cas := newCAS(t)
		p, err := cidutil.PrefixWithHash(cid.Raw, "blake3")
		if err != nil {
			t.Fatalf("PrefixWithHash failed: %v", err)
		}
		id, err := cas.Put(p, []byte("hashed with blake3"))
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if got := id.Prefix().MhType; got != multihash.BLAKE3 {
			t.Fatalf("Put multihash: got %s want blake3", cidutil.HashName(got))
		}
		if _, err := cas.Get(id); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	})

	t.Run("SameBytesDistinctCodecs", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte{0xa0}

		raw, err := cas.Put(cidutil.Prefix(cid.Raw), b)
		if err != nil {
			t.Fatalf("Put raw failed: %v", err)
		}
		cb, err := cas.Put(cidutil.Prefix(cbor42.Code), b)
		if err != nil {
			t.Fatalf("Put cbor failed: %v", err)
		}
		if raw.Equals(cb) {
			t.Fatalf("expected distinct CIDs for distinct codecs")
		}
		for _, id := range []cid.Cid{raw, cb} {
			if got, err := cas.Get(id); err != nil || !bytes.Equal(got, b) {
				t.Fatalf("Get %s: %v", id, err)
			}
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("same bytes")

		id1, err := cas.Put(cidutil.Prefix(cid.Raw), b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(cidutil.Prefix(cid.Raw), b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if !id1.Equals(id2) {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("missing")
		id, err := cidutil.CIDv1RawSHA256CID(b)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
		}

		if cas.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		_, err = cas.Get(id)
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		_, err = cas.Put(cidutil.Prefix(cid.Raw), b)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !cas.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if cas.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})
}
