package dag_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/cbor42/cidutil"
	"xdao.co/cbor42/dag"
	"xdao.co/cbor42/ipld"
	"xdao.co/cbor42/storage"
	"xdao.co/cbor42/storage/bundle"
	"xdao.co/cbor42/storage/localfs"
)

func newStore(t *testing.T) dag.Store {
	t.Helper()
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dag.Store{CAS: cas}
}

// tree stores root -> {left, right}, left -> leaf, right -> leaf.
func tree(t *testing.T, s dag.Store) (root, left, right, leaf cid.Cid) {
	t.Helper()
	var err error
	if leaf, err = s.PutWith(cid.Raw, ipld.Bytes("leaf")); err != nil {
		t.Fatal(err)
	}
	if left, err = s.Put(ipld.Map{"side": ipld.String("left"), "next": ipld.NewLink(leaf)}); err != nil {
		t.Fatal(err)
	}
	if right, err = s.Put(ipld.Map{"side": ipld.String("right"), "next": ipld.NewLink(leaf)}); err != nil {
		t.Fatal(err)
	}
	if root, err = s.Put(ipld.List{ipld.NewLink(left), ipld.NewLink(right)}); err != nil {
		t.Fatal(err)
	}
	return root, left, right, leaf
}

func TestStore_PutGet(t *testing.T) {
	s := newStore(t)
	want := ipld.Map{"n": ipld.Int(-1), "b": ipld.Bytes{0}}
	id, err := s.Put(want)
	if err != nil {
		t.Fatal(err)
	}
	if id.Type() != 0x51 || id.Prefix().MhType != multihash.SHA2_256 {
		t.Fatalf("unexpected CID prefix %+v", id.Prefix())
	}
	got, err := s.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if !ipld.Equal(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestStore_HashSelection(t *testing.T) {
	s := newStore(t)
	s.Hash = "blake3"
	id, err := s.Put(ipld.String("x"))
	if err != nil {
		t.Fatal(err)
	}
	if id.Prefix().MhType != multihash.BLAKE3 {
		t.Fatalf("expected blake3, got %s", cidutil.HashName(id.Prefix().MhType))
	}

	s.Hash = "no-such-hash"
	if _, err := s.Put(ipld.String("x")); err == nil {
		t.Fatalf("expected unknown hash error")
	}
}

func TestStore_PutBlockValidates(t *testing.T) {
	s := newStore(t)
	if _, err := s.PutBlock(0x51, []byte{0xa1, 0x61, 'a'}); err == nil {
		t.Fatalf("expected truncated block to be rejected")
	}
	if _, err := s.PutBlock(0x51, []byte{0xa0}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PutBlock(0x12345, []byte{0}); err == nil {
		t.Fatalf("expected unknown codec error")
	}
}

func TestStore_LinksAndClosure(t *testing.T) {
	s := newStore(t)
	root, left, right, leaf := tree(t, s)

	links, err := s.Links(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 2 || !links[0].Equals(left) || !links[1].Equals(right) {
		t.Fatalf("unexpected links %v", links)
	}

	got, err := s.Closure(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	want := []cid.Cid{root, left, leaf, right}
	if len(got) != len(want) {
		t.Fatalf("closure: got %v want %v", got, want)
	}
	for i := range want {
		if !got[i].Equals(want[i]) {
			t.Fatalf("closure[%d]: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestStore_WalkMissing(t *testing.T) {
	s := newStore(t)
	absent, err := cidutil.Sum(cidutil.Prefix(cid.Raw), []byte("absent"))
	if err != nil {
		t.Fatal(err)
	}
	root, err := s.Put(ipld.List{ipld.NewLink(absent)})
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Closure(context.Background(), root)
	if !storage.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	s.SkipMissing = true
	ids, err := s.Closure(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || !ids[0].Equals(root) {
		t.Fatalf("unexpected closure %v", ids)
	}
}

func TestStore_WalkStopsOnCancel(t *testing.T) {
	s := newStore(t)
	root, _, _, _ := tree(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	visited := 0
	err := s.Walk(ctx, []cid.Cid{root}, func(cid.Cid, []byte) error {
		visited++
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if visited != 1 {
		t.Fatalf("expected walk to stop after one block, visited %d", visited)
	}
}

func TestStore_ExportImport(t *testing.T) {
	src := newStore(t)
	root, _, _, _ := tree(t, src)

	var buf bytes.Buffer
	err := src.Export(context.Background(), &buf, []cid.Cid{root}, bundle.ExportOptions{
		IncludeIndex: true,
		Compression:  bundle.CompressionZstd,
	})
	if err != nil {
		t.Fatal(err)
	}

	dst := newStore(t)
	if err := bundle.Import(bytes.NewReader(buf.Bytes()), dst.CAS); err != nil {
		t.Fatal(err)
	}
	ids, err := dst.Closure(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 4 {
		t.Fatalf("expected 4 blocks after import, got %d", len(ids))
	}
}

func TestStore_MissingCAS(t *testing.T) {
	var s dag.Store
	if _, err := s.Put(ipld.Null{}); !errors.Is(err, dag.ErrMissingCAS) {
		t.Fatalf("expected ErrMissingCAS, got %v", err)
	}
}
