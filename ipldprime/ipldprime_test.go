package ipldprime_test

import (
	"bytes"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/node/basicnode"

	"xdao.co/cbor42/cbor42"
	"xdao.co/cbor42/cidutil"
	"xdao.co/cbor42/ipld"
	"xdao.co/cbor42/ipldprime"
)

func testLink(t *testing.T) ipld.Link {
	t.Helper()
	id, err := cidutil.Sum(cidutil.Prefix(cbor42.Code), []byte("child"))
	if err != nil {
		t.Fatal(err)
	}
	return ipld.NewLink(id)
}

// Keys of equal length sort the same under dag-cbor's length-first rule
// and bytewise order, so both encoders must agree on this value.
func sample(t *testing.T) ipld.Value {
	return ipld.Map{
		"a": ipld.Int(-70000),
		"b": ipld.List{ipld.Bool(true), ipld.Null{}, ipld.String("x")},
		"c": ipld.Bytes{1, 2, 3},
		"d": testLink(t),
		"e": ipld.Map{"k": ipld.Int(24)},
	}
}

func TestToNode_MatchesDagCBOREncoding(t *testing.T) {
	v := sample(t)
	n, err := ipldprime.ToNode(v)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := dagcbor.Encode(n, &buf); err != nil {
		t.Fatal(err)
	}
	want, err := cbor42.Encode(v)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("dag-cbor encoding differs:\n got %x\nwant %x", buf.Bytes(), want)
	}
}

func TestFromNode_DecodesDagCBOR(t *testing.T) {
	v := sample(t)
	data, err := cbor42.Encode(v)
	if err != nil {
		t.Fatal(err)
	}
	nb := basicnode.Prototype.Any.NewBuilder()
	if err := dagcbor.Decode(nb, bytes.NewReader(data)); err != nil {
		t.Fatal(err)
	}
	got, err := ipldprime.FromNode(nb.Build())
	if err != nil {
		t.Fatal(err)
	}
	if !ipld.Equal(got, v) {
		t.Fatalf("round trip through go-ipld-prime changed the value")
	}
}

func TestToNode_Integers(t *testing.T) {
	n, err := ipldprime.ToNode(ipld.Uint(math.MaxUint64))
	if err != nil {
		t.Fatal(err)
	}
	if n.Kind() != datamodel.Kind_Int {
		t.Fatalf("unexpected kind %s", n.Kind())
	}
	back, err := ipldprime.FromNode(n)
	if err != nil {
		t.Fatal(err)
	}
	if !ipld.Equal(back, ipld.Uint(math.MaxUint64)) {
		t.Fatalf("unexpected value %v", back)
	}

	_, err = ipldprime.ToNode(ipld.NegUint(math.MaxUint64))
	if !errors.Is(err, ipldprime.ErrIntegerRange) {
		t.Fatalf("expected ErrIntegerRange, got %v", err)
	}
	wide := new(big.Int).Lsh(big.NewInt(1), 70)
	_, err = ipldprime.ToNode(ipld.List{ipld.BigInt(wide)})
	if !errors.Is(err, ipldprime.ErrIntegerRange) {
		t.Fatalf("expected ErrIntegerRange for nested integer, got %v", err)
	}
}

func TestFromNode_Scalars(t *testing.T) {
	cases := []struct {
		node datamodel.Node
		want ipld.Value
	}{
		{basicnode.NewBool(false), ipld.Bool(false)},
		{basicnode.NewInt(-5), ipld.Int(-5)},
		{basicnode.NewFloat(1.5), ipld.Float(1.5)},
		{basicnode.NewString("s"), ipld.String("s")},
		{basicnode.NewBytes([]byte{9}), ipld.Bytes{9}},
		{datamodel.Null, ipld.Null{}},
	}
	for _, tc := range cases {
		got, err := ipldprime.FromNode(tc.node)
		if err != nil {
			t.Fatalf("%s: %v", tc.node.Kind(), err)
		}
		if !ipld.Equal(got, tc.want) {
			t.Fatalf("%s: got %#v want %#v", tc.node.Kind(), got, tc.want)
		}
	}
}

func TestFromNode_Link(t *testing.T) {
	l := testLink(t)
	n, err := ipldprime.ToNode(l)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ipldprime.FromNode(n)
	if err != nil {
		t.Fatal(err)
	}
	gl, ok := got.(ipld.Link)
	if !ok || !gl.Cid.Equals(l.Cid) || gl.Cid.Type() != cbor42.Code {
		t.Fatalf("unexpected link %v", got)
	}
}
