package cbor42_test

import (
	"bytes"
	"testing"

	"xdao.co/cbor42/cbor42"
	"xdao.co/cbor42/ipld"
)

func reader(t *testing.T, s string) *cbor42.Reader {
	t.Helper()
	return cbor42.NewReader(bytes.NewReader(mustHex(t, s)))
}

func TestTyped_SignedRange(t *testing.T) {
	if v, err := cbor42.Read(reader(t, "387f"), cbor42.TryInt8); err != nil || v != -128 {
		t.Fatalf("int8 -128: %v %v", v, err)
	}
	if v, err := cbor42.Read(reader(t, "187f"), cbor42.TryInt8); err != nil || v != 127 {
		t.Fatalf("int8 127: %v %v", v, err)
	}
	_, err := cbor42.Read(reader(t, "1880"), cbor42.TryInt8)
	wantKind(t, err, cbor42.KindNumberOutOfRange)
	_, err = cbor42.Read(reader(t, "3880"), cbor42.TryInt8)
	wantKind(t, err, cbor42.KindNumberOutOfRange)

	// An int8 never needs a two byte argument.
	_, err = cbor42.Read(reader(t, "190001"), cbor42.TryInt8)
	wantKind(t, err, cbor42.KindUnexpectedCode)

	if v, err := cbor42.Read(reader(t, "3b7fffffffffffffff"), cbor42.TryInt64); err != nil || v != -1<<63 {
		t.Fatalf("int64 min: %v %v", v, err)
	}
	_, err = cbor42.Read(reader(t, "3b8000000000000000"), cbor42.TryInt64)
	wantKind(t, err, cbor42.KindNumberOutOfRange)
}

func TestTyped_Unsigned(t *testing.T) {
	if v, err := cbor42.Read(reader(t, "19ffff"), cbor42.TryUint16); err != nil || v != 0xffff {
		t.Fatalf("uint16: %v %v", v, err)
	}
	if v, err := cbor42.Read(reader(t, "1818"), cbor42.TryUint64); err != nil || v != 24 {
		t.Fatalf("uint64 narrow form: %v %v", v, err)
	}
	_, err := cbor42.Read(reader(t, "20"), cbor42.TryUint8)
	wantKind(t, err, cbor42.KindUnexpectedCode)
	_, err = cbor42.Read(reader(t, "1a00000001"), cbor42.TryUint16)
	wantKind(t, err, cbor42.KindUnexpectedCode)
}

func TestTyped_Floats(t *testing.T) {
	if v, err := cbor42.Read(reader(t, "fa3fc00000"), cbor42.TryFloat32); err != nil || v != 1.5 {
		t.Fatalf("float32: %v %v", v, err)
	}
	_, err := cbor42.Read(reader(t, "fb3fb999999999999a"), cbor42.TryFloat32)
	wantKind(t, err, cbor42.KindUnexpectedCode)
	if v, err := cbor42.Read(reader(t, "fa3fc00000"), cbor42.TryFloat64); err != nil || v != 1.5 {
		t.Fatalf("float64 from single: %v %v", v, err)
	}
	_, err = cbor42.Read(reader(t, "f93e00"), cbor42.TryFloat64)
	wantKind(t, err, cbor42.KindUnexpectedCode)
}

func TestTyped_TryReaderDeclinesWithoutConsuming(t *testing.T) {
	r := reader(t, "6161")
	lead, err := r.ReadU8()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := cbor42.TryUint32(r, lead); ok || err != nil {
		t.Fatalf("expected decline, got ok=%v err=%v", ok, err)
	}
	if r.Offset() != 1 {
		t.Fatalf("decline consumed input: offset %d", r.Offset())
	}
	s, ok, err := cbor42.TryString(r, lead)
	if !ok || err != nil || s != "a" {
		t.Fatalf("expected string, got %q ok=%v err=%v", s, ok, err)
	}
}

func TestTyped_Optional(t *testing.T) {
	opt := cbor42.TryOptional(cbor42.TryString)
	for _, in := range []string{"f6", "f7"} {
		v, err := cbor42.Read(reader(t, in), opt)
		if err != nil || v != nil {
			t.Fatalf("%s: expected nil, got %v %v", in, v, err)
		}
	}
	v, err := cbor42.Read(reader(t, "6161"), opt)
	if err != nil || v == nil || *v != "a" {
		t.Fatalf("expected \"a\", got %v %v", v, err)
	}
	_, err = cbor42.Read(reader(t, "01"), opt)
	wantKind(t, err, cbor42.KindUnexpectedCode)
	_, err = cbor42.Read(reader(t, "62c328"), opt)
	wantKind(t, err, cbor42.KindUTF8)
}

func TestTyped_Containers(t *testing.T) {
	l, err := cbor42.Read(reader(t, "83010219ffff"), cbor42.TryList(cbor42.TryUint16))
	if err != nil {
		t.Fatal(err)
	}
	if len(l) != 3 || l[0] != 1 || l[1] != 2 || l[2] != 0xffff {
		t.Fatalf("unexpected list %v", l)
	}
	_, err = cbor42.Read(reader(t, "8201f5"), cbor42.TryList(cbor42.TryUint16))
	wantKind(t, err, cbor42.KindUnexpectedCode)

	m, err := cbor42.Read(reader(t, "a26178f56178f4"), cbor42.TryMap(cbor42.TryBool))
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 1 || m["x"] {
		t.Fatalf("expected later duplicate to win, got %v", m)
	}

	links, err := cbor42.Read(reader(t, "80"), cbor42.TryList(cbor42.TryLink))
	if err != nil || len(links) != 0 {
		t.Fatalf("empty link list: %v %v", links, err)
	}
}

func TestTyped_TryValueAndInteger(t *testing.T) {
	v, err := cbor42.Read(reader(t, "3bffffffffffffffff"), cbor42.TryInteger)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "-18446744073709551616" {
		t.Fatalf("unexpected integer %s", v)
	}

	vals, err := cbor42.Read(reader(t, "8201a0"), cbor42.TryList(cbor42.TryValue))
	if err != nil {
		t.Fatal(err)
	}
	if !ipld.Equal(ipld.List(vals), ipld.List{ipld.Int(1), ipld.Map{}}) {
		t.Fatalf("unexpected values %v", vals)
	}
}

type point struct {
	Name string
	X, Y int64
	Tags []string
}

func (p *point) MarshalCBOR42(w *cbor42.Writer) error {
	if err := w.WriteMapHeader(4); err != nil {
		return err
	}
	if err := w.WriteTextString("name"); err != nil {
		return err
	}
	if err := w.WriteTextString(p.Name); err != nil {
		return err
	}
	if err := w.WriteTextString("tags"); err != nil {
		return err
	}
	if err := w.WriteListHeader(len(p.Tags)); err != nil {
		return err
	}
	for _, tag := range p.Tags {
		if err := w.WriteTextString(tag); err != nil {
			return err
		}
	}
	if err := w.WriteTextString("x"); err != nil {
		return err
	}
	if err := w.WriteInt(p.X); err != nil {
		return err
	}
	if err := w.WriteTextString("y"); err != nil {
		return err
	}
	return w.WriteInt(p.Y)
}

func (p *point) UnmarshalCBOR42(r *cbor42.Reader) error {
	if _, err := r.ReadMapHeader(); err != nil {
		return err
	}
	var err error
	if err = r.ReadKey("name"); err != nil {
		return err
	}
	if p.Name, err = cbor42.Read(r, cbor42.TryString); err != nil {
		return err
	}
	if err = r.ReadKey("tags"); err != nil {
		return err
	}
	if p.Tags, err = cbor42.Read(r, cbor42.TryList(cbor42.TryString)); err != nil {
		return err
	}
	if err = r.ReadKey("x"); err != nil {
		return err
	}
	if p.X, err = cbor42.Read(r, cbor42.TryInt64); err != nil {
		return err
	}
	if err = r.ReadKey("y"); err != nil {
		return err
	}
	p.Y, err = cbor42.Read(r, cbor42.TryInt64)
	return err
}

func TestRecord_MarshalUnmarshal(t *testing.T) {
	in := &point{Name: "origin", X: -3, Y: 70000, Tags: []string{"a", "b"}}
	data, err := cbor42.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}

	// A record written field by field in key order is a canonical value.
	v, err := cbor42.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if again := mustEncode(t, v); !bytes.Equal(again, data) {
		t.Fatalf("record encoding is not canonical: %x vs %x", data, again)
	}

	var out point
	if err := cbor42.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Name != in.Name || out.X != in.X || out.Y != in.Y || len(out.Tags) != 2 || out.Tags[1] != "b" {
		t.Fatalf("unexpected record %+v", out)
	}
}

func TestRecord_UnexpectedKey(t *testing.T) {
	data := mustEncode(t, ipld.Map{"nom": ipld.String("x")})
	var out point
	err := cbor42.Unmarshal(data, &out)
	wantKind(t, err, cbor42.KindUnexpectedKey)
}
