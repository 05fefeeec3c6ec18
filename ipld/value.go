// Package ipld defines the generic value model encoded by the cbor42 codec.
//
// A Value is one of a closed set of variants: Null, Bool, Integer, Float,
// Bytes, String, List, Map and Link. Values carry no shared state; a decode
// always builds a fresh tree.
package ipld

import (
	"sort"

	"github.com/ipfs/go-cid"
)

// Kind discriminates the Value variants.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindBytes
	KindString
	KindList
	KindMap
	KindLink
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBool:    "bool",
	KindInteger: "integer",
	KindFloat:   "float",
	KindBytes:   "bytes",
	KindString:  "string",
	KindList:    "list",
	KindMap:     "map",
	KindLink:    "link",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is implemented only by the variant types of this package.
type Value interface {
	Kind() Kind
	isValue()
}

// Null is the null value.
type Null struct{}

// Bool is a boolean value.
type Bool bool

// Float is a double precision float.
type Float float64

// Bytes is a byte string.
type Bytes []byte

// String is a UTF-8 text string.
type String string

// List is an ordered sequence of values.
type List []Value

// Map maps text keys to values. Iteration through Keys or Range follows
// bytewise key order; the Go map itself is only storage.
type Map map[string]Value

// Link references another block by CID.
type Link struct {
	Cid cid.Cid
}

func (Null) Kind() Kind    { return KindNull }
func (Bool) Kind() Kind    { return KindBool }
func (Integer) Kind() Kind { return KindInteger }
func (Float) Kind() Kind   { return KindFloat }
func (Bytes) Kind() Kind   { return KindBytes }
func (String) Kind() Kind  { return KindString }
func (List) Kind() Kind    { return KindList }
func (Map) Kind() Kind     { return KindMap }
func (Link) Kind() Kind    { return KindLink }

func (Null) isValue()    {}
func (Bool) isValue()    {}
func (Integer) isValue() {}
func (Float) isValue()   {}
func (Bytes) isValue()   {}
func (String) isValue()  {}
func (List) isValue()    {}
func (Map) isValue()     {}
func (Link) isValue()    {}

// NewLink wraps c as a Link value.
func NewLink(c cid.Cid) Link { return Link{Cid: c} }

// Keys returns the map keys in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Range calls fn for every entry in sorted key order until fn returns an
// error, which is returned.
func (m Map) Range(fn func(key string, v Value) error) error {
	for _, k := range m.Keys() {
		if err := fn(k, m[k]); err != nil {
			return err
		}
	}
	return nil
}

// Walk visits v and every value nested inside it, depth first, in list
// order and sorted map key order. Returning an error stops the walk.
func Walk(v Value, fn func(Value) error) error {
	if err := fn(v); err != nil {
		return err
	}
	switch t := v.(type) {
	case List:
		for _, e := range t {
			if err := Walk(e, fn); err != nil {
				return err
			}
		}
	case Map:
		return t.Range(func(_ string, e Value) error {
			return Walk(e, fn)
		})
	}
	return nil
}

// Links returns every link in v in walk order, duplicates included.
func Links(v Value) []cid.Cid {
	var out []cid.Cid
	_ = Walk(v, func(e Value) error {
		if l, ok := e.(Link); ok {
			out = append(out, l.Cid)
		}
		return nil
	})
	return out
}
