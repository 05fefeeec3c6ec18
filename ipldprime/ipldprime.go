// Package ipldprime converts between ipld.Value and go-ipld-prime nodes.
//
// The conversion is lossless for every value the cbor42 codec can encode
// except integers outside the int64 range, which go-ipld-prime's basic
// node implementation can only hold when unsigned.
package ipldprime

import (
	"errors"
	"fmt"

	"github.com/ipld/go-ipld-prime/datamodel"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"

	"xdao.co/cbor42/ipld"
)

// ErrIntegerRange reports an integer that has no go-ipld-prime
// representation.
var ErrIntegerRange = errors.New("ipldprime: integer out of range")

// ToNode builds a basicnode tree holding v.
func ToNode(v ipld.Value) (datamodel.Node, error) {
	if n, ok, err := scalarNode(v); ok || err != nil {
		return n, err
	}
	nb := basicnode.Prototype.Any.NewBuilder()
	if err := assemble(nb, v); err != nil {
		return nil, err
	}
	return nb.Build(), nil
}

// Large unsigned integers need a dedicated node type; the Any assembler
// only accepts int64.
func scalarNode(v ipld.Value) (datamodel.Node, bool, error) {
	i, ok := v.(ipld.Integer)
	if !ok {
		return nil, false, nil
	}
	if n, ok := i.Int64(); ok {
		return basicnode.NewInt(n), true, nil
	}
	if u, ok := i.Uint64(); ok {
		return basicnode.NewUint(u), true, nil
	}
	return nil, true, fmt.Errorf("%w: %s", ErrIntegerRange, i)
}

func assemble(na datamodel.NodeAssembler, v ipld.Value) error {
	switch x := v.(type) {
	case nil, ipld.Null:
		return na.AssignNull()
	case ipld.Bool:
		return na.AssignBool(bool(x))
	case ipld.Integer:
		n, _, err := scalarNode(x)
		if err != nil {
			return err
		}
		return na.AssignNode(n)
	case ipld.Float:
		return na.AssignFloat(float64(x))
	case ipld.Bytes:
		return na.AssignBytes([]byte(x))
	case ipld.String:
		return na.AssignString(string(x))
	case ipld.Link:
		return na.AssignLink(cidlink.Link{Cid: x.Cid})
	case ipld.List:
		la, err := na.BeginList(int64(len(x)))
		if err != nil {
			return err
		}
		for _, item := range x {
			if err := assemble(la.AssembleValue(), item); err != nil {
				return err
			}
		}
		return la.Finish()
	case ipld.Map:
		ma, err := na.BeginMap(int64(len(x)))
		if err != nil {
			return err
		}
		for _, k := range x.Keys() {
			va, err := ma.AssembleEntry(k)
			if err != nil {
				return err
			}
			if err := assemble(va, x[k]); err != nil {
				return err
			}
		}
		return ma.Finish()
	default:
		return fmt.Errorf("ipldprime: unsupported value %T", v)
	}
}

// FromNode converts n into an ipld.Value. Links must be CID links.
func FromNode(n datamodel.Node) (ipld.Value, error) {
	switch n.Kind() {
	case datamodel.Kind_Null:
		return ipld.Null{}, nil
	case datamodel.Kind_Bool:
		b, err := n.AsBool()
		return ipld.Bool(b), err
	case datamodel.Kind_Int:
		if un, ok := n.(datamodel.UintNode); ok {
			if u, err := un.AsUint(); err == nil {
				return ipld.Uint(u), nil
			}
		}
		i, err := n.AsInt()
		return ipld.Int(i), err
	case datamodel.Kind_Float:
		f, err := n.AsFloat()
		return ipld.Float(f), err
	case datamodel.Kind_String:
		s, err := n.AsString()
		return ipld.String(s), err
	case datamodel.Kind_Bytes:
		b, err := n.AsBytes()
		return ipld.Bytes(b), err
	case datamodel.Kind_Link:
		l, err := n.AsLink()
		if err != nil {
			return nil, err
		}
		cl, ok := l.(cidlink.Link)
		if !ok {
			return nil, fmt.Errorf("ipldprime: unsupported link type %T", l)
		}
		return ipld.NewLink(cl.Cid), nil
	case datamodel.Kind_List:
		out := make(ipld.List, 0, n.Length())
		it := n.ListIterator()
		for !it.Done() {
			_, item, err := it.Next()
			if err != nil {
				return nil, err
			}
			v, err := FromNode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case datamodel.Kind_Map:
		out := make(ipld.Map, n.Length())
		it := n.MapIterator()
		for !it.Done() {
			kn, vn, err := it.Next()
			if err != nil {
				return nil, err
			}
			k, err := kn.AsString()
			if err != nil {
				return nil, fmt.Errorf("ipldprime: map key: %w", err)
			}
			v, err := FromNode(vn)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("ipldprime: unsupported node kind %s", n.Kind())
	}
}
