package ipld

import "bytes"

// Equal reports whether a and b are structurally equal. Floats compare with
// ==, so a NaN is never equal to anything.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Integer:
		y, ok := b.(Integer)
		return ok && x.Cmp(y) == 0
	case Float:
		y, ok := b.(Float)
		return ok && x == y
	case Bytes:
		y, ok := b.(Bytes)
		return ok && bytes.Equal(x, y)
	case String:
		y, ok := b.(String)
		return ok && x == y
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Map:
		y, ok := b.(Map)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case Link:
		y, ok := b.(Link)
		return ok && x.Cid.Equals(y.Cid)
	}
	return false
}
