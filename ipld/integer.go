package ipld

import (
	"math"
	"math/big"
)

// Integer is an arbitrary precision signed integer.
//
// Values in [-2^64, 2^64-1], the range the wire format can carry, are held
// as a sign and a 64-bit magnitude: the value is mag when neg is false and
// -1-mag when neg is true. Anything wider is kept in a big.Int and will be
// rejected by the encoder. The zero value is 0.
type Integer struct {
	neg  bool
	mag  uint64
	wide *big.Int
}

var (
	minWire = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 64))
	maxWire = new(big.Int).SetUint64(math.MaxUint64)
)

// Int returns the Integer for i.
func Int(i int64) Integer {
	if i < 0 {
		return Integer{neg: true, mag: uint64(-(i + 1))}
	}
	return Integer{mag: uint64(i)}
}

// Uint returns the Integer for u.
func Uint(u uint64) Integer { return Integer{mag: u} }

// NegUint returns -1-mag, the integer carried by a CBOR major type 1 item
// with argument mag.
func NegUint(mag uint64) Integer { return Integer{neg: true, mag: mag} }

// BigInt returns the Integer for b. b is copied.
func BigInt(b *big.Int) Integer {
	if b == nil {
		return Integer{}
	}
	if b.Sign() >= 0 {
		if b.IsUint64() {
			return Integer{mag: b.Uint64()}
		}
		return Integer{wide: new(big.Int).Set(b)}
	}
	if b.Cmp(minWire) >= 0 {
		// -1 - b fits in 64 bits.
		m := new(big.Int).Neg(b)
		m.Sub(m, big.NewInt(1))
		return Integer{neg: true, mag: m.Uint64()}
	}
	return Integer{wide: new(big.Int).Set(b)}
}

// Wire reports the CBOR major type 0/1 argument for i. ok is false when i
// lies outside [-2^64, 2^64-1].
func (i Integer) Wire() (negative bool, mag uint64, ok bool) {
	if i.wide != nil {
		return false, 0, false
	}
	return i.neg, i.mag, true
}

// Big returns i as a new big.Int.
func (i Integer) Big() *big.Int {
	if i.wide != nil {
		return new(big.Int).Set(i.wide)
	}
	b := new(big.Int).SetUint64(i.mag)
	if i.neg {
		b.Neg(b)
		b.Sub(b, big.NewInt(1))
	}
	return b
}

// Int64 returns i if it fits in an int64.
func (i Integer) Int64() (int64, bool) {
	switch {
	case i.wide != nil:
		return 0, false
	case i.neg:
		if i.mag > math.MaxInt64 {
			return 0, false
		}
		return -1 - int64(i.mag), true
	default:
		if i.mag > math.MaxInt64 {
			return 0, false
		}
		return int64(i.mag), true
	}
}

// Uint64 returns i if it is non-negative and fits in a uint64.
func (i Integer) Uint64() (uint64, bool) {
	if i.wide != nil || i.neg {
		return 0, false
	}
	return i.mag, true
}

// Sign returns -1, 0 or +1.
func (i Integer) Sign() int {
	switch {
	case i.wide != nil:
		return i.wide.Sign()
	case i.neg:
		return -1
	case i.mag == 0:
		return 0
	default:
		return 1
	}
}

// Cmp compares i and j, returning -1, 0 or +1.
func (i Integer) Cmp(j Integer) int {
	if i.wide == nil && j.wide == nil {
		switch {
		case i.neg != j.neg:
			if i.neg {
				return -1
			}
			return 1
		case i.mag == j.mag:
			return 0
		case (i.mag < j.mag) != i.neg:
			// Among negatives a larger magnitude is a smaller number.
			return -1
		default:
			return 1
		}
	}
	return i.Big().Cmp(j.Big())
}

func (i Integer) String() string { return i.Big().String() }

// InWireRange reports whether b lies in [-2^64, 2^64-1].
func InWireRange(b *big.Int) bool {
	return b.Cmp(minWire) >= 0 && b.Cmp(maxWire) <= 0
}
