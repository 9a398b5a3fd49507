package anyexpr

import (
	"math"
	"math/big"
)

// Keys fixed in every pool.
const (
	keyNil = iota
	keyFalse
	keyTrue
	firstKey
)

// keySpace is the number of placeholder exponents reserved below big.MaxExp.
// Nothing short of deliberately constructing such a number comes within
// 2^(MaxExp-keySpace) of them.
const keySpace = 1 << 30

var half = big.NewFloat(0.5)

// Pool maps values that are not numbers to placeholder numbers and back. A
// placeholder is a power of two so large that arithmetic never produces it,
// and it is exact at every precision. A Pool is not safe for concurrent use.
//
// The placeholders for nil, false, and true are the same in every pool.
type Pool struct {
	vals []any
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// Box registers v and returns its placeholder. Each call registers a new
// entry, even if v is already in the pool.
func (p *Pool) Box(v any) *big.Float {
	return placeholder(new(big.Float), p.key(v))
}

// Unbox returns the value that x stands for. If x is not a placeholder, the
// result is x as a float64. Unboxing a placeholder that the pool never
// produced panics with a *PoolIntegrityError.
func (p *Pool) Unbox(x *big.Float) any {
	k, ok := keyOf(x)
	if !ok {
		f, _ := x.Float64()
		return f
	}
	return p.value(k)
}

// Len returns the number of values registered in the pool, not counting the
// fixed placeholders.
func (p *Pool) Len() int {
	return len(p.vals)
}

func (p *Pool) key(v any) int {
	switch v := v.(type) {
	case nil:
		return keyNil
	case bool:
		if v {
			return keyTrue
		}
		return keyFalse
	}
	k := firstKey + len(p.vals)
	if k >= keySpace {
		panic("anyexpr: pool exhausted")
	}
	p.vals = append(p.vals, v)
	return k
}

func (p *Pool) value(k int) any {
	switch k {
	case keyNil:
		return nil
	case keyFalse:
		return false
	case keyTrue:
		return true
	}
	i := k - firstKey
	if i >= len(p.vals) {
		panic(&PoolIntegrityError{Key: k})
	}
	return p.vals[i]
}

// placeholder sets z to the placeholder for key k and returns z.
func placeholder(z *big.Float, k int) *big.Float {
	return z.SetMantExp(half, big.MaxExp-k)
}

// keyOf returns the key that x is the placeholder for, or false if x is not a
// placeholder.
func keyOf(x *big.Float) (int, bool) {
	if x.Sign() <= 0 || x.IsInf() {
		return 0, false
	}
	var m big.Float
	e := x.MantExp(&m)
	if e <= big.MaxExp-keySpace || m.Cmp(half) != 0 {
		return 0, false
	}
	return big.MaxExp - e, true
}

// setNumber sets z to v if v has a builtin numeric type and reports whether it
// did. Named numeric types, NaNs, and numbers that look like placeholders
// don't count.
func setNumber(z *big.Float, v any) bool {
	switch v := v.(type) {
	case int:
		z.SetInt64(int64(v))
	case int8:
		z.SetInt64(int64(v))
	case int16:
		z.SetInt64(int64(v))
	case int32:
		z.SetInt64(int64(v))
	case int64:
		z.SetInt64(v)
	case uint:
		z.SetUint64(uint64(v))
	case uint8:
		z.SetUint64(uint64(v))
	case uint16:
		z.SetUint64(uint64(v))
	case uint32:
		z.SetUint64(uint64(v))
	case uint64:
		z.SetUint64(v)
	case float32:
		if math.IsNaN(float64(v)) {
			return false
		}
		z.SetFloat64(float64(v))
	case float64:
		if math.IsNaN(v) {
			return false
		}
		z.SetFloat64(v)
	case *big.Float:
		if v == nil {
			return false
		}
		z.Set(v)
	case *big.Int:
		if v == nil {
			return false
		}
		z.SetInt(v)
	case *big.Rat:
		if v == nil {
			return false
		}
		z.SetRat(v)
	default:
		return false
	}
	_, ok := keyOf(z)
	return !ok
}
