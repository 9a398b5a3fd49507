package anyexpr

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"

	"github.com/zephyrtronium/anyexpr/numeric"
)

// Equaler is implemented by values that decide their own equality for == and
// !=. Equal receives the other operand, with numbers as float64.
type Equaler interface {
	Equal(other any) bool
}

// evaluation is the state of one call to Evaluate.
type evaluation struct {
	e    *Expression
	pool *Pool
}

// value is an evaluated operand.
type value struct {
	// x is the operand as the numeric evaluator has it.
	x *big.Float
	// v is the boxed value if boxed is true.
	v     any
	boxed bool
}

func (ev *evaluation) value(x *big.Float) value {
	k, ok := keyOf(x)
	if !ok {
		return value{x: x}
	}
	return value{x: x, v: ev.pool.value(k), boxed: true}
}

// any returns the value as callbacks see it.
func (v value) any() any {
	if v.boxed {
		return v.v
	}
	f, _ := v.x.Float64()
	return f
}

func (v value) isNil() bool {
	return v.boxed && v.v == nil
}

func (v value) typeName() string {
	switch {
	case !v.boxed:
		return "number"
	case v.v == nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", v.v)
	}
}

// text formats the value for concatenation.
func (v value) text() string {
	if !v.boxed {
		f, _ := v.x.Float64()
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	if s, ok := v.v.(string); ok {
		return s
	}
	return fmt.Sprint(v.v)
}

// truth reports whether the value is true as a condition.
func (v value) truth() bool {
	if !v.boxed {
		return v.x.Sign() != 0
	}
	switch b := v.v.(type) {
	case nil:
		return false
	case bool:
		return b
	default:
		return true
	}
}

// operand evaluates and unboxes the i'th operand of op.
func (ev *evaluation) operand(op *numeric.Operation, i int) (value, error) {
	x, err := op.Operand(i)
	if err != nil {
		return value{}, err
	}
	return ev.value(x), nil
}

// operands evaluates and unboxes all operands of op in order.
func (ev *evaluation) operands(op *numeric.Operation) ([]value, error) {
	vals := make([]value, op.Len())
	for i := range vals {
		v, err := ev.operand(op, i)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// number converts an operand for arithmetic. Booleans are 1 and 0.
func number(op *numeric.Operation, v value, vals ...value) (*big.Float, error) {
	if !v.boxed {
		return v.x, nil
	}
	switch b := v.v.(type) {
	case nil:
		return nil, &NilOperandError{Sym: op.Symbol()}
	case bool:
		r := new(big.Float)
		setBool(r, b)
		return r, nil
	default:
		return nil, mismatch(op, vals...)
	}
}

func mismatch(op *numeric.Operation, vals ...value) error {
	types := make([]string, len(vals))
	for i, v := range vals {
		types[i] = v.typeName()
	}
	return &TypeMismatchError{Sym: op.Symbol(), Types: types}
}

func setBool(r *big.Float, b bool) {
	if b {
		r.SetInt64(1)
	} else {
		r.SetInt64(0)
	}
}

// store sets r to a host value, boxing it if it is not a number.
func (ev *evaluation) store(r *big.Float, v any) {
	if !setNumber(r, v) {
		placeholder(r, ev.pool.key(v))
	}
}

func (ev *evaluation) operator(kind opKind) numeric.Operator {
	switch kind {
	case opGuard:
		return ev.guard
	case opAdd:
		return ev.add
	case opEqual:
		return ev.equal
	case opOrder:
		return ev.order
	case opLogic:
		return ev.logic
	case opCoalesce:
		return ev.coalesce
	case opCond:
		return ev.cond
	case opCall:
		return ev.call
	default:
		panic("anyexpr: unknown operator kind " + strconv.Itoa(int(kind)))
	}
}

// guard applies an operator's numeric meaning to operands that are numbers.
func (ev *evaluation) guard(op *numeric.Operation, r *big.Float) error {
	vals, err := ev.operands(op)
	if err != nil {
		return err
	}
	args := make([]*big.Float, len(vals))
	for i, v := range vals {
		x, err := number(op, v, vals...)
		if err != nil {
			return err
		}
		args[i] = x
	}
	if err := op.Default(args, r); err != nil {
		return err
	}
	saturate(r)
	return nil
}

// add concatenates when either operand is a string and adds otherwise.
func (ev *evaluation) add(op *numeric.Operation, r *big.Float) error {
	vals, err := ev.operands(op)
	if err != nil {
		return err
	}
	a, b := vals[0], vals[1]
	if a.isNil() || b.isNil() {
		return &NilOperandError{Sym: op.Symbol()}
	}
	_, as := a.v.(string)
	_, bs := b.v.(string)
	if as || bs {
		ev.store(r, a.text()+b.text())
		return nil
	}
	x, err := number(op, a, a, b)
	if err != nil {
		return err
	}
	y, err := number(op, b, a, b)
	if err != nil {
		return err
	}
	if err := op.Default([]*big.Float{x, y}, r); err != nil {
		return err
	}
	saturate(r)
	return nil
}

// saturate replaces an arithmetic result in the placeholder range with +Inf.
func saturate(r *big.Float) {
	if _, ok := keyOf(r); ok {
		r.SetInf(false)
	}
}

// equal implements == and !=.
func (ev *evaluation) equal(op *numeric.Operation, r *big.Float) error {
	vals, err := ev.operands(op)
	if err != nil {
		return err
	}
	eq, err := equal(op, vals[0], vals[1])
	if err != nil {
		return err
	}
	if op.Symbol().Name == "!=" {
		eq = !eq
	}
	setBool(r, eq)
	return nil
}

func equal(op *numeric.Operation, a, b value) (bool, error) {
	if !a.boxed && !b.boxed {
		return a.x.Cmp(b.x) == 0, nil
	}
	if a.isNil() || b.isNil() {
		return a.isNil() && b.isNil(), nil
	}
	if e, ok := a.v.(Equaler); ok {
		return e.Equal(b.any()), nil
	}
	if e, ok := b.v.(Equaler); ok {
		return e.Equal(a.any()), nil
	}
	_, ab := a.v.(bool)
	_, bb := b.v.(bool)
	if (ab || !a.boxed) && (bb || !b.boxed) {
		// Numbers and booleans compare as numbers.
		x, _ := number(op, a)
		y, _ := number(op, b)
		return x.Cmp(y) == 0, nil
	}
	if !a.boxed || !b.boxed {
		return false, nil
	}
	t := reflect.TypeOf(a.v)
	if t != reflect.TypeOf(b.v) {
		return false, nil
	}
	if !t.Comparable() {
		return false, mismatch(op, a, b)
	}
	return compare(op, a, b)
}

// compare compares values of the same comparable type. Interface fields can
// still hold incomparable values, which makes == panic.
func compare(op *numeric.Operation, a, b value) (eq bool, err error) {
	defer func() {
		if recover() != nil {
			eq, err = false, mismatch(op, a, b)
		}
	}()
	return a.v == b.v, nil
}

// order implements <, >, <=, and >= for numbers and strings.
func (ev *evaluation) order(op *numeric.Operation, r *big.Float) error {
	vals, err := ev.operands(op)
	if err != nil {
		return err
	}
	a, b := vals[0], vals[1]
	if a.isNil() || b.isNil() {
		return &NilOperandError{Sym: op.Symbol()}
	}
	if !a.boxed && !b.boxed {
		return op.Default([]*big.Float{a.x, b.x}, r)
	}
	s, as := a.v.(string)
	t, bs := b.v.(string)
	if !as || !bs {
		return mismatch(op, a, b)
	}
	var c bool
	switch op.Symbol().Name {
	case "<":
		c = s < t
	case ">":
		c = s > t
	case "<=":
		c = s <= t
	case ">=":
		c = s >= t
	default:
		panic("anyexpr: not an ordering: " + op.Symbol().String())
	}
	setBool(r, c)
	return nil
}

// logic implements && and || with numeric conditions.
func (ev *evaluation) logic(op *numeric.Operation, r *big.Float) error {
	a, err := ev.operand(op, 0)
	if err != nil {
		return err
	}
	x, err := number(op, a, a)
	if err != nil {
		return err
	}
	or := op.Symbol().Name == "||"
	if (x.Sign() != 0) == or {
		setBool(r, or)
		return nil
	}
	b, err := ev.operand(op, 1)
	if err != nil {
		return err
	}
	y, err := number(op, b, a, b)
	if err != nil {
		return err
	}
	setBool(r, y.Sign() != 0)
	return nil
}

// coalesce evaluates its right operand only if the left is nil.
func (ev *evaluation) coalesce(op *numeric.Operation, r *big.Float) error {
	a, err := ev.operand(op, 0)
	if err != nil {
		return err
	}
	if !a.isNil() {
		r.Set(a.x)
		return nil
	}
	b, err := ev.operand(op, 1)
	if err != nil {
		return err
	}
	r.Set(b.x)
	return nil
}

// cond evaluates exactly one branch.
func (ev *evaluation) cond(op *numeric.Operation, r *big.Float) error {
	c, err := ev.operand(op, 0)
	if err != nil {
		return err
	}
	i := 2
	if c.truth() {
		i = 1
	}
	v, err := ev.operand(op, i)
	if err != nil {
		return err
	}
	r.Set(v.x)
	return nil
}

// call computes a caller's function.
func (ev *evaluation) call(op *numeric.Operation, r *big.Float) error {
	vals, err := ev.operands(op)
	if err != nil {
		return err
	}
	args := make([]any, len(vals))
	for i, v := range vals {
		args[i] = v.any()
	}
	v, err := ev.lookup(op.Symbol(), args)
	if err != nil {
		return err
	}
	ev.store(r, v)
	return nil
}

// resolve finds the value of a variable which has no numeric constant.
func (ev *evaluation) resolve(ctx *numeric.Context, name string, r *big.Float) (bool, error) {
	if s, ok := numeric.Unquote(name); ok {
		placeholder(r, ev.pool.key(s))
		return true, nil
	}
	if v, ok := ev.e.consts[name]; ok {
		placeholder(r, ev.pool.key(v))
		return true, nil
	}
	v, err := ev.lookup(Variable(name), nil)
	if err != nil {
		return false, err
	}
	ev.store(r, v)
	return true, nil
}

// lookup calls the symbol function or resolver for a symbol.
func (ev *evaluation) lookup(sym Symbol, args []any) (any, error) {
	if f := ev.e.funcs[sym]; f != nil {
		v, err := f(args)
		if err != nil {
			return nil, &CallError{Sym: sym, Err: err}
		}
		return v, nil
	}
	if ev.e.resolve != nil {
		v, ok, err := ev.e.resolve(sym, args)
		if err != nil {
			return nil, &CallError{Sym: sym, Err: err}
		}
		if ok {
			return v, nil
		}
	}
	return nil, &UnboundSymbolError{Sym: sym}
}
