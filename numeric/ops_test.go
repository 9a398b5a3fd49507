package numeric_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/zephyrtronium/anyexpr/numeric"
)

// operands evaluates all operands of op.
func operands(op *numeric.Operation) ([]*big.Float, error) {
	args := make([]*big.Float, op.Len())
	for i := range args {
		x, err := op.Operand(i)
		if err != nil {
			return nil, err
		}
		args[i] = x
	}
	return args, nil
}

func TestSetOperator(t *testing.T) {
	mul := func(op *numeric.Operation, r *big.Float) error {
		args, err := operands(op)
		if err != nil {
			return err
		}
		r.Mul(args[0], args[1])
		return nil
	}
	twice := func(op *numeric.Operation, r *big.Float) error {
		args, err := operands(op)
		if err != nil {
			return err
		}
		if err := op.Default(args, r); err != nil {
			return err
		}
		r.Add(r, r)
		return nil
	}
	zero := func(op *numeric.Operation, r *big.Float) error {
		if op.Len() != 0 {
			t.Errorf("%v has %d operands", op.Symbol(), op.Len())
		}
		r.SetInt64(0)
		return nil
	}
	cases := []struct {
		name string
		src  string
		sym  numeric.Symbol
		op   numeric.Operator
		want float64
	}{
		{"add", "2 + 3", numeric.Infix("+"), mul, 6},
		{"add-nested", "1 + 2 + 3", numeric.Infix("+"), mul, 6},
		{"add-untouched", "2 * 3 - 1", numeric.Infix("+"), mul, 5},
		{"terms", "2 3", numeric.Infix("*"), twice, 12},
		{"altmul", "2 × 3", numeric.Infix("*"), twice, 12},
		{"altdiv", "3 ÷ 2", numeric.Infix("/"), twice, 3},
		{"neg", "-4", numeric.Prefix("-"), twice, -8},
		{"sub", "5 - 4", numeric.Prefix("-"), twice, 1},
		{"not", "!0", numeric.Prefix("!"), twice, 2},
		{"eq", "1 == 1", numeric.Infix("=="), twice, 2},
		{"pow", "2^3", numeric.Infix("^"), twice, 16},
		{"cond", "1 ? 4 : 5", numeric.Infix("?:"), twice, 8},
		{"cond-false", "0 ? 4 : 5", numeric.Infix("?:"), twice, 10},
		{"and", "1 && 2", numeric.Infix("&&"), twice, 2},
		{"or", "0 || 0", numeric.Infix("||"), twice, 0},
		{"coalesce", "3 ?? 4", numeric.Infix("??"), twice, 6},
		{"func", "sqrt 16", numeric.Function("sqrt", 1), twice, 8},
		{"func-niladic", "pi", numeric.Function("pi", 0), zero, 0},
		{"func-arity", "log(100) + log(8, 2)", numeric.Function("log", 2), twice, 8},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := numeric.ParseString(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			ctx := numeric.NewContext(numeric.SetOperator(c.sym, c.op))
			r := a.Eval(ctx)
			if err := ctx.Err(); err != nil {
				t.Fatalf("%q failed to evaluate: %v", c.src, err)
			}
			if f, _ := r.Float64(); !near(f, c.want) {
				t.Errorf("%q: want %g, got %g", c.src, c.want, r)
			}
		})
	}
}

func TestOperationSymbol(t *testing.T) {
	var got []numeric.Symbol
	record := func(op *numeric.Operation, r *big.Float) error {
		got = append(got, op.Symbol())
		args, err := operands(op)
		if err != nil {
			return err
		}
		return op.Default(args, r)
	}
	syms := []numeric.Symbol{
		numeric.Infix("*"),
		numeric.Infix("+"),
		numeric.Prefix("-"),
		numeric.Function("exp", 1),
	}
	ops := make(map[numeric.Symbol]numeric.Operator)
	for _, s := range syms {
		ops[s] = record
	}
	a, err := numeric.ParseString("-(2 × 3) + exp 0")
	if err != nil {
		t.Fatal(err)
	}
	ctx := numeric.NewContext(numeric.SetOperators(ops))
	r := a.Eval(ctx)
	if err := ctx.Err(); err != nil {
		t.Fatal(err)
	}
	if f, _ := r.Float64(); f != -5 {
		t.Errorf("wrong result: want -5, got %g", r)
	}
	// Operators are entered outermost first.
	want := []numeric.Symbol{
		numeric.Infix("+"),
		numeric.Prefix("-"),
		numeric.Infix("*"),
		numeric.Function("exp", 1),
	}
	if len(got) != len(want) {
		t.Fatalf("wrong symbols: want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("symbol %d: want %v, got %v", i, want[i], got[i])
		}
	}
}

func TestOperandsLazy(t *testing.T) {
	calls := 0
	resolve := func(ctx *numeric.Context, name string, r *big.Float) (bool, error) {
		calls++
		r.SetInt64(1)
		return true, nil
	}
	first := func(op *numeric.Operation, r *big.Float) error {
		x, err := op.Operand(0)
		if err != nil {
			return err
		}
		r.Set(x)
		return nil
	}
	cases := []struct {
		name  string
		src   string
		calls int
	}{
		{"both", "x + y", 1},
		{"repeat", "x + x", 1},
		{"nested", "(x + y) + z", 1},
		{"none", "2 + x", 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			calls = 0
			a, err := numeric.ParseString(c.src)
			if err != nil {
				t.Fatal(err)
			}
			ctx := numeric.NewContext(numeric.SetResolver(resolve), numeric.SetOperator(numeric.Infix("+"), first))
			a.Eval(ctx)
			if err := ctx.Err(); err != nil {
				t.Fatal(err)
			}
			if calls != c.calls {
				t.Errorf("%q resolved %d names, want %d", c.src, calls, c.calls)
			}
		})
	}
}

func TestOperandRepeated(t *testing.T) {
	calls := 0
	resolve := func(ctx *numeric.Context, name string, r *big.Float) (bool, error) {
		calls++
		r.SetInt64(int64(calls))
		return true, nil
	}
	// Each Operand call evaluates again.
	again := func(op *numeric.Operation, r *big.Float) error {
		x, err := op.Operand(0)
		if err != nil {
			return err
		}
		y, err := op.Operand(0)
		if err != nil {
			return err
		}
		r.Add(x, y)
		return nil
	}
	a, err := numeric.ParseString("-x")
	if err != nil {
		t.Fatal(err)
	}
	ctx := numeric.NewContext(numeric.SetResolver(resolve), numeric.SetOperator(numeric.Prefix("-"), again))
	r := a.Eval(ctx)
	if err := ctx.Err(); err != nil {
		t.Fatal(err)
	}
	if f, _ := r.Float64(); f != 3 {
		t.Errorf("want 1+2=3, got %g", r)
	}
	if calls != 2 {
		t.Errorf("resolved %d times, want 2", calls)
	}
}

func TestResolver(t *testing.T) {
	errBad := errors.New("bad name")
	calls := map[string]int{}
	resolve := func(ctx *numeric.Context, name string, r *big.Float) (bool, error) {
		calls[name]++
		switch name {
		case "x":
			r.SetInt64(3)
			return true, nil
		case "bad":
			return false, errBad
		default:
			return false, nil
		}
	}
	cases := []struct {
		name  string
		src   string
		want  float64
		err   error
		calls map[string]int
	}{
		{"found", "x + 1", 4, nil, map[string]int{"x": 1}},
		{"twice", "x * x", 9, nil, map[string]int{"x": 2}},
		{"set-first", "y + x", 5, nil, map[string]int{"x": 1}},
		{"short-and", "0 && x", 0, nil, map[string]int{}},
		{"short-or", "1 || x", 1, nil, map[string]int{}},
		{"short-cond", "1 ? 2 : x", 2, nil, map[string]int{}},
		{"coalesce", "y ?? x", 2, nil, map[string]int{}},
		{"missing", "x + z", 0, new(numeric.NameError), map[string]int{"x": 1, "z": 1}},
		{"error", "x + bad", 0, errBad, map[string]int{"x": 1, "bad": 1}},
		{"error-first", "bad + x", 0, errBad, map[string]int{"bad": 1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for k := range calls {
				delete(calls, k)
			}
			a, err := numeric.ParseString(c.src)
			if err != nil {
				t.Fatal(err)
			}
			ctx := numeric.NewContext(numeric.SetVar("y", big.NewFloat(2)), numeric.SetResolver(resolve))
			r := a.Eval(ctx)
			switch {
			case c.err == nil:
				if err := ctx.Err(); err != nil {
					t.Fatalf("%q failed: %v", c.src, err)
				}
				if f, _ := r.Float64(); f != c.want {
					t.Errorf("%q: want %g, got %g", c.src, c.want, r)
				}
			case c.err == errBad:
				if !errors.Is(ctx.Err(), errBad) {
					t.Errorf("%q: want %v, got %v", c.src, errBad, ctx.Err())
				}
			default:
				var ne *numeric.NameError
				if !errors.As(ctx.Err(), &ne) {
					t.Fatalf("%q: want NameError, got %#v", c.src, ctx.Err())
				}
				if ne.Name != "z" {
					t.Errorf("%q: NameError for %q", c.src, ne.Name)
				}
			}
			if len(calls) != len(c.calls) {
				t.Errorf("%q: want calls %v, got %v", c.src, c.calls, calls)
			}
			for k, v := range c.calls {
				if calls[k] != v {
					t.Errorf("%q: want %d calls for %s, got %d", c.src, v, k, calls[k])
				}
			}
		})
	}
}

func TestLookupIgnoresResolver(t *testing.T) {
	resolve := func(ctx *numeric.Context, name string, r *big.Float) (bool, error) {
		r.SetInt64(1)
		return true, nil
	}
	ctx := numeric.NewContext(numeric.SetResolver(resolve))
	if x := ctx.Lookup("x"); x != nil {
		t.Errorf("Lookup found %g through resolver", x)
	}
}

func TestCloneOperators(t *testing.T) {
	zero := func(op *numeric.Operation, r *big.Float) error {
		r.SetInt64(0)
		return nil
	}
	a, err := numeric.ParseString("2 + 3")
	if err != nil {
		t.Fatal(err)
	}
	base := numeric.NewContext(numeric.SetOperator(numeric.Infix("+"), zero))
	cases := []struct {
		name string
		ctx  *numeric.Context
		want float64
	}{
		{"base", base, 0},
		{"clone", base.Clone(), 0},
		{"restore", base.Clone(numeric.SetOperator(numeric.Infix("+"), nil)), 5},
		{"base-after", base, 0},
		{"other", base.Clone(numeric.SetOperator(numeric.Infix("-"), nil)), 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := a.Eval(c.ctx)
			if err := c.ctx.Err(); err != nil {
				t.Fatal(err)
			}
			if f, _ := r.Float64(); f != c.want {
				t.Errorf("want %g, got %g", c.want, r)
			}
		})
	}
}

func TestOverrideVariablePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("overriding a variable did not panic")
		}
	}()
	numeric.NewContext(numeric.SetOperator(numeric.Variable("x"), func(op *numeric.Operation, r *big.Float) error { return nil }))
}

func TestOperatorError(t *testing.T) {
	errOp := errors.New("no")
	fail := func(op *numeric.Operation, r *big.Float) error {
		return errOp
	}
	a, err := numeric.ParseString("1 + 2 * 3")
	if err != nil {
		t.Fatal(err)
	}
	ctx := numeric.NewContext(numeric.SetOperator(numeric.Infix("*"), fail))
	if r := a.Eval(ctx); r != nil {
		t.Errorf("failed operator gave result %g", r)
	}
	if !errors.Is(ctx.Err(), errOp) {
		t.Errorf("wrong error: %v", ctx.Err())
	}
	// The context is still usable.
	b, err := numeric.ParseString("1 + 2")
	if err != nil {
		t.Fatal(err)
	}
	if r := b.Eval(ctx); r == nil {
		t.Errorf("context unusable after operator error: %v", ctx.Err())
	}
}
