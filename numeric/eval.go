package numeric

import (
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/zephyrtronium/bigfloat"
)

// Context is a context for evaluating expressions. It is not safe to use a
// Context concurrently.
type Context struct {
	stack   []*big.Float
	nums    map[string]*big.Float
	names   map[string]*big.Float
	ops     map[Symbol]Operator
	resolve Resolver
	prec    uint
	err     error
}

// Resolver looks up a variable that has no value set in a context. It sets r
// to the variable's value and returns true, or returns false if it does not
// know the name. A Resolver is called each time evaluation reaches the name,
// and only then.
type Resolver func(ctx *Context, name string, r *big.Float) (bool, error)

// Operator replaces the meaning of an operator or function. It must set r to
// its result. Operands are evaluated only when the Operator asks for them
// through op, so an Operator decides which subexpressions run at all.
type Operator func(op *Operation, r *big.Float) error

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	varopt struct {
		name string
		val  *big.Float
	}
	varsopt map[string]*big.Float
	precopt uint
	opopt   struct {
		sym Symbol
		fn  Operator
	}
	opsopt      map[Symbol]Operator
	resolveropt Resolver
)

func (varopt) ctxOption()      {}
func (varsopt) ctxOption()     {}
func (precopt) ctxOption()     {}
func (opopt) ctxOption()       {}
func (opsopt) ctxOption()      {}
func (resolveropt) ctxOption() {}

// SetVar sets the value of a variable in the context.
func SetVar(name string, val *big.Float) ContextOption {
	return varopt{name, val}
}

// SetVars sets the values of any number of variables in the context.
func SetVars(vars map[string]*big.Float) ContextOption {
	return varsopt(vars)
}

// Prec sets the precision of calculations.
func Prec(prec uint) ContextOption {
	return precopt(prec)
}

// SetOperator overrides an operator or function symbol in the context. A nil
// fn restores the default meaning. Variable symbols cannot be overridden; use
// SetResolver instead.
func SetOperator(sym Symbol, fn Operator) ContextOption {
	return opopt{sym, fn}
}

// SetOperators overrides any number of operator or function symbols in the
// context.
func SetOperators(ops map[Symbol]Operator) ContextOption {
	return opsopt(ops)
}

// SetResolver sets the function to look up variables which have no value in
// the context.
func SetResolver(r Resolver) ContextOption {
	return resolveropt(r)
}

// NewContext creates a new evaluation context. If no precision is given, the
// default is 64.
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{nums: make(map[string]*big.Float), prec: 64}
	return ctx.Clone(opts...)
}

// Eval evaluates an expression returns the result. If an
// error occurs, e.g. a missing variable definition or an argument to a
// function is outside the function's domain, then the result is nil and
// ctx.Err returns the error. The context remains usable after an error.
func (ctx *Context) Eval(e *Expr) *big.Float {
	switch len(ctx.stack) {
	case 0: // do nothing
	case 1:
		ctx.stack[0] = new(big.Float).SetPrec(ctx.prec)
		ctx.stack = ctx.stack[:0]
	default:
		panic("numeric: Eval during Eval")
	}
	err := e.n.eval(ctx)
	ctx.err = err
	if err != nil {
		ctx.stack = ctx.stack[:0]
		return nil
	}
	return ctx.Result()
}

// Eval is a shortcut for ctx.Eval(e).
func (e *Expr) Eval(ctx *Context) *big.Float {
	return ctx.Eval(e)
}

// Result returns the result obtained after evaluating an expression. Panics if
// ctx has not been used to evaluate an expression. Returns nil if an error
// occurred during evaluation.
func (ctx *Context) Result() *big.Float {
	if ctx.err != nil {
		return nil
	}
	switch len(ctx.stack) {
	case 0:
		panic("numeric: Context.Result called before evaluating any expression")
	case 1:
		return ctx.stack[0]
	default:
		panic("numeric: inconsistent stack: " + strconv.Itoa(len(ctx.stack)) + " items (bad AST?)")
	}
}

// Err returns the first error that occurred while evaluating an expression
// with ctx, if any.
func (ctx *Context) Err() error {
	return ctx.err
}

// Set sets the value of a variable. Returns ctx for chaining. Calling Set
// while the context is being used to evaluate an expression panics.
func (ctx *Context) Set(name string, value *big.Float) *Context {
	if len(ctx.stack) > 1 {
		panic("numeric: Set on in-use context")
	}
	if ctx.names == nil {
		ctx.names = make(map[string]*big.Float)
	}
	ctx.names[name] = new(big.Float).SetPrec(ctx.prec).Set(value)
	return ctx
}

// Lookup returns a copy of the value of a variable. If there is no such
// variable in the context, then the result is nil. Lookup does not use the
// context's Resolver.
func (ctx *Context) Lookup(name string) *big.Float {
	v := ctx.names[name]
	if v == nil {
		return nil
	}
	return new(big.Float).Copy(v)
}

// Prec returns the precision to which values are computed in the context.
func (ctx *Context) Prec() uint {
	return ctx.prec
}

// Clone creates a copy of a context and applies options to it. The returned
// context has no Result and is safe to use to evaluate an expression.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := Context{
		stack:   make([]*big.Float, 0, cap(ctx.stack)),
		nums:    make(map[string]*big.Float, len(ctx.nums)),
		names:   make(map[string]*big.Float, len(ctx.names)),
		ops:     ctx.ops,
		resolve: ctx.resolve,
		prec:    ctx.prec,
	}
	// First, check for a precision setting. Loop backward so we apply the last
	// precision.
	for i := len(opts) - 1; i >= 0; i-- {
		if p, ok := opts[i].(precopt); ok {
			n.prec = uint(p)
			break
		}
	}
	// Copy numbers only if the new precision is no higher than the old, so
	// that we always use the precision we need.
	if n.prec <= ctx.prec {
		for k, v := range ctx.nums {
			n.nums[k] = new(big.Float).SetPrec(n.prec).Set(v)
		}
	}
	// Copy variables. (We always need a copy in case of Set.) If we have the
	// same precision, we can just copy pointers.
	if n.prec == ctx.prec {
		for name, val := range ctx.names {
			n.names[name] = val
		}
	} else {
		for name, val := range ctx.names {
			n.names[name] = new(big.Float).SetPrec(n.prec).Set(val)
		}
	}
	// Operator tables are shared until an option changes them.
	owned := false
	setop := func(sym Symbol, fn Operator) {
		if !owned {
			m := make(map[Symbol]Operator, len(n.ops)+1)
			for k, v := range n.ops {
				m[k] = v
			}
			n.ops = m
			owned = true
		}
		if sym.Kind == SymbolVariable {
			panic("numeric: cannot override variable " + strconv.Quote(sym.Name))
		}
		if fn == nil {
			delete(n.ops, sym)
			return
		}
		n.ops[sym] = fn
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case varopt:
			n.names[opt.name] = new(big.Float).SetPrec(n.prec).Set(opt.val)
		case varsopt:
			for k, v := range opt {
				n.names[k] = new(big.Float).SetPrec(n.prec).Set(v)
			}
		case precopt:
			// Already done. Do nothing.
		case opopt:
			setop(opt.sym, opt.fn)
		case opsopt:
			for k, v := range opt {
				setop(k, v)
			}
		case resolveropt:
			n.resolve = Resolver(opt)
		default:
			panic("numeric: unknown option type")
		}
	}
	return &n
}

// push ensures a settable value on the stack.
func (ctx *Context) push() *big.Float {
	if len(ctx.stack) < cap(ctx.stack) {
		ctx.stack = ctx.stack[:len(ctx.stack)+1]
		if ctx.stack[len(ctx.stack)-1] == nil {
			ctx.stack[len(ctx.stack)-1] = new(big.Float).SetPrec(ctx.prec)
		}
	} else {
		ctx.stack = append(ctx.stack, new(big.Float).SetPrec(ctx.prec))
	}
	return ctx.stack[len(ctx.stack)-1]
}

// pop removes the top from the stack and returns it. The returned value may be
// modified by future node evaluations.
func (ctx *Context) pop() *big.Float {
	r := ctx.stack[len(ctx.stack)-1]
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
	return r
}

// top is a shortcut to get the top element of the stack.
func (ctx *Context) top() *big.Float {
	return ctx.stack[len(ctx.stack)-1]
}

// num gets a possibly cached number from its text.
func (ctx *Context) num(s string) *big.Float {
	if r := ctx.nums[s]; r != nil {
		return r
	}
	t := s
	if t == "∞" {
		t = "inf"
	}
	r, _, err := new(big.Float).SetPrec(ctx.prec).Parse(t, 0)
	switch {
	case err == nil: // do nothing
	case err.Error() == "exponent overflow",
		strings.HasSuffix(err.Error(), ": value out of range"):
		// There isn't realistically any better way to detect this error.
		// N.B. s is non-empty, otherwise we couldn't overflow.
		r = new(big.Float).SetInf(t[0] == '-')
	default:
		panic("numeric: invalid number: " + s + " (" + err.Error() + ")")
	}
	ctx.nums[s] = r
	return r
}

// eval pushes the node's value to the context's stack.
func (n *node) eval(ctx *Context) error {
	if ctx.ops != nil && n.kind != nodeName {
		if sym, ok := n.symbol(); ok {
			if f := ctx.ops[sym]; f != nil {
				return ctx.apply(f, n, sym)
			}
		}
	}
	switch n.kind {
	case nodeNum:
		ctx.push().Set(ctx.num(n.name))
	case nodeName:
		if v := ctx.names[n.name]; v != nil {
			ctx.push().Set(v)
			return nil
		}
		if ctx.resolve != nil {
			r := ctx.push()
			ok, err := ctx.resolve(ctx, n.name, r)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
			ctx.pop()
		}
		return &NameError{Name: n.name}
	case nodeCall:
		r := ctx.push()
		k := len(ctx.stack)
		for l := n.right; l != nil; l = l.right {
			if err := l.left.eval(ctx); err != nil {
				return err
			}
		}
		f := n.fn
		invoc := ctx.stack[k:len(ctx.stack):len(ctx.stack)]
		if err := f.Call(ctx, invoc, n.semis(), r); err != nil {
			return err
		}
		ctx.stack = ctx.stack[:k]
	case nodeArg, nodeBranch:
		panic("numeric: eval on " + n.kind.String())
	case nodeNeg:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
		v := ctx.top()
		v.Neg(v)
	case nodeNop:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
	case nodeNot:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
		v := ctx.top()
		setBool(v, v.Sign() == 0)
	case nodeAnd, nodeOr:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
		v := ctx.top()
		if (v.Sign() != 0) == (n.kind == nodeOr) {
			// Short circuit: false && x, true || x.
			setBool(v, v.Sign() != 0)
			return nil
		}
		ctx.pop()
		if err := n.right.eval(ctx); err != nil {
			return err
		}
		v = ctx.top()
		setBool(v, v.Sign() != 0)
	case nodeCoalesce:
		// A number is never missing, so the right side is never needed.
		if err := n.left.eval(ctx); err != nil {
			return err
		}
	case nodeCond:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
		b := n.right.right
		if ctx.pop().Sign() != 0 {
			b = n.right.left
		}
		if err := b.eval(ctx); err != nil {
			return err
		}
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodePow, nodeEq, nodeNe, nodeLt, nodeGt, nodeLe, nodeGe:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
		if err := n.right.eval(ctx); err != nil {
			return err
		}
		r := ctx.pop()
		l := ctx.top()
		if err := binary(n.kind, l, l, r); err != nil {
			return err
		}
	default:
		panic("numeric: invalid AST node " + n.kind.String())
	}
	return nil
}

// binary sets z to the result of a binary operator applied to l and r.
func binary(kind nodeKind, z, l, r *big.Float) (err error) {
	// Add, Sub, and Mul panic on inf-inf and 0*inf.
	defer func() { catchNaN(&err, recover()) }()
	switch kind {
	case nodeAdd:
		z.Add(l, r)
	case nodeSub:
		z.Sub(l, r)
	case nodeMul:
		z.Mul(l, r)
	case nodeDiv:
		// Guard against invalid divisions, 0/0 or inf/inf.
		if l.Sign() == 0 && r.Sign() == 0 || l.IsInf() && r.IsInf() {
			return &DomainError{X: new(big.Float).Copy(r), Func: "/"}
		}
		z.Quo(l, r)
	case nodePow:
		// Guard against invalid exponentiations, i.e. negative base.
		// TODO: allow negative base with integer exponent
		if l.Signbit() {
			return &DomainError{X: new(big.Float).Copy(l), Func: "^"}
		}
		bigfloat.Pow(z, l, r)
	case nodeEq:
		setBool(z, l.Cmp(r) == 0)
	case nodeNe:
		setBool(z, l.Cmp(r) != 0)
	case nodeLt:
		setBool(z, l.Cmp(r) < 0)
	case nodeGt:
		setBool(z, l.Cmp(r) > 0)
	case nodeLe:
		setBool(z, l.Cmp(r) <= 0)
	case nodeGe:
		setBool(z, l.Cmp(r) >= 0)
	default:
		panic("numeric: not a binary operator: " + kind.String())
	}
	return nil
}

// setBool sets z to 1 if b is true and 0 otherwise.
func setBool(z *big.Float, b bool) {
	if b {
		z.SetInt64(1)
	} else {
		z.SetInt64(0)
	}
}

// apply evaluates n using an overriding operator.
func (ctx *Context) apply(f Operator, n *node, sym Symbol) error {
	r := ctx.push()
	op := Operation{ctx: ctx, n: n, sym: sym, args: n.operands()}
	return f(&op, r)
}

// Operation is a single application of an overridden operator or function.
type Operation struct {
	ctx  *Context
	n    *node
	sym  Symbol
	args []*node
}

// Symbol returns the operator or function symbol being applied.
func (op *Operation) Symbol() Symbol {
	return op.sym
}

// Context returns the context evaluating the operation.
func (op *Operation) Context() *Context {
	return op.ctx
}

// Len returns the number of operands. A conditional has three: the condition,
// the true branch, and the false branch.
func (op *Operation) Len() int {
	return len(op.args)
}

// Operand evaluates the i'th operand and returns its value. Each call
// evaluates the operand again, including any variable lookups and calls
// within it.
func (op *Operation) Operand(i int) (*big.Float, error) {
	if err := op.args[i].eval(op.ctx); err != nil {
		return nil, err
	}
	return new(big.Float).Copy(op.ctx.pop()), nil
}

// Default sets r to the result of the operator or function's usual meaning
// applied to already evaluated operands. args must have length op.Len().
func (op *Operation) Default(args []*big.Float, r *big.Float) error {
	if len(args) != len(op.args) {
		panic("numeric: " + strconv.Itoa(len(args)) + " operands for " + op.sym.String())
	}
	switch op.n.kind {
	case nodeCall:
		return op.n.fn.Call(op.ctx, args, op.n.semis(), r)
	case nodeNeg:
		r.Neg(args[0])
	case nodeNop:
		r.Set(args[0])
	case nodeNot:
		setBool(r, args[0].Sign() == 0)
	case nodeAnd:
		setBool(r, args[0].Sign() != 0 && args[1].Sign() != 0)
	case nodeOr:
		setBool(r, args[0].Sign() != 0 || args[1].Sign() != 0)
	case nodeCoalesce:
		r.Set(args[0])
	case nodeCond:
		if args[0].Sign() != 0 {
			r.Set(args[1])
		} else {
			r.Set(args[2])
		}
	default:
		return binary(op.n.kind, r, args[0], args[1])
	}
	return nil
}

// Eval is a shortcut to parse an expression and return its result using the
// default functions.
func Eval(src io.RuneScanner, opts ...ContextOption) (*big.Float, error) {
	ctx := NewContext(opts...)
	a, err := Parse(src)
	if err != nil {
		return nil, err
	}
	ctx.Eval(a)
	return ctx.Result(), ctx.Err()
}

// EvalString is a shortcut to parse and evaluate a string expression.
func EvalString(src string, opts ...ContextOption) (*big.Float, error) {
	return Eval(strings.NewReader(src), opts...)
}

// NameError is an error from a lookup for a variable that is missing from the
// evaluation context.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}
