package anyexpr

import (
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/zephyrtronium/anyexpr/numeric"
)

// SymbolFunc computes the value of a variable or function symbol. Variables
// receive no arguments. Arguments that are numbers arrive as float64, and
// all other arguments are exactly the values that produced them.
type SymbolFunc func(args []any) (any, error)

// Resolver computes the value of any symbol that has no constant or symbol
// function. It returns false if it does not know the symbol. A Resolver is
// called each time evaluation reaches a symbol and never for branches that
// evaluation skips.
type Resolver func(sym Symbol, args []any) (any, bool, error)

// Expression is a parsed expression bound to its constants and callbacks.
// Expressions are immutable and safe to evaluate concurrently if their
// callbacks are.
type Expression struct {
	src     string
	expr    *numeric.Expr
	base    *numeric.Context
	consts  map[string]any
	funcs   map[Symbol]SymbolFunc
	resolve Resolver
	syms    []Symbol
	ops     []override
}

// override is an operator or function that evaluation replaces.
type override struct {
	sym  Symbol
	kind opKind
}

type opKind uint8

const (
	opGuard opKind = iota
	opAdd
	opEqual
	opOrder
	opLogic
	opCoalesce
	opCond
	opCall
)

// classify gives the replacement for an operator.
func classify(sym Symbol) opKind {
	if sym.Kind != numeric.SymbolInfix {
		return opGuard
	}
	switch sym.Name {
	case "+":
		return opAdd
	case "==", "!=":
		return opEqual
	case "<", ">", "<=", ">=":
		return opOrder
	case "&&", "||":
		return opLogic
	case "??":
		return opCoalesce
	case "?:":
		return opCond
	default:
		return opGuard
	}
}

// Option is an option for creating an Expression.
type Option interface {
	option(*config)
}

type config struct {
	consts  map[string]any
	funcs   map[Symbol]SymbolFunc
	resolve Resolver
	decl    []Symbol
	prec    uint
	cache   *Cache
	popts   []numeric.ParseOption
}

type (
	constsopt   map[string]any
	symsopt     map[Symbol]SymbolFunc
	resolveropt Resolver
	declopt     []Symbol
	precopt     uint
	cacheopt    struct{ c *Cache }
	parseopts   []numeric.ParseOption
)

// Constants binds names to fixed values. Constants are looked up once, when
// the expression is created, and they are not reported by Symbols. Using
// Constants more than once adds to the table.
func Constants(consts map[string]any) Option {
	return constsopt(consts)
}

func (o constsopt) option(cfg *config) {
	if cfg.consts == nil {
		cfg.consts = make(map[string]any, len(o))
	}
	for k, v := range o {
		cfg.consts[k] = v
	}
}

// Symbols binds variable and function symbols to functions that compute
// their values on each evaluation. Function symbols are parsed as calls.
func Symbols(syms map[Symbol]SymbolFunc) Option {
	return symsopt(syms)
}

func (o symsopt) option(cfg *config) {
	if cfg.funcs == nil {
		cfg.funcs = make(map[Symbol]SymbolFunc, len(o))
	}
	for k, v := range o {
		cfg.funcs[k] = v
	}
}

// WithResolver sets the function that computes symbols with no constant or
// symbol function.
func WithResolver(r Resolver) Option {
	return resolveropt(r)
}

func (o resolveropt) option(cfg *config) {
	cfg.resolve = Resolver(o)
}

// Declare marks symbols as dynamic without binding them. Declared function
// symbols are parsed as calls, so that a Resolver can answer them. Declared
// variables disable default functions of the same name.
func Declare(syms ...Symbol) Option {
	return declopt(syms)
}

func (o declopt) option(cfg *config) {
	cfg.decl = append(cfg.decl, o...)
}

// Prec sets the precision of numeric calculations. The default is 64.
func Prec(prec uint) Option {
	return precopt(prec)
}

func (o precopt) option(cfg *config) {
	cfg.prec = uint(o)
}

// WithCache shares parsing work among expressions with the same source and
// functions.
func WithCache(c *Cache) Option {
	return cacheopt{c}
}

func (o cacheopt) option(cfg *config) {
	cfg.cache = o.c
}

// ParseOptions passes options to the numeric parser. They apply before the
// options that anyexpr derives from constants and symbols. Expressions
// parsed with ParseOptions do not use a cache.
func ParseOptions(opts ...numeric.ParseOption) Option {
	return parseopts(opts)
}

func (o parseopts) option(cfg *config) {
	cfg.popts = append(cfg.popts, o...)
}

// New parses an expression with constants and symbol functions.
func New(src string, constants map[string]any, symbols map[Symbol]SymbolFunc) (*Expression, error) {
	return Parse(src, Constants(constants), Symbols(symbols))
}

// NewResolver parses an expression which gets all of its symbols from r.
func NewResolver(src string, r Resolver) (*Expression, error) {
	return Parse(src, WithResolver(r))
}

// Parse parses an expression. Options are applied in order.
func Parse(src string, opts ...Option) (*Expression, error) {
	cfg := config{prec: 64}
	for _, opt := range opts {
		if opt != nil {
			opt.option(&cfg)
		}
	}
	fns, key := cfg.funcTable()
	expr, err := cfg.parse(src, fns, key)
	if err != nil {
		return nil, err
	}
	e := Expression{
		src:     src,
		expr:    expr,
		consts:  make(map[string]any),
		funcs:   cfg.funcs,
		resolve: cfg.resolve,
	}
	vars := make(map[string]*big.Float, len(cfg.consts)+len(reserved))
	for name, v := range cfg.consts {
		x := new(big.Float).SetPrec(cfg.prec)
		if setNumber(x, v) {
			vars[name] = x
		} else {
			e.consts[name] = v
		}
	}
	for name, k := range reserved {
		vars[name] = placeholder(new(big.Float), k)
	}
	e.base = numeric.NewContext(numeric.Prec(cfg.prec), numeric.SetVars(vars))
	for _, sym := range expr.Symbols() {
		switch sym.Kind {
		case numeric.SymbolVariable:
			if _, ok := cfg.consts[sym.Name]; ok || literal(sym.Name) {
				continue
			}
		case numeric.SymbolFunction:
			if _, ok := fns[sym.Name].(*hostfn); ok {
				e.ops = append(e.ops, override{sym, opCall})
			} else {
				e.ops = append(e.ops, override{sym, opGuard})
			}
		default:
			e.ops = append(e.ops, override{sym, classify(sym)})
		}
		e.syms = append(e.syms, sym)
	}
	return &e, nil
}

// funcTable builds the parser's function table along with a string that
// identifies it.
func (cfg *config) funcTable() (map[string]numeric.Func, string) {
	fns := make(map[string]numeric.Func)
	host := func(sym Symbol) {
		if sym.Kind != numeric.SymbolFunction {
			return
		}
		f, _ := fns[sym.Name].(*hostfn)
		if f == nil {
			f = &hostfn{name: sym.Name}
			fns[sym.Name] = f
		}
		if !f.CanCall(sym.Arity) {
			f.arities = append(f.arities, sym.Arity)
		}
	}
	// Names of variables hide default functions.
	shadow := func(name string) {
		if _, ok := fns[name]; !ok && numeric.IsDefaultFunc(name) {
			fns[name] = nil
		}
	}
	for sym := range cfg.funcs {
		host(sym)
	}
	for _, sym := range cfg.decl {
		host(sym)
	}
	for sym := range cfg.funcs {
		if sym.Kind == numeric.SymbolVariable {
			shadow(sym.Name)
		}
	}
	for _, sym := range cfg.decl {
		if sym.Kind == numeric.SymbolVariable {
			shadow(sym.Name)
		}
	}
	for name := range cfg.consts {
		shadow(name)
	}
	keys := make([]string, 0, len(fns))
	for name, f := range fns {
		k := name
		if f, ok := f.(*hostfn); ok {
			sort.Ints(f.arities)
			for _, n := range f.arities {
				k += "/" + strconv.Itoa(n)
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fns, strings.Join(keys, "\x00")
}

// parse parses src, using the cache if possible.
func (cfg *config) parse(src string, fns map[string]numeric.Func, key string) (*numeric.Expr, error) {
	compile := func() (*numeric.Expr, error) {
		opts := cfg.popts[:len(cfg.popts):len(cfg.popts)]
		if len(fns) != 0 {
			opts = append(opts, numeric.ParseFuncs(fns))
		}
		x, err := numeric.Parse(strings.NewReader(src), opts...)
		if err != nil {
			return nil, &ParseError{Src: src, Err: err}
		}
		return x, nil
	}
	if cfg.cache == nil || len(cfg.popts) != 0 {
		return compile()
	}
	return cfg.cache.getOrParse(src+"\x00\x00"+key, compile)
}

// hostfn stands in for a caller's function while parsing. Evaluation always
// replaces it.
type hostfn struct {
	name    string
	arities []int
}

func (f *hostfn) CanCall(n int) bool {
	for _, k := range f.arities {
		if k == n {
			return true
		}
	}
	return false
}

func (f *hostfn) Call(ctx *numeric.Context, invoc []*big.Float, semis []int, r *big.Float) error {
	return &UnboundSymbolError{Sym: Function(f.name, len(invoc))}
}

// Evaluate evaluates the expression. Numeric results are float64 values.
// Any other result is exactly the value that a constant, symbol function, or
// resolver supplied, or a string built by +.
func (e *Expression) Evaluate() (any, error) {
	ev := evaluation{e: e, pool: NewPool()}
	ops := make(map[Symbol]numeric.Operator, len(e.ops))
	for _, o := range e.ops {
		ops[o.sym] = ev.operator(o.kind)
	}
	ctx := e.base.Clone(numeric.SetResolver(ev.resolve), numeric.SetOperators(ops))
	r := ctx.Eval(e.expr)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ev.pool.Unbox(r), nil
}

// Symbols returns the symbols the expression depends on: variables that are
// not constants or literals, functions, and operators. Each appears once. The
// list is sorted by kind, then name, then arity, not by order of appearance
// in the source, so expressions that use the same symbols report the same
// list.
func (e *Expression) Symbols() []Symbol {
	return append(([]Symbol)(nil), e.syms...)
}

// Source returns the source text of the expression.
func (e *Expression) Source() string {
	return e.src
}

// String returns the parsed form of the expression with each term bracketed.
func (e *Expression) String() string {
	return e.expr.String()
}
