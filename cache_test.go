package anyexpr

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/zephyrtronium/anyexpr/numeric"
)

func TestCacheEviction(t *testing.T) {
	c := NewCache(2)
	parses := 0
	get := func(src string) *numeric.Expr {
		t.Helper()
		x, err := c.getOrParse(src, func() (*numeric.Expr, error) {
			parses++
			return numeric.ParseString(src)
		})
		if err != nil {
			t.Fatalf("couldn't parse %q: %v", src, err)
		}
		return x
	}
	a := get("1 + 1")
	get("2 + 2")
	if got := get("1 + 1"); got != a {
		t.Errorf("cached expression changed")
	}
	// 2 + 2 is now least recently used.
	get("3 + 3")
	if parses != 3 {
		t.Errorf("wrong number of parses: want 3, got %d", parses)
	}
	if c.Len() != 2 {
		t.Errorf("wrong length: want 2, got %d", c.Len())
	}
	get("1 + 1")
	if parses != 3 {
		t.Errorf("recently used expression was evicted")
	}
	get("2 + 2")
	if parses != 4 {
		t.Errorf("least recently used expression was kept")
	}
}

func TestCacheErrorsNotCached(t *testing.T) {
	c := NewCache(0)
	if c.Capacity() != DefaultCacheCapacity {
		t.Errorf("wrong default capacity: want %d, got %d", DefaultCacheCapacity, c.Capacity())
	}
	bad := errors.New("bad")
	for i := 0; i < 2; i++ {
		_, err := c.getOrParse("x", func() (*numeric.Expr, error) { return nil, bad })
		if err != bad {
			t.Errorf("wrong error: want %v, got %v", bad, err)
		}
	}
	if c.Len() != 0 {
		t.Errorf("error was cached")
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache(4)
	for i := 0; i < 3; i++ {
		if _, err := Parse(strconv.Itoa(i)+" + x", WithCache(c)); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 3 {
		t.Errorf("wrong length: want 3, got %d", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("wrong length after clear: %d", c.Len())
	}
	if _, err := Parse("1 + x", WithCache(c)); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Errorf("wrong length after reuse: want 1, got %d", c.Len())
	}
}

func TestCacheKeys(t *testing.T) {
	c := NewCache(8)
	fn := func(args []any) (any, error) { return 1, nil }
	parse := func(opts ...Option) *Expression {
		t.Helper()
		e, err := Parse("f(2)", append(opts, WithCache(c))...)
		if err != nil {
			t.Fatal(err)
		}
		return e
	}
	a := parse()
	b := parse()
	if a.expr != b.expr {
		t.Errorf("same source and functions parsed twice")
	}
	f := parse(Symbols(map[Symbol]SymbolFunc{Function("f", 1): fn}))
	if f.expr == a.expr {
		t.Errorf("function table ignored in cache key")
	}
	if got, err := f.Evaluate(); err != nil || got != 1.0 {
		t.Errorf("wrong result with function: got %v, %v", got, err)
	}
	g := parse(Declare(Function("f", 1)))
	if g.expr != f.expr {
		t.Errorf("declared and bound functions parsed differently")
	}
	h := parse(Declare(Function("f", 1), Function("f", 2)))
	if h.expr == f.expr {
		t.Errorf("function arity ignored in cache key")
	}
	if c.Len() != 3 {
		t.Errorf("wrong length: want 3, got %d", c.Len())
	}
	parse(ParseOptions(numeric.DisableDefaultFuncs()))
	if c.Len() != 3 {
		t.Errorf("expression with parse options was cached")
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache(4)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				src := strconv.Itoa((i+j)%6) + " * 2"
				e, err := Parse(src, WithCache(c))
				if err != nil {
					t.Error(err)
					return
				}
				got, err := e.Evaluate()
				if err != nil {
					t.Error(err)
					return
				}
				if want := float64((i+j)%6) * 2; got != want {
					t.Errorf("wrong result for %q: want %v, got %v", src, want, got)
				}
			}
		}(i)
	}
	wg.Wait()
	if c.Len() > c.Capacity() {
		t.Errorf("cache exceeded capacity: %d > %d", c.Len(), c.Capacity())
	}
}
