package numeric_test

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/zephyrtronium/anyexpr/numeric"
)

type nargin struct{}

func (nargin) CanCall(n int) bool {
	return true
}

func (nargin) Call(ctx *numeric.Context, invoc []*big.Float, semis []int, r *big.Float) error {
	r.SetInt64(int64(len(invoc)))
	return nil
}

func ExampleFunc() {
	ctx := numeric.NewContext(numeric.Prec(32))

	a, _ := numeric.Parse(strings.NewReader("nargin"), numeric.ParseFunc("nargin", nargin{}))
	b, _ := numeric.Parse(strings.NewReader("nargin 100"), numeric.ParseFunc("nargin", nargin{}))
	c, _ := numeric.Parse(strings.NewReader("nargin{3, 2, 1}"), numeric.ParseFunc("nargin", nargin{}))
	fmt.Println(a.Eval(ctx), a)
	fmt.Println(b.Eval(ctx), b)
	fmt.Println(c.Eval(ctx), c)

	// Output:
	// 0 (nargin[])
	// 1 (nargin[(100)])
	// 3 (nargin[(3), (2), (1)])
}
