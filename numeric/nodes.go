package numeric

import (
	"strings"
)

// node is a node in the abstract syntax tree of an expression.
type node struct {
	kind nodeKind

	name string
	fn   Func

	left  *node
	right *node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum  // push num
	nodeName // push lookup(name)

	// TODO(zeph): how represent e.g. 0F0(; ; z) = exp(z)
	nodeCall // name is Func to call, right is link to nodeArg unless niladic
	nodeArg  // name is "" or "," or ";", eval left, right is link to next arg

	nodeNeg // evaluate left, then negate
	nodeAdd // evaluate left, add right
	nodeSub // evaluate left, sub right
	nodeMul // evaluate left, mul right
	nodeDiv // evaluate left, div by right
	nodePow // evaluate left, exp by right
	nodeNop // evaluate left

	nodeNot      // evaluate left, 1 if zero else 0
	nodeEq       // evaluate left and right, 1 if equal
	nodeNe       // evaluate left and right, 1 if unequal
	nodeLt       // evaluate left and right, 1 if left < right
	nodeGt       // evaluate left and right, 1 if left > right
	nodeLe       // evaluate left and right, 1 if left <= right
	nodeGe       // evaluate left and right, 1 if left >= right
	nodeAnd      // evaluate left, then right only if left is nonzero
	nodeOr       // evaluate left, then right only if left is zero
	nodeCoalesce // evaluate left; right is never needed for numbers
	nodeCond     // evaluate left, then one of right's left or right
	nodeBranch   // left is the true branch and right the false branch of nodeCond
)

//go:generate go mod edit -require=golang.org/x/tools@v0.1.0
//go:generate go mod download
//go:generate go run golang.org/x/tools/cmd/stringer -type=nodeKind -trimprefix=node
//go:generate go mod tidy

// optokens gives the operator token for each operator node kind.
var optokens = [...]string{
	nodeNeg:      "-",
	nodeAdd:      "+",
	nodeSub:      "-",
	nodeMul:      "*",
	nodeDiv:      "/",
	nodePow:      "^",
	nodeNop:      "+",
	nodeNot:      "!",
	nodeEq:       "==",
	nodeNe:       "!=",
	nodeLt:       "<",
	nodeGt:       ">",
	nodeLe:       "<=",
	nodeGe:       ">=",
	nodeAnd:      "&&",
	nodeOr:       "||",
	nodeCoalesce: "??",
	nodeCond:     "?:",
	nodeBranch:   "",
}

// symbol returns the symbol that evaluating n uses, if any. Numbers, argument
// links, and branches use no symbol.
func (n *node) symbol() (Symbol, bool) {
	switch n.kind {
	case nodeName:
		return Variable(n.name), true
	case nodeCall:
		return Function(n.name, n.nargs()), true
	case nodeNeg, nodeNop, nodeNot:
		return Prefix(optokens[n.kind]), true
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodePow,
		nodeEq, nodeNe, nodeLt, nodeGt, nodeLe, nodeGe,
		nodeAnd, nodeOr, nodeCoalesce, nodeCond:
		return Infix(optokens[n.kind]), true
	default:
		return Symbol{}, false
	}
}

// nargs counts the arguments of a call node.
func (n *node) nargs() int {
	k := 0
	for l := n.right; l != nil; l = l.right {
		k++
	}
	return k
}

// operands lists the subexpressions an operator or call node evaluates, in
// order. For a conditional, they are the condition, the true branch, and the
// false branch.
func (n *node) operands() []*node {
	switch n.kind {
	case nodeCall:
		v := make([]*node, 0, n.nargs())
		for l := n.right; l != nil; l = l.right {
			v = append(v, l.left)
		}
		return v
	case nodeNeg, nodeNop, nodeNot:
		return []*node{n.left}
	case nodeCond:
		return []*node{n.left, n.right.left, n.right.right}
	default:
		return []*node{n.left, n.right}
	}
}

// semis lists the indices of a call node's arguments which are preceded by
// semicolons.
func (n *node) semis() []int {
	var semis []int
	i := 0
	for l := n.right; l != nil; l = l.right {
		if l.name == ";" {
			semis = append(semis, i)
		}
		i++
	}
	return semis
}

// walk calls f on each node in post-order.
func (n *node) walk(f func(*node)) {
	if n == nil {
		return
	}
	n.left.walk(f)
	n.right.walk(f)
	f(n)
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b, false, false)
	return b.String()
}

func (n *node) fmt(b *strings.Builder, square, alt bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteByte('$')
		if n.left != nil {
			n.left.fmt(b, square, alt)
		}
		b.WriteByte('#')
		if n.right != nil {
			n.right.fmt(b, square, alt)
		}
		b.WriteByte('$')
	case nodeNum, nodeName:
		b.WriteString(n.name)
	case nodeCall:
		b.WriteString(n.name)
		n.fmtargs(b, !square, alt)
	case nodeArg:
		// Args usually only appear inside calls, which are handled by fmtargs.
		b.WriteByte(':')
		n.left.fmt(b, !square, alt)
		if n.right != nil {
			n.right.fmt(b, !square, alt)
		}
	case nodeNeg, nodeNop, nodeNot:
		b.WriteString(optokens[n.kind])
		n.left.fmt(b, !square, alt)
	case nodeMul:
		n.left.fmt(b, !square, alt)
		if !alt {
			b.WriteString(" * ")
		} else {
			b.WriteString(" × ")
		}
		n.right.fmt(b, !square, alt)
	case nodeDiv:
		n.left.fmt(b, !square, alt)
		if !alt {
			b.WriteString(" / ")
		} else {
			b.WriteString(" ÷ ")
		}
		n.right.fmt(b, !square, alt)
	case nodeAdd, nodeSub, nodePow, nodeEq, nodeNe, nodeLt, nodeGt, nodeLe, nodeGe, nodeAnd, nodeOr, nodeCoalesce:
		n.left.fmt(b, !square, alt)
		b.WriteByte(' ')
		b.WriteString(optokens[n.kind])
		b.WriteByte(' ')
		n.right.fmt(b, !square, alt)
	case nodeCond:
		n.left.fmt(b, !square, alt)
		b.WriteString(" ? ")
		n.right.left.fmt(b, !square, alt)
		b.WriteString(" : ")
		n.right.right.fmt(b, !square, alt)
	default:
		panic("numeric: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

func (n *node) fmtargs(b *strings.Builder, square, alt bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	if n.right == nil {
		// Niladic call.
		return
	}
	n = n.right
	if n.kind != nodeArg {
		b.WriteString("***")
		n.fmt(b, !square, alt)
		return
	}
	n.left.fmt(b, !square, alt)
	for n.right != nil {
		n = n.right
		if n.kind != nodeArg {
			b.WriteString("***")
			n.fmt(b, !square, alt)
			return
		}
		b.WriteString(", ")
		n.left.fmt(b, !square, alt)
	}
}
