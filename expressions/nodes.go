package expressions

import (
	"strconv"
	"strings"
)

// node is a node in the abstract syntax tree of an expression. Nodes are never
// modified after construction, so trees may share subtrees freely.
type node struct {
	kind nodeKind

	name string
	fn   Func
	args []*node

	left  *node
	right *node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum  // push num
	nodeName // push lookup(name)

	nodeCall // name is Func to call, args are its arguments in order

	nodeNeg // evaluate left, then negate
	nodeAdd // evaluate left, add right
	nodeSub // evaluate left, sub right
	nodeMul // evaluate left, mul right
	nodeDiv // evaluate left, div by right
	nodePow // evaluate left, exp by right
	nodeNop // evaluate left
)

var kindnames = [...]string{
	nodeNone: "None",
	nodeNum:  "Num",
	nodeName: "Name",
	nodeCall: "Call",
	nodeNeg:  "Neg",
	nodeAdd:  "Add",
	nodeSub:  "Sub",
	nodeMul:  "Mul",
	nodeDiv:  "Div",
	nodePow:  "Pow",
	nodeNop:  "Nop",
}

func (k nodeKind) String() string {
	if k < 0 || int(k) >= len(kindnames) {
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindnames[k]
}

// String formats the node with every term bracketed.
func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b, false, false)
	return b.String()
}

// fmt writes the fully bracketed form of n, alternating round and square
// brackets by depth.
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
	case nodeNeg:
		b.WriteByte('-')
		n.left.fmt(b, !square, alt)
	case nodeAdd:
		n.left.fmt(b, !square, alt)
		b.WriteString(" + ")
		n.right.fmt(b, !square, alt)
	case nodeSub:
		n.left.fmt(b, !square, alt)
		b.WriteString(" - ")
		n.right.fmt(b, !square, alt)
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
	case nodePow:
		n.left.fmt(b, !square, alt)
		b.WriteString(" ^ ")
		n.right.fmt(b, !square, alt)
	case nodeNop:
		b.WriteByte('+')
		n.left.fmt(b, !square, alt)
	default:
		panic("expressions: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

func (n *node) fmtargs(b *strings.Builder, square, alt bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	for i, arg := range n.args {
		if i > 0 {
			b.WriteString(", ")
		}
		arg.fmt(b, !square, alt)
	}
}

// Binding strengths used for rendering. Higher binds tighter.
const (
	sumBinding = iota + 1
	productBinding
	unaryBinding
	powerBinding
	atomBinding
)

// binding returns how tightly the operator at the root of n holds its
// operands together.
func (n *node) binding() int {
	switch n.kind {
	case nodeAdd, nodeSub:
		return sumBinding
	case nodeMul, nodeDiv:
		return productBinding
	case nodeNeg, nodeNop:
		return unaryBinding
	case nodePow:
		return powerBinding
	default:
		return atomBinding
	}
}

// text writes n in conventional infix notation with the fewest brackets that
// make the result parse back to the same tree.
func (n *node) text(b *strings.Builder) {
	switch n.kind {
	case nodeNum, nodeName:
		b.WriteString(n.name)
	case nodeCall:
		b.WriteString(n.name)
		if len(n.args) == 0 {
			return
		}
		b.WriteByte('(')
		for i, arg := range n.args {
			if i > 0 {
				b.WriteString(", ")
			}
			arg.text(b)
		}
		b.WriteByte(')')
	case nodeNeg, nodeNop:
		if n.kind == nodeNeg {
			b.WriteByte('-')
		} else {
			b.WriteByte('+')
		}
		n.left.group(b, n.left.binding() < unaryBinding)
	case nodeAdd, nodeSub, nodeMul, nodeDiv:
		p := n.binding()
		n.left.group(b, n.left.binding() < p)
		b.WriteString(infix[n.kind])
		// Operators are left-associative, so an equally binding right operand
		// needs brackets to keep its shape.
		n.right.group(b, n.right.binding() <= p)
	case nodePow:
		n.left.group(b, n.left.binding() <= powerBinding)
		b.WriteString(" ^ ")
		n.right.group(b, n.right.binding() < powerBinding)
	default:
		panic("expressions: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

func (n *node) group(b *strings.Builder, brackets bool) {
	if !brackets {
		n.text(b)
		return
	}
	b.WriteByte('(')
	n.text(b)
	b.WriteByte(')')
}

var infix = map[nodeKind]string{
	nodeAdd: " + ",
	nodeSub: " - ",
	nodeMul: " * ",
	nodeDiv: " / ",
}

// depends reports whether the value of n can change with the variable name.
// A niladic call shares its name with any variable that shadows it.
func (n *node) depends(name string) bool {
	if n == nil {
		return false
	}
	switch n.kind {
	case nodeName:
		return n.name == name
	case nodeCall:
		if len(n.args) == 0 {
			return n.name == name
		}
		for _, arg := range n.args {
			if arg.depends(name) {
				return true
			}
		}
		return false
	}
	return n.left.depends(name) || n.right.depends(name)
}

// collect adds the names of variables used in n to names.
func (n *node) collect(names map[string]bool) {
	if n == nil {
		return
	}
	switch n.kind {
	case nodeName:
		names[n.name] = true
	case nodeCall:
		for _, arg := range n.args {
			arg.collect(names)
		}
	default:
		n.left.collect(names)
		n.right.collect(names)
	}
}
