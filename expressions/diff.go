package expressions

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Derivative returns the partial derivative of e with respect to the variable
// name. Terms that do not depend on name differentiate to 0, and the result is
// lightly simplified: sums with 0, products with 0 or 1, and arithmetic on
// literal numbers are folded away.
//
// Functions supplied through ParseFunc have no known derivative. If e calls
// one in a term that depends on name, the result is a *DiffError.
func Derivative(e *Expr, name string) (*Expr, error) {
	d, err := e.n.deriv(name)
	if err != nil {
		return nil, err
	}
	return newExpr(d), nil
}

var (
	numZero = num("0")
	numOne  = num("1")
	numTwo  = num("2")
)

func num(s string) *node {
	return &node{kind: nodeNum, name: s}
}

func (n *node) deriv(x string) (*node, error) {
	if !n.depends(x) {
		return numZero, nil
	}
	switch n.kind {
	case nodeName:
		return numOne, nil
	case nodeCall:
		if len(n.args) == 0 {
			// A constant shadowed by the variable.
			return numOne, nil
		}
		return n.dcall(x)
	case nodeNeg:
		d, err := n.left.deriv(x)
		if err != nil {
			return nil, err
		}
		return neg(d), nil
	case nodeNop:
		return n.left.deriv(x)
	}
	dl, err := n.left.deriv(x)
	if err != nil {
		return nil, err
	}
	dr, err := n.right.deriv(x)
	if err != nil {
		return nil, err
	}
	l, r := n.left, n.right
	switch n.kind {
	case nodeAdd:
		return add(dl, dr), nil
	case nodeSub:
		return sub(dl, dr), nil
	case nodeMul:
		return add(mul(dl, r), mul(l, dr)), nil
	case nodeDiv:
		if !r.depends(x) {
			return div(dl, r), nil
		}
		return div(sub(mul(dl, r), mul(l, dr)), pow(r, numTwo)), nil
	case nodePow:
		switch {
		case !r.depends(x):
			// c u^(c-1) u'
			return mul(mul(r, pow(l, sub(r, numOne))), dl), nil
		case !l.depends(x):
			// a^v ln(a) v'
			return mul(mul(n, call("ln", l)), dr), nil
		default:
			// u^v (v' ln u + v u'/u)
			return mul(n, add(mul(dr, call("ln", l)), div(mul(r, dl), l))), nil
		}
	default:
		panic("expressions: cannot differentiate node " + n.String())
	}
}

// dcall applies the chain rule to a call of a default function.
func (n *node) dcall(x string) (*node, error) {
	b, ok := n.fn.(builtin)
	if !ok {
		return nil, &DiffError{Func: n.name}
	}
	u := n.args[0]
	if b.name == "log" && len(n.args) == 2 {
		return div(call("ln", u), call("ln", n.args[1])).deriv(x)
	}
	du, err := u.deriv(x)
	if err != nil {
		return nil, err
	}
	var g *node
	switch b.name {
	case "exp":
		g = n
	case "ln", "log":
		g = div(numOne, u)
	case "log10":
		g = div(numOne, mul(u, call("ln", num("10"))))
	case "log2":
		g = div(numOne, mul(u, call("ln", numTwo)))
	case "sqrt":
		g = div(numOne, mul(numTwo, n))
	case "abs":
		g = div(u, n)
	case "sin":
		g = call("cos", u)
	case "cos":
		g = neg(call("sin", u))
	case "tan":
		g = div(numOne, pow(call("cos", u), numTwo))
	case "asin":
		g = div(numOne, call("sqrt", sub(numOne, pow(u, numTwo))))
	case "acos":
		g = neg(div(numOne, call("sqrt", sub(numOne, pow(u, numTwo)))))
	case "atan":
		g = div(numOne, add(numOne, pow(u, numTwo)))
	case "sinh":
		g = call("cosh", u)
	case "cosh":
		g = call("sinh", u)
	case "tanh":
		g = sub(numOne, pow(n, numTwo))
	case "asinh":
		g = div(numOne, call("sqrt", add(pow(u, numTwo), numOne)))
	case "acosh":
		g = div(numOne, call("sqrt", sub(pow(u, numTwo), numOne)))
	case "atanh":
		g = div(numOne, sub(numOne, pow(u, numTwo)))
	default:
		return nil, &DiffError{Func: n.name}
	}
	return mul(g, du), nil
}

// numval gets the exact value of a literal number or negated literal.
func numval(n *node) (*big.Rat, bool) {
	switch n.kind {
	case nodeNeg:
		v, ok := numval(n.left)
		if !ok {
			return nil, false
		}
		return v.Neg(v), true
	case nodeNum:
		// Huge exponents would make enormous rationals; leave them alone.
		if k := strings.IndexAny(n.name, "eE"); k >= 0 {
			exp, err := strconv.Atoi(strings.TrimPrefix(n.name[k+1:], "+"))
			if err != nil || exp < -64 || exp > 64 {
				return nil, false
			}
		}
		return new(big.Rat).SetString(n.name)
	}
	return nil, false
}

// ratnode creates a literal for r if it has a finite decimal expansion.
func ratnode(r *big.Rat) (*node, bool) {
	a := new(big.Rat).Abs(r)
	var s string
	if a.IsInt() {
		s = a.Num().String()
	} else {
		d := new(big.Int).Set(a.Denom())
		twos := d.TrailingZeroBits()
		d.Rsh(d, twos)
		fives := uint(0)
		five, m := big.NewInt(5), new(big.Int)
		for {
			q, rem := new(big.Int).QuoRem(d, five, m)
			if rem.Sign() != 0 {
				break
			}
			d, fives = q, fives+1
		}
		if d.Cmp(big.NewInt(1)) != 0 {
			return nil, false
		}
		digits := twos
		if fives > digits {
			digits = fives
		}
		s = a.FloatString(int(digits))
	}
	n := num(s)
	if r.Sign() < 0 {
		n = &node{kind: nodeNeg, left: n}
	}
	return n, true
}

func iszero(n *node) bool {
	v, ok := numval(n)
	return ok && v.Sign() == 0
}

func isone(n *node) bool {
	v, ok := numval(n)
	return ok && v.Cmp(big.NewRat(1, 1)) == 0
}

// fold applies op to two literals if both sides are literals and the result
// is a literal.
func fold(a, b *node, op func(x, y *big.Rat) *big.Rat) (*node, bool) {
	x, ok := numval(a)
	if !ok {
		return nil, false
	}
	y, ok := numval(b)
	if !ok {
		return nil, false
	}
	return ratnode(op(x, y))
}

func neg(a *node) *node {
	switch {
	case a.kind == nodeNeg:
		return a.left
	case iszero(a):
		return numZero
	}
	return &node{kind: nodeNeg, left: a}
}

func add(a, b *node) *node {
	switch {
	case iszero(a):
		return b
	case iszero(b):
		return a
	}
	if r, ok := fold(a, b, func(x, y *big.Rat) *big.Rat { return x.Add(x, y) }); ok {
		return r
	}
	if b.kind == nodeNeg {
		return sub(a, b.left)
	}
	return &node{kind: nodeAdd, left: a, right: b}
}

func sub(a, b *node) *node {
	switch {
	case iszero(b):
		return a
	case iszero(a):
		return neg(b)
	}
	if r, ok := fold(a, b, func(x, y *big.Rat) *big.Rat { return x.Sub(x, y) }); ok {
		return r
	}
	if b.kind == nodeNeg {
		return add(a, b.left)
	}
	return &node{kind: nodeSub, left: a, right: b}
}

func mul(a, b *node) *node {
	switch {
	case iszero(a), iszero(b):
		return numZero
	case isone(a):
		return b
	case isone(b):
		return a
	}
	if r, ok := fold(a, b, func(x, y *big.Rat) *big.Rat { return x.Mul(x, y) }); ok {
		return r
	}
	switch {
	case a.kind == nodeNeg:
		return neg(mul(a.left, b))
	case b.kind == nodeNeg:
		return neg(mul(a, b.left))
	}
	_, an := numval(a)
	_, bn := numval(b)
	switch {
	case bn && !an:
		// Literal coefficients go first.
		return mul(b, a)
	case an && b.kind == nodeMul:
		if c, ok := fold(a, b.left, func(x, y *big.Rat) *big.Rat { return x.Mul(x, y) }); ok {
			return mul(c, b.right)
		}
	}
	return &node{kind: nodeMul, left: a, right: b}
}

func div(a, b *node) *node {
	switch {
	case iszero(a) && !iszero(b):
		return numZero
	case isone(b):
		return a
	}
	if !iszero(b) {
		if r, ok := fold(a, b, func(x, y *big.Rat) *big.Rat { return x.Quo(x, y) }); ok {
			return r
		}
	}
	switch {
	case a.kind == nodeNeg:
		return neg(div(a.left, b))
	case b.kind == nodeNeg:
		return neg(div(a, b.left))
	}
	return &node{kind: nodeDiv, left: a, right: b}
}

func pow(a, b *node) *node {
	switch {
	case iszero(b):
		return numOne
	case isone(b), isone(a):
		if isone(a) {
			return numOne
		}
		return a
	}
	x, xok := numval(a)
	y, yok := numval(b)
	if xok && yok && y.IsInt() && y.Num().IsInt64() {
		k := y.Num().Int64()
		if 0 < k && k <= 16 || -16 <= k && k < 0 && x.Sign() != 0 {
			r := new(big.Rat).SetInt64(1)
			for i := int64(0); i < k || i < -k; i++ {
				r.Mul(r, x)
			}
			if k < 0 {
				r.Inv(r)
			}
			if n, ok := ratnode(r); ok {
				return n
			}
		}
	}
	return &node{kind: nodePow, left: a, right: b}
}

// call creates a call to a default function.
func call(name string, args ...*node) *node {
	fn := globalfuncs[name]
	if fn == nil {
		panic("expressions: no default function " + name)
	}
	if len(args) == 1 {
		switch name {
		case "sqrt":
			if iszero(args[0]) || isone(args[0]) {
				return args[0]
			}
		case "abs":
			if v, ok := numval(args[0]); ok {
				if n, ok := ratnode(v.Abs(v)); ok {
					return n
				}
			}
		}
	}
	return &node{kind: nodeCall, name: name, fn: fn, args: args}
}

// Num creates an expression for a literal number. Negative numbers become a
// negated literal. Panics if x is NaN.
func Num(x float64) *Expr {
	switch {
	case math.IsNaN(x):
		panic("expressions: Num(NaN)")
	case math.IsInf(x, 0):
		n := num("inf")
		if x < 0 {
			n = &node{kind: nodeNeg, left: n}
		}
		return newExpr(n)
	}
	n := num(strconv.FormatFloat(math.Abs(x), 'g', -1, 64))
	if x < 0 {
		n = &node{kind: nodeNeg, left: n}
	}
	return newExpr(n)
}

// Product creates the simplified product of two expressions.
func Product(a, b *Expr) *Expr {
	return newExpr(mul(a.n, b.n))
}

// Quotient creates the simplified quotient of two expressions.
func Quotient(a, b *Expr) *Expr {
	return newExpr(div(a.n, b.n))
}

// Sum creates the simplified sum of any number of expressions. The sum of no
// expressions is 0.
func Sum(terms ...*Expr) *Expr {
	n := numZero
	for _, t := range terms {
		n = add(n, t.n)
	}
	return newExpr(n)
}

// Negation creates the simplified negation of an expression.
func Negation(a *Expr) *Expr {
	return newExpr(neg(a.n))
}

// Power creates the simplified power base^exp.
func Power(base, exp *Expr) *Expr {
	return newExpr(pow(base.n, exp.n))
}

// Apply creates a call to the default function name. Calls with literal
// arguments to sqrt and abs are folded when the result is exact.
func Apply(name string, args ...*Expr) (*Expr, error) {
	fn := globalfuncs[name]
	if fn == nil {
		return nil, &UnknownFuncError{Name: name}
	}
	if !fn.CanCall(len(args)) {
		return nil, &CallError{Func: name, Len: len(args)}
	}
	nodes := make([]*node, len(args))
	for i, a := range args {
		nodes[i] = a.n
	}
	return newExpr(call(name, nodes...)), nil
}
