// Package synth implements the counter-example guided inductive
// synthesis (CEGIS) core for bit-vector program synthesis: the
// expression algebra, the expression<->solver converter, the
// verification oracle, and the search driver. The two candidate
// generators live in the sibling pkg/synth/generator package.
package synth

import (
	"fmt"
	"strings"

	"github.com/gitrdm/bitsynth/internal/bitops"
)

// Width is the process-wide fixed bit-vector width. All arithmetic in
// Evaluate is modular two's-complement at this width.
const Width = bitops.Width

// UnopKind is the alphabet of unary operators.
type UnopKind int

const (
	BitNot UnopKind = iota // ~x
	Negate                 // -x
)

func (k UnopKind) String() string {
	switch k {
	case BitNot:
		return "!"
	case Negate:
		return "-"
	default:
		return fmt.Sprintf("UnopKind(%d)", int(k))
	}
}

// BinopKind is the alphabet of binary operators.
type BinopKind int

const (
	And BinopKind = iota
	Or
	Xor
	Plus
	Minus
	Shl
	ShrArith
)

func (k BinopKind) String() string {
	switch k {
	case And:
		return "&"
	case Or:
		return "|"
	case Xor:
		return "^"
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Shl:
		return "<<"
	case ShrArith:
		return ">>"
	default:
		return fmt.Sprintf("BinopKind(%d)", int(k))
	}
}

// AllUnops and AllBinops are the fixed 2+7 = 9 operator choices the
// brute enumerator substitutes at every hole.
var (
	AllUnops  = [...]UnopKind{BitNot, Negate}
	AllBinops = [...]BinopKind{And, Or, Xor, Plus, Minus, Shl, ShrArith}
)

// exprKind discriminates Expr's three cases.
type exprKind int

const (
	kindVariable exprKind = iota
	kindUnop
	kindBinop
)

// Expr is the recursive sum type parameterized by its leaf payload V:
// Variable(V) | Unop(kind, child) | Binop(kind, left, right). Subterms
// are shared by pointer, and an Expr is never mutated after
// construction, so sharing a subterm across many parents is always
// safe.
type Expr[V any] struct {
	kind  exprKind
	v     V
	unop  UnopKind
	binop BinopKind
	left  *Expr[V]
	right *Expr[V]
}

// NewVariable builds a leaf.
func NewVariable[V any](v V) *Expr[V] {
	return &Expr[V]{kind: kindVariable, v: v}
}

// NewUnop builds a unary node.
func NewUnop[V any](k UnopKind, child *Expr[V]) *Expr[V] {
	return &Expr[V]{kind: kindUnop, unop: k, left: child}
}

// NewBinop builds a binary node.
func NewBinop[V any](k BinopKind, left, right *Expr[V]) *Expr[V] {
	return &Expr[V]{kind: kindBinop, binop: k, left: left, right: right}
}

// Walk is the generic catamorphism every traversal in this package is
// built from. varAction turns a leaf's payload into an intermediate Var
// value; promote lifts that intermediate value into the fold's
// accumulator type T; unopAction and binopAction combine already-
// folded children.
//
// The binop case folds the left child with the left subtree and the
// right child with the right subtree; a fold that instead reused the
// left subtree's result for the right child would silently treat
// every binary operator as if both operands were identical.
func Walk[V any, Var any, T any](
	e *Expr[V],
	varAction func(V) Var,
	unopAction func(UnopKind, T) T,
	binopAction func(BinopKind, T, T) T,
	promote func(Var) T,
) T {
	switch e.kind {
	case kindVariable:
		return promote(varAction(e.v))
	case kindUnop:
		child := Walk(e.left, varAction, unopAction, binopAction, promote)
		return unopAction(e.unop, child)
	case kindBinop:
		left := Walk(e.left, varAction, unopAction, binopAction, promote)
		right := Walk(e.right, varAction, unopAction, binopAction, promote)
		return binopAction(e.binop, left, right)
	default:
		panic("synth: unreachable Expr kind")
	}
}

// Depth is max(depth(child))+1, base case 0 at leaves.
func Depth[V any](e *Expr[V]) int {
	return Walk(e,
		func(V) int { return 0 },
		func(_ UnopKind, d int) int { return d + 1 },
		func(_ BinopKind, l, r int) int {
			if l > r {
				return l + 1
			}
			return r + 1
		},
		func(d int) int { return d },
	)
}

// VarKind discriminates a search-time Variable leaf.
type VarKind int

const (
	VarUnknownConst VarKind = iota
	VarConst
	VarArgument
)

// Variable is the search-time candidate leaf payload: an uninterpreted
// hole, a fixed literal, or a reference to argument i.
type Variable struct {
	Kind  VarKind
	Const int32
	Index int
}

func UnknownConst() Variable       { return Variable{Kind: VarUnknownConst} }
func ConstVar(n int32) Variable    { return Variable{Kind: VarConst, Const: n} }
func ArgumentVar(i int) Variable   { return Variable{Kind: VarArgument, Index: i} }

// CandExpr is the search-time candidate: an Expr whose leaves are
// Variables.
type CandExpr = Expr[Variable]

// Skeleton is structure-only: every leaf is a hole.
type Skeleton = Expr[struct{}]

// Hole is the single skeleton leaf value.
var Hole = struct{}{}

// NewSkeletonHole returns a single-hole skeleton.
func NewSkeletonHole() *Skeleton { return NewVariable(Hole) }

// Evaluate interprets a CandExpr over a variable assignment, returning
// an int32. BitNot is bitwise complement, Negate is arithmetic
// negation. Shl and ShrArith take the right operand modulo Width;
// ShrArith is arithmetic (sign-extending), which Go's >> on a signed
// int32 already is.
func Evaluate(e *CandExpr, lookup func(Variable) int32) int32 {
	return Walk(e,
		func(v Variable) int32 { return lookup(v) },
		func(k UnopKind, x int32) int32 {
			switch k {
			case BitNot:
				return ^x
			case Negate:
				return -x
			default:
				panic("synth: unknown UnopKind")
			}
		},
		func(k BinopKind, l, r int32) int32 {
			switch k {
			case And:
				return l & r
			case Or:
				return l | r
			case Xor:
				return l ^ r
			case Plus:
				return l + r
			case Minus:
				return l - r
			case Shl:
				return l << (uint32(r) % Width)
			case ShrArith:
				return l >> (uint32(r) % Width)
			default:
				panic("synth: unknown BinopKind")
			}
		},
		func(x int32) int32 { return x },
	)
}

// ValueKind discriminates an AnswerExpr leaf.
type ValueKind int

const (
	ValueArg ValueKind = iota
	ValueConst
)

// Value is the resolved-answer leaf payload: an argument name or a
// concrete integer.
type Value struct {
	Kind  ValueKind
	Arg   string
	Const int32
}

func ArgValue(name string) Value   { return Value{Kind: ValueArg, Arg: name} }
func ConstValue(n int32) Value     { return Value{Kind: ValueConst, Const: n} }

// AnswerExpr is the system's externally visible result: an Expr whose
// leaves are resolved Values.
type AnswerExpr = Expr[Value]

// String renders the answer as fully parenthesized infix notation.
func (e *AnswerExpr) String() string {
	var b strings.Builder
	writeAnswer(&b, e)
	return b.String()
}

func writeAnswer(b *strings.Builder, e *AnswerExpr) {
	switch e.kind {
	case kindVariable:
		switch e.v.Kind {
		case ValueArg:
			b.WriteString(e.v.Arg)
		case ValueConst:
			fmt.Fprintf(b, "%d", e.v.Const)
		}
	case kindUnop:
		fmt.Fprintf(b, "%s(", e.unop)
		writeAnswer(b, e.left)
		b.WriteString(")")
	case kindBinop:
		b.WriteString("(")
		writeAnswer(b, e.left)
		fmt.Fprintf(b, " %s ", e.binop)
		writeAnswer(b, e.right)
		b.WriteString(")")
	}
}

// ToAnswer resolves a CandExpr's leaves through varMap, producing the
// AnswerExpr the driver returns on success.
func ToAnswer(e *CandExpr, varMap func(Variable) Value) *AnswerExpr {
	return Walk(e,
		varMap,
		func(k UnopKind, child *AnswerExpr) *AnswerExpr { return NewUnop(k, child) },
		func(k BinopKind, l, r *AnswerExpr) *AnswerExpr { return NewBinop(k, l, r) },
		func(v Value) *AnswerExpr { return NewVariable(v) },
	)
}

// EvaluateAnswer interprets an AnswerExpr over a named argument
// assignment, mirroring Evaluate for the externally visible answer
// type (used by tests that spot-check a synthesized AnswerExpr's
// behavior against the specification it was synthesized from).
func EvaluateAnswer(e *AnswerExpr, lookup func(name string) int32) int32 {
	return Walk(e,
		func(v Value) int32 {
			switch v.Kind {
			case ValueArg:
				return lookup(v.Arg)
			case ValueConst:
				return v.Const
			default:
				panic("synth: unknown Value kind")
			}
		},
		func(k UnopKind, x int32) int32 {
			if k == BitNot {
				return ^x
			}
			return -x
		},
		func(k BinopKind, l, r int32) int32 {
			switch k {
			case And:
				return l & r
			case Or:
				return l | r
			case Xor:
				return l ^ r
			case Plus:
				return l + r
			case Minus:
				return l - r
			case Shl:
				return l << (uint32(r) % Width)
			case ShrArith:
				return l >> (uint32(r) % Width)
			default:
				panic("synth: unknown BinopKind")
			}
		},
		func(x int32) int32 { return x },
	)
}

// CountHoles returns a skeleton's hole count.
func CountHoles(s *Skeleton) int {
	return Walk(s,
		func(struct{}) int { return 1 },
		func(_ UnopKind, x int) int { return x },
		func(_ BinopKind, l, r int) int { return l + r },
		func(x int) int { return x },
	)
}

// morphCounter turns a per-hole callback into the stateful, pre-order
// indexed one Walk's variable action needs; every specialization below
// shares this little piece of bookkeeping. Holes are numbered
// left-to-right by pre-order traversal, and both the lifter and the
// lowerer must agree on this ordering.
func morphCounter[R any](holeAction func(idx int) R) func(struct{}) R {
	idx := 0
	return func(struct{}) R {
		r := holeAction(idx)
		idx++
		return r
	}
}

// SubstituteHole replaces hole targetIdx in s with subtree, leaving
// every other hole untouched.
func SubstituteHole(s *Skeleton, targetIdx int, subtree *Skeleton) *Skeleton {
	return Walk(s,
		morphCounter(func(idx int) *Skeleton {
			if idx == targetIdx {
				return subtree
			}
			return NewSkeletonHole()
		}),
		func(k UnopKind, child *Skeleton) *Skeleton { return NewUnop(k, child) },
		func(k BinopKind, l, r *Skeleton) *Skeleton { return NewBinop(k, l, r) },
		func(x *Skeleton) *Skeleton { return x },
	)
}

// ToExpr fills every hole in s via holeAction, in pre-order, producing a
// concrete CandExpr.
func ToExpr(s *Skeleton, holeAction func(idx int) Variable) *CandExpr {
	return Walk(s,
		morphCounter(holeAction),
		func(k UnopKind, child *CandExpr) *CandExpr { return NewUnop(k, child) },
		func(k BinopKind, l, r *CandExpr) *CandExpr { return NewBinop(k, l, r) },
		func(v Variable) *CandExpr { return NewVariable(v) },
	)
}
