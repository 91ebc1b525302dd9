package synth

import (
	"fmt"

	"github.com/gitrdm/bitsynth/internal/bitops"
	"github.com/gitrdm/bitsynth/pkg/synth/smt"
)

// Converter owns the solver-side vocabulary for one synthesis run: the
// order-preserving argument name<->index map, the k argument solver
// constants (each named after its argument, so they are the same
// constants a parsed specification refers to), and the append-only
// pool of hole constants c0, c1, ...
// allocated the first time each UnknownConst is encountered in
// pre-order.
//
// The c[i] pool must never shrink for the run's lifetime — constraint
// formulas accumulated by the oracle across CEGIS iterations keep
// referring to earlier c[i] indices, so reusing or renumbering them
// would silently corrupt already-asserted formulas. getOrCreateConst is
// the only way to grow it.
type Converter struct {
	ctx smt.Context

	argIndex map[string]int
	argNames []string
	args     []smt.BV

	consts []smt.BV
}

// NewConverter builds a Converter for the given argument names, in the
// order given (index i is assigned to argNames[i]).
func NewConverter(ctx smt.Context, argNames []string) *Converter {
	c := &Converter{
		ctx:      ctx,
		argIndex: make(map[string]int, len(argNames)),
		argNames: append([]string(nil), argNames...),
	}
	for i, name := range argNames {
		c.argIndex[name] = i
		c.args = append(c.args, ctx.BVConst(name))
	}
	return c
}

// Args returns the k argument solver constants, in declaration order.
func (c *Converter) Args() []smt.BV { return c.args }

// Consts returns the hole constants allocated so far. Grows
// monotonically across a run; never shrinks (see the Converter doc).
func (c *Converter) Consts() []smt.BV { return c.consts }

// Argument looks up the solver constant for a declared argument name.
func (c *Converter) Argument(name string) (smt.BV, bool) {
	idx, ok := c.argIndex[name]
	if !ok {
		return nil, false
	}
	return c.args[idx], true
}

// getOrCreateConst returns the pre-order idx-th hole constant,
// allocating a fresh one the first time idx is reached (append-only).
func (c *Converter) getOrCreateConst(idx int) smt.BV {
	if idx < len(c.consts) {
		return c.consts[idx]
	}
	// idx must equal len(c.consts): holes are consumed strictly in
	// pre-order, one at a time, so this can never skip ahead.
	bitops.AssertMonotonic(len(c.consts), idx)
	v := c.ctx.FreshBV(fmt.Sprintf("c%d", idx))
	c.consts = append(c.consts, v)
	return v
}

// Lift traverses a CandExpr once, translating it into a solver term.
// Every UnknownConst occurrence consumes the next pre-order index,
// reusing the existing hole constant at that index or allocating a new
// one on first use.
func (c *Converter) Lift(e *CandExpr) smt.BV {
	nextHole := 0
	return Walk(e,
		func(v Variable) smt.BV {
			switch v.Kind {
			case VarUnknownConst:
				bv := c.getOrCreateConst(nextHole)
				nextHole++
				return bv
			case VarConst:
				return c.ctx.BVFromInt64(int64(v.Const))
			case VarArgument:
				return c.args[v.Index]
			default:
				panic("synth: unknown Variable kind")
			}
		},
		func(k UnopKind, x smt.BV) smt.BV {
			switch k {
			case BitNot:
				return x.Not()
			case Negate:
				return x.Neg()
			default:
				panic("synth: unknown UnopKind")
			}
		},
		func(k BinopKind, l, r smt.BV) smt.BV {
			switch k {
			case And:
				return l.And(r)
			case Or:
				return l.Or(r)
			case Xor:
				return l.Xor(r)
			case Plus:
				return l.Add(r)
			case Minus:
				return l.Sub(r)
			case Shl:
				return l.Shl(r)
			case ShrArith:
				return l.AShr(r)
			default:
				panic("synth: unknown BinopKind")
			}
		},
		func(x smt.BV) smt.BV { return x },
	)
}

// Lower resolves a CandExpr's holes and arguments through model into an
// AnswerExpr: UnknownConst is resolved by looking up the pre-order-th
// hole constant's interpretation (as signed int32); Argument(i) becomes
// the i-th argument's declared name.
func (c *Converter) Lower(e *CandExpr, model smt.Model) *AnswerExpr {
	nextHole := 0
	return Walk(e,
		func(v Variable) Value {
			switch v.Kind {
			case VarUnknownConst:
				holeVar := c.getOrCreateConst(nextHole)
				nextHole++
				val, ok := model.ConstInterp(holeVar)
				if !ok {
					panic("synth: model has no interpretation for a hole constant (programming error)")
				}
				return ConstValue(int32(val))
			case VarConst:
				return ConstValue(v.Const)
			case VarArgument:
				return ArgValue(c.argNames[v.Index])
			default:
				panic("synth: unknown Variable kind")
			}
		},
		func(k UnopKind, child *AnswerExpr) *AnswerExpr { return NewUnop(k, child) },
		func(k BinopKind, l, r *AnswerExpr) *AnswerExpr { return NewBinop(k, l, r) },
		func(v Value) *AnswerExpr { return NewVariable(v) },
	)
}

// LowerCounterexample reads each argument's interpretation from model,
// in declaration order, producing the concrete inputs the oracle's
// counter-example query found.
func (c *Converter) LowerCounterexample(model smt.Model) []int32 {
	out := make([]int32, len(c.args))
	for i, a := range c.args {
		val, ok := model.ConstInterp(a)
		if !ok {
			panic("synth: model has no interpretation for an argument (programming error)")
		}
		out[i] = int32(val)
	}
	return out
}

// LiftAnswer is the dual of Lower, used by tests to round-trip an
// AnswerExpr back through the solver.
func (c *Converter) LiftAnswer(e *AnswerExpr) smt.BV {
	return Walk(e,
		func(v Value) smt.BV {
			switch v.Kind {
			case ValueArg:
				bv, ok := c.Argument(v.Arg)
				if !ok {
					panic(fmt.Sprintf("synth: AnswerExpr references undeclared argument %q", v.Arg))
				}
				return bv
			case ValueConst:
				return c.ctx.BVFromInt64(int64(v.Const))
			default:
				panic("synth: unknown Value kind")
			}
		},
		func(k UnopKind, x smt.BV) smt.BV {
			if k == BitNot {
				return x.Not()
			}
			return x.Neg()
		},
		func(k BinopKind, l, r smt.BV) smt.BV {
			switch k {
			case And:
				return l.And(r)
			case Or:
				return l.Or(r)
			case Xor:
				return l.Xor(r)
			case Plus:
				return l.Add(r)
			case Minus:
				return l.Sub(r)
			case Shl:
				return l.Shl(r)
			case ShrArith:
				return l.AShr(r)
			default:
				panic("synth: unknown BinopKind")
			}
		},
		func(x smt.BV) smt.BV { return x },
	)
}

// DeclarationPreamble emits the SMT-LIB fragment declaring every
// argument and res as width-W bit-vectors, giving parsed specification
// text a vocabulary.
func (c *Converter) DeclarationPreamble() string {
	s := ""
	for _, name := range c.argNames {
		s += fmt.Sprintf("(declare-const %s (_ BitVec %d))\n", name, c.ctx.Width())
	}
	s += fmt.Sprintf("(declare-const res (_ BitVec %d))\n", c.ctx.Width())
	return s
}
