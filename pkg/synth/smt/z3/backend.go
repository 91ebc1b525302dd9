// Package z3 implements pkg/synth/smt's abstract solver capabilities
// against the Z3 theorem prover, via the cgo bindings in
// github.com/aclements/go-z3/z3.
//
// This is the one place in bitsynth that imports an actual SMT solver;
// everything else (the oracle, the converter, the circuit synthesizer)
// only ever sees the smt.Context/Solver/Model/BV/Bool interfaces. The
// method shapes below cover exactly what a CEGIS oracle needs from a
// solver: context, solver, push/pop, forall_const, get_const_interp.
package z3

import (
	"context"

	goz3 "github.com/aclements/go-z3/z3"

	"github.com/gitrdm/bitsynth/pkg/synth/smt"
)

// Backend owns one Z3 context and implements smt.Context.
type Backend struct {
	ctx   *goz3.Context
	width int
}

// New creates a Backend with a fixed bit-vector width, process-wide
// W = 32.
func New(cfg smt.Config) *Backend {
	width := cfg.Width
	if width == 0 {
		width = 32
	}

	zcfg := goz3.NewConfig()
	if cfg.TimeoutMillis > 0 {
		zcfg.SetParamValue("timeout", itoa(cfg.TimeoutMillis))
	}

	return &Backend{
		ctx:   goz3.NewContext(zcfg),
		width: width,
	}
}

func (b *Backend) Width() int { return b.width }

func (b *Backend) BVConst(name string) smt.BV {
	return bv{b.ctx.Const(b.ctx.Symbol(name), b.ctx.BVSort(b.width))}
}

func (b *Backend) FreshBV(prefix string) smt.BV {
	return bv{b.ctx.FreshConst(prefix, b.ctx.BVSort(b.width))}
}

func (b *Backend) BVFromInt64(val int64) smt.BV {
	return bv{b.ctx.BVFromInt64(val, b.width)}
}

func (b *Backend) FreshInt(prefix string) smt.Int {
	return integer{b.ctx.FreshConst(prefix, b.ctx.IntSort())}
}

func (b *Backend) IntFromUint64(val uint64) smt.Int {
	return integer{b.ctx.IntFromUint64(val)}
}

func (b *Backend) ForallConst(bound []smt.Term, body smt.Bool) smt.Bool {
	asts := make([]*goz3.AST, 0, len(bound))
	for _, t := range bound {
		asts = append(asts, astOf(t))
	}
	return boolTerm{b.ctx.ForallConst(asts, body.(boolTerm).ast)}
}

func (b *Backend) NewSolver() smt.Solver {
	return &solver{ctx: b.ctx, z: goz3.NewSolver(b.ctx)}
}

func astOf(t smt.Term) *goz3.AST {
	switch v := t.(type) {
	case bv:
		return v.ast
	case integer:
		return v.ast
	default:
		panic("smt/z3: unknown term kind passed to ForallConst")
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// solver adapts goz3.Solver to smt.Solver's push/pop-scoped contract.
type solver struct {
	ctx *goz3.Context
	z   *goz3.Solver
}

func (s *solver) Push()          { s.z.Push() }
func (s *solver) Pop(n int)      { s.z.Pop(n) }
func (s *solver) Assert(f smt.Bool) { s.z.Assert(f.(boolTerm).ast) }

func (s *solver) Check(ctx context.Context) smt.CheckResult {
	// Z3's blocking Check is bounded by the "timeout" param set at
	// context construction (see Backend.New); ctx cancellation beyond
	// that is not observable mid-check — a per-solver time budget is
	// configured at oracle construction instead.
	switch s.z.Check() {
	case goz3.Sat:
		return smt.Sat
	case goz3.Unsat:
		return smt.Unsat
	default:
		return smt.Unknown
	}
}

func (s *solver) Model() smt.Model {
	return model{s.z.Model()}
}

func (s *solver) Reset() { s.z.Reset() }

func (s *solver) FromString(src string) error {
	return s.z.FromString(src)
}

func (s *solver) Assertions() []smt.Bool {
	raw := s.z.Assertions()
	out := make([]smt.Bool, 0, len(raw))
	for _, a := range raw {
		out = append(out, boolTerm{a})
	}
	return out
}

type model struct{ m *goz3.Model }

func (md model) ConstInterp(c smt.BV) (int64, bool) {
	v, ok := md.m.ConstInterp(c.(bv).ast)
	if !ok {
		return 0, false
	}
	return v.AsInt64()
}

func (md model) IntInterp(c smt.Int) (uint64, bool) {
	v, ok := md.m.ConstInterp(c.(integer).ast)
	if !ok {
		return 0, false
	}
	n, ok := v.AsInt64()
	return uint64(n), ok
}

// bv, integer, and boolTerm are thin wrappers so the generic *goz3.AST
// type can implement the sort-specific smt interfaces without letting
// a BV and an Int be accidentally interchanged at compile time.
type bv struct{ ast *goz3.AST }

func (bv) isTerm() {}

func (v bv) Not() smt.BV        { return bv{v.ast.BVNot()} }
func (v bv) Neg() smt.BV        { return bv{v.ast.BVNeg()} }
func (v bv) And(o smt.BV) smt.BV  { return bv{v.ast.BVAnd(o.(bv).ast)} }
func (v bv) Or(o smt.BV) smt.BV   { return bv{v.ast.BVOr(o.(bv).ast)} }
func (v bv) Xor(o smt.BV) smt.BV  { return bv{v.ast.BVXor(o.(bv).ast)} }
func (v bv) Add(o smt.BV) smt.BV  { return bv{v.ast.BVAdd(o.(bv).ast)} }
func (v bv) Sub(o smt.BV) smt.BV  { return bv{v.ast.BVSub(o.(bv).ast)} }
func (v bv) Shl(o smt.BV) smt.BV  { return bv{v.ast.BVShl(o.(bv).ast)} }
func (v bv) AShr(o smt.BV) smt.BV { return bv{v.ast.BVAShr(o.(bv).ast)} }
func (v bv) Eq(o smt.BV) smt.Bool { return boolTerm{v.ast.Eq(o.(bv).ast)} }

type integer struct{ ast *goz3.AST }

func (integer) isTerm() {}

func (v integer) Lt(o smt.Int) smt.Bool { return boolTerm{v.ast.Lt(o.(integer).ast)} }
func (v integer) Le(o smt.Int) smt.Bool { return boolTerm{v.ast.Le(o.(integer).ast)} }
func (v integer) Eq(o smt.Int) smt.Bool { return boolTerm{v.ast.Eq(o.(integer).ast)} }

type boolTerm struct{ ast *goz3.AST }

func (boolTerm) isTerm() {}

func (v boolTerm) And(o smt.Bool) smt.Bool     { return boolTerm{v.ast.And(o.(boolTerm).ast)} }
func (v boolTerm) Not() smt.Bool               { return boolTerm{v.ast.Not()} }
func (v boolTerm) Implies(o smt.Bool) smt.Bool { return boolTerm{v.ast.Implies(o.(boolTerm).ast)} }
