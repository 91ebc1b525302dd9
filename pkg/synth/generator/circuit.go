package generator

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/rs/zerolog"

	"github.com/gitrdm/bitsynth/pkg/synth"
	"github.com/gitrdm/bitsynth/pkg/synth/smt"
)

// connection is one wire in the circuit model: a value term and the
// integer line number it sits at (component-based synthesis over
// shared line-number variables).
type connection struct {
	val smt.BV
	loc smt.Int
}

func newConnection(ctx smt.Context, prefix string) connection {
	return connection{
		val: ctx.FreshBV(prefix + "v"),
		loc: ctx.FreshInt(prefix + "l"),
	}
}

// componentInstance is one library slot's solver-side instantiation:
// its own private constants, its input wires, and its output wire.
type componentInstance struct {
	constants []smt.BV
	inputs    []connection
	output    connection
}

func (c componentInstance) allConnections() []connection {
	out := make([]connection, 0, len(c.inputs)+1)
	out = append(out, c.inputs...)
	out = append(out, c.output)
	return out
}

// templateLift evaluates a component template's body into a solver
// term: Argument(i) leaves read the component's i-th input wire,
// UnknownConst leaves are resolved by pre-order position against the
// component's own constants — the same pre-order convention
// pkg/synth.Converter uses for its hole pool.
func templateLift(body *synth.CandExpr, ctx smt.Context, inputs []connection, constants []smt.BV) smt.BV {
	nextHole := 0
	return synth.Walk(body,
		func(v synth.Variable) smt.BV {
			switch v.Kind {
			case synth.VarArgument:
				return inputs[v.Index].val
			case synth.VarUnknownConst:
				bv := constants[nextHole]
				nextHole++
				return bv
			case synth.VarConst:
				return ctx.BVFromInt64(int64(v.Const))
			default:
				panic("synth/generator: unknown Variable kind in component template")
			}
		},
		func(k synth.UnopKind, x smt.BV) smt.BV {
			if k == synth.BitNot {
				return x.Not()
			}
			return x.Neg()
		},
		func(k synth.BinopKind, l, r smt.BV) smt.BV {
			switch k {
			case synth.And:
				return l.And(r)
			case synth.Or:
				return l.Or(r)
			case synth.Xor:
				return l.Xor(r)
			case synth.Plus:
				return l.Add(r)
			case synth.Minus:
				return l.Sub(r)
			case synth.Shl:
				return l.Shl(r)
			case synth.ShrArith:
				return l.AShr(r)
			default:
				panic("synth/generator: unknown BinopKind in component template")
			}
		},
		func(x smt.BV) smt.BV { return x },
	)
}

// librarySpec is one synthesis attempt's full solver-side instantiation
// of the library plus the declared arguments and result wire.
type librarySpec struct {
	components []componentInstance
	args       []connection
	result     connection
}

func buildLibrarySpec(ctx smt.Context, solver smt.Solver, argCount int, lib Library) librarySpec {
	result := newConnection(ctx, "cr")
	args := make([]connection, argCount)
	for i := range args {
		args[i] = newConnection(ctx, fmt.Sprintf("ca%d_", i))
	}

	locCount := ctx.IntFromUint64(uint64(argCount + lib.Size()))
	argCountTerm := ctx.IntFromUint64(uint64(argCount))
	zero := ctx.IntFromUint64(0)

	components := make([]componentInstance, lib.Size())
	for i := 0; i < lib.Size(); i++ {
		tmpl := lib.TemplateFor(i)
		comp := componentInstance{
			output:    newConnection(ctx, fmt.Sprintf("co%d_", i)),
			constants: make([]smt.BV, tmpl.ConstCount()),
			inputs:    make([]connection, tmpl.InputCount()),
		}
		for j := range comp.constants {
			comp.constants[j] = ctx.FreshBV(fmt.Sprintf("cc%d_%d_", i, j))
		}
		for j := range comp.inputs {
			comp.inputs[j] = newConnection(ctx, fmt.Sprintf("ci%d_%d_", i, j))
		}
		components[i] = comp

		// Library semantics: the component's output equals its body.
		solver.Assert(comp.output.val.Eq(templateLift(tmpl.body, ctx, comp.inputs, comp.constants)))

		// Acyclicity: every input must come from a strictly earlier line.
		for _, in := range comp.inputs {
			solver.Assert(in.loc.Lt(comp.output.loc))
		}
	}

	// Consistency: the arguments and every component output share one
	// pairwise-distinct location space, not two separately-distinct
	// ones — an argument and a component output may never alias.
	outputLocs := make([]smt.Int, 0, argCount+len(components))
	for _, a := range args {
		outputLocs = append(outputLocs, a.loc)
	}
	for _, c := range components {
		outputLocs = append(outputLocs, c.output.loc)
	}
	for i := 0; i < len(outputLocs); i++ {
		for j := i + 1; j < len(outputLocs); j++ {
			solver.Assert(outputLocs[i].Eq(outputLocs[j]).Not())
		}
	}

	// Domain constraints: argument locations are fixed 0..argCount-1;
	// component outputs range over argCount..argCount+N-1, and every
	// input over 0..argCount+N-1.
	for i, a := range args {
		solver.Assert(a.loc.Eq(ctx.IntFromUint64(uint64(i))))
	}
	for _, c := range components {
		solver.Assert(argCountTerm.Le(c.output.loc))
		solver.Assert(c.output.loc.Lt(locCount))
	}
	for _, c := range components {
		for _, in := range c.inputs {
			solver.Assert(zero.Le(in.loc))
			solver.Assert(in.loc.Lt(locCount))
		}
	}
	// The result may be any wire in the circuit, including a bare
	// argument (e.g. f(x) = x, zero components used), so its location
	// ranges over the full 0..argCount+N-1, not just the component
	// sub-range.
	solver.Assert(zero.Le(result.loc))
	solver.Assert(result.loc.Lt(locCount))

	// Connection semantics: any two wires sharing a location must carry
	// the same value.
	all := make([]connection, 0, len(args)+len(components)*2+1)
	all = append(all, args...)
	for _, c := range components {
		all = append(all, c.allConnections()...)
	}
	all = append(all, result)
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			x, y := all[i], all[j]
			solver.Assert(x.loc.Eq(y.loc).Implies(x.val.Eq(y.val)))
		}
	}

	return librarySpec{components: components, args: args, result: result}
}

// circuitTest is one observed (inputs -> expected result) example, fed
// back by BadCand as a per-example I/O test.
type circuitTest struct {
	args     []int32
	expected int32
}

// assert ties this example's inputs to its expected result against the
// shared location assignment, using a fresh set of value wires private
// to this test: only the component constants and the loc variables are
// shared across every circuitTest. Without fresh per-test values, every
// test's implication would share the same argument value variable, so
// once two tests disagree on their input the solver could pick an
// argument value satisfying neither (or only one), leaving the other
// test's implication vacuously true and the test unconstraining —
// defeating the whole point of accumulating examples across NextExpr
// calls.
func (t circuitTest) assert(ctx smt.Context, solver smt.Solver, spec librarySpec, lib Library, testIdx int) {
	all := make([]connection, 0, len(spec.args)+len(spec.components)*2+1)

	for i, a := range spec.args {
		all = append(all, connection{val: ctx.BVFromInt64(int64(t.args[i])), loc: a.loc})
	}

	for i, comp := range spec.components {
		tmpl := lib.TemplateFor(i)
		inputs := make([]connection, len(comp.inputs))
		for j, in := range comp.inputs {
			inputs[j] = connection{val: ctx.FreshBV(fmt.Sprintf("t%d_ci%d_%d_", testIdx, i, j)), loc: in.loc}
		}
		output := connection{val: ctx.FreshBV(fmt.Sprintf("t%d_co%d_", testIdx, i)), loc: comp.output.loc}
		solver.Assert(output.val.Eq(templateLift(tmpl.body, ctx, inputs, comp.constants)))

		all = append(all, inputs...)
		all = append(all, output)
	}

	all = append(all, connection{val: ctx.BVFromInt64(int64(t.expected)), loc: spec.result.loc})

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			x, y := all[i], all[j]
			solver.Assert(x.loc.Eq(y.loc).Implies(x.val.Eq(y.val)))
		}
	}
}

// CircuitEnum is the component-based circuit synthesizer: on every
// NextExpr call it re-solves the whole library-placement
// problem against every test observed so far, so (unlike BruteEnum) it
// genuinely learns from BadCand feedback.
type CircuitEnum struct {
	argCount int
	ctx      smt.Context
	solver   smt.Solver
	lib      Library
	tests    []circuitTest
	log      zerolog.Logger
}

// NewCircuitEnum builds a CircuitEnum over the given component library.
func NewCircuitEnum(ctx smt.Context, argCount int, lib Library, log zerolog.Logger) *CircuitEnum {
	return &CircuitEnum{
		argCount: argCount,
		ctx:      ctx,
		solver:   ctx.NewSolver(),
		lib:      lib,
		log:      log,
	}
}

func (c *CircuitEnum) NextExpr() (*synth.CandExpr, bool) {
	c.solver.Push()
	defer c.solver.Pop(1)

	spec := buildLibrarySpec(c.ctx, c.solver, c.argCount, c.lib)
	for i, t := range c.tests {
		t.assert(c.ctx, c.solver, spec, c.lib, i)
	}

	verdict := c.solver.Check(context.Background())
	if c.log.GetLevel() <= zerolog.DebugLevel {
		c.log.Debug().Str("verdict", verdict.String()).Int("tests", len(c.tests)).Msg("circuit_synth")
	}
	if verdict != smt.Sat {
		return nil, false
	}

	model := c.solver.Model()
	return decodeModel(c.lib, spec, model), true
}

// BadCand records args/expected as a new test and forces the next
// NextExpr call to re-synthesize against it.
func (c *CircuitEnum) BadCand(_ *synth.CandExpr, args []int32, expected int32) {
	c.tests = append(c.tests, circuitTest{args: append([]int32(nil), args...), expected: expected})
}

// locSource names which kind of line a decoded location holds: a
// library component's output, or an argument.
type locSource struct {
	isArg   bool
	argIdx  int
	compIdx int
}

// decodeModel walks from the result's location backward through the
// model's line-number assignment, rebuilding a concrete CandExpr.
func decodeModel(lib Library, spec librarySpec, model smt.Model) *synth.CandExpr {
	locCount := len(spec.args) + len(spec.components)
	sources := make([]locSource, locCount)

	for i, a := range spec.args {
		loc := intInterp(model, a.loc)
		sources[loc] = locSource{isArg: true, argIdx: i}
	}
	for i, comp := range spec.components {
		loc := intInterp(model, comp.output.loc)
		sources[loc] = locSource{isArg: false, compIdx: i}
	}

	startLoc := intInterp(model, spec.result.loc)

	visited := bitset.New(uint(locCount))
	return buildExprFromModel(lib, spec, sources, model, startLoc, visited)
}

func intInterp(model smt.Model, v smt.Int) int {
	val, ok := model.IntInterp(v)
	if !ok {
		panic("synth/generator: model has no interpretation for a location variable (programming error)")
	}
	return int(val)
}

func buildExprFromModel(lib Library, spec librarySpec, sources []locSource, model smt.Model, loc int, visited *bitset.BitSet) *synth.CandExpr {
	if visited.Test(uint(loc)) {
		// visited marks only the lines on the current decode path, so a
		// line feeding several inputs is decoded once per use; meeting a
		// marked line again means the model has a cycle, which the
		// acyclicity constraint forbids.
		panic("synth/generator: cycle detected while decoding circuit model")
	}
	visited.Set(uint(loc))
	defer visited.Clear(uint(loc))

	src := sources[loc]
	if src.isArg {
		return synth.NewVariable(synth.ArgumentVar(src.argIdx))
	}

	comp := spec.components[src.compIdx]
	tmpl := lib.TemplateFor(src.compIdx)

	nextConst := 0
	return synth.Walk(tmpl.body,
		func(v synth.Variable) *synth.CandExpr {
			switch v.Kind {
			case synth.VarUnknownConst:
				val, ok := model.ConstInterp(comp.constants[nextConst])
				if !ok {
					panic("synth/generator: model has no interpretation for a component constant")
				}
				nextConst++
				return synth.NewVariable(synth.ConstVar(int32(val)))
			case synth.VarConst:
				return synth.NewVariable(synth.ConstVar(v.Const))
			case synth.VarArgument:
				in := comp.inputs[v.Index]
				childLoc := intInterp(model, in.loc)
				return buildExprFromModel(lib, spec, sources, model, childLoc, visited)
			default:
				panic("synth/generator: unknown Variable kind in component template")
			}
		},
		func(k synth.UnopKind, child *synth.CandExpr) *synth.CandExpr { return synth.NewUnop(k, child) },
		func(k synth.BinopKind, l, r *synth.CandExpr) *synth.CandExpr { return synth.NewBinop(k, l, r) },
		func(x *synth.CandExpr) *synth.CandExpr { return x },
	)
}

var _ synth.Generator = (*CircuitEnum)(nil)
