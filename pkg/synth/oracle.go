package synth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gitrdm/bitsynth/pkg/synth/smt"
)

// ErrSyntaxError is returned by Parse when the supplied text yields an
// empty constraint set. This is fatal; callers should abort the run.
var ErrSyntaxError = errors.New("synth: specification parsed to an empty constraint set")

// ErrUnderspecified is returned by SuitableValue when the specification
// admits no res at the given inputs. A specification this oracle is
// asked to reason about is assumed total over the argument domain;
// this is treated as a fatal specification bug rather than silently
// skipped.
var ErrUnderspecified = errors.New("synth: specification has no satisfying res at these inputs")

// Oracle wraps one persistent solver, the distinguished res bit-vector,
// and the constraint list Φ parsed from the specification. It lives
// for the duration of one synthesis run. Every query pushes a scope
// before asserting and pops it afterward, so the persistent assertion
// stack is always exactly Φ.
type Oracle struct {
	ctx      smt.Context
	solver   smt.Solver
	resultBV smt.BV

	constraints []smt.Bool

	log zerolog.Logger
}

// NewOracle creates an Oracle over ctx with an empty constraint list.
func NewOracle(ctx smt.Context, log zerolog.Logger) *Oracle {
	return &Oracle{
		ctx:      ctx,
		solver:   ctx.NewSolver(),
		resultBV: ctx.BVConst("res"),
		log:      log,
	}
}

// ResultVar returns the res solver constant.
func (o *Oracle) ResultVar() smt.BV { return o.resultBV }

// AddConstraint appends one conjunct to Φ. Used by callers that build
// the specification programmatically instead of via Parse.
func (o *Oracle) AddConstraint(c smt.Bool) {
	o.constraints = append(o.constraints, c)
}

// Parse loads Φ from SMT-LIB text: resets the solver, parses text,
// then extracts the resulting assertions into the constraint list.
// This is a thin passthrough to the solver's own parser — full SMT-LIB
// parsing beyond this passthrough is out of scope. An empty resulting
// assertion set is ErrSyntaxError.
func (o *Oracle) Parse(text string) error {
	o.log.Debug().Str("text", text).Msg("parsing specification")

	o.solver.Reset()
	if err := o.solver.FromString(text); err != nil {
		return fmt.Errorf("synth: parsing specification: %w", err)
	}
	o.constraints = o.solver.Assertions()

	if len(o.constraints) == 0 {
		return ErrSyntaxError
	}

	o.log.Info().Int("constraints", len(o.constraints)).Msg("specification loaded")
	return nil
}

func (o *Oracle) spec() smt.Bool {
	return smt.And(o.ctx, o.constraints)
}

// CheckCandidate asks whether there is a hole-constant assignment
// making cand satisfy the specification for every input: SAT of
// ∃c⃗.∀args,res. (res = cand(args,c⃗)) → Ψ(args,res). On SAT it returns
// the model (which pins the c[i]); on UNSAT or UNKNOWN it returns
// (nil, false). Solver UNKNOWN is treated as UNSAT here.
func (o *Oracle) CheckCandidate(ctx context.Context, cand smt.BV, args, consts []smt.BV) (smt.Model, bool) {
	candEq := cand.Eq(o.resultBV)
	matrix := candEq.Implies(o.spec())

	bound := make([]smt.Term, 0, len(args)+1)
	for _, a := range args {
		bound = append(bound, a)
	}
	bound = append(bound, o.resultBV)
	formula := o.ctx.ForallConst(bound, matrix)

	o.solver.Push()
	defer o.solver.Pop(1)
	o.solver.Assert(formula)

	verdict := o.solver.Check(ctx)
	if o.log.GetLevel() <= zerolog.DebugLevel {
		o.log.Debug().Str("verdict", verdict.String()).Msg("check_candidate")
	}
	if verdict != smt.Sat {
		return nil, false
	}
	return o.solver.Model(), true
}

// Counterexample asks whether there is an input on which every possible
// hole-constant choice fails: SAT of ∃args.∀c⃗,res. (res =
// cand(args,c⃗)) → ¬Ψ(args,res). On SAT it returns a model binding the
// arguments; on UNSAT or UNKNOWN it returns (nil, false) (no
// counter-example found).
func (o *Oracle) Counterexample(ctx context.Context, cand smt.BV, consts []smt.BV) (smt.Model, bool) {
	candEq := cand.Eq(o.resultBV)
	matrix := candEq.Implies(o.spec().Not())

	bound := make([]smt.Term, 0, len(consts)+1)
	for _, c := range consts {
		bound = append(bound, c)
	}
	bound = append(bound, o.resultBV)
	formula := o.ctx.ForallConst(bound, matrix)

	o.solver.Push()
	defer o.solver.Pop(1)
	o.solver.Assert(formula)

	verdict := o.solver.Check(ctx)
	o.log.Debug().Str("verdict", verdict.String()).Msg("counterexample")
	if verdict != smt.Sat {
		return nil, false
	}
	return o.solver.Model(), true
}

// SuitableValue asks for one admissible res at concrete inputs
// argValues: SAT of Ψ(argValues, res) with arguments pinned, returning
// res from the model. Returns ErrUnderspecified if the specification
// admits no res there — this is a hard failure, not a skip.
func (o *Oracle) SuitableValue(ctx context.Context, args []smt.BV, argValues []int32) (int32, error) {
	if len(args) != len(argValues) {
		panic("synth: SuitableValue: args/argValues length mismatch")
	}

	o.solver.Push()
	defer o.solver.Pop(1)

	o.solver.Assert(o.spec())
	for i, a := range args {
		o.solver.Assert(a.Eq(o.ctx.BVFromInt64(int64(argValues[i]))))
	}

	verdict := o.solver.Check(ctx)
	if verdict != smt.Sat {
		return 0, ErrUnderspecified
	}

	val, ok := o.solver.Model().ConstInterp(o.resultBV)
	if !ok {
		panic("synth: model has no interpretation for res (programming error)")
	}
	return int32(val), nil
}
