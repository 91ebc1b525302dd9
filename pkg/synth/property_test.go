package synth_test

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gitrdm/bitsynth/pkg/synth"
	"github.com/gitrdm/bitsynth/pkg/synth/generator"
	"github.com/gitrdm/bitsynth/pkg/synth/smt"
	"github.com/gitrdm/bitsynth/pkg/synth/smt/z3"
)

// rngFor seeds a small deterministic PRNG from a test's name, so a
// property test's randomized trials are reproducible across runs.
func rngFor(name string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// onceGen is a synth.Generator that yields a single fixed candidate and
// then reports exhaustion, used to drive Driver.Step through one
// specific candidate under test instead of a full enumeration.
type onceGen struct {
	cand    *synth.CandExpr
	done    bool
	badArgs []int32
	badVal  int32
	badHit  bool
}

func (g *onceGen) NextExpr() (*synth.CandExpr, bool) {
	if g.done {
		return nil, false
	}
	g.done = true
	return g.cand, true
}

func (g *onceGen) BadCand(_ *synth.CandExpr, args []int32, expected int32) {
	g.badHit = true
	g.badArgs = args
	g.badVal = expected
}

// Soundness: for every correct sample, substituting the
// AnswerExpr for res yields a formula valid over the whole input
// domain. Checked by lifting the (now hole-free) answer and asking
// CheckCandidate with an empty constant set — the same universal query
// a correct candidate must pass, with no existential slack left.
func TestPropertySoundness(t *testing.T) {
	rng := rngFor(t.Name())
	for trial := 0; trial < 5; trial++ {
		mask := int32(rng.Intn(1 << 16))
		ctx := z3.New(smt.Config{Width: synth.Width})
		oracle := synth.NewOracle(ctx, zerolog.Nop())
		conv := synth.NewConverter(ctx, []string{"x"})

		spec := fmt.Sprintf("(assert (= res (bvand x #x%08x)))", uint32(mask))
		if err := (&synth.Driver{Oracle: oracle, Conv: conv}).ParsePrompt(spec); err != nil {
			t.Fatalf("trial %d: ParsePrompt: %v", trial, err)
		}

		gen := generator.NewBruteEnum(1, 2)
		driver := synth.NewDriver(gen, oracle, conv, true)
		result, ok := synth.Run(context.Background(), driver, 2000)
		if !ok {
			t.Fatalf("trial %d: no correct sample found for mask %#x", trial, mask)
		}

		term := conv.LiftAnswer(result.Answer)
		if _, sat := oracle.CheckCandidate(context.Background(), term, conv.Args(), nil); !sat {
			t.Errorf("trial %d: answer %s is not sound against mask %#x", trial, result.Answer.String(), mask)
		}
	}
}

// Candidate well-formedness: every candidate a generator yields has depth
// <= D and references only argument indices < k.
func TestPropertyCandidateWellFormed(t *testing.T) {
	rng := rngFor(t.Name())
	for trial := 0; trial < 6; trial++ {
		argCount := 1 + rng.Intn(3)
		depthLimit := rng.Intn(3)

		gen := generator.NewBruteEnum(argCount, depthLimit)
		for i := 0; i < 300; i++ {
			cand, ok := gen.NextExpr()
			if !ok {
				break
			}
			if d := synth.Depth(cand); d > depthLimit {
				t.Fatalf("trial %d: candidate depth %d exceeds limit %d", trial, d, depthLimit)
			}
			synth.Walk(cand,
				func(v synth.Variable) struct{} {
					if v.Kind == synth.VarArgument && (v.Index < 0 || v.Index >= argCount) {
						t.Fatalf("trial %d: candidate references argument index %d, argCount=%d", trial, v.Index, argCount)
					}
					return struct{}{}
				},
				func(_ synth.UnopKind, x struct{}) struct{} { return x },
				func(_ synth.BinopKind, _, _ struct{}) struct{} { return struct{}{} },
				func(x struct{}) struct{} { return x },
			)
		}
	}
}

// canonical renders a CandExpr's exact tree shape (not its semantics)
// for novelty comparisons, since the expression algebra has no
// exported equality beyond object identity.
func canonical(e *synth.CandExpr) string {
	return synth.Walk(e,
		func(v synth.Variable) string {
			switch v.Kind {
			case synth.VarUnknownConst:
				return "c"
			case synth.VarConst:
				return fmt.Sprintf("k%d", v.Const)
			default:
				return fmt.Sprintf("a%d", v.Index)
			}
		},
		func(k synth.UnopKind, x string) string { return fmt.Sprintf("(%s %s)", k, x) },
		func(k synth.BinopKind, l, r string) string { return fmt.Sprintf("(%s %s %s)", l, k, r) },
		func(x string) string { return x },
	)
}

// Enumeration novelty: across one brute-enumerator run, no Expr is
// produced twice.
func TestPropertyEnumerationNovelty(t *testing.T) {
	gen := generator.NewBruteEnum(2, 2)
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		cand, ok := gen.NextExpr()
		if !ok {
			break
		}
		key := canonical(cand)
		if seen[key] {
			t.Fatalf("candidate %s produced twice", key)
		}
		seen[key] = true
	}
}

// AnswerExpr round-trip: lifting an AnswerExpr to a solver term and
// reading its model on a sample input equals direct interpreter
// evaluation on the same input.
func TestPropertyAnswerRoundTrip(t *testing.T) {
	rng := rngFor(t.Name())
	ctx := z3.New(smt.Config{Width: synth.Width})
	conv := synth.NewConverter(ctx, []string{"x", "y"})

	answers := []*synth.AnswerExpr{
		synth.NewBinop(synth.Plus, synth.NewVariable(synth.ArgValue("x")), synth.NewVariable(synth.ConstValue(3))),
		synth.NewBinop(synth.Xor, synth.NewVariable(synth.ArgValue("x")), synth.NewVariable(synth.ArgValue("y"))),
		synth.NewUnop(synth.Negate, synth.NewVariable(synth.ArgValue("y"))),
	}

	for trial, ans := range answers {
		term := conv.LiftAnswer(ans)
		xVal := int32(rng.Intn(1 << 20))
		yVal := int32(rng.Intn(1 << 20))

		solver := ctx.NewSolver()
		argX, _ := conv.Argument("x")
		argY, _ := conv.Argument("y")
		res := ctx.BVConst("res")
		solver.Assert(term.Eq(res))
		solver.Assert(argX.Eq(ctx.BVFromInt64(int64(xVal))))
		solver.Assert(argY.Eq(ctx.BVFromInt64(int64(yVal))))

		if verdict := solver.Check(context.Background()); verdict != smt.Sat {
			t.Fatalf("trial %d: expected sat, got %s", trial, verdict)
		}
		got, ok := solver.Model().ConstInterp(res)
		if !ok {
			t.Fatalf("trial %d: model has no interpretation for res", trial)
		}

		lookup := func(name string) int32 {
			if name == "x" {
				return xVal
			}
			return yVal
		}
		want := synth.EvaluateAnswer(ans, lookup)
		if int32(got) != want {
			t.Errorf("trial %d: solver model res=%d, interpreter=%d", trial, int32(got), want)
		}
	}
}

// Counter-example validity: whenever the driver delivers a universally
// wrong candidate, the suitable value it learns actually satisfies the
// specification, but no choice of hole constants makes the candidate
// match it at that input.
func TestPropertyCounterexampleValidity(t *testing.T) {
	rng := rngFor(t.Name())
	ctx := z3.New(smt.Config{Width: synth.Width})
	oracle := synth.NewOracle(ctx, zerolog.Nop())
	conv := synth.NewConverter(ctx, []string{"x"})

	driverSpec := &synth.Driver{Oracle: oracle, Conv: conv}
	if err := driverSpec.ParsePrompt("(assert (= res (bvxor x #x00000001)))"); err != nil {
		t.Fatalf("ParsePrompt: %v", err)
	}

	// x & UnknownConst: at any even x, bit 0 of x&c is 0 for every c
	// while bit 0 of x^1 is 1, so no constant c makes the candidate
	// match the specification there.
	cand := synth.NewBinop(synth.And, synth.NewVariable(synth.ArgumentVar(0)), synth.NewVariable(synth.UnknownConst()))
	gen := &onceGen{cand: cand}
	driver := synth.NewDriver(gen, oracle, conv, true)

	result, ok := driver.Step(context.Background())
	if !ok {
		t.Fatalf("Step reported generator exhaustion")
	}
	if result.Kind != synth.StepIncorrect || !result.UniversallyWrong {
		t.Fatalf("Step result = %+v, want a universally-wrong incorrect sample", result)
	}
	if !gen.badHit {
		t.Fatalf("BadCand was never called")
	}

	x0 := gen.badArgs[0]
	expected := gen.badVal
	if want := x0 ^ 1; expected != want {
		t.Fatalf("suitable value at x=%d is %d, want %d (spec violated)", x0, expected, want)
	}

	for trial := 0; trial < 20; trial++ {
		c := int32(rng.Int63())
		got := synth.Evaluate(cand, func(v synth.Variable) int32 {
			if v.Kind == synth.VarUnknownConst {
				return c
			}
			return x0
		})
		if got == expected {
			t.Fatalf("trial %d: x&c matched x^1 at x=%d, c=%d (candidate was not universally wrong)", trial, x0, c)
		}
	}
}
