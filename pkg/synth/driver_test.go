package synth_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gitrdm/bitsynth/pkg/synth"
	"github.com/gitrdm/bitsynth/pkg/synth/generator"
	"github.com/gitrdm/bitsynth/pkg/synth/smt"
	"github.com/gitrdm/bitsynth/pkg/synth/smt/z3"
)

func runBrute(t *testing.T, argNames []string, spec string, maxSteps int) (synth.StepResult, bool, int) {
	t.Helper()
	ctx := z3.New(smt.Config{Width: synth.Width})
	oracle := synth.NewOracle(ctx, zerolog.Nop())
	conv := synth.NewConverter(ctx, argNames)
	if err := oracle.Parse(conv.DeclarationPreamble() + spec); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	gen := generator.NewBruteEnum(len(argNames), 3)
	driver := synth.NewDriver(gen, oracle, conv, true)

	steps := 0
	for i := 0; i < maxSteps; i++ {
		steps++
		r, more := driver.Step(context.Background())
		if !more {
			return synth.StepResult{}, false, steps
		}
		if r.Kind == synth.StepCorrect {
			return r, true, steps
		}
	}
	return synth.StepResult{}, false, steps
}

func evalAnswerRec(e *synth.AnswerExpr, byName map[string]int32) int32 {
	return synth.EvaluateAnswer(e, func(name string) int32 { return byName[name] })
}

func TestE1Identity(t *testing.T) {
	result, ok, steps := runBrute(t, []string{"x"}, "(assert (= res x))", 1000)
	if !ok {
		t.Fatalf("E1: no answer found within %d steps", steps)
	}
	for _, v := range []int32{-1, 0, 1, 2147483647} {
		got := evalAnswerRec(result.Answer, map[string]int32{"x": v})
		if got != v {
			t.Errorf("E1: answer(%d) = %d, want %d", v, got, v)
		}
	}
}

func TestE2MaskLowBit(t *testing.T) {
	result, ok, steps := runBrute(t, []string{"x"}, "(assert (= res (bvand x #x00000002)))", 1000)
	if !ok {
		t.Fatalf("E2: no answer found within %d steps", steps)
	}
	for _, v := range []int32{-1, 0, 1, 2147483647} {
		got := evalAnswerRec(result.Answer, map[string]int32{"x": v})
		if want := v & 2; got != want {
			t.Errorf("E2: answer(%d) = %d, want %d", v, got, want)
		}
	}
}

func TestE3FixedConstant(t *testing.T) {
	result, ok, steps := runBrute(t, []string{"x"}, "(assert (= res #x0000007B))", 1000)
	if !ok {
		t.Fatalf("E3: no answer found within %d steps", steps)
	}
	for _, v := range []int32{-1, 0, 1, 123} {
		got := evalAnswerRec(result.Answer, map[string]int32{"x": v})
		if got != 123 {
			t.Errorf("E3: answer(%d) = %d, want 123", v, got)
		}
	}
}

func TestE6Termination(t *testing.T) {
	_, ok, _ := runBrute(t, []string{"x"}, "(assert (= res x)) (assert (= res (bvadd x #x00000001)))", 5000)
	if ok {
		t.Fatalf("E6: contradictory specification must not yield an answer")
	}
}

func TestE4AbsoluteValueCircuit(t *testing.T) {
	ctx := z3.New(smt.Config{Width: synth.Width})
	oracle := synth.NewOracle(ctx, zerolog.Nop())
	conv := synth.NewConverter(ctx, []string{"x"})
	specText := "(assert (and (=> (bvsle x #x00000000) (= res (bvneg x))) (=> (bvsgt x #x00000000) (= res x))))"
	if err := oracle.Parse(conv.DeclarationPreamble() + specText); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	gen := generator.NewCircuitEnum(ctx, 1, generator.DefaultLibrary(), zerolog.Nop())
	driver := synth.NewDriver(gen, oracle, conv, true)

	result, ok := synth.Run(context.Background(), driver, 50)
	if !ok {
		t.Fatalf("E4: circuit synthesizer found no answer for |x|")
	}
	for _, v := range []int32{-5, -1, 0, 1, 5} {
		got := evalAnswerRec(result.Answer, map[string]int32{"x": v})
		want := v
		if want < 0 {
			want = -want
		}
		if got != want {
			t.Errorf("E4: |%d| = %d, want %d", v, got, want)
		}
	}
}

func TestE5LearningReducesSteps(t *testing.T) {
	build := func(learn bool) (int, bool) {
		ctx := z3.New(smt.Config{Width: synth.Width})
		oracle := synth.NewOracle(ctx, zerolog.Nop())
		conv := synth.NewConverter(ctx, []string{"x"})
		specText := "(assert (and (=> (bvsle x #x00000000) (= res (bvneg x))) (=> (bvsgt x #x00000000) (= res x))))"
		if err := oracle.Parse(conv.DeclarationPreamble() + specText); err != nil {
			t.Fatalf("Parse: %v", err)
		}
		gen := generator.NewCircuitEnum(ctx, 1, generator.DefaultLibrary(), zerolog.Nop())
		driver := synth.NewDriver(gen, oracle, conv, learn)

		steps := 0
		for i := 0; i < 50; i++ {
			steps++
			r, more := driver.Step(context.Background())
			if !more {
				return steps, false
			}
			if r.Kind == synth.StepCorrect {
				return steps, true
			}
		}
		return steps, false
	}

	learnedSteps, learnedOK := build(true)
	unlearnedSteps, unlearnedOK := build(false)
	if !learnedOK {
		t.Fatalf("E5: learning-enabled run found no answer")
	}
	if unlearnedOK && unlearnedSteps < learnedSteps {
		t.Errorf("E5: learning took more steps (%d) than no-learning (%d)", learnedSteps, unlearnedSteps)
	}
}
