package synth_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gitrdm/bitsynth/pkg/synth"
	"github.com/gitrdm/bitsynth/pkg/synth/smt"
	"github.com/gitrdm/bitsynth/pkg/synth/smt/z3"
)

func TestConverterLiftLowerRoundTrip(t *testing.T) {
	ctx := z3.New(smt.Config{Width: synth.Width})
	oracle := synth.NewOracle(ctx, zerolog.Nop())
	conv := synth.NewConverter(ctx, []string{"x", "y"})

	if err := oracle.Parse(conv.DeclarationPreamble() + "(assert (= res (bvsub x y)))"); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// (x - y) + c0: the hole must be resolvable to 0 to satisfy the spec.
	cand := synth.NewBinop(synth.Plus,
		synth.NewBinop(synth.Minus, synth.NewVariable(synth.ArgumentVar(0)), synth.NewVariable(synth.ArgumentVar(1))),
		synth.NewVariable(synth.UnknownConst()),
	)

	term := conv.Lift(cand)
	model, sat := oracle.CheckCandidate(context.Background(), term, conv.Args(), conv.Consts())
	if !sat {
		t.Fatalf("CheckCandidate((x-y)+c0) should be SAT against spec res = x-y")
	}

	answer := conv.Lower(cand, model)
	got := synth.EvaluateAnswer(answer, func(name string) int32 {
		switch name {
		case "x":
			return 7
		case "y":
			return 3
		default:
			t.Fatalf("unexpected argument name %q", name)
			return 0
		}
	})
	if want := int32(7 - 3); got != want {
		t.Errorf("resolved answer(7,3) = %d, want %d", got, want)
	}
}

func TestConverterArgumentLookup(t *testing.T) {
	ctx := z3.New(smt.Config{Width: synth.Width})
	conv := synth.NewConverter(ctx, []string{"a", "b"})

	if _, ok := conv.Argument("a"); !ok {
		t.Errorf("Argument(%q) should be found", "a")
	}
	if _, ok := conv.Argument("missing"); ok {
		t.Errorf("Argument(%q) should not be found", "missing")
	}
	if len(conv.Args()) != 2 {
		t.Errorf("Args() length = %d, want 2", len(conv.Args()))
	}
}

func TestConverterDeclarationPreamble(t *testing.T) {
	ctx := z3.New(smt.Config{Width: synth.Width})
	conv := synth.NewConverter(ctx, []string{"x"})
	if preamble := conv.DeclarationPreamble(); preamble == "" {
		t.Fatalf("DeclarationPreamble should not be empty")
	}
}
