package synth

import (
	"context"
)

// Generator is the interface both candidate generators (brute
// enumerator, circuit synthesizer — pkg/synth/generator) implement.
type Generator interface {
	// NextExpr returns the next candidate, or ok=false once every
	// candidate this generator can produce has been exhausted.
	NextExpr() (cand *CandExpr, ok bool)

	// BadCand reports that cand is universally wrong: at input args it
	// cannot be completed (by any hole-constant choice) to match
	// expected. Generators that don't learn from feedback (the brute
	// enumerator) implement this as a no-op.
	BadCand(cand *CandExpr, args []int32, expected int32)
}

// StepKind discriminates a Driver.Step outcome.
type StepKind int

const (
	StepIncorrect StepKind = iota
	StepCorrect
)

// StepResult is one CEGIS iteration's outcome.
type StepResult struct {
	Kind StepKind
	Cand *CandExpr

	// Answer is set when Kind == StepCorrect.
	Answer *AnswerExpr

	// UniversallyWrong is set when Kind == StepIncorrect: true means the
	// driver confirmed, via a counter-example plus a suitable value,
	// that cand can never be completed to satisfy the specification and
	// fed that example back to the generator; false means the driver
	// only knows cand failed the immediate SAT check (either because
	// learning is disabled, or because no counter-example could be
	// found — including on solver UNKNOWN).
	UniversallyWrong bool
}

// Driver couples a generator, an oracle, and a converter and drives the
// CEGIS refinement loop.
type Driver struct {
	Gen     Generator
	Oracle  *Oracle
	Conv    *Converter
	Learn   bool // whether to query Counterexample/SuitableValue on UNSAT
}

// NewDriver builds a Driver. learn selects whether UNSAT candidates
// trigger the counter-example / suitable-value / BadCand refinement
// path or are simply discarded (the "learning disabled" branch, used
// to measure the value of learning against the same problem).
func NewDriver(gen Generator, oracle *Oracle, conv *Converter, learn bool) *Driver {
	return &Driver{Gen: gen, Oracle: oracle, Conv: conv, Learn: learn}
}

// Step performs one CEGIS iteration. ok is false only when the
// generator is exhausted — a clean termination with no answer.
func (d *Driver) Step(ctx context.Context) (result StepResult, ok bool) {
	cand, ok := d.Gen.NextExpr()
	if !ok {
		return StepResult{}, false
	}

	term := d.Conv.Lift(cand)

	if model, sat := d.Oracle.CheckCandidate(ctx, term, d.Conv.Args(), d.Conv.Consts()); sat {
		answer := d.Conv.Lower(cand, model)
		return StepResult{Kind: StepCorrect, Cand: cand, Answer: answer}, true
	}

	if !d.Learn {
		return StepResult{Kind: StepIncorrect, Cand: cand, UniversallyWrong: false}, true
	}

	ceModel, found := d.Oracle.Counterexample(ctx, term, d.Conv.Consts())
	if !found {
		return StepResult{Kind: StepIncorrect, Cand: cand, UniversallyWrong: false}, true
	}

	inputs := d.Conv.LowerCounterexample(ceModel)
	expected, err := d.Oracle.SuitableValue(ctx, d.Conv.Args(), inputs)
	if err != nil {
		// A partial specification producing an unresolvable
		// counter-example is a fatal specification bug, not a
		// candidate the driver should silently keep exploring.
		panic(err)
	}

	d.Gen.BadCand(cand, inputs, expected)
	return StepResult{Kind: StepIncorrect, Cand: cand, UniversallyWrong: true}, true
}

// ParsePrompt concatenates the converter's declaration preamble with
// text and forwards the result to the oracle's parser.
func (d *Driver) ParsePrompt(text string) error {
	return d.Oracle.Parse(d.Conv.DeclarationPreamble() + text)
}

// Run drives the loop until a correct sample is found, the generator is
// exhausted, or maxSteps iterations have run — both are clean
// terminations with no answer. It returns the winning
// StepResult, or ok=false if no answer was found within the budget.
func Run(ctx context.Context, d *Driver, maxSteps int) (result StepResult, ok bool) {
	for i := 0; i < maxSteps; i++ {
		r, more := d.Step(ctx)
		if !more {
			return StepResult{}, false
		}
		if r.Kind == StepCorrect {
			return r, true
		}
	}
	return StepResult{}, false
}
