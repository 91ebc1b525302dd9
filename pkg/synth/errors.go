package synth

import "errors"

// ErrGeneratorExhausted is returned by callers (notably cmd/bitsynth)
// wrapping a Run that ended because the generator ran out of
// candidates — a clean termination with no answer.
var ErrGeneratorExhausted = errors.New("synth: generator exhausted with no matching candidate")

// ErrCircuitUnsat is returned by callers wrapping a circuit-synthesizer
// NextExpr call that came back UNSAT: unlike generator exhaustion, this
// means the configured component library can never express a
// satisfying circuit, which is a fatal core failure rather than a
// clean termination.
var ErrCircuitUnsat = errors.New("synth: circuit synthesizer found no satisfying component placement")
