// Command bitsynth is a thin front end for the CEGIS synthesis core:
// declare arguments, supply an SMT-LIB specification over them and
// res, and pick a generator; it prints the first answer found or
// reports why none was.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gitrdm/bitsynth/pkg/synth"
	"github.com/gitrdm/bitsynth/pkg/synth/generator"
	"github.com/gitrdm/bitsynth/pkg/synth/smt"
	"github.com/gitrdm/bitsynth/pkg/synth/smt/z3"
)

// maxSteps bounds the CEGIS loop; hitting it is a clean termination
// with no answer, not an error.
const maxSteps = 20000

// bruteDepthLimit bounds the brute enumerator's skeleton depth.
const bruteDepthLimit = 3

// stringList accumulates a repeatable -arg/-constraint flag's values
// in order of appearance, the way flag.Value is meant to be used for
// multi-valued flags (no slice-flag helper exists in the standard
// library).
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// verbosity counts repeated -v occurrences into a zerolog level: 0
// warnings-and-above, 1 info, 2 debug, 3+ trace.
type verbosity int

func (v *verbosity) String() string { return fmt.Sprintf("%d", int(*v)) }

func (v *verbosity) Set(string) error {
	*v++
	return nil
}

func (v *verbosity) IsBoolFlag() bool { return true }

func (v verbosity) level() zerolog.Level {
	switch {
	case v >= 3:
		return zerolog.TraceLevel
	case v == 2:
		return zerolog.DebugLevel
	case v == 1:
		return zerolog.InfoLevel
	default:
		return zerolog.WarnLevel
	}
}

func main() {
	var args, constraints stringList
	var verb verbosity
	timeoutMs := flag.Int("timeout-ms", 5000, "per-solver-check timeout in milliseconds (0 disables)")
	gen := flag.String("generator", "brute", "candidate generator: brute|circuit")
	flag.Var(&args, "arg", "declare an argument name (repeatable, in order)")
	flag.Var(&constraints, "constraint", "an SMT-LIB constraint fragment relating args and res (repeatable)")
	flag.Var(&verb, "v", "increase log verbosity (repeatable)")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(verb.level()).With().Timestamp().Logger()

	if err := run(log, args, constraints, *gen, *timeoutMs); err != nil {
		log.Error().Err(err).Msg("bitsynth failed")
		os.Exit(1)
	}
}

func run(log zerolog.Logger, args, constraints stringList, genName string, timeoutMs int) error {
	if len(args) == 0 {
		return fmt.Errorf("bitsynth: at least one -arg is required")
	}
	if len(constraints) == 0 {
		return fmt.Errorf("bitsynth: at least one -constraint is required")
	}

	ctx := z3.New(smt.Config{Width: synth.Width, TimeoutMillis: timeoutMs})
	oracle := synth.NewOracle(ctx, log.With().Str("component", "oracle").Logger())
	conv := synth.NewConverter(ctx, args)

	if err := (&synth.Driver{Oracle: oracle, Conv: conv}).ParsePrompt(strings.Join(constraints, "\n")); err != nil {
		return fmt.Errorf("bitsynth: %w", err)
	}

	var g synth.Generator
	switch genName {
	case "brute":
		g = generator.NewBruteEnum(len(args), bruteDepthLimit)
	case "circuit":
		g = generator.NewCircuitEnum(ctx, len(args), generator.DefaultLibrary(), log.With().Str("component", "circuit").Logger())
	default:
		return fmt.Errorf("bitsynth: unknown -generator %q (want brute or circuit)", genName)
	}

	driver := synth.NewDriver(g, oracle, conv, true)

	start := time.Now()
	runCtx := context.Background()
	for i := 0; i < maxSteps; i++ {
		result, more := driver.Step(runCtx)
		if !more {
			if genName == "circuit" {
				return fmt.Errorf("bitsynth: %w", synth.ErrCircuitUnsat)
			}
			return fmt.Errorf("bitsynth: %w", synth.ErrGeneratorExhausted)
		}
		if result.Kind == synth.StepCorrect {
			log.Info().Dur("elapsed", time.Since(start)).Msg("synthesis succeeded")
			fmt.Println(result.Answer.String())
			return nil
		}
	}

	log.Warn().Int("steps", maxSteps).Msg("step limit reached with no answer")
	return nil
}
