package generator

import "github.com/gitrdm/bitsynth/pkg/synth"

// ComponentTemplate is one reusable circuit building block: an Expr
// whose Argument(i) leaves are the component's input ports and whose
// UnknownConst leaves are the component's own private constants.
type ComponentTemplate struct {
	body *synth.CandExpr
}

// InputCount is the number of Argument leaves in the template body —
// the component's arity.
func (t ComponentTemplate) InputCount() int {
	return countLeaves(t.body, func(v synth.Variable) bool { return v.Kind == synth.VarArgument })
}

// ConstCount is the number of UnknownConst leaves — the component's own
// free constants, distinct from any argument or other component's.
func (t ComponentTemplate) ConstCount() int {
	return countLeaves(t.body, func(v synth.Variable) bool { return v.Kind == synth.VarUnknownConst })
}

func countLeaves(e *synth.CandExpr, pred func(synth.Variable) bool) int {
	return synth.Walk(e,
		func(v synth.Variable) int {
			if pred(v) {
				return 1
			}
			return 0
		},
		func(_ synth.UnopKind, x int) int { return x },
		func(_ synth.BinopKind, l, r int) int { return l + r },
		func(x int) int { return x },
	)
}

// Library is a multiset of component templates: components[i] names
// which template slot fills library position i, so the same template
// can be repeated (the default library uses three AND gates, for
// instance) without duplicating its definition.
type Library struct {
	templates  []ComponentTemplate
	components []int
}

// TemplateFor returns the template instantiated at library position
// compIdx.
func (l Library) TemplateFor(compIdx int) ComponentTemplate {
	return l.templates[l.components[compIdx]]
}

// Size is the number of component instances in the library.
func (l Library) Size() int { return len(l.components) }

func unop(k synth.UnopKind, arg int) *synth.CandExpr {
	return synth.NewUnop(k, synth.NewVariable(synth.ArgumentVar(arg)))
}

func binopArgs(k synth.BinopKind, a, b int) *synth.CandExpr {
	return synth.NewBinop(k, synth.NewVariable(synth.ArgumentVar(a)), synth.NewVariable(synth.ArgumentVar(b)))
}

func binopArgConst(k synth.BinopKind, a int, c int32) *synth.CandExpr {
	return synth.NewBinop(k, synth.NewVariable(synth.ArgumentVar(a)), synth.NewVariable(synth.ConstVar(c)))
}

func binopArgHole(k synth.BinopKind, a int) *synth.CandExpr {
	return synth.NewBinop(k, synth.NewVariable(synth.ArgumentVar(a)), synth.NewVariable(synth.UnknownConst()))
}

// templateCounts names the seven component templates the default
// library uses, keyed by the operator each implements, so both
// DefaultLibrary and WithComponents build from one definition instead
// of two copies.
var templateCounts = []struct {
	name     string
	template ComponentTemplate
}{
	{"and", ComponentTemplate{body: binopArgs(synth.And, 0, 1)}},
	{"or", ComponentTemplate{body: binopArgs(synth.Or, 0, 1)}},
	{"xor", ComponentTemplate{body: binopArgs(synth.Xor, 0, 1)}},
	{"sub", ComponentTemplate{body: binopArgs(synth.Minus, 0, 1)}},
	{"dec", ComponentTemplate{body: binopArgConst(synth.Minus, 0, 1)}},
	{"inc", ComponentTemplate{body: binopArgConst(synth.Plus, 0, 1)}},
	{"shr_const", ComponentTemplate{body: binopArgHole(synth.ShrArith, 0)}},
}

// DefaultLibrary is the 15-slot default component multiset: three
// two-input AND/OR/XOR gates each, three two-input SUB gates, one
// decrement (x-1), one increment (x+1), and one
// arithmetic-shift-by-unknown-constant.
func DefaultLibrary() Library {
	return WithComponents(map[string]int{
		"and":       3,
		"or":        3,
		"xor":       3,
		"sub":       3,
		"dec":       1,
		"inc":       1,
		"shr_const": 1,
	})
}

// WithComponents builds a Library from named counts (the keys
// templateCounts lists: "and", "or", "xor", "sub", "dec", "inc",
// "shr_const"), letting callers narrow or widen the default library
// for a given run.
func WithComponents(counts map[string]int) Library {
	var templates []ComponentTemplate
	var components []int
	for _, tc := range templateCounts {
		n := counts[tc.name]
		if n == 0 {
			continue
		}
		templates = append(templates, tc.template)
		newSlot := len(templates) - 1
		for i := 0; i < n; i++ {
			components = append(components, newSlot)
		}
	}
	return Library{templates: templates, components: components}
}
