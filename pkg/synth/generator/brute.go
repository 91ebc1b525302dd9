// Package generator implements bitsynth's two candidate generators: the
// brute enumerator (this file) and the circuit synthesizer
// (circuit.go, library.go). Both implement synth.Generator.
package generator

import "github.com/gitrdm/bitsynth/pkg/synth"

// exprIdx enumerates every hole filling of one fixed skeleton, by
// little-endian counting in base (argCount+1): digit 0 means
// UnknownConst, digit n+1 means Argument(n). The first hole advances
// fastest.
type exprIdx struct {
	argCount      int
	limitReached  bool
	skele         *synth.Skeleton
	digits        []int
}

func newExprIdx(argCount int) *exprIdx {
	return &exprIdx{argCount: argCount, limitReached: true}
}

func (e *exprIdx) reset(skele *synth.Skeleton) {
	n := synth.CountHoles(skele)
	e.digits = make([]int, n)
	e.limitReached = false
	e.skele = skele
}

func (e *exprIdx) digitToVar(d int) synth.Variable {
	if d == 0 {
		return synth.UnknownConst()
	}
	return synth.ArgumentVar(d - 1)
}

func (e *exprIdx) isEmpty() bool { return e.limitReached }

func (e *exprIdx) increment() {
	if e.limitReached {
		return
	}
	for i := range e.digits {
		if e.digits[i] < e.argCount {
			e.digits[i]++
			return
		}
		e.digits[i] = 0
	}
	e.limitReached = true
}

func (e *exprIdx) next() (*synth.CandExpr, bool) {
	if e.limitReached {
		return nil, false
	}
	digits := e.digits
	res := synth.ToExpr(e.skele, func(idx int) synth.Variable {
		return e.digitToVar(digits[idx])
	})
	e.increment()
	return res, true
}

// skeletonIdx enumerates skeletons breadth-first: level 0 is the
// single-hole skeleton; each subsequent level replaces every hole in
// every current skeleton with each of the 9 operator choices (2 unops,
// 7 binops), dropping anything whose depth exceeds the limit.
type skeletonIdx struct {
	depthLimit int
	pos        int
	skeletons  []*synth.Skeleton
}

func newSkeletonIdx(depthLimit int) *skeletonIdx {
	return &skeletonIdx{
		depthLimit: depthLimit,
		skeletons:  []*synth.Skeleton{synth.NewSkeletonHole()},
	}
}

func (s *skeletonIdx) next() (*synth.Skeleton, bool) {
	if s.pos >= len(s.skeletons) {
		return nil, false
	}
	r := s.skeletons[s.pos]
	s.pos++
	return r, true
}

func (s *skeletonIdx) expandHoles() {
	s.pos = 0
	var grown []*synth.Skeleton
	for _, skele := range s.skeletons {
		grown = append(grown, growSkeleton(skele)...)
	}
	s.skeletons = grown[:0]
	seen := make(map[string]bool, len(grown))
	for _, g := range grown {
		// The same skeleton can be reached by filling its holes in a
		// different order; keep only its first occurrence.
		key := synth.Walk(g,
			func(struct{}) string { return "_" },
			func(k synth.UnopKind, x string) string { return "(" + k.String() + x + ")" },
			func(k synth.BinopKind, l, r string) string { return "(" + l + k.String() + r + ")" },
			func(x string) string { return x },
		)
		if synth.Depth(g) <= s.depthLimit && !seen[key] {
			seen[key] = true
			s.skeletons = append(s.skeletons, g)
		}
	}
}

func growSkeleton(skele *synth.Skeleton) []*synth.Skeleton {
	holes := synth.CountHoles(skele)
	var out []*synth.Skeleton
	for hole := 0; hole < holes; hole++ {
		for _, subst := range allHoleSubsts() {
			out = append(out, synth.SubstituteHole(skele, hole, subst))
		}
	}
	return out
}

func allHoleSubsts() []*synth.Skeleton {
	out := make([]*synth.Skeleton, 0, len(synth.AllUnops)+len(synth.AllBinops))
	for _, u := range synth.AllUnops {
		out = append(out, synth.NewUnop(u, synth.NewSkeletonHole()))
	}
	for _, b := range synth.AllBinops {
		out = append(out, synth.NewBinop(b, synth.NewSkeletonHole(), synth.NewSkeletonHole()))
	}
	return out
}

// exprBreadth composes skeletonIdx and exprIdx into two nested lazy
// sequences: once one skeleton's hole fillings are exhausted, pull the
// next skeleton (expanding a level if the current one is exhausted
// too).
type exprBreadth struct {
	exprs    *exprIdx
	skeletons *skeletonIdx
}

func newExprBreadth(argCount, depthLimit int) *exprBreadth {
	return &exprBreadth{
		exprs:     newExprIdx(argCount),
		skeletons: newSkeletonIdx(depthLimit),
	}
}

func (b *exprBreadth) next() (*synth.CandExpr, bool) {
	if b.exprs.isEmpty() {
		skele, ok := b.skeletons.next()
		if !ok {
			b.skeletons.expandHoles()
			skele, ok = b.skeletons.next()
			if !ok {
				return nil, false
			}
		}
		b.exprs.reset(skele)
	}
	return b.exprs.next()
}

// BruteEnum is the lazy, bounded brute enumerator: every CandExpr with
// depth <= D over the fixed unop/binop alphabet, in breadth-first
// order. It ignores counter-example feedback — BadCand is a no-op,
// making this generator the simplest correctness baseline.
type BruteEnum struct {
	breadth *exprBreadth
}

// NewBruteEnum builds a BruteEnum for argCount arguments, bounded to
// skeleton depth depthLimit.
func NewBruteEnum(argCount, depthLimit int) *BruteEnum {
	return &BruteEnum{breadth: newExprBreadth(argCount, depthLimit)}
}

func (b *BruteEnum) NextExpr() (*synth.CandExpr, bool) { return b.breadth.next() }

func (b *BruteEnum) BadCand(*synth.CandExpr, []int32, int32) {
	// A brute-force enumerator doesn't learn.
}

var _ synth.Generator = (*BruteEnum)(nil)
