// Package sketchsort finds all pairs of sketches within a Hamming radius by sorting
// randomly permuted sketches and comparing neighbours inside a sliding window.
//
// Every round draws a permutation of the bit positions, sorts the permuted sketches and
// emits each pair at sorted distance 1..Window as a candidate. Similar sketches share long
// prefixes under most permutations, so they land near each other in at least one round.
// Candidates are then verified exactly, which makes false positives impossible; recall
// grows with Rounds and Window.
package sketchsort

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mathext/prng"

	"github.com/kailas-cloud/simdoc/internal/domain"
	"github.com/kailas-cloud/simdoc/internal/domain/lsh"
	"github.com/kailas-cloud/simdoc/internal/domain/sketch"
)

const golden = 0x9e3779b97f4a7c15

// Params configures a search.
type Params struct {
	Radius  int    // maximum Hamming distance of reported pairs
	Rounds  int    // number of random permutations
	Window  int    // neighbours compared after each sorted position
	Seed    uint64 // permutation seed
	Workers int    // concurrent rounds; GOMAXPROCS when <= 0
}

// Validate checks the parameters against the sketch bit length.
func (p Params) Validate(bitLen int) error {
	switch {
	case p.Radius < 0:
		return domain.InvalidInputf("radius must not be negative, got %d", p.Radius)
	case p.Radius > bitLen:
		return domain.InvalidInputf("radius %d exceeds sketch bit length %d", p.Radius, bitLen)
	case p.Rounds <= 0:
		return domain.InvalidInputf("rounds must be positive, got %d", p.Rounds)
	case p.Window <= 0:
		return domain.InvalidInputf("window must be positive, got %d", p.Window)
	}
	return nil
}

// Pair is a verified pair of document ids with A < B.
type Pair struct {
	A, B     int
	Distance int
}

// Stats describes the work done by one search.
type Stats struct {
	Rounds     int
	Candidates int // window pairs over all rounds, duplicates included
	Distinct   int // distinct candidates, each verified once
	Verified   int // distinct candidates within the radius
}

// Result is the outcome of a search.
type Result struct {
	Pairs []Pair // ascending by (A, B)
	Stats Stats
}

// Search returns the pairs of m within p.Radius that the permutation rounds surface.
func Search(ctx context.Context, m *sketch.Matrix, p Params) (Result, error) {
	if err := p.Validate(m.Bits()); err != nil {
		return Result{}, err
	}
	if uint64(m.Len()) > math.MaxUint32 {
		return Result{}, domain.InvalidInputf("too many sketches: %d", m.Len())
	}
	if m.Len() < 2 {
		return Result{Stats: Stats{Rounds: p.Rounds}}, nil
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	perRound := make([][]uint64, p.Rounds)
	for i := range p.Rounds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perRound[i] = round(m, RoundSeed(p.Seed, i), p.Window)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("sketch sort: %w", err)
	}

	total := 0
	for _, c := range perRound {
		total += len(c)
	}
	cands := make([]uint64, 0, total)
	for _, c := range perRound {
		cands = append(cands, c...)
	}
	slices.Sort(cands)
	cands = slices.Compact(cands)

	var pairs []Pair
	for _, c := range cands {
		a, b := int(c>>32), int(c&math.MaxUint32)
		if d := m.Hamming(a, b); d <= p.Radius {
			pairs = append(pairs, Pair{A: a, B: b, Distance: d})
		}
	}

	return Result{
		Pairs: pairs,
		Stats: Stats{
			Rounds:     p.Rounds,
			Candidates: total,
			Distinct:   len(cands),
			Verified:   len(pairs),
		},
	}, nil
}

// RoundSeed derives the permutation seed of round i.
func RoundSeed(seed uint64, i int) uint64 {
	return lsh.Mix(seed + uint64(i+1)*golden)
}

// round sorts the permuted sketches and returns the window candidates packed as a<<32|b.
func round(m *sketch.Matrix, seed uint64, window int) []uint64 {
	n, words := m.Len(), m.Words()
	perm := rand.New(prng.NewXoshiro256starstar(seed)).Perm(m.Bits())

	keys := make([]uint64, n*words)
	for id := range n {
		key := keys[id*words : (id+1)*words]
		for pos, src := range perm {
			if m.Bit(id, src) {
				key[pos/sketch.WordBits] |= 1 << uint(sketch.WordBits-1-pos%sketch.WordBits)
			}
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		if c := slices.Compare(keys[a*words:(a+1)*words], keys[b*words:(b+1)*words]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	window = min(window, n-1)
	out := make([]uint64, 0, n*window)
	for i, a := range order {
		for j := i + 1; j <= i+window && j < n; j++ {
			b := order[j]
			lo, hi := min(a, b), max(a, b)
			out = append(out, uint64(lo)<<32|uint64(hi))
		}
	}
	return out
}

// BruteForce compares every pair exactly. It is the reference that Search approximates.
func BruteForce(m *sketch.Matrix, radius int) []Pair {
	var pairs []Pair
	for a := range m.Len() {
		for b := a + 1; b < m.Len(); b++ {
			if d := m.Hamming(a, b); d <= radius {
				pairs = append(pairs, Pair{A: a, B: b, Distance: d})
			}
		}
	}
	return pairs
}
