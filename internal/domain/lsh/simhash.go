package lsh

import (
	"github.com/kailas-cloud/simdoc/internal/domain"
	"github.com/kailas-cloud/simdoc/internal/domain/sketch"
	"github.com/kailas-cloud/simdoc/internal/domain/tfidf"
)

// SimHasher implements simplified simhash over weighted vectors.
// Each sketch bit is the sign of a random ±1 projection, so two vectors disagree on a
// bit with probability θ/π, θ being the angle between them.
type SimHasher struct {
	bits  int
	seeds []uint64 // one per 64-bit word; each hash bit is one projection sign
}

var _ Sketcher[tfidf.Vector] = (*SimHasher)(nil)

// NewSimHasher creates a simhasher producing bitLen-bit sketches.
func NewSimHasher(bitLen int, seed uint64) (*SimHasher, error) {
	if bitLen <= 0 {
		return nil, domain.InvalidInputf("sketch bit length must be positive, got %d", bitLen)
	}
	return &SimHasher{bits: bitLen, seeds: Seeds(seed, sketch.WordsFor(bitLen))}, nil
}

// Bits returns the sketch bit length.
func (h *SimHasher) Bits() int { return h.bits }

// Sketch writes the sketch of a weighted vector into dst.
// A bit is set when its projected sum is non-negative, so the zero vector maps to all ones.
func (h *SimHasher) Sketch(v tfidf.Vector, dst []uint64) {
	var acc [sketch.WordBits]float64
	last := len(h.seeds) - 1
	for c, seed := range h.seeds {
		acc = [sketch.WordBits]float64{}
		for i, f := range v.Features {
			w := v.Weights[i]
			proj := Mix(f ^ seed)
			for b := range acc {
				if proj>>uint(b)&1 == 1 {
					acc[b] += w
				} else {
					acc[b] -= w
				}
			}
		}

		var word uint64
		for b, sum := range acc {
			if sum >= 0 {
				word |= 1 << uint(b)
			}
		}
		if c == last {
			word &= sketch.TailMask(h.bits)
		}
		dst[c] = word
	}
}
