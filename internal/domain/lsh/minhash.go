package lsh

import (
	"math"

	"github.com/kailas-cloud/simdoc/internal/domain"
	"github.com/kailas-cloud/simdoc/internal/domain/sketch"
)

// MinHasher implements 1-bit minwise hashing over n-gram sets.
// Two sets agree on a bit with probability (1 + J) / 2, J being their Jaccard similarity.
type MinHasher struct {
	bits  int
	seeds []uint64 // one per sketch bit
}

var _ Sketcher[[]uint64] = (*MinHasher)(nil)

// NewMinHasher creates a minwise hasher producing bitLen-bit sketches.
func NewMinHasher(bitLen int, seed uint64) (*MinHasher, error) {
	if bitLen <= 0 {
		return nil, domain.InvalidInputf("sketch bit length must be positive, got %d", bitLen)
	}
	return &MinHasher{bits: bitLen, seeds: Seeds(seed, bitLen)}, nil
}

// Bits returns the sketch bit length.
func (h *MinHasher) Bits() int { return h.bits }

// Sketch writes the sketch of a feature set into dst.
// An empty set gets the all-zero sentinel sketch.
func (h *MinHasher) Sketch(set []uint64, dst []uint64) {
	clear(dst)
	if len(set) == 0 {
		return
	}
	for j, seed := range h.seeds {
		lowest := uint64(math.MaxUint64)
		for _, f := range set {
			if v := Mix(f ^ seed); v < lowest {
				lowest = v
			}
		}
		dst[j/sketch.WordBits] |= (lowest & 1) << (uint(j) % sketch.WordBits)
	}
}
