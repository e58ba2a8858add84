// Package sketch stores fixed-length binary sketches in a single arena.
package sketch

import (
	"math/bits"

	"github.com/kailas-cloud/simdoc/internal/domain"
)

// WordBits is the number of sketch bits per arena word.
const WordBits = 64

// Matrix holds n sketches of the same bit length, row i belonging to document i.
// Bits are packed LSB-first; padding bits of the last word stay zero.
type Matrix struct {
	n     int
	bits  int
	words int
	data  []uint64
}

// WordsFor returns the number of words needed to hold a sketch of the given bit length.
func WordsFor(bitLen int) int {
	return (bitLen + WordBits - 1) / WordBits
}

// New allocates a zeroed matrix for n sketches of bitLen bits.
func New(n, bitLen int) (*Matrix, error) {
	if bitLen <= 0 {
		return nil, domain.InvalidInputf("sketch bit length must be positive, got %d", bitLen)
	}
	if n < 0 {
		return nil, domain.InvalidInputf("negative document count %d", n)
	}
	words := WordsFor(bitLen)
	return &Matrix{
		n:     n,
		bits:  bitLen,
		words: words,
		data:  make([]uint64, n*words),
	}, nil
}

// Len returns the number of sketches.
func (m *Matrix) Len() int { return m.n }

// Bits returns the sketch bit length.
func (m *Matrix) Bits() int { return m.bits }

// Words returns the number of words per sketch.
func (m *Matrix) Words() int { return m.words }

// Row returns the words of sketch i. The slice aliases the arena.
func (m *Matrix) Row(i int) []uint64 {
	return m.data[i*m.words : (i+1)*m.words : (i+1)*m.words]
}

// Bit reports whether bit pos of sketch i is set.
func (m *Matrix) Bit(i, pos int) bool {
	return m.data[i*m.words+pos/WordBits]>>(uint(pos)%WordBits)&1 == 1
}

// Hamming returns the Hamming distance between sketches i and j.
func (m *Matrix) Hamming(i, j int) int {
	return Hamming(m.Row(i), m.Row(j))
}

// Hamming returns the number of differing bits between two equal-length sketches.
func Hamming(a, b []uint64) int {
	d := 0
	for i := range a {
		d += bits.OnesCount64(a[i] ^ b[i])
	}
	return d
}

// TailMask returns the mask of valid bits in the last word of a bitLen-bit sketch.
func TailMask(bitLen int) uint64 {
	if r := bitLen % WordBits; r != 0 {
		return (uint64(1) << uint(r)) - 1
	}
	return ^uint64(0)
}
