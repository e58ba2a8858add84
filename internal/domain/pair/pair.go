// Package pair holds the output unit of a similarity search.
package pair

import "cmp"

// Pair is a similar document pair. A < B are zero-based positions in the input batch.
type Pair struct {
	A          int
	B          int
	Distance   int // Hamming distance between the two sketches
	Similarity float64
}

// Compare orders pairs ascending by (A, B).
func Compare(x, y Pair) int {
	if c := cmp.Compare(x.A, y.A); c != 0 {
		return c
	}
	return cmp.Compare(x.B, y.B)
}

// Page returns pairs[offset:offset+limit], clamped to the slice bounds.
// A non-positive limit returns everything after offset.
func Page(pairs []Pair, offset, limit int) []Pair {
	if offset >= len(pairs) || offset < 0 {
		return nil
	}
	end := len(pairs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return pairs[offset:end]
}
