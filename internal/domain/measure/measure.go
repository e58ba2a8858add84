// Package measure maps similarity thresholds to Hamming radii and back.
package measure

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kailas-cloud/simdoc/internal/domain"
)

// Measure is the target similarity.
type Measure string

// Supported measures.
const (
	Jaccard Measure = "jaccard"
	Cosine  Measure = "cosine"
)

// radiusSlack absorbs floating point error so that exact thresholds keep their radius.
const radiusSlack = 1e-9

// DefaultConfidence is the probability that a pair exactly at the threshold lies within
// the radius.
const DefaultConfidence = 0.999

// IsValid checks if the measure is one of the supported values.
func (m Measure) IsValid() bool {
	return m == Jaccard || m == Cosine
}

// Radius returns the Hamming radius for bitLen-bit sketches and a similarity threshold.
//
// The distance of a pair at the threshold is Binomial(k, p) with
// Jaccard (1-bit minhash) p = (1 - τ) / 2 and Cosine (simhash) p = arccos(τ) / π.
// A zero confidence keeps the expected distance floor(k p). A confidence c in [0.5, 1)
// adds z_c standard deviations, so a pair exactly at the threshold falls within the
// radius with probability about c. The radius never exceeds bitLen.
func (m Measure) Radius(threshold float64, bitLen int, confidence float64) (int, error) {
	if bitLen <= 0 {
		return 0, domain.InvalidInputf("sketch bit length must be positive, got %d", bitLen)
	}
	if math.IsNaN(threshold) || threshold <= 0 || threshold > 1 {
		return 0, fmt.Errorf("%s threshold %v outside (0, 1]: %w", m, threshold, domain.ErrUnsupported)
	}
	if confidence != 0 && (math.IsNaN(confidence) || confidence < 0.5 || confidence >= 1) {
		return 0, domain.InvalidInputf("confidence must be 0 or in [0.5, 1), got %v", confidence)
	}

	var p float64
	switch m {
	case Jaccard:
		p = (1 - threshold) / 2
	case Cosine:
		p = math.Acos(threshold) / math.Pi
	default:
		return 0, fmt.Errorf("unknown measure %q: %w", m, domain.ErrUnsupported)
	}

	k := float64(bitLen)
	r := k * p
	if confidence > 0 {
		r += distuv.UnitNormal.Quantile(confidence) * math.Sqrt(k*p*(1-p))
	}
	return min(int(math.Floor(r+radiusSlack)), bitLen), nil
}

// Similarity estimates the similarity implied by a Hamming distance between bitLen-bit sketches.
func (m Measure) Similarity(distance, bitLen int) float64 {
	frac := float64(distance) / float64(bitLen)
	switch m {
	case Cosine:
		return math.Cos(math.Pi * frac)
	default:
		return math.Max(0, 1-2*frac)
	}
}
