// Package tfidf weighs n-gram counts into L2-normalised vectors for the cosine path.
package tfidf

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/kailas-cloud/simdoc/internal/domain"
)

// TF selects the term-frequency scheme.
type TF string

// Term-frequency schemes.
const (
	TFBinary    TF = "binary"
	TFStandard  TF = "standard"
	TFSublinear TF = "sublinear"
)

// IDF selects the inverse-document-frequency scheme.
type IDF string

// Inverse-document-frequency schemes.
const (
	IDFUnary    IDF = "unary"
	IDFStandard IDF = "standard"
	IDFSmooth   IDF = "smooth"
)

// Vector is a sparse weighted feature vector; Features is ascending and parallel to Weights.
type Vector struct {
	Features []uint64
	Weights  []float64
}

// Len returns the number of non-zero entries.
func (v Vector) Len() int { return len(v.Features) }

// Dot returns the dot product of two vectors.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Features) && j < len(o.Features) {
		switch {
		case v.Features[i] < o.Features[j]:
			i++
		case v.Features[i] > o.Features[j]:
			j++
		default:
			sum += v.Weights[i] * o.Weights[j]
			i++
			j++
		}
	}
	return sum
}

// Weighter converts a corpus of term counts into tf-idf vectors.
type Weighter struct {
	tf  TF
	idf IDF
}

// New creates a Weighter. Empty schemes default to TFStandard and IDFStandard.
func New(tf TF, idf IDF) (Weighter, error) {
	if tf == "" {
		tf = TFStandard
	}
	if idf == "" {
		idf = IDFStandard
	}
	switch tf {
	case TFBinary, TFStandard, TFSublinear:
	default:
		return Weighter{}, domain.InvalidInputf("unknown tf scheme %q", tf)
	}
	switch idf {
	case IDFUnary, IDFStandard, IDFSmooth:
	default:
		return Weighter{}, domain.InvalidInputf("unknown idf scheme %q", idf)
	}
	return Weighter{tf: tf, idf: idf}, nil
}

// Weigh returns one L2-normalised vector per document.
// The first pass accumulates document frequencies, the second emits weights.
func (w Weighter) Weigh(corpus []map[uint64]int) ([]Vector, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("weigh: %w", domain.ErrEmptyCorpus)
	}

	df := make(map[uint64]int)
	for _, counts := range corpus {
		for f := range counts {
			df[f]++
		}
	}

	n := float64(len(corpus))
	vectors := make([]Vector, len(corpus))
	for i, counts := range corpus {
		v := Vector{
			Features: make([]uint64, 0, len(counts)),
			Weights:  make([]float64, len(counts)),
		}
		for f := range counts {
			v.Features = append(v.Features, f)
		}
		slices.Sort(v.Features)
		for j, f := range v.Features {
			v.Weights[j] = w.termWeight(counts[f]) * w.inverseWeight(n, float64(df[f]))
		}
		if norm := floats.Norm(v.Weights, 2); norm > 0 {
			floats.Scale(1/norm, v.Weights)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (w Weighter) termWeight(count int) float64 {
	switch w.tf {
	case TFBinary:
		return 1
	case TFSublinear:
		return 1 + math.Log(float64(count))
	default:
		return float64(count)
	}
}

func (w Weighter) inverseWeight(n, df float64) float64 {
	switch w.idf {
	case IDFUnary:
		return 1
	case IDFSmooth:
		return math.Log(1 + n/df)
	default:
		return math.Log(n / df)
	}
}
