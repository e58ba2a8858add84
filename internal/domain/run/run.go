// Package run models one persisted similarity search.
package run

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/simdoc/internal/domain/measure"
)

// Params records the search configuration a run was executed with.
type Params struct {
	Mode       string // n-gram mode, "char" or "word"
	Ngram      int
	Delimiter  string
	Bits       int
	Threshold  float64
	Confidence float64
	Rounds     int
	Window     int
	Seed       uint64
	TF         string // cosine only
	IDF        string // cosine only
}

// Run is the metadata of a finished search (immutable value object).
// The result pairs are stored alongside it, not inside it.
type Run struct {
	id        string
	measure   measure.Measure
	documents int
	pairs     int
	radius    int
	params    Params
	createdAt int64
	elapsed   time.Duration
}

// New validates and creates a Run with a fresh id.
func New(m measure.Measure, documents, pairs, radius int, params Params, elapsed time.Duration) (Run, error) {
	if !m.IsValid() {
		return Run{}, fmt.Errorf("invalid measure: %q", m)
	}
	if documents < 0 || pairs < 0 {
		return Run{}, fmt.Errorf("negative counts: documents=%d pairs=%d", documents, pairs)
	}
	return Run{
		id:        uuid.NewString(),
		measure:   m,
		documents: documents,
		pairs:     pairs,
		radius:    radius,
		params:    params,
		createdAt: time.Now().UnixMilli(),
		elapsed:   elapsed,
	}, nil
}

// Reconstruct creates a Run without validation (storage hydration).
func Reconstruct(
	id string, m measure.Measure, documents, pairs, radius int,
	params Params, createdAt int64, elapsed time.Duration,
) Run {
	return Run{
		id:        id,
		measure:   m,
		documents: documents,
		pairs:     pairs,
		radius:    radius,
		params:    params,
		createdAt: createdAt,
		elapsed:   elapsed,
	}
}

// ID returns the run identifier.
func (r Run) ID() string { return r.id }

// Measure returns the similarity measure.
func (r Run) Measure() measure.Measure { return r.measure }

// Documents returns the number of input documents.
func (r Run) Documents() int { return r.documents }

// Pairs returns the number of result pairs.
func (r Run) Pairs() int { return r.pairs }

// Radius returns the Hamming radius derived from the threshold.
func (r Run) Radius() int { return r.radius }

// Params returns the search configuration.
func (r Run) Params() Params { return r.params }

// CreatedAt returns the creation time in unix milliseconds.
func (r Run) CreatedAt() int64 { return r.createdAt }

// Elapsed returns the search duration.
func (r Run) Elapsed() time.Duration { return r.elapsed }
