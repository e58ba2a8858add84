package simsearch

import (
	"github.com/kailas-cloud/simdoc/internal/domain"
	"github.com/kailas-cloud/simdoc/internal/domain/measure"
	"github.com/kailas-cloud/simdoc/internal/domain/shingle"
	"github.com/kailas-cloud/simdoc/internal/domain/tfidf"
)

// Options configures a searcher. Zero values are not defaulted; start from DefaultOptions.
type Options struct {
	Shingle   shingle.Config
	Bits      int
	Threshold float64
	// Confidence widens the radius so that a pair exactly at the threshold is
	// within it with this probability. 0 uses the expected distance alone.
	Confidence float64
	Rounds     int
	Window     int
	Seed       uint64
	Workers    int // GOMAXPROCS when <= 0

	// cosine only
	TF  tfidf.TF
	IDF tfidf.IDF
}

// DefaultOptions returns char 5-grams, 128-bit sketches, τ = 0.9 at confidence 0.999,
// 16 rounds and window 8.
func DefaultOptions() Options {
	return Options{
		Shingle:    shingle.Config{Mode: shingle.Char, Size: 5},
		Bits:       128,
		Threshold:  0.9,
		Confidence: measure.DefaultConfidence,
		Rounds:     16,
		Window:     8,
		Seed:       1,
		TF:         tfidf.TFStandard,
		IDF:        tfidf.IDFStandard,
	}
}

func (o Options) validate() error {
	if err := o.Shingle.Validate(); err != nil {
		return err
	}
	if o.Bits <= 0 {
		return domain.InvalidInputf("sketch bit length must be positive, got %d", o.Bits)
	}
	if o.Rounds <= 0 {
		return domain.InvalidInputf("rounds must be positive, got %d", o.Rounds)
	}
	if o.Window <= 0 {
		return domain.InvalidInputf("window must be positive, got %d", o.Window)
	}
	return nil
}
