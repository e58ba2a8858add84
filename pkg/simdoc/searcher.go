package simdoc

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/simdoc/internal/domain/pair"
	"github.com/kailas-cloud/simdoc/internal/metrics"
	"github.com/kailas-cloud/simdoc/internal/usecase/simsearch"
)

// Pair is a similar document pair. A < B index the searched batch.
type Pair = pair.Pair

// JaccardSearcher finds document pairs whose n-gram sets have a Jaccard similarity
// at or above the threshold.
type JaccardSearcher struct {
	inner *simsearch.Searcher
}

// NewJaccardSearcher validates the options and creates a Jaccard searcher.
func NewJaccardSearcher(opts ...Option) (*JaccardSearcher, error) {
	cfg := newConfig(opts)
	if err := registerMetrics(cfg.metricsReg); err != nil {
		return nil, err
	}
	s, err := simsearch.NewJaccardSearcher(cfg.opts, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("new jaccard searcher: %w", err)
	}
	return &JaccardSearcher{inner: s}, nil
}

// Search returns the similar pairs of docs, ascending by (A, B).
func (s *JaccardSearcher) Search(ctx context.Context, docs []string) ([]Pair, error) {
	return s.inner.Search(ctx, docs) //nolint:wrapcheck // domain errors pass through
}

// Radius returns the Hamming radius derived from the threshold.
func (s *JaccardSearcher) Radius() int { return s.inner.Radius() }

// CosineSearcher finds document pairs whose tf-idf vectors have a cosine similarity
// at or above the threshold.
type CosineSearcher struct {
	inner *simsearch.Searcher
}

// NewCosineSearcher validates the options and creates a cosine searcher.
func NewCosineSearcher(opts ...Option) (*CosineSearcher, error) {
	cfg := newConfig(opts)
	if err := registerMetrics(cfg.metricsReg); err != nil {
		return nil, err
	}
	s, err := simsearch.NewCosineSearcher(cfg.opts, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("new cosine searcher: %w", err)
	}
	return &CosineSearcher{inner: s}, nil
}

// Search returns the similar pairs of docs, ascending by (A, B).
func (s *CosineSearcher) Search(ctx context.Context, docs []string) ([]Pair, error) {
	return s.inner.Search(ctx, docs) //nolint:wrapcheck // domain errors pass through
}

// Radius returns the Hamming radius derived from the threshold.
func (s *CosineSearcher) Radius() int { return s.inner.Radius() }

func registerMetrics(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	for _, c := range metrics.SearchCollectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return fmt.Errorf("register metrics: %w", err)
		}
	}
	return nil
}
