// Package simsearch runs all-pairs similarity searches over a batch of documents.
//
// A search cuts documents into n-grams, compresses them into binary sketches and lets
// sketch sorting surface the pairs whose Hamming distance implies a similarity at or
// above the threshold.
package simsearch

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/simdoc/internal/domain"
	"github.com/kailas-cloud/simdoc/internal/domain/lsh"
	"github.com/kailas-cloud/simdoc/internal/domain/measure"
	"github.com/kailas-cloud/simdoc/internal/domain/pair"
	"github.com/kailas-cloud/simdoc/internal/domain/shingle"
	"github.com/kailas-cloud/simdoc/internal/domain/sketch"
	"github.com/kailas-cloud/simdoc/internal/domain/sketchsort"
	"github.com/kailas-cloud/simdoc/internal/domain/tfidf"
	"github.com/kailas-cloud/simdoc/internal/metrics"
)

const shingleBlock = 256

// Result is a search outcome with its sketch sorting statistics.
type Result struct {
	Pairs   []pair.Pair
	Stats   sketchsort.Stats
	Elapsed time.Duration
}

// Searcher finds similar document pairs under one measure. It is safe for concurrent use.
type Searcher struct {
	measure  measure.Measure
	opts     Options
	radius   int
	minhash  *lsh.MinHasher
	simhash  *lsh.SimHasher
	weighter tfidf.Weighter
	logger   *zap.Logger
}

// NewJaccardSearcher creates a searcher estimating Jaccard similarity with 1-bit minhash.
func NewJaccardSearcher(opts Options, logger *zap.Logger) (*Searcher, error) {
	return New(measure.Jaccard, opts, logger)
}

// NewCosineSearcher creates a searcher estimating tf-idf cosine similarity with simhash.
func NewCosineSearcher(opts Options, logger *zap.Logger) (*Searcher, error) {
	return New(measure.Cosine, opts, logger)
}

// New validates opts and creates a searcher for the given measure. logger can be nil.
func New(m measure.Measure, opts Options, logger *zap.Logger) (*Searcher, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("unknown measure %q: %w", m, domain.ErrUnsupported)
	}
	if err := opts.Shingle.Validate(); err != nil {
		return nil, err
	}
	radius, err := m.Radius(opts.Threshold, opts.Bits, opts.Confidence)
	if err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Searcher{measure: m, opts: opts, radius: radius, logger: logger}
	switch m {
	case measure.Jaccard:
		s.minhash, err = lsh.NewMinHasher(opts.Bits, opts.Seed)
	case measure.Cosine:
		if s.weighter, err = tfidf.New(opts.TF, opts.IDF); err == nil {
			s.simhash, err = lsh.NewSimHasher(opts.Bits, opts.Seed)
		}
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Measure returns the similarity measure.
func (s *Searcher) Measure() measure.Measure { return s.measure }

// Radius returns the Hamming radius derived from the threshold.
func (s *Searcher) Radius() int { return s.radius }

// Options returns the configuration the searcher was built with.
func (s *Searcher) Options() Options { return s.opts }

// Search returns the similar pairs of docs, ascending by (A, B).
func (s *Searcher) Search(ctx context.Context, docs []string) ([]pair.Pair, error) {
	res, err := s.Run(ctx, docs)
	if err != nil {
		return nil, err
	}
	return res.Pairs, nil
}

// Run is Search with statistics.
func (s *Searcher) Run(ctx context.Context, docs []string) (Result, error) {
	label := string(s.measure)
	res, err := s.run(ctx, docs)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues(label, "error").Inc()
		s.logger.Error("Similarity search failed",
			zap.String("measure", label),
			zap.Int("documents", len(docs)),
			zap.Error(err),
		)
		return Result{}, err
	}

	metrics.SearchesTotal.WithLabelValues(label, "ok").Inc()
	metrics.SearchDocuments.WithLabelValues(label).Observe(float64(len(docs)))
	metrics.SearchPhaseDuration.WithLabelValues(label, "total").Observe(res.Elapsed.Seconds())
	metrics.SearchCandidatesTotal.WithLabelValues(label, "window").Add(float64(res.Stats.Candidates))
	metrics.SearchCandidatesTotal.WithLabelValues(label, "distinct").Add(float64(res.Stats.Distinct))
	metrics.SearchCandidatesTotal.WithLabelValues(label, "verified").Add(float64(res.Stats.Verified))
	metrics.SearchPairsTotal.WithLabelValues(label).Add(float64(len(res.Pairs)))

	s.logger.Info("Similarity search completed",
		zap.String("measure", label),
		zap.Stringer("ngram", s.opts.Shingle),
		zap.Int("documents", len(docs)),
		zap.Int("bits", s.opts.Bits),
		zap.Float64("threshold", s.opts.Threshold),
		zap.Int("radius", s.radius),
		zap.Int("candidates", res.Stats.Distinct),
		zap.Int("pairs", len(res.Pairs)),
		zap.Duration("duration", res.Elapsed),
	)
	return res, nil
}

func (s *Searcher) run(ctx context.Context, docs []string) (Result, error) {
	if len(docs) == 0 {
		return Result{}, fmt.Errorf("search: %w", domain.ErrEmptyCorpus)
	}
	start := time.Now()

	var (
		m   *sketch.Matrix
		ids []int
		err error
	)
	switch s.measure {
	case measure.Jaccard:
		m, ids, err = s.sketchSets(ctx, docs)
	default:
		m, ids, err = s.sketchVectors(ctx, docs)
	}
	if err != nil {
		return Result{}, err
	}

	phase := time.Now()
	found, err := sketchsort.Search(ctx, m, sketchsort.Params{
		Radius:  s.radius,
		Rounds:  s.opts.Rounds,
		Window:  s.opts.Window,
		Seed:    s.opts.Seed,
		Workers: s.opts.Workers,
	})
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}
	s.observe("sort", phase)

	return Result{
		Pairs:   s.toPairs(found.Pairs, ids, len(docs)),
		Stats:   found.Stats,
		Elapsed: time.Since(start),
	}, nil
}

// sketchSets sketches the non-empty shingle sets. Row i of the matrix is document ids[i].
func (s *Searcher) sketchSets(ctx context.Context, docs []string) (*sketch.Matrix, []int, error) {
	phase := time.Now()
	sets := make([][]uint64, len(docs))
	err := s.forEachDoc(ctx, len(docs), func(i int) error {
		set, err := shingle.Set(docs[i], s.opts.Shingle)
		sets[i] = set
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("shingle: %w", err)
	}
	s.observe("shingle", phase)

	sets, ids := nonEmpty(sets, func(i int) int { return len(sets[i]) })

	phase = time.Now()
	m, err := lsh.Build(ctx, s.minhash, sets, s.opts.Workers)
	if err != nil {
		return nil, nil, err
	}
	s.observe("sketch", phase)
	return m, ids, nil
}

// sketchVectors weighs the whole corpus and sketches the non-empty vectors.
// Empty documents still count towards the document total of idf.
func (s *Searcher) sketchVectors(ctx context.Context, docs []string) (*sketch.Matrix, []int, error) {
	phase := time.Now()
	counts := make([]map[uint64]int, len(docs))
	err := s.forEachDoc(ctx, len(docs), func(i int) error {
		c, err := shingle.Counts(docs[i], s.opts.Shingle)
		counts[i] = c
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("shingle: %w", err)
	}
	s.observe("shingle", phase)

	phase = time.Now()
	vectors, err := s.weighter.Weigh(counts)
	if err != nil {
		return nil, nil, err
	}
	s.observe("weigh", phase)
	vectors, ids := nonEmpty(vectors, func(i int) int { return len(counts[i]) })

	phase = time.Now()
	m, err := lsh.Build(ctx, s.simhash, vectors, s.opts.Workers)
	if err != nil {
		return nil, nil, err
	}
	s.observe("sketch", phase)
	return m, ids, nil
}

// forEachDoc runs fn for every document index in parallel blocks.
func (s *Searcher) forEachDoc(ctx context.Context, n int, fn func(i int) error) error {
	workers := s.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += shingleBlock {
		end := min(start+shingleBlock, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait() //nolint:wrapcheck // callers wrap with the phase name
}

// nonEmpty keeps the items of documents with at least one n-gram and returns
// the original index of each kept item.
func nonEmpty[F any](items []F, ngrams func(i int) int) ([]F, []int) {
	kept := make([]F, 0, len(items))
	ids := make([]int, 0, len(items))
	for i, it := range items {
		if ngrams(i) == 0 {
			continue
		}
		kept = append(kept, it)
		ids = append(ids, i)
	}
	return kept, ids
}

// toPairs maps verified sketch pairs back to document ids and converts them to similarity pairs.
// ids[row] is the document of a sketch row; the n-len(ids) empty documents pair with each
// other at similarity 1 and never with anything else.
func (s *Searcher) toPairs(found []sketchsort.Pair, ids []int, n int) []pair.Pair {
	out := make([]pair.Pair, 0, len(found))
	for _, p := range found {
		out = append(out, pair.Pair{
			A:          ids[p.A],
			B:          ids[p.B],
			Distance:   p.Distance,
			Similarity: s.measure.Similarity(p.Distance, s.opts.Bits),
		})
	}

	if n-len(ids) < 2 {
		return out
	}
	empties := make([]int, 0, n-len(ids))
	next := 0
	for i := range n {
		if next < len(ids) && ids[next] == i {
			next++
			continue
		}
		empties = append(empties, i)
	}
	for x, a := range empties {
		for _, b := range empties[x+1:] {
			out = append(out, pair.Pair{A: a, B: b, Similarity: 1})
		}
	}
	slices.SortFunc(out, pair.Compare)
	return out
}

func (s *Searcher) observe(phase string, start time.Time) {
	d := time.Since(start)
	metrics.SearchPhaseDuration.WithLabelValues(string(s.measure), phase).Observe(d.Seconds())
	s.logger.Debug("Search phase completed",
		zap.String("measure", string(s.measure)),
		zap.String("phase", phase),
		zap.Duration("duration", d),
	)
}
