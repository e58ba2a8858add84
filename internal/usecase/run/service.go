package run

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/simdoc/internal/domain"
	"github.com/kailas-cloud/simdoc/internal/domain/measure"
	"github.com/kailas-cloud/simdoc/internal/domain/pair"
	domrun "github.com/kailas-cloud/simdoc/internal/domain/run"
	"github.com/kailas-cloud/simdoc/internal/logger"
	"github.com/kailas-cloud/simdoc/internal/usecase/simsearch"
)

// Request describes one search to execute and persist.
type Request struct {
	Measure   measure.Measure
	Documents []string
	Options   simsearch.Options // start from Service.Defaults
}

// Page is a window over the pairs of a run.
type Page struct {
	Pairs  []pair.Pair
	Total  int
	Offset int
	Limit  int
}

// Service executes searches and serves their stored results.
type Service struct {
	repo            Repository
	defaults        simsearch.Options
	maxDocuments    int
	maxBits         int
	maxRounds       int
	maxWindow       int
	defaultPageSize int
	maxPageSize     int
}

// Config holds the limits of a Service.
type Config struct {
	Defaults        simsearch.Options
	MaxDocuments    int // 0 = unlimited
	MaxBits         int // 0 = unlimited
	MaxRounds       int // 0 = unlimited
	MaxWindow       int // 0 = unlimited
	DefaultPageSize int
	MaxPageSize     int
}

// New creates a run service.
func New(repo Repository, cfg Config) *Service {
	return &Service{
		repo:            repo,
		defaults:        cfg.Defaults,
		maxDocuments:    cfg.MaxDocuments,
		maxBits:         cfg.MaxBits,
		maxRounds:       cfg.MaxRounds,
		maxWindow:       cfg.MaxWindow,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
	}
}

// Defaults returns the search options applied when a request does not override them.
func (s *Service) Defaults() simsearch.Options { return s.defaults }

// Submit runs a search synchronously and stores the run with its pairs.
func (s *Service) Submit(ctx context.Context, req Request) (domrun.Run, []pair.Pair, error) {
	if s.maxDocuments > 0 && len(req.Documents) > s.maxDocuments {
		return domrun.Run{}, nil, fmt.Errorf("%d documents, limit %d: %w",
			len(req.Documents), s.maxDocuments, domain.ErrTooManyDocuments)
	}
	if err := s.checkLimits(req.Options); err != nil {
		return domrun.Run{}, nil, err
	}

	ctx = logger.With(ctx, zap.Int("documents", len(req.Documents)))
	searcher, err := simsearch.New(req.Measure, req.Options, logger.FromContext(ctx))
	if err != nil {
		return domrun.Run{}, nil, fmt.Errorf("configure search: %w", err)
	}
	res, err := searcher.Run(ctx, req.Documents)
	if err != nil {
		return domrun.Run{}, nil, fmt.Errorf("search: %w", err)
	}

	r, err := domrun.New(req.Measure, len(req.Documents), len(res.Pairs), searcher.Radius(),
		paramsOf(req.Measure, req.Options), res.Elapsed)
	if err != nil {
		return domrun.Run{}, nil, fmt.Errorf("new run: %w", err)
	}
	if err := s.repo.Save(ctx, r, res.Pairs); err != nil {
		return domrun.Run{}, nil, fmt.Errorf("save run: %w", err)
	}

	logger.FromContext(ctx).Debug("Run stored",
		zap.String("run_id", r.ID()),
		zap.Int("pairs", r.Pairs()),
	)
	return r, res.Pairs, nil
}

// Get retrieves run metadata.
func (s *Service) Get(ctx context.Context, id string) (domrun.Run, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return domrun.Run{}, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// Pairs returns one page of a run's pairs. limit <= 0 selects the default page size;
// limits above the maximum are clamped.
func (s *Service) Pairs(ctx context.Context, id string, offset, limit int) (Page, error) {
	if offset < 0 {
		return Page{}, domain.InvalidInputf("offset must not be negative, got %d", offset)
	}
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if s.maxPageSize > 0 && limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	all, err := s.repo.Pairs(ctx, id)
	if err != nil {
		return Page{}, fmt.Errorf("get pairs: %w", err)
	}
	return Page{
		Pairs:  pair.Page(all, offset, limit),
		Total:  len(all),
		Offset: offset,
		Limit:  limit,
	}, nil
}

// Delete removes a run and its pairs.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// checkLimits bounds the options that size allocations before any work starts.
func (s *Service) checkLimits(o simsearch.Options) error {
	limits := []struct {
		name       string
		value, max int
	}{
		{"bits", o.Bits, s.maxBits},
		{"rounds", o.Rounds, s.maxRounds},
		{"window", o.Window, s.maxWindow},
	}
	for _, l := range limits {
		if l.max > 0 && l.value > l.max {
			return domain.InvalidInputf("%s %d exceeds limit %d", l.name, l.value, l.max)
		}
	}
	return nil
}

func paramsOf(m measure.Measure, o simsearch.Options) domrun.Params {
	delim := ""
	if o.Shingle.Delimiter != 0 {
		delim = string(o.Shingle.Delimiter)
	}
	p := domrun.Params{
		Mode:       string(o.Shingle.Mode),
		Ngram:      o.Shingle.Size,
		Delimiter:  delim,
		Bits:       o.Bits,
		Threshold:  o.Threshold,
		Confidence: o.Confidence,
		Rounds:     o.Rounds,
		Window:     o.Window,
		Seed:       o.Seed,
	}
	if m == measure.Cosine {
		p.TF, p.IDF = string(o.TF), string(o.IDF)
	}
	return p
}
