package simdoc

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/simdoc/internal/domain/shingle"
	"github.com/kailas-cloud/simdoc/internal/domain/tfidf"
	"github.com/kailas-cloud/simdoc/internal/usecase/simsearch"
)

// Option configures a searcher.
type Option interface {
	apply(*searcherConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*searcherConfig)

func (f optionFunc) apply(c *searcherConfig) { f(c) }

type searcherConfig struct {
	opts       simsearch.Options
	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

func newConfig(opts []Option) searcherConfig {
	cfg := searcherConfig{opts: simsearch.DefaultOptions()}
	for _, o := range opts {
		o.apply(&cfg)
	}
	return cfg
}

// WithNgram uses character n-grams of size n. Default: 5.
func WithNgram(n int) Option {
	return optionFunc(func(c *searcherConfig) {
		c.opts.Shingle = shingle.Config{Mode: shingle.Char, Size: n}
	})
}

// WithWordNgram uses word n-grams of size n, splitting words at delim.
// A zero delim splits at spaces.
func WithWordNgram(n int, delim rune) Option {
	return optionFunc(func(c *searcherConfig) {
		c.opts.Shingle = shingle.Config{Mode: shingle.Word, Size: n, Delimiter: delim}
	})
}

// WithBits sets the sketch length in bits. Default: 128.
// Longer sketches estimate similarity more precisely.
func WithBits(k int) Option {
	return optionFunc(func(c *searcherConfig) {
		c.opts.Bits = k
	})
}

// WithThreshold sets the minimum similarity of reported pairs, in (0, 1]. Default: 0.9.
func WithThreshold(t float64) Option {
	return optionFunc(func(c *searcherConfig) {
		c.opts.Threshold = t
	})
}

// WithConfidence sets the probability that a pair at exactly the threshold
// stays within the search radius, in [0.5, 1). Default: 0.999.
// Zero uses the expected distance alone, trading recall for fewer pairs below the threshold.
func WithConfidence(p float64) Option {
	return optionFunc(func(c *searcherConfig) {
		c.opts.Confidence = p
	})
}

// WithRounds sets the number of sketch sorting rounds. Default: 16.
func WithRounds(n int) Option {
	return optionFunc(func(c *searcherConfig) {
		c.opts.Rounds = n
	})
}

// WithWindow sets how many sorted neighbours each sketch is compared with. Default: 8.
func WithWindow(w int) Option {
	return optionFunc(func(c *searcherConfig) {
		c.opts.Window = w
	})
}

// WithSeed sets the seed of all hash functions and permutations.
func WithSeed(seed uint64) Option {
	return optionFunc(func(c *searcherConfig) {
		c.opts.Seed = seed
	})
}

// WithWorkers bounds search parallelism. Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return optionFunc(func(c *searcherConfig) {
		c.opts.Workers = n
	})
}

// WithWeighting selects the tf and idf schemes of the cosine searcher.
// tf: binary, standard, sublinear. idf: unary, standard, smooth.
func WithWeighting(tf, idf string) Option {
	return optionFunc(func(c *searcherConfig) {
		c.opts.TF = tfidf.TF(tf)
		c.opts.IDF = tfidf.IDF(idf)
	})
}

// WithLogger enables structured logging of searches. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *searcherConfig) {
		c.logger = l
	})
}

// WithPrometheus registers search metrics on the given registerer.
// Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *searcherConfig) {
		c.metricsReg = reg
	})
}
