package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/simdoc/internal/corpus"
	logpkg "github.com/kailas-cloud/simdoc/internal/logger"
	"github.com/kailas-cloud/simdoc/internal/version"
	"github.com/kailas-cloud/simdoc/pkg/simdoc"
)

// searchFlags are shared by the jaccard and cosine commands.
type searchFlags struct {
	input      string
	column     string
	threshold  float64
	confidence float64
	bits       int
	rounds     int
	window     int
	ngram      int
	word       bool
	delimiter  string
	seed       uint64
	workers    int
	tf         string
	idf        string
	logLevel   string
}

type searcher interface {
	Search(ctx context.Context, docs []string) ([]simdoc.Pair, error)
	Radius() int
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "simdoc",
		Short: "Find all pairs of similar documents",
		Long: `simdoc reads one document per line (or one parquet column) and prints every pair
whose estimated similarity reaches the threshold, one "a<TAB>b<TAB>similarity" line per pair.
Document ids are zero-based input positions.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newSearchCmd("jaccard", "Jaccard similarity of n-gram sets (1-bit minhash)", false),
		newSearchCmd("cosine", "Cosine similarity of tf-idf n-gram vectors (simhash)", true),
	)
	return root
}

func newSearchCmd(name, short string, cosine bool) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Example: fmt.Sprintf(`  simdoc %[1]s -i docs.txt -t 0.8
  simdoc %[1]s -i docs.parquet --column body --word --ngram 2
  cat docs.txt | simdoc %[1]s -i -`, name),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, f, cosine)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", `input file, one document per line or .parquet ("-" reads stdin)`)
	fl.StringVar(&f.column, "column", corpus.DefaultColumn, "parquet column holding the documents")
	fl.Float64VarP(&f.threshold, "threshold", "t", 0.9, "minimum similarity in (0, 1]")
	fl.Float64Var(&f.confidence, "confidence", 0.999, "probability a pair at the threshold is within the radius, 0 for none")
	fl.IntVarP(&f.bits, "bits", "k", 128, "sketch length in bits")
	fl.IntVarP(&f.rounds, "rounds", "r", 16, "sketch sorting rounds")
	fl.IntVarP(&f.window, "window", "w", 8, "sorted neighbours compared per sketch")
	fl.IntVarP(&f.ngram, "ngram", "n", 5, "n-gram size")
	fl.BoolVar(&f.word, "word", false, "use word n-grams instead of character n-grams")
	fl.StringVar(&f.delimiter, "delimiter", " ", "word delimiter, a single character")
	fl.Uint64Var(&f.seed, "seed", 1, "seed of hash functions and permutations")
	fl.IntVar(&f.workers, "workers", 0, "parallelism, 0 for all CPUs")
	fl.StringVar(&f.logLevel, "log-level", "warn", "log level on stderr (debug, info, warn, error)")
	if cosine {
		fl.StringVar(&f.tf, "tf", "standard", "term frequency weighting: binary, standard, sublinear")
		fl.StringVar(&f.idf, "idf", "standard", "inverse document frequency weighting: unary, standard, smooth")
	}
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runSearch(cmd *cobra.Command, f *searchFlags, cosine bool) error {
	logger, err := logpkg.NewLogger("cli", f.logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	opts, err := f.options(logger)
	if err != nil {
		return err
	}

	var s searcher
	if cosine {
		s, err = simdoc.NewCosineSearcher(append(opts, simdoc.WithWeighting(f.tf, f.idf))...)
	} else {
		s, err = simdoc.NewJaccardSearcher(opts...)
	}
	if err != nil {
		return err
	}

	start := time.Now()
	docs, err := corpus.Load(f.input, f.column)
	if err != nil {
		return fmt.Errorf("load %s: %w", f.input, err)
	}
	logger.Info("Corpus loaded",
		zap.String("input", f.input),
		zap.Int("documents", len(docs)),
		zap.Duration("duration", time.Since(start)),
	)

	pairs, err := s.Search(cmd.Context(), docs)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(cmd.OutOrStdout())
	buf := make([]byte, 0, 64)
	for _, p := range pairs {
		buf = strconv.AppendInt(buf[:0], int64(p.A), 10)
		buf = append(buf, '\t')
		buf = strconv.AppendInt(buf, int64(p.B), 10)
		buf = append(buf, '\t')
		buf = strconv.AppendFloat(buf, p.Similarity, 'f', 6, 64)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write pairs: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write pairs: %w", err)
	}
	return nil
}

func (f *searchFlags) options(logger *zap.Logger) ([]simdoc.Option, error) {
	opts := []simdoc.Option{
		simdoc.WithThreshold(f.threshold),
		simdoc.WithConfidence(f.confidence),
		simdoc.WithBits(f.bits),
		simdoc.WithRounds(f.rounds),
		simdoc.WithWindow(f.window),
		simdoc.WithSeed(f.seed),
		simdoc.WithWorkers(f.workers),
		simdoc.WithLogger(logger),
	}
	if !f.word {
		return append(opts, simdoc.WithNgram(f.ngram)), nil
	}
	if utf8.RuneCountInString(f.delimiter) != 1 {
		return nil, fmt.Errorf("--delimiter must be a single character, got %q: %w",
			f.delimiter, simdoc.ErrInvalidInput)
	}
	delim, _ := utf8.DecodeRuneInString(f.delimiter)
	return append(opts, simdoc.WithWordNgram(f.ngram, delim)), nil
}
