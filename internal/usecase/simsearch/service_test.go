package simsearch

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/simdoc/internal/domain"
	"github.com/kailas-cloud/simdoc/internal/domain/pair"
	"github.com/kailas-cloud/simdoc/internal/domain/shingle"
	"github.com/kailas-cloud/simdoc/internal/metrics"
)

func trigramOptions(bits int, threshold float64) Options {
	opts := DefaultOptions()
	opts.Shingle = shingle.Config{Mode: shingle.Char, Size: 3}
	opts.Bits = bits
	opts.Threshold = threshold
	opts.Seed = 17
	return opts
}

func ids(ps []pair.Pair) [][2]int {
	out := make([][2]int, len(ps))
	for i, p := range ps {
		out[i] = [2]int{p.A, p.B}
	}
	return out
}

func TestNewSearcher_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		want   error
	}{
		{"zero bits", func(o *Options) { o.Bits = 0 }, domain.ErrInvalidInput},
		{"zero ngram", func(o *Options) { o.Shingle.Size = 0 }, domain.ErrInvalidInput},
		{"zero rounds", func(o *Options) { o.Rounds = 0 }, domain.ErrInvalidInput},
		{"zero window", func(o *Options) { o.Window = 0 }, domain.ErrInvalidInput},
		{"zero threshold", func(o *Options) { o.Threshold = 0 }, domain.ErrUnsupported},
		{"threshold above one", func(o *Options) { o.Threshold = 1.5 }, domain.ErrUnsupported},
		{"confidence one", func(o *Options) { o.Confidence = 1 }, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			if _, err := NewJaccardSearcher(opts, nil); !errors.Is(err, tt.want) {
				t.Errorf("jaccard: expected %v, got %v", tt.want, err)
			}
			if _, err := NewCosineSearcher(opts, nil); !errors.Is(err, tt.want) {
				t.Errorf("cosine: expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewCosineSearcher_UnknownWeighting(t *testing.T) {
	opts := DefaultOptions()
	opts.TF = "log"
	if _, err := NewCosineSearcher(opts, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSearcher_Radius(t *testing.T) {
	tests := []struct {
		name       string
		cosine     bool
		bits       int
		threshold  float64
		confidence float64
		want       int
	}{
		{"jaccard expected distance", false, 128, 0.9, 0, 6},
		{"jaccard default confidence", false, 128, 0.9, 0.999, 14},
		{"cosine expected distance", true, 300, 0.5, 0, 100},
		{"cosine default confidence", true, 300, 0.5, 0.999, 125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := trigramOptions(tt.bits, tt.threshold)
			opts.Confidence = tt.confidence
			ctor := NewJaccardSearcher
			if tt.cosine {
				ctor = NewCosineSearcher
			}
			s, err := ctor(opts, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Radius() != tt.want {
				t.Errorf("radius = %d, want %d", s.Radius(), tt.want)
			}
		})
	}
}

func TestSearch_EmptyCorpus(t *testing.T) {
	s, _ := NewJaccardSearcher(DefaultOptions(), nil)
	if _, err := s.Search(context.Background(), nil); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Errorf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestSearch_SingleDocument(t *testing.T) {
	s, _ := NewCosineSearcher(DefaultOptions(), nil)
	got, err := s.Search(context.Background(), []string{"only one"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no pairs, got %v", got)
	}
}

func TestJaccard_SharedPrefix(t *testing.T) {
	// J = 9/17 for the first two documents, 0 against the third.
	docs := []string{
		"the cat sat",
		"the cat sat on the mat",
		"a dog ran far",
	}
	const seeds = 100

	found, spurious := 0, 0
	var simSum float64
	for seed := range uint64(seeds) {
		opts := trigramOptions(128, 0.5)
		opts.Seed = seed
		s, err := NewJaccardSearcher(opts, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := s.Search(context.Background(), docs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, p := range got {
			if p.A == 0 && p.B == 1 {
				found++
				simSum += p.Similarity
				continue
			}
			spurious++
		}
	}

	if found < seeds-2 {
		t.Errorf("(0, 1) found for %d of %d seeds", found, seeds)
	}
	if spurious > 2 {
		t.Errorf("%d pairs with the unrelated document over %d seeds", spurious, seeds)
	}
	if found > 0 {
		if mean := simSum / float64(found); math.Abs(mean-9.0/17) > 0.05 {
			t.Errorf("mean similarity = %.3f, want about %.3f", mean, 9.0/17)
		}
	}
}

func TestCosine_Duplicates(t *testing.T) {
	s, err := NewCosineSearcher(trigramOptions(1024, 0.9), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.Search(context.Background(), []string{
		"hello world foo",
		"completely different text",
		"hello world foo",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []pair.Pair{{A: 0, B: 2, Distance: 0, Similarity: 1}}
	if !slices.Equal(got, want) {
		t.Errorf("pairs = %v, want %v", got, want)
	}
}

func TestSearch_EmptyDocuments(t *testing.T) {
	docs := []string{"", "abc def", "", "abc deg", ""}
	want := [][2]int{{0, 2}, {0, 4}, {1, 3}, {2, 4}}

	ctors := map[string]func(Options, *testing.T) *Searcher{
		"jaccard": func(o Options, t *testing.T) *Searcher {
			s, err := NewJaccardSearcher(o, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			return s
		},
		"cosine": func(o Options, t *testing.T) *Searcher {
			s, err := NewCosineSearcher(o, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			return s
		},
	}
	for name, ctor := range ctors {
		t.Run(name, func(t *testing.T) {
			s := ctor(trigramOptions(1024, 0.3), t)
			got, err := s.Search(context.Background(), docs)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(ids(got), want) {
				t.Fatalf("pairs = %v, want %v", ids(got), want)
			}
			for _, p := range got {
				if docs[p.A] == "" && p.Similarity != 1 {
					t.Errorf("empty pair %v similarity = %f, want 1", p, p.Similarity)
				}
			}
		})
	}
}

func TestSearch_EmptyDocumentsSkipSorting(t *testing.T) {
	base := []string{
		"the quick brown fox jumps over the lazy dog",
		"pack my box with five dozen liquor jugs",
		"the quick brown fox jumped over the lazy dog",
		"sphinx of black quartz judge my vow",
	}
	// each text is preceded by a run of empty documents
	var padded []string
	var at []int
	for _, d := range base {
		padded = append(padded, make([]string, 75)...)
		at = append(at, len(padded))
		padded = append(padded, d)
	}
	padded = append(padded, "", "")

	opts := trigramOptions(256, 0.5)
	opts.Window = 1
	opts.Rounds = 16
	s, err := NewJaccardSearcher(opts, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want, err := s.Run(context.Background(), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Contains(ids(want.Pairs), [2]int{0, 2}) {
		t.Fatalf("near duplicate missed: %v", ids(want.Pairs))
	}
	got, err := s.Run(context.Background(), padded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Stats != want.Stats {
		t.Errorf("stats = %+v, want %+v", got.Stats, want.Stats)
	}

	var text []pair.Pair
	for _, p := range got.Pairs {
		if padded[p.A] == "" || padded[p.B] == "" {
			if padded[p.A] != padded[p.B] {
				t.Fatalf("empty document paired with text: %v", p)
			}
			continue
		}
		text = append(text, p)
	}
	if len(text) != len(want.Pairs) {
		t.Fatalf("pairs = %v, want %v", ids(text), ids(want.Pairs))
	}
	for i, p := range want.Pairs {
		r := text[i]
		if r.A != at[p.A] || r.B != at[p.B] || r.Distance != p.Distance {
			t.Errorf("pair %d = %+v, want %+v at ids (%d, %d)", i, r, p, at[p.A], at[p.B])
		}
	}
	if empties := len(padded) - len(base); len(got.Pairs)-len(text) != empties*(empties-1)/2 {
		t.Errorf("empty pairs = %d, want %d", len(got.Pairs)-len(text), empties*(empties-1)/2)
	}
}

func TestSearch_Idempotent(t *testing.T) {
	docs := []string{
		"the quick brown fox jumps over the lazy dog",
		"the quick brown fox jumped over the lazy dog",
		"a quick brown fox jumps over a lazy dog",
		"lorem ipsum dolor sit amet",
		"lorem ipsum dolor sit amet consectetur",
	}
	opts := trigramOptions(256, 0.6)

	a, _ := NewJaccardSearcher(opts, nil)
	b, _ := NewJaccardSearcher(opts, nil)
	first, err := a.Search(context.Background(), docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := a.Search(context.Background(), docs)
	third, _ := b.Search(context.Background(), docs)
	if !slices.Equal(first, second) || !slices.Equal(first, third) {
		t.Error("repeated searches differ")
	}
	for _, p := range first {
		if p.Distance > a.Radius() {
			t.Errorf("pair %v outside radius %d", p, a.Radius())
		}
	}
}

func TestSearch_RecordsMetrics(t *testing.T) {
	s, _ := NewJaccardSearcher(DefaultOptions(), nil)
	before := testutil.ToFloat64(metrics.SearchesTotal.WithLabelValues("jaccard", "ok"))

	if _, err := s.Search(context.Background(), []string{"abc", "abd"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _ = s.Search(context.Background(), nil)

	if got := testutil.ToFloat64(metrics.SearchesTotal.WithLabelValues("jaccard", "ok")); got != before+1 {
		t.Errorf("searches_total{ok} = %f, want %f", got, before+1)
	}
	if got := testutil.ToFloat64(metrics.SearchesTotal.WithLabelValues("jaccard", "error")); got < 1 {
		t.Errorf("searches_total{error} = %f, want >= 1", got)
	}
}

func TestSearch_Cancelled(t *testing.T) {
	s, _ := NewJaccardSearcher(DefaultOptions(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Search(ctx, []string{"a", "b"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
