package run

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/simdoc/internal/domain/measure"
)

func TestNew(t *testing.T) {
	p := Params{
		Mode: "char", Ngram: 3, Bits: 128, Threshold: 0.9, Confidence: 0.999,
		Rounds: 8, Window: 4, TF: "sublinear", IDF: "smooth",
	}
	r, err := New(measure.Jaccard, 10, 2, 6, p, 15*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(r.ID()); err != nil {
		t.Errorf("id %q is not a uuid: %v", r.ID(), err)
	}
	if r.Measure() != measure.Jaccard || r.Documents() != 10 || r.Pairs() != 2 || r.Radius() != 6 {
		t.Errorf("unexpected run: %+v", r)
	}
	if r.Params() != p {
		t.Errorf("params = %+v, want %+v", r.Params(), p)
	}
	if r.CreatedAt() == 0 {
		t.Error("expected createdAt to be set")
	}
	if r.Elapsed() != 15*time.Millisecond {
		t.Errorf("elapsed = %v", r.Elapsed())
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New(measure.Measure("dice"), 1, 0, 0, Params{}, 0); err == nil {
		t.Error("expected error for unknown measure")
	}
	if _, err := New(measure.Cosine, -1, 0, 0, Params{}, 0); err == nil {
		t.Error("expected error for negative document count")
	}
}

func TestReconstruct(t *testing.T) {
	r := Reconstruct("abc", measure.Cosine, 3, 1, 20, Params{Bits: 64}, 1700000000000, time.Second)
	if r.ID() != "abc" || r.Measure() != measure.Cosine || r.CreatedAt() != 1700000000000 {
		t.Errorf("unexpected run: %+v", r)
	}
	if r.Params().Bits != 64 || r.Elapsed() != time.Second {
		t.Errorf("unexpected run: %+v", r)
	}
}
