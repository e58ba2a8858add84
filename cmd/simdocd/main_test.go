package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/simdoc/internal/config"
	"github.com/kailas-cloud/simdoc/internal/domain/measure"
	"github.com/kailas-cloud/simdoc/internal/domain/shingle"
	logpkg "github.com/kailas-cloud/simdoc/internal/logger"
	"github.com/kailas-cloud/simdoc/internal/usecase/simsearch"
)

func TestSearchDefaults(t *testing.T) {
	var cfg config.Config
	cfg.ApplyDefaults()
	cfg.Search.Mode = "word"
	cfg.Search.Delimiter = "|"

	opts := searchDefaults(cfg.Search)
	if opts.Shingle.Mode != shingle.Word || opts.Shingle.Size != 5 || opts.Shingle.Delimiter != '|' {
		t.Errorf("unexpected shingle config: %+v", opts.Shingle)
	}
	if opts.Bits != 128 || opts.Rounds != 16 || opts.Window != 8 || opts.Seed != 1 {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.Confidence != 0.999 {
		t.Errorf("Confidence = %v, want 0.999", opts.Confidence)
	}
	for _, m := range []measure.Measure{measure.Jaccard, measure.Cosine} {
		if _, err := simsearch.New(m, opts, nil); err != nil {
			t.Errorf("%s: defaults rejected: %v", m, err)
		}
	}
}

func TestJSONRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := jsonRecoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got %d, want 500", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("expected one panic log entry")
	}
}

func TestWideEventMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	var fromCtx *zap.Logger
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(zap.New(core)))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		fromCtx = logpkg.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if fromCtx == nil {
		t.Fatal("handler did not see a request logger")
	}
	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["request_id"] == "" || fields["route"] != "/health" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestJSONRecoverer_AbortHandler(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rvr := recover(); rvr != http.ErrAbortHandler {
			t.Errorf("expected ErrAbortHandler to propagate, got %v", rvr)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
}
