package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/simdoc/internal/domain"
	"github.com/kailas-cloud/simdoc/internal/domain/measure"
	"github.com/kailas-cloud/simdoc/internal/domain/pair"
	domrun "github.com/kailas-cloud/simdoc/internal/domain/run"
	"github.com/kailas-cloud/simdoc/internal/domain/shingle"
	"github.com/kailas-cloud/simdoc/internal/domain/tfidf"
	healthuc "github.com/kailas-cloud/simdoc/internal/usecase/health"
	runuc "github.com/kailas-cloud/simdoc/internal/usecase/run"
	"github.com/kailas-cloud/simdoc/internal/usecase/simsearch"
)

const defaultMaxBodyBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server implements ServerInterface.
type Server struct {
	runs          *runuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(runs *runuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		runs:         runs,
		health:       health,
		logger:       logger,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeRunNotFound, false),
		sentinelHandler(domain.ErrTooManyDocuments, http.StatusRequestEntityTooLarge, ErrorCodeTooManyDocuments, true),
		sentinelHandler(domain.ErrEmptyCorpus, http.StatusBadRequest, ErrorCodeEmptyCorpus, false),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorCodeValidationFailed, true),
		sentinelHandler(domain.ErrUnsupported, http.StatusUnprocessableEntity, ErrorCodeUnsupported, true),
	}
	return s
}

// WithMaxBodyBytes limits the size of request bodies.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// CreateRun handles POST /v1/runs.
func (s *Server) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeBodyTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Measure == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "measure is required")
		return
	}

	opts, err := optionsFromRequest(s.runs.Defaults(), req.Options)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	run, pairs, err := s.runs.Submit(r.Context(), runuc.Request{
		Measure:   measure.Measure(req.Measure),
		Documents: req.Documents,
		Options:   opts,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/runs/"+run.ID())
	writeJSON(w, http.StatusCreated, CreateRunResponse{
		Run:   runToAPI(run),
		Pairs: pairsToAPI(pairs),
	})
}

// GetRun handles GET /v1/runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request, id string) {
	if !validID(w, id) {
		return
	}
	run, err := s.runs.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runToAPI(run))
}

// DeleteRun handles DELETE /v1/runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request, id string) {
	if !validID(w, id) {
		return
	}
	if err := s.runs.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPairs handles GET /v1/runs/{id}/pairs.
func (s *Server) ListPairs(w http.ResponseWriter, r *http.Request, id string, params ListPairsParams) {
	if !validID(w, id) {
		return
	}
	page, err := s.runs.Pairs(r.Context(), id, derefInt(params.Offset), derefInt(params.Limit))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PairPage{
		Items:  pairsToAPI(page.Pairs),
		Total:  page.Total,
		Offset: page.Offset,
		Limit:  page.Limit,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ParamErrorHandler answers requests whose parameters failed to bind.
func ParamErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Validation errors carry their full message; the rest only expose the sentinel text.
func sentinelHandler(sentinel error, status int, code ErrorCode, detailed bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if detailed {
			msg = err.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			s.logger.Warn("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func validID(w http.ResponseWriter, id string) bool {
	if err := uuid.Validate(id); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "run id must be a UUID")
		return false
	}
	return true
}

// optionsFromRequest applies the request overrides on top of the server defaults.
func optionsFromRequest(defaults simsearch.Options, o *RunOptions) (simsearch.Options, error) {
	opts := defaults
	if o == nil {
		return opts, nil
	}
	if o.Mode != nil {
		opts.Shingle.Mode = shingle.Mode(*o.Mode)
	}
	if o.Ngram != nil {
		opts.Shingle.Size = *o.Ngram
	}
	if o.Delimiter != nil {
		if utf8.RuneCountInString(*o.Delimiter) != 1 {
			return opts, domain.InvalidInputf("delimiter must be a single character, got %q", *o.Delimiter)
		}
		opts.Shingle.Delimiter, _ = utf8.DecodeRuneInString(*o.Delimiter)
	}
	if o.Bits != nil {
		opts.Bits = *o.Bits
	}
	if o.Threshold != nil {
		opts.Threshold = *o.Threshold
	}
	if o.Confidence != nil {
		opts.Confidence = *o.Confidence
	}
	if o.Rounds != nil {
		opts.Rounds = *o.Rounds
	}
	if o.Window != nil {
		opts.Window = *o.Window
	}
	if o.Seed != nil {
		opts.Seed = *o.Seed
	}
	if o.TF != nil {
		opts.TF = tfidf.TF(*o.TF)
	}
	if o.IDF != nil {
		opts.IDF = tfidf.IDF(*o.IDF)
	}
	return opts, nil
}

func runToAPI(r domrun.Run) Run {
	p := r.Params()
	return Run{
		ID:        r.ID(),
		Measure:   string(r.Measure()),
		Documents: r.Documents(),
		PairCount: r.Pairs(),
		Radius:    r.Radius(),
		Params: RunParams{
			Mode:       p.Mode,
			Ngram:      p.Ngram,
			Delimiter:  p.Delimiter,
			Bits:       p.Bits,
			Threshold:  p.Threshold,
			Confidence: p.Confidence,
			Rounds:     p.Rounds,
			Window:     p.Window,
			Seed:       p.Seed,
			TF:         p.TF,
			IDF:        p.IDF,
		},
		CreatedAt: r.CreatedAt(),
		ElapsedMs: float64(r.Elapsed().Microseconds()) / 1000,
	}
}

func pairsToAPI(ps []pair.Pair) []Pair {
	out := make([]Pair, len(ps))
	for i, p := range ps {
		out[i] = Pair{A: p.A, B: p.B, Distance: p.Distance, Similarity: p.Similarity}
	}
	return out
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
