package chi

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeEmptyCorpus      ErrorCode = "empty_corpus"
	ErrorCodeUnsupported      ErrorCode = "unsupported_configuration"
	ErrorCodeRunNotFound      ErrorCode = "run_not_found"
	ErrorCodeTooManyDocuments ErrorCode = "too_many_documents"
	ErrorCodeBodyTooLarge     ErrorCode = "request_too_large"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// CreateRunRequest is the body of POST /v1/runs.
type CreateRunRequest struct {
	Measure   string      `json:"measure"`
	Documents []string    `json:"documents"`
	Options   *RunOptions `json:"options,omitempty"`
}

// RunOptions overrides the server defaults for one run. Nil fields keep the default.
type RunOptions struct {
	Mode      *string  `json:"mode,omitempty"`
	Ngram     *int     `json:"ngram,omitempty"`
	Delimiter *string  `json:"delimiter,omitempty"`
	Bits      *int     `json:"bits,omitempty"`
	Threshold  *float64 `json:"threshold,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Rounds     *int     `json:"rounds,omitempty"`
	Window     *int     `json:"window,omitempty"`
	Seed       *uint64  `json:"seed,omitempty"`
	TF         *string  `json:"tf,omitempty"`
	IDF        *string  `json:"idf,omitempty"`
}

// RunParams echoes the effective parameters of a run.
type RunParams struct {
	Mode       string  `json:"mode"`
	Ngram      int     `json:"ngram"`
	Delimiter  string  `json:"delimiter,omitempty"`
	Bits       int     `json:"bits"`
	Threshold  float64 `json:"threshold"`
	Confidence float64 `json:"confidence"`
	Rounds     int     `json:"rounds"`
	Window     int     `json:"window"`
	Seed       uint64  `json:"seed"`
	TF         string  `json:"tf,omitempty"`
	IDF        string  `json:"idf,omitempty"`
}

// Run is the metadata of a stored run.
type Run struct {
	ID        string    `json:"id"`
	Measure   string    `json:"measure"`
	Documents int       `json:"documents"`
	PairCount int       `json:"pair_count"`
	Radius    int       `json:"radius"`
	Params    RunParams `json:"params"`
	CreatedAt int64     `json:"created_at"` // unix milliseconds
	ElapsedMs float64   `json:"elapsed_ms"`
}

// Pair is one similar document pair.
type Pair struct {
	A          int     `json:"a"`
	B          int     `json:"b"`
	Distance   int     `json:"distance"`
	Similarity float64 `json:"similarity"`
}

// CreateRunResponse is the body of a successful POST /v1/runs.
type CreateRunResponse struct {
	Run   Run    `json:"run"`
	Pairs []Pair `json:"pairs"`
}

// PairPage is one page of a run's pairs.
type PairPage struct {
	Items  []Pair `json:"items"`
	Total  int    `json:"total"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// ListPairsParams are the query parameters of GET /v1/runs/{id}/pairs.
type ListPairsParams struct {
	Offset *int `json:"offset,omitempty"`
	Limit  *int `json:"limit,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
