package simdoc

import "github.com/kailas-cloud/simdoc/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput = domain.ErrInvalidInput
	ErrEmptyCorpus  = domain.ErrEmptyCorpus
	ErrUnsupported  = domain.ErrUnsupported
)
