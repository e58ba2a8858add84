package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals a malformed configuration (zero n-gram size, zero bit length,
	// radius above bit length, zero window, zero rounds).
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyCorpus signals that no documents were supplied where at least one is required.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrUnsupported signals a measure/configuration combination without a defined estimator.
	ErrUnsupported = errors.New("unsupported configuration")

	// ErrNotFound signals a missing run.
	ErrNotFound = errors.New("not found")
	// ErrTooManyDocuments signals a batch above the configured document limit.
	ErrTooManyDocuments = errors.New("too many documents")
)

// KeyPrefix is the storage namespace for all simdoc keys.
const KeyPrefix = "simdoc:"

// InvalidInputf formats an ErrInvalidInput with context.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}
