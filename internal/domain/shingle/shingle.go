// Package shingle turns document text into n-gram features.
//
// An n-gram is identified by the 64-bit xxhash of its text, so downstream stages only
// ever see uint64 feature ids.
package shingle

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/simdoc/internal/domain"
)

// Mode selects the n-gram unit.
type Mode string

// N-gram modes.
const (
	Char Mode = "char"
	Word Mode = "word"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Char || m == Word
}

// DefaultDelimiter splits words when no delimiter is configured.
const DefaultDelimiter = ' '

// Config defines how documents are cut into n-grams.
// All documents of one run must use the same Config.
type Config struct {
	Mode      Mode
	Size      int
	Delimiter rune // word mode only; zero means DefaultDelimiter
}

// Validate checks the n-gram definition.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return domain.InvalidInputf("ngram size must be positive, got %d", c.Size)
	}
	if !c.Mode.IsValid() {
		return domain.InvalidInputf("unknown ngram mode %q", c.Mode)
	}
	return nil
}

func (c Config) delimiter() rune {
	if c.Delimiter == 0 {
		return DefaultDelimiter
	}
	return c.Delimiter
}

// Tokens splits text into the units n-grams are built from.
// Char mode yields one token per rune. Word mode splits at every delimiter and drops
// the empty words left by adjacent delimiters.
func Tokens(text string, cfg Config) []string {
	if text == "" {
		return nil
	}
	if cfg.Mode == Word {
		words := strings.Split(text, string(cfg.delimiter()))
		return slices.DeleteFunc(words, func(w string) bool { return w == "" })
	}
	offsets := runeOffsets(text)
	tokens := make([]string, len(offsets)-1)
	for i := range tokens {
		tokens[i] = text[offsets[i]:offsets[i+1]]
	}
	return tokens
}

// runeOffsets returns the byte offset of every rune plus a final entry closing the text.
func runeOffsets(text string) []int {
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}

// Set returns the distinct n-gram ids of text in ascending order.
func Set(text string, cfg Config) ([]uint64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var ids []uint64
	each(text, cfg, func(id uint64) { ids = append(ids, id) })
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// Counts returns the occurrence count of every n-gram id in text.
func Counts(text string, cfg Config) (map[uint64]int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	counts := make(map[uint64]int)
	each(text, cfg, func(id uint64) { counts[id]++ })
	return counts, nil
}

// each calls fn for every n-gram occurrence. A document shorter than cfg.Size yields a
// single n-gram spanning the whole document; an empty document yields none.
func each(text string, cfg Config, fn func(uint64)) {
	if cfg.Mode == Word {
		eachWord(text, cfg, fn)
		return
	}
	eachChar(text, cfg.Size, fn)
}

func eachChar(text string, n int, fn func(uint64)) {
	if text == "" {
		return
	}
	offsets := runeOffsets(text)
	runes := len(offsets) - 1

	if runes < n {
		fn(xxhash.Sum64String(text))
		return
	}
	for i := 0; i+n <= runes; i++ {
		fn(xxhash.Sum64String(text[offsets[i]:offsets[i+n]]))
	}
}

func eachWord(text string, cfg Config, fn func(uint64)) {
	words := Tokens(text, cfg)
	if len(words) == 0 {
		return
	}
	sep := string(cfg.delimiter())
	if len(words) < cfg.Size {
		fn(xxhash.Sum64String(strings.Join(words, sep)))
		return
	}
	for i := 0; i+cfg.Size <= len(words); i++ {
		fn(xxhash.Sum64String(strings.Join(words[i:i+cfg.Size], sep)))
	}
}

// String implements fmt.Stringer for logging.
func (c Config) String() string {
	if c.Mode == Word {
		return fmt.Sprintf("word/%d/%q", c.Size, c.delimiter())
	}
	return fmt.Sprintf("char/%d", c.Size)
}
