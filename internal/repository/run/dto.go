package run

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/kailas-cloud/simdoc/internal/domain/measure"
	"github.com/kailas-cloud/simdoc/internal/domain/pair"
	domrun "github.com/kailas-cloud/simdoc/internal/domain/run"
)

// pairSize is the encoded size of one pair: a, b, distance as uint32 and similarity as float64.
const pairSize = 4 + 4 + 4 + 8

// runToHash converts a domain Run to a map for HSET.
func runToHash(r domrun.Run) map[string]string {
	p := r.Params()
	return map[string]string{
		"id":         r.ID(),
		"measure":    string(r.Measure()),
		"documents":  strconv.Itoa(r.Documents()),
		"pairs":      strconv.Itoa(r.Pairs()),
		"radius":     strconv.Itoa(r.Radius()),
		"mode":       p.Mode,
		"ngram":      strconv.Itoa(p.Ngram),
		"delimiter":  p.Delimiter,
		"bits":       strconv.Itoa(p.Bits),
		"threshold":  strconv.FormatFloat(p.Threshold, 'g', -1, 64),
		"confidence": strconv.FormatFloat(p.Confidence, 'g', -1, 64),
		"rounds":     strconv.Itoa(p.Rounds),
		"window":     strconv.Itoa(p.Window),
		"seed":       strconv.FormatUint(p.Seed, 10),
		"tf":         p.TF,
		"idf":        p.IDF,
		"created_at": strconv.FormatInt(r.CreatedAt(), 10),
		"elapsed_us": strconv.FormatInt(r.Elapsed().Microseconds(), 10),
	}
}

// runFromHash hydrates a domain Run from an HGETALL result map.
func runFromHash(id string, m map[string]string) (domrun.Run, error) {
	var perr error
	atoi := func(field string) int {
		v, err := strconv.Atoi(m[field])
		if err != nil && perr == nil {
			perr = fmt.Errorf("invalid %s: %w", field, err)
		}
		return v
	}

	documents := atoi("documents")
	pairs := atoi("pairs")
	radius := atoi("radius")
	params := domrun.Params{
		Mode:      m["mode"],
		Ngram:     atoi("ngram"),
		Delimiter: m["delimiter"],
		Bits:      atoi("bits"),
		Rounds:    atoi("rounds"),
		Window:    atoi("window"),
		TF:        m["tf"],
		IDF:       m["idf"],
	}
	if perr != nil {
		return domrun.Run{}, perr
	}

	threshold, err := strconv.ParseFloat(m["threshold"], 64)
	if err != nil {
		return domrun.Run{}, fmt.Errorf("invalid threshold: %w", err)
	}
	params.Threshold = threshold

	if s := m["confidence"]; s != "" {
		if params.Confidence, err = strconv.ParseFloat(s, 64); err != nil {
			return domrun.Run{}, fmt.Errorf("invalid confidence: %w", err)
		}
	}

	if s := m["seed"]; s != "" {
		if params.Seed, err = strconv.ParseUint(s, 10, 64); err != nil {
			return domrun.Run{}, fmt.Errorf("invalid seed: %w", err)
		}
	}

	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domrun.Run{}, fmt.Errorf("invalid created_at: %w", err)
	}

	var elapsed time.Duration
	if s := m["elapsed_us"]; s != "" {
		us, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return domrun.Run{}, fmt.Errorf("invalid elapsed_us: %w", err)
		}
		elapsed = time.Duration(us) * time.Microsecond
	}

	return domrun.Reconstruct(
		id, measure.Measure(m["measure"]), documents, pairs, radius,
		params, createdAt, elapsed,
	), nil
}

// encodePairs packs pairs little-endian, pairSize bytes each.
func encodePairs(pairs []pair.Pair) ([]byte, error) {
	buf := make([]byte, len(pairs)*pairSize)
	for i, p := range pairs {
		if !fitsUint32(p.A) || !fitsUint32(p.B) || !fitsUint32(p.Distance) {
			return nil, fmt.Errorf("pair %d out of range: %+v", i, p)
		}
		b := buf[i*pairSize:]
		binary.LittleEndian.PutUint32(b[0:], uint32(p.A))
		binary.LittleEndian.PutUint32(b[4:], uint32(p.B))
		binary.LittleEndian.PutUint32(b[8:], uint32(p.Distance))
		binary.LittleEndian.PutUint64(b[12:], math.Float64bits(p.Similarity))
	}
	return buf, nil
}

func fitsUint32(v int) bool {
	return v >= 0 && uint64(v) <= math.MaxUint32
}

func decodePairs(data []byte) ([]pair.Pair, error) {
	if len(data)%pairSize != 0 {
		return nil, fmt.Errorf("invalid pairs blob length %d", len(data))
	}
	pairs := make([]pair.Pair, len(data)/pairSize)
	for i := range pairs {
		b := data[i*pairSize:]
		pairs[i] = pair.Pair{
			A:          int(binary.LittleEndian.Uint32(b[0:])),
			B:          int(binary.LittleEndian.Uint32(b[4:])),
			Distance:   int(binary.LittleEndian.Uint32(b[8:])),
			Similarity: math.Float64frombits(binary.LittleEndian.Uint64(b[12:])),
		}
	}
	return pairs, nil
}
