// Package lsh compresses document features into binary sketches whose Hamming distance
// estimates a similarity measure.
//
// Two families are provided: 1-bit minwise hashing over n-gram sets (Jaccard) and
// simplified simhash over weighted vectors (Cosine). Both are deterministic in their seed.
package lsh

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mathext/prng"

	"github.com/kailas-cloud/simdoc/internal/domain/sketch"
)

// blockSize is the number of documents sketched per scheduled unit of work.
const blockSize = 256

// Sketcher produces a sketch from the features of one document.
// Sketch must overwrite every word of dst.
type Sketcher[F any] interface {
	Bits() int
	Sketch(features F, dst []uint64)
}

// Build sketches every document into a new matrix. Documents are processed in parallel
// by up to workers goroutines (GOMAXPROCS when workers <= 0); each writes only its own row.
func Build[F any](ctx context.Context, s Sketcher[F], features []F, workers int) (*sketch.Matrix, error) {
	m, err := sketch.New(len(features), s.Bits())
	if err != nil {
		return nil, fmt.Errorf("allocate sketches: %w", err)
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(features); start += blockSize {
		end := min(start+blockSize, len(features))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				s.Sketch(features[i], m.Row(i))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build sketches: %w", err)
	}
	return m, nil
}

// Seeds draws n hash seeds from a xoshiro256** stream seeded with seed.
func Seeds(seed uint64, n int) []uint64 {
	src := prng.NewXoshiro256starstar(seed)
	out := make([]uint64, n)
	for i := range out {
		out[i] = src.Uint64()
	}
	return out
}

// Mix is the splitmix64 finalizer. It turns a feature id combined with a seed into an
// independent-looking 64-bit hash.
func Mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
