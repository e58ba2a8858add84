package run

import (
	"context"

	"github.com/kailas-cloud/simdoc/internal/domain/pair"
	domrun "github.com/kailas-cloud/simdoc/internal/domain/run"
)

// Repository defines the storage contract for runs.
type Repository interface {
	Save(ctx context.Context, r domrun.Run, pairs []pair.Pair) error
	Get(ctx context.Context, id string) (domrun.Run, error)
	Pairs(ctx context.Context, id string) ([]pair.Pair, error)
	Delete(ctx context.Context, id string) error
}
