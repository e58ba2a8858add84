package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/simdoc/internal/db"
	"github.com/kailas-cloud/simdoc/internal/domain"
	"github.com/kailas-cloud/simdoc/internal/domain/pair"
	domrun "github.com/kailas-cloud/simdoc/internal/domain/run"
)

// store is the consumer interface for runs (ISP).
type store interface {
	HSetWithTTL(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
}

// Repo implements usecase/run.Repository.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates a run repository. An empty prefix falls back to domain.KeyPrefix.
func New(s store, prefix string, ttl time.Duration) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix, ttl: ttl}
}

// Save stores the pairs blob, then the metadata hash; both expire after the configured TTL.
// On metadata failure the pairs blob is removed.
func (r *Repo) Save(ctx context.Context, rn domrun.Run, pairs []pair.Pair) error {
	id := rn.ID()
	blob, err := encodePairs(pairs)
	if err != nil {
		return fmt.Errorf("encode pairs of run %s: %w", id, err)
	}

	if err := r.store.SetWithTTL(ctx, r.pairsKey(id), blob, r.ttl); err != nil {
		return fmt.Errorf("set pairs of run %s: %w", id, err)
	}
	if err := r.store.HSetWithTTL(ctx, r.metaKey(id), runToHash(rn), r.ttl); err != nil {
		_, cleanupErr := r.store.Del(ctx, r.pairsKey(id))
		return errors.Join(fmt.Errorf("hset run %s: %w", id, err), cleanupErr)
	}
	return nil
}

// Get retrieves run metadata by id.
func (r *Repo) Get(ctx context.Context, id string) (domrun.Run, error) {
	m, err := r.store.HGetAll(ctx, r.metaKey(id))
	if err != nil {
		return domrun.Run{}, fmt.Errorf("hgetall run %s: %w", id, err)
	}
	if len(m) == 0 {
		return domrun.Run{}, domain.ErrNotFound
	}
	return runFromHash(id, m)
}

// Pairs retrieves all result pairs of a run, ascending by (A, B).
func (r *Repo) Pairs(ctx context.Context, id string) ([]pair.Pair, error) {
	blob, err := r.store.Get(ctx, r.pairsKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get pairs of run %s: %w", id, err)
	}
	pairs, err := decodePairs(blob)
	if err != nil {
		return nil, fmt.Errorf("decode pairs of run %s: %w", id, err)
	}
	return pairs, nil
}

// Delete removes a run and its pairs.
func (r *Repo) Delete(ctx context.Context, id string) error {
	n, err := r.store.Del(ctx, r.metaKey(id), r.pairsKey(id))
	if err != nil {
		return fmt.Errorf("del run %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) metaKey(id string) string {
	return r.prefix + "run:" + id
}

func (r *Repo) pairsKey(id string) string {
	return r.metaKey(id) + ":pairs"
}
