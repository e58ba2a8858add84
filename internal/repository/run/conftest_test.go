package run

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/simdoc/internal/db"
	"github.com/kailas-cloud/simdoc/internal/domain/measure"
	domrun "github.com/kailas-cloud/simdoc/internal/domain/run"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn    func(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	hgetAllFn func(ctx context.Context, key string) (map[string]string, error)
	getFn     func(ctx context.Context, key string) ([]byte, error)
	setFn     func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn     func(ctx context.Context, keys ...string) (int64, error)
}

func (m *mockStore) HSetWithTTL(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields, ttl)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return int64(len(keys)), nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "simdoc:", time.Hour), ms
}

func testRun(t *testing.T) domrun.Run {
	t.Helper()
	return domrun.Reconstruct("run-1", measure.Cosine, 4, 2, 33, domrun.Params{
		Mode:       "word",
		Ngram:      2,
		Delimiter:  ",",
		Bits:       256,
		Threshold:  0.85,
		Confidence: 0.99,
		Rounds:     12,
		Window:     6,
		Seed:       18446744073709551615,
		TF:         "sublinear",
		IDF:        "smooth",
	}, 1700000000123, 1500*time.Microsecond)
}
