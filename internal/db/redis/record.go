package redis

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/simdoc/internal/db"
)

// HSetWithTTL pipelines HSET and EXPIRE. Fields are sent in key order.
func (s *Store) HSetWithTTL(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	hset := s.client.B().Hset().Key(key).FieldValue()
	for _, f := range slices.Sorted(maps.Keys(fields)) {
		hset = hset.FieldValue(f, fields[f])
	}
	cmds := []rueidis.Completed{hset.Build()}
	if ttl > 0 {
		cmds = append(cmds, s.client.B().Expire().Key(key).Seconds(int64(ttl/time.Second)).Build())
	}

	ops := [...]string{db.OpHSet, db.OpExpire}
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: ops[i], Key: key, Err: err}
		}
	}
	return nil
}

// HGetAll reads every field of a record.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.client.Do(ctx, s.client.B().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Key: key, Err: err}
	}
	return m, nil
}
