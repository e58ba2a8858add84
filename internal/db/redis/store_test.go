package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/simdoc/internal/db"
)

func newTestStore(t *testing.T) (*Store, *mock.Client) {
	t.Helper()
	c := mock.NewClient(gomock.NewController(t))
	return &Store{client: c}, c
}

func dbErrorOp(t *testing.T, err error) string {
	t.Helper()
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected *db.Error, got %T (%v)", err, err)
	}
	return dbErr.Op
}

func TestNewStore_NoAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

func TestPing(t *testing.T) {
	tests := []struct {
		name    string
		result  rueidis.RedisResult
		wantErr bool
	}{
		{"pong", mock.Result(mock.RedisString("PONG")), false},
		{"timeout", mock.ErrorResult(context.DeadlineExceeded), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newTestStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(tt.result)

			err := s.Ping(context.Background())
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if op := dbErrorOp(t, err); op != db.OpPing {
				t.Errorf("op = %s", op)
			}
		})
	}
}

func TestWaitForReady_RetriesUntilPong(t *testing.T) {
	s, c := newTestStore(t)
	refused := mock.ErrorResult(errors.New("connection refused"))
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(refused),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(refused),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG"))),
	)

	if err := s.WaitForReady(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	s, c := newTestStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).
		AnyTimes()

	err := s.WaitForReady(context.Background(), 250*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestHSetWithTTL_PipelinesExpire(t *testing.T) {
	s, c := newTestStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("HSET", "run:1", "a", "1", "b", "2"),
			mock.Match("EXPIRE", "run:1", "3600"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.Result(mock.RedisInt64(1)),
		})

	err := s.HSetWithTTL(context.Background(), "run:1", map[string]string{"b": "2", "a": "1"}, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetWithTTL_NoExpiry(t *testing.T) {
	s, c := newTestStore(t)
	c.EXPECT().
		DoMulti(gomock.Any(), mock.Match("HSET", "run:1", "f", "v")).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisInt64(1))})

	if err := s.HSetWithTTL(context.Background(), "run:1", map[string]string{"f": "v"}, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetWithTTL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		results []rueidis.RedisResult
		wantOp  string
	}{
		{
			name: "hset fails",
			results: []rueidis.RedisResult{
				mock.ErrorResult(errors.New("OOM")),
				mock.Result(mock.RedisInt64(0)),
			},
			wantOp: db.OpHSet,
		},
		{
			name: "expire fails",
			results: []rueidis.RedisResult{
				mock.Result(mock.RedisInt64(1)),
				mock.ErrorResult(context.DeadlineExceeded),
			},
			wantOp: db.OpExpire,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newTestStore(t)
			c.EXPECT().DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).Return(tt.results)

			err := s.HSetWithTTL(context.Background(), "run:1", map[string]string{"f": "v"}, time.Hour)
			if op := dbErrorOp(t, err); op != tt.wantOp {
				t.Errorf("op = %s, want %s", op, tt.wantOp)
			}
		})
	}
}

func TestHGetAll(t *testing.T) {
	s, c := newTestStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "run:1")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"measure": mock.RedisString("jaccard"),
			"bits":    mock.RedisString("128"),
		})))

	m, err := s.HGetAll(context.Background(), "run:1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["measure"] != "jaccard" || m["bits"] != "128" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestHGetAll_Error(t *testing.T) {
	s, c := newTestStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "run:1")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	_, err := s.HGetAll(context.Background(), "run:1")
	if op := dbErrorOp(t, err); op != db.OpHGetAll {
		t.Errorf("op = %s", op)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("cause not preserved")
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name     string
		result   rueidis.RedisResult
		want     string
		notFound bool
		dbErr    bool
	}{
		{name: "value", result: mock.Result(mock.RedisBlobString("\x00\x01")), want: "\x00\x01"},
		{name: "missing", result: mock.Result(mock.RedisNil()), notFound: true},
		{name: "network", result: mock.ErrorResult(context.DeadlineExceeded), dbErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newTestStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match("GET", "run:1:pairs")).Return(tt.result)

			data, err := s.Get(context.Background(), "run:1:pairs")
			switch {
			case tt.notFound:
				if !errors.Is(err, db.ErrKeyNotFound) {
					t.Errorf("expected ErrKeyNotFound, got %v", err)
				}
			case tt.dbErr:
				if errors.Is(err, db.ErrKeyNotFound) {
					t.Error("network error reported as missing key")
				}
				if op := dbErrorOp(t, err); op != db.OpGet {
					t.Errorf("op = %s", op)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if string(data) != tt.want {
					t.Errorf("data = %q, want %q", data, tt.want)
				}
			}
		})
	}
}

func TestSetWithTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		cmd  []string
	}{
		{"with expiry", time.Minute, []string{"SET", "k", "\x00\x01", "EX", "60"}},
		{"no expiry", 0, []string{"SET", "k", "\x00\x01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newTestStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match(tt.cmd...)).Return(mock.Result(mock.RedisString("OK")))

			if err := s.SetWithTTL(context.Background(), "k", []byte{0, 1}, tt.ttl); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSetWithTTL_Error(t *testing.T) {
	s, c := newTestStore(t)
	c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(errors.New("READONLY")))

	err := s.SetWithTTL(context.Background(), "k", []byte("v"), time.Minute)
	if op := dbErrorOp(t, err); op != db.OpSet {
		t.Errorf("op = %s", op)
	}
}

func TestDel(t *testing.T) {
	s, c := newTestStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "run:1", "run:1:pairs")).
		Return(mock.Result(mock.RedisInt64(2)))

	n, err := s.Del(context.Background(), "run:1", "run:1:pairs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
}

func TestDel_NoKeys(t *testing.T) {
	s := &Store{} // client must not be touched
	n, err := s.Del(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("got (%d, %v), want (0, nil)", n, err)
	}
}
