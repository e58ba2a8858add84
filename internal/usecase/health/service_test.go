package health

import (
	"context"
	"errors"
	"testing"
)

type mockDBPinger struct {
	err   error
	calls int
}

func (m *mockDBPinger) Ping(_ context.Context) error {
	m.calls++
	return m.err
}

func TestCheck(t *testing.T) {
	refused := errors.New("conn refused")
	tests := []struct {
		name       string
		db         *mockDBPinger
		deps       []Dependency
		wantStatus Status
		wantChecks map[string]CheckResult
	}{
		{
			name:       "all healthy",
			db:         &mockDBPinger{},
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{"engine": CheckOK, "database": CheckOK},
		},
		{
			name:       "database down",
			db:         &mockDBPinger{err: refused},
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{"engine": CheckOK, "database": CheckError},
		},
		{
			name:       "no database",
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{"engine": CheckOK},
		},
		{
			name: "extra dependency fails",
			db:   &mockDBPinger{},
			deps: []Dependency{{Name: "disk", Check: func(context.Context) error {
				return refused
			}}},
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{"engine": CheckOK, "database": CheckOK, "disk": CheckError},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var db DBPinger
			if tt.db != nil {
				db = tt.db
			}
			r := New(db, tt.deps...).Check(context.Background())

			if r.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", r.Status, tt.wantStatus)
			}
			if len(r.Checks) != len(tt.wantChecks) {
				t.Errorf("checks = %v, want %v", r.Checks, tt.wantChecks)
			}
			for name, want := range tt.wantChecks {
				if got := r.Checks[name]; got != want {
					t.Errorf("check %s = %q, want %q", name, got, want)
				}
			}
			if tt.db != nil && tt.db.calls != 1 {
				t.Errorf("expected 1 ping, got %d", tt.db.calls)
			}
		})
	}
}

func TestVerdict(t *testing.T) {
	if got := verdict(0, 2); got != Healthy {
		t.Errorf("verdict(0,2) = %q", got)
	}
	if got := verdict(1, 2); got != Degraded {
		t.Errorf("verdict(1,2) = %q", got)
	}
	if got := verdict(2, 2); got != Unhealthy {
		t.Errorf("verdict(2,2) = %q", got)
	}
}
