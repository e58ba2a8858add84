package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/simdoc/internal/logger"
)

// Status is the overall verdict of a Report.
type Status string

// Report statuses.
const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one dependency check.
type CheckResult string

// Check outcomes.
const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

const (
	engineCheck   = "engine"
	databaseCheck = "database"
)

// Report is the result of Service.Check.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service reports the health of the run API.
type Service struct {
	deps    []Dependency
	timeout time.Duration
}

// New creates a Service. A nil db means runs are not persisted and no
// database check is registered.
func New(db DBPinger, extra ...Dependency) *Service {
	deps := make([]Dependency, 0, len(extra)+1)
	if db != nil {
		deps = append(deps, Dependency{Name: databaseCheck, Check: db.Ping})
	}
	deps = append(deps, extra...)
	return &Service{deps: deps, timeout: 2 * time.Second}
}

// Check runs every dependency check sequentially. The in-process engine always
// answers ok; it only stops answering when the process does.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	checks := make(map[string]CheckResult, len(s.deps)+1)
	checks[engineCheck] = CheckOK

	failed := 0
	for _, p := range s.deps {
		if err := p.Check(ctx); err != nil {
			logger.FromContext(ctx).Warn("Health check failed",
				zap.String("check", p.Name), zap.Error(err))
			checks[p.Name] = CheckError
			failed++
			continue
		}
		checks[p.Name] = CheckOK
	}

	return Report{Status: verdict(failed, len(checks)), Checks: checks}
}

func verdict(failed, total int) Status {
	switch {
	case failed == 0:
		return Healthy
	case failed >= total:
		return Unhealthy
	default:
		return Degraded
	}
}
