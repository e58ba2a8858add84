package health

import "context"

// DBPinger checks run store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Dependency is a named check run on every report.
type Dependency struct {
	Name  string
	Check func(ctx context.Context) error
}
