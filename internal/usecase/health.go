package usecase

import (
	"context"
	"time"

	"tinyrag/internal/domain"
)

// DefaultHealthTimeout bounds each dependency probe.
const DefaultHealthTimeout = 3 * time.Second

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthUseCase probes the vector store and the generation service.
type HealthUseCase struct {
	database   Pinger
	generation Pinger
	timeout    time.Duration
}

func NewHealthUseCase(database, generation Pinger, timeout time.Duration) *HealthUseCase {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}
	return &HealthUseCase{
		database:   database,
		generation: generation,
		timeout:    timeout,
	}
}

// Check runs both probes concurrently, each under its own timeout.
func (u *HealthUseCase) Check(ctx context.Context) domain.HealthReport {
	dbCh := make(chan error, 1)
	genCh := make(chan error, 1)

	go func() { dbCh <- u.probe(ctx, u.database) }()
	go func() { genCh <- u.probe(ctx, u.generation) }()

	return domain.HealthReport{
		Database:   domain.ComponentStatus{Name: "database", Error: <-dbCh},
		Generation: domain.ComponentStatus{Name: "ollama", Error: <-genCh},
	}
}

func (u *HealthUseCase) probe(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- p.Ping(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
