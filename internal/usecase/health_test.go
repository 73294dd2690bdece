package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth_AllReachable(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	report := NewHealthUseCase(ok, ok, time.Second).Check(context.Background())

	if !report.Healthy() {
		t.Fatalf("expected healthy, got %+v", report)
	}
	if report.Database.Name != "database" || report.Generation.Name != "ollama" {
		t.Errorf("unexpected component names: %+v", report)
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	down := errors.New("connection refused")
	db := pingFunc(func(context.Context) error { return down })
	ok := pingFunc(func(context.Context) error { return nil })

	report := NewHealthUseCase(db, ok, time.Second).Check(context.Background())
	if report.Healthy() {
		t.Fatal("expected unhealthy")
	}
	if !errors.Is(report.Database.Error, down) {
		t.Errorf("database error = %v, want %v", report.Database.Error, down)
	}
	if !report.Generation.OK() {
		t.Errorf("generation should be ok, got %v", report.Generation.Error)
	}
}

func TestHealth_ProbeTimesOut(t *testing.T) {
	hang := pingFunc(func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	})
	ok := pingFunc(func(context.Context) error { return nil })

	start := time.Now()
	report := NewHealthUseCase(ok, hang, 20*time.Millisecond).Check(context.Background())

	if !errors.Is(report.Generation.Error, context.DeadlineExceeded) {
		t.Errorf("generation error = %v, want deadline exceeded", report.Generation.Error)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("check took %v, probe timeout not enforced", elapsed)
	}
}
