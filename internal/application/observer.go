package application

import (
	"time"

	"voice-email/internal/domain"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// Observer receives per-stage and per-run outcomes.
type Observer interface {
	ObserveStage(stage domain.StageName, result string, elapsed time.Duration)
	ObserveRun(phase domain.Phase, status domain.Status)
}

type NoopObserver struct{}

func (NoopObserver) ObserveStage(domain.StageName, string, time.Duration) {}
func (NoopObserver) ObserveRun(domain.Phase, domain.Status)               {}
