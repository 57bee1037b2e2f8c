package application

import (
	"context"
	"errors"

	"voice-email/internal/domain"
)

var ErrNoPendingDraft = errors.New("no pending draft")

// DraftStore holds the one draft per session that is waiting for a
// confirmation. Load returns ErrNoPendingDraft when there is none.
type DraftStore interface {
	NextSeq(ctx context.Context, sessionID string) (int64, error)
	Save(ctx context.Context, sessionID string, state domain.WorkflowState) error
	Load(ctx context.Context, sessionID string) (domain.WorkflowState, error)
	Delete(ctx context.Context, sessionID string) error
}
