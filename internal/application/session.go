package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"voice-email/internal/domain"
)

// Sessions keeps the pending draft of each session between the draft and
// send phases. Runs for the same session never overlap.
type Sessions struct {
	assistant *Assistant
	store     DraftStore
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func NewSessions(assistant *Assistant, store DraftStore, logger *slog.Logger) *Sessions {
	return &Sessions{
		assistant: assistant,
		store:     store,
		logger:    logger,
		locks:     make(map[string]*sessionLock),
	}
}

// Draft runs the draft phase and makes the result the session's pending
// draft. A failed draft clears any older pending draft.
func (s *Sessions) Draft(ctx context.Context, sessionID string, req DraftRequest) (domain.WorkflowState, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	seq, err := s.store.NextSeq(ctx, sessionID)
	if err != nil {
		return domain.WorkflowState{}, fmt.Errorf("allocating draft sequence: %w", err)
	}
	req.Seq = seq

	state := s.assistant.RunDraftPhase(ctx, req)

	if state.Failed() {
		if err := s.store.Delete(ctx, sessionID); err != nil {
			return state, fmt.Errorf("clearing pending draft: %w", err)
		}
		return state, nil
	}

	if err := s.store.Save(ctx, sessionID, state); err != nil {
		return state, fmt.Errorf("saving draft: %w", err)
	}

	s.logger.Info("draft pending confirmation", "session", sessionID, "draft_id", state.DraftID, "seq", seq)
	return state, nil
}

// RetryLookup resolves a draft that failed lookup under overrideName without
// drafting it again. On success it becomes the session's pending draft.
func (s *Sessions) RetryLookup(ctx context.Context, sessionID string, failed domain.WorkflowState, overrideName string) (domain.WorkflowState, error) {
	if failed.ErrorKind != domain.KindRecipientNotFound {
		return failed, fmt.Errorf("retrying lookup: draft failed with %q, not %q", failed.ErrorKind, domain.KindRecipientNotFound)
	}

	unlock := s.lock(sessionID)
	defer unlock()

	seq, err := s.store.NextSeq(ctx, sessionID)
	if err != nil {
		return failed, fmt.Errorf("allocating draft sequence: %w", err)
	}

	state := s.assistant.RetryLookup(ctx, failed, overrideName, seq)
	if state.Failed() {
		if err := s.store.Delete(ctx, sessionID); err != nil {
			return state, fmt.Errorf("clearing pending draft: %w", err)
		}
		return state, nil
	}

	if err := s.store.Save(ctx, sessionID, state); err != nil {
		return state, fmt.Errorf("saving draft: %w", err)
	}

	s.logger.Info("draft pending confirmation", "session", sessionID, "draft_id", state.DraftID, "seq", seq)
	return state, nil
}

func (s *Sessions) Pending(ctx context.Context, sessionID string) (domain.WorkflowState, error) {
	return s.store.Load(ctx, sessionID)
}

// Confirm resumes the session's pending draft. A confirmation for any other
// draft returns the failed state together with domain.ErrStaleConfirmation
// and leaves the pending draft in place.
func (s *Sessions) Confirm(ctx context.Context, sessionID string, c domain.Confirmation) (domain.WorkflowState, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	pending, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return domain.WorkflowState{}, err
	}

	state := s.assistant.RunSendPhase(ctx, pending, c)
	if state.ErrorKind == domain.KindStaleConfirmation {
		s.logger.Warn("stale confirmation rejected",
			"session", sessionID,
			"pending", pending.DraftID,
			"confirmed", c.DraftID,
		)
		return state, fmt.Errorf("%w: %s", domain.ErrStaleConfirmation, state.ErrorMessage)
	}

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return state, fmt.Errorf("clearing pending draft: %w", err)
	}
	return state, nil
}

func (s *Sessions) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}

// IsNoPendingDraft reports whether err means the session has nothing to confirm.
func IsNoPendingDraft(err error) bool {
	return errors.Is(err, ErrNoPendingDraft)
}
