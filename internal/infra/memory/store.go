package memory

import (
	"context"
	"sync"

	"voice-email/internal/application"
	"voice-email/internal/domain"
)

// DraftStore keeps pending drafts in process memory.
type DraftStore struct {
	mu      sync.Mutex
	pending map[string]domain.WorkflowState
	seq     map[string]int64
}

var _ application.DraftStore = (*DraftStore)(nil)

func NewDraftStore() *DraftStore {
	return &DraftStore{
		pending: make(map[string]domain.WorkflowState),
		seq:     make(map[string]int64),
	}
}

func (s *DraftStore) NextSeq(_ context.Context, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[sessionID]++
	return s.seq[sessionID], nil
}

func (s *DraftStore) Save(_ context.Context, sessionID string, state domain.WorkflowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state.Preview != nil {
		p := *state.Preview
		state.Preview = &p
	}
	s.pending[sessionID] = state
	return nil
}

func (s *DraftStore) Load(_ context.Context, sessionID string) (domain.WorkflowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.pending[sessionID]
	if !ok {
		return domain.WorkflowState{}, application.ErrNoPendingDraft
	}
	return state, nil
}

func (s *DraftStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, sessionID)
	return nil
}
