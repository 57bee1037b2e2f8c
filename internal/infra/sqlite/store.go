package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"voice-email/internal/application"
	"voice-email/internal/domain"
)

// DraftStore persists pending drafts so a confirmation survives restarts.
type DraftStore struct {
	db *sql.DB
}

var _ application.DraftStore = (*DraftStore)(nil)

func New(dbPath string) (*DraftStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	store := &DraftStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return store, nil
}

func (s *DraftStore) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS session_seq (
			session_id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pending_drafts (
			session_id TEXT PRIMARY KEY,
			draft_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			state TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *DraftStore) Close() error {
	return s.db.Close()
}

func (s *DraftStore) NextSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO session_seq (session_id, seq) VALUES (?, 1)
		ON CONFLICT(session_id) DO UPDATE SET seq = seq + 1
		RETURNING seq`,
		sessionID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("incrementing sequence: %w", err)
	}
	return seq, nil
}

func (s *DraftStore) Save(ctx context.Context, sessionID string, state domain.WorkflowState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending_drafts (session_id, draft_id, seq, state, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			draft_id = excluded.draft_id,
			seq = excluded.seq,
			state = excluded.state,
			created_at = excluded.created_at`,
		sessionID, state.DraftID, state.DraftSeq, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

func (s *DraftStore) Load(ctx context.Context, sessionID string) (domain.WorkflowState, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM pending_drafts WHERE session_id = ?`,
		sessionID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WorkflowState{}, application.ErrNoPendingDraft
	}
	if err != nil {
		return domain.WorkflowState{}, fmt.Errorf("loading draft: %w", err)
	}

	var state domain.WorkflowState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return domain.WorkflowState{}, fmt.Errorf("unmarshaling state: %w", err)
	}
	return state, nil
}

func (s *DraftStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_drafts WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}
