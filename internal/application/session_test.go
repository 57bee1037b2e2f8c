package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"voice-email/internal/application"
	"voice-email/internal/domain"
	"voice-email/internal/infra/memory"
)

func newSessions(f *fixture) *application.Sessions {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return application.NewSessions(f.assistant, memory.NewDraftStore(), logger)
}

func TestSessions_DraftAndConfirm(t *testing.T) {
	f := newFixture("Bob")
	sessions := newSessions(f)
	ctx := context.Background()

	draft, err := sessions.Draft(ctx, "kitchen", application.DraftRequest{Utterance: aliceUtterance})
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if draft.DraftSeq != 1 {
		t.Errorf("DraftSeq = %d, want 1", draft.DraftSeq)
	}

	pending, err := sessions.Pending(ctx, "kitchen")
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if pending.DraftID != draft.DraftID {
		t.Errorf("pending draft %q, want %q", pending.DraftID, draft.DraftID)
	}

	final, err := sessions.Confirm(ctx, "kitchen", domain.Confirmation{DraftID: draft.DraftID, Confirmed: true})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if final.Status != domain.StatusSuccess || final.Action != domain.ActionSend {
		t.Errorf("final = %q/%q", final.Status, final.Action)
	}
	if f.mailer.count() != 1 {
		t.Errorf("sent %d emails, want 1", f.mailer.count())
	}

	// A confirmed draft cannot be confirmed twice.
	_, err = sessions.Confirm(ctx, "kitchen", domain.Confirmation{DraftID: draft.DraftID, Confirmed: true})
	if !application.IsNoPendingDraft(err) {
		t.Errorf("second confirm: got %v, want no pending draft", err)
	}
	if f.mailer.count() != 1 {
		t.Errorf("replayed confirmation sent again")
	}
}

func TestSessions_StaleConfirmation(t *testing.T) {
	f := newFixture("Bob")
	sessions := newSessions(f)
	ctx := context.Background()

	first, err := sessions.Draft(ctx, "s1", application.DraftRequest{Utterance: aliceUtterance})
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	second, err := sessions.Draft(ctx, "s1", application.DraftRequest{Utterance: aliceUtterance})
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if second.DraftSeq != first.DraftSeq+1 {
		t.Errorf("seq did not advance: %d then %d", first.DraftSeq, second.DraftSeq)
	}

	state, err := sessions.Confirm(ctx, "s1", domain.Confirmation{DraftID: first.DraftID, Confirmed: true})
	if !errors.Is(err, domain.ErrStaleConfirmation) {
		t.Fatalf("got %v, want stale confirmation", err)
	}
	if state.ErrorKind != domain.KindStaleConfirmation {
		t.Errorf("kind = %q", state.ErrorKind)
	}
	if f.mailer.count() != 0 {
		t.Fatal("stale confirmation must not send")
	}

	// The newer draft is still pending and can be confirmed.
	pending, err := sessions.Pending(ctx, "s1")
	if err != nil || pending.DraftID != second.DraftID {
		t.Fatalf("pending = %q, %v; want %q", pending.DraftID, err, second.DraftID)
	}
	if _, err := sessions.Confirm(ctx, "s1", domain.Confirmation{DraftID: second.DraftID, Confirmed: true}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if f.mailer.count() != 1 {
		t.Errorf("sent %d emails, want 1", f.mailer.count())
	}
}

func TestSessions_FailedDraftClearsPending(t *testing.T) {
	f := newFixture("Bob")
	sessions := newSessions(f)
	ctx := context.Background()

	if _, err := sessions.Draft(ctx, "s1", application.DraftRequest{Utterance: aliceUtterance}); err != nil {
		t.Fatalf("Draft: %v", err)
	}

	failed, err := sessions.Draft(ctx, "s1", application.DraftRequest{Utterance: ""})
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if failed.ErrorKind != domain.KindEmptyInput {
		t.Errorf("kind = %q", failed.ErrorKind)
	}

	if _, err := sessions.Pending(ctx, "s1"); !application.IsNoPendingDraft(err) {
		t.Errorf("pending after failed draft: %v", err)
	}
}

func TestSessions_Isolated(t *testing.T) {
	f := newFixture("Bob")
	sessions := newSessions(f)
	ctx := context.Background()

	a, _ := sessions.Draft(ctx, "a", application.DraftRequest{Utterance: aliceUtterance})

	if _, err := sessions.Confirm(ctx, "b", domain.Confirmation{DraftID: a.DraftID, Confirmed: true}); !application.IsNoPendingDraft(err) {
		t.Errorf("confirming another session's draft: %v", err)
	}
	if f.mailer.count() != 0 {
		t.Error("nothing should be sent")
	}
}

func TestSessions_ConcurrentDrafts(t *testing.T) {
	f := newFixture("Bob")
	sessions := newSessions(f)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	seqs := make(chan int64, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := sessions.Draft(ctx, "busy", application.DraftRequest{Utterance: aliceUtterance})
			if err == nil {
				seqs <- state.DraftSeq
			}
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool)
	var highest int64
	for seq := range seqs {
		if seen[seq] {
			t.Errorf("duplicate seq %d", seq)
		}
		seen[seq] = true
		highest = max(highest, seq)
	}
	if len(seen) != n {
		t.Fatalf("got %d drafts, want %d", len(seen), n)
	}

	pending, err := sessions.Pending(ctx, "busy")
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if pending.DraftSeq != highest {
		t.Errorf("pending seq = %d, want the latest %d", pending.DraftSeq, highest)
	}
}

func TestSessions_RetryLookup(t *testing.T) {
	f := newFixture("Bob")
	f.directory.contacts = map[string]string{"alice smith": "asmith@example.com"}
	sessions := newSessions(f)
	ctx := context.Background()

	failed, err := sessions.Draft(ctx, "s1", application.DraftRequest{Utterance: aliceUtterance})
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}

	still, err := sessions.RetryLookup(ctx, "s1", failed, "Alicia")
	if err != nil {
		t.Fatalf("RetryLookup: %v", err)
	}
	if still.ErrorKind != domain.KindRecipientNotFound {
		t.Errorf("kind = %q, want recipient_not_found", still.ErrorKind)
	}
	if _, err := sessions.Pending(ctx, "s1"); !application.IsNoPendingDraft(err) {
		t.Errorf("failed retry left a pending draft: %v", err)
	}

	draft, err := sessions.RetryLookup(ctx, "s1", still, "Alice Smith")
	if err != nil {
		t.Fatalf("RetryLookup: %v", err)
	}
	if draft.Failed() || draft.RecipientEmail != "asmith@example.com" {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if f.drafter.calls != 1 {
		t.Errorf("drafter called %d times, want 1", f.drafter.calls)
	}

	final, err := sessions.Confirm(ctx, "s1", domain.Confirmation{DraftID: draft.DraftID, Confirmed: true})
	if err != nil || final.Status != domain.StatusSuccess {
		t.Fatalf("Confirm: %v (%+v)", err, final)
	}
	if f.mailer.count() != 1 || f.mailer.sent[0].To != "asmith@example.com" {
		t.Errorf("unexpected emails: %+v", f.mailer.sent)
	}

	if _, err := sessions.RetryLookup(ctx, "s1", final, "Alice Smith"); err == nil {
		t.Error("retrying a state that did not fail lookup should be refused")
	}
}
