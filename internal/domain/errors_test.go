package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"voice-email/internal/domain"
)

func TestStageError_Is(t *testing.T) {
	cause := errors.New("smtp refused")
	err := fmt.Errorf("running send: %w", domain.NewStageError(domain.KindSendFailed, "failed to send email", cause))

	if !errors.Is(err, domain.ErrSendFailed) {
		t.Error("expected errors.Is to match by kind")
	}
	if errors.Is(err, domain.ErrExtraction) {
		t.Error("different kinds must not match")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should stay reachable")
	}
	if got := err.Error(); got != "running send: failed to send email: smtp refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestKindOf(t *testing.T) {
	if got := domain.KindOf(domain.NewStageError(domain.KindEmptyInput, "no input text provided", nil)); got != domain.KindEmptyInput {
		t.Errorf("KindOf = %q, want empty_input", got)
	}
	if got := domain.KindOf(errors.New("boom")); got != domain.KindUnknown {
		t.Errorf("KindOf = %q, want unknown", got)
	}
}

func TestWorkflowState_Fail(t *testing.T) {
	state := domain.WorkflowState{
		RecipientName:  "Alice",
		RecipientEmail: "alice@example.com",
		Status:         domain.StatusSuccess,
	}

	failed := state.Fail(domain.NewStageError(domain.KindLookup, "email lookup error", nil))

	if !failed.Failed() || failed.ErrorKind != domain.KindLookup || failed.ErrorMessage != "email lookup error" {
		t.Errorf("unexpected failed state: %+v", failed)
	}
	if failed.RecipientEmail != state.RecipientEmail || failed.RecipientName != state.RecipientName {
		t.Error("Fail must only touch status and error fields")
	}
	if state.Failed() {
		t.Error("Fail must not modify the receiver")
	}
}
