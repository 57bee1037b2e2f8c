package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"voice-email/internal/domain"
)

type stageFunc func(ctx context.Context, state domain.WorkflowState) (domain.WorkflowState, error)

// stage is one named transform. The orchestrator discards the returned
// state when err is non-nil.
type stage struct {
	name domain.StageName
	run  stageFunc
	// cancelOnError marks the stage whose failure must also settle the branch to cancel.
	cancelOnError bool
}

func recordStage(transcript string) stage {
	return stage{
		name: domain.StageRecord,
		run: func(_ context.Context, state domain.WorkflowState) (domain.WorkflowState, error) {
			text := strings.TrimSpace(transcript)
			if text == "" {
				return state, domain.NewStageError(domain.KindEmptyInput, "no input text provided", nil)
			}
			state.Text = text
			return state, nil
		},
	}
}

func (a *Assistant) generateStage() stage {
	return stage{
		name: domain.StageGenerate,
		run: func(ctx context.Context, state domain.WorkflowState) (domain.WorkflowState, error) {
			draft, err := a.drafter.Draft(ctx, state.Text)
			if err != nil {
				if errors.Is(err, domain.ErrExtraction) {
					return state, err
				}
				return state, domain.NewStageError(domain.KindGeneration, "email generation error", err)
			}
			if strings.TrimSpace(draft.RecipientName) == "" {
				return state, domain.NewStageError(domain.KindExtraction, "failed to extract recipient", nil)
			}

			state.RecipientName = strings.TrimSpace(draft.RecipientName)
			state.EmailSubject = draft.Subject
			state.EmailBody = draft.Body
			return state, nil
		},
	}
}

func (a *Assistant) lookupStage() stage {
	return stage{
		name: domain.StageLookup,
		run: func(ctx context.Context, state domain.WorkflowState) (domain.WorkflowState, error) {
			name := state.RecipientName
			email, err := a.directory.Resolve(ctx, name)

			if errors.Is(err, ErrContactNotFound) && strings.TrimSpace(state.OverrideName) != "" {
				a.logger.Info("recipient not found, retrying with override",
					"name", name,
					"override", state.OverrideName,
				)
				name = strings.TrimSpace(state.OverrideName)
				email, err = a.directory.Resolve(ctx, name)
			}

			if errors.Is(err, ErrContactNotFound) {
				return state, &domain.StageError{
					Kind:    domain.KindRecipientNotFound,
					Message: fmt.Sprintf("no email found for %s", name),
					Name:    name,
				}
			}
			if err != nil {
				return state, domain.NewStageError(domain.KindLookup, "email lookup error", err)
			}

			state.RecipientName = name
			state.RecipientEmail = email
			return state, nil
		},
	}
}

func (a *Assistant) previewStage() stage {
	return stage{
		name:          domain.StagePreview,
		cancelOnError: true,
		run: func(_ context.Context, state domain.WorkflowState) (domain.WorkflowState, error) {
			switch {
			case a.sender.Name == "":
				return state, formattingError("sender name is not configured")
			case state.RecipientEmail == "":
				return state, formattingError("recipient email is missing")
			case strings.TrimSpace(state.EmailBody) == "":
				return state, formattingError("email body is empty")
			}

			state.EmailBody = SubstituteSender(state.EmailBody, a.sender.Placeholder, a.sender.Name)
			state.DraftID = uuid.NewString()
			state.Preview = &domain.Preview{
				To:      fmt.Sprintf("%s (%s)", state.RecipientName, state.RecipientEmail),
				Subject: state.EmailSubject,
				Body:    state.EmailBody,
			}
			return state, nil
		},
	}
}

func confirmStage(c domain.Confirmation) stage {
	return stage{
		name: domain.StageConfirm,
		run: func(_ context.Context, state domain.WorkflowState) (domain.WorkflowState, error) {
			if state.DraftID == "" || c.DraftID != state.DraftID {
				return state, domain.NewStageError(domain.KindStaleConfirmation,
					fmt.Sprintf("confirmation for draft %q does not match draft %q", c.DraftID, state.DraftID), nil)
			}
			if c.Confirmed {
				state.Action = domain.ActionSend
			} else {
				state.Action = domain.ActionCancel
			}
			return state, nil
		},
	}
}

func (a *Assistant) sendStage() stage {
	return stage{
		name: domain.StageSend,
		run: func(ctx context.Context, state domain.WorkflowState) (domain.WorkflowState, error) {
			err := a.mailer.Send(ctx, domain.OutgoingEmail{
				To:      state.RecipientEmail,
				Subject: state.EmailSubject,
				Body:    state.EmailBody,
			})
			if err != nil {
				return state, domain.NewStageError(domain.KindSendFailed, "failed to send email", err)
			}
			return state, nil
		},
	}
}

func cancelStage() stage {
	return stage{
		name: domain.StageCancel,
		run: func(_ context.Context, state domain.WorkflowState) (domain.WorkflowState, error) {
			return state, nil
		},
	}
}

// Route picks the terminal stage after confirmation. Only an explicit send
// action leads to the send stage.
func Route(action domain.Action) domain.StageName {
	if action == domain.ActionSend {
		return domain.StageSend
	}
	return domain.StageCancel
}

func formattingError(msg string) error {
	return domain.NewStageError(domain.KindConfirmationFormatting, msg, nil)
}
