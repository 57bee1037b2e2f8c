package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"voice-email/internal/domain"
)

// Sender is the identity substituted into drafts before preview.
type Sender struct {
	Name        string
	Placeholder string
}

// DraftRequest starts a draft phase. OverrideName is the operator supplied
// name tried when the drafted recipient is not in the directory.
type DraftRequest struct {
	Utterance    string
	OverrideName string
	Seq          int64
}

// Assistant runs the email pipeline in two externally invoked phases:
// record, generate, lookup and preview; then confirm followed by send or cancel.
type Assistant struct {
	drafter   Drafter
	directory Directory
	mailer    Mailer
	notifier  Notifier
	sender    Sender
	observer  Observer
	tracer    trace.Tracer
	logger    *slog.Logger
}

func NewAssistant(
	drafter Drafter,
	directory Directory,
	mailer Mailer,
	notifier Notifier,
	sender Sender,
	observer Observer,
	logger *slog.Logger,
) *Assistant {
	if notifier == nil {
		notifier = &NoopNotifier{}
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	if sender.Placeholder == "" {
		sender.Placeholder = DefaultSenderPlaceholder
	}
	return &Assistant{
		drafter:   drafter,
		directory: directory,
		mailer:    mailer,
		notifier:  notifier,
		sender:    sender,
		observer:  observer,
		tracer:    otel.Tracer("voice-email/application"),
		logger:    logger,
	}
}

// RunDraftPhase runs the stages up to the preview and returns the state that
// waits for confirmation. Failures are reported on the returned state.
func (a *Assistant) RunDraftPhase(ctx context.Context, req DraftRequest) domain.WorkflowState {
	ctx, span := a.tracer.Start(ctx, "draft_phase")
	defer span.End()

	state := domain.WorkflowState{
		DraftSeq:     req.Seq,
		OverrideName: req.OverrideName,
	}

	for _, st := range []stage{
		recordStage(req.Utterance),
		a.generateStage(),
		a.lookupStage(),
		a.previewStage(),
	} {
		state = a.execute(ctx, st, state)
	}

	a.logger.Info("draft phase finished",
		"draft_id", state.DraftID,
		"seq", state.DraftSeq,
		"status", state.Status,
		"recipient", state.RecipientName,
	)
	a.observer.ObserveRun(domain.PhaseDraft, state.Status)
	return state
}

// RetryLookup resumes a draft that failed with recipient_not_found, using
// overrideName from the operator. Subject and body are kept as drafted; only
// lookup and preview run again. Any other state is returned unchanged.
func (a *Assistant) RetryLookup(ctx context.Context, state domain.WorkflowState, overrideName string, seq int64) domain.WorkflowState {
	if state.ErrorKind != domain.KindRecipientNotFound {
		return state
	}

	ctx, span := a.tracer.Start(ctx, "retry_lookup")
	defer span.End()

	state.Status = domain.StatusSuccess
	state.ErrorKind = ""
	state.ErrorMessage = ""
	state.Action = ""
	state.OverrideName = overrideName
	state.DraftSeq = seq

	for _, st := range []stage{
		a.lookupStage(),
		a.previewStage(),
	} {
		state = a.execute(ctx, st, state)
	}

	a.logger.Info("lookup retried",
		"draft_id", state.DraftID,
		"seq", state.DraftSeq,
		"status", state.Status,
		"recipient", state.RecipientName,
	)
	a.observer.ObserveRun(domain.PhaseDraft, state.Status)
	return state
}

// RunSendPhase resumes a drafted state with the operator decision. An
// errored state is returned as is: neither send nor cancel runs.
func (a *Assistant) RunSendPhase(ctx context.Context, state domain.WorkflowState, c domain.Confirmation) domain.WorkflowState {
	ctx, span := a.tracer.Start(ctx, "send_phase", trace.WithAttributes(
		attribute.String("draft_id", c.DraftID),
		attribute.Bool("confirmed", c.Confirmed),
	))
	defer span.End()

	if state.Failed() {
		a.logger.Warn("send phase skipped, draft is in error", "draft_id", state.DraftID, "error", state.ErrorMessage)
		a.observer.ObserveRun(domain.PhaseSend, state.Status)
		return state
	}

	state = a.execute(ctx, confirmStage(c), state)
	if state.ErrorKind == domain.KindStaleConfirmation {
		// Rejected request, not a finished run: the pending draft is still waiting.
		a.logger.Warn("confirmation rejected", "draft_id", state.DraftID, "confirmed_id", c.DraftID)
		return state
	}
	if !state.Failed() {
		terminal := cancelStage()
		if Route(state.Action) == domain.StageSend {
			terminal = a.sendStage()
		}
		state = a.execute(ctx, terminal, state)
	}

	a.logger.Info("send phase finished",
		"draft_id", state.DraftID,
		"action", state.Action,
		"status", state.Status,
	)
	a.observer.ObserveRun(domain.PhaseSend, state.Status)
	a.notify(ctx, state)
	return state
}

func (a *Assistant) execute(ctx context.Context, st stage, state domain.WorkflowState) domain.WorkflowState {
	if state.Failed() {
		a.logger.Debug("skipping stage", "stage", st.name, "error", state.ErrorMessage)
		a.observer.ObserveStage(st.name, ResultSkipped, 0)
		return state
	}

	ctx, span := a.tracer.Start(ctx, string(st.name))
	defer span.End()

	start := time.Now()
	next, err := st.run(ctx, state)
	elapsed := time.Since(start)

	if err != nil {
		failed := state.Fail(err)
		if st.cancelOnError {
			failed.Action = domain.ActionCancel
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Warn("stage failed",
			"stage", st.name,
			"kind", failed.ErrorKind,
			"error", err,
		)
		a.observer.ObserveStage(st.name, ResultError, elapsed)
		return failed
	}

	next.Status = domain.StatusSuccess
	next.ErrorKind = ""
	next.ErrorMessage = ""
	a.logger.Debug("stage complete", "stage", st.name, "elapsed", elapsed)
	a.observer.ObserveStage(st.name, ResultSuccess, elapsed)
	return next
}

func (a *Assistant) notify(ctx context.Context, state domain.WorkflowState) {
	var message string
	switch {
	case state.Failed():
		message = fmt.Sprintf("Error: %s", state.ErrorMessage)
	case state.Action == domain.ActionSend:
		message = fmt.Sprintf("Email sent to %s: %s", state.RecipientEmail, state.EmailSubject)
	default:
		message = "Email cancelled"
	}

	if err := a.notifier.Notify(ctx, message); err != nil {
		a.logger.Error("notifying result", "error", err)
	}
}
