package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindEmptyInput             ErrorKind = "empty_input"
	KindGeneration             ErrorKind = "generation"
	KindExtraction             ErrorKind = "extraction"
	KindLookup                 ErrorKind = "lookup"
	KindRecipientNotFound      ErrorKind = "recipient_not_found"
	KindConfirmationFormatting ErrorKind = "confirmation_formatting"
	KindStaleConfirmation      ErrorKind = "stale_confirmation"
	KindSendFailed             ErrorKind = "send_failed"
	KindUnknown                ErrorKind = "unknown"
)

// Sentinels for errors.Is against a *StageError of the same kind.
var (
	ErrEmptyInput             = &StageError{Kind: KindEmptyInput}
	ErrGeneration             = &StageError{Kind: KindGeneration}
	ErrExtraction             = &StageError{Kind: KindExtraction}
	ErrLookup                 = &StageError{Kind: KindLookup}
	ErrRecipientNotFound      = &StageError{Kind: KindRecipientNotFound}
	ErrConfirmationFormatting = &StageError{Kind: KindConfirmationFormatting}
	ErrStaleConfirmation      = &StageError{Kind: KindStaleConfirmation}
	ErrSendFailed             = &StageError{Kind: KindSendFailed}
)

// StageError is the tagged failure returned by a stage.
type StageError struct {
	Kind    ErrorKind
	Message string
	Name    string // attempted recipient name, set for recipient_not_found
	Err     error
}

func NewStageError(kind ErrorKind, msg string, err error) *StageError {
	return &StageError{Kind: kind, Message: msg, Err: err}
}

func (e *StageError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	t, ok := target.(*StageError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first StageError in err's chain.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
