package domain

import "strings"

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

type Action string

const (
	ActionSend   Action = "send"
	ActionCancel Action = "cancel"
)

// WorkflowState is the record threaded through every stage of one run.
// It is passed by value; stages return a modified copy.
type WorkflowState struct {
	DraftID        string    `json:"draft_id,omitempty"`
	DraftSeq       int64     `json:"draft_seq,omitempty"`
	Text           string    `json:"text,omitempty"`
	OverrideName   string    `json:"override_name,omitempty"`
	RecipientName  string    `json:"recipient_name,omitempty"`
	RecipientEmail string    `json:"recipient_email,omitempty"`
	EmailSubject   string    `json:"email_subject,omitempty"`
	EmailBody      string    `json:"email_body,omitempty"`
	Preview        *Preview  `json:"preview,omitempty"`
	Action         Action    `json:"action,omitempty"`
	Status         Status    `json:"status,omitempty"`
	ErrorKind      ErrorKind `json:"error_kind,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

func (s WorkflowState) Failed() bool {
	return s.Status == StatusError
}

// Fail records err on the state. Only status and error fields change.
func (s WorkflowState) Fail(err error) WorkflowState {
	s.Status = StatusError
	s.ErrorKind = KindOf(err)
	s.ErrorMessage = err.Error()
	return s
}

// Draft is what the drafting collaborator extracts from the model reply.
type Draft struct {
	RecipientName string
	Subject       string
	Body          string
}

// Preview is the projection shown to the operator before confirmation.
type Preview struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Confirmation is the operator decision for one specific draft.
type Confirmation struct {
	DraftID   string `json:"draft_id"`
	Confirmed bool   `json:"confirmed"`
}

type OutgoingEmail struct {
	To      string
	Subject string
	Body    string
}

type Contact struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// NormalizeName is the matching key for contact lookups: trimmed and lower-cased.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
