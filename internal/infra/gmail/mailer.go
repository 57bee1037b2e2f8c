package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"voice-email/internal/application"
	"voice-email/internal/domain"
)

// Mailer sends messages through the Gmail API as the authenticated user.
type Mailer struct {
	service *gmailapi.Service
	userID  string
	from    string
}

var _ application.Mailer = (*Mailer)(nil)

func NewMailer(ctx context.Context, userID, from string, opts ...option.ClientOption) (*Mailer, error) {
	if userID == "" {
		userID = "me"
	}

	service, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}

	return &Mailer{
		service: service,
		userID:  userID,
		from:    from,
	}, nil
}

func (m *Mailer) Send(ctx context.Context, email domain.OutgoingEmail) error {
	raw, err := buildMessage(m.from, email)
	if err != nil {
		return err
	}

	msg := &gmailapi.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	sent, err := m.service.Users.Messages.Send(m.userID, msg).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	if sent.Id == "" {
		return fmt.Errorf("gmail did not return a message id")
	}
	return nil
}

func buildMessage(from string, email domain.OutgoingEmail) ([]byte, error) {
	for field, v := range map[string]string{"from": from, "to": email.To, "subject": email.Subject} {
		if strings.ContainsAny(v, "\r\n") {
			return nil, fmt.Errorf("invalid %s header: contains line break", field)
		}
	}
	if strings.TrimSpace(email.To) == "" {
		return nil, fmt.Errorf("missing recipient address")
	}

	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}

	header("To", email.To)
	if from != "" {
		header("From", from)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(email.Body)); err != nil {
		return nil, fmt.Errorf("encoding body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("encoding body: %w", err)
	}

	return buf.Bytes(), nil
}
