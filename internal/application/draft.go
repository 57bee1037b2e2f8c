package application

import (
	"fmt"
	"strings"

	"voice-email/internal/domain"
)

const (
	headerRecipient = "Recipient:"
	headerSubject   = "Subject:"
	headerBody      = "Body:"
)

// DefaultSenderPlaceholder is the token models tend to leave where the
// sender's name belongs.
const DefaultSenderPlaceholder = "[Your Name]"

// DraftingPrompt builds the system prompt for the drafting model.
func DraftingPrompt(senderName string) string {
	signOff := "Sign the email with the sender's name."
	if senderName != "" {
		signOff = fmt.Sprintf("Sign the email as %s.", senderName)
	}

	return fmt.Sprintf(`You are an email assistant. The user dictates an instruction by voice and you write the email it asks for.

Reply using EXACTLY this structure and nothing else:
Recipient: <recipient name as spoken>
Subject: <email subject>
Body:
<email body>

Guidelines:
- Pick out the purpose, key details and tone of the instruction.
- Write a short subject that states what the email is about.
- Open with a greeting that fits the relationship with the recipient.
- Organise the body in clear paragraphs; keep it warm, direct and free of jargon.
- If there is a meeting, state its date, time and location.
- If it is a follow-up, acknowledge the earlier conversation.
- If it is urgent, say so politely. If it asks for something, be specific about what.
- Close with a courteous sign-off. %s
- Do not add explanations, markdown or placeholders such as %q.`, signOff, DefaultSenderPlaceholder)
}

// ParseDraftReply extracts a draft from a model reply. The reply must
// contain the Recipient, Subject and Body headers in that order, each at the
// start of its own line (case-insensitive). Anything else is rejected.
func ParseDraftReply(reply string) (domain.Draft, error) {
	lines := strings.Split(strings.ReplaceAll(reply, "\r\n", "\n"), "\n")
	pos := 0

	header := func(name string) (string, error) {
		for pos < len(lines) && strings.TrimSpace(lines[pos]) == "" {
			pos++
		}
		if pos >= len(lines) {
			return "", extractionError(fmt.Sprintf("missing %q header", name))
		}
		line := strings.TrimSpace(lines[pos])
		if len(line) < len(name) || !strings.EqualFold(line[:len(name)], name) {
			return "", extractionError(fmt.Sprintf("expected %q header, got %q", name, line))
		}
		pos++
		return strings.TrimSpace(line[len(name):]), nil
	}

	recipient, err := header(headerRecipient)
	if err != nil {
		return domain.Draft{}, err
	}
	subject, err := header(headerSubject)
	if err != nil {
		return domain.Draft{}, err
	}
	firstBodyLine, err := header(headerBody)
	if err != nil {
		return domain.Draft{}, err
	}

	body := strings.TrimSpace(firstBodyLine + "\n" + strings.Join(lines[pos:], "\n"))

	switch {
	case recipient == "":
		return domain.Draft{}, extractionError("failed to extract recipient")
	case subject == "":
		return domain.Draft{}, extractionError("failed to extract subject")
	case body == "":
		return domain.Draft{}, extractionError("failed to extract body")
	}

	return domain.Draft{
		RecipientName: recipient,
		Subject:       subject,
		Body:          body,
	}, nil
}

// SubstituteSender replaces every placeholder token in body with name.
func SubstituteSender(body, placeholder, name string) string {
	if placeholder == "" || name == "" {
		return body
	}
	return strings.ReplaceAll(body, placeholder, name)
}

func extractionError(msg string) error {
	return domain.NewStageError(domain.KindExtraction, msg, nil)
}
