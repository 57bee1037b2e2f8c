package application

import (
	"context"

	"voice-email/internal/domain"
)

// Drafter turns a spoken instruction into a structured email draft.
// Implementations fail with domain.ErrExtraction when the model reply does
// not follow the Recipient/Subject/Body structure.
type Drafter interface {
	Draft(ctx context.Context, utterance string) (domain.Draft, error)
}
