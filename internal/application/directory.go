package application

import (
	"context"
	"errors"
	"fmt"

	"voice-email/internal/domain"
)

var ErrContactNotFound = errors.New("contact not found")

// Directory resolves a recipient name to an email address. Matching is
// case-insensitive on the trimmed name.
type Directory interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// StaticDirectory serves a fixed name to email table.
type StaticDirectory struct {
	index map[string]string
}

func NewStaticDirectory(contacts []domain.Contact) *StaticDirectory {
	index := make(map[string]string, len(contacts))
	for _, c := range contacts {
		key := domain.NormalizeName(c.Name)
		if key == "" {
			continue
		}
		if _, dup := index[key]; dup {
			continue
		}
		index[key] = c.Email
	}
	return &StaticDirectory{index: index}
}

func (d *StaticDirectory) Resolve(_ context.Context, name string) (string, error) {
	email, ok := d.index[domain.NormalizeName(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrContactNotFound, name)
	}
	return email, nil
}
