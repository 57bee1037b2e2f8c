package application_test

import (
	"context"
	"errors"
	"testing"

	"voice-email/internal/application"
	"voice-email/internal/domain"
)

func TestStaticDirectory_Resolve(t *testing.T) {
	dir := application.NewStaticDirectory([]domain.Contact{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "  Bob Jones ", Email: "bob@example.com"},
		{Name: "alice", Email: "other-alice@example.com"},
		{Name: "", Email: "nobody@example.com"},
	})

	tests := []struct {
		name string
		want string
	}{
		{"Alice", "alice@example.com"},
		{"ALICE ", "alice@example.com"},
		{"bob jones", "bob@example.com"},
	}

	for _, tt := range tests {
		got, err := dir.Resolve(context.Background(), tt.name)
		if err != nil {
			t.Errorf("Resolve(%q) error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	for _, name := range []string{"Carol", "", "Bob"} {
		if _, err := dir.Resolve(context.Background(), name); !errors.Is(err, application.ErrContactNotFound) {
			t.Errorf("Resolve(%q) = %v, want ErrContactNotFound", name, err)
		}
	}
}
