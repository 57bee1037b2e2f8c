package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voice-email/internal/domain"
	"voice-email/internal/infra/anthropic"
)

func claudeServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var req struct {
			System   string `json:"system"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !strings.Contains(req.System, "Recipient:") || !strings.Contains(req.System, "Sign the email as Dana Reyes") {
			http.Error(w, "unexpected system prompt", http.StatusBadRequest)
			return
		}

		response := map[string]any{
			"content": []map[string]string{
				{"text": reply},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
}

func TestClaudeClient_Draft(t *testing.T) {
	server := claudeServer(t, "Recipient: Alice\nSubject: Meeting moved\nBody:\nHi Alice,\n\nThe meeting moved to 3pm Friday.\n\nBest,\n[Your Name]")
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", "Dana Reyes", server.URL)

	draft, err := client.Draft(context.Background(), "tell alice the meeting moved to 3pm friday")
	if err != nil {
		t.Fatalf("Draft error: %v", err)
	}

	if draft.RecipientName != "Alice" {
		t.Errorf("RecipientName: got %s, want Alice", draft.RecipientName)
	}

	if draft.Subject != "Meeting moved" {
		t.Errorf("Subject: got %s, want Meeting moved", draft.Subject)
	}

	if !strings.Contains(draft.Body, "3pm Friday") {
		t.Errorf("Body: got %q, want it to mention 3pm Friday", draft.Body)
	}
}

func TestClaudeClient_DraftMalformedReply(t *testing.T) {
	server := claudeServer(t, "Sure! Here is your email:\nSubject: Meeting moved\nBody: hi")
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", "Dana Reyes", server.URL)

	_, err := client.Draft(context.Background(), "tell alice the meeting moved")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("error: got %v, want extraction error", err)
	}
}

func TestClaudeClient_DraftAPIError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"invalid x-api-key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("bad-key", "claude-test", "Dana Reyes", server.URL)

	_, err := client.Draft(context.Background(), "tell alice hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrExtraction) {
		t.Errorf("API failure must not be reported as an extraction error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}
