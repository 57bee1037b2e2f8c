package gmail_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"voice-email/internal/domain"
	"voice-email/internal/infra/gmail"
)

func TestMailer_Send(t *testing.T) {
	var raw string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/gmail/v1/users/me/messages/send" {
			http.Error(w, "not found: "+r.URL.Path, http.StatusNotFound)
			return
		}
		var msg struct {
			Raw string `json:"raw"`
		}
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		raw = msg.Raw
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "msg-1"})
	}))
	defer server.Close()

	mailer, err := gmail.NewMailer(context.Background(), "me", "dana@example.com",
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	err = mailer.Send(context.Background(), domain.OutgoingEmail{
		To:      "alice@example.com",
		Subject: "Meeting moved",
		Body:    "Hi Alice,\n\nThe meeting moved to 3pm Friday.\n\nDana",
	})
	require.NoError(t, err)

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	message := string(decoded)
	require.Contains(t, message, "To: alice@example.com\r\n")
	require.Contains(t, message, "From: dana@example.com\r\n")
	require.Contains(t, message, "Subject: Meeting moved\r\n")
	require.Contains(t, message, "3pm Friday")
}

func TestMailer_SendRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"insufficient permission"}}`))
	}))
	defer server.Close()

	mailer, err := gmail.NewMailer(context.Background(), "", "",
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	err = mailer.Send(context.Background(), domain.OutgoingEmail{To: "alice@example.com", Subject: "hi", Body: "hi"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient permission")
}

func TestMailer_RejectsHeaderInjection(t *testing.T) {
	mailer, err := gmail.NewMailer(context.Background(), "me", "",
		option.WithEndpoint("http://127.0.0.1:1/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	err = mailer.Send(context.Background(), domain.OutgoingEmail{
		To:      "alice@example.com\r\nBcc: mallory@example.com",
		Subject: "hi",
		Body:    "hi",
	})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "line break"))
}

func TestUserTokenOption(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	token := filepath.Join(dir, "token.json")

	require.NoError(t, os.WriteFile(creds, []byte(`{"installed":{
		"client_id":"client.apps.googleusercontent.com",
		"client_secret":"secret",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token",
		"redirect_uris":["http://localhost"]}}`), 0o600))
	require.NoError(t, os.WriteFile(token, []byte(`{"access_token":"at","token_type":"Bearer","refresh_token":"rt"}`), 0o600))

	opt, err := gmail.UserTokenOption(context.Background(), creds, token)
	require.NoError(t, err)
	require.NotNil(t, opt)

	_, err = gmail.UserTokenOption(context.Background(), creds, filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}
