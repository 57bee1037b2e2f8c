package sheets_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"voice-email/internal/application"
	"voice-email/internal/infra/sheets"
)

func sheetServer(t *testing.T, values [][]string, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-123/values/") {
			http.Error(w, "not found: "+r.URL.Path, http.StatusNotFound)
			return
		}
		if calls != nil {
			*calls++
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"range":          "Sheet1!A1:B10",
			"majorDimension": "ROWS",
			"values":         values,
		})
	}))
}

func newDirectory(t *testing.T, url string) *sheets.Directory {
	t.Helper()
	dir, err := sheets.NewDirectory(context.Background(), "sheet-123", "Sheet1!A:B",
		option.WithEndpoint(url+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return dir
}

func TestDirectory_Resolve(t *testing.T) {
	calls := 0
	server := sheetServer(t, [][]string{
		{" Name ", "Email "},
		{"Alice", "alice@example.com"},
		{"  Bob Stone ", "bob@example.com"},
	}, &calls)
	defer server.Close()

	dir := newDirectory(t, server.URL)

	for _, name := range []string{"Alice", "alice", "  ALICE  "} {
		email, err := dir.Resolve(context.Background(), name)
		require.NoError(t, err, name)
		require.Equal(t, "alice@example.com", email)
	}

	email, err := dir.Resolve(context.Background(), "bob stone")
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", email)

	require.Equal(t, 4, calls, "every lookup reads the sheet")
}

func TestDirectory_NotFound(t *testing.T) {
	server := sheetServer(t, [][]string{
		{"Name", "Email"},
		{"Alice", "alice@example.com"},
	}, nil)
	defer server.Close()

	_, err := newDirectory(t, server.URL).Resolve(context.Background(), "Carol")
	require.True(t, errors.Is(err, application.ErrContactNotFound), "got %v", err)
}

func TestDirectory_BadHeader(t *testing.T) {
	server := sheetServer(t, [][]string{
		{"Who", "Address"},
		{"Alice", "alice@example.com"},
	}, nil)
	defer server.Close()

	_, err := newDirectory(t, server.URL).Resolve(context.Background(), "Alice")
	require.Error(t, err)
	require.False(t, errors.Is(err, application.ErrContactNotFound))
	require.Contains(t, err.Error(), "header")
}

func TestDirectory_EmptySheet(t *testing.T) {
	server := sheetServer(t, [][]string{}, nil)
	defer server.Close()

	_, err := newDirectory(t, server.URL).Resolve(context.Background(), "Alice")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no data")
}
