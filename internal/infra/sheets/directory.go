package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"voice-email/internal/application"
	"voice-email/internal/domain"
)

const (
	nameColumn  = "Name"
	emailColumn = "Email"
)

// Directory resolves recipients against a two column (Name, Email) sheet.
// The sheet is read on every lookup; nothing is cached.
type Directory struct {
	service       *gsheets.Service
	spreadsheetID string
	readRange     string
}

var _ application.Directory = (*Directory)(nil)

func NewDirectory(ctx context.Context, spreadsheetID, readRange string, opts ...option.ClientOption) (*Directory, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if readRange == "" {
		readRange = "Sheet1!A:B"
	}

	service, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &Directory{
		service:       service,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
	}, nil
}

// ServiceAccountOptions authenticates with a service account key file and
// read-only spreadsheet scope.
func ServiceAccountOptions(credentialsFile string) []option.ClientOption {
	return []option.ClientOption{
		option.WithAuthCredentialsFile(option.ServiceAccount, credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsReadonlyScope),
	}
}

func (d *Directory) Resolve(ctx context.Context, name string) (string, error) {
	resp, err := d.service.Spreadsheets.Values.Get(d.spreadsheetID, d.readRange).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("reading sheet %s: %w", d.readRange, err)
	}

	rows := resp.Values
	if len(rows) == 0 {
		return "", fmt.Errorf("no data found in sheet %s", d.readRange)
	}

	nameIdx, emailIdx := -1, -1
	for i, cell := range rows[0] {
		switch strings.TrimSpace(cellString(cell)) {
		case nameColumn:
			nameIdx = i
		case emailColumn:
			emailIdx = i
		}
	}
	if nameIdx < 0 || emailIdx < 0 {
		return "", fmt.Errorf("sheet header must contain %q and %q columns", nameColumn, emailColumn)
	}

	want := domain.NormalizeName(name)
	for _, row := range rows[1:] {
		if nameIdx >= len(row) || emailIdx >= len(row) {
			continue
		}
		if domain.NormalizeName(cellString(row[nameIdx])) == want {
			email := strings.TrimSpace(cellString(row[emailIdx]))
			if email == "" {
				continue
			}
			return email, nil
		}
	}

	return "", fmt.Errorf("%w: %q", application.ErrContactNotFound, name)
}

func cellString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
