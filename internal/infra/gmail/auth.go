package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// UserTokenOption authenticates as the user whose OAuth token was saved to
// tokenFile, refreshing it with the client in credentialsFile.
func UserTokenOption(ctx context.Context, credentialsFile, tokenFile string) (option.ClientOption, error) {
	secret, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(secret, gmailapi.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}

	f, err := os.Open(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("opening token file: %w", err)
	}
	defer f.Close()

	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decoding token file: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s holds no token", tokenFile)
	}

	return option.WithTokenSource(cfg.TokenSource(ctx, &tok)), nil
}
