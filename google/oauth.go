// ABOUTME: OAuth configuration and token management for the Google People API
// ABOUTME: Handles the local-callback flow, token storage at XDG paths, and refresh
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// CallbackPort is where the auth command listens for the OAuth redirect.
	CallbackPort = 36133

	// ContactsScope grants read and write access to contacts. Write is needed
	// to remove birthdays.
	ContactsScope = "https://www.googleapis.com/auth/contacts"
)

// NewOAuthConfig creates the OAuth2 config for the People API.
func NewOAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", CallbackPort),
		Scopes:       []string{ContactsScope},
		Endpoint:     google.Endpoint,
	}
}

// TokenPath returns the XDG-compliant path for storing OAuth tokens.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "contactsync", "google-credentials.json")
}

// SaveToken saves the OAuth token to path.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

// LoadToken loads the OAuth token stored at path.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	return &token, nil
}

// TokenSource returns a refreshing token source. A refresh token from the
// environment wins; otherwise the stored token file is used.
func TokenSource(ctx context.Context, config *oauth2.Config, refreshToken, tokenPath string) (oauth2.TokenSource, error) {
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("google OAuth credentials not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables")
	}

	if refreshToken != "" {
		return config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}), nil
	}

	token, err := LoadToken(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("no google credentials found, run 'contactsync auth' first: %w", err)
	}
	return config.TokenSource(ctx, token), nil
}
