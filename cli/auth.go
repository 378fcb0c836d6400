// ABOUTME: The auth command: local-callback OAuth flow for Google
// ABOUTME: Stores the token at the XDG path and prints the refresh token
package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/harperreed/contactsync/google"
)

func newAuthCommand() *cobra.Command {
	var noBrowser bool
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appFrom(cmd).cfg
			if err := cfg.ValidateGoogle(); err != nil {
				return err
			}
			config := google.NewOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret)

			token, err := runOAuthFlow(cmd.Context(), config, !noBrowser)
			if err != nil {
				return err
			}

			if err := google.SaveToken(cfg.TokenPath, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Authenticated successfully\n")
			fmt.Fprintf(out, "✓ Tokens saved to %s\n\n", cfg.TokenPath)
			if token.RefreshToken != "" {
				fmt.Fprintf(out, "To run without the token file, set:\nGOOGLE_REFRESH_TOKEN=%s\n\n", token.RefreshToken)
			}
			fmt.Fprintln(out, "Ready to sync! Run 'contactsync sync --dry-run' to preview.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "print the URL instead of opening a browser")
	return cmd
}

// runOAuthFlow serves the redirect on localhost and exchanges the code.
func runOAuthFlow(ctx context.Context, config *oauth2.Config, open bool) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	callbackChan := make(chan *oauth2.Token, 1)
	errChan := make(chan error, 1)

	fail := func(err error) {
		select {
		case errChan <- err:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			fail(fmt.Errorf("oauth state mismatch"))
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			fail(fmt.Errorf("no authorization code received"))
			return
		}

		token, err := config.Exchange(ctx, code)
		if err != nil {
			http.Error(w, "token exchange failed", http.StatusInternalServerError)
			fail(fmt.Errorf("failed to exchange code: %w", err))
			return
		}

		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
		select {
		case callbackChan <- token:
		default:
		}
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", google.CallbackPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			fail(err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	// Consent prompt forces Google to return a refresh token every time.
	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))

	fmt.Println("Opening browser for Google OAuth...")
	fmt.Printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
	if open {
		_ = openBrowser(authURL)
	}

	select {
	case token := <-callbackChan:
		return token, nil
	case err := <-errChan:
		return nil, fmt.Errorf("OAuth flow failed: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}
