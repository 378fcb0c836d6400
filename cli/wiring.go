// ABOUTME: Builds the Google and Notion collaborators from configuration
// ABOUTME: Shared by the sync, schema, and status commands
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harperreed/contactsync/config"
	"github.com/harperreed/contactsync/db"
	"github.com/harperreed/contactsync/google"
	"github.com/harperreed/contactsync/notion"
)

// googleRPS paces People API calls well under the per-user quota.
const googleRPS = 5

func newNotionStore(cfg *config.Config) (*notion.Store, error) {
	if err := cfg.ValidateNotion(); err != nil {
		return nil, err
	}
	client := notion.NewClient(notion.ClientOptions{Token: cfg.NotionToken, RPS: cfg.NotionRPS})
	return notion.NewStore(client, cfg.DatabaseID), nil
}

func newGoogle(ctx context.Context, cfg *config.Config) (*google.Reader, *google.Writer, error) {
	if err := cfg.ValidateGoogle(); err != nil {
		return nil, nil, err
	}
	oauth := google.NewOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret)
	ts, err := google.TokenSource(ctx, oauth, cfg.GoogleRefreshToken, cfg.TokenPath)
	if err != nil {
		return nil, nil, err
	}
	svc, err := google.NewPeopleService(ctx, ts)
	if err != nil {
		return nil, nil, err
	}
	limiter := google.NewLimiter(googleRPS)
	return google.NewReader(svc, cfg.ExcludeLabel, limiter), google.NewWriter(svc, limiter), nil
}

func openHistory(cfg *config.Config) (*sql.DB, error) {
	path := cfg.DBPath
	if path == "" {
		path = db.DefaultPath()
	}
	database, err := db.OpenDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database %s: %w", path, err)
	}
	return database, nil
}
