// ABOUTME: Notion database as the secondary contact store
// ABOUTME: Paginated snapshot reads plus create and patch writes for shared columns
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/harperreed/contactsync/logging"
	"github.com/harperreed/contactsync/models"
	"github.com/harperreed/contactsync/sync"
)

const (
	provider      = "notion"
	queryPageSize = 100
)

// Store reads and writes contact rows in one database.
type Store struct {
	client     *Client
	databaseID string
}

// NewStore binds a client to a database.
func NewStore(client *Client, databaseID string) *Store {
	return &Store{client: client, databaseID: databaseID}
}

// Pages returns every live page of the database.
func (s *Store) Pages(ctx context.Context) ([]Page, error) {
	var pages []Page
	cursor := ""
	for {
		result, err := s.client.QueryDatabase(ctx, s.databaseID, cursor, queryPageSize)
		if err != nil {
			return nil, asFetchError("query database", err)
		}
		for _, page := range result.Results {
			if page.Archived || page.InTrash {
				continue
			}
			pages = append(pages, page)
		}
		if !result.HasMore || result.NextCursor == nil || *result.NextCursor == "" {
			return pages, nil
		}
		cursor = *result.NextCursor
		logging.FromContext(ctx).Debug().Int("fetched", len(pages)).Msg("fetching next page of notion rows")
	}
}

// FetchAll enumerates every row as a canonical contact.
func (s *Store) FetchAll(ctx context.Context) (sync.Snapshot, error) {
	pages, err := s.Pages(ctx)
	if err != nil {
		return sync.Snapshot{}, err
	}
	snap := sync.Snapshot{Contacts: make([]models.Contact, 0, len(pages))}
	for _, page := range pages {
		snap.Contacts = append(snap.Contacts, ContactFromPage(page))
	}
	return snap, nil
}

// Create adds a row and returns its page ID.
func (s *Store) Create(ctx context.Context, contact models.Contact) (string, error) {
	page, err := s.client.CreatePage(ctx, s.databaseID, CreateProperties(contact))
	if err != nil {
		return "", asWriteError("", "create page", err)
	}
	return page.ID, nil
}

// Update patches the shared columns of the row at handle.
func (s *Store) Update(ctx context.Context, handle string, patch models.ContactPatch) error {
	props := PatchProperties(patch)
	if len(props) == 0 {
		return nil
	}
	if err := s.client.UpdatePage(ctx, handle, props); err != nil {
		return asWriteError(handle, "update page", err)
	}
	return nil
}

func asFetchError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests {
		err = &sync.RateLimitError{Provider: provider, Err: err}
	}
	return &sync.TransportError{Provider: provider, Op: op, Err: err}
}

// asWriteError classifies a failed row write. Rejections of the row itself
// become integrity errors so only that record is skipped.
func asWriteError(handle, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return &sync.TransportError{Provider: provider, Op: op, Err: err}
	}
	switch {
	case apiErr.Status == http.StatusNotFound:
		return &sync.IntegrityError{Handle: handle, Reason: "notion page not found", Err: err}
	case apiErr.Status == http.StatusBadRequest:
		return &sync.IntegrityError{Handle: handle, Reason: fmt.Sprintf("notion rejected %s", op), Err: err}
	case apiErr.Status == http.StatusTooManyRequests:
		return &sync.RateLimitError{Provider: provider, Err: err}
	default:
		return &sync.TransportError{Provider: provider, Op: op, Err: err}
	}
}

var (
	_ sync.SecondaryReader = (*Store)(nil)
	_ sync.SecondaryWriter = (*Store)(nil)
)
