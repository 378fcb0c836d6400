// ABOUTME: Collaborator contracts the reconciliation engine consumes
// ABOUTME: Google and Notion adapters implement these; the engine never sees HTTP
package sync

import (
	"context"

	"github.com/harperreed/contactsync/models"
)

// Snapshot is a full enumeration of one provider.
type Snapshot struct {
	Contacts []models.Contact
	// Invalid holds records the reader dropped. They are counted, never matched.
	Invalid []*ValidationError
}

// PrimaryReader enumerates every Google contact.
type PrimaryReader interface {
	FetchAll(ctx context.Context) (Snapshot, error)
}

// PrimaryWriter is the only write path back into Google.
type PrimaryWriter interface {
	// RetractBirthday removes the birthday from a Google contact. It reports
	// false when the contact had no birthday to begin with.
	RetractBirthday(ctx context.Context, providerID string) (bool, error)
}

// SecondaryReader enumerates every row of the Notion database. Each contact
// carries its page handle.
type SecondaryReader interface {
	FetchAll(ctx context.Context) (Snapshot, error)
}

// SecondaryWriter writes shared fields into the Notion database.
type SecondaryWriter interface {
	Create(ctx context.Context, contact models.Contact) (string, error)
	Update(ctx context.Context, handle string, patch models.ContactPatch) error
}
