// ABOUTME: The single write path back into Google: removing a birthday
// ABOUTME: Reads the current etag, then clears birthdays with an update mask
package google

import (
	"context"

	"google.golang.org/api/people/v1"

	"github.com/harperreed/contactsync/sync"
)

// Writer removes birthdays from Google contacts.
type Writer struct {
	svc   *people.Service
	retry *retrier
}

// NewWriter creates a writer. limiter paces every People API call.
func NewWriter(svc *people.Service, limiter Limiter) *Writer {
	return &Writer{svc: svc, retry: newRetrier(limiter)}
}

// RetractBirthday clears the birthday of the contact with resource name
// providerID. It reports false when the contact had none.
func (w *Writer) RetractBirthday(ctx context.Context, providerID string) (bool, error) {
	var person *people.Person
	err := w.retry.do(ctx, "get contact", func() error {
		var err error
		person, err = w.svc.People.Get(providerID).PersonFields("birthdays,metadata").Context(ctx).Do()
		return err
	})
	if err != nil {
		return false, asWriteError(providerID, "get contact", err)
	}

	if len(person.Birthdays) == 0 {
		return false, nil
	}

	update := &people.Person{
		Etag:            person.Etag,
		Birthdays:       []*people.Birthday{},
		ForceSendFields: []string{"Birthdays"},
	}
	err = w.retry.do(ctx, "update contact", func() error {
		_, err := w.svc.People.UpdateContact(providerID, update).
			UpdatePersonFields("birthdays").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return false, asWriteError(providerID, "update contact", err)
	}

	return true, nil
}

var _ sync.PrimaryWriter = (*Writer)(nil)
var _ sync.PrimaryReader = (*Reader)(nil)
