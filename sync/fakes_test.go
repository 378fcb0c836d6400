// ABOUTME: In-memory Google and Notion collaborators for engine tests
// ABOUTME: The Notion fake applies patches so repeated runs see their own writes
package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"sync/atomic"
	"time"

	"cloud.google.com/go/civil"

	"github.com/harperreed/contactsync/models"
)

type fakeGoogle struct {
	mu        gosync.Mutex
	contacts  []models.Contact
	invalid   []*ValidationError
	fetchErr  error
	retractFn func(id string) (bool, error)
	retracted []string
}

func (g *fakeGoogle) FetchAll(ctx context.Context) (Snapshot, error) {
	if g.fetchErr != nil {
		return Snapshot{}, g.fetchErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.Contact, len(g.contacts))
	copy(out, g.contacts)
	return Snapshot{Contacts: out, Invalid: g.invalid}, nil
}

func (g *fakeGoogle) RetractBirthday(ctx context.Context, providerID string) (bool, error) {
	if g.retractFn != nil {
		return g.retractFn(providerID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.retracted = append(g.retracted, providerID)
	for i := range g.contacts {
		if g.contacts[i].ProviderID == providerID {
			had := g.contacts[i].Birthday != nil
			g.contacts[i].Birthday = nil
			return had, nil
		}
	}
	return false, &IntegrityError{ProviderID: providerID, Reason: "no such contact"}
}

type fakeNotion struct {
	mu       gosync.Mutex
	rows     []models.Contact
	fetchErr error
	createFn func(models.Contact) error
	updateFn func(handle string) error
	nextID   int
	creates  atomic.Int32
	updates  atomic.Int32
}

func (n *fakeNotion) FetchAll(ctx context.Context) (Snapshot, error) {
	if n.fetchErr != nil {
		return Snapshot{}, n.fetchErr
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.Contact, len(n.rows))
	copy(out, n.rows)
	return Snapshot{Contacts: out}, nil
}

func (n *fakeNotion) Create(ctx context.Context, c models.Contact) (string, error) {
	if n.createFn != nil {
		if err := n.createFn(c); err != nil {
			return "", err
		}
	}
	n.creates.Add(1)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	c.Handle = fmt.Sprintf("page-%d", n.nextID)
	n.rows = append(n.rows, c)
	return c.Handle, nil
}

func (n *fakeNotion) Update(ctx context.Context, handle string, patch models.ContactPatch) error {
	if n.updateFn != nil {
		if err := n.updateFn(handle); err != nil {
			return err
		}
	}
	n.updates.Add(1)
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.rows {
		if n.rows[i].Handle == handle {
			patch.Apply(&n.rows[i])
			return nil
		}
	}
	return &IntegrityError{Handle: handle, Reason: "page not found"}
}

func (n *fakeNotion) row(handle string) models.Contact {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, r := range n.rows {
		if r.Handle == handle {
			return r
		}
	}
	return models.Contact{}
}

func date(y int, m int, d int) *civil.Date {
	v := civil.Date{Year: y, Month: time.Month(m), Day: d}
	return &v
}
