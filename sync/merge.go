// ABOUTME: Merge policy deciding the write for each matched or unmatched record
// ABOUTME: Google owns shared fields; Notion-only fields are never part of a forward write
package sync

import (
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/civil"

	"github.com/harperreed/contactsync/models"
)

// Direction names a pass.
type Direction int

const (
	Forward Direction = iota // Google -> Notion
	Reverse                  // Notion -> Google
)

func (d Direction) String() string {
	if d == Reverse {
		return "notion->google"
	}
	return "google->notion"
}

// Action is the kind of write an instruction performs.
type Action int

const (
	ActionNone Action = iota
	ActionCreate
	ActionUpdate
	ActionRetractBirthday
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionRetractBirthday:
		return "retract-birthday"
	default:
		return "none"
	}
}

// Instruction is one write to dispatch to a collaborator.
type Instruction struct {
	Action    Action
	Direction Direction
	Name      string

	// Contact is the full row to create.
	Contact models.Contact
	// Handle and Patch describe an update of an existing Notion row.
	Handle string
	Patch  models.ContactPatch
	// Changes lists shared fields whose value differs from the Notion row.
	Changes []string
	// ProviderID targets a birthday retraction.
	ProviderID string

	Kind      MatchKind
	Ambiguous bool
}

// Event is what happened to one record.
type Event int

const (
	EventNone Event = iota
	EventCreated
	EventUpdated
	EventExcluded
	EventInvalid
	EventRetracted
	EventRetractUnchanged
	EventUnlinked
	EventFailed
	EventCanceled
)

// Outcome is the statistics delta of one record. Outcomes are folded into
// Stats by the orchestrator only.
type Outcome struct {
	Direction Direction
	Event     Event
	Kind      MatchKind
	Ambiguous bool
	Err       error
}

// PlanForward decides the write for one Google contact given its match.
func PlanForward(primary models.Contact, m Match, now time.Time) (Instruction, Outcome) {
	name := primary.FullName()
	out := Outcome{Direction: Forward, Kind: m.Kind, Ambiguous: m.Ambiguous}

	if primary.ExcludeFromSync {
		// Excluded contacts are never created, and an existing row is left alone.
		out.Event = EventExcluded
		return Instruction{}, out
	}

	if !m.Found() {
		return Instruction{
			Action:    ActionCreate,
			Direction: Forward,
			Name:      name,
			Contact:   newSecondaryRecord(primary, now),
			Kind:      MatchNone,
		}, out
	}

	if m.Contact.Handle == "" {
		out.Event = EventFailed
		out.Err = &RecordError{Direction: Forward, Name: name, Err: &IntegrityError{
			ProviderID: primary.ProviderID,
			Reason:     fmt.Sprintf("matched notion row (by %s) has no page handle", m.Kind),
		}}
		return Instruction{}, out
	}

	return Instruction{
		Action:    ActionUpdate,
		Direction: Forward,
		Name:      name,
		Handle:    m.Contact.Handle,
		Patch:     forwardPatch(primary, now),
		Changes:   diffShared(m.Contact, &primary),
		Kind:      m.Kind,
		Ambiguous: m.Ambiguous,
	}, out
}

// PlanReverse decides whether a Notion row retracts a birthday in Google.
// It returns false when the row needs no write and produced no event.
func PlanReverse(secondary models.Contact) (Instruction, Outcome, bool) {
	out := Outcome{Direction: Reverse}
	if !secondary.Linked() {
		// Rows created by hand in Notion never flow back to Google.
		out.Event = EventUnlinked
		return Instruction{}, out, true
	}
	if !secondary.Secondary.HideBirthday {
		return Instruction{}, out, false
	}
	return Instruction{
		Action:     ActionRetractBirthday,
		Direction:  Reverse,
		Name:       secondary.FullName(),
		ProviderID: secondary.ProviderID,
		Handle:     secondary.Handle,
	}, out, true
}

// newSecondaryRecord copies the shared fields of a Google contact into a
// fresh Notion row with zero-valued Notion-only fields.
func newSecondaryRecord(primary models.Contact, now time.Time) models.Contact {
	synced := now
	return models.Contact{
		ProviderID:   primary.ProviderID,
		FirstName:    primary.FirstName,
		LastName:     primary.LastName,
		Organization: primary.Organization,
		Emails:       slices.Clone(primary.Emails),
		Phones:       slices.Clone(primary.Phones),
		Websites:     firstOnly(primary.Websites),
		Birthday:     cloneDate(primary.Birthday),
		Address:      cloneAddress(primary.Address),
		Secondary:    models.SecondaryFields{},
		LastSyncedAt: &synced,
	}
}

// forwardPatch overwrites every shared field from Google. An empty Google
// value clears the Notion value. The Google ID is only ever set, so an
// unlinked Google record cannot sever an existing link.
func forwardPatch(primary models.Contact, now time.Time) models.ContactPatch {
	p := models.ContactPatch{
		FirstName:    stringField(primary.FirstName),
		LastName:     stringField(primary.LastName),
		Emails:       listField(primary.Emails),
		Phones:       listField(primary.Phones),
		Websites:     listField(firstOnly(primary.Websites)),
		LastSyncedAt: models.Set(now),
	}
	if primary.ProviderID != "" {
		p.ProviderID = models.Set(primary.ProviderID)
	}
	if primary.Organization.IsZero() {
		p.Organization = models.Clear[models.Organization]()
	} else {
		p.Organization = models.Set(primary.Organization)
	}
	if primary.Birthday == nil {
		p.Birthday = models.Clear[civil.Date]()
	} else {
		p.Birthday = models.Set(*primary.Birthday)
	}
	if primary.Address == nil || primary.Address.IsZero() {
		p.Address = models.Clear[models.Address]()
	} else {
		p.Address = models.Set(*primary.Address)
	}
	return p
}

func stringField(v string) models.Field[string] {
	if v == "" {
		return models.Clear[string]()
	}
	return models.Set(v)
}

func listField(v []string) models.Field[[]string] {
	if len(v) == 0 {
		return models.Clear[[]string]()
	}
	return models.Set(slices.Clone(v))
}

// diffShared names the shared fields where the Notion row differs from Google.
func diffShared(secondary, primary *models.Contact) []string {
	var changes []string
	add := func(name string, same bool) {
		if !same {
			changes = append(changes, name)
		}
	}
	add("provider_id", primary.ProviderID == "" || primary.ProviderID == secondary.ProviderID)
	add("first_name", primary.FirstName == secondary.FirstName)
	add("last_name", primary.LastName == secondary.LastName)
	add("organization", primary.Organization == secondary.Organization)
	add("emails", slices.Equal(primary.Emails, secondary.Emails))
	add("phones", slices.Equal(primary.Phones, secondary.Phones))
	add("websites", slices.Equal(firstOnly(primary.Websites), firstOnly(secondary.Websites)))
	add("birthday", sameDate(primary.Birthday, secondary.Birthday))
	add("address", addressString(primary.Address) == addressString(secondary.Address))
	return changes
}

func firstOnly(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return []string{values[0]}
}

func sameDate(a, b *civil.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func addressString(a *models.Address) string {
	if a == nil {
		return ""
	}
	return a.String()
}

func cloneDate(d *civil.Date) *civil.Date {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneAddress(a *models.Address) *models.Address {
	if a == nil {
		return nil
	}
	v := *a
	return &v
}
