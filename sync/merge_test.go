// ABOUTME: Tests for the forward and reverse merge policy
// ABOUTME: Shared fields come from Google; Notion-only fields are never written
package sync

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contactsync/models"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func TestPlanForwardCreate(t *testing.T) {
	primary := models.Contact{
		ProviderID: "people/c1",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Emails:     []string{"ada@x.com"},
		Websites:   []string{"https://ada.dev", "https://second.example"},
		Birthday:   date(1815, 12, 10),
		Secondary:  models.SecondaryFields{Notes: "should not be copied"},
	}

	in, out := PlanForward(primary, Match{}, testNow)
	require.Equal(t, ActionCreate, in.Action)
	assert.Equal(t, EventNone, out.Event)
	assert.Equal(t, "Ada Lovelace", in.Name)
	assert.Equal(t, []string{"https://ada.dev"}, in.Contact.Websites)
	assert.Empty(t, in.Contact.Secondary.Notes)
	require.NotNil(t, in.Contact.LastSyncedAt)
	assert.True(t, in.Contact.LastSyncedAt.Equal(testNow))

	// The created row does not alias the Google record.
	in.Contact.Emails[0] = "changed@x.com"
	assert.Equal(t, "ada@x.com", primary.Emails[0])
}

func TestPlanForwardUpdateOverwritesAndClears(t *testing.T) {
	row := &models.Contact{
		Handle:       "page-1",
		FirstName:    "Ada",
		LastName:     "Byron",
		Organization: models.Organization{Name: "Analytical Engines"},
		Phones:       []string{"555"},
		Birthday:     date(1815, 12, 10),
	}
	primary := models.Contact{ProviderID: "people/c1", FirstName: "Ada", LastName: "Lovelace"}

	in, out := PlanForward(primary, Match{Contact: row, Kind: MatchName}, testNow)
	require.Equal(t, ActionUpdate, in.Action)
	assert.Equal(t, EventNone, out.Event)
	assert.Equal(t, "page-1", in.Handle)
	assert.Equal(t, MatchName, in.Kind)

	p := in.Patch
	assert.Equal(t, models.FieldSet, p.ProviderID.Op)
	assert.Equal(t, models.FieldSet, p.LastName.Op)
	assert.Equal(t, models.FieldClear, p.Organization.Op)
	assert.Equal(t, models.FieldClear, p.Phones.Op)
	assert.Equal(t, models.FieldClear, p.Birthday.Op)
	assert.Equal(t, models.FieldSet, p.LastSyncedAt.Op)

	assert.ElementsMatch(t, []string{"provider_id", "last_name", "organization", "phones", "birthday"}, in.Changes)
}

func TestForwardPatchNeverClearsProviderID(t *testing.T) {
	p := forwardPatch(models.Contact{FirstName: "Ada"}, testNow)
	assert.Equal(t, models.FieldKeep, p.ProviderID.Op)
}

func TestForwardPatchLeavesSecondaryFields(t *testing.T) {
	last := civil.Date{Year: 2026, Month: 1, Day: 2}
	row := models.Contact{
		Handle:    "page-1",
		FirstName: "Ada",
		Secondary: models.SecondaryFields{
			Tags:            []string{"math"},
			Notes:           "met at the salon",
			LastContactedAt: &last,
			HideBirthday:    true,
		},
	}
	before := row.Secondary

	in, _ := PlanForward(models.Contact{FirstName: "Ada", LastName: "Lovelace"}, Match{Contact: &row, Kind: MatchName}, testNow)
	in.Patch.Apply(&row)

	assert.Equal(t, before, row.Secondary)
	assert.Equal(t, "Lovelace", row.LastName)
}

func TestPlanForwardExcluded(t *testing.T) {
	primary := models.Contact{FirstName: "Secret", ExcludeFromSync: true}

	in, out := PlanForward(primary, Match{}, testNow)
	assert.Equal(t, ActionNone, in.Action)
	assert.Equal(t, EventExcluded, out.Event)

	row := &models.Contact{Handle: "page-9", FirstName: "Secret"}
	in, out = PlanForward(primary, Match{Contact: row, Kind: MatchName}, testNow)
	assert.Equal(t, ActionNone, in.Action)
	assert.Equal(t, EventExcluded, out.Event)
}

func TestPlanForwardMissingHandle(t *testing.T) {
	row := &models.Contact{FirstName: "Ada"}
	in, out := PlanForward(models.Contact{FirstName: "Ada"}, Match{Contact: row, Kind: MatchName}, testNow)
	assert.Equal(t, ActionNone, in.Action)
	assert.Equal(t, EventFailed, out.Event)
	assert.True(t, errors.Is(out.Err, ErrDataIntegrity))
}

func TestPlanReverse(t *testing.T) {
	tests := []struct {
		name   string
		row    models.Contact
		ok     bool
		action Action
		event  Event
	}{
		{"unlinked", models.Contact{Handle: "p", FirstName: "Hand Made", Secondary: models.SecondaryFields{HideBirthday: true}}, true, ActionNone, EventUnlinked},
		{"linked visible", models.Contact{Handle: "p", ProviderID: "people/c1"}, false, ActionNone, EventNone},
		{"linked hidden", models.Contact{Handle: "p", ProviderID: "people/c1", Secondary: models.SecondaryFields{HideBirthday: true}}, true, ActionRetractBirthday, EventNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, out, ok := PlanReverse(tt.row)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.action, in.Action)
			assert.Equal(t, tt.event, out.Event)
			if in.Action == ActionRetractBirthday {
				assert.Equal(t, "people/c1", in.ProviderID)
			}
		})
	}
}
