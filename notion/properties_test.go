// ABOUTME: Tests for converting between Notion properties and contacts
// ABOUTME: Covers create payloads, patches, and text chunking
package notion

import (
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contactsync/models"
)

const samplePage = `{
  "id": "page-1",
  "properties": {
    "First Name": {"type": "title", "title": [{"plain_text": "Ada"}]},
    "Last Name": {"type": "rich_text", "rich_text": [{"plain_text": "Love"}, {"plain_text": "lace"}]},
    "Company": {"type": "rich_text", "rich_text": [{"plain_text": "Analytical Engines"}]},
    "Primary Email": {"type": "email", "email": "ada@x.com"},
    "Secondary Email": {"type": "email", "email": null},
    "Primary Phone": {"type": "phone_number", "phone_number": "+44 20 7946 0000"},
    "Birthday": {"type": "date", "date": {"start": "1815-12-10"}},
    "Address": {"type": "rich_text", "rich_text": [{"plain_text": "London"}]},
    "Website": {"type": "url", "url": "https://ada.dev"},
    "Hide Birthday": {"type": "checkbox", "checkbox": true},
    "Tags": {"type": "multi_select", "multi_select": [{"name": "math"}, {"name": "vip"}]},
    "Notes": {"type": "rich_text", "rich_text": [{"plain_text": "met at the salon"}]},
    "Last Contacted": {"type": "date", "date": {"start": "2026-01-02T10:00:00.000Z"}},
    "Google ID": {"type": "rich_text", "rich_text": [{"plain_text": "people/c1"}]},
    "Last Synced": {"type": "date", "date": {"start": "2026-10-17T12:00:00Z"}}
  }
}`

func TestContactFromPage(t *testing.T) {
	var page Page
	require.NoError(t, json.Unmarshal([]byte(samplePage), &page))

	got := ContactFromPage(page)
	synced := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	want := models.Contact{
		Handle:       "page-1",
		ProviderID:   "people/c1",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Organization: models.Organization{Name: "Analytical Engines"},
		Emails:       []string{"ada@x.com"},
		Phones:       []string{"+44 20 7946 0000"},
		Websites:     []string{"https://ada.dev"},
		Birthday:     &civil.Date{Year: 1815, Month: time.December, Day: 10},
		Address:      &models.Address{Formatted: "London"},
		Secondary: models.SecondaryFields{
			Tags:            []string{"math", "vip"},
			Notes:           "met at the salon",
			LastContactedAt: &civil.Date{Year: 2026, Month: time.January, Day: 2},
			HideBirthday:    true,
		},
		LastSyncedAt: &synced,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ContactFromPage mismatch (-want +got):\n%s", diff)
	}
}

func TestContactFromEmptyPage(t *testing.T) {
	c := ContactFromPage(Page{ID: "p"})
	assert.Equal(t, "p", c.Handle)
	assert.False(t, c.Linked())
	assert.Nil(t, c.Emails)
	assert.Nil(t, c.Birthday)
}

func TestCreatePropertiesSkipsNotionOnlyColumns(t *testing.T) {
	props := CreateProperties(models.Contact{
		ProviderID: "people/c1",
		FirstName:  "Ada",
		Emails:     []string{"ada@x.com", "ada@work.com", "third@x.com"},
		Secondary:  models.SecondaryFields{Notes: "ignored", HideBirthday: true},
	})

	for _, col := range Schema {
		if col.NotionOnly {
			assert.NotContains(t, props, col.Name)
		}
	}
	assert.Equal(t, map[string]any{TypeEmail: "ada@work.com"}, props[PropSecondaryEmail])
	assert.Equal(t, map[string]any{TypePhoneNumber: nil}, props[PropPrimaryPhone])
	assert.NotContains(t, props, PropLastSynced)
}

func TestPatchPropertiesOnlyTouchedFields(t *testing.T) {
	props := PatchProperties(models.ContactPatch{
		LastName: models.Set("Lovelace"),
		Phones:   models.Clear[[]string](),
		Birthday: models.Clear[civil.Date](),
	})

	assert.Len(t, props, 4)
	assert.Contains(t, props, PropLastName)
	assert.NotContains(t, props, PropFirstName)
	assert.NotContains(t, props, PropGoogleID)

	raw, err := json.Marshal(props)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Primary Phone":{"phone_number":null}`)
	assert.Contains(t, string(raw), `"Secondary Phone":{"phone_number":null}`)
	assert.Contains(t, string(raw), `"Birthday":{"date":null}`)
}

func TestPatchPropertiesClearedTextIsEmptyArray(t *testing.T) {
	props := PatchProperties(models.ContactPatch{Organization: models.Clear[models.Organization]()})
	raw, err := json.Marshal(props)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Company":{"rich_text":[]}`)
}

func TestTextSegmentsSplitsLongText(t *testing.T) {
	long := make([]byte, maxTextLen+10)
	for i := range long {
		long[i] = 'a'
	}
	segments := textSegments(string(long))
	require.Len(t, segments, 2)
	assert.Len(t, segments[1]["text"].(map[string]any)["content"], 10)
}
