// ABOUTME: Converts between Notion page properties and canonical contacts
// ABOUTME: Writes only shared columns; empty values are sent as explicit nulls
package notion

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/harperreed/contactsync/models"
)

// maxTextLen is Notion's limit for one rich text segment.
const maxTextLen = 2000

// ContactFromPage reads a page into a canonical contact. Missing or
// mistyped properties read as empty.
func ContactFromPage(page Page) models.Contact {
	props := page.Properties
	c := models.Contact{
		Handle:     page.ID,
		ProviderID: richText(props[PropGoogleID]),
		FirstName:  plain(props[PropFirstName].Title),
		LastName:   richText(props[PropLastName]),
		Organization: models.Organization{
			Name:       richText(props[PropCompany]),
			Title:      richText(props[PropJobTitle]),
			Department: richText(props[PropDepartment]),
		},
		Emails:    nonEmpty(str(props[PropPrimaryEmail].Email), str(props[PropSecondaryEmail].Email)),
		Phones:    nonEmpty(str(props[PropPrimaryPhone].PhoneNumber), str(props[PropSecondaryPhone].PhoneNumber)),
		Websites:  nonEmpty(str(props[PropWebsite].URL)),
		Birthday:  dateOf(props[PropBirthday]),
		Secondary: models.SecondaryFields{
			Notes:           richText(props[PropNotes]),
			LastContactedAt: dateOf(props[PropLastContacted]),
			HideBirthday:    props[PropHideBirthday].Checkbox,
		},
	}

	if addr := richText(props[PropAddress]); addr != "" {
		c.Address = &models.Address{Formatted: addr}
	}
	for _, opt := range props[PropTags].MultiSelect {
		c.Secondary.Tags = append(c.Secondary.Tags, opt.Name)
	}
	if synced := props[PropLastSynced].Date; synced != nil {
		if t, ok := parseTimestamp(synced.Start); ok {
			c.LastSyncedAt = &t
		}
	}

	return c
}

// CreateProperties builds the properties of a new row. Notion-only columns
// are left for Notion to default.
func CreateProperties(c models.Contact) map[string]any {
	props := map[string]any{
		PropFirstName:      titleValue(c.FirstName),
		PropLastName:       richTextValue(c.LastName),
		PropCompany:        richTextValue(c.Organization.Name),
		PropJobTitle:       richTextValue(c.Organization.Title),
		PropDepartment:     richTextValue(c.Organization.Department),
		PropPrimaryEmail:   emailValue(models.At(c.Emails, 0)),
		PropSecondaryEmail: emailValue(models.At(c.Emails, 1)),
		PropPrimaryPhone:   phoneValue(models.At(c.Phones, 0)),
		PropSecondaryPhone: phoneValue(models.At(c.Phones, 1)),
		PropBirthday:       dateValue(c.Birthday),
		PropAddress:        richTextValue(addressText(c.Address)),
		PropWebsite:        urlValue(models.At(c.Websites, 0)),
		PropGoogleID:       richTextValue(c.ProviderID),
	}
	if c.LastSyncedAt != nil {
		props[PropLastSynced] = timestampValue(*c.LastSyncedAt)
	}
	return props
}

// PatchProperties builds the properties for an update. Only touched fields
// appear; cleared fields are sent as empty values.
func PatchProperties(p models.ContactPatch) map[string]any {
	props := map[string]any{}

	if p.ProviderID.Touched() {
		props[PropGoogleID] = richTextValue(p.ProviderID.Value)
	}
	if p.FirstName.Touched() {
		props[PropFirstName] = titleValue(p.FirstName.Value)
	}
	if p.LastName.Touched() {
		props[PropLastName] = richTextValue(p.LastName.Value)
	}
	if p.Organization.Touched() {
		org := p.Organization.Value
		props[PropCompany] = richTextValue(org.Name)
		props[PropJobTitle] = richTextValue(org.Title)
		props[PropDepartment] = richTextValue(org.Department)
	}
	if p.Emails.Touched() {
		props[PropPrimaryEmail] = emailValue(models.At(p.Emails.Value, 0))
		props[PropSecondaryEmail] = emailValue(models.At(p.Emails.Value, 1))
	}
	if p.Phones.Touched() {
		props[PropPrimaryPhone] = phoneValue(models.At(p.Phones.Value, 0))
		props[PropSecondaryPhone] = phoneValue(models.At(p.Phones.Value, 1))
	}
	if p.Websites.Touched() {
		props[PropWebsite] = urlValue(models.At(p.Websites.Value, 0))
	}
	if p.Birthday.Touched() {
		if d, ok := p.Birthday.Get(); ok {
			props[PropBirthday] = dateValue(&d)
		} else {
			props[PropBirthday] = dateValue(nil)
		}
	}
	if p.Address.Touched() {
		if a, ok := p.Address.Get(); ok {
			props[PropAddress] = richTextValue(a.String())
		} else {
			props[PropAddress] = richTextValue("")
		}
	}
	if t, ok := p.LastSyncedAt.Get(); ok {
		props[PropLastSynced] = timestampValue(t)
	}

	return props
}

func plain(segments []RichText) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.PlainText)
	}
	return strings.TrimSpace(b.String())
}

func richText(p Property) string {
	return plain(p.RichText)
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func dateOf(p Property) *civil.Date {
	if p.Date == nil || p.Date.Start == "" {
		return nil
	}
	start := p.Date.Start
	if len(start) > 10 {
		start = start[:10]
	}
	d, err := civil.ParseDate(start)
	if err != nil {
		return nil
	}
	return &d
}

func parseTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if d, err := civil.ParseDate(s); err == nil {
		return d.In(time.UTC), true
	}
	return time.Time{}, false
}

func addressText(a *models.Address) string {
	if a == nil {
		return ""
	}
	return a.String()
}

func textSegments(s string) []map[string]any {
	segments := []map[string]any{}
	for len(s) > 0 {
		n := min(len(s), maxTextLen)
		// Do not split a multi-byte rune.
		for n < len(s) && n > 0 && !utf8Start(s[n]) {
			n--
		}
		segments = append(segments, map[string]any{"text": map[string]any{"content": s[:n]}})
		s = s[n:]
	}
	return segments
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}

func titleValue(s string) map[string]any {
	return map[string]any{TypeTitle: textSegments(s)}
}

func richTextValue(s string) map[string]any {
	return map[string]any{TypeRichText: textSegments(s)}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func emailValue(s string) map[string]any {
	return map[string]any{TypeEmail: nullable(s)}
}

func phoneValue(s string) map[string]any {
	return map[string]any{TypePhoneNumber: nullable(s)}
}

func urlValue(s string) map[string]any {
	return map[string]any{TypeURL: nullable(s)}
}

func dateValue(d *civil.Date) map[string]any {
	if d == nil {
		return map[string]any{TypeDate: nil}
	}
	return map[string]any{TypeDate: map[string]any{"start": d.String()}}
}

func timestampValue(t time.Time) map[string]any {
	return map[string]any{TypeDate: map[string]any{"start": t.UTC().Format(time.RFC3339)}}
}
