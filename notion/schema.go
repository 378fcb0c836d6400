// ABOUTME: Column names and types of the contacts database
// ABOUTME: Shared columns mirror Google; Notion-only columns are never written by sync
package notion

// Property names.
const (
	PropFirstName      = "First Name"
	PropLastName       = "Last Name"
	PropCompany        = "Company"
	PropJobTitle       = "Job Title"
	PropDepartment     = "Department"
	PropPrimaryEmail   = "Primary Email"
	PropSecondaryEmail = "Secondary Email"
	PropPrimaryPhone   = "Primary Phone"
	PropSecondaryPhone = "Secondary Phone"
	PropBirthday       = "Birthday"
	PropAddress        = "Address"
	PropWebsite        = "Website"

	PropHideBirthday  = "Hide Birthday"
	PropTags          = "Tags"
	PropNotes         = "Notes"
	PropLastContacted = "Last Contacted"

	PropGoogleID   = "Google ID"
	PropLastSynced = "Last Synced"
)

// Property types.
const (
	TypeTitle       = "title"
	TypeRichText    = "rich_text"
	TypeEmail       = "email"
	TypePhoneNumber = "phone_number"
	TypeDate        = "date"
	TypeURL         = "url"
	TypeCheckbox    = "checkbox"
	TypeMultiSelect = "multi_select"
)

// Column is one expected database property.
type Column struct {
	Name string
	Type string
	// NotionOnly columns belong to the user and are never written by sync.
	NotionOnly bool
}

// Schema lists the expected columns in display order.
var Schema = []Column{
	{Name: PropFirstName, Type: TypeTitle},
	{Name: PropLastName, Type: TypeRichText},
	{Name: PropCompany, Type: TypeRichText},
	{Name: PropJobTitle, Type: TypeRichText},
	{Name: PropDepartment, Type: TypeRichText},
	{Name: PropPrimaryEmail, Type: TypeEmail},
	{Name: PropSecondaryEmail, Type: TypeEmail},
	{Name: PropPrimaryPhone, Type: TypePhoneNumber},
	{Name: PropSecondaryPhone, Type: TypePhoneNumber},
	{Name: PropBirthday, Type: TypeDate},
	{Name: PropAddress, Type: TypeRichText},
	{Name: PropWebsite, Type: TypeURL},
	{Name: PropHideBirthday, Type: TypeCheckbox, NotionOnly: true},
	{Name: PropTags, Type: TypeMultiSelect, NotionOnly: true},
	{Name: PropNotes, Type: TypeRichText, NotionOnly: true},
	{Name: PropLastContacted, Type: TypeDate, NotionOnly: true},
	{Name: PropGoogleID, Type: TypeRichText},
	{Name: PropLastSynced, Type: TypeDate},
}

// definition is the create payload for a column of type t.
func definition(t string) map[string]any {
	if t == TypeMultiSelect {
		return map[string]any{t: map[string]any{"options": []any{}}}
	}
	return map[string]any{t: map[string]any{}}
}
