// ABOUTME: Tests for contact matching and key normalization
// ABOUTME: Covers tier precedence, in-tier tie-break, and ambiguity reporting
package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contactsync/models"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Alice@Example.com", "alice@example.com"},
		{"alice.smith@example.com", "alice.smith@example.com"},
		{"ALICE@EXAMPLE.COM", "alice@example.com"},
		{"  bob+work@example.com ", "bob+work@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		result := NormalizeEmail(tt.input)
		if result != tt.expected {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"+1 (555) 010-2030", "15550102030"},
		{"555.010.2030", "5550102030"},
		{"ext", ""},
		{"٣٣٣", ""},
	}

	for _, tt := range tests {
		if got := NormalizePhone(tt.input); got != tt.expected {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNameKey(t *testing.T) {
	assert.Equal(t, "ada-lovelace", NameKey("Ada", "LOVELACE"))
	assert.Equal(t, "cher-", NameKey("Cher", ""))
	assert.Equal(t, "", NameKey("", "Lovelace"))
}

func TestMatchContactByEmail(t *testing.T) {
	existing := []models.Contact{
		{Handle: "p1", FirstName: "Alice", Emails: []string{"alice@example.com"}},
		{Handle: "p2", FirstName: "Bob", Emails: []string{"bob@example.com"}},
	}
	ix := BuildIndex(existing)

	m := FindMatch(&models.Contact{FirstName: "Someone", Emails: []string{"ALICE@example.com"}}, ix)
	require.True(t, m.Found(), "expected to find match for alice@example.com")
	assert.Equal(t, "p1", m.Contact.Handle)
	assert.Equal(t, MatchEmail, m.Kind)

	m = FindMatch(&models.Contact{FirstName: "Charlie", Emails: []string{"charlie@example.com"}}, ix)
	assert.False(t, m.Found(), "expected no match for charlie@example.com")
	assert.Equal(t, MatchNone, m.Kind)
}

func TestMatchPrecedence(t *testing.T) {
	// Three rows would match on name, one on provider ID. The ID wins.
	existing := []models.Contact{
		{Handle: "n1", FirstName: "Ada", LastName: "Lovelace"},
		{Handle: "n2", FirstName: "Ada", LastName: "Lovelace"},
		{Handle: "id", ProviderID: "people/c1", FirstName: "Augusta"},
		{Handle: "n3", FirstName: "ada", LastName: "lovelace", Emails: []string{"ada@x.com"}},
	}
	ix := BuildIndex(existing)

	primary := &models.Contact{ProviderID: "people/c1", FirstName: "Ada", LastName: "Lovelace", Emails: []string{"ada@x.com"}}
	m := FindMatch(primary, ix)
	require.True(t, m.Found())
	assert.Equal(t, "id", m.Contact.Handle)
	assert.Equal(t, MatchProviderID, m.Kind)
	assert.False(t, m.Ambiguous)

	// Without the ID, email beats name.
	primary.ProviderID = ""
	m = FindMatch(primary, ix)
	assert.Equal(t, "n3", m.Contact.Handle)
	assert.Equal(t, MatchEmail, m.Kind)

	// Without email, name matches and is ambiguous across three rows.
	primary.Emails = nil
	m = FindMatch(primary, ix)
	assert.Equal(t, MatchName, m.Kind)
	assert.True(t, m.Ambiguous)
	assert.Equal(t, "n3", m.Contact.Handle, "last enumerated row wins")
}

func TestMatchPhoneTier(t *testing.T) {
	ix := BuildIndex([]models.Contact{
		{Handle: "p", FirstName: "Grace", Phones: []string{"+1 555 010 2030"}},
	})
	m := FindMatch(&models.Contact{FirstName: "G", Phones: []string{"(1) 555-010-2030"}}, ix)
	require.True(t, m.Found())
	assert.Equal(t, MatchPhone, m.Kind)
}

func TestFirstHitFollowsGoogleFieldOrder(t *testing.T) {
	ix := BuildIndex([]models.Contact{
		{Handle: "work", FirstName: "W", Emails: []string{"ada@work.com"}},
		{Handle: "home", FirstName: "H", Emails: []string{"ada@home.com"}},
	})

	m := FindMatch(&models.Contact{FirstName: "Ada", Emails: []string{"ada@home.com", "ada@work.com"}}, ix)
	assert.Equal(t, "home", m.Contact.Handle)
	assert.False(t, m.Ambiguous)

	m = FindMatch(&models.Contact{FirstName: "Ada", Emails: []string{"nobody@x.com", "ada@work.com"}}, ix)
	assert.Equal(t, "work", m.Contact.Handle)
}

func TestMatchNameRequiresFirstName(t *testing.T) {
	ix := BuildIndex([]models.Contact{{Handle: "p", LastName: "Lovelace"}})
	m := FindMatch(&models.Contact{LastName: "Lovelace"}, ix)
	assert.False(t, m.Found())
}
