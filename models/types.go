// ABOUTME: Canonical contact model shared by the Google and Notion sides of a sync
// ABOUTME: Defines Contact, its organization/address parts, and the Notion-only fields
package models

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Organization is the employer block of a contact.
type Organization struct {
	Name       string `json:"name,omitempty"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
}

// IsZero reports whether no organization field is populated.
func (o Organization) IsZero() bool {
	return o.Name == "" && o.Title == "" && o.Department == ""
}

// Address is a postal address. Formatted wins over the structured parts when set.
type Address struct {
	Formatted  string `json:"formatted,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// String renders the address on a single line.
func (a Address) String() string {
	if f := strings.TrimSpace(a.Formatted); f != "" {
		return f
	}
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.Region, a.PostalCode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// IsZero reports whether the address renders to nothing.
func (a Address) IsZero() bool {
	return a.String() == ""
}

// SecondaryFields only exist in the Notion database. Google never sees them and
// nothing read from Google may overwrite them.
type SecondaryFields struct {
	Tags            []string    `json:"tags,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	LastContactedAt *civil.Date `json:"last_contacted_at,omitempty"`
	HideBirthday    bool        `json:"hide_birthday"`
}

// Contact is the provider-agnostic record used during reconciliation.
type Contact struct {
	// Handle is the Notion page ID. Only set on records read from Notion.
	Handle string `json:"handle,omitempty"`
	// ProviderID is the Google People resourceName (people/c123). Empty on
	// rows created by hand in Notion.
	ProviderID string `json:"provider_id,omitempty"`

	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name,omitempty"`
	Organization Organization `json:"organization"`
	Emails       []string     `json:"emails,omitempty"`
	Phones       []string     `json:"phones,omitempty"`
	Websites     []string     `json:"websites,omitempty"`
	Birthday     *civil.Date  `json:"birthday,omitempty"`
	Address      *Address     `json:"address,omitempty"`

	Secondary SecondaryFields `json:"secondary"`

	ExcludeFromSync bool       `json:"exclude_from_sync,omitempty"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`
}

// FullName joins first and last name.
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Linked reports whether the record carries a Google resourceName.
func (c *Contact) Linked() bool {
	return c.ProviderID != ""
}

// PrimaryEmail returns the first email, or "".
func (c *Contact) PrimaryEmail() string {
	return At(c.Emails, 0)
}

// PrimaryPhone returns the first phone, or "".
func (c *Contact) PrimaryPhone() string {
	return At(c.Phones, 0)
}

// At returns values[i] or "" when out of range.
func At(values []string, i int) string {
	if i < 0 || i >= len(values) {
		return ""
	}
	return values[i]
}
