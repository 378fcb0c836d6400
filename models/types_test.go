// ABOUTME: Tests for the canonical contact model
// ABOUTME: Covers address rendering, name helpers, and tagged patch fields
package models

import (
	"testing"

	"cloud.google.com/go/civil"
)

func TestAddressString(t *testing.T) {
	tests := []struct {
		name     string
		addr     Address
		expected string
	}{
		{"formatted wins", Address{Formatted: "1 Main St, Springfield", City: "Ignored"}, "1 Main St, Springfield"},
		{"structured parts", Address{Street: "1 Main St", City: "Springfield", Country: "US"}, "1 Main St, Springfield, US"},
		{"blank parts skipped", Address{Street: "  ", City: "Springfield"}, "Springfield"},
		{"empty", Address{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.addr.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}

	if !(Address{Street: " "}).IsZero() {
		t.Error("expected whitespace-only address to be zero")
	}
}

func TestContactHelpers(t *testing.T) {
	c := Contact{FirstName: "Ada", Emails: []string{"ada@x.com", "ada@y.com"}}

	if c.FullName() != "Ada" {
		t.Errorf("expected trimmed full name, got %q", c.FullName())
	}
	if c.PrimaryEmail() != "ada@x.com" {
		t.Errorf("expected primary email ada@x.com, got %q", c.PrimaryEmail())
	}
	if c.PrimaryPhone() != "" {
		t.Errorf("expected empty primary phone, got %q", c.PrimaryPhone())
	}
	if c.Linked() {
		t.Error("contact without provider ID should not be linked")
	}
	if At(c.Emails, -1) != "" || At(c.Emails, 2) != "" {
		t.Error("At should return empty string out of range")
	}
}

func TestFieldOps(t *testing.T) {
	var keep Field[string]
	if keep.Touched() {
		t.Error("zero field should be keep")
	}

	set := Set("Acme")
	if v, ok := set.Get(); !ok || v != "Acme" {
		t.Errorf("Set().Get() = %q, %v", v, ok)
	}

	cleared := Clear[civil.Date]()
	if _, ok := cleared.Get(); ok {
		t.Error("cleared field should not report a value")
	}
	if cleared.Op.String() != "clear" {
		t.Errorf("expected op name clear, got %s", cleared.Op)
	}
}

func TestContactPatchTouched(t *testing.T) {
	p := ContactPatch{
		FirstName: Set("Ada"),
		Birthday:  Clear[civil.Date](),
	}

	got := p.Touched()
	if len(got) != 2 || got[0] != "first_name" || got[1] != "birthday" {
		t.Errorf("unexpected touched fields: %v", got)
	}
}

func TestContactPatchApplyLeavesSecondaryFields(t *testing.T) {
	bday := civil.Date{Year: 1815, Month: 12, Day: 10}
	c := Contact{
		FirstName: "Ada",
		LastName:  "Byron",
		Emails:    []string{"old@x.com"},
		Birthday:  &bday,
		Secondary: SecondaryFields{Tags: []string{"math"}, Notes: "first programmer", HideBirthday: true},
	}

	p := ContactPatch{
		LastName: Set("Lovelace"),
		Emails:   Set([]string{"ada@x.com"}),
		Birthday: Clear[civil.Date](),
	}
	p.Apply(&c)

	if c.FirstName != "Ada" {
		t.Errorf("kept field changed: %q", c.FirstName)
	}
	if c.LastName != "Lovelace" {
		t.Errorf("expected Lovelace, got %q", c.LastName)
	}
	if len(c.Emails) != 1 || c.Emails[0] != "ada@x.com" {
		t.Errorf("unexpected emails %v", c.Emails)
	}
	if c.Birthday != nil {
		t.Errorf("birthday should be cleared, got %v", c.Birthday)
	}
	if c.Secondary.Notes != "first programmer" || !c.Secondary.HideBirthday || len(c.Secondary.Tags) != 1 {
		t.Errorf("secondary fields changed: %+v", c.Secondary)
	}
}
