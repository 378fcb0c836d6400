// ABOUTME: Identity index over a Notion snapshot
// ABOUTME: Keys rows by Google ID, email, digits-only phone, and lowercased name
package sync

import (
	"strings"

	"github.com/harperreed/contactsync/models"
)

// MatchKind is the identity tier that paired two records.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchProviderID
	MatchEmail
	MatchPhone
	MatchName
)

// MatchKinds lists the tiers in precedence order.
var MatchKinds = []MatchKind{MatchProviderID, MatchEmail, MatchPhone, MatchName}

func (k MatchKind) String() string {
	switch k {
	case MatchProviderID:
		return "provider_id"
	case MatchEmail:
		return "email"
	case MatchPhone:
		return "phone"
	case MatchName:
		return "name"
	default:
		return "none"
	}
}

// Index is a read-only lookup over one snapshot. Every key maps to all rows
// that produced it, in enumeration order.
type Index struct {
	byProviderID map[string][]*models.Contact
	byEmail      map[string][]*models.Contact
	byPhone      map[string][]*models.Contact
	byName       map[string][]*models.Contact
	size         int
}

// BuildIndex indexes contacts. The slice must not be mutated while the index is in use.
func BuildIndex(contacts []models.Contact) *Index {
	ix := &Index{
		byProviderID: make(map[string][]*models.Contact),
		byEmail:      make(map[string][]*models.Contact),
		byPhone:      make(map[string][]*models.Contact),
		byName:       make(map[string][]*models.Contact),
		size:         len(contacts),
	}

	for i := range contacts {
		c := &contacts[i]
		if c.ProviderID != "" {
			insert(ix.byProviderID, c.ProviderID, c)
		}
		for _, email := range c.Emails {
			if key := NormalizeEmail(email); key != "" {
				insert(ix.byEmail, key, c)
			}
		}
		for _, phone := range c.Phones {
			if key := NormalizePhone(phone); key != "" {
				insert(ix.byPhone, key, c)
			}
		}
		if key := NameKey(c.FirstName, c.LastName); key != "" {
			insert(ix.byName, key, c)
		}
	}

	return ix
}

func insert(table map[string][]*models.Contact, key string, c *models.Contact) {
	existing := table[key]
	// A row listing the same email twice still occupies the key once.
	if n := len(existing); n > 0 && existing[n-1] == c {
		return
	}
	table[key] = append(existing, c)
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int {
	return ix.size
}

// DuplicateProviderIDs returns every Google ID held by more than one row,
// in first-seen order of the rows.
func (ix *Index) DuplicateProviderIDs() map[string][]*models.Contact {
	dups := make(map[string][]*models.Contact)
	for id, rows := range ix.byProviderID {
		if len(rows) > 1 {
			dups[id] = rows
		}
	}
	return dups
}

func (ix *Index) table(kind MatchKind) map[string][]*models.Contact {
	switch kind {
	case MatchProviderID:
		return ix.byProviderID
	case MatchEmail:
		return ix.byEmail
	case MatchPhone:
		return ix.byPhone
	case MatchName:
		return ix.byName
	default:
		return nil
	}
}

// pickIndexed resolves a key shared by several rows: the row enumerated last
// wins. The second result reports whether distinct rows competed for the key.
func pickIndexed(candidates []*models.Contact) (*models.Contact, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	return candidates[len(candidates)-1], len(candidates) > 1
}

// NormalizeEmail lowercases and trims an email. Aliases (+tag) are kept as-is.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NameKey builds lower(first)-lower(last). A row without a first name has no key.
func NameKey(first, last string) string {
	first = strings.ToLower(strings.TrimSpace(first))
	if first == "" {
		return ""
	}
	return first + "-" + strings.ToLower(strings.TrimSpace(last))
}
