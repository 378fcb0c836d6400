// ABOUTME: Contact matching across Google and Notion
// ABOUTME: Walks identity tiers in precedence order and returns the first hit
package sync

import (
	"github.com/harperreed/contactsync/models"
)

// Match is the Notion counterpart chosen for one Google contact.
type Match struct {
	Contact *models.Contact
	Kind    MatchKind
	// Ambiguous is set when several Notion rows shared the winning key.
	Ambiguous bool
}

// Found reports whether a counterpart was chosen.
func (m Match) Found() bool {
	return m.Contact != nil
}

// FindMatch looks up the Notion row for contact. Tiers are tried in order
// (provider ID, email, phone, name) and an earlier tier always beats a later
// one, no matter how many rows the later tier would match.
func FindMatch(contact *models.Contact, ix *Index) Match {
	for _, kind := range MatchKinds {
		candidates, ok := firstHit(ix.table(kind), lookupKeys(contact, kind))
		if !ok {
			continue
		}
		row, ambiguous := pickIndexed(candidates)
		return Match{Contact: row, Kind: kind, Ambiguous: ambiguous}
	}
	return Match{Kind: MatchNone}
}

// lookupKeys returns the normalized keys of contact for one tier, in the
// contact's own field order.
func lookupKeys(contact *models.Contact, kind MatchKind) []string {
	var keys []string
	switch kind {
	case MatchProviderID:
		if contact.ProviderID != "" {
			keys = append(keys, contact.ProviderID)
		}
	case MatchEmail:
		for _, email := range contact.Emails {
			if key := NormalizeEmail(email); key != "" {
				keys = append(keys, key)
			}
		}
	case MatchPhone:
		for _, phone := range contact.Phones {
			if key := NormalizePhone(phone); key != "" {
				keys = append(keys, key)
			}
		}
	case MatchName:
		if key := NameKey(contact.FirstName, contact.LastName); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// firstHit is the tie-break within a tier: the first key, in the Google
// contact's field order, that exists in the table wins. Later keys are not
// consulted even when they point at a different row.
func firstHit(table map[string][]*models.Contact, keys []string) ([]*models.Contact, bool) {
	for _, key := range keys {
		if rows := table[key]; len(rows) > 0 {
			return rows, true
		}
	}
	return nil, false
}
