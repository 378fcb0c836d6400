// ABOUTME: Tagged update payload for writing shared contact fields
// ABOUTME: Distinguishes "leave untouched" from "clear" from "set" per field
package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// FieldOp says what an update does to one field.
type FieldOp uint8

const (
	// FieldKeep leaves the stored value untouched. It is the zero value.
	FieldKeep FieldOp = iota
	// FieldSet overwrites the stored value.
	FieldSet
	// FieldClear empties the stored value.
	FieldClear
)

func (op FieldOp) String() string {
	switch op {
	case FieldSet:
		return "set"
	case FieldClear:
		return "clear"
	default:
		return "keep"
	}
}

// Field is one tagged slot of an update.
type Field[T any] struct {
	Op    FieldOp
	Value T
}

// Set returns a field that overwrites the stored value with v.
func Set[T any](v T) Field[T] {
	return Field[T]{Op: FieldSet, Value: v}
}

// Clear returns a field that empties the stored value.
func Clear[T any]() Field[T] {
	return Field[T]{Op: FieldClear}
}

// Get returns the value and true when the op is FieldSet.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.Op == FieldSet
}

// Touched reports whether the field is set or cleared.
func (f Field[T]) Touched() bool {
	return f.Op != FieldKeep
}

// ContactPatch updates the shared fields of an existing Notion row.
// It has no slot for SecondaryFields, so an update can never touch them.
type ContactPatch struct {
	ProviderID   Field[string]
	FirstName    Field[string]
	LastName     Field[string]
	Organization Field[Organization]
	Emails       Field[[]string]
	Phones       Field[[]string]
	Websites     Field[[]string]
	Birthday     Field[civil.Date]
	Address      Field[Address]
	LastSyncedAt Field[time.Time]
}

// Touched lists the names of fields the patch sets or clears.
func (p ContactPatch) Touched() []string {
	var names []string
	add := func(name string, touched bool) {
		if touched {
			names = append(names, name)
		}
	}
	add("provider_id", p.ProviderID.Touched())
	add("first_name", p.FirstName.Touched())
	add("last_name", p.LastName.Touched())
	add("organization", p.Organization.Touched())
	add("emails", p.Emails.Touched())
	add("phones", p.Phones.Touched())
	add("websites", p.Websites.Touched())
	add("birthday", p.Birthday.Touched())
	add("address", p.Address.Touched())
	add("last_synced_at", p.LastSyncedAt.Touched())
	return names
}

// Apply writes the patch onto c. Secondary fields are left as they are.
func (p ContactPatch) Apply(c *Contact) {
	applyValue(&c.ProviderID, p.ProviderID)
	applyValue(&c.FirstName, p.FirstName)
	applyValue(&c.LastName, p.LastName)
	applyValue(&c.Organization, p.Organization)
	applyValue(&c.Emails, p.Emails)
	applyValue(&c.Phones, p.Phones)
	applyValue(&c.Websites, p.Websites)
	applyPointer(&c.Birthday, p.Birthday)
	applyPointer(&c.Address, p.Address)
	applyPointer(&c.LastSyncedAt, p.LastSyncedAt)
}

func applyValue[T any](dst *T, f Field[T]) {
	switch f.Op {
	case FieldSet:
		*dst = f.Value
	case FieldClear:
		var zero T
		*dst = zero
	}
}

func applyPointer[T any](dst **T, f Field[T]) {
	switch f.Op {
	case FieldSet:
		v := f.Value
		*dst = &v
	case FieldClear:
		*dst = nil
	}
}
