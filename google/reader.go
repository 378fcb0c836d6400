// ABOUTME: Reads a full snapshot of Google contacts through the People API
// ABOUTME: Converts people to canonical contacts and flags the exclusion label
package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"google.golang.org/api/people/v1"

	"github.com/harperreed/contactsync/logging"
	"github.com/harperreed/contactsync/models"
	"github.com/harperreed/contactsync/sync"
)

const (
	provider = "google"

	// PersonFields is the field mask requested for every contact.
	PersonFields = "names,emailAddresses,phoneNumbers,birthdays,organizations,addresses,urls,memberships,metadata"

	pageSize = 1000

	// missingYear stands in for birthdays stored without a year.
	missingYear = 1900
)

// Reader enumerates every contact of the authenticated user.
type Reader struct {
	svc          *people.Service
	excludeLabel string
	retry        *retrier
}

// NewReader creates a snapshot reader. Contacts in the contact group named
// excludeLabel are flagged ExcludeFromSync.
func NewReader(svc *people.Service, excludeLabel string, limiter Limiter) *Reader {
	return &Reader{svc: svc, excludeLabel: excludeLabel, retry: newRetrier(limiter)}
}

// FetchAll pages through all connections.
func (r *Reader) FetchAll(ctx context.Context) (sync.Snapshot, error) {
	log := logging.FromContext(ctx)

	excludeGroup, err := r.resolveGroup(ctx)
	if err != nil {
		return sync.Snapshot{}, err
	}
	if excludeGroup == "" && r.excludeLabel != "" {
		log.Debug().Str("label", r.excludeLabel).Msg("exclusion label not found, nothing is excluded")
	}

	var snap sync.Snapshot
	pageToken := ""
	for {
		call := r.svc.People.Connections.List("people/me").
			PageSize(pageSize).
			PersonFields(PersonFields).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var response *people.ListConnectionsResponse
		err := r.retry.do(ctx, "list connections", func() error {
			var err error
			response, err = call.Do()
			return err
		})
		if err != nil {
			return sync.Snapshot{}, asFetchError("list connections", err)
		}

		if response == nil {
			break
		}
		for _, person := range response.Connections {
			contact, invalid := ConvertPerson(person, excludeGroup)
			if invalid != nil {
				log.Warn().Str("resource", person.ResourceName).Str("reason", invalid.Reason).Msg("skipping google contact")
				snap.Invalid = append(snap.Invalid, invalid)
				continue
			}
			snap.Contacts = append(snap.Contacts, contact)
		}

		pageToken = response.NextPageToken
		if pageToken == "" {
			break
		}
		log.Debug().Int("fetched", len(snap.Contacts)).Msg("fetching next page of google contacts")
	}

	return snap, nil
}

// resolveGroup finds the resource name of the exclusion contact group.
func (r *Reader) resolveGroup(ctx context.Context) (string, error) {
	if r.excludeLabel == "" {
		return "", nil
	}

	pageToken := ""
	for {
		call := r.svc.ContactGroups.List().PageSize(pageSize).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var response *people.ListContactGroupsResponse
		err := r.retry.do(ctx, "list contact groups", func() error {
			var err error
			response, err = call.Do()
			return err
		})
		if err != nil {
			return "", asFetchError("list contact groups", err)
		}

		for _, group := range response.ContactGroups {
			if strings.EqualFold(group.Name, r.excludeLabel) || strings.EqualFold(group.FormattedName, r.excludeLabel) {
				return group.ResourceName, nil
			}
		}

		pageToken = response.NextPageToken
		if pageToken == "" {
			return "", nil
		}
	}
}

// ConvertPerson maps a People API person to a canonical contact. A person
// without a given name, or with a birthday that is not a real date, is
// returned as a validation error instead.
func ConvertPerson(person *people.Person, excludeGroup string) (models.Contact, *sync.ValidationError) {
	contact := models.Contact{ProviderID: person.ResourceName}

	if len(person.Names) > 0 {
		contact.FirstName = strings.TrimSpace(person.Names[0].GivenName)
		contact.LastName = strings.TrimSpace(person.Names[0].FamilyName)
	}
	if contact.FirstName == "" {
		return models.Contact{}, invalid(person, "missing first name")
	}

	for _, email := range person.EmailAddresses {
		if v := strings.TrimSpace(email.Value); v != "" {
			contact.Emails = append(contact.Emails, v)
		}
	}
	for _, phone := range person.PhoneNumbers {
		if v := strings.TrimSpace(phone.Value); v != "" {
			contact.Phones = append(contact.Phones, v)
		}
	}
	for _, url := range person.Urls {
		if v := strings.TrimSpace(url.Value); v != "" {
			contact.Websites = append(contact.Websites, v)
		}
	}

	if len(person.Organizations) > 0 {
		org := person.Organizations[0]
		contact.Organization = models.Organization{Name: org.Name, Title: org.Title, Department: org.Department}
	}

	if len(person.Addresses) > 0 {
		a := person.Addresses[0]
		addr := models.Address{
			Formatted:  a.FormattedValue,
			Street:     a.StreetAddress,
			City:       a.City,
			Region:     a.Region,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		}
		if !addr.IsZero() {
			contact.Address = &addr
		}
	}

	birthday, err := convertBirthday(person.Birthdays)
	if err != nil {
		return models.Contact{}, invalid(person, err.Error())
	}
	contact.Birthday = birthday

	if excludeGroup != "" {
		for _, m := range person.Memberships {
			if m.ContactGroupMembership != nil && m.ContactGroupMembership.ContactGroupResourceName == excludeGroup {
				contact.ExcludeFromSync = true
				break
			}
		}
	}

	return contact, nil
}

// convertBirthday reads the first birthday carrying a date. Month or day
// missing means no birthday; a missing year becomes 1900.
func convertBirthday(birthdays []*people.Birthday) (*civil.Date, error) {
	for _, b := range birthdays {
		if b == nil || b.Date == nil {
			continue
		}
		if b.Date.Month == 0 || b.Date.Day == 0 {
			return nil, nil
		}
		year := int(b.Date.Year)
		if year == 0 {
			year = missingYear
		}
		d := civil.Date{Year: year, Month: monthOf(b.Date.Month), Day: int(b.Date.Day)}
		if !d.IsValid() {
			return nil, fmt.Errorf("invalid birthday %04d-%02d-%02d", year, b.Date.Month, b.Date.Day)
		}
		return &d, nil
	}
	return nil, nil
}

func invalid(person *people.Person, reason string) *sync.ValidationError {
	return &sync.ValidationError{Provider: provider, Record: person.ResourceName, Reason: reason}
}

func monthOf(m int64) time.Month {
	return time.Month(m)
}
