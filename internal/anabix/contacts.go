package anabix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/donor-sync/internal/model"
)

// ErrMissingIdentifier is returned when a list membership change names neither
// a contact id nor an email.
var ErrMissingIdentifier = errors.New("either contact id or email must be provided")

type contactRecord struct {
	Email        string  `json:"email"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	PhoneNumber  string  `json:"phoneNumber"`
	CellNumber   string  `json:"cellNumber"`
	Organization string  `json:"organization"`
	IDContact    flexInt `json:"idContact"`
	ID           flexInt `json:"id"`
	ContactID    flexInt `json:"contactId"`
}

func (r contactRecord) toModel(rec record) model.Contact {
	return model.Contact{
		ID:           rec.firstID(r.IDContact, r.ID, r.ContactID),
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PhoneNumber:  r.PhoneNumber,
		CellNumber:   r.CellNumber,
		Organization: r.Organization,
	}
}

func decodeContacts(records []record) ([]model.Contact, error) {
	contacts := make([]model.Contact, 0, len(records))
	for _, rec := range records {
		var cr contactRecord
		if err := json.Unmarshal(rec.Raw, &cr); err != nil {
			return nil, fmt.Errorf("invalid contact record: %w", err)
		}
		contacts = append(contacts, cr.toModel(rec))
	}
	return contacts, nil
}

// FindContactByEmail looks up a contact by exact, case-insensitive email.
func (c *Client) FindContactByEmail(ctx context.Context, email string) (int, bool, error) {
	records, _, err := c.getAll(ctx, requestContacts, map[string]any{"email": email}, 0)
	if err != nil {
		return 0, false, err
	}

	contacts, err := decodeContacts(records)
	if err != nil {
		return 0, false, err
	}

	want := strings.TrimSpace(email)
	for _, contact := range contacts {
		if contact.ID != 0 && strings.EqualFold(strings.TrimSpace(contact.Email), want) {
			return contact.ID, true, nil
		}
	}
	return 0, false, nil
}

// ListContacts downloads every contact, page by page.
func (c *Client) ListContacts(ctx context.Context) ([]model.Contact, error) {
	var all []model.Contact
	offset := 0

	for {
		records, meta, err := c.getAll(ctx, requestContacts, nil, offset)
		if err != nil {
			return nil, err
		}

		contacts, err := decodeContacts(records)
		if err != nil {
			return nil, err
		}
		all = append(all, contacts...)

		total := 0
		if meta != nil {
			total = int(meta.TotalRecords)
		}
		offset += pageLimit

		c.logger.Debug("Downloaded contacts page", "downloaded", len(all), "total", total)

		if offset >= total || len(records) == 0 {
			break
		}
	}

	return all, nil
}

// CreateContact creates a contact and returns its id.
func (c *Client) CreateContact(ctx context.Context, contact model.Contact) (int, error) {
	data := map[string]any{
		"email":        contact.Email,
		"firstName":    contact.FirstName,
		"lastName":     contact.LastName,
		"phoneNumber":  contact.PhoneNumber,
		"cellNumber":   contact.CellNumber,
		"organization": contact.Organization,
		"gdprReason":   contact.GDPRReason,
	}
	if contact.GDPRAcceptanceDate != "" {
		data["gdprAcceptanceDate"] = contact.GDPRAcceptanceDate
	}
	if addr := contact.Shipping; !addr.IsZero() {
		data["shippingStreet"] = addr.Street
		data["shippingCity"] = addr.City
		data["shippingCode"] = addr.PostCode
		data["shippingCountry"] = addr.Country
	}

	id, err := c.create(ctx, requestContacts, "idContact", data)
	if err != nil {
		return 0, fmt.Errorf("failed to create contact: %w", err)
	}
	return id, nil
}

// ListMembership describes a change to a contact's list memberships.
type ListMembership struct {
	Email      string
	AddTo      []int
	RemoveFrom []int
	ContactID  int
}

// ManageLists adds a contact to and removes it from lists. Adding a contact
// that is already a member succeeds.
func (c *Client) ManageLists(ctx context.Context, m ListMembership) error {
	if m.ContactID == 0 && strings.TrimSpace(m.Email) == "" {
		return ErrMissingIdentifier
	}

	data := map[string]any{}
	if m.ContactID != 0 {
		data["idContact"] = m.ContactID
	} else {
		data["email"] = m.Email
	}
	if len(m.AddTo) > 0 {
		data["addTo"] = m.AddTo
	}
	if len(m.RemoveFrom) > 0 {
		data["removeFrom"] = m.RemoveFrom
	}

	if _, err := c.call(ctx, requestContacts, methodManageLists, data); err != nil {
		return fmt.Errorf("failed to manage contact lists: %w", err)
	}
	return nil
}
