// Package model defines the records exchanged between the donation platform,
// the local snapshots and the CRM.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TransactionState is the settlement state of a single payment attempt.
type TransactionState string

// Known transaction states. Only the first three count as successful.
const (
	StateSuccess               TransactionState = "success"
	StateSuccessMoneyOnAccount TransactionState = "success_money_on_account"
	StateSentToOrganization    TransactionState = "sent_to_organization"
)

// IsSuccessful reports whether money for the attempt reached the organization.
func (s TransactionState) IsSuccessful() bool {
	switch s {
	case StateSuccess, StateSuccessMoneyOnAccount, StateSentToOrganization:
		return true
	default:
		return false
	}
}

// FlexibleID holds an identifier that the platform sends either as a JSON
// number or as a string.
type FlexibleID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a number or string: %w", err)
	}
	*id = FlexibleID(n.String())
	return nil
}

// MarshalJSON writes numeric identifiers back as numbers.
func (id FlexibleID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// String returns the identifier as text.
func (id FlexibleID) String() string {
	return string(id)
}

// Money is an amount in minor currency units.
type Money struct {
	Currency string `json:"currency,omitempty"`
	Cents    int64  `json:"cents"`
}

// Units converts the amount to whole currency units, rounding half away from zero.
func (m Money) Units() int64 {
	return int64(math.Round(float64(m.Cents) / 100))
}

// Transaction is one attempt to move money for a pledge.
type Transaction struct {
	State          TransactionState `json:"state"`
	SentAmount     Money            `json:"sentAmount"`
	OutgoingAmount Money            `json:"outgoingAmount"`
}

// Address is a donor's postal address.
type Address struct {
	Street   string `json:"street,omitempty"`
	City     string `json:"city,omitempty"`
	PostCode string `json:"postCode,omitempty"`
	Country  string `json:"country,omitempty"`
}

// IsZero reports whether no address field is filled in.
func (a *Address) IsZero() bool {
	return a == nil || (a.Street == "" && a.City == "" && a.PostCode == "" && a.Country == "")
}

// Donor is the person behind a pledge.
type Donor struct {
	Address     *Address `json:"address,omitempty"`
	Email       string   `json:"email,omitempty"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	CompanyName string   `json:"companyName,omitempty"`
}

// Key returns the reconciliation key: the lower-cased, trimmed email.
func (d Donor) Key() string {
	return strings.ToLower(strings.TrimSpace(d.Email))
}

// Pledge is a single donation commitment, possibly with several payment attempts.
type Pledge struct {
	PledgeID     FlexibleID    `json:"pledgeId"`
	ProjectID    FlexibleID    `json:"projectId"`
	PledgedAt    string        `json:"pledgedAt"`
	Donor        Donor         `json:"donor"`
	Transactions []Transaction `json:"transactions"`

	// Raw is the record as the platform sent it, including fields the typed
	// view above does not model. When set it is what MarshalJSON writes.
	Raw json.RawMessage `json:"-"`
}

type pledgeFields Pledge

// UnmarshalJSON decodes the typed view and keeps a copy of the raw record.
func (p *Pledge) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var fields pledgeFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*p = Pledge(fields)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes the raw record when there is one, so snapshots keep
// every field the platform returned.
func (p Pledge) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	return json.Marshal(pledgeFields(p))
}

// FirstSuccessfulTransaction returns the first transaction in a successful state.
func (p Pledge) FirstSuccessfulTransaction() (Transaction, bool) {
	for _, t := range p.Transactions {
		if t.State.IsSuccessful() {
			return t, true
		}
	}
	return Transaction{}, false
}

// IsSuccessful reports whether at least one transaction succeeded.
func (p Pledge) IsSuccessful() bool {
	_, ok := p.FirstSuccessfulTransaction()
	return ok
}
