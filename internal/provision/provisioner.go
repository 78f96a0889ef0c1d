// Package provision creates missing CRM contacts, maintains list membership
// and resolves the deal that represents each project.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/donor-sync/internal/anabix"
	"github.com/Veraticus/donor-sync/internal/model"
	"github.com/Veraticus/donor-sync/internal/reconcile"
	"github.com/patrickmn/go-cache"
)

var (
	// ErrContactNotCreatable is returned for donors with neither an email nor a name.
	ErrContactNotCreatable = errors.New("donor has no email, first name or last name")
	// ErrNoListTarget is returned when a list addition names neither a contact id nor an email.
	ErrNoListTarget = errors.New("list target needs a contact id or an email")
	// ErrNoDealTitle is returned when a deal is requested without a title.
	ErrNoDealTitle = errors.New("deal title is required")
)

// Options tunes how contacts are created.
type Options struct {
	GDPRAcceptanceDate string // YYYY-MM-DD, optional
	GDPRReason         int
}

// DefaultOptions returns the options used for donation-platform donors.
func DefaultOptions() Options {
	return Options{GDPRReason: model.GDPRReasonLegitimateInterest}
}

// Provisioner writes contacts, list memberships and deals to the CRM.
type Provisioner struct {
	crm     anabix.CRM
	memo    *reconcile.Memo
	deals   *cache.Cache
	logger  *slog.Logger
	options Options
}

// New creates a provisioner sharing memo with the reconciler.
func New(crm anabix.CRM, memo *reconcile.Memo, opts Options) *Provisioner {
	if memo == nil {
		memo = reconcile.NewMemo()
	}
	if opts.GDPRReason == 0 {
		opts.GDPRReason = model.GDPRReasonLegitimateInterest
	}
	return &Provisioner{
		crm:     crm,
		memo:    memo,
		deals:   cache.New(cache.NoExpiration, 0),
		logger:  slog.Default().With("component", "provision"),
		options: opts,
	}
}

// ContactFromDonor maps a donor onto a CRM contact. The platform has a single
// phone field, so it fills both phone and cell number.
func ContactFromDonor(donor model.Donor, opts Options) model.Contact {
	contact := model.Contact{
		Email:              strings.TrimSpace(donor.Email),
		FirstName:          donor.FirstName,
		LastName:           donor.LastName,
		PhoneNumber:        donor.Phone,
		CellNumber:         donor.Phone,
		Organization:       donor.CompanyName,
		GDPRReason:         opts.GDPRReason,
		GDPRAcceptanceDate: opts.GDPRAcceptanceDate,
	}
	if !donor.Address.IsZero() {
		addr := *donor.Address
		contact.Shipping = &addr
	}
	return contact
}

// CreateContact creates a CRM contact for donor and returns its id.
func (p *Provisioner) CreateContact(ctx context.Context, donor model.Donor) (int, error) {
	if strings.TrimSpace(donor.Email) == "" && donor.FirstName == "" && donor.LastName == "" {
		return 0, ErrContactNotCreatable
	}

	id, err := p.crm.CreateContact(ctx, ContactFromDonor(donor, p.options))
	if err != nil {
		return 0, err
	}

	p.logger.Debug("Created contact", "contact_id", id)
	return id, nil
}

// EnsureContact returns the contact for donor, creating it when the CRM has
// none. Each email resolves to at most one contact per run, and a lookup or
// create that failed for an email is not attempted again in the same run.
func (p *Provisioner) EnsureContact(ctx context.Context, donor model.Donor) (id int, created bool, err error) {
	key := donor.Key()

	if key != "" {
		if err := p.memo.Failure(key); err != nil {
			return 0, false, err
		}
		memoID, known := p.memo.Lookup(key)
		if known && memoID != 0 {
			return memoID, false, nil
		}
		if !known {
			foundID, found, err := p.crm.FindContactByEmail(ctx, strings.TrimSpace(donor.Email))
			if err != nil {
				return 0, false, p.fail(ctx, key, fmt.Errorf("failed to look up contact %s: %w", key, err))
			}
			if found && foundID != 0 {
				p.memo.Remember(key, foundID)
				return foundID, false, nil
			}
		}
	}

	id, err = p.CreateContact(ctx, donor)
	if err != nil {
		if key != "" {
			err = p.fail(ctx, key, fmt.Errorf("failed to create contact %s: %w", key, err))
		}
		return 0, false, err
	}
	if key != "" {
		p.memo.Remember(key, id)
	}
	return id, true, nil
}

// fail remembers err for key unless the run is being canceled.
func (p *Provisioner) fail(ctx context.Context, key string, err error) error {
	if ctx.Err() == nil {
		p.memo.Fail(key, err)
	}
	return err
}

// ListTarget identifies the contact to add to a list.
type ListTarget struct {
	Email     string
	ContactID int
}

// AddToList adds the target to listID. Adding an existing member succeeds.
func (p *Provisioner) AddToList(ctx context.Context, target ListTarget, listID int) error {
	if target.ContactID == 0 && strings.TrimSpace(target.Email) == "" {
		return ErrNoListTarget
	}

	return p.crm.ManageLists(ctx, anabix.ListMembership{
		ContactID: target.ContactID,
		Email:     target.Email,
		AddTo:     []int{listID},
	})
}

// DealParams are the optional fields of a new deal. Zero values are not sent.
type DealParams struct {
	Amount        *float64
	Body          string
	Status        string
	Deadline      string // YYYY-MM-DD
	CompletedDate string // YYYY-MM-DD
	OwnerID       int
}

// GetOrCreateDeal returns the first deal titled exactly title, in CRM response
// order, and creates one only when none exists. Resolved ids are remembered
// per title for the rest of the run.
func (p *Provisioner) GetOrCreateDeal(ctx context.Context, title string, contactID int, params DealParams) (id int, created bool, err error) {
	if title == "" {
		return 0, false, ErrNoDealTitle
	}
	if v, ok := p.deals.Get(title); ok {
		return v.(int), false, nil
	}

	deals, err := p.crm.GetDealsByTitle(ctx, title)
	if err != nil {
		return 0, false, err
	}
	for _, d := range deals {
		if d.Title == title && d.ID != 0 {
			p.deals.Set(title, d.ID, cache.NoExpiration)
			return d.ID, false, nil
		}
	}

	id, err = p.crm.CreateDeal(ctx, model.Deal{
		Title:         title,
		ContactID:     contactID,
		Body:          params.Body,
		Status:        params.Status,
		Amount:        params.Amount,
		Deadline:      params.Deadline,
		CompletedDate: params.CompletedDate,
		OwnerID:       params.OwnerID,
	})
	if err != nil {
		return 0, false, err
	}

	p.logger.Info("Created deal", "title", title, "deal_id", id)
	p.deals.Set(title, id, cache.NoExpiration)
	return id, true, nil
}

// DonorFailure describes a donor that could not be provisioned.
type DonorFailure struct {
	Err   error
	Email string
}

func (f DonorFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Email, f.Err)
}

// Report summarizes a ProvisionDonors pass.
type Report struct {
	Failures        []DonorFailure
	ContactsCreated int
	ListAdditions   int
}

// ProvisionDonors creates contacts for new donors and adds every classified
// donor to listID. A listID of 0 skips list membership. Failures are collected
// per donor and do not stop the pass.
func (p *Provisioner) ProvisionDonors(ctx context.Context, c *reconcile.Classification, listID int) Report {
	var report Report
	if c == nil {
		return report
	}

	addToList := func(email string, contactID int) {
		if listID == 0 {
			return
		}
		if err := p.AddToList(ctx, ListTarget{ContactID: contactID}, listID); err != nil {
			report.Failures = append(report.Failures, DonorFailure{Email: email, Err: fmt.Errorf("failed to add to list: %w", err)})
			return
		}
		report.ListAdditions++
	}

	for _, donor := range c.New {
		if ctx.Err() != nil {
			return report
		}

		id, created, err := p.EnsureContact(ctx, donor)
		if err != nil {
			report.Failures = append(report.Failures, DonorFailure{Email: donor.Email, Err: err})
			continue
		}
		if created {
			report.ContactsCreated++
		}
		addToList(donor.Email, id)
	}

	for _, existing := range c.Existing {
		if ctx.Err() != nil {
			return report
		}
		addToList(existing.Donor.Email, existing.ContactID)
	}

	p.logger.Info("Provisioned donors",
		"contacts_created", report.ContactsCreated,
		"list_additions", report.ListAdditions,
		"failures", len(report.Failures))

	return report
}
