// Package reconcile classifies donors as new or existing CRM contacts.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/donor-sync/internal/model"
)

// ContactFinder looks up CRM contacts by email.
type ContactFinder interface {
	FindContactByEmail(ctx context.Context, email string) (id int, found bool, err error)
}

// ExistingDonor is a donor already present in the CRM.
type ExistingDonor struct {
	Donor     model.Donor
	ContactID int
}

// FailedDonor is a donor whose CRM lookup failed.
type FailedDonor struct {
	Err   error
	Donor model.Donor
}

// Classification splits the distinct donors of a run.
type Classification struct {
	New      []model.Donor
	Existing []ExistingDonor
	Failed   []FailedDonor
}

// Total returns the number of distinct donors classified.
func (c *Classification) Total() int {
	return len(c.New) + len(c.Existing) + len(c.Failed)
}

// Reconciler matches donors against CRM contacts.
type Reconciler struct {
	finder ContactFinder
	memo   *Memo
	logger *slog.Logger
}

// New creates a reconciler. The memo is shared with the provisioner so contacts
// created later in the run resolve without another lookup.
func New(finder ContactFinder, memo *Memo) *Reconciler {
	if memo == nil {
		memo = NewMemo()
	}
	return &Reconciler{
		finder: finder,
		memo:   memo,
		logger: slog.Default().With("component", "reconcile"),
	}
}

// Memo returns the contact memo used by the reconciler.
func (r *Reconciler) Memo() *Memo {
	return r.memo
}

// UniqueDonors returns the first-seen donor for every distinct email, in
// pledge order. Pledges without an email are skipped.
func UniqueDonors(pledges []model.Pledge) []model.Donor {
	seen := make(map[string]struct{}, len(pledges))
	donors := make([]model.Donor, 0, len(pledges))

	for _, p := range pledges {
		key := p.Donor.Key()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		donors = append(donors, p.Donor)
	}
	return donors
}

// Classify looks up every distinct donor in the CRM. A donor whose lookup
// fails lands in Failed, never in New, and the failure is remembered so the
// lookup is not repeated later in the run. Only cancellation stops Classify.
func (r *Reconciler) Classify(ctx context.Context, pledges []model.Pledge) (*Classification, error) {
	donors := UniqueDonors(pledges)
	result := &Classification{}

	for _, donor := range donors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, err := r.resolve(ctx, donor)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			r.logger.Warn("Contact lookup failed", "error", err)
			result.Failed = append(result.Failed, FailedDonor{Donor: donor, Err: err})
			continue
		}

		if id != 0 {
			result.Existing = append(result.Existing, ExistingDonor{Donor: donor, ContactID: id})
		} else {
			result.New = append(result.New, donor)
		}
	}

	r.logger.Info("Classified donors",
		"unique", len(donors),
		"new", len(result.New),
		"existing", len(result.Existing),
		"failed", len(result.Failed))

	return result, nil
}

func (r *Reconciler) resolve(ctx context.Context, donor model.Donor) (int, error) {
	key := donor.Key()
	if id, known := r.memo.Lookup(key); known {
		return id, nil
	}
	if err := r.memo.Failure(key); err != nil {
		return 0, err
	}

	id, found, err := r.finder.FindContactByEmail(ctx, strings.TrimSpace(donor.Email))
	if err != nil {
		err = fmt.Errorf("failed to look up contact %s: %w", key, err)
		if ctx.Err() == nil {
			r.memo.Fail(key, err)
		}
		return 0, err
	}
	if !found {
		id = 0
	}

	r.memo.Remember(key, id)
	return id, nil
}
