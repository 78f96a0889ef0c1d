// Package engine orchestrates a sync run: classify donors, provision contacts
// and deals, then record one activity per successful pledge.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/donor-sync/internal/activity"
	"github.com/Veraticus/donor-sync/internal/anabix"
	"github.com/Veraticus/donor-sync/internal/common"
	"github.com/Veraticus/donor-sync/internal/model"
	"github.com/Veraticus/donor-sync/internal/provision"
	"github.com/Veraticus/donor-sync/internal/reconcile"
	"github.com/Veraticus/donor-sync/internal/snapshot"
	"github.com/google/uuid"
)

// Config holds the sync parameters.
type Config struct {
	Location        *time.Location
	Codes           activity.Codes
	DealParams      provision.DealParams
	CustomFields    activity.CustomFieldIDs
	Contacts        provision.Options
	ListID          int
	CheckDuplicates bool
}

// DefaultConfig returns the configuration used for the organization's CRM.
func DefaultConfig() Config {
	return Config{
		Codes:           activity.DefaultCodes(),
		CustomFields:    activity.DefaultCustomFieldIDs(),
		Contacts:        provision.DefaultOptions(),
		ListID:          57,
		CheckDuplicates: true,
	}
}

// Results summarizes a sync run.
type Results struct {
	RunID             string
	Errors            []string
	Duration          time.Duration
	ProcessedPledges  int
	NewDonors         int
	ExistingDonors    int
	ContactsCreated   int
	ListAdditions     int
	DealsCreated      int
	ActivitiesCreated int
	DuplicatesSkipped int
}

func (r *Results) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Syncer runs the reconciliation pipeline against a CRM.
type Syncer struct {
	progress    Progress
	reconciler  *reconcile.Reconciler
	provisioner *provision.Provisioner
	recorder    *activity.Recorder
	logger      *slog.Logger
	config      Config
}

// New creates a syncer. All components share one contact memo, so a donor
// resolves to the same contact throughout the run.
func New(crm anabix.CRM, config Config) *Syncer {
	memo := reconcile.NewMemo()
	return &Syncer{
		progress:    noopProgress{},
		reconciler:  reconcile.New(crm, memo),
		provisioner: provision.New(crm, memo, config.Contacts),
		recorder:    activity.NewRecorder(crm, config.Location, config.Codes),
		logger:      slog.Default().With("component", "engine"),
		config:      config,
	}
}

// SetProgress installs a progress reporter. A nil reporter disables reporting.
func (s *Syncer) SetProgress(p Progress) {
	if p == nil {
		p = noopProgress{}
	}
	s.progress = p
}

// Run processes every pledge. Per-pledge failures are collected in
// Results.Errors, including donors whose CRM lookup failed; only missing
// input or cancellation stop the run early. Partial results are returned in all cases.
func (s *Syncer) Run(ctx context.Context, pledges []model.Pledge, projects []model.Project) (*Results, error) {
	return s.run(ctx, pledges, projects, len(pledges))
}

// RunOne processes only the first pledge, for probing a new configuration.
func (s *Syncer) RunOne(ctx context.Context, pledges []model.Pledge, projects []model.Project) (*Results, error) {
	return s.run(ctx, pledges, projects, 1)
}

func (s *Syncer) run(ctx context.Context, pledges []model.Pledge, projects []model.Project, limit int) (*Results, error) {
	start := time.Now()
	results := &Results{RunID: uuid.NewString()}
	logger := s.logger.With("run_id", results.RunID)
	defer func() { results.Duration = time.Since(start) }()

	if len(pledges) == 0 {
		return results, common.ErrNoPledges
	}
	titles := snapshot.ProjectTitles(projects)
	if len(titles) == 0 {
		return results, common.ErrNoProjects
	}
	if limit < len(pledges) {
		pledges = pledges[:limit]
	}

	logger.Info("Starting sync",
		"pledges", len(pledges),
		"projects", len(titles),
		"list_id", s.config.ListID,
		"check_duplicates", s.config.CheckDuplicates)

	classification, err := s.reconciler.Classify(ctx, pledges)
	if err != nil {
		return results, fmt.Errorf("failed to classify donors: %w", err)
	}
	results.NewDonors = len(classification.New)
	results.ExistingDonors = len(classification.Existing)
	if len(classification.Failed) > 0 {
		logger.Warn("Some donors could not be looked up", "failed", len(classification.Failed))
	}

	report := s.provisioner.ProvisionDonors(ctx, classification, s.config.ListID)
	results.ContactsCreated += report.ContactsCreated
	results.ListAdditions += report.ListAdditions
	for _, f := range report.Failures {
		results.addError("Failed to provision donor %s", f.Error())
	}

	s.progress.Start(len(pledges))
	defer s.progress.Finish()

	for _, pledge := range pledges {
		if err := ctx.Err(); err != nil {
			logger.Warn("Sync interrupted", "processed", results.ProcessedPledges)
			return results, err
		}

		if err := s.processPledge(ctx, pledge, titles, results); err != nil {
			common.LogError(logger, err, "Failed to process pledge", common.Fields{"pledge_id": pledge.PledgeID.String()})
			results.addError("%v", err)
		}
		s.progress.Advance()
	}

	logger.Info("Sync complete",
		"processed", results.ProcessedPledges,
		"activities_created", results.ActivitiesCreated,
		"duplicates_skipped", results.DuplicatesSkipped,
		"errors", len(results.Errors))

	return results, nil
}

var errMissingData = errors.New("missing data for pledge")

func (s *Syncer) processPledge(ctx context.Context, pledge model.Pledge, titles map[string]string, results *Results) error {
	title := titles[pledge.ProjectID.String()]
	if pledge.Donor.Key() == "" || title == "" {
		return fmt.Errorf("%w %s", errMissingData, pledge.PledgeID)
	}

	contactID, created, err := s.provisioner.EnsureContact(ctx, pledge.Donor)
	if err != nil {
		return fmt.Errorf("pledge %s: %w", pledge.PledgeID, err)
	}
	if created {
		results.ContactsCreated++
		if s.config.ListID != 0 {
			if err := s.provisioner.AddToList(ctx, provision.ListTarget{ContactID: contactID}, s.config.ListID); err != nil {
				results.addError("Failed to add %s to list: %v", pledge.Donor.Email, err)
			} else {
				results.ListAdditions++
			}
		}
	}

	dealID, dealCreated, err := s.provisioner.GetOrCreateDeal(ctx, title, contactID, s.config.DealParams)
	if err != nil {
		return fmt.Errorf("failed to get/create deal for %s: %w", title, err)
	}
	if dealCreated {
		results.DealsCreated++
	}

	outcome, err := s.recorder.Record(ctx, pledge, contactID, dealID, s.config.CustomFields, s.config.CheckDuplicates)
	if err != nil {
		return fmt.Errorf("failed to record pledge %s: %w", pledge.PledgeID, err)
	}
	switch outcome.Status {
	case activity.StatusCreated:
		results.ActivitiesCreated++
	case activity.StatusDuplicate:
		results.DuplicatesSkipped++
	}

	results.ProcessedPledges++
	return nil
}
