// Package activity records successful donations as CRM activities.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // pledge timestamps are local to Europe/Prague

	"github.com/Veraticus/donor-sync/internal/anabix"
	"github.com/Veraticus/donor-sync/internal/model"
)

// DefaultTimezone is the zone naive pledge timestamps are interpreted in.
const DefaultTimezone = "Europe/Prague"

const timestampLayout = "2006-01-02T15:04:05"

var offsetSuffix = regexp.MustCompile(`[+-]\d{2}:\d{2}$`)

// Status is the outcome of recording one pledge.
type Status string

// Record outcomes.
const (
	StatusCreated                 Status = "created"
	StatusDuplicate               Status = "duplicate"
	StatusNoSuccessfulTransaction Status = "no_successful_transaction"
)

// Result describes what Record did. ActivityID is set only for StatusCreated.
type Result struct {
	Status     Status
	ActivityID int
}

// CustomFieldIDs are the CRM ids of the five activity custom fields.
type CustomFieldIDs struct {
	AmountGross int
	AmountNet   int
	SupportType int
	Branch      int
	DonorType   int
}

// DefaultCustomFieldIDs returns the field ids configured in the CRM.
func DefaultCustomFieldIDs() CustomFieldIDs {
	return CustomFieldIDs{
		AmountGross: 33,
		AmountNet:   35,
		SupportType: 36,
		Branch:      37,
		DonorType:   38,
	}
}

// Codes are the categorical values attached to every donation activity.
type Codes struct {
	SupportType string // financial gift
	Branch      string
	DonorType   string // individual
}

// DefaultCodes returns the categorical codes for individual financial gifts.
func DefaultCodes() Codes {
	return Codes{SupportType: "2", Branch: "5", DonorType: "2"}
}

// ActivityCRM is the part of the CRM the recorder talks to.
type ActivityCRM interface {
	GetActivities(ctx context.Context, contactID, dealID int, since time.Time) ([]model.Activity, error)
	CreateActivity(ctx context.Context, activity model.Activity) (int, error)
}

var _ ActivityCRM = (anabix.CRM)(nil)

// Recorder turns pledges into CRM activities.
type Recorder struct {
	crm      ActivityCRM
	location *time.Location
	logger   *slog.Logger
	codes    Codes
}

// NewRecorder creates a recorder. A nil location falls back to DefaultTimezone.
func NewRecorder(crm ActivityCRM, location *time.Location, codes Codes) *Recorder {
	if location == nil {
		loc, err := time.LoadLocation(DefaultTimezone)
		if err != nil {
			loc = time.Local
		}
		location = loc
	}
	return &Recorder{
		crm:      crm,
		location: location,
		codes:    codes,
		logger:   slog.Default().With("component", "activity"),
	}
}

// Body returns the activity text for a donation of sent whole units.
func Body(sent int64) string {
	return fmt.Sprintf("Dar přes Darujme.cz - %d Kč", sent)
}

// ParseTimestamp reads a pledge timestamp. A trailing ±HH:MM offset is
// dropped and the remaining wall-clock time is read in loc.
func ParseTimestamp(pledgedAt string, loc *time.Location) (time.Time, error) {
	naive := offsetSuffix.ReplaceAllString(strings.TrimSpace(pledgedAt), "")
	t, err := time.ParseInLocation(timestampLayout, naive, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pledge timestamp %q: %w", pledgedAt, err)
	}
	return t, nil
}

// Record creates the activity for pledge on the given contact and deal.
// Pledges without a successful transaction produce no activity and no error.
// With checkDuplicates set, an activity on the same contact and deal since the
// pledge date whose body contains this pledge's body counts as already recorded.
func (r *Recorder) Record(ctx context.Context, pledge model.Pledge, contactID, dealID int, fields CustomFieldIDs, checkDuplicates bool) (Result, error) {
	txn, ok := pledge.FirstSuccessfulTransaction()
	if !ok {
		r.logger.Debug("Pledge has no successful transaction", "pledge_id", pledge.PledgeID)
		return Result{Status: StatusNoSuccessfulTransaction}, nil
	}

	sent := txn.SentAmount.Units()
	outgoing := txn.OutgoingAmount.Units()
	body := Body(sent)

	pledgedAt, err := ParseTimestamp(pledge.PledgedAt, r.location)
	if err != nil {
		return Result{}, err
	}

	if checkDuplicates {
		since := time.Date(pledgedAt.Year(), pledgedAt.Month(), pledgedAt.Day(), 0, 0, 0, 0, r.location)
		existing, err := r.crm.GetActivities(ctx, contactID, dealID, since)
		if err != nil {
			return Result{}, fmt.Errorf("failed to check existing activities: %w", err)
		}
		for _, a := range existing {
			if strings.Contains(a.Body, body) {
				r.logger.Info("Duplicate activity found",
					"pledge_id", pledge.PledgeID,
					"activity_id", a.ID)
				return Result{Status: StatusDuplicate}, nil
			}
		}
	}

	id, err := r.crm.CreateActivity(ctx, model.Activity{
		ContactID: contactID,
		DealID:    dealID,
		Body:      body,
		Type:      anabix.ActivityTypeNote,
		Timestamp: pledgedAt.Unix(),
		CustomFields: []model.CustomFieldValue{
			{ID: fields.AmountGross, Value: strconv.FormatInt(sent, 10)},
			{ID: fields.AmountNet, Value: strconv.FormatInt(outgoing, 10)},
			{ID: fields.SupportType, Value: r.codes.SupportType},
			{ID: fields.Branch, Value: r.codes.Branch},
			{ID: fields.DonorType, Value: r.codes.DonorType},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to create activity: %w", err)
	}

	r.logger.Debug("Created activity",
		"pledge_id", pledge.PledgeID,
		"activity_id", id,
		"contact_id", contactID,
		"deal_id", dealID)

	return Result{Status: StatusCreated, ActivityID: id}, nil
}
