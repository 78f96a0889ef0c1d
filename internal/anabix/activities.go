package anabix

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Veraticus/donor-sync/internal/model"
)

// ActivityTypeNote is the activity type used for recorded donations.
const ActivityTypeNote = "note"

type activityRecord struct {
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	Type       string  `json:"type"`
	IDActivity flexInt `json:"idActivity"`
	ID         flexInt `json:"id"`
	IDContact  flexInt `json:"idContact"`
	IDDeal     flexInt `json:"idDeal"`
	Timestamp  flexInt `json:"timestamp"`
}

// GetActivities returns the activities of a contact within a deal whose
// timestamp is at or after since. A zero since disables the date filter.
func (c *Client) GetActivities(ctx context.Context, contactID, dealID int, since time.Time) ([]model.Activity, error) {
	records, _, err := c.getAll(ctx, requestActivities, map[string]any{
		"idContact": contactID,
		"idDeal":    dealID,
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get activities: %w", err)
	}

	activities := make([]model.Activity, 0, len(records))
	for _, rec := range records {
		var ar activityRecord
		if err := json.Unmarshal(rec.Raw, &ar); err != nil {
			return nil, fmt.Errorf("invalid activity record: %w", err)
		}
		if !since.IsZero() && int64(ar.Timestamp) < since.Unix() {
			continue
		}
		activities = append(activities, model.Activity{
			ID:        rec.firstID(ar.IDActivity, ar.ID),
			Title:     ar.Title,
			Body:      ar.Body,
			Type:      ar.Type,
			ContactID: int(ar.IDContact),
			DealID:    int(ar.IDDeal),
			Timestamp: int64(ar.Timestamp),
		})
	}
	return activities, nil
}

// CreateActivity creates an activity and returns its id. Custom fields are
// sent as a flat id to string value mapping.
func (c *Client) CreateActivity(ctx context.Context, activity model.Activity) (int, error) {
	activityType := activity.Type
	if activityType == "" {
		activityType = ActivityTypeNote
	}

	data := map[string]any{
		"idContact": activity.ContactID,
		"idDeal":    activity.DealID,
		"body":      activity.Body,
		"type":      activityType,
		"timestamp": activity.Timestamp,
	}
	if activity.Title != "" {
		data["title"] = activity.Title
	}
	if len(activity.CustomFields) > 0 {
		fields := make(map[string]string, len(activity.CustomFields))
		for _, f := range activity.CustomFields {
			fields[strconv.Itoa(f.ID)] = f.Value
		}
		data["customFields"] = fields
	}

	id, err := c.create(ctx, requestActivities, "idActivity", data)
	if err != nil {
		return 0, fmt.Errorf("failed to create activity: %w", err)
	}
	return id, nil
}
