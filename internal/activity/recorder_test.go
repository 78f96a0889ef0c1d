package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/donor-sync/internal/anabix"
	"github.com/Veraticus/donor-sync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prague(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Prague")
	require.NoError(t, err)
	return loc
}

func successfulPledge(pledgedAt string, sent, outgoing int64) model.Pledge {
	return model.Pledge{
		PledgeID:  "1001",
		ProjectID: "7",
		PledgedAt: pledgedAt,
		Donor:     model.Donor{Email: "jana@example.org"},
		Transactions: []model.Transaction{
			{State: "failed", SentAmount: model.Money{Cents: 99900}},
			{
				State:          model.StateSuccessMoneyOnAccount,
				SentAmount:     model.Money{Cents: sent, Currency: "CZK"},
				OutgoingAmount: model.Money{Cents: outgoing, Currency: "CZK"},
			},
		},
	}
}

func TestBody(t *testing.T) {
	assert.Equal(t, "Dar přes Darujme.cz - 500 Kč", Body(500))
}

func TestParseTimestamp(t *testing.T) {
	loc := prague(t)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "positive offset is dropped",
			input: "2024-03-15T10:30:00+01:00",
			want:  time.Date(2024, 3, 15, 10, 30, 0, 0, loc),
		},
		{
			name:  "negative offset is dropped",
			input: "2024-07-01T08:00:00-05:00",
			want:  time.Date(2024, 7, 1, 8, 0, 0, 0, loc),
		},
		{
			name:  "no offset",
			input: "2024-07-01T08:00:00",
			want:  time.Date(2024, 7, 1, 8, 0, 0, 0, loc),
		},
		{
			name:    "garbage",
			input:   "yesterday",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input, loc)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestRecorder_RecordCreatesActivity(t *testing.T) {
	loc := prague(t)
	crm := anabix.NewMockCRM()
	r := NewRecorder(crm, loc, DefaultCodes())

	result, err := r.Record(context.Background(), successfulPledge("2024-03-15T10:30:00+01:00", 50000, 48550), 5, 6, DefaultCustomFieldIDs(), true)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, result.Status)
	assert.NotZero(t, result.ActivityID)

	require.Len(t, crm.GetActivitiesCalls, 1)
	since := crm.GetActivitiesCalls[0].Since
	assert.True(t, time.Date(2024, 3, 15, 0, 0, 0, 0, loc).Equal(since))

	require.Len(t, crm.CreateActivityCalls, 1)
	created := crm.CreateActivityCalls[0]
	assert.Equal(t, "Dar přes Darujme.cz - 500 Kč", created.Body)
	assert.Equal(t, anabix.ActivityTypeNote, created.Type)
	assert.Equal(t, 5, created.ContactID)
	assert.Equal(t, 6, created.DealID)
	assert.Equal(t, time.Date(2024, 3, 15, 10, 30, 0, 0, loc).Unix(), created.Timestamp)
	assert.Equal(t, []model.CustomFieldValue{
		{ID: 33, Value: "500"},
		{ID: 35, Value: "486"},
		{ID: 36, Value: "2"},
		{ID: 37, Value: "5"},
		{ID: 38, Value: "2"},
	}, created.CustomFields)
}

func TestRecorder_DuplicateGuard(t *testing.T) {
	loc := prague(t)
	crm := anabix.NewMockCRM()
	crm.AddActivity(model.Activity{
		ContactID: 5,
		DealID:    6,
		Body:      "Poznámka: Dar přes Darujme.cz - 500 Kč (převod)",
		Timestamp: time.Date(2024, 3, 15, 9, 0, 0, 0, loc).Unix(),
	})
	r := NewRecorder(crm, loc, DefaultCodes())

	result, err := r.Record(context.Background(), successfulPledge("2024-03-15T18:00:00+01:00", 50000, 48550), 5, 6, DefaultCustomFieldIDs(), true)
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, result.Status)
	assert.Zero(t, result.ActivityID)
	assert.Empty(t, crm.CreateActivityCalls)
}

func TestRecorder_DuplicateGuardIgnores(t *testing.T) {
	loc := prague(t)

	tests := []struct {
		name     string
		existing model.Activity
	}{
		{
			name: "older than pledge date",
			existing: model.Activity{
				ContactID: 5, DealID: 6,
				Body:      "Dar přes Darujme.cz - 500 Kč",
				Timestamp: time.Date(2024, 3, 14, 23, 59, 0, 0, loc).Unix(),
			},
		},
		{
			name: "different amount",
			existing: model.Activity{
				ContactID: 5, DealID: 6,
				Body:      "Dar přes Darujme.cz - 600 Kč",
				Timestamp: time.Date(2024, 3, 15, 9, 0, 0, 0, loc).Unix(),
			},
		},
		{
			name: "different deal",
			existing: model.Activity{
				ContactID: 5, DealID: 7,
				Body:      "Dar přes Darujme.cz - 500 Kč",
				Timestamp: time.Date(2024, 3, 15, 9, 0, 0, 0, loc).Unix(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crm := anabix.NewMockCRM()
			crm.AddActivity(tt.existing)
			r := NewRecorder(crm, loc, DefaultCodes())

			result, err := r.Record(context.Background(), successfulPledge("2024-03-15T18:00:00+01:00", 50000, 48550), 5, 6, DefaultCustomFieldIDs(), true)
			require.NoError(t, err)
			assert.Equal(t, StatusCreated, result.Status)
			assert.Len(t, crm.CreateActivityCalls, 1)
		})
	}
}

func TestRecorder_DuplicateCheckDisabled(t *testing.T) {
	loc := prague(t)
	crm := anabix.NewMockCRM()
	crm.AddActivity(model.Activity{
		ContactID: 5, DealID: 6,
		Body:      "Dar přes Darujme.cz - 500 Kč",
		Timestamp: time.Date(2024, 3, 15, 9, 0, 0, 0, loc).Unix(),
	})
	r := NewRecorder(crm, loc, DefaultCodes())

	result, err := r.Record(context.Background(), successfulPledge("2024-03-15T18:00:00+01:00", 50000, 48550), 5, 6, DefaultCustomFieldIDs(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, result.Status)
	assert.Empty(t, crm.GetActivitiesCalls)
}

func TestRecorder_NoSuccessfulTransaction(t *testing.T) {
	crm := anabix.NewMockCRM()
	r := NewRecorder(crm, prague(t), DefaultCodes())

	pledge := model.Pledge{
		PledgeID:     "1",
		PledgedAt:    "2024-03-15T18:00:00+01:00",
		Transactions: []model.Transaction{{State: "failed"}, {State: "pending"}},
	}

	result, err := r.Record(context.Background(), pledge, 5, 6, DefaultCustomFieldIDs(), true)
	require.NoError(t, err)
	assert.Equal(t, StatusNoSuccessfulTransaction, result.Status)
	assert.Empty(t, crm.GetActivitiesCalls)
	assert.Empty(t, crm.CreateActivityCalls)
}

func TestRecorder_Errors(t *testing.T) {
	loc := prague(t)

	t.Run("bad timestamp", func(t *testing.T) {
		crm := anabix.NewMockCRM()
		_, err := NewRecorder(crm, loc, DefaultCodes()).Record(context.Background(), successfulPledge("15.3.2024", 100, 100), 5, 6, DefaultCustomFieldIDs(), true)
		require.Error(t, err)
		assert.Empty(t, crm.CreateActivityCalls)
	})

	t.Run("lookup failure", func(t *testing.T) {
		crm := anabix.NewMockCRM()
		crm.GetActivitiesFn = func(context.Context, int, int, time.Time) ([]model.Activity, error) {
			return nil, errors.New("timeout")
		}
		_, err := NewRecorder(crm, loc, DefaultCodes()).Record(context.Background(), successfulPledge("2024-03-15T18:00:00", 100, 100), 5, 6, DefaultCustomFieldIDs(), true)
		require.Error(t, err)
		assert.Empty(t, crm.CreateActivityCalls)
	})

	t.Run("create failure", func(t *testing.T) {
		crm := anabix.NewMockCRM()
		crm.CreateActivityFn = func(context.Context, model.Activity) (int, error) {
			return 0, errors.New("rejected")
		}
		_, err := NewRecorder(crm, loc, DefaultCodes()).Record(context.Background(), successfulPledge("2024-03-15T18:00:00", 100, 100), 5, 6, DefaultCustomFieldIDs(), true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rejected")
	})
}

func TestNewRecorder_DefaultLocation(t *testing.T) {
	r := NewRecorder(anabix.NewMockCRM(), nil, DefaultCodes())
	assert.Equal(t, DefaultTimezone, r.location.String())
}
