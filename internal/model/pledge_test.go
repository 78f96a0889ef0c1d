package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Units(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		want  int64
	}{
		{name: "truncates fraction below half", cents: 12345, want: 123},
		{name: "midpoint rounds away from zero", cents: 150, want: 2},
		{name: "other midpoint rounds away from zero", cents: 250, want: 3},
		{name: "rounds up above half", cents: 12351, want: 124},
		{name: "zero", cents: 0, want: 0},
		{name: "negative midpoint", cents: -150, want: -2},
		{name: "whole amount", cents: 50000, want: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Money{Cents: tt.cents}.Units())
		})
	}
}

func TestTransactionState_IsSuccessful(t *testing.T) {
	assert.True(t, StateSuccess.IsSuccessful())
	assert.True(t, StateSuccessMoneyOnAccount.IsSuccessful())
	assert.True(t, StateSentToOrganization.IsSuccessful())
	assert.False(t, TransactionState("failure").IsSuccessful())
	assert.False(t, TransactionState("").IsSuccessful())
}

func TestPledge_FirstSuccessfulTransaction(t *testing.T) {
	p := Pledge{Transactions: []Transaction{
		{State: "failure", SentAmount: Money{Cents: 100}},
		{State: StateSentToOrganization, SentAmount: Money{Cents: 200}},
		{State: StateSuccess, SentAmount: Money{Cents: 300}},
	}}

	tx, ok := p.FirstSuccessfulTransaction()
	require.True(t, ok)
	assert.Equal(t, int64(200), tx.SentAmount.Cents)
	assert.True(t, p.IsSuccessful())

	_, ok = Pledge{Transactions: []Transaction{{State: "timeout"}}}.FirstSuccessfulTransaction()
	assert.False(t, ok)
	assert.False(t, Pledge{}.IsSuccessful())
}

func TestPledge_JSONKeepsUnmodeledFields(t *testing.T) {
	in := `{"pledgeId": 9, "projectId": 77, "pledgedAt": "2024-03-01T12:00:00+01:00",
		"donor": {"email": "a@example.cz", "note": "Děkujeme"}, "transactions": [],
		"isRecurrent": true, "customFields": {"vs": "2024"}}`

	var p Pledge
	require.NoError(t, json.Unmarshal([]byte(in), &p))
	assert.Equal(t, FlexibleID("9"), p.PledgeID)
	assert.Equal(t, "a@example.cz", p.Donor.Email)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))

	// copies built in code have no raw record and marshal the typed view
	out, err = json.Marshal(Pledge{PledgeID: "5", Donor: Donor{Email: "b@example.cz"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"pledgeId":5`)
	assert.NotContains(t, string(out), "Raw")
}

func TestDonor_Key(t *testing.T) {
	assert.Equal(t, "jan.novak@example.cz", Donor{Email: "  Jan.Novak@Example.CZ "}.Key())
	assert.Empty(t, Donor{}.Key())
}

func TestFlexibleID_JSON(t *testing.T) {
	var p Pledge
	require.NoError(t, json.Unmarshal([]byte(`{"pledgeId": 1234, "projectId": "77"}`), &p))
	assert.Equal(t, FlexibleID("1234"), p.PledgeID)
	assert.Equal(t, FlexibleID("77"), p.ProjectID)

	out, err := json.Marshal(p.PledgeID)
	require.NoError(t, err)
	assert.Equal(t, "1234", string(out))

	out, err = json.Marshal(FlexibleID("abc"))
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, string(out))

	var id FlexibleID
	require.Error(t, json.Unmarshal([]byte(`{}`), &id))
}

func TestProject_CanonicalTitle(t *testing.T) {
	p := Project{Title: map[string]string{"cs": "Útulek", "en": "Shelter"}}
	assert.Equal(t, "Útulek", p.CanonicalTitle())
	assert.Empty(t, Project{}.CanonicalTitle())
}

func TestAddress_IsZero(t *testing.T) {
	var nilAddr *Address
	assert.True(t, nilAddr.IsZero())
	assert.True(t, (&Address{}).IsZero())
	assert.False(t, (&Address{City: "Brno"}).IsZero())
}
