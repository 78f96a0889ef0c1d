package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/donor-sync/internal/anabix"
	"github.com/Veraticus/donor-sync/internal/model"
	"github.com/Veraticus/donor-sync/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvisioner(crm *anabix.MockCRM) *Provisioner {
	return New(crm, reconcile.NewMemo(), DefaultOptions())
}

func TestContactFromDonor(t *testing.T) {
	tests := []struct {
		name  string
		donor model.Donor
		check func(t *testing.T, c model.Contact)
	}{
		{
			name: "full donor",
			donor: model.Donor{
				Email:       " jana@example.org ",
				FirstName:   "Jana",
				LastName:    "Nováková",
				Phone:       "+420777000111",
				CompanyName: "Spolek",
				Address:     &model.Address{Street: "Dlouhá 1", City: "Praha", PostCode: "11000", Country: "CZ"},
			},
			check: func(t *testing.T, c model.Contact) {
				t.Helper()
				assert.Equal(t, "jana@example.org", c.Email)
				assert.Equal(t, "+420777000111", c.PhoneNumber)
				assert.Equal(t, "+420777000111", c.CellNumber)
				assert.Equal(t, "Spolek", c.Organization)
				assert.Equal(t, model.GDPRReasonLegitimateInterest, c.GDPRReason)
				require.NotNil(t, c.Shipping)
				assert.Equal(t, "Praha", c.Shipping.City)
			},
		},
		{
			name:  "no address",
			donor: model.Donor{Email: "a@example.org"},
			check: func(t *testing.T, c model.Contact) {
				t.Helper()
				assert.Nil(t, c.Shipping)
			},
		},
		{
			name:  "empty address",
			donor: model.Donor{Email: "a@example.org", Address: &model.Address{}},
			check: func(t *testing.T, c model.Contact) {
				t.Helper()
				assert.Nil(t, c.Shipping)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ContactFromDonor(tt.donor, DefaultOptions()))
		})
	}
}

func TestProvisioner_CreateContact(t *testing.T) {
	t.Run("not creatable", func(t *testing.T) {
		crm := anabix.NewMockCRM()
		_, err := newProvisioner(crm).CreateContact(context.Background(), model.Donor{Phone: "123"})
		require.ErrorIs(t, err, ErrContactNotCreatable)
		assert.Empty(t, crm.CreateContactCalls)
	})

	t.Run("name only", func(t *testing.T) {
		crm := anabix.NewMockCRM()
		id, err := newProvisioner(crm).CreateContact(context.Background(), model.Donor{LastName: "Novák"})
		require.NoError(t, err)
		assert.NotZero(t, id)
		require.Len(t, crm.CreateContactCalls, 1)
	})

	t.Run("crm failure", func(t *testing.T) {
		crm := anabix.NewMockCRM()
		crm.CreateContactFn = func(context.Context, model.Contact) (int, error) {
			return 0, errors.New("rejected")
		}
		_, err := newProvisioner(crm).CreateContact(context.Background(), model.Donor{Email: "a@example.org"})
		require.Error(t, err)
	})
}

func TestProvisioner_EnsureContact(t *testing.T) {
	crm := anabix.NewMockCRM()
	existing := crm.AddContact(model.Contact{Email: "old@example.org"})
	p := newProvisioner(crm)
	ctx := context.Background()

	id, created, err := p.EnsureContact(ctx, model.Donor{Email: "OLD@example.org"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing, id)

	first, created, err := p.EnsureContact(ctx, model.Donor{Email: "new@example.org"})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := p.EnsureContact(ctx, model.Donor{Email: "New@Example.org"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)

	assert.Len(t, crm.CreateContactCalls, 1, "one contact per email per run")
	assert.Len(t, crm.FindContactByEmailCalls, 2)
}

func TestProvisioner_EnsureContactSkipsLookupForKnownNewDonor(t *testing.T) {
	crm := anabix.NewMockCRM()
	memo := reconcile.NewMemo()
	memo.Remember("new@example.org", 0)

	p := New(crm, memo, DefaultOptions())
	id, created, err := p.EnsureContact(context.Background(), model.Donor{Email: "new@example.org"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, crm.FindContactByEmailCalls)

	remembered, known := memo.Lookup("new@example.org")
	assert.True(t, known)
	assert.Equal(t, id, remembered)
}

func TestProvisioner_EnsureContactRemembersFailures(t *testing.T) {
	tests := []struct {
		setup       func(crm *anabix.MockCRM, memo *reconcile.Memo)
		name        string
		wantMsg     string
		wantLookups int
		wantCreates int
	}{
		{
			name: "failed create",
			setup: func(crm *anabix.MockCRM, _ *reconcile.Memo) {
				crm.CreateContactFn = func(context.Context, model.Contact) (int, error) {
					return 0, errors.New("rejected")
				}
			},
			wantMsg:     "failed to create contact new@example.org: rejected",
			wantLookups: 1,
			wantCreates: 1,
		},
		{
			name: "failed lookup",
			setup: func(crm *anabix.MockCRM, _ *reconcile.Memo) {
				crm.FindContactByEmailFn = func(context.Context, string) (int, bool, error) {
					return 0, false, errors.New("timeout")
				}
			},
			wantMsg:     "failed to look up contact new@example.org: timeout",
			wantLookups: 1,
		},
		{
			name: "lookup failed during classification",
			setup: func(_ *anabix.MockCRM, memo *reconcile.Memo) {
				memo.Fail("new@example.org", errors.New("failed to look up contact new@example.org: earlier"))
			},
			wantMsg: "earlier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crm := anabix.NewMockCRM()
			memo := reconcile.NewMemo()
			tt.setup(crm, memo)
			p := New(crm, memo, DefaultOptions())

			for i := 0; i < 3; i++ {
				_, created, err := p.EnsureContact(context.Background(), model.Donor{Email: "new@example.org"})
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantMsg)
				assert.False(t, created)
			}

			assert.Len(t, crm.FindContactByEmailCalls, tt.wantLookups)
			assert.Len(t, crm.CreateContactCalls, tt.wantCreates)
		})
	}
}

func TestProvisioner_ProvisionDonorsSkipsFailedLookups(t *testing.T) {
	crm := anabix.NewMockCRM()
	classification := &reconcile.Classification{
		Failed: []reconcile.FailedDonor{{Donor: model.Donor{Email: "x@example.org"}, Err: errors.New("timeout")}},
	}

	report := newProvisioner(crm).ProvisionDonors(context.Background(), classification, 57)
	assert.Empty(t, report.Failures)
	assert.Empty(t, crm.CreateContactCalls)
	assert.Empty(t, crm.ManageListsCalls)
}

func TestProvisioner_AddToList(t *testing.T) {
	crm := anabix.NewMockCRM()
	p := newProvisioner(crm)
	ctx := context.Background()

	require.ErrorIs(t, p.AddToList(ctx, ListTarget{}, 57), ErrNoListTarget)
	assert.Empty(t, crm.ManageListsCalls)

	require.NoError(t, p.AddToList(ctx, ListTarget{ContactID: 5}, 57))
	require.NoError(t, p.AddToList(ctx, ListTarget{ContactID: 5}, 57))

	require.Len(t, crm.ManageListsCalls, 2)
	assert.Equal(t, []int{57}, crm.ManageListsCalls[0].AddTo)
	assert.Equal(t, []int{5}, crm.Lists[57], "re-adding a member is a no-op")
}

func TestProvisioner_GetOrCreateDeal(t *testing.T) {
	amount := 5000.0

	tests := []struct {
		name        string
		seed        []model.Deal
		params      DealParams
		wantCreated bool
		wantID      int
	}{
		{
			name: "two deals with identical titles returns the first",
			seed: []model.Deal{
				{ID: 11, Title: "Léto 2024"},
				{ID: 12, Title: "Léto 2024"},
			},
			wantID: 11,
		},
		{
			name:        "no deal creates one",
			params:      DealParams{Amount: &amount, OwnerID: 3},
			wantCreated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crm := anabix.NewMockCRM()
			for _, d := range tt.seed {
				crm.AddDeal(d)
			}
			p := newProvisioner(crm)

			id, created, err := p.GetOrCreateDeal(context.Background(), "Léto 2024", 9, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)

			if !tt.wantCreated {
				assert.Equal(t, tt.wantID, id)
				assert.Empty(t, crm.CreateDealCalls)
				assert.Len(t, crm.Deals, len(tt.seed))
				return
			}

			require.Len(t, crm.CreateDealCalls, 1)
			call := crm.CreateDealCalls[0]
			assert.Equal(t, "Léto 2024", call.Title)
			assert.Equal(t, 9, call.ContactID)
			assert.Equal(t, 3, call.OwnerID)
			require.NotNil(t, call.Amount)
			assert.InDelta(t, 5000.0, *call.Amount, 0.001)
			assert.Empty(t, call.Deadline)
		})
	}
}

func TestProvisioner_GetOrCreateDealExactTitle(t *testing.T) {
	crm := anabix.NewMockCRM()
	crm.GetDealsByTitleFn = func(context.Context, string) ([]model.Deal, error) {
		return []model.Deal{{ID: 1, Title: "Léto 2024 - bonus"}}, nil
	}
	p := newProvisioner(crm)

	_, created, err := p.GetOrCreateDeal(context.Background(), "Léto 2024", 9, DealParams{})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestProvisioner_GetOrCreateDealMemoizesTitle(t *testing.T) {
	crm := anabix.NewMockCRM()
	p := newProvisioner(crm)
	ctx := context.Background()

	first, created, err := p.GetOrCreateDeal(ctx, "Projekt", 1, DealParams{})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := p.GetOrCreateDeal(ctx, "Projekt", 2, DealParams{})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)

	assert.Len(t, crm.GetDealsByTitleCalls, 1)
	assert.Len(t, crm.CreateDealCalls, 1)

	_, _, err = p.GetOrCreateDeal(ctx, "", 1, DealParams{})
	require.ErrorIs(t, err, ErrNoDealTitle)
}

func TestProvisioner_ProvisionDonors(t *testing.T) {
	crm := anabix.NewMockCRM()
	existingID := crm.AddContact(model.Contact{Email: "a@example.org"})

	memo := reconcile.NewMemo()
	classification, err := reconcile.New(crm, memo).Classify(context.Background(), []model.Pledge{
		{Donor: model.Donor{Email: "a@example.org"}},
		{Donor: model.Donor{Email: "b@example.org", FirstName: "B"}},
	})
	require.NoError(t, err)

	report := New(crm, memo, DefaultOptions()).ProvisionDonors(context.Background(), classification, 57)

	assert.Equal(t, 1, report.ContactsCreated)
	assert.Equal(t, 2, report.ListAdditions)
	assert.Empty(t, report.Failures)
	assert.Contains(t, crm.Lists[57], existingID)
	assert.Len(t, crm.Lists[57], 2)
	assert.Len(t, crm.FindContactByEmailCalls, 2, "provisioning reuses classification lookups")
}

func TestProvisioner_ProvisionDonorsCollectsFailures(t *testing.T) {
	crm := anabix.NewMockCRM()
	crm.ManageListsFn = func(context.Context, anabix.ListMembership) error {
		return errors.New("list locked")
	}

	classification := &reconcile.Classification{
		New: []model.Donor{
			{Email: "b@example.org"},
		},
		Existing: []reconcile.ExistingDonor{
			{Donor: model.Donor{Email: "a@example.org"}, ContactID: 5},
		},
	}

	report := newProvisioner(crm).ProvisionDonors(context.Background(), classification, 57)
	assert.Equal(t, 1, report.ContactsCreated)
	assert.Zero(t, report.ListAdditions)
	require.Len(t, report.Failures, 2)
	assert.Contains(t, report.Failures[0].Error(), "b@example.org")
	assert.Contains(t, report.Failures[1].Error(), "list locked")
}

func TestProvisioner_ProvisionDonorsWithoutList(t *testing.T) {
	crm := anabix.NewMockCRM()
	classification := &reconcile.Classification{
		Existing: []reconcile.ExistingDonor{{Donor: model.Donor{Email: "a@example.org"}, ContactID: 5}},
	}

	report := newProvisioner(crm).ProvisionDonors(context.Background(), classification, 0)
	assert.Zero(t, report.ListAdditions)
	assert.Empty(t, crm.ManageListsCalls)
}
