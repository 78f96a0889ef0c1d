package anabix

import (
	"context"
	"strings"
	"time"

	"github.com/Veraticus/donor-sync/internal/model"
)

// MockCRM is an in-memory CRM for testing. Without Fn overrides it behaves
// like a small CRM: created records get ascending ids and are visible to
// later lookups.
type MockCRM struct {
	// Functions that can be set by tests to control behavior
	FindContactByEmailFn func(ctx context.Context, email string) (int, bool, error)
	CreateContactFn      func(ctx context.Context, contact model.Contact) (int, error)
	ManageListsFn        func(ctx context.Context, membership ListMembership) error
	GetDealsByTitleFn    func(ctx context.Context, title string) ([]model.Deal, error)
	CreateDealFn         func(ctx context.Context, deal model.Deal) (int, error)
	GetActivitiesFn      func(ctx context.Context, contactID, dealID int, since time.Time) ([]model.Activity, error)
	CreateActivityFn     func(ctx context.Context, activity model.Activity) (int, error)

	// State
	Contacts   []model.Contact
	Deals      []model.Deal
	Activities []model.Activity
	Lists      map[int][]int // list id -> contact ids

	// Call tracking
	FindContactByEmailCalls []string
	CreateContactCalls      []model.Contact
	ManageListsCalls        []ListMembership
	GetDealsByTitleCalls    []string
	CreateDealCalls         []model.Deal
	GetActivitiesCalls      []GetActivitiesCall
	CreateActivityCalls     []model.Activity

	nextID int
}

// GetActivitiesCall records the parameters of a GetActivities call.
type GetActivitiesCall struct {
	Since     time.Time
	ContactID int
	DealID    int
}

// NewMockCRM creates an empty mock CRM.
func NewMockCRM() *MockCRM {
	return &MockCRM{
		Lists:  make(map[int][]int),
		nextID: 1000,
	}
}

func (m *MockCRM) newID() int {
	m.nextID++
	return m.nextID
}

// AddContact seeds an existing contact and returns its id.
func (m *MockCRM) AddContact(contact model.Contact) int {
	if contact.ID == 0 {
		contact.ID = m.newID()
	}
	m.Contacts = append(m.Contacts, contact)
	return contact.ID
}

// AddDeal seeds an existing deal and returns its id.
func (m *MockCRM) AddDeal(deal model.Deal) int {
	if deal.ID == 0 {
		deal.ID = m.newID()
	}
	m.Deals = append(m.Deals, deal)
	return deal.ID
}

// AddActivity seeds an existing activity and returns its id.
func (m *MockCRM) AddActivity(activity model.Activity) int {
	if activity.ID == 0 {
		activity.ID = m.newID()
	}
	m.Activities = append(m.Activities, activity)
	return activity.ID
}

// FindContactByEmail implements CRM.FindContactByEmail.
func (m *MockCRM) FindContactByEmail(ctx context.Context, email string) (int, bool, error) {
	m.FindContactByEmailCalls = append(m.FindContactByEmailCalls, email)

	if m.FindContactByEmailFn != nil {
		return m.FindContactByEmailFn(ctx, email)
	}

	for _, c := range m.Contacts {
		if strings.EqualFold(c.Email, email) {
			return c.ID, true, nil
		}
	}
	return 0, false, nil
}

// CreateContact implements CRM.CreateContact.
func (m *MockCRM) CreateContact(ctx context.Context, contact model.Contact) (int, error) {
	m.CreateContactCalls = append(m.CreateContactCalls, contact)

	if m.CreateContactFn != nil {
		return m.CreateContactFn(ctx, contact)
	}
	return m.AddContact(contact), nil
}

// ManageLists implements CRM.ManageLists.
func (m *MockCRM) ManageLists(ctx context.Context, membership ListMembership) error {
	m.ManageListsCalls = append(m.ManageListsCalls, membership)

	if m.ManageListsFn != nil {
		return m.ManageListsFn(ctx, membership)
	}
	if membership.ContactID == 0 && membership.Email == "" {
		return ErrMissingIdentifier
	}

	contactID := membership.ContactID
	if contactID == 0 {
		contactID, _, _ = m.FindContactByEmail(ctx, membership.Email)
	}
	for _, listID := range membership.AddTo {
		if !containsInt(m.Lists[listID], contactID) {
			m.Lists[listID] = append(m.Lists[listID], contactID)
		}
	}
	return nil
}

// GetDealsByTitle implements CRM.GetDealsByTitle.
func (m *MockCRM) GetDealsByTitle(ctx context.Context, title string) ([]model.Deal, error) {
	m.GetDealsByTitleCalls = append(m.GetDealsByTitleCalls, title)

	if m.GetDealsByTitleFn != nil {
		return m.GetDealsByTitleFn(ctx, title)
	}

	var deals []model.Deal
	for _, d := range m.Deals {
		if d.Title == title {
			deals = append(deals, d)
		}
	}
	return deals, nil
}

// CreateDeal implements CRM.CreateDeal.
func (m *MockCRM) CreateDeal(ctx context.Context, deal model.Deal) (int, error) {
	m.CreateDealCalls = append(m.CreateDealCalls, deal)

	if m.CreateDealFn != nil {
		return m.CreateDealFn(ctx, deal)
	}
	return m.AddDeal(deal), nil
}

// GetActivities implements CRM.GetActivities.
func (m *MockCRM) GetActivities(ctx context.Context, contactID, dealID int, since time.Time) ([]model.Activity, error) {
	m.GetActivitiesCalls = append(m.GetActivitiesCalls, GetActivitiesCall{
		ContactID: contactID,
		DealID:    dealID,
		Since:     since,
	})

	if m.GetActivitiesFn != nil {
		return m.GetActivitiesFn(ctx, contactID, dealID, since)
	}

	var activities []model.Activity
	for _, a := range m.Activities {
		if a.ContactID != contactID || a.DealID != dealID {
			continue
		}
		if !since.IsZero() && a.Timestamp < since.Unix() {
			continue
		}
		activities = append(activities, a)
	}
	return activities, nil
}

// CreateActivity implements CRM.CreateActivity.
func (m *MockCRM) CreateActivity(ctx context.Context, activity model.Activity) (int, error) {
	m.CreateActivityCalls = append(m.CreateActivityCalls, activity)

	if m.CreateActivityFn != nil {
		return m.CreateActivityFn(ctx, activity)
	}
	return m.AddActivity(activity), nil
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

var _ CRM = (*MockCRM)(nil)
