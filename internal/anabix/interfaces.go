package anabix

import (
	"context"
	"time"

	"github.com/Veraticus/donor-sync/internal/model"
)

// CRM defines the CRM operations the sync relies on.
type CRM interface {
	FindContactByEmail(ctx context.Context, email string) (id int, found bool, err error)
	CreateContact(ctx context.Context, contact model.Contact) (int, error)
	ManageLists(ctx context.Context, membership ListMembership) error
	GetDealsByTitle(ctx context.Context, title string) ([]model.Deal, error)
	CreateDeal(ctx context.Context, deal model.Deal) (int, error)
	GetActivities(ctx context.Context, contactID, dealID int, since time.Time) ([]model.Activity, error)
	CreateActivity(ctx context.Context, activity model.Activity) (int, error)
}

// Directory defines read-only lookups used by the maintenance commands.
type Directory interface {
	FindListByTitle(ctx context.Context, title string) (id int, found bool, err error)
	ListContacts(ctx context.Context) ([]model.Contact, error)
}

var (
	_ CRM       = (*Client)(nil)
	_ Directory = (*Client)(nil)
)
