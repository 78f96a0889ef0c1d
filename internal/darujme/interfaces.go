package darujme

import (
	"context"
	"time"

	"github.com/Veraticus/donor-sync/internal/model"
)

// PledgeFetcher defines the contract for retrieving donation platform data.
type PledgeFetcher interface {
	FetchPledges(ctx context.Context, since time.Time) ([]model.Pledge, error)
	FetchProjects(ctx context.Context) ([]model.Project, error)
}

var _ PledgeFetcher = (*Client)(nil)
