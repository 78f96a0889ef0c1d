package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/donor-sync/internal/darujme"
	"github.com/Veraticus/donor-sync/internal/snapshot"
)

// FetchSummary reports what a fetch saved.
type FetchSummary struct {
	Since             time.Time
	Projects          int
	PledgesFetched    int
	SuccessfulPledges int
}

// FetchSnapshots downloads projects and pledges pledged on or after since,
// keeps the successful pledges and writes both snapshots. Any failure is
// returned; nothing is saved unless both downloads succeed.
func FetchSnapshots(ctx context.Context, fetcher darujme.PledgeFetcher, store *snapshot.Store, since time.Time) (*FetchSummary, error) {
	logger := slog.Default().With("component", "engine")

	projects, err := fetcher.FetchProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}

	pledges, err := fetcher.FetchPledges(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pledges: %w", err)
	}
	successful := darujme.FilterSuccessful(pledges)

	if err := store.SaveProjects(projects); err != nil {
		return nil, err
	}
	if err := store.SavePledges(successful); err != nil {
		return nil, err
	}

	logger.Info("Saved snapshots",
		"since", since.Format("2006-01-02"),
		"projects", len(projects),
		"pledges", len(pledges),
		"successful", len(successful))

	return &FetchSummary{
		Since:             since,
		Projects:          len(projects),
		PledgesFetched:    len(pledges),
		SuccessfulPledges: len(successful),
	}, nil
}
