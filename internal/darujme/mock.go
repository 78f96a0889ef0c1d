package darujme

import (
	"context"
	"time"

	"github.com/Veraticus/donor-sync/internal/model"
)

// MockClient is a mock implementation of PledgeFetcher for testing.
type MockClient struct {
	// Functions that can be set by tests to control behavior
	FetchPledgesFn  func(ctx context.Context, since time.Time) ([]model.Pledge, error)
	FetchProjectsFn func(ctx context.Context) ([]model.Project, error)

	// Call tracking
	FetchPledgesCalls  []time.Time
	FetchProjectsCalls int
}

// NewMockClient creates a new mock donation platform client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// FetchPledges implements PledgeFetcher.FetchPledges.
func (m *MockClient) FetchPledges(ctx context.Context, since time.Time) ([]model.Pledge, error) {
	m.FetchPledgesCalls = append(m.FetchPledgesCalls, since)

	if m.FetchPledgesFn != nil {
		return m.FetchPledgesFn(ctx, since)
	}
	return []model.Pledge{}, nil
}

// FetchProjects implements PledgeFetcher.FetchProjects.
func (m *MockClient) FetchProjects(ctx context.Context) ([]model.Project, error) {
	m.FetchProjectsCalls++

	if m.FetchProjectsFn != nil {
		return m.FetchProjectsFn(ctx)
	}
	return []model.Project{}, nil
}

var _ PledgeFetcher = (*MockClient)(nil)
