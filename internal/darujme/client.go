// Package darujme fetches pledges and projects from the Darujme.cz donation platform.
package darujme

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/donor-sync/internal/common"
	"github.com/Veraticus/donor-sync/internal/model"
)

const dateLayout = "2006-01-02"

// Config holds donation platform credentials.
type Config struct {
	OrgID     string
	APIID     string
	APISecret string
	BaseURL   string
	Timeout   time.Duration
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.OrgID == "" {
		return fmt.Errorf("%w: darujme organization ID is required", common.ErrMissingConfig)
	}
	if c.APIID == "" {
		return fmt.Errorf("%w: darujme API ID is required", common.ErrMissingConfig)
	}
	if c.APISecret == "" {
		return fmt.Errorf("%w: darujme API secret is required", common.ErrMissingConfig)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("%w: darujme base URL is required", common.ErrMissingConfig)
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("%w: invalid darujme base URL: %v", common.ErrInvalidConfig, err)
	}
	return nil
}

// Client implements the PledgeFetcher interface.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	orgID      string
	apiID      string
	apiSecret  string
	baseURL    string
}

type pledgesResponse struct {
	Pledges []model.Pledge `json:"pledges"`
}

type projectsResponse struct {
	Projects []model.Project `json:"projects"`
}

// NewClient creates a new donation platform client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		orgID:     cfg.OrgID,
		apiID:     cfg.APIID,
		apiSecret: cfg.APISecret,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: slog.Default().With("component", "darujme"),
	}, nil
}

// FetchPledges returns every pledge pledged on or after since. The result is
// not filtered by transaction state; see FilterSuccessful.
func (c *Client) FetchPledges(ctx context.Context, since time.Time) ([]model.Pledge, error) {
	params := c.credentials()
	params.Set("fromPledgedDate", since.Format(dateLayout))

	c.logger.Info("Fetching pledges", "from", since.Format(dateLayout))

	var resp pledgesResponse
	if err := c.get(ctx, "pledges-by-filter", params, &resp); err != nil {
		return nil, err
	}

	c.logger.Info("Fetched pledges", "count", len(resp.Pledges))
	return resp.Pledges, nil
}

// FetchProjects returns all projects of the organization.
func (c *Client) FetchProjects(ctx context.Context) ([]model.Project, error) {
	c.logger.Info("Fetching projects")

	var resp projectsResponse
	if err := c.get(ctx, "projects", c.credentials(), &resp); err != nil {
		return nil, err
	}

	c.logger.Info("Fetched projects", "count", len(resp.Projects))
	return resp.Projects, nil
}

func (c *Client) credentials() url.Values {
	params := url.Values{}
	params.Set("apiId", c.apiID)
	params.Set("apiSecret", c.apiSecret)
	return params
}

func (c *Client) get(ctx context.Context, resource string, params url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/organization/%s/%s", c.baseURL, url.PathEscape(c.orgID), resource)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the API secret; keep it out of the error.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("%w: %s: %v", common.ErrFetchFailed, resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s: status %d - %s", common.ErrFetchFailed, resource, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", common.ErrFetchFailed, resource, err)
	}
	return nil
}

// FilterSuccessful keeps pledges with at least one successful transaction.
func FilterSuccessful(pledges []model.Pledge) []model.Pledge {
	successful := make([]model.Pledge, 0, len(pledges))
	for _, p := range pledges {
		if p.IsSuccessful() {
			successful = append(successful, p)
		}
	}
	return successful
}

// ResolveTimeframe converts a timeframe token into the earliest pledge date to
// fetch: "week" is 7 days back, "year" 365 days, digits an explicit day count.
func ResolveTimeframe(token string, now time.Time) (time.Time, error) {
	days, err := timeframeDays(token)
	if err != nil {
		return time.Time{}, err
	}
	return now.AddDate(0, 0, -days), nil
}

func timeframeDays(token string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "week":
		return 7, nil
	case "year":
		return 365, nil
	}

	if token == "" || strings.TrimLeft(token, "0123456789") != "" {
		return 0, fmt.Errorf("%w: got %q", common.ErrInvalidTimeframe, token)
	}
	days, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: got %q", common.ErrInvalidTimeframe, token)
	}
	return days, nil
}
