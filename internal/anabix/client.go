// Package anabix is a client for the Anabix CRM API. Every call is a POST of a
// JSON envelope naming the resource family and method.
package anabix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/donor-sync/internal/common"
	"golang.org/x/time/rate"
)

// Resource families.
const (
	requestLists      = "lists"
	requestContacts   = "contacts"
	requestActivities = "activities"
	requestDeals      = "deals"
)

// Methods.
const (
	methodGetAll      = "getAll"
	methodCreate      = "create"
	methodManageLists = "manageLists"
)

const (
	statusSuccess = "SUCCESS"
	pageLimit     = 200
)

// Config holds CRM credentials and transport settings.
type Config struct {
	URL               string
	Username          string
	Token             string
	Timeout           time.Duration
	RequestsPerSecond float64 // <= 0 disables pacing
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: anabix API URL is required", common.ErrMissingConfig)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: anabix username is required", common.ErrMissingConfig)
	}
	if c.Token == "" {
		return fmt.Errorf("%w: anabix API token is required", common.ErrMissingConfig)
	}
	return nil
}

// APIError is returned when the CRM answers with a non-SUCCESS status.
type APIError struct {
	RequestType   string
	RequestMethod string
	Status        string
	Message       string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return fmt.Sprintf("anabix %s/%s returned %s: %s", e.RequestType, e.RequestMethod, e.Status, msg)
}

// Unwrap lets callers match APIError against common.ErrCRMRequest.
func (e *APIError) Unwrap() error {
	return common.ErrCRMRequest
}

// Client implements the CRM interface.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	url        string
	username   string
	token      string
}

type envelope struct {
	Data          any    `json:"data"`
	Username      string `json:"username"`
	Token         string `json:"token"`
	RequestType   string `json:"requestType"`
	RequestMethod string `json:"requestMethod"`
}

type response struct {
	Metadata     *metadata       `json:"metadata"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"errorMessage"`
	Data         json.RawMessage `json:"data"`
}

type metadata struct {
	TotalRecords flexInt `json:"totalRecords"`
}

// getAllRequest is the data block of every getAll call.
type getAllRequest struct {
	Criteria        map[string]any `json:"criteria,omitempty"`
	Limit           int            `json:"limit"`
	Offset          int            `json:"offset"`
	IncludeMetadata int            `json:"includeMetadata"`
}

// NewClient creates a new CRM client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		url:        cfg.URL,
		username:   cfg.Username,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     slog.Default().With("component", "anabix"),
	}, nil
}

// call sends one envelope and returns the decoded SUCCESS response.
func (c *Client) call(ctx context.Context, requestType, method string, data any) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("anabix %s/%s: %w", requestType, method, err)
	}

	payload, err := json.Marshal(envelope{
		Username:      c.username,
		Token:         c.token,
		RequestType:   requestType,
		RequestMethod: method,
		Data:          data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s/%s request: %w", requestType, method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Calling CRM", "request_type", requestType, "request_method", method)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", common.ErrCRMRequest, requestType, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s/%s: status %d - %s",
			common.ErrCRMRequest, requestType, method, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %s/%s: failed to decode response: %v", common.ErrCRMRequest, requestType, method, err)
	}

	if out.Status != statusSuccess {
		return nil, &APIError{
			RequestType:   requestType,
			RequestMethod: method,
			Status:        out.Status,
			Message:       out.ErrorMessage,
		}
	}

	return &out, nil
}

// getAll runs a single-page getAll query and returns its normalized records.
func (c *Client) getAll(ctx context.Context, requestType string, criteria map[string]any, offset int) ([]record, *metadata, error) {
	resp, err := c.call(ctx, requestType, methodGetAll, getAllRequest{
		Limit:           pageLimit,
		Offset:          offset,
		IncludeMetadata: 1,
		Criteria:        criteria,
	})
	if err != nil {
		return nil, nil, err
	}

	records, err := normalizeRecords(resp.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s/%s: %v", common.ErrCRMRequest, requestType, methodGetAll, err)
	}
	return records, resp.Metadata, nil
}

// create runs a create call and extracts the new record's id from idField.
func (c *Client) create(ctx context.Context, requestType, idField string, data any) (int, error) {
	resp, err := c.call(ctx, requestType, methodCreate, data)
	if err != nil {
		return 0, err
	}

	var created map[string]json.RawMessage
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		return 0, fmt.Errorf("%w: %s/create: unexpected response data: %v", common.ErrCRMRequest, requestType, err)
	}
	var id flexInt
	if raw, ok := created[idField]; ok {
		if err := json.Unmarshal(raw, &id); err != nil {
			return 0, fmt.Errorf("%w: %s/create: invalid %s: %v", common.ErrCRMRequest, requestType, idField, err)
		}
	}
	if id == 0 {
		return 0, fmt.Errorf("%w: %s/create: response has no %s", common.ErrCRMRequest, requestType, idField)
	}
	return int(id), nil
}

// IsAPIError reports whether err carries a CRM-side rejection.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
