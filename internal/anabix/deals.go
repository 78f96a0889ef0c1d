package anabix

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/donor-sync/internal/model"
)

type dealRecord struct {
	Amount        flexFloat `json:"amount"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Status        string    `json:"status"`
	Deadline      string    `json:"deadline"`
	CompletedDate string    `json:"completedDate"`
	IDDeal        flexInt   `json:"idDeal"`
	ID            flexInt   `json:"id"`
	IDContact     flexInt   `json:"idContact"`
	IDOwner       flexInt   `json:"idOwner"`
}

// GetDealsByTitle returns the deals the CRM matches for title, in response
// order. The CRM's title criterion may be looser than equality; callers
// compare titles themselves.
func (c *Client) GetDealsByTitle(ctx context.Context, title string) ([]model.Deal, error) {
	records, _, err := c.getAll(ctx, requestDeals, map[string]any{"title": title}, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get deals: %w", err)
	}

	deals := make([]model.Deal, 0, len(records))
	for _, rec := range records {
		var dr dealRecord
		if err := json.Unmarshal(rec.Raw, &dr); err != nil {
			return nil, fmt.Errorf("invalid deal record: %w", err)
		}
		deal := model.Deal{
			ID:            rec.firstID(dr.IDDeal, dr.ID),
			Title:         dr.Title,
			Body:          dr.Body,
			Status:        dr.Status,
			Deadline:      dr.Deadline,
			CompletedDate: dr.CompletedDate,
			ContactID:     int(dr.IDContact),
			OwnerID:       int(dr.IDOwner),
		}
		if dr.Amount.Valid {
			amount := dr.Amount.Value
			deal.Amount = &amount
		}
		deals = append(deals, deal)
	}
	return deals, nil
}

// CreateDeal creates a deal and returns its id. Optional fields are sent only
// when set.
func (c *Client) CreateDeal(ctx context.Context, deal model.Deal) (int, error) {
	status := deal.Status
	if status == "" {
		status = model.DealStatusOpen
	}

	data := map[string]any{
		"title":     deal.Title,
		"idContact": deal.ContactID,
		"body":      deal.Body,
		"status":    status,
	}
	if deal.OwnerID != 0 {
		data["idOwner"] = deal.OwnerID
	}
	if deal.Amount != nil {
		data["amount"] = *deal.Amount
	}
	if deal.Deadline != "" {
		data["deadline"] = deal.Deadline
	}
	if deal.CompletedDate != "" {
		data["completedDate"] = deal.CompletedDate
	}

	id, err := c.create(ctx, requestDeals, "idDeal", data)
	if err != nil {
		return 0, fmt.Errorf("failed to create deal: %w", err)
	}
	return id, nil
}
