package anabix

import (
	"context"
	"encoding/json"
	"fmt"
)

type listRecord struct {
	Title  string  `json:"title"`
	IDList flexInt `json:"idList"`
	ID     flexInt `json:"id"`
}

// FindListByTitle returns the id of the list whose title matches exactly
// (case-sensitive).
func (c *Client) FindListByTitle(ctx context.Context, title string) (int, bool, error) {
	records, _, err := c.getAll(ctx, requestLists, map[string]any{"title": title}, 0)
	if err != nil {
		return 0, false, err
	}

	for _, rec := range records {
		var lr listRecord
		if err := json.Unmarshal(rec.Raw, &lr); err != nil {
			return 0, false, fmt.Errorf("invalid list record: %w", err)
		}
		if lr.Title == title {
			if id := rec.firstID(lr.IDList, lr.ID); id != 0 {
				return id, true, nil
			}
		}
	}
	return 0, false, nil
}
