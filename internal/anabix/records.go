package anabix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// flexInt decodes integers the CRM sends as numbers, numeric strings or null.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("not an integer: %s", data)
	}
	*f = flexInt(n)
	return nil
}

// record is one element of a getAll result. Key is the mapping key when the
// CRM returned the collection keyed by id, empty for list responses.
type record struct {
	Key string
	Raw json.RawMessage
}

// keyID returns the mapping key as an id, or 0.
func (r record) keyID() int {
	n, err := strconv.Atoi(r.Key)
	if err != nil {
		return 0
	}
	return n
}

// normalizeRecords turns a getAll data block into one ordered sequence. The
// CRM returns either a JSON list or an object keyed by numeric id; objects are
// ordered by ascending numeric key because Go maps carry no order.
func normalizeRecords(data json.RawMessage) ([]record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("invalid record list: %w", err)
		}
		records := make([]record, 0, len(items))
		for _, item := range items {
			records = append(records, record{Raw: item})
		}
		return records, nil

	case '{':
		var items map[string]json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("invalid record map: %w", err)
		}
		keys := make([]string, 0, len(items))
		for k := range items {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			a, errA := strconv.Atoi(keys[i])
			b, errB := strconv.Atoi(keys[j])
			switch {
			case errA == nil && errB == nil:
				return a < b
			case errA == nil:
				return true
			case errB == nil:
				return false
			default:
				return keys[i] < keys[j]
			}
		})
		records := make([]record, 0, len(keys))
		for _, k := range keys {
			records = append(records, record{Key: k, Raw: items[k]})
		}
		return records, nil

	default:
		return nil, fmt.Errorf("unexpected data shape starting with %q", data[0])
	}
}

// firstID returns the first non-zero candidate, falling back to the record key.
func (r record) firstID(candidates ...flexInt) int {
	for _, c := range candidates {
		if c != 0 {
			return int(c)
		}
	}
	return r.keyID()
}

// flexFloat decodes an optional decimal sent as a number, a string or null.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		*f = flexFloat{}
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", data)
	}
	*f = flexFloat{Value: v, Valid: true}
	return nil
}
