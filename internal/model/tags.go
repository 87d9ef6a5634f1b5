package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// DefaultTag is applied to every file uploaded without tags
const DefaultTag = "general"

// Tags is an ordered set of strings stored as a JSON array in a single column
type Tags []string

// Value implements the driver.Valuer interface.
// This defines how the slice is stored in the database.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		t = Tags{}
	}

	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags, %w", err)
	}

	return string(b), nil
}

// Scan implements the sql.Scanner interface.
// This defines how the database value is converted back into go.
func (t *Tags) Scan(value any) error {
	if value == nil {
		*t = Tags{}
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("failed to scan Tags, %v", value)
	}

	if len(b) == 0 {
		*t = Tags{}
		return nil
	}

	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("failed to decode tags, %w", err)
	}

	*t = out
	return nil
}

// NormalizeTags accepts tags the way clients send them: repeated form
// fields, a single comma separated value or a mix of both. Blank entries and
// duplicates are dropped, order of first appearance is kept. An empty result
// falls back to DefaultTag.
func NormalizeTags(raw []string) Tags {
	out := Tags{}

	for _, r := range raw {
		for _, tag := range strings.Split(r, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "" || slices.Contains(out, tag) {
				continue
			}

			out = append(out, tag)
		}
	}

	if len(out) == 0 {
		return Tags{DefaultTag}
	}

	return out
}
