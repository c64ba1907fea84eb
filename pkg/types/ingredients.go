package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Ingredients groups a product's ingredient list by category
// (e.g. "proteinas" -> ["pollo", "salmón"]). Persisted as JSONB.
type Ingredients map[string][]string

// Value marshals the map into JSON for Postgres.
func (i Ingredients) Value() (driver.Value, error) {
	if i == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the map.
func (i *Ingredients) Scan(value interface{}) error {
	if value == nil {
		*i = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("ingredients: unsupported scan type %T", value)
	}

	result := make(Ingredients)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*i = result
	return nil
}

// Normalize trims names, drops empty entries and empty categories.
func (i Ingredients) Normalize() Ingredients {
	if len(i) == 0 {
		return Ingredients{}
	}
	out := make(Ingredients, len(i))
	for category, items := range i {
		key := strings.TrimSpace(category)
		if key == "" {
			continue
		}
		cleaned := make([]string, 0, len(items))
		for _, item := range items {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			out[key] = cleaned
		}
	}
	return out
}

// Categories returns the category names in stable order.
func (i Ingredients) Categories() []string {
	keys := make([]string, 0, len(i))
	for k := range i {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
