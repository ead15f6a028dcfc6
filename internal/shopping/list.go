// Package shopping models the categorized shopping list produced with a plan.
package shopping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Item is one line of the shopping list.
type Item struct {
	Item       string `json:"item"`
	Quantity   string `json:"quantity"`
	MealsCount int    `json:"meals_count"`
}

// UnmarshalJSON accepts what models actually write: numeric quantities, counts
// given as strings, or a bare string for the whole item. MealsCount is at least 1.
func (it *Item) UnmarshalJSON(data []byte) error {
	if name, ok := looseString(data); ok {
		*it = Item{Item: name, MealsCount: 1}
		return nil
	}

	var raw struct {
		Item       json.RawMessage `json:"item"`
		Quantity   json.RawMessage `json:"quantity"`
		MealsCount json.RawMessage `json:"meals_count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	it.Item, _ = looseString(raw.Item)
	it.Quantity, _ = looseString(raw.Quantity)
	it.MealsCount = 1
	if s, ok := looseString(raw.MealsCount); ok {
		if n, err := strconv.ParseFloat(s, 64); err == nil && n >= 1 {
			it.MealsCount = int(math.Floor(n))
		}
	}
	return nil
}

// looseString reads a JSON string or number as text.
func looseString(data []byte) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case json.Number:
		return x.String(), true
	}
	return "", false
}

// List maps a free-form category (e.g. "Produce") to its items.
type List map[string][]Item

// Categories returns the category names in a stable order.
func (l List) Categories() []string {
	cats := make([]string, 0, len(l))
	for c := range l {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// Len counts items across all categories.
func (l List) Len() int {
	n := 0
	for _, items := range l {
		n += len(items)
	}
	return n
}

// Clone returns a deep copy.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for c, items := range l {
		out[c] = append([]Item(nil), items...)
	}
	return out
}

// Markdown renders the list as bold category headers followed by bullet items.
func (l List) Markdown() string {
	var sb strings.Builder
	for i, c := range l.Categories() {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "**%s**\n", c)
		for _, it := range l[c] {
			fmt.Fprintf(&sb, "- %s (%s)\n", it.Item, it.Quantity)
		}
	}
	return sb.String()
}
