// Package menu holds the static catalog the chatbot sells from. Items are
// read-only and shared by every device; prices are locked into an order at
// add time, so editing this table never rewrites an existing cart.
package menu

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	// PrepTime is the preparation time in minutes.
	PrepTime int `json:"prep_time"`
}

var items = []Item{
	{ID: 1, Name: "Jollof Rice", Description: "Spicy and flavorful Nigerian Jollof rice", Price: decimal.NewFromInt(2000), Category: "Main Dishes", PrepTime: 20},
	{ID: 2, Name: "Fried Rice", Description: "Nigerian-style fried rice with mixed vegetables", Price: decimal.NewFromInt(1800), Category: "Main Dishes", PrepTime: 20},
	{ID: 3, Name: "Chicken", Description: "Grilled or fried chicken", Price: decimal.NewFromInt(1500), Category: "Proteins", PrepTime: 15},
	{ID: 4, Name: "Beef Suya", Description: "Spicy grilled beef with traditional suya spices", Price: decimal.NewFromInt(2000), Category: "Proteins", PrepTime: 15},
	{ID: 5, Name: "Moi Moi", Description: "Steamed bean pudding with vegetables", Price: decimal.NewFromInt(800), Category: "Sides", PrepTime: 10},
	{ID: 6, Name: "Plantain", Description: "Fried sweet plantains", Price: decimal.NewFromInt(500), Category: "Sides", PrepTime: 8},
	{ID: 7, Name: "Chapman", Description: "Nigerian cocktail drink", Price: decimal.NewFromInt(700), Category: "Beverages", PrepTime: 3},
	{ID: 8, Name: "Zobo", Description: "Hibiscus drink", Price: decimal.NewFromInt(500), Category: "Beverages", PrepTime: 1},
}

// Items returns a copy of the full catalog.
func Items() []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// ByID looks an item up by its numeric id.
func ByID(id int) (Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// CategoryNames returns category names in menu order, without duplicates.
func CategoryNames() []string {
	var names []string
	seen := map[string]bool{}
	for _, it := range items {
		if !seen[it.Category] {
			seen[it.Category] = true
			names = append(names, it.Category)
		}
	}
	return names
}

// Categories groups the catalog by category name.
func Categories() map[string][]Item {
	out := map[string][]Item{}
	for _, it := range items {
		out[it.Category] = append(out[it.Category], it)
	}
	return out
}

// FormatNaira renders an amount as whole naira with thousands separators,
// e.g. 2000 -> "₦2,000".
func FormatNaira(amount decimal.Decimal) string {
	s := amount.Round(0).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-₦" + b.String()
	}
	return "₦" + b.String()
}
