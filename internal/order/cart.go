package order

import (
	"github.com/shopspring/decimal"

	"github.com/tobiadex/chopchat/internal/menu"
)

// Cart mutations are pure and synchronous: they rebuild the item list and
// total in memory, and nothing here touches storage. Callers persist the
// whole order afterwards so a failed write never leaves a half-updated row.

// AddItem merges qty units of a menu item into the order. A repeated item
// bumps the quantity on its existing row and keeps the price it was first
// added at; a new item copies the catalog price.
func (o *Order) AddItem(mi menu.Item, qty int) {
	if qty < 1 {
		qty = 1
	}
	for i := range o.Items {
		if o.Items[i].MenuItemID == mi.ID {
			o.Items[i].Quantity += qty
			o.Items[i].Subtotal = o.Items[i].Price.Mul(decimal.NewFromInt(int64(o.Items[i].Quantity)))
			o.recompute()
			return
		}
	}
	o.Items = append(o.Items, Item{
		MenuItemID: mi.ID,
		Name:       mi.Name,
		Price:      mi.Price,
		Quantity:   qty,
		Subtotal:   mi.Price.Mul(decimal.NewFromInt(int64(qty))),
	})
	o.recompute()
}

// RemoveItem drops the row for a menu item, if present.
func (o *Order) RemoveItem(menuItemID int) {
	out := o.Items[:0]
	for _, it := range o.Items {
		if it.MenuItemID != menuItemID {
			out = append(out, it)
		}
	}
	o.Items = out
	o.recompute()
}

// SetQuantity pins an item's quantity; qty <= 0 removes the row entirely.
func (o *Order) SetQuantity(menuItemID, qty int) {
	if qty <= 0 {
		o.RemoveItem(menuItemID)
		return
	}
	for i := range o.Items {
		if o.Items[i].MenuItemID == menuItemID {
			o.Items[i].Quantity = qty
			o.Items[i].Subtotal = o.Items[i].Price.Mul(decimal.NewFromInt(int64(qty)))
			break
		}
	}
	o.recompute()
}

// recompute keeps TotalAmount equal to the sum of item subtotals. Every
// mutation above ends here; the total is never written independently.
func (o *Order) recompute() {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal)
	}
	o.TotalAmount = total
}

// Summary is the display-time view of an order. Tax is applied here and
// only here; persisted subtotals never include it.
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	// PrepTime is the slowest item's preparation time in minutes.
	PrepTime int `json:"prep_time"`
}

func (o *Order) Summarize(taxRate decimal.Decimal) Summary {
	tax := o.TotalAmount.Mul(taxRate).Round(2)
	prep := 0
	for _, it := range o.Items {
		if mi, ok := menu.ByID(it.MenuItemID); ok && mi.PrepTime > prep {
			prep = mi.PrepTime
		}
	}
	return Summary{
		Subtotal: o.TotalAmount,
		Tax:      tax,
		Total:    o.TotalAmount.Add(tax),
		PrepTime: prep,
	}
}
