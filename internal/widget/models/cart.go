package models

import "github.com/shopspring/decimal"

// Cart is an ordered list of line items, unique by id.
type Cart []LineItem

// Normalize drops items without an id, lifts quantities below one to one
// and folds repeated ids into the first occurrence. Order is preserved.
func (c Cart) Normalize() Cart {
	out := make(Cart, 0, len(c))
	seen := make(map[string]int, len(c))
	for _, it := range c {
		if it.ID == "" {
			continue
		}
		if idx, ok := seen[it.ID]; ok {
			out[idx].Qty += it.Quantity()
			continue
		}
		it.Qty = it.Quantity()
		seen[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}

// Index returns the position of id or -1.
func (c Cart) Index(id string) int {
	for i, it := range c {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Count is the total number of units.
func (c Cart) Count() int {
	n := 0
	for _, it := range c {
		n += it.Quantity()
	}
	return n
}

// Total sums price times quantity over all items.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Clone returns a copy that shares nothing with c.
func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
