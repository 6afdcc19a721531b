package cart

import "strconv"

// Cart maps product id -> quantity for one customer session.
// Entries with qty <= 0 are pruned and never stored.
type Cart map[string]int

// Add merges qty into the existing quantity for the product.
// Non-positive qty is ignored.
func (c Cart) Add(productID string, qty int) {
	if qty <= 0 {
		return
	}
	c[productID] += qty
}

// ReplaceAll overwrites the whole cart with the given quantities,
// dropping non-positive entries. Used by the bulk update action.
func ReplaceAll(items map[string]int) Cart {
	out := Cart{}
	for pid, qty := range items {
		if qty > 0 {
			out[pid] = qty
		}
	}
	return out
}

// ParseQty treats malformed quantities as zero, so they get pruned.
func ParseQty(s string) int {
	q, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return q
}

func (c Cart) Empty() bool { return len(c) == 0 }
