package orders

import (
	"context"
)

type ItemDetail struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Qty         int     `json:"qty"`
	Price       float64 `json:"price"`
}

type OrderWithItems struct {
	Order
	Items []ItemDetail `json:"items"`
}

// ListWithItems returns every order newest-first with its line items, joined
// against the catalog for display names. Feeds the admin review and the CSV
// export. Deleted products fall back to the stored product id.
func (r *Repo) ListWithItems(ctx context.Context) ([]OrderWithItems, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, session_id, customer_name, customer_phone, customer_address, pickup_point, total, status, created_at
		FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderWithItems
	byID := map[string]int{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.SessionID, &o.CustomerName, &o.CustomerPhone, &o.CustomerAddress,
			&o.PickupPoint, &o.Total, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		byID[o.ID] = len(out)
		out = append(out, OrderWithItems{Order: o})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	irows, err := r.DB.Query(ctx, `
		SELECT oi.order_id, oi.product_id, COALESCE(p.name, oi.product_id), oi.qty, oi.price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id`)
	if err != nil {
		return nil, err
	}
	defer irows.Close()

	for irows.Next() {
		var orderID string
		var d ItemDetail
		if err := irows.Scan(&orderID, &d.ProductID, &d.ProductName, &d.Qty, &d.Price); err != nil {
			return nil, err
		}
		if i, ok := byID[orderID]; ok {
			out[i].Items = append(out[i].Items, d)
		}
	}
	return out, irows.Err()
}
