package orders

import "time"

type Order struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"-"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerAddress string    `json:"customer_address"`
	PickupPoint     string    `json:"pickup_point"`
	Total           float64   `json:"total"` // snapshot at creation, never recomputed
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

type Item struct {
	OrderID   string  `json:"-"`
	ProductID string  `json:"product_id"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"` // unit price snapshot at order creation
}

type StockShortage struct {
	ProductID string `json:"product_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}
