package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

type Repo struct{ DB *pgxpool.Pool }

// Create persists a provisional order plus its item snapshots in one tx.
// No stock is touched here; the order is reservation-free until finalized.
func (r *Repo) Create(ctx context.Context, o Order, items []Item) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, session_id, customer_name, customer_phone, customer_address, pickup_point, total, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, o.ID, o.SessionID, o.CustomerName, o.CustomerPhone, o.CustomerAddress, o.PickupPoint, o.Total, o.Status)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, qty, price)
			VALUES ($1, $2, $3, $4)`,
			o.ID, it.ProductID, it.Qty, it.Price,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, orderID string) (Order, []Item, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, session_id, customer_name, customer_phone, customer_address, pickup_point, total, status, created_at
		FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.SessionID, &o.CustomerName, &o.CustomerPhone, &o.CustomerAddress, &o.PickupPoint, &o.Total, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, nil, ErrNotFound
	}
	if err != nil {
		return Order{}, nil, err
	}

	items, err := r.itemsOf(ctx, orderID)
	if err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}

func (r *Repo) itemsOf(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `SELECT order_id, product_id, qty, price FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Qty, &it.Price); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// MarkPaymentFailed flips a still-pending order to Payment Failed.
// Reports whether anything changed; a missing or already-terminal order is a no-op.
func (r *Repo) MarkPaymentFailed(ctx context.Context, orderID string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1 AND status=$3`,
		orderID, StatusPaymentFailed, StatusPendingPayment)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
