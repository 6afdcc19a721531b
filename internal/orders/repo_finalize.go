package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type FinalizeResult struct {
	Status      Status
	SessionID   string
	PickupPoint string
	// AlreadyFinal means the order had left Pending Payment before this call;
	// Status then carries the existing terminal status and nothing was mutated.
	AlreadyFinal bool
	Shortages    []StockShortage
}

// Finalize is the single commit point that converts a provisional order into
// a stock-consuming completed one. One transaction: lock the order row (must
// still be Pending Payment), lock every product row, check all stocks before
// decrementing anything. A shortage commits the failure status with zero
// decrements; otherwise each product is decremented by the ordered quantity
// and the order becomes Completed. stock >= qty is re-asserted in the UPDATE
// itself so stock can never go negative.
func (r *Repo) Finalize(ctx context.Context, orderID string) (FinalizeResult, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return FinalizeResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var res FinalizeResult
	err = tx.QueryRow(ctx, `SELECT status, session_id, pickup_point FROM orders WHERE id=$1 FOR UPDATE`, orderID).
		Scan(&res.Status, &res.SessionID, &res.PickupPoint)
	if errors.Is(err, pgx.ErrNoRows) {
		return FinalizeResult{}, ErrNotFound
	}
	if err != nil {
		return FinalizeResult{}, err
	}
	if res.Status != StatusPendingPayment {
		res.AlreadyFinal = true
		return res, nil
	}

	rows, err := tx.Query(ctx, `SELECT product_id, qty FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return FinalizeResult{}, err
	}
	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Qty); err != nil {
			rows.Close()
			return FinalizeResult{}, err
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return FinalizeResult{}, err
	}

	// Lock and check every product before touching any stock.
	for _, it := range items {
		var stock int
		err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			// product deleted since the order was created
			res.Shortages = append(res.Shortages, StockShortage{ProductID: it.ProductID, Required: it.Qty, Available: 0})
			continue
		}
		if err != nil {
			return FinalizeResult{}, err
		}
		if stock < it.Qty {
			res.Shortages = append(res.Shortages, StockShortage{ProductID: it.ProductID, Required: it.Qty, Available: stock})
		}
	}

	if len(res.Shortages) > 0 {
		if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, orderID, StatusInsufficientStock); err != nil {
			return FinalizeResult{}, err
		}
		res.Status = StatusInsufficientStock
		if err := tx.Commit(ctx); err != nil {
			return FinalizeResult{}, err
		}
		return res, nil
	}

	for _, it := range items {
		ct, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = now()
		                         WHERE id=$1 AND stock >= $2`, it.ProductID, it.Qty)
		if err != nil {
			return FinalizeResult{}, err
		}
		if ct.RowsAffected() != 1 {
			return FinalizeResult{}, fmt.Errorf("stock decrement lost for product %s", it.ProductID)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, orderID, StatusCompleted); err != nil {
		return FinalizeResult{}, err
	}
	res.Status = StatusCompleted
	if err := tx.Commit(ctx); err != nil {
		return FinalizeResult{}, err
	}
	return res, nil
}
