// Package checkout orchestrates the storefront's core flow: reservation-free
// intent creation against the payment gateway, and the later reconciliation
// that verifies the payment signature and commits stock exactly once.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-storefront.git/internal/cart"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/orders"
	"github.com/ariefcatur/go-storefront.git/internal/payments"
)

const Currency = "INR"

type CatalogStore interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}

type OrderStore interface {
	Create(ctx context.Context, o orders.Order, items []orders.Item) error
	Finalize(ctx context.Context, orderID string) (orders.FinalizeResult, error)
	MarkPaymentFailed(ctx context.Context, orderID string) (bool, error)
}

type CartStore interface {
	Get(ctx context.Context, sessionID string) (cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type Service struct {
	Catalog CatalogStore
	Orders  OrderStore
	Carts   CartStore
	Gateway payments.Gateway
}

type CustomerDetails struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	PickupPoint string `json:"pickup_point"`
}

type Intent struct {
	IntentID    string  `json:"intent_id"`
	AmountMinor int64   `json:"amount_minor"`
	Currency    string  `json:"currency"`
	OrderID     string  `json:"order_id"`
	KeyID       string  `json:"key_id"`
	Total       float64 `json:"-"`
	Items       []orders.Item
	PickupPoint string
}

// CreateIntent validates the session cart against live stock, computes the
// total from live prices, registers the remote intent and persists a
// provisional Pending Payment order with price snapshots. Stock is not
// reserved; concurrent checkouts race deliberately and the loser is caught
// at finalization.
func (s *Service) CreateIntent(ctx context.Context, sessionID string, cust CustomerDetails) (Intent, error) {
	c, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return Intent{}, fmt.Errorf("load cart: %w", err)
	}
	if c.Empty() {
		return Intent{}, ErrEmptyCart
	}

	// Stable line order keeps totals and snapshots deterministic.
	pids := make([]string, 0, len(c))
	for pid := range c {
		pids = append(pids, pid)
	}
	sort.Strings(pids)

	orderID := uuid.NewString()
	var total float64
	items := make([]orders.Item, 0, len(c))
	for _, pid := range pids {
		qty := c[pid]
		p, err := s.Catalog.Get(ctx, pid)
		if errors.Is(err, catalog.ErrNotFound) {
			return Intent{}, &UnknownProductError{ProductID: pid}
		}
		if err != nil {
			return Intent{}, fmt.Errorf("load product %s: %w", pid, err)
		}
		if p.Stock < qty {
			return Intent{}, &StockError{ProductID: pid, Name: p.Name, Available: p.Stock}
		}
		total += p.Price * float64(qty)
		items = append(items, orders.Item{OrderID: orderID, ProductID: pid, Qty: qty, Price: p.Price})
	}

	amountMinor := int64(math.Round(total * 100))
	receipt := "rcpt_" + orderID

	intentID, err := s.Gateway.CreateIntent(ctx, amountMinor, Currency, receipt)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}

	o := orders.Order{
		ID:              orderID,
		SessionID:       sessionID,
		CustomerName:    cust.Name,
		CustomerPhone:   cust.Phone,
		CustomerAddress: cust.Address,
		PickupPoint:     cust.PickupPoint,
		Total:           total,
		Status:          orders.StatusPendingPayment,
	}
	if err := s.Orders.Create(ctx, o, items); err != nil {
		return Intent{}, fmt.Errorf("persist order: %w", err)
	}

	return Intent{
		IntentID:    intentID,
		AmountMinor: amountMinor,
		Currency:    Currency,
		OrderID:     orderID,
		KeyID:       s.Gateway.KeyID(),
		Total:       total,
		Items:       items,
		PickupPoint: cust.PickupPoint,
	}, nil
}

type FinalizeInput struct {
	IntentID  string `json:"intent_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	OrderID   string `json:"order_id"`
}

type FinalizeOutcome struct {
	OrderID     string
	Status      orders.Status
	PickupPoint string
	Shortages   []orders.StockShortage
	// AlreadyFinal marks a repeat call on an order that had left Pending
	// Payment before this call; nothing was mutated. Idempotent narrows
	// that to the Completed case, which still reports success.
	AlreadyFinal bool
	Idempotent   bool
}

// Finalize reconciles the gateway callback. Ordering is fixed: verify
// signature, load order, re-check stock, decrement, commit, clear cart.
// Idempotent per order id: a repeat call on a Completed order succeeds
// without touching stock.
func (s *Service) Finalize(ctx context.Context, in FinalizeInput) (FinalizeOutcome, error) {
	if !s.Gateway.VerifySignature(in.IntentID, in.PaymentID, in.Signature) {
		// Mark the order failed if it exists and is still pending; stock untouched.
		marked, err := s.Orders.MarkPaymentFailed(ctx, in.OrderID)
		if err != nil {
			return FinalizeOutcome{}, fmt.Errorf("mark payment failed: %w", err)
		}
		out := FinalizeOutcome{OrderID: in.OrderID}
		if marked {
			out.Status = orders.StatusPaymentFailed
		}
		return out, ErrBadSignature
	}

	res, err := s.Orders.Finalize(ctx, in.OrderID)
	if errors.Is(err, orders.ErrNotFound) {
		return FinalizeOutcome{}, ErrOrderNotFound
	}
	if err != nil {
		return FinalizeOutcome{}, fmt.Errorf("finalize order: %w", err)
	}

	out := FinalizeOutcome{OrderID: in.OrderID, Status: res.Status, PickupPoint: res.PickupPoint, Shortages: res.Shortages}
	if res.AlreadyFinal {
		out.AlreadyFinal = true
		out.Idempotent = res.Status == orders.StatusCompleted
		return out, nil
	}

	if res.Status == orders.StatusCompleted {
		if err := s.Carts.Clear(ctx, res.SessionID); err != nil {
			// The order is committed; a stale cart is the lesser problem.
			return out, fmt.Errorf("clear cart: %w", err)
		}
	}
	return out, nil
}
