package httpx

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-storefront.git/internal/orders"
	"github.com/ariefcatur/go-storefront.git/internal/redisx"
)

type OrdersHandler struct {
	Orders     *orders.Repo
	Redis      *redis.Client
	AdminToken string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/orders/{id}", h.getReceipt)
	r.Get("/orders/{id}/status", h.getStatus)

	r.Group(func(g chi.Router) {
		g.Use(RequireAdmin(h.AdminToken))
		g.Get("/admin/orders", h.listOrders)
		g.Get("/admin/orders/export", h.exportOrders)
	})
}

type receiptResp struct {
	orders.Order
	Items []orders.Item `json:"items"`
}

func (h *OrdersHandler) getReceipt(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, items, err := h.Orders.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, receiptResp{Order: o, Items: items})
}

// getStatus serves from the redis cache the fulfillment consumer maintains,
// falling back to the DB.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	o, _, err := h.Orders.Get(ctx, orderID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	body, _ := json.Marshal(map[string]any{"status": o.Status})
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	os, err := h.Orders.ListWithItems(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, os)
}

// exportOrders streams the reporting CSV: one row per order, line items
// folded into a "name xQty @ price" summary column.
func (h *OrdersHandler) exportOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	os, err := h.Orders.ListWithItems(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=orders.csv")
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"order_id", "date", "customer_name", "phone", "address", "pickup_point", "total", "status", "items"})
	for _, o := range os {
		parts := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			parts = append(parts, fmt.Sprintf("%s x%d @ %g", it.ProductName, it.Qty, it.Price))
		}
		_ = cw.Write([]string{
			o.ID,
			o.CreatedAt.Format(time.RFC3339),
			o.CustomerName,
			o.CustomerPhone,
			o.CustomerAddress,
			o.PickupPoint,
			fmt.Sprintf("%g", o.Total),
			string(o.Status),
			strings.Join(parts, "; "),
		})
	}
	cw.Flush()
}
