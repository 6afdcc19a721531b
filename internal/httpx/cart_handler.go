package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-storefront.git/internal/cart"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
)

type CartHandler struct {
	Catalog *catalog.Repo
	Carts   *cart.Store
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/cart", h.viewCart)
	r.Post("/cart/add", h.addToCart)
	r.Post("/cart/update", h.updateCart)
	r.Post("/cart/clear", h.clearCart)
}

type cartLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
	Subtotal  float64 `json:"subtotal"`
}

type cartView struct {
	Items []cartLine `json:"items"`
	Total float64    `json:"total"`
}

// viewCart prices the cart with live catalog data; lines whose product has
// vanished are shown with qty only so the customer can drop them.
func (h *CartHandler) viewCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.Get(ctx, sid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	view := cartView{Items: []cartLine{}}
	for pid, qty := range c {
		p, err := h.Catalog.Get(ctx, pid)
		if errors.Is(err, catalog.ErrNotFound) {
			view.Items = append(view.Items, cartLine{ProductID: pid, Qty: qty})
			continue
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		sub := p.Price * float64(qty)
		view.Items = append(view.Items, cartLine{ProductID: pid, Name: p.Name, Qty: qty, Price: p.Price, Subtotal: sub})
		view.Total += sub
	}
	writeJSON(w, http.StatusOK, view)
}

type addToCartReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

func (h *CartHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session"})
		return
	}

	var req addToCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ProductID == "" || req.Qty <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.Catalog.Get(ctx, req.ProductID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if err := h.Carts.Add(ctx, sid, req.ProductID, req.Qty); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateCartReq struct {
	Items map[string]any `json:"items"`
}

// qtyOf coerces whatever the client sent; malformed quantities count as
// zero and get pruned by ReplaceAll.
func qtyOf(v any) int {
	switch q := v.(type) {
	case float64:
		return int(q)
	case string:
		return cart.ParseQty(q)
	default:
		return 0
	}
}

// updateCart replaces the whole cart; non-positive quantities are dropped.
func (h *CartHandler) updateCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session"})
		return
	}

	var req updateCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items := make(map[string]int, len(req.Items))
	for pid, v := range req.Items {
		items[pid] = qtyOf(v)
	}
	if err := h.Carts.Save(ctx, sid, cart.ReplaceAll(items)); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.Clear(ctx, sid); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
