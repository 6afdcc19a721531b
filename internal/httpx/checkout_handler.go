package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-storefront.git/internal/checkout"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-storefront.git/internal/orders"
)

type CheckoutHandler struct {
	Checkout     *checkout.Service
	ProducerNew  *kafkax.Producer // order.created
	ProducerFin  *kafkax.Producer // order.finalized
	Service      string
	PickupPoints []string
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Get("/checkout", h.checkoutInfo)
	r.Post("/checkout/intent", h.createIntent)
	r.Post("/payment/verify", h.verifyPayment)
}

// checkoutInfo feeds the checkout page: pickup points and the public key id
// the payment widget needs.
func (h *CheckoutHandler) checkoutInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pickup_points": h.PickupPoints,
		"key_id":        h.Checkout.Gateway.KeyID(),
	})
}

type intentResp struct {
	IntentID    string `json:"intent_id"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
	KeyID       string `json:"key_id"`
}

func (h *CheckoutHandler) createIntent(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session"})
		return
	}

	var cust checkout.CustomerDetails
	if err := json.NewDecoder(r.Body).Decode(&cust); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	intent, err := h.Checkout.CreateIntent(ctx, sid, cust)
	if err != nil {
		var stockErr *checkout.StockError
		var unknownErr *checkout.UnknownProductError
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Cart empty"})
		case errors.As(err, &stockErr), errors.As(err, &unknownErr):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}

	h.publish(h.ProducerNew, orders.EventOrderCreated, intent.OrderID, r.Header.Get("X-Request-Id"),
		orders.OrderCreatedPayload{
			OrderID:     intent.OrderID,
			SessionID:   sid,
			PickupPoint: intent.PickupPoint,
			Items:       intent.Items,
			Total:       intent.Total,
			AmountMinor: intent.AmountMinor,
		})

	writeJSON(w, http.StatusOK, intentResp{
		IntentID:    intent.IntentID,
		AmountMinor: intent.AmountMinor,
		Currency:    intent.Currency,
		OrderID:     intent.OrderID,
		KeyID:       intent.KeyID,
	})
}

func (h *CheckoutHandler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var in checkout.FinalizeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if in.IntentID == "" || in.PaymentID == "" || in.Signature == "" || in.OrderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "failure", "reason": "missing payment data"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	out, err := h.Checkout.Finalize(ctx, in)
	trace := r.Header.Get("X-Request-Id")
	switch {
	case errors.Is(err, checkout.ErrBadSignature):
		h.publishFinalized(out, trace)
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "failure", "reason": "signature verification failed"})
		return
	case errors.Is(err, checkout.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "failure", "reason": "order not found"})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "failure", "reason": err.Error()})
		return
	}

	if !out.AlreadyFinal {
		h.publishFinalized(out, trace)
	}

	switch out.Status {
	case orders.StatusCompleted:
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "order_id": out.OrderID})
	case orders.StatusInsufficientStock:
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status": "failure", "reason": "insufficient stock", "details": out.Shortages,
		})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status": "failure", "reason": "order already finalized as " + string(out.Status),
		})
	}
}

// publishFinalized emits the terminal status; calls that changed nothing
// (unknown order, repeat finalize) publish nothing.
func (h *CheckoutHandler) publishFinalized(out checkout.FinalizeOutcome, trace string) {
	if out.OrderID == "" || out.Status == "" {
		return
	}
	h.publish(h.ProducerFin, orders.EventOrderFinalized, out.OrderID, trace,
		orders.OrderFinalizedPayload{
			OrderID:     out.OrderID,
			FinalStatus: out.Status,
			PickupPoint: out.PickupPoint,
			Shortages:   out.Shortages,
		})
}

func (h *CheckoutHandler) publish(p *kafkax.Producer, eventType, orderID, trace string, payload any) {
	if p == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
