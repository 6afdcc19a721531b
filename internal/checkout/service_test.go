package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront.git/internal/cart"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/orders"
)

// ---- in-memory fakes ----

type fakeCatalog struct {
	products map[string]*catalog.Product
}

func (f *fakeCatalog) Get(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return *p, nil
}

type storedOrder struct {
	order orders.Order
	items []orders.Item
}

// fakeOrders mirrors the repo's finalize semantics against the fake catalog:
// check every item before decrementing anything.
type fakeOrders struct {
	catalog *fakeCatalog
	orders  map[string]*storedOrder
}

func (f *fakeOrders) Create(_ context.Context, o orders.Order, items []orders.Item) error {
	f.orders[o.ID] = &storedOrder{order: o, items: items}
	return nil
}

func (f *fakeOrders) MarkPaymentFailed(_ context.Context, orderID string) (bool, error) {
	so, ok := f.orders[orderID]
	if !ok || so.order.Status != orders.StatusPendingPayment {
		return false, nil
	}
	so.order.Status = orders.StatusPaymentFailed
	return true, nil
}

func (f *fakeOrders) Finalize(_ context.Context, orderID string) (orders.FinalizeResult, error) {
	so, ok := f.orders[orderID]
	if !ok {
		return orders.FinalizeResult{}, orders.ErrNotFound
	}
	res := orders.FinalizeResult{
		Status:      so.order.Status,
		SessionID:   so.order.SessionID,
		PickupPoint: so.order.PickupPoint,
	}
	if so.order.Status != orders.StatusPendingPayment {
		res.AlreadyFinal = true
		return res, nil
	}

	for _, it := range so.items {
		p, ok := f.catalog.products[it.ProductID]
		if !ok {
			res.Shortages = append(res.Shortages, orders.StockShortage{ProductID: it.ProductID, Required: it.Qty})
			continue
		}
		if p.Stock < it.Qty {
			res.Shortages = append(res.Shortages, orders.StockShortage{ProductID: it.ProductID, Required: it.Qty, Available: p.Stock})
		}
	}
	if len(res.Shortages) > 0 {
		so.order.Status = orders.StatusInsufficientStock
		res.Status = orders.StatusInsufficientStock
		return res, nil
	}

	for _, it := range so.items {
		f.catalog.products[it.ProductID].Stock -= it.Qty
	}
	so.order.Status = orders.StatusCompleted
	res.Status = orders.StatusCompleted
	return res, nil
}

type fakeCarts struct {
	carts map[string]cart.Cart
}

func (f *fakeCarts) Get(_ context.Context, sessionID string) (cart.Cart, error) {
	c, ok := f.carts[sessionID]
	if !ok {
		return cart.Cart{}, nil
	}
	out := cart.Cart{}
	for pid, qty := range c {
		out[pid] = qty
	}
	return out, nil
}

func (f *fakeCarts) Clear(_ context.Context, sessionID string) error {
	delete(f.carts, sessionID)
	return nil
}

type intentCall struct {
	AmountMinor int64
	Currency    string
	Receipt     string
}

type fakeGateway struct {
	calls   []intentCall
	fail    bool
	counter int
}

func (f *fakeGateway) CreateIntent(_ context.Context, amountMinor int64, currency, receipt string) (string, error) {
	if f.fail {
		return "", errors.New("gateway down")
	}
	f.calls = append(f.calls, intentCall{AmountMinor: amountMinor, Currency: currency, Receipt: receipt})
	f.counter++
	return fmt.Sprintf("intent_%d", f.counter), nil
}

// The fake accepts exactly the signature "valid".
func (f *fakeGateway) VerifySignature(_, _, signature string) bool { return signature == "valid" }

func (f *fakeGateway) KeyID() string { return "key_test" }

type fixture struct {
	svc     *Service
	catalog *fakeCatalog
	orders  *fakeOrders
	carts   *fakeCarts
	gateway *fakeGateway
}

func newFixture() *fixture {
	cat := &fakeCatalog{products: map[string]*catalog.Product{
		"3": {ID: "3", SKU: "FIRE-002", Name: "Ground Spinner (pack of 5)", Price: 60.0, Stock: 50},
		"7": {ID: "7", SKU: "FIRE-003", Name: "Aerial Multi-shot 20", Price: 450.0, Stock: 2},
	}}
	ord := &fakeOrders{catalog: cat, orders: map[string]*storedOrder{}}
	carts := &fakeCarts{carts: map[string]cart.Cart{}}
	gw := &fakeGateway{}
	return &fixture{
		svc:     &Service{Catalog: cat, Orders: ord, Carts: carts, Gateway: gw},
		catalog: cat,
		orders:  ord,
		carts:   carts,
		gateway: gw,
	}
}

var customer = CustomerDetails{
	Name:        "Asha",
	Phone:       "9876500000",
	Address:     "12 Beach Rd",
	PickupPoint: "Main Shop - Anna Nagar",
}

// ---- intent creation ----

func TestCreateIntentEmptyCart(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.CreateIntent(context.Background(), "s1", customer)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, fx.orders.orders)
	assert.Empty(t, fx.gateway.calls)
}

func TestCreateIntentAmountAndSnapshot(t *testing.T) {
	fx := newFixture()
	fx.carts.carts["s1"] = cart.Cart{"3": 2}

	intent, err := fx.svc.CreateIntent(context.Background(), "s1", customer)
	require.NoError(t, err)

	assert.Equal(t, int64(12000), intent.AmountMinor)
	assert.Equal(t, "INR", intent.Currency)
	assert.Equal(t, "intent_1", intent.IntentID)
	assert.Equal(t, "key_test", intent.KeyID)

	require.Len(t, fx.gateway.calls, 1)
	assert.Equal(t, "rcpt_"+intent.OrderID, fx.gateway.calls[0].Receipt)
	assert.Equal(t, int64(12000), fx.gateway.calls[0].AmountMinor)

	so := fx.orders.orders[intent.OrderID]
	require.NotNil(t, so)
	assert.Equal(t, orders.StatusPendingPayment, so.order.Status)
	assert.Equal(t, 120.0, so.order.Total)
	assert.Equal(t, "s1", so.order.SessionID)
	require.Len(t, so.items, 1)
	assert.Equal(t, 60.0, so.items[0].Price)
	assert.Equal(t, 2, so.items[0].Qty)

	// intent creation is reservation-free
	assert.Equal(t, 50, fx.catalog.products["3"].Stock)
}

func TestCreateIntentInsufficientStock(t *testing.T) {
	fx := newFixture()
	fx.carts.carts["s1"] = cart.Cart{"7": 3} // only 2 in stock

	_, err := fx.svc.CreateIntent(context.Background(), "s1", customer)
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "7", stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Available)
	assert.Contains(t, stockErr.Error(), "Aerial Multi-shot 20")

	// whole request rejected, nothing persisted, gateway untouched
	assert.Empty(t, fx.orders.orders)
	assert.Empty(t, fx.gateway.calls)
}

func TestCreateIntentUnknownProduct(t *testing.T) {
	fx := newFixture()
	fx.carts.carts["s1"] = cart.Cart{"missing": 1}

	_, err := fx.svc.CreateIntent(context.Background(), "s1", customer)
	var unknown *UnknownProductError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.ProductID)
	assert.Empty(t, fx.orders.orders)
}

func TestCreateIntentGatewayFailure(t *testing.T) {
	fx := newFixture()
	fx.carts.carts["s1"] = cart.Cart{"3": 1}
	fx.gateway.fail = true

	_, err := fx.svc.CreateIntent(context.Background(), "s1", customer)
	require.Error(t, err)
	assert.Empty(t, fx.orders.orders)
}

func TestTotalFrozenAgainstPriceChanges(t *testing.T) {
	fx := newFixture()
	fx.carts.carts["s1"] = cart.Cart{"3": 2}

	intent, err := fx.svc.CreateIntent(context.Background(), "s1", customer)
	require.NoError(t, err)

	fx.catalog.products["3"].Price = 99.0

	so := fx.orders.orders[intent.OrderID]
	assert.Equal(t, 120.0, so.order.Total)
	assert.Equal(t, 60.0, so.items[0].Price)
}

// ---- finalization ----

func createIntent(t *testing.T, fx *fixture, session string, items cart.Cart) Intent {
	t.Helper()
	fx.carts.carts[session] = items
	intent, err := fx.svc.CreateIntent(context.Background(), session, customer)
	require.NoError(t, err)
	return intent
}

func TestFinalizeSuccess(t *testing.T) {
	fx := newFixture()
	intent := createIntent(t, fx, "s1", cart.Cart{"3": 2})

	out, err := fx.svc.Finalize(context.Background(), FinalizeInput{
		IntentID: intent.IntentID, PaymentID: "pay_1", Signature: "valid", OrderID: intent.OrderID,
	})
	require.NoError(t, err)

	assert.Equal(t, orders.StatusCompleted, out.Status)
	assert.Equal(t, 48, fx.catalog.products["3"].Stock)
	_, hasCart := fx.carts.carts["s1"]
	assert.False(t, hasCart, "originating cart must be cleared")
}

func TestFinalizeBadSignature(t *testing.T) {
	fx := newFixture()
	intent := createIntent(t, fx, "s1", cart.Cart{"3": 2})

	out, err := fx.svc.Finalize(context.Background(), FinalizeInput{
		IntentID: intent.IntentID, PaymentID: "pay_1", Signature: "forged", OrderID: intent.OrderID,
	})
	assert.ErrorIs(t, err, ErrBadSignature)
	assert.Equal(t, orders.StatusPaymentFailed, out.Status)

	so := fx.orders.orders[intent.OrderID]
	assert.Equal(t, orders.StatusPaymentFailed, so.order.Status)
	assert.Equal(t, 50, fx.catalog.products["3"].Stock, "stock must not move on bad signature")
	_, hasCart := fx.carts.carts["s1"]
	assert.True(t, hasCart)
}

func TestFinalizeBadSignatureUnknownOrder(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.Finalize(context.Background(), FinalizeInput{
		IntentID: "intent_x", PaymentID: "pay_x", Signature: "forged", OrderID: "nope",
	})
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestFinalizeOrderNotFound(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.Finalize(context.Background(), FinalizeInput{
		IntentID: "intent_x", PaymentID: "pay_x", Signature: "valid", OrderID: "nope",
	})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestFinalizeStockRanOut(t *testing.T) {
	fx := newFixture()
	intent := createIntent(t, fx, "s1", cart.Cart{"3": 2})

	// stock drained between intent creation and finalization
	fx.catalog.products["3"].Stock = 1

	out, err := fx.svc.Finalize(context.Background(), FinalizeInput{
		IntentID: intent.IntentID, PaymentID: "pay_1", Signature: "valid", OrderID: intent.OrderID,
	})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusInsufficientStock, out.Status)
	require.Len(t, out.Shortages, 1)
	assert.Equal(t, 2, out.Shortages[0].Required)
	assert.Equal(t, 1, out.Shortages[0].Available)

	assert.Equal(t, 1, fx.catalog.products["3"].Stock, "no partial decrement")
	_, hasCart := fx.carts.carts["s1"]
	assert.True(t, hasCart, "cart survives a failed finalization")
}

func TestFinalizeAllOrNothingAcrossItems(t *testing.T) {
	fx := newFixture()
	intent := createIntent(t, fx, "s1", cart.Cart{"3": 2, "7": 2})

	fx.catalog.products["7"].Stock = 1 // second item now short

	out, err := fx.svc.Finalize(context.Background(), FinalizeInput{
		IntentID: intent.IntentID, PaymentID: "pay_1", Signature: "valid", OrderID: intent.OrderID,
	})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusInsufficientStock, out.Status)
	assert.Equal(t, 50, fx.catalog.products["3"].Stock, "sufficient item must not be decremented either")
	assert.Equal(t, 1, fx.catalog.products["7"].Stock)
}

func TestTwoIntentsLastUnit(t *testing.T) {
	fx := newFixture()
	fx.catalog.products["A"] = &catalog.Product{ID: "A", SKU: "LAST-1", Name: "Last One", Price: 10.0, Stock: 1}

	// Both intents pass validation: intent creation does no reservation.
	first := createIntent(t, fx, "s1", cart.Cart{"A": 1})
	second := createIntent(t, fx, "s2", cart.Cart{"A": 1})

	out1, err := fx.svc.Finalize(context.Background(), FinalizeInput{
		IntentID: first.IntentID, PaymentID: "pay_1", Signature: "valid", OrderID: first.OrderID,
	})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, out1.Status)
	assert.Equal(t, 0, fx.catalog.products["A"].Stock)

	out2, err := fx.svc.Finalize(context.Background(), FinalizeInput{
		IntentID: second.IntentID, PaymentID: "pay_2", Signature: "valid", OrderID: second.OrderID,
	})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusInsufficientStock, out2.Status)
	assert.Equal(t, 0, fx.catalog.products["A"].Stock, "stock never goes negative")
}

func TestFinalizeIdempotentOnCompleted(t *testing.T) {
	fx := newFixture()
	intent := createIntent(t, fx, "s1", cart.Cart{"3": 2})
	in := FinalizeInput{IntentID: intent.IntentID, PaymentID: "pay_1", Signature: "valid", OrderID: intent.OrderID}

	out1, err := fx.svc.Finalize(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, orders.StatusCompleted, out1.Status)
	require.Equal(t, 48, fx.catalog.products["3"].Stock)

	out2, err := fx.svc.Finalize(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, out2.Status)
	assert.True(t, out2.AlreadyFinal)
	assert.True(t, out2.Idempotent)
	assert.Equal(t, 48, fx.catalog.products["3"].Stock, "repeat finalize must not re-decrement")
}

func TestFinalizeAfterPaymentFailedStaysFailed(t *testing.T) {
	fx := newFixture()
	intent := createIntent(t, fx, "s1", cart.Cart{"3": 1})
	in := FinalizeInput{IntentID: intent.IntentID, PaymentID: "pay_1", Signature: "forged", OrderID: intent.OrderID}

	_, err := fx.svc.Finalize(context.Background(), in)
	require.ErrorIs(t, err, ErrBadSignature)

	// customer retries the same order with a now-valid signature; the order
	// is terminal and a fresh checkout is required.
	in.Signature = "valid"
	out, err := fx.svc.Finalize(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.Status.Terminal())
	assert.Equal(t, orders.StatusPaymentFailed, out.Status)
	assert.False(t, out.Idempotent)
	assert.Equal(t, 50, fx.catalog.products["3"].Stock)
}
