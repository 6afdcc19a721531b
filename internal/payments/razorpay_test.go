package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret, intentID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(intentID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	c := NewRazorpayClient("key_test", "s3cret", "")

	good := sign("s3cret", "order_abc", "pay_xyz")
	assert.True(t, c.VerifySignature("order_abc", "pay_xyz", good))

	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", "deadbeef"))
	assert.False(t, c.VerifySignature("order_other", "pay_xyz", good))
	assert.False(t, c.VerifySignature("order_abc", "pay_other", good))

	wrongKey := sign("other-secret", "order_abc", "pay_xyz")
	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", wrongKey))
}

func TestCreateIntent(t *testing.T) {
	var got createOrderReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key_test", user)
		require.Equal(t, "s3cret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "order_remote_1"})
	}))
	defer srv.Close()

	c := NewRazorpayClient("key_test", "s3cret", srv.URL)
	id, err := c.CreateIntent(context.Background(), 12000, "INR", "rcpt_o1")
	require.NoError(t, err)
	assert.Equal(t, "order_remote_1", id)
	assert.Equal(t, int64(12000), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, "rcpt_o1", got.Receipt)
	assert.Equal(t, 1, got.PaymentCapture)
}

func TestCreateIntentGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewRazorpayClient("key_test", "s3cret", srv.URL)
	_, err := c.CreateIntent(context.Background(), 100, "INR", "rcpt_x")
	assert.Error(t, err)
}
