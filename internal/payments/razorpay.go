package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RazorpayClient talks to the Razorpay Orders API. An "order" on their side
// is the payment intent correlated with ours via the receipt string.
type RazorpayClient struct {
	Key     string // key id, doubles as the public key id for the widget
	Secret  string
	BaseURL string // default https://api.razorpay.com
	HTTP    *http.Client
}

func NewRazorpayClient(key, secret, baseURL string) *RazorpayClient {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	return &RazorpayClient{
		Key:     key,
		Secret:  secret,
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *RazorpayClient) KeyID() string { return c.Key }

type createOrderReq struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type createOrderResp struct {
	ID string `json:"id"`
}

func (c *RazorpayClient) CreateIntent(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	body, err := json.Marshal(createOrderReq{
		Amount:         amountMinor,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.Key, c.Secret)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("razorpay create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("razorpay create order: status %d", resp.StatusCode)
	}

	var out createOrderResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("razorpay decode response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("razorpay create order: empty id")
	}
	return out.ID, nil
}

// VerifySignature checks HMAC-SHA256(secret, intent_id + "|" + payment_id)
// against the hex signature Razorpay hands the browser after payment.
func (c *RazorpayClient) VerifySignature(intentID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.Secret))
	mac.Write([]byte(intentID + "|" + paymentID))
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(signature))
}
