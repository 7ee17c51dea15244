package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Order is the gateway-side payment intent created before checkout.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client defines the methods that any payment gateway client must implement.
type Client interface {
	CreateOrder(ctx context.Context, amount int64, currency string, receipt string) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

type razorpayClient struct {
	http      *resty.Client
	keyID     string
	keySecret string
}

func NewClient(keyID, keySecret string) Client {

	http := resty.New().
		SetBaseURL(defaultBaseURL).
		SetBasicAuth(keyID, keySecret).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &razorpayClient{http: http, keyID: keyID, keySecret: keySecret}
}

// CreateOrder registers the amount with the gateway and returns the order
// the frontend checkout widget is opened with. Amount is in the currency's
// smallest unit.
func (c *razorpayClient) CreateOrder(ctx context.Context, amount int64, currency string, receipt string) (*Order, error) {

	order := &Order{}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"amount":   amount,
			"currency": currency,
			"receipt":  receipt,
		}).
		SetResult(order).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("gateway rejected order creation, status code: %d", resp.StatusCode())
	}

	return order, nil
}

// VerifySignature checks the callback signature: HMAC-SHA256 over
// "<orderID>|<paymentID>" keyed with the secret, hex encoded.
func (c *razorpayClient) VerifySignature(orderID, paymentID, signature string) bool {

	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))

	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *razorpayClient) KeyID() string {
	return c.keyID
}
