package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))

	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	client := NewClient("rzp_test_key", "test-secret")

	orderID := "order_abc123"
	paymentID := "pay_xyz789"

	t.Run("Success - Valid Signature", func(t *testing.T) {
		signature := signPayload("test-secret", orderID, paymentID)

		assert.True(t, client.VerifySignature(orderID, paymentID, signature))
	})

	t.Run("Failure - Tampered Signature", func(t *testing.T) {
		signature := signPayload("test-secret", orderID, paymentID)
		tampered := signature[:len(signature)-1] + "0"
		if tampered == signature {
			tampered = signature[:len(signature)-1] + "1"
		}

		assert.False(t, client.VerifySignature(orderID, paymentID, tampered))
	})

	t.Run("Failure - Wrong Secret", func(t *testing.T) {
		signature := signPayload("other-secret", orderID, paymentID)

		assert.False(t, client.VerifySignature(orderID, paymentID, signature))
	})

	t.Run("Failure - Signature For Different Payment", func(t *testing.T) {
		signature := signPayload("test-secret", orderID, "pay_other")

		assert.False(t, client.VerifySignature(orderID, paymentID, signature))
	})
}

func TestCreateOrder(t *testing.T) {
	ctx := t.Context()

	newTestClient := func(baseURL string) *razorpayClient {
		http := resty.New().
			SetBaseURL(baseURL).
			SetBasicAuth("rzp_test_key", "test-secret").
			SetHeader("Content-Type", "application/json")

		return &razorpayClient{http: http, keyID: "rzp_test_key", keySecret: "test-secret"}
	}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/orders", r.URL.Path)

			username, _, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "rzp_test_key", username)

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.InDelta(t, 49999, body["amount"], 0.1)
			assert.Equal(t, "INR", body["currency"])

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(Order{
				ID:       "order_abc123",
				Amount:   49999,
				Currency: "INR",
				Receipt:  body["receipt"].(string),
				Status:   "created",
			})
		}))
		t.Cleanup(server.Close)

		client := newTestClient(server.URL)

		// Act
		order, err := client.CreateOrder(ctx, 49999, "INR", "receipt_1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "order_abc123", order.ID)
		assert.Equal(t, int64(49999), order.Amount)
		assert.Equal(t, "created", order.Status)
	})

	t.Run("Failure - Gateway Rejects", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		t.Cleanup(server.Close)

		client := newTestClient(server.URL)

		// Act
		order, err := client.CreateOrder(ctx, 49999, "INR", "receipt_1")

		// Assert
		assert.Nil(t, order)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status code: 401")
	})
}
