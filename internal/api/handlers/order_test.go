package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adivardhan/storefront-api/internal/api/handlers"
	appErrors "github.com/adivardhan/storefront-api/internal/errors"
	"github.com/adivardhan/storefront-api/internal/models"
	"github.com/adivardhan/storefront-api/internal/services/mocks"
	"github.com/adivardhan/storefront-api/internal/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func orderRequestBody(t *testing.T) []byte {
	t.Helper()

	body, err := json.Marshal(models.CreateOrderRequest{
		ShippingAddress: models.Address{Street: "1 Main St", City: "Pune", ZipCode: "411001", Country: "IN"},
	})
	require.NoError(t, err)

	return body
}

func TestOrderHandler_PlaceOrder(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockOrderService(t)
		handler := handlers.NewOrderHandler(mockService)

		order := &models.Order{ID: uuid.New(), UserID: userID, Status: models.OrderStatusPending, TotalAmount: 39.98}

		mockService.On("PlaceOrder", mock.Anything, userID, mock.AnythingOfType("*models.CreateOrderRequest")).
			Return(order, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders",
			bytes.NewReader(orderRequestBody(t)), userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.PlaceOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
	})

	t.Run("Failure - Unauthenticated", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockOrderService(t)
		handler := handlers.NewOrderHandler(mockService)

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/orders",
			bytes.NewReader(orderRequestBody(t)), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.PlaceOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mockService.AssertNotCalled(t, "PlaceOrder")
	})

	t.Run("Failure - Empty Cart Maps To 400", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockOrderService(t)
		handler := handlers.NewOrderHandler(mockService)

		mockService.On("PlaceOrder", mock.Anything, userID, mock.AnythingOfType("*models.CreateOrderRequest")).
			Return(nil, appErrors.BadRequestError("Cannot create order with empty cart")).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders",
			bytes.NewReader(orderRequestBody(t)), userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.PlaceOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeBadRequest, resp.Error.Code)
	})
}

func TestOrderHandler_VerifyPayment(t *testing.T) {
	userID := uuid.New()

	verifyBody := func(t *testing.T) []byte {
		t.Helper()

		body, err := json.Marshal(models.VerifyPaymentRequest{
			IntentID:        "order_abc",
			TransactionID:   "pay_xyz",
			Signature:       "deadbeef",
			ShippingAddress: models.Address{Street: "1 Main St", City: "Pune", ZipCode: "411001", Country: "IN"},
		})
		require.NoError(t, err)

		return body
	}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockOrderService(t)
		handler := handlers.NewOrderHandler(mockService)

		order := &models.Order{ID: uuid.New(), UserID: userID, IsPaid: true, Status: models.OrderStatusPending}

		mockService.On("VerifyPayment", mock.Anything, userID, mock.AnythingOfType("*models.VerifyPaymentRequest")).
			Return(order, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders/verify",
			bytes.NewReader(verifyBody(t)), userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.VerifyPayment().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("Failure - Bad Signature Maps To 400", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockOrderService(t)
		handler := handlers.NewOrderHandler(mockService)

		mockService.On("VerifyPayment", mock.Anything, userID, mock.AnythingOfType("*models.VerifyPaymentRequest")).
			Return(nil, appErrors.PaymentVerificationError("Invalid payment signature")).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders/verify",
			bytes.NewReader(verifyBody(t)), userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.VerifyPayment().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodePaymentVerification, resp.Error.Code)
	})
}

func TestOrderHandler_GetOrder(t *testing.T) {
	ownerID := uuid.New()
	orderID := uuid.New()

	order := &models.Order{ID: orderID, UserID: ownerID, Status: models.OrderStatusPending}

	t.Run("Success - Owner", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockOrderService(t)
		handler := handlers.NewOrderHandler(mockService)

		mockService.On("GetOrderByID", mock.Anything, orderID).Return(order, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders/"+orderID.String(),
			nil, ownerID, map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.GetOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Success - Admin Reads Any Order", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockOrderService(t)
		handler := handlers.NewOrderHandler(mockService)

		mockService.On("GetOrderByID", mock.Anything, orderID).Return(order, nil).Once()

		adminClaims := &models.Claims{UserID: uuid.New(), Name: "Admin", Email: "admin@example.com", IsAdmin: true}
		req := testutils.CreateTestRequestWithClaims(http.MethodGet, "/api/v1/orders/"+orderID.String(),
			nil, adminClaims, map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.GetOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Failure - Another User's Order Is Forbidden", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockOrderService(t)
		handler := handlers.NewOrderHandler(mockService)

		mockService.On("GetOrderByID", mock.Anything, orderID).Return(order, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders/"+orderID.String(),
			nil, uuid.New(), map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.GetOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusForbidden, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeForbidden, resp.Error.Code)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockOrderService(t)
		handler := handlers.NewOrderHandler(mockService)

		mockService.On("GetOrderByID", mock.Anything, orderID).
			Return(nil, appErrors.NotFoundError("Order not found")).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders/"+orderID.String(),
			nil, ownerID, map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.GetOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestOrderHandler_UpdateOrderStatus(t *testing.T) {
	orderID := uuid.New()
	adminID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockOrderService(t)
		handler := handlers.NewOrderHandler(mockService)

		updated := &models.Order{ID: orderID, Status: models.OrderStatusShipped}

		mockService.On("UpdateOrderStatus", mock.Anything, orderID, models.OrderStatusShipped).
			Return(updated, nil).Once()

		body := []byte(`{"status":"shipped"}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/orders/"+orderID.String()+"/status",
			bytes.NewReader(body), adminID, map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.UpdateOrderStatus().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Failure - Invalid Transition Maps To 409", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockOrderService(t)
		handler := handlers.NewOrderHandler(mockService)

		mockService.On("UpdateOrderStatus", mock.Anything, orderID, models.OrderStatusPending).
			Return(nil, appErrors.InvalidTransitionError("Cannot transition order from delivered to pending")).Once()

		body := []byte(`{"status":"pending"}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/orders/"+orderID.String()+"/status",
			bytes.NewReader(body), adminID, map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.UpdateOrderStatus().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeInvalidTransition, resp.Error.Code)
	})

	t.Run("Failure - Unknown Status Fails Validation", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockOrderService(t)
		handler := handlers.NewOrderHandler(mockService)

		body := []byte(`{"status":"misplaced"}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/orders/"+orderID.String()+"/status",
			bytes.NewReader(body), adminID, map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.UpdateOrderStatus().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "UpdateOrderStatus")
	})
}
