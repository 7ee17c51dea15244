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

func TestUserHandler_Register(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockUserService(t)
		handler := handlers.NewUserHandler(mockService)

		resp := &models.AuthResponse{ID: uuid.New(), Name: "Jordan", Email: "jordan@example.com", Token: "signed.jwt"}

		mockService.On("Register", mock.Anything, mock.AnythingOfType("*models.RegisterRequest")).
			Return(resp, nil).Once()

		body, err := json.Marshal(models.RegisterRequest{Name: "Jordan", Email: "jordan@example.com", Password: "s3cret-pass"})
		require.NoError(t, err)

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/register", bytes.NewReader(body), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Register().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rec.Code)
		apiResp := decodeResponse(t, rec)
		assert.True(t, apiResp.Success)
	})

	t.Run("Failure - Duplicate Email Maps To 409", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockUserService(t)
		handler := handlers.NewUserHandler(mockService)

		mockService.On("Register", mock.Anything, mock.AnythingOfType("*models.RegisterRequest")).
			Return(nil, appErrors.DuplicateEntryError("Email already registered")).Once()

		body, err := json.Marshal(models.RegisterRequest{Name: "Jordan", Email: "jordan@example.com", Password: "s3cret-pass"})
		require.NoError(t, err)

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/register", bytes.NewReader(body), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Register().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rec.Code)
		apiResp := decodeResponse(t, rec)
		require.NotNil(t, apiResp.Error)
		assert.Equal(t, appErrors.ErrCodeDuplicateEntry, apiResp.Error.Code)
	})

	t.Run("Failure - Invalid Email Fails Validation", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockUserService(t)
		handler := handlers.NewUserHandler(mockService)

		body := []byte(`{"name":"Jordan","email":"not-an-email","password":"s3cret-pass"}`)

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/register", bytes.NewReader(body), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Register().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Register")
	})
}

func TestUserHandler_Login(t *testing.T) {
	loginBody := func(t *testing.T) []byte {
		t.Helper()

		body, err := json.Marshal(models.LoginRequest{Email: "jordan@example.com", Password: "s3cret-pass"})
		require.NoError(t, err)

		return body
	}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockUserService(t)
		handler := handlers.NewUserHandler(mockService)

		resp := &models.LoginResponse{Success: true, Token: "signed.jwt", ExpiresIn: 3600}

		mockService.On("Login", mock.Anything, mock.AnythingOfType("*models.LoginRequest")).
			Return(resp, nil).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/login", bytes.NewReader(loginBody(t)), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Login().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Failure - Bad Credentials Return 401", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockUserService(t)
		handler := handlers.NewUserHandler(mockService)

		resp := &models.LoginResponse{Success: false, Message: "Invalid email or password", RemainingTries: 2}

		mockService.On("Login", mock.Anything, mock.AnythingOfType("*models.LoginRequest")).
			Return(resp, nil).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/login", bytes.NewReader(loginBody(t)), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Login().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Failure - Exhausted Window Returns 429", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockUserService(t)
		handler := handlers.NewUserHandler(mockService)

		resp := &models.LoginResponse{Success: false, Message: "Too many login attempts. Please try again later.", RetryAfter: 42}

		mockService.On("Login", mock.Anything, mock.AnythingOfType("*models.LoginRequest")).
			Return(resp, nil).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/login", bytes.NewReader(loginBody(t)), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Login().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestUserHandler_Wishlist(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	t.Run("Success - Add", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockUserService(t)
		handler := handlers.NewUserHandler(mockService)

		user := &models.User{ID: userID, Name: "Jordan", Wishlist: []uuid.UUID{productID}}

		mockService.On("AddToWishlist", mock.Anything, userID, productID).Return(user, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/users/wishlist/"+productID.String(),
			nil, userID, map[string]string{"productId": productID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.AddToWishlist().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Failure - Unauthenticated", func(t *testing.T) {
		// Arrange
		mockService := mocks.NewMockUserService(t)
		handler := handlers.NewUserHandler(mockService)

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/wishlist/"+productID.String(),
			nil, map[string]string{"productId": productID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.AddToWishlist().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mockService.AssertNotCalled(t, "AddToWishlist")
	})
}
