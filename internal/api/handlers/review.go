package handlers

import (
	"log/slog"
	"net/http"

	"github.com/adivardhan/storefront-api/internal/api/middleware"
	"github.com/adivardhan/storefront-api/internal/errors"
	"github.com/adivardhan/storefront-api/internal/models"
	service "github.com/adivardhan/storefront-api/internal/services"
	"github.com/adivardhan/storefront-api/internal/utils"
	"github.com/adivardhan/storefront-api/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type ReviewHandler struct {
	reviewService service.ReviewService
	validator     *validator.Validate
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, validator: validator.New()}
}

func (h *ReviewHandler) CreateReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized review creation attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.CreateReviewRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid create review input")

			return
		}

		review, err := h.reviewService.CreateReview(r.Context(), claims.UserID, claims.Name, &req)
		if err != nil {
			logger.Error("Failed to create review",
				slog.String("productId", req.ProductID.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Review created successfully", slog.String("reviewId", review.ID.String()))
		response.Success(w, http.StatusCreated, review)
	}
}

func (h *ReviewHandler) ListByProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		productID, err := utils.ParseID(r, "productId")
		if err != nil {
			logger.Warn("Invalid product id", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		reviews, err := h.reviewService.ListByProduct(r.Context(), productID)
		if err != nil {
			logger.Error("Failed to list reviews",
				slog.String("productId", productID.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, reviews)
	}
}

func (h *ReviewHandler) DeleteReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized review deletion attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid review id", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		if err := h.reviewService.DeleteReview(r.Context(), id, claims.UserID, claims.IsAdmin); err != nil {
			logger.Error("Failed to delete review", slog.String("reviewId", id.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Review deleted successfully", slog.String("reviewId", id.String()))
		response.Success(w, http.StatusOK, map[string]string{"message": "Review deleted"})
	}
}
