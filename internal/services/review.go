package service

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"strings"

	"github.com/adivardhan/storefront-api/internal/cache"
	"github.com/adivardhan/storefront-api/internal/errors"
	"github.com/adivardhan/storefront-api/internal/models"
	repository "github.com/adivardhan/storefront-api/internal/repositories"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type ReviewService interface {
	CreateReview(ctx context.Context, userID uuid.UUID, userName string, req *models.CreateReviewRequest) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
	DeleteReview(ctx context.Context, reviewID, requesterID uuid.UUID, isAdmin bool) error
}

type reviewService struct {
	repo        repository.ReviewRepository
	productRepo repository.ProductRepository
	cacheStore  cache.Cache
	sanitizer   *bluemonday.Policy
}

func NewReviewService(repo repository.ReviewRepository, productRepo repository.ProductRepository, cacheStore cache.Cache) ReviewService {
	return &reviewService{
		repo:        repo,
		productRepo: productRepo,
		cacheStore:  cacheStore,
		sanitizer:   bluemonday.UGCPolicy(),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, userID uuid.UUID, userName string, req *models.CreateReviewRequest) (*models.Review, error) {

	if _, err := s.productRepo.GetProductByID(ctx, req.ProductID); err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to fetch product").WithError(err)
	}

	existing, err := s.repo.GetByProductAndUser(ctx, req.ProductID, userID)
	if err != nil && !stdErrors.Is(err, sql.ErrNoRows) {
		return nil, errors.DatabaseError("Failed to check existing review").WithError(err)
	}

	if existing != nil {
		return nil, errors.DuplicateEntryError("You have already reviewed this product")
	}

	review := &models.Review{
		ID:        uuid.New(),
		ProductID: req.ProductID,
		UserID:    userID,
		UserName:  userName,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(s.sanitizer.Sanitize(req.Comment)),
	}

	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, errors.DatabaseError("Failed to create review").WithError(err)
	}

	if err := s.recomputeAggregate(ctx, req.ProductID); err != nil {
		return nil, err
	}

	return review, nil
}

func (s *reviewService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {

	reviews, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch reviews").WithError(err)
	}

	return reviews, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, reviewID, requesterID uuid.UUID, isAdmin bool) error {

	review, err := s.repo.GetReviewByID(ctx, reviewID)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return errors.NotFoundError("Review not found").WithError(err)
		}

		return errors.DatabaseError("Failed to fetch review").WithError(err)
	}

	if review.UserID != requesterID && !isAdmin {
		return errors.ForbiddenError("You don't have permission to delete this review")
	}

	if err := s.repo.DeleteReview(ctx, reviewID); err != nil {
		return errors.DatabaseError("Failed to delete review").WithError(err)
	}

	return s.recomputeAggregate(ctx, review.ProductID)
}

// recomputeAggregate re-derives the product's rating fields from the review
// rows. With no reviews left both fields go back to zero.
func (s *reviewService) recomputeAggregate(ctx context.Context, productID uuid.UUID) error {

	count, average, err := s.repo.GetRatingStats(ctx, productID)
	if err != nil {
		return errors.DatabaseError("Failed to aggregate reviews").WithError(err)
	}

	if err := s.productRepo.UpdateRating(ctx, productID, average, count); err != nil {
		return errors.DatabaseError("Failed to update product rating").WithError(err)
	}

	_ = s.cacheStore.Delete(ctx, cache.Key(cache.ProductKeyPrefix, productID.String()))

	return nil
}
