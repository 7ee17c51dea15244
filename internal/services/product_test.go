package service_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/adivardhan/storefront-api/internal/cache"
	"github.com/adivardhan/storefront-api/internal/config"
	appErrors "github.com/adivardhan/storefront-api/internal/errors"
	"github.com/adivardhan/storefront-api/internal/models"
	repository "github.com/adivardhan/storefront-api/internal/repositories"
	service "github.com/adivardhan/storefront-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupProductService(t *testing.T) (service.ProductService, *repository.MockProductRepository, *mockCache) {
	t.Helper()

	mockRepo := repository.NewMockProductRepository()
	cacheStore := newMockCache()
	cacheCfg := &config.CacheConfig{DefaultTTL: 5 * time.Minute, ProductTTL: 10 * time.Minute}

	return service.NewProductService(mockRepo, cacheStore, cacheCfg), mockRepo, cacheStore
}

func TestProductService_GetProductByID(t *testing.T) {
	ctx := t.Context()

	id := uuid.New()
	product := &models.Product{ID: id, Name: "Widget", Price: 19.99, Stock: 5}
	cacheKey := cache.Key(cache.ProductKeyPrefix, id.String())

	t.Run("Success - Cache Hit Skips The Database", func(t *testing.T) {
		// Arrange
		productService, mockRepo, cacheStore := setupProductService(t)

		cacheStore.On("Get", ctx, cacheKey, mock.AnythingOfType("*models.Product")).
			Run(func(args mock.Arguments) {
				*args.Get(2).(*models.Product) = *product
			}).
			Return(true, nil).Once()

		// Act
		got, err := productService.GetProductByID(ctx, id)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Widget", got.Name)
		mockRepo.AssertNotCalled(t, "GetProductByID")
	})

	t.Run("Success - Cache Miss Reads Through And Populates", func(t *testing.T) {
		// Arrange
		productService, mockRepo, cacheStore := setupProductService(t)

		cacheStore.On("Get", ctx, cacheKey, mock.AnythingOfType("*models.Product")).Return(false, nil).Once()
		mockRepo.On("GetProductByID", ctx, id).Return(product, nil).Once()
		cacheStore.On("Set", ctx, cacheKey, product, 10*time.Minute).Return(nil).Once()

		// Act
		got, err := productService.GetProductByID(ctx, id)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Widget", got.Name)
		mockRepo.AssertExpectations(t)
		cacheStore.AssertExpectations(t)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		productService, mockRepo, cacheStore := setupProductService(t)

		cacheStore.On("Get", ctx, cacheKey, mock.AnythingOfType("*models.Product")).Return(false, nil).Once()
		mockRepo.On("GetProductByID", ctx, id).Return(nil, sql.ErrNoRows).Once()

		// Act
		got, err := productService.GetProductByID(ctx, id)

		// Assert
		assert.Nil(t, got)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
		cacheStore.AssertNotCalled(t, "Set")
	})
}

func TestProductService_CreateProduct(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Sanitizes Description And Drops Listing Caches", func(t *testing.T) {
		// Arrange
		productService, mockRepo, cacheStore := setupProductService(t)

		req := &models.CreateProductRequest{
			Name:        "Widget",
			Description: `Great value <script>alert("x")</script>widget`,
			Price:       19.99,
			Category:    "electronics",
			Stock:       5,
		}

		mockRepo.On("CreateProduct", ctx, mock.AnythingOfType("*models.Product")).Return(nil).Once()
		cacheStore.On("Delete", ctx, cache.FeaturedKey).Return(nil).Once()
		cacheStore.On("Delete", ctx, cache.CategoriesKey).Return(nil).Once()

		// Act
		product, err := productService.CreateProduct(ctx, req)

		// Assert
		require.NoError(t, err)
		assert.NotContains(t, product.Description, "<script>")
		assert.Contains(t, product.Description, "widget")
		mockRepo.AssertExpectations(t)
		cacheStore.AssertExpectations(t)
	})
}

func TestProductService_UpdateProduct(t *testing.T) {
	ctx := t.Context()

	id := uuid.New()

	t.Run("Success - Applies Only Provided Fields And Invalidates", func(t *testing.T) {
		// Arrange
		productService, mockRepo, cacheStore := setupProductService(t)

		existing := &models.Product{ID: id, Name: "Widget", Description: "old", Price: 19.99, Stock: 5}
		newPrice := 24.99

		mockRepo.On("GetProductByID", ctx, id).Return(existing, nil).Once()
		mockRepo.On("UpdateProduct", ctx, mock.AnythingOfType("*models.Product")).Return(nil).Once()
		cacheStore.On("Delete", ctx, cache.Key(cache.ProductKeyPrefix, id.String())).Return(nil).Once()
		cacheStore.On("Delete", ctx, cache.FeaturedKey).Return(nil).Once()
		cacheStore.On("Delete", ctx, cache.CategoriesKey).Return(nil).Once()

		// Act
		product, err := productService.UpdateProduct(ctx, id, &models.UpdateProductRequest{Price: &newPrice})

		// Assert
		require.NoError(t, err)
		assert.InDelta(t, 24.99, product.Price, 0.001)
		assert.Equal(t, "Widget", product.Name)
		assert.Equal(t, "old", product.Description)
		cacheStore.AssertExpectations(t)
	})
}

func TestProductService_ListFeatured(t *testing.T) {
	ctx := t.Context()

	products := []*models.Product{{ID: uuid.New(), Name: "Widget", IsFeatured: true}}

	t.Run("Success - Cache Miss Fetches Six And Caches", func(t *testing.T) {
		// Arrange
		productService, mockRepo, cacheStore := setupProductService(t)

		cacheStore.On("Get", ctx, cache.FeaturedKey, mock.Anything).Return(false, nil).Once()
		mockRepo.On("ListFeatured", ctx, 6).Return(products, nil).Once()
		cacheStore.On("Set", ctx, cache.FeaturedKey, products, 5*time.Minute).Return(nil).Once()

		// Act
		got, err := productService.ListFeatured(ctx)

		// Assert
		require.NoError(t, err)
		assert.Len(t, got, 1)
		mockRepo.AssertExpectations(t)
		cacheStore.AssertExpectations(t)
	})
}

func TestProductService_ListCategories(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Cache Hit", func(t *testing.T) {
		// Arrange
		productService, mockRepo, cacheStore := setupProductService(t)

		cacheStore.On("Get", ctx, cache.CategoriesKey, mock.Anything).
			Run(func(args mock.Arguments) {
				*args.Get(2).(*[]string) = []string{"electronics", "books"}
			}).
			Return(true, nil).Once()

		// Act
		categories, err := productService.ListCategories(ctx)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []string{"electronics", "books"}, categories)
		mockRepo.AssertNotCalled(t, "ListCategories")
	})
}
