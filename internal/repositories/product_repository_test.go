package repository_test

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/adivardhan/storefront-api/internal/models"
	repository "github.com/adivardhan/storefront-api/internal/repositories"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProductRepoTest(t *testing.T) (repository.ProductRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	return repository.NewProductRepo(db), mock
}

func productColumns() []string {
	return []string{"id", "name", "description", "price", "category", "image", "images", "stock",
		"brand", "rating", "num_reviews", "is_featured", "created_at", "updated_at"}
}

func addProductRow(rows *sqlmock.Rows, id uuid.UUID, name string, price float64) {
	now := time.Now()
	rows.AddRow(id, name, "description", price, "electronics", "img.png",
		pq.StringArray{"a.png", "b.png"}, 10, "Acme", 4.5, 12, false, now, now)
}

func TestProductRepository_GetProductByID(t *testing.T) {
	repo, mock := setupProductRepoTest(t)
	ctx := t.Context()

	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		rows := sqlmock.NewRows(productColumns())
		addProductRow(rows, id, "Widget", 19.99)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id = $1`)).
			WithArgs(id).
			WillReturnRows(rows)

		// Act
		product, err := repo.GetProductByID(ctx, id)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Widget", product.Name)
		assert.Equal(t, []string{"a.png", "b.png"}, product.Images)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id = $1`)).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		// Act
		product, err := repo.GetProductByID(ctx, id)

		// Assert
		assert.Nil(t, product)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_ListProducts(t *testing.T) {
	repo, mock := setupProductRepoTest(t)
	ctx := t.Context()

	t.Run("Success - No Filters Sorts By Newest", func(t *testing.T) {
		// Arrange
		rows := sqlmock.NewRows(productColumns())
		addProductRow(rows, uuid.New(), "Widget", 19.99)
		addProductRow(rows, uuid.New(), "Gadget", 5.00)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM products ORDER BY created_at DESC`)).
			WillReturnRows(rows)

		// Act
		products, err := repo.ListProducts(ctx, &models.ProductFilter{})

		// Assert
		require.NoError(t, err)
		assert.Len(t, products, 2)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Combined Filters Build Placeholders In Order", func(t *testing.T) {
		// Arrange
		minPrice, maxPrice := 10.0, 50.0
		filter := &models.ProductFilter{
			Search:   "widget",
			Category: "electronics",
			MinPrice: &minPrice,
			MaxPrice: &maxPrice,
			Sort:     "price_asc",
		}

		rows := sqlmock.NewRows(productColumns())
		addProductRow(rows, uuid.New(), "Widget", 19.99)

		expected := regexp.QuoteMeta(`WHERE (name ILIKE $1 OR description ILIKE $1) AND category = $2 ` +
			`AND price >= $3 AND price <= $4 ORDER BY price ASC`)

		mock.ExpectQuery(expected).
			WithArgs("%widget%", "electronics", minPrice, maxPrice).
			WillReturnRows(rows)

		// Act
		products, err := repo.ListProducts(ctx, filter)

		// Assert
		require.NoError(t, err)
		assert.Len(t, products, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_ListFeatured(t *testing.T) {
	repo, mock := setupProductRepoTest(t)
	ctx := t.Context()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		rows := sqlmock.NewRows(productColumns())
		addProductRow(rows, uuid.New(), "Widget", 19.99)

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE is_featured = TRUE LIMIT $1`)).
			WithArgs(6).
			WillReturnRows(rows)

		// Act
		products, err := repo.ListFeatured(ctx, 6)

		// Assert
		require.NoError(t, err)
		assert.Len(t, products, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_UpdateRating(t *testing.T) {
	repo, mock := setupProductRepoTest(t)
	ctx := t.Context()

	id := uuid.New()

	expectedSQL := regexp.QuoteMeta(`
		UPDATE products
		SET rating = $1, num_reviews = $2, updated_at = NOW()
		WHERE id = $3
	`)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mock.ExpectExec(expectedSQL).
			WithArgs(4.2, 5, id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		err := repo.UpdateRating(ctx, id, 4.2, 5)

		// Assert
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		mock.ExpectExec(expectedSQL).
			WithArgs(4.2, 5, id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Act
		err := repo.UpdateRating(ctx, id, 4.2, 5)

		// Assert
		assert.ErrorIs(t, err, sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
