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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReviewRepoTest(t *testing.T) (repository.ReviewRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	return repository.NewReviewRepo(db), mock
}

func TestReviewRepository_CreateReview(t *testing.T) {
	repo, mock := setupReviewRepoTest(t)
	ctx := t.Context()

	review := &models.Review{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		UserID:    uuid.New(),
		UserName:  "Jordan",
		Rating:    4,
		Comment:   "Solid build quality",
	}

	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO reviews`)).
			WithArgs(review.ID, review.ProductID, review.UserID, review.UserName, review.Rating, review.Comment).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		// Act
		err := repo.CreateReview(ctx, review)

		// Assert
		require.NoError(t, err)
		assert.WithinDuration(t, now, review.CreatedAt, time.Second)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReviewRepository_GetByProductAndUser(t *testing.T) {
	repo, mock := setupReviewRepoTest(t)
	ctx := t.Context()

	productID := uuid.New()
	userID := uuid.New()

	t.Run("Failure - No Existing Review", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE product_id = $1 AND user_id = $2`)).
			WithArgs(productID, userID).
			WillReturnError(sql.ErrNoRows)

		// Act
		review, err := repo.GetByProductAndUser(ctx, productID, userID)

		// Assert
		assert.Nil(t, review)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReviewRepository_GetRatingStats(t *testing.T) {
	repo, mock := setupReviewRepoTest(t)
	ctx := t.Context()

	productID := uuid.New()

	statsSQL := regexp.QuoteMeta(`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE product_id = $1`)

	t.Run("Success - With Reviews", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(statsSQL).
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(3, 4.0))

		// Act
		count, average, err := repo.GetRatingStats(ctx, productID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		assert.InDelta(t, 4.0, average, 0.001)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - No Reviews Yields Zeros", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(statsSQL).
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(0, 0.0))

		// Act
		count, average, err := repo.GetRatingStats(ctx, productID)

		// Assert
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Zero(t, average)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReviewRepository_DeleteReview(t *testing.T) {
	repo, mock := setupReviewRepoTest(t)
	ctx := t.Context()

	id := uuid.New()

	deleteSQL := regexp.QuoteMeta(`DELETE FROM reviews WHERE id = $1`)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mock.ExpectExec(deleteSQL).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		err := repo.DeleteReview(ctx, id)

		// Assert
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		mock.ExpectExec(deleteSQL).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

		// Act
		err := repo.DeleteReview(ctx, id)

		// Assert
		assert.ErrorIs(t, err, sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
