package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/adivardhan/storefront-api/internal/models"
	"github.com/adivardhan/storefront-api/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO users (id, name, email, password, phone, is_admin, wishlist, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	wishlist := make([]string, 0, len(user.Wishlist))
	for _, id := range user.Wishlist {
		wishlist = append(wishlist, id.String())
	}

	return r.DB.QueryRowContext(dbCtx, query,
		user.ID, user.Name, user.Email, user.Password, user.Phone, user.IsAdmin, pq.Array(wishlist)).
		Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, name, email, password, phone, address, is_admin, wishlist, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	return r.scanUser(r.DB.QueryRowContext(dbCtx, query, email))
}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, name, email, password, phone, address, is_admin, wishlist, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	return r.scanUser(r.DB.QueryRowContext(dbCtx, query, id))
}

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {

	user := &models.User{}

	var addressJSON []byte
	var wishlist pq.StringArray

	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Phone,
		&addressJSON, &user.IsAdmin, &wishlist, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	if len(addressJSON) > 0 {
		if err := json.Unmarshal(addressJSON, &user.Address); err != nil {
			return nil, fmt.Errorf("failed to unmarshal address: %w", err)
		}
	}

	user.Wishlist = make([]uuid.UUID, 0, len(wishlist))

	for _, raw := range wishlist {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid wishlist entry %q: %w", raw, err)
		}

		user.Wishlist = append(user.Wishlist, id)
	}

	return user, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *models.User) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	addressJSON, err := json.Marshal(user.Address)
	if err != nil {
		return fmt.Errorf("failed to marshal address: %w", err)
	}

	wishlist := make([]string, 0, len(user.Wishlist))
	for _, id := range user.Wishlist {
		wishlist = append(wishlist, id.String())
	}

	query := `
		UPDATE users
		SET name = $1, email = $2, password = $3, phone = $4, address = $5, wishlist = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		user.Name, user.Email, user.Password, user.Phone, addressJSON, pq.Array(wishlist), user.ID).
		Scan(&user.UpdatedAt)
}
