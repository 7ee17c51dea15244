package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adivardhan/storefront-api/internal/models"
	"github.com/adivardhan/storefront-api/internal/utils"
	"github.com/google/uuid"
)

// ErrInsufficientStock is returned when a conditional stock decrement
// matches no row, i.e. another checkout drained the stock first.
var ErrInsufficientStock = errors.New("insufficient stock")

type OrderRepository interface {
	// CreateOrder decrements stock for every line and inserts the order in
	// one transaction. Either everything commits or nothing does.
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAllOrders(ctx context.Context) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, order *models.Order) error
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

const orderColumns = `id, user_id, items, shipping_address, payment_method, payment_result, total_amount, is_paid, paid_at, status, is_delivered, delivered_at, created_at, updated_at`

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	paymentJSON, err := json.Marshal(order.PaymentResult)
	if err != nil {
		return fmt.Errorf("failed to marshal payment result: %w", err)
	}

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	// Conditional decrement: zero affected rows means a concurrent
	// checkout won the stock, so the whole order rolls back.
	decrement := `UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1`

	for _, item := range order.Items {

		result, err := tx.ExecContext(dbCtx, decrement, item.Quantity, item.ProductID)
		if err != nil {
			return fmt.Errorf("failed to decrement stock for product %s: %w", item.ProductID, err)
		}

		updated, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}

		if updated == 0 {
			return fmt.Errorf("product %s: %w", item.ProductID, ErrInsufficientStock)
		}
	}

	insert := `
		INSERT INTO orders (id, user_id, items, shipping_address, payment_method, payment_result, total_amount, is_paid, paid_at, status, is_delivered, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err = tx.QueryRowContext(dbCtx, insert,
		order.ID, order.UserID, itemsJSON, addressJSON, order.PaymentMethod, paymentJSON,
		order.TotalAmount, order.IsPaid, order.PaidAt, order.Status).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return tx.Commit()
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.DB.QueryRowContext(dbCtx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(dbCtx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	return collectOrders(rows, false)
}

// ListAllOrders attaches the customer's name and email for the admin view.
func (r *orderRepository) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT o.id, o.user_id, o.items, o.shipping_address, o.payment_method, o.payment_result,
		       o.total_amount, o.is_paid, o.paid_at, o.status, o.is_delivered, o.delivered_at,
		       o.created_at, o.updated_at, u.name, u.email
		FROM orders o
		JOIN users u ON o.user_id = u.id
		ORDER BY o.created_at DESC
	`

	rows, err := r.DB.QueryContext(dbCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	return collectOrders(rows, true)
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, order *models.Order) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE orders
		SET status = $1, is_delivered = $2, delivered_at = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.DB.ExecContext(dbCtx, query,
		order.Status, order.IsDelivered, order.DeliveredAt, time.Now(), order.ID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func scanOrderFrom(s rowScanner, withCustomer bool) (*models.Order, error) {

	order := &models.Order{}

	var itemsJSON, addressJSON, paymentJSON []byte

	dest := []any{
		&order.ID, &order.UserID, &itemsJSON, &addressJSON, &order.PaymentMethod, &paymentJSON,
		&order.TotalAmount, &order.IsPaid, &order.PaidAt, &order.Status, &order.IsDelivered,
		&order.DeliveredAt, &order.CreatedAt, &order.UpdatedAt,
	}

	customer := &models.OrderCustomer{}
	if withCustomer {
		dest = append(dest, &customer.Name, &customer.Email)
	}

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}

	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}

	if len(paymentJSON) > 0 && string(paymentJSON) != "null" {
		if err := json.Unmarshal(paymentJSON, &order.PaymentResult); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payment result: %w", err)
		}
	}

	if withCustomer {
		order.Customer = customer
	}

	return order, nil
}

func scanOrder(row *sql.Row) (*models.Order, error) {
	return scanOrderFrom(row, false)
}

func collectOrders(rows *sql.Rows, withCustomer bool) ([]models.Order, error) {

	var orders []models.Order

	for rows.Next() {
		order, err := scanOrderFrom(rows, withCustomer)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
