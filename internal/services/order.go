package service

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/adivardhan/storefront-api/internal/cache"
	"github.com/adivardhan/storefront-api/internal/errors"
	"github.com/adivardhan/storefront-api/internal/models"
	repository "github.com/adivardhan/storefront-api/internal/repositories"
	"github.com/adivardhan/storefront-api/pkg/razorpay"
	"github.com/adivardhan/storefront-api/pkg/sendgrid"
	"github.com/google/uuid"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error)
	CreatePaymentIntent(ctx context.Context, req *models.CreatePaymentIntentRequest) (*models.PaymentIntentResponse, error)
	VerifyPayment(ctx context.Context, userID uuid.UUID, req *models.VerifyPaymentRequest) (*models.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAllOrders(ctx context.Context) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	gateway     razorpay.Client
	email       sendgrid.EmailService
	cacheStore  cache.Cache
	currency    string
}

func NewOrderService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, productRepo repository.ProductRepository, userRepo repository.UserRepository, gateway razorpay.Client, email sendgrid.EmailService, cacheStore cache.Cache, currency string) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		email:       email,
		cacheStore:  cacheStore,
		currency:    currency,
	}
}

// buildOrder snapshots the user's cart into order lines. Names, images and
// prices are frozen from the product rows at this moment.
func (s *orderService) buildOrder(ctx context.Context, userID uuid.UUID, shippingAddress models.Address) (*models.Order, *models.Cart, error) {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, nil, errors.BadRequestError("Cannot create order with empty cart")
		}

		return nil, nil, errors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	if len(cart.Items) == 0 {
		return nil, nil, errors.BadRequestError("Cannot create order with empty cart")
	}

	var items []models.OrderItem
	var total float64

	for _, line := range cart.Items {

		product, err := s.productRepo.GetProductByID(ctx, line.ProductID)
		if err != nil {
			if stdErrors.Is(err, sql.ErrNoRows) {
				return nil, nil, errors.NotFoundError("Product not found: " + line.ProductID.String()).WithError(err)
			}

			return nil, nil, errors.DatabaseError("Failed to fetch product").WithError(err)
		}

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})

		total += product.Price * float64(line.Quantity)
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: shippingAddress,
		TotalAmount:     total,
		Status:          models.OrderStatusPending,
	}

	return order, cart, nil
}

func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error) {

	order, cart, err := s.buildOrder(ctx, userID, req.ShippingAddress)
	if err != nil {
		return nil, err
	}

	order.PaymentMethod = models.PaymentMethodCOD

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		if stdErrors.Is(err, repository.ErrInsufficientStock) {
			return nil, errors.InsufficientStockError("Insufficient stock for one or more items").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to create order").WithError(err)
	}

	s.finishCheckout(ctx, cart, order)

	return order, nil
}

func (s *orderService) CreatePaymentIntent(ctx context.Context, req *models.CreatePaymentIntentRequest) (*models.PaymentIntentResponse, error) {

	if req.TotalAmount <= 0 {
		return nil, errors.BadRequestError("Amount must be greater than zero")
	}

	// gateway amounts are in the smallest currency unit
	amount := int64(math.Round(req.TotalAmount * 100))
	receipt := fmt.Sprintf("receipt_%d", time.Now().UnixMilli())

	gatewayOrder, err := s.gateway.CreateOrder(ctx, amount, s.currency, receipt)
	if err != nil {
		return nil, errors.ThirdPartyError("Failed to create payment intent").WithError(err)
	}

	return &models.PaymentIntentResponse{
		IntentID: gatewayOrder.ID,
		Amount:   gatewayOrder.Amount,
		Currency: gatewayOrder.Currency,
		KeyID:    s.gateway.KeyID(),
		Total:    req.TotalAmount,
	}, nil
}

// VerifyPayment validates the gateway callback signature and, only on a
// match, converts the cart into a paid order. A failed signature leaves
// stock and cart untouched.
func (s *orderService) VerifyPayment(ctx context.Context, userID uuid.UUID, req *models.VerifyPaymentRequest) (*models.Order, error) {

	if !s.gateway.VerifySignature(req.IntentID, req.TransactionID, req.Signature) {
		return nil, errors.PaymentVerificationError("Invalid payment signature")
	}

	order, cart, err := s.buildOrder(ctx, userID, req.ShippingAddress)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	order.PaymentMethod = models.PaymentMethodRazorpay
	order.IsPaid = true
	order.PaidAt = &now
	order.PaymentResult = &models.PaymentResult{
		IntentID:      req.IntentID,
		TransactionID: req.TransactionID,
		Signature:     req.Signature,
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		if stdErrors.Is(err, repository.ErrInsufficientStock) {
			return nil, errors.InsufficientStockError("Insufficient stock for one or more items").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to create order").WithError(err)
	}

	s.finishCheckout(ctx, cart, order)

	return order, nil
}

// finishCheckout clears the cart, drops stale product cache entries and
// kicks off the confirmation email. The order is already committed, so
// failures here are logged, not surfaced.
func (s *orderService) finishCheckout(ctx context.Context, cart *models.Cart, order *models.Order) {

	for attempt := 0; attempt < maxCartRetries; attempt++ {

		cart.Items = make(map[string]models.CartItem)
		cart.TotalAmount = 0

		err := s.cartRepo.UpdateCart(ctx, cart)
		if err == nil {
			break
		}

		if stdErrors.Is(err, repository.ErrVersionConflict) {

			fresh, ferr := s.cartRepo.GetCartByUserID(ctx, cart.UserID)
			if ferr != nil {
				slog.Warn("Failed to reload cart after checkout", slog.Any("error", ferr))

				break
			}

			cart = fresh

			continue
		}

		slog.Warn("Failed to clear cart after checkout", slog.Any("error", err))

		break
	}

	for _, item := range order.Items {
		_ = s.cacheStore.Delete(ctx, cache.Key(cache.ProductKeyPrefix, item.ProductID.String()))
	}

	go s.sendConfirmationEmail(order)
}

func (s *orderService) sendConfirmationEmail(order *models.Order) {

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := s.userRepo.GetUserByID(ctx, order.UserID)
	if err != nil {
		slog.Warn("Failed to look up user for order confirmation",
			slog.String("orderId", order.ID.String()), slog.Any("error", err))

		return
	}

	msg := &sendgrid.Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Order confirmation %s", order.ID),
		Content: fmt.Sprintf("Hi %s,\n\nYour order %s for %.2f has been placed successfully.\n\nThank you for shopping with us!",
			user.Name, order.ID, order.TotalAmount),
	}

	if err := s.email.Send(ctx, msg); err != nil {
		slog.Warn("Failed to send order confirmation email",
			slog.String("orderId", order.ID.String()), slog.Any("error", err))
	}
}

func (s *orderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Order not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to fetch order").WithError(err)
	}

	return order, nil
}

func (s *orderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {

	orders, err := s.orderRepo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, nil
}

func (s *orderService) ListAllOrders(ctx context.Context) ([]models.Order, error) {

	orders, err := s.orderRepo.ListAllOrders(ctx)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {

	if !status.Valid() {
		return nil, errors.ValidationError("Unknown order status: " + string(status))
	}

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Order not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to fetch order").WithError(err)
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, errors.InvalidTransitionError(
			fmt.Sprintf("Cannot transition order from %s to %s", order.Status, status))
	}

	order.Status = status

	if status == models.OrderStatusDelivered {
		now := time.Now()
		order.IsDelivered = true
		order.DeliveredAt = &now
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, order); err != nil {
		return nil, errors.DatabaseError("Failed to update order status").WithError(err)
	}

	return order, nil
}
