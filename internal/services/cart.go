package service

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"time"

	"github.com/adivardhan/storefront-api/internal/errors"
	"github.com/adivardhan/storefront-api/internal/models"
	repository "github.com/adivardhan/storefront-api/internal/repositories"
	"github.com/google/uuid"
)

// maxCartRetries bounds the compare-and-swap retry loop on version conflicts.
const maxCartRetries = 3

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.PopulatedCart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddCartItemRequest) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

type cartService struct {
	repo        repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(repo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{repo: repo, productRepo: productRepo}
}

// getOrCreateCart loads the user's cart, creating an empty one on first access.
func (s *cartService) getOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}

	if !stdErrors.Is(err, sql.ErrNoRows) {
		return nil, errors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	cart = &models.Cart{
		ID:        uuid.New(),
		UserID:    userID,
		Items:     make(map[string]models.CartItem),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.repo.CreateCart(ctx, cart); err != nil {
		return nil, errors.DatabaseError("Failed to create cart").WithError(err)
	}

	return cart, nil
}

// mutate applies fn to a fresh copy of the cart and writes it back, retrying
// when a concurrent writer wins the compare-and-swap.
func (s *cartService) mutate(ctx context.Context, userID uuid.UUID, fn func(cart *models.Cart) error) (*models.Cart, error) {

	for attempt := 0; attempt < maxCartRetries; attempt++ {

		cart, err := s.getOrCreateCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		if err := fn(cart); err != nil {
			return nil, err
		}

		cart.Recalculate()

		err = s.repo.UpdateCart(ctx, cart)
		if err == nil {
			return cart, nil
		}

		if stdErrors.Is(err, repository.ErrVersionConflict) {
			continue
		}

		return nil, errors.DatabaseError("Failed to update cart").WithError(err)
	}

	return nil, errors.InternalError("Cart is being modified concurrently, please retry")
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.PopulatedCart, error) {

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	populated := &models.PopulatedCart{
		ID:          cart.ID,
		UserID:      cart.UserID,
		Items:       make([]models.PopulatedCartItem, 0, len(cart.Items)),
		TotalAmount: cart.TotalAmount,
		UpdatedAt:   cart.UpdatedAt,
	}

	for _, item := range cart.Items {

		line := models.PopulatedCartItem{CartItem: item}

		// a product deleted after being added still shows as a bare line
		if product, err := s.productRepo.GetProductByID(ctx, item.ProductID); err == nil {
			line.Product = product
		}

		populated.Items = append(populated.Items, line)
	}

	return populated, nil
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddCartItemRequest) (*models.Cart, error) {

	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to fetch product").WithError(err)
	}

	return s.mutate(ctx, userID, func(cart *models.Cart) error {

		key := req.ProductID.String()

		line, exists := cart.Items[key]
		if !exists {
			line = models.CartItem{ProductID: req.ProductID, Price: product.Price}
		}

		newQuantity := line.Quantity + req.Quantity

		if newQuantity > product.Stock {
			return errors.InsufficientStockError("Not enough stock for product: " + product.Name)
		}

		line.Quantity = newQuantity
		cart.Items[key] = line

		return nil
	})
}

func (s *cartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {

	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if quantity > product.Stock {
		return nil, errors.InsufficientStockError("Not enough stock for product: " + product.Name)
	}

	return s.mutate(ctx, userID, func(cart *models.Cart) error {

		key := productID.String()

		line, exists := cart.Items[key]
		if !exists {
			return errors.NotFoundError("Item not in cart")
		}

		line.Quantity = quantity
		cart.Items[key] = line

		return nil
	})
}

// RemoveItem is a no-op when the product is not in the cart.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {

	return s.mutate(ctx, userID, func(cart *models.Cart) error {
		delete(cart.Items, productID.String())

		return nil
	})
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	return s.mutate(ctx, userID, func(cart *models.Cart) error {
		cart.Items = make(map[string]models.CartItem)

		return nil
	})
}
