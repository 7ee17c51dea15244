package service

import (
	"context"
	"database/sql"
	stdErrors "errors"

	"github.com/adivardhan/storefront-api/internal/cache"
	"github.com/adivardhan/storefront-api/internal/config"
	"github.com/adivardhan/storefront-api/internal/errors"
	"github.com/adivardhan/storefront-api/internal/models"
	repository "github.com/adivardhan/storefront-api/internal/repositories"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const featuredLimit = 6

type ProductService interface {
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, error)
	ListFeatured(ctx context.Context) ([]*models.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
}

type productService struct {
	repo       repository.ProductRepository
	cacheStore cache.Cache
	cacheCfg   *config.CacheConfig
	sanitizer  *bluemonday.Policy
}

func NewProductService(repo repository.ProductRepository, cacheStore cache.Cache, cacheCfg *config.CacheConfig) ProductService {
	return &productService{
		repo:       repo,
		cacheStore: cacheStore,
		cacheCfg:   cacheCfg,
		sanitizer:  bluemonday.UGCPolicy(),
	}
}

func (s *productService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {

	product := &models.Product{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: s.sanitizer.Sanitize(req.Description),
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Images:      req.Images,
		Stock:       req.Stock,
		Brand:       req.Brand,
		IsFeatured:  req.IsFeatured,
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, errors.DatabaseError("Failed to create product").WithError(err)
	}

	s.invalidateListings(ctx)

	return product, nil
}

func (s *productService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	cacheKey := cache.Key(cache.ProductKeyPrefix, id.String())

	product := &models.Product{}

	// cache errors fall through to the database
	if hit, err := s.cacheStore.Get(ctx, cacheKey, product); err == nil && hit {
		return product, nil
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to fetch product").WithError(err)
	}

	_ = s.cacheStore.Set(ctx, cacheKey, product, s.cacheCfg.ProductTTL)

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}

	if req.Description != nil {
		product.Description = s.sanitizer.Sanitize(*req.Description)
	}

	if req.Price != nil {
		product.Price = *req.Price
	}

	if req.Category != nil {
		product.Category = *req.Category
	}

	if req.Image != nil {
		product.Image = *req.Image
	}

	if req.Images != nil {
		product.Images = req.Images
	}

	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	if req.Brand != nil {
		product.Brand = *req.Brand
	}

	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, errors.DatabaseError("Failed to update product").WithError(err)
	}

	s.invalidateProduct(ctx, id)
	s.invalidateListings(ctx)

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {

	err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return errors.NotFoundError("Product not found").WithError(err)
		}

		return errors.DatabaseError("Failed to delete product").WithError(err)
	}

	s.invalidateProduct(ctx, id)
	s.invalidateListings(ctx)

	return nil
}

func (s *productService) ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, error) {

	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, nil
}

func (s *productService) ListFeatured(ctx context.Context) ([]*models.Product, error) {

	var cached []*models.Product

	if hit, err := s.cacheStore.Get(ctx, cache.FeaturedKey, &cached); err == nil && hit {
		return cached, nil
	}

	products, err := s.repo.ListFeatured(ctx, featuredLimit)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch featured products").WithError(err)
	}

	_ = s.cacheStore.Set(ctx, cache.FeaturedKey, products, s.cacheCfg.DefaultTTL)

	return products, nil
}

func (s *productService) ListCategories(ctx context.Context) ([]string, error) {

	var cached []string

	if hit, err := s.cacheStore.Get(ctx, cache.CategoriesKey, &cached); err == nil && hit {
		return cached, nil
	}

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch categories").WithError(err)
	}

	_ = s.cacheStore.Set(ctx, cache.CategoriesKey, categories, s.cacheCfg.DefaultTTL)

	return categories, nil
}

func (s *productService) invalidateProduct(ctx context.Context, id uuid.UUID) {
	_ = s.cacheStore.Delete(ctx, cache.Key(cache.ProductKeyPrefix, id.String()))
}

func (s *productService) invalidateListings(ctx context.Context) {
	_ = s.cacheStore.Delete(ctx, cache.FeaturedKey)
	_ = s.cacheStore.Delete(ctx, cache.CategoriesKey)
}
