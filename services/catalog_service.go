package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samim9090/noirman-ecommerce/cache"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogService defines the interface for product browsing and administration.
type CatalogService interface {
	ListProducts(ctx context.Context, filter models.ProductFilter, page, limit int) (*models.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, req *models.ProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type catalogServiceImpl struct {
	repo   repository.ProductRepository
	cache  *cache.ProductCache
	logger *zap.Logger
}

// NewCatalogService creates a CatalogService. cache may be nil.
func NewCatalogService(repo repository.ProductRepository, productCache *cache.ProductCache, logger *zap.Logger) CatalogService {
	return &catalogServiceImpl{repo: repo, cache: productCache, logger: logger}
}

func (s *catalogServiceImpl) ListProducts(ctx context.Context, filter models.ProductFilter, page, limit int) (*models.ProductPage, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetProductList(ctx, filter, page, limit); ok {
			return cached, nil
		}
	}

	products, total, err := s.repo.FindAll(ctx, filter, page, limit)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch products", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	result := &models.ProductPage{Products: products, Total: total}
	if s.cache != nil {
		s.cache.SetProductListAsync(filter, page, limit, result)
	}
	return result, nil
}

func (s *catalogServiceImpl) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.Validation("Invalid product ID")
	}

	if s.cache != nil {
		if cached, ok := s.cache.GetProduct(ctx, id); ok {
			return cached, nil
		}
	}

	product, err := s.repo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrProductNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch product", err)
	}

	if s.cache != nil {
		s.cache.SetProductAsync(product)
	}
	return product, nil
}

func validateProductRequest(req *models.ProductRequest) error {
	if req.DiscountPrice > 0 && req.DiscountPrice >= req.Price {
		return apperrors.Validation("Discount price must be less than price")
	}
	return nil
}

func applyProductRequest(p *models.Product, req *models.ProductRequest) {
	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.DiscountPrice = req.DiscountPrice
	p.Category = req.Category
	p.Sizes = req.Sizes
	p.Colors = req.Colors
	p.Images = req.Images
	p.Stock = req.Stock
	p.IsFeatured = req.IsFeatured
	p.IsBestSeller = req.IsBestSeller
	p.Tags = req.Tags
}

func (s *catalogServiceImpl) CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	product := &models.Product{}
	applyProductRequest(product, req)

	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, apperrors.Internal("Failed to create product", err)
	}

	s.invalidate(ctx)
	s.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("name", product.Name))
	return product, nil
}

func (s *catalogServiceImpl) UpdateProduct(ctx context.Context, id string, req *models.ProductRequest) (*models.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.Validation("Invalid product ID")
	}
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	product, err := s.repo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrProductNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch product", err)
	}

	applyProductRequest(product, req)
	if err := s.repo.Update(ctx, product); err != nil {
		s.logger.Error("Failed to update product", zap.String("product_id", id), zap.Error(err))
		return nil, apperrors.Internal("Failed to update product", err)
	}

	s.invalidate(ctx, id)
	return product, nil
}

func (s *catalogServiceImpl) DeleteProduct(ctx context.Context, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return apperrors.Validation("Invalid product ID")
	}

	if err := s.repo.Delete(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrProductNotFound
		}
		s.logger.Error("Failed to delete product", zap.String("product_id", id), zap.Error(err))
		return apperrors.Internal("Failed to delete product", err)
	}

	s.invalidate(ctx, id)
	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

func (s *catalogServiceImpl) invalidate(ctx context.Context, productIDs ...string) {
	if s.cache != nil {
		s.cache.InvalidateProduct(ctx, productIDs...)
	}
}
