package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/samim9090/noirman-ecommerce/models"
	"gorm.io/gorm"
)

// ProductRepository defines the interface for catalog data access.
type ProductRepository interface {
	FindAll(ctx context.Context, filter models.ProductFilter, page, limit int) ([]models.Product, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateRatings(ctx context.Context, id uuid.UUID, ratings float64, numReviews int) error
	Count(ctx context.Context) (int64, error)
}

// GormProductRepository implements ProductRepository using GORM.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

var productSortOrders = map[string]string{
	"newest":     "created_at DESC",
	"price_asc":  "price ASC",
	"price_desc": "price DESC",
	"rating":     "ratings DESC",
}

// FindAll retrieves products matching filter with pagination.
func (r *GormProductRepository) FindAll(ctx context.Context, filter models.ProductFilter, page, limit int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", kw, kw)
	}
	if filter.Featured != nil {
		query = query.Where("is_featured = ?", *filter.Featured)
	}
	if filter.BestSeller != nil {
		query = query.Where("is_best_seller = ?", *filter.BestSeller)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := productSortOrders[filter.Sort]
	if !ok {
		order = productSortOrders["newest"]
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order(order).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads every listed product that still exists. Missing ids are
// simply absent from the result.
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *GormProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete soft-deletes a product. Past orders keep their own snapshot.
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormProductRepository) UpdateRatings(ctx context.Context, id uuid.UUID, ratings float64, numReviews int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"ratings":     ratings,
			"num_reviews": numReviews,
		}).Error
}

func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error
	return total, err
}
