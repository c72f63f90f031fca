package repository

import (
	"context"

	"github.com/samim9090/noirman-ecommerce/models"
	"gorm.io/gorm"
)

// UserRepository reads the accounts table owned by the auth service. The
// block flag is the only column the storefront writes.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindAll(ctx context.Context, search string, page, limit int) ([]models.User, int64, error)
	SetBlocked(ctx context.Context, id string, blocked bool) error
	Count(ctx context.Context) (int64, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAll pages through users newest first. search matches name or email,
// case-insensitively.
func (r *GormUserRepository) FindAll(ctx context.Context, search string, page, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		kw := "%" + search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", kw, kw)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

func (r *GormUserRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_blocked", blocked)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error
	return total, err
}
