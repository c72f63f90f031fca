package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product categories accepted by the catalog.
var ProductCategories = []string{"Shirts", "Pants", "Suits", "Accessories", "Jackets", "T-Shirts", "Shoes", "Watches"}

// ProductSizes accepted on products and cart lines.
var ProductSizes = []string{"XS", "S", "M", "L", "XL", "XXL", "7", "8", "9", "10", "11", "One Size"}

// Product is a catalog entry. Stock is only ever decremented by order placement
// and never goes below zero (enforced by a CHECK constraint and guarded updates).
type Product struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(200);not null" json:"name"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	Price         int64          `gorm:"not null;check:price > 0" json:"price"`
	DiscountPrice int64          `gorm:"not null;default:0" json:"discountPrice"`
	Category      string         `gorm:"type:varchar(32);not null;index" json:"category"`
	Sizes         []string       `gorm:"serializer:json;type:jsonb" json:"sizes"`
	Colors        []string       `gorm:"serializer:json;type:jsonb" json:"colors"`
	Images        []string       `gorm:"serializer:json;type:jsonb" json:"images"`
	Stock         int            `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Ratings       float64        `gorm:"not null;default:0" json:"ratings"`
	NumReviews    int            `gorm:"not null;default:0" json:"numReviews"`
	IsFeatured    bool           `gorm:"not null;default:false;index" json:"isFeatured"`
	IsBestSeller  bool           `gorm:"not null;default:false" json:"isBestSeller"`
	Tags          []string       `gorm:"serializer:json;type:jsonb" json:"tags"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// UnitPrice is what a customer pays per unit: the discount price when set.
func (p *Product) UnitPrice() int64 {
	if p.DiscountPrice > 0 {
		return p.DiscountPrice
	}
	return p.Price
}

// PrimaryImage returns the first image URL, or "".
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ProductRequest is the admin payload for creating or replacing a product.
type ProductRequest struct {
	Name          string   `json:"name" binding:"required,max=200"`
	Description   string   `json:"description" binding:"required"`
	Price         int64    `json:"price" binding:"required,gt=0"`
	DiscountPrice int64    `json:"discountPrice" binding:"gte=0"`
	Category      string   `json:"category" binding:"required,oneof=Shirts Pants Suits Accessories Jackets T-Shirts Shoes Watches"`
	Sizes         []string `json:"sizes" binding:"omitempty,dive,productsize"`
	Colors        []string `json:"colors" binding:"omitempty,dive,max=40"`
	Images        []string `json:"images" binding:"omitempty,dive,url"`
	Stock         int      `json:"stock" binding:"gte=0"`
	IsFeatured    bool     `json:"isFeatured"`
	IsBestSeller  bool     `json:"isBestSeller"`
	Tags          []string `json:"tags"`
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Category   string
	Keyword    string
	Featured   *bool
	BestSeller *bool
	MinPrice   *int64
	MaxPrice   *int64
	Sort       string
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
}
