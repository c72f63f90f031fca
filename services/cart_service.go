package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CartService defines the interface for the per-user cart.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*models.CartView, error)
	AddItem(ctx context.Context, userID string, req *models.AddToCartRequest) (*models.CartView, error)
	UpdateItem(ctx context.Context, userID string, req *models.UpdateCartRequest) (*models.CartView, error)
	RemoveItem(ctx context.Context, userID, productID, size, color string) (*models.CartView, error)
	ClearCart(ctx context.Context, userID string) error
}

type cartServiceImpl struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *zap.Logger) CartService {
	return &cartServiceImpl{carts: carts, products: products, logger: logger}
}

func (s *cartServiceImpl) load(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID, Items: []models.CartItem{}}
	}
	return cart, nil
}

func (s *cartServiceImpl) save(ctx context.Context, cart *models.Cart) (*models.CartView, error) {
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("user_id", cart.UserID), zap.Error(err))
		return nil, apperrors.Internal("Failed to save cart", err)
	}
	return s.view(ctx, cart)
}

func (s *cartServiceImpl) GetCart(ctx context.Context, userID string) (*models.CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// AddItem merges into the line keyed by (productId, size, color) or appends a
// new line.
func (s *cartServiceImpl) AddItem(ctx context.Context, userID string, req *models.AddToCartRequest) (*models.CartView, error) {
	qty := req.Qty
	if qty <= 0 {
		qty = 1
	}
	size := req.Size
	if size == "" {
		size = models.DefaultCartSize
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apperrors.Validation("Invalid product ID")
	}
	product, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrProductNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch product", err)
	}
	if product.Stock < qty {
		return nil, apperrors.ErrInsufficientStock
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].Matches(req.ProductID, size, req.Color) {
			cart.Items[i].Qty += qty
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: req.ProductID,
			Qty:       qty,
			Size:      size,
			Color:     req.Color,
		})
	}

	return s.save(ctx, cart)
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (s *cartServiceImpl) UpdateItem(ctx context.Context, userID string, req *models.UpdateCartRequest) (*models.CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].Matches(req.ProductID, req.Size, req.Color) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.ErrCartItemNotFound
	}

	if req.Qty <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Qty = req.Qty
	}
	return s.save(ctx, cart)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, productID, size, color string) (*models.CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if !item.Matches(productID, size, color) {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	return s.save(ctx, cart)
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, userID string) error {
	if err := s.carts.ClearCart(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart", zap.String("user_id", userID), zap.Error(err))
		return apperrors.Internal("Failed to clear cart", err)
	}
	return nil
}

// view joins cart lines with live catalog data. Lines whose product has been
// removed are shown as unavailable and excluded from the total.
func (s *cartServiceImpl) view(ctx context.Context, cart *models.Cart) (*models.CartView, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		if id, err := uuid.Parse(item.ProductID); err == nil {
			ids = append(ids, id)
		}
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch cart products", err)
	}
	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID.String()] = &products[i]
	}

	view := &models.CartView{Items: make([]models.CartLineView, 0, len(cart.Items))}
	for _, item := range cart.Items {
		line := models.CartLineView{CartItem: item}
		if p, ok := byID[item.ProductID]; ok {
			line.Name = p.Name
			line.Image = p.PrimaryImage()
			line.Price = p.Price
			line.DiscountPrice = p.DiscountPrice
			line.Stock = p.Stock
			line.Available = true
			view.CartTotal += p.UnitPrice() * int64(item.Qty)
		}
		view.ItemCount += item.Qty
		view.Items = append(view.Items, line)
	}
	return view, nil
}
