package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samim9090/noirman-ecommerce/models"
)

// CartRepository stores one cart per user.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	ClearCart(ctx context.Context, userID string) error
}

// RedisCartRepository keeps carts as JSON documents with a sliding TTL.
type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) CartRepository {
	return &RedisCartRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCartRepository) getKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

// GetCart returns nil, nil when the user has no cart yet.
func (r *RedisCartRepository) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, r.getKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *RedisCartRepository) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()

	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.getKey(cart.UserID), data, r.ttl).Err()
}

// ClearCart empties the cart but keeps it in place.
func (r *RedisCartRepository) ClearCart(ctx context.Context, userID string) error {
	return r.SaveCart(ctx, &models.Cart{UserID: userID, Items: []models.CartItem{}})
}
