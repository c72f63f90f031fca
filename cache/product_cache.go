package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	aws_pkg "github.com/samim9090/noirman-ecommerce/pkg/aws"
	"github.com/samim9090/noirman-ecommerce/models"
	"go.uber.org/zap"
)

const (
	ProductCachePrefix     = "product:detail:"
	ProductListCachePrefix = "products:v:"
	CacheVersionKey        = "products:version"

	DefaultCacheTTL = 10 * time.Minute
)

// ProductCache caches product pages and details in Redis. List keys embed a
// version number; bumping it on every product write retires all cached pages.
type ProductCache struct {
	redis   *redis.Client
	ttl     time.Duration
	metrics *aws_pkg.MetricsClient
	logger  *zap.Logger
}

func NewProductCache(client *redis.Client, ttl time.Duration, metrics *aws_pkg.MetricsClient, logger *zap.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ProductCache{
		redis:   client,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// GetProductList returns a cached page for the filter, if any.
func (pc *ProductCache) GetProductList(ctx context.Context, filter models.ProductFilter, page, limit int) (*models.ProductPage, bool) {
	version, err := pc.getCacheVersion(ctx)
	if err != nil {
		return nil, false
	}

	cached, err := pc.redis.Get(ctx, ListCacheKey(version, filter, page, limit)).Result()
	if err != nil {
		pc.recordLookup(ctx, false)
		return nil, false
	}

	var result models.ProductPage
	if err := json.Unmarshal([]byte(cached), &result); err != nil {
		pc.logger.Warn("Failed to unmarshal cached product list", zap.Error(err))
		return nil, false
	}
	pc.recordLookup(ctx, true)
	return &result, true
}

// SetProductListAsync caches a page in the background.
func (pc *ProductCache) SetProductListAsync(filter models.ProductFilter, page, limit int, result *models.ProductPage) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		version, err := pc.getCacheVersion(bgCtx)
		if err != nil {
			return
		}

		data, err := json.Marshal(result)
		if err != nil {
			pc.logger.Warn("Failed to marshal product list for cache", zap.Error(err))
			return
		}

		if err := pc.redis.Set(bgCtx, ListCacheKey(version, filter, page, limit), data, pc.ttl).Err(); err != nil {
			pc.logger.Warn("Failed to cache product list", zap.Error(err))
		}
	}()
}

func (pc *ProductCache) GetProduct(ctx context.Context, productID string) (*models.Product, bool) {
	cached, err := pc.redis.Get(ctx, ProductCachePrefix+productID).Result()
	if err != nil {
		pc.recordLookup(ctx, false)
		return nil, false
	}

	var product models.Product
	if err := json.Unmarshal([]byte(cached), &product); err != nil {
		pc.logger.Warn("Failed to unmarshal cached product", zap.Error(err), zap.String("product_id", productID))
		return nil, false
	}
	pc.recordLookup(ctx, true)
	return &product, true
}

func (pc *ProductCache) SetProductAsync(product *models.Product) {
	productID := product.ID.String()
	data, err := json.Marshal(product)
	if err != nil {
		pc.logger.Warn("Failed to marshal product for cache", zap.Error(err), zap.String("product_id", productID))
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := pc.redis.Set(bgCtx, ProductCachePrefix+productID, data, pc.ttl).Err(); err != nil {
			pc.logger.Warn("Failed to cache product", zap.Error(err), zap.String("product_id", productID))
		}
	}()
}

// Invalidate retires every cached list page.
func (pc *ProductCache) Invalidate(ctx context.Context) error {
	newVersion, err := pc.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	pc.logger.Debug("Product cache invalidated", zap.Int64("new_version", newVersion))
	return nil
}

// InvalidateProduct retires the list pages and the product's detail entry.
func (pc *ProductCache) InvalidateProduct(ctx context.Context, productIDs ...string) {
	if err := pc.Invalidate(ctx); err != nil {
		pc.logger.Error("Failed to invalidate product cache", zap.Error(err), zap.Strings("product_ids", productIDs))
	}
	if len(productIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, ProductCachePrefix+id)
	}
	if err := pc.redis.Del(ctx, keys...).Err(); err != nil {
		pc.logger.Warn("Failed to delete product cache", zap.Error(err), zap.Strings("product_ids", productIDs))
	}
}

func (pc *ProductCache) getCacheVersion(ctx context.Context) (int64, error) {
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		ver, err := pc.redis.Get(ctx, CacheVersionKey).Int64()
		if err == nil && ver > 0 {
			return ver, nil
		}

		if err == redis.Nil {
			// SETNX so a concurrent Invalidate is not overwritten.
			if ok, setErr := pc.redis.SetNX(ctx, CacheVersionKey, 1, 0).Result(); setErr == nil && ok {
				return 1, nil
			}
			continue
		}

		if i < maxRetries-1 {
			time.Sleep(50 * time.Millisecond)
		}
	}

	return 0, fmt.Errorf("failed to get cache version after %d retries", maxRetries)
}

func (pc *ProductCache) recordLookup(ctx context.Context, hit bool) {
	if !pc.metrics.IsEnabled() {
		return
	}
	name := aws_pkg.MetricCacheMisses
	if hit {
		name = aws_pkg.MetricCacheHits
	}
	_ = pc.metrics.RecordCount(ctx, name, map[string]string{"Cache": "products"})
}

// ListCacheKey builds the key for one page of one filter at a cache version.
func ListCacheKey(version int64, filter models.ProductFilter, page, limit int) string {
	return fmt.Sprintf(
		"%s%d:p:%d:l:%d:c:%s:k:%s:f:%s:b:%s:min:%s:max:%s:s:%s",
		ProductListCachePrefix,
		version,
		page,
		limit,
		filter.Category,
		filter.Keyword,
		formatBool(filter.Featured),
		formatBool(filter.BestSeller),
		formatInt(filter.MinPrice),
		formatInt(filter.MaxPrice),
		filter.Sort,
	)
}

func formatBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
