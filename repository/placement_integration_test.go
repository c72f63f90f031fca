//go:build integration

package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("noirman"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Coupon{}, &models.Order{}, &models.OrderItem{}))
	return db
}

func TestPlaceOrder_ConcurrentBuyersNeverOversell(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	product := models.Product{
		Name:        "Oxford Shirt",
		Description: "White oxford",
		Price:       1000,
		Category:    "Shirts",
		Stock:       5,
	}
	require.NoError(t, db.Create(&product).Error)

	repo := repository.NewGormOrderRepository(db)

	const buyers = 20
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		placed     int
		rejected   int
		unexpected []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order := &models.Order{
				ID:     uuid.New(),
				UserID: uuid.NewString(),
				OrderItems: []models.OrderItem{
					{ProductID: product.ID, Name: product.Name, Price: 1000, Qty: 1, Size: "M"},
				},
				PaymentMethod:     models.PaymentMethodCOD,
				PaymentStatus:     models.PaymentStatusPending,
				OrderStatus:       models.OrderStatusPlaced,
				Subtotal:          1000,
				ShippingPrice:     149,
				TotalPrice:        1149,
				EstimatedDelivery: time.Now().Add(models.EstimatedDeliveryWindow),
			}
			err := repo.PlaceOrder(ctx, order, []repository.StockDeduction{{ProductID: product.ID, Name: product.Name, Qty: 1}}, "")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case errors.Is(err, apperrors.ErrInsufficientStock):
				rejected++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, unexpected)
	assert.Equal(t, 5, placed)
	assert.Equal(t, buyers-5, rejected)

	var stock int
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Pluck("stock", &stock).Error)
	assert.Zero(t, stock)

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(5), orders)
}

func TestPlaceOrder_CouponClaimRollsBackStock(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	product := models.Product{Name: "Chelsea Boot", Description: "Suede", Price: 4000, Category: "Shoes", Stock: 3}
	require.NoError(t, db.Create(&product).Error)
	coupon := models.Coupon{
		Code:            "ONCE",
		DiscountPercent: 10,
		UsageLimit:      1,
		UsedCount:       1,
		IsActive:        true,
		ExpiresAt:       time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, db.Create(&coupon).Error)

	repo := repository.NewGormOrderRepository(db)
	order := &models.Order{
		UserID:            "user-1",
		OrderItems:        []models.OrderItem{{ProductID: product.ID, Name: product.Name, Price: 4000, Qty: 2}},
		PaymentMethod:     models.PaymentMethodCOD,
		PaymentStatus:     models.PaymentStatusPending,
		OrderStatus:       models.OrderStatusPlaced,
		Subtotal:          8000,
		Discount:          800,
		TotalPrice:        7200,
		CouponCode:        "ONCE",
		EstimatedDelivery: time.Now().Add(models.EstimatedDeliveryWindow),
	}

	err := repo.PlaceOrder(ctx, order, []repository.StockDeduction{{ProductID: product.ID, Name: product.Name, Qty: 2}}, "ONCE")
	require.ErrorIs(t, err, apperrors.ErrCouponUsageExhausted)

	var stock int
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Pluck("stock", &stock).Error)
	assert.Equal(t, 3, stock)
}
