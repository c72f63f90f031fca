package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samim9090/noirman-ecommerce/cache"
	"github.com/samim9090/noirman-ecommerce/controllers"
	"github.com/samim9090/noirman-ecommerce/database"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/kafka"
	applogger "github.com/samim9090/noirman-ecommerce/logger"
	"github.com/samim9090/noirman-ecommerce/middleware"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/notification"
	"github.com/samim9090/noirman-ecommerce/payment"
	aws_pkg "github.com/samim9090/noirman-ecommerce/pkg/aws"
	"github.com/samim9090/noirman-ecommerce/repository"
	"github.com/samim9090/noirman-ecommerce/routes"
	"github.com/samim9090/noirman-ecommerce/services"
	"github.com/samim9090/noirman-ecommerce/tracing"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "storefront"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		panic("config load failed: " + err.Error())
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- AWS setup ---
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(rootCtx)

	var cwWriter io.Writer
	if cfg.LogGroup != "" && awsErr == nil {
		if w, err := aws_pkg.NewCloudWatchLogsClient(rootCtx, awsCfg, cfg.LogGroup, serviceName); err == nil {
			cwWriter = w
		}
	}

	logger, err := applogger.New(cfg.AppEnv, cwWriter)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	if awsErr != nil {
		logger.Warn("AWS config unavailable, SNS/SQS/CloudWatch disabled", zap.Error(awsErr))
	}
	tp, err := tracing.Init(serviceName, cfg.TraceStdout, logger)
	if err != nil {
		logger.Fatal("Tracing init failed", zap.Error(err))
	}

	if err := middleware.RegisterValidators(); err != nil {
		logger.Fatal("Validator registration failed", zap.Error(err))
	}

	// --- Databases ---
	db, err := database.ConnectPostgres(cfg.Postgres, logger,
		&models.User{}, &models.Product{}, &models.Coupon{}, &models.Order{}, &models.OrderItem{})
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}

	mongoClient, mongoDB, err := database.ConnectMongo(rootCtx, cfg.MongoURL, cfg.MongoDB)
	if err != nil {
		logger.Fatal("MongoDB connection failed", zap.Error(err))
	}
	reviewRepo := repository.NewMongoReviewRepository(mongoDB)
	if err := reviewRepo.EnsureIndexes(rootCtx); err != nil {
		logger.Fatal("Review index creation failed", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(rootCtx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}

	var metricsClient *aws_pkg.MetricsClient
	if awsErr == nil {
		metricsClient = aws_pkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.MetricsEnabled)
	}

	// --- Event bus ---
	var (
		publisher     aws_pkg.SNSPublisher
		topic         string
		kafkaProducer *kafka.Producer
	)
	switch {
	case len(cfg.KafkaBrokers) > 0:
		kafkaProducer = kafka.NewProducer(cfg.KafkaBrokers, logger)
		publisher, topic = kafkaProducer, cfg.KafkaTopic
	case cfg.EventsTopicARN != "" && awsErr == nil:
		publisher, topic = aws_pkg.NewSNSClient(awsCfg), cfg.EventsTopicARN
	default:
		logger.Warn("No event bus configured, domain events are dropped")
	}

	// --- Notifications ---
	var sender notification.EmailSender = notification.NewLogSender(logger)
	if cfg.SMTP.Enabled() {
		smtpSender, err := notification.NewSMTPSender(cfg.SMTP)
		if err != nil {
			logger.Fatal("SMTP sender init failed", zap.Error(err))
		}
		sender = smtpSender
	}
	emailDispatcher := notification.NewEmailDispatcher(sender, metricsClient, logger)

	var notifier notification.Dispatcher = emailDispatcher
	if cfg.NotificationQueueURL != "" && awsErr == nil {
		queue := aws_pkg.NewSQSQueue(awsCfg, cfg.NotificationQueueURL, logger)
		notifier = notification.NewQueueDispatcher(queue, logger)
		go queue.StartPolling(rootCtx, emailDispatcher.HandleMessage)
	}

	// --- Dependency injection ---
	productRepo := repository.NewGormProductRepository(db)
	couponRepo := repository.NewGormCouponRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	cartRepo := repository.NewRedisCartRepository(redisClient, cfg.CartTTL)
	idemStore := repository.NewRedisIdempotencyStore(redisClient, cfg.IdempotencyTTL)
	productCache := cache.NewProductCache(redisClient, cfg.ProductCacheTTL, metricsClient, logger)
	stripeGateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.Currency)

	catalogService := services.NewCatalogService(productRepo, productCache, logger)
	reviewService := services.NewReviewService(reviewRepo, productRepo, productCache, logger)
	cartService := services.NewCartService(cartRepo, productRepo, logger)
	couponService := services.NewCouponService(couponRepo, logger)
	userService := services.NewUserService(userRepo, logger)
	orderService := services.NewOrderService(services.OrderDeps{
		Orders:      orderRepo,
		Products:    productRepo,
		Coupons:     couponRepo,
		Carts:       cartRepo,
		Users:       userRepo,
		Idempotency: idemStore,
		Gateway:     stripeGateway,
		Notifier:    notifier,
		Publisher:   publisher,
		Topic:       topic,
		Cache:       productCache,
		Metrics:     metricsClient,
		Shipping:    cfg.Shipping,
		Logger:      logger,
	})
	paymentService := services.NewPaymentService(stripeGateway, stripeGateway, orderRepo, publisher, topic, metricsClient, logger)

	// --- HTTP router ---
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := middleware.NewRateLimiter(rate.Limit(10), 30, 10*time.Minute)
	limiterStop := make(chan struct{})
	go limiter.Run(limiterStop)

	r := gin.New()
	r.Use(apperrors.Recovery())
	r.Use(applogger.RequestID())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(limiter))
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(applogger.RequestLogger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterRoutes(r, routes.Controllers{
		Products: controllers.NewProductController(catalogService),
		Reviews:  controllers.NewReviewController(reviewService),
		Cart:     controllers.NewCartController(cartService),
		Coupons:  controllers.NewCouponController(couponService),
		Orders:   controllers.NewOrderController(orderService),
		Payments: controllers.NewPaymentController(paymentService),
		Users:    controllers.NewUserController(userService),
	}, middleware.AuthConfig{
		JWTSecret:           []byte(cfg.JWTSecret),
		TrustGatewayHeaders: cfg.TrustGatewayHeaders,
		Accounts:            userService,
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Storefront started", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	httpShutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(httpShutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	stop()
	close(limiterStop)

	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			logger.Error("Kafka producer close error", zap.Error(err))
		}
	}
	if err := redisClient.Close(); err != nil {
		logger.Error("Redis close error", zap.Error(err))
	}
	if err := database.CloseMongo(mongoClient); err != nil {
		logger.Error("MongoDB close error", zap.Error(err))
	}
	if err := database.ClosePostgres(db); err != nil {
		logger.Error("Database close error", zap.Error(err))
	}
	tracing.Shutdown(httpShutdownCtx, tp, logger)
	logger.Info("Storefront stopped")
}
