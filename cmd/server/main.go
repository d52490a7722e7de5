package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"givehub/internal/api"
	"givehub/internal/cache"
	"givehub/internal/config"
	"givehub/internal/db"
	"givehub/internal/ledger"
	"givehub/internal/middleware"
	"givehub/internal/payments"
	"givehub/internal/queue"

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/hibiken/asynq"     // Job queue client
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the API server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	gdb, err := db.Open(db.DSN(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	store := ledger.New(gdb)

	// Setup Redis client for the cache layer
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}
	cch := cache.New(redisClient, cfg.CacheTTL)

	// Queue client shares the redis instance with the cache
	enqueuer := queue.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	}, cfg.QueueMaxRetry)
	defer enqueuer.Close()

	// Payment gateway integration
	gateway := payments.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecret)
	paymentSvc := payments.NewService(store, gateway, cfg.PaystackSecret)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default()
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/auth/register", api.RegisterHandler(store))
	r.POST("/auth/login", api.LoginHandler(store, cfg))
	r.POST("/auth/refresh", api.RefreshHandler(store, cfg))

	// Gateway webhook: unauthenticated, verified by signature
	r.POST("/webhooks/paystack", api.PaystackWebhookHandler(paymentSvc))

	// Wallet routes (protected by JWT)
	walletGroup := r.Group("/wallet")
	walletGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	walletGroup.GET("", api.GetWalletHandler(store, cch))
	walletGroup.GET("/transactions", api.GetTransactionHistoryHandler(store, cch))
	walletGroup.POST("/fund", api.FundWalletHandler(paymentSvc))

	// Donation routes (protected by JWT)
	donationGroup := r.Group("/donations")
	donationGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	donationGroup.POST("", api.CreateDonationHandler(store, enqueuer, cfg))
	donationGroup.GET("", api.ListDonationsHandler(store, cch))
	donationGroup.GET("/:id", api.GetDonationHandler(store))

	// Beneficiary routes (protected by JWT)
	beneficiaryGroup := r.Group("/beneficiaries")
	beneficiaryGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	beneficiaryGroup.POST("", api.CreateBeneficiaryHandler(store))
	beneficiaryGroup.GET("", api.ListBeneficiariesHandler(store))
	beneficiaryGroup.PATCH("/:id", api.UpdateBeneficiaryHandler(store))
	beneficiaryGroup.DELETE("/:id", api.DeleteBeneficiaryHandler(store))

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	// Serve until interrupted, then drain in-flight requests
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.Infof("Server running on %s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("shutdown error: %v", err)
	}
}
