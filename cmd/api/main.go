package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/caravela/go-store-api/internal/config"
	"github.com/caravela/go-store-api/internal/handler"
	"github.com/caravela/go-store-api/internal/middleware"
	"github.com/caravela/go-store-api/internal/repository"
	"github.com/caravela/go-store-api/internal/service"
	"github.com/caravela/go-store-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB
	store, err := repository.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Error("connect to mongo", "error", err)
		os.Exit(1)
	}
	defer store.Disconnect(context.Background())

	if err := store.Ping(ctx); err != nil {
		log.Error("ping mongo", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Error("ensure indexes", "error", err)
		os.Exit(1)
	}
	log.Info("connected to MongoDB")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Repositories
	db := store.Database()
	productRepo := repository.NewProductRepository(db)
	clientRepo := repository.NewClientRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services
	authSvc := service.NewAuthService(clientRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	productSvc := service.NewProductService(productRepo, redisClient)
	clientSvc := service.NewClientService(clientRepo)
	orderSvc := service.NewOrderService(orderRepo, productSvc, clientSvc, auditRepo, amqpCh)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	productH := handler.NewProductHandler(productSvc)
	clientH := handler.NewClientHandler(clientSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	healthH := handler.NewHealthHandler(store, redisClient, amqpConn)

	// Worker
	auditWorker := worker.NewAuditWorker(amqpCh, auditRepo, redisClient, log)

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/login", authH.Login)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/search", productH.Search)
		products.GET("/:id", productH.GetByID)

		productAdmin := products.Group("", middleware.AuthMiddleware(cfg.JWT.Secret))
		productAdmin.POST("", productH.Create)
		productAdmin.PUT("/:id", productH.Update)
		productAdmin.DELETE("/:id", productH.Delete)
		productAdmin.POST("/:id/photos", productH.AttachPhoto)
		productAdmin.DELETE("/:id/photos", productH.DetachPhoto)

		clients := v1.Group("/clients")
		clients.POST("", clientH.Create)

		clientAuth := clients.Group("", middleware.AuthMiddleware(cfg.JWT.Secret))
		clientAuth.GET("", clientH.List)
		clientAuth.GET("/:id", clientH.GetByID)
		clientAuth.PUT("/:id", clientH.Update)
		clientAuth.DELETE("/:id", clientH.Delete)
		clientAuth.POST("/:id/photos", clientH.AttachPhoto)
		clientAuth.DELETE("/:id/photos", clientH.DetachPhoto)

		orders := v1.Group("/orders", middleware.AuthMiddleware(cfg.JWT.Secret))
		orders.POST("", orderH.Create)
		orders.GET("", orderH.List)
		orders.GET("/:id", orderH.GetByID)
		orders.DELETE("/:id", orderH.Delete)
		orders.POST("/:id/items", orderH.AddItem)
		orders.DELETE("/:id/items/:productId", orderH.RemoveItem)
		orders.PUT("/:id/status", orderH.ChangeStatus)
		orders.GET("/:id/audit", orderH.Audit)
	}

	if err := auditWorker.Start(ctx); err != nil {
		log.Error("start audit worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	auditWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
