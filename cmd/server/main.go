package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookstore-orders/config"
	"bookstore-orders/internal/api"
	"bookstore-orders/internal/broker"
	"bookstore-orders/internal/catalog"
	"bookstore-orders/internal/notification"
	"bookstore-orders/internal/redisclient"
	"bookstore-orders/internal/service"
	"bookstore-orders/internal/store"
	"bookstore-orders/internal/util"
	"bookstore-orders/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting bookstore orders service")

	tp, err := util.InitTracer("bookstore-orders", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	topics := broker.Topics{
		NewOrders:       cfg.Kafka.NewOrdersTopic,
		DeliveredOrders: cfg.Kafka.DeliveredOrdersTopic,
		CancelledOrders: cfg.Kafka.CancelledOrdersTopic,
		ErrorOrders:     cfg.Kafka.ErrorOrdersTopic,
	}
	eventPublisher := broker.NewEventPublisher(producer, topics)

	catalogClient := catalog.NewClient(
		cfg.Catalog.BaseURL,
		time.Duration(cfg.Catalog.TimeoutSeconds)*time.Second,
		redisClient,
		time.Duration(cfg.Catalog.CacheTTLSecs)*time.Second,
	)

	orderValidator := service.NewOrderValidator(catalogClient)
	orderService := service.NewOrderService(db, orderValidator, eventPublisher)

	sender := notification.NewLogSender(cfg.Notification.SupportEmail)
	eventHandler := notification.NewHandler(db, sender)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	notificationWorker := worker.NewNotificationWorker(
		cfg.Kafka.Brokers,
		cfg.Kafka.ConsumerGroup,
		topics,
		cfg.Kafka.ConsumerConcurrency,
		eventHandler,
	)
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil {
			log.Printf("Notification worker stopped: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(orderService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	if err := notificationWorker.Stop(); err != nil {
		log.Printf("Error stopping notification worker: %v", err)
	}

	log.Println("Server exited")
}
