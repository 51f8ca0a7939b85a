package main

// @title           Pulse Realtime Service API
// @version         1.0
// @description     Real-time connection and channel hub for the publishing platform
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulse-service/internal/api/routes"
	"pulse-service/internal/config"
	"pulse-service/internal/database"
	"pulse-service/internal/events"
	"pulse-service/internal/hub"
	"pulse-service/internal/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting pulse server")

	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	db, err := database.NewPostgresConnection(cfg.Database.URI())
	if err != nil {
		slog.Error("Failed to connect to Postgres", "error", err)
		os.Exit(1)
	}

	redisService := services.NewRedisService(redisClient)
	notificationService := services.NewNotificationService(db)

	h := hub.NewHub(redisService, hub.Options{
		QueueSize:         cfg.Hub.QueueSize,
		HeartbeatInterval: cfg.Hub.HeartbeatInterval,
		EvictAfter:        cfg.Hub.EvictAfter,
	})
	go h.Run()

	// Event stream: producers drop business events on Kafka, the bridge
	// fans them back through the hub and the durable store.
	kafkaProducer, err := events.InitKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		slog.Error("Failed to connect to Kafka", "error", err)
		os.Exit(1)
	}
	producer := events.NewEventProducer(kafkaProducer, cfg.Kafka.Topic)
	defer producer.Close()

	bridge := events.NewBridge(&cfg.Kafka, h, notificationService)
	bridgeCtx, stopBridge := context.WithCancel(context.Background())
	go func() {
		if err := bridge.Run(bridgeCtx); err != nil {
			slog.Error("Event bridge stopped", "error", err)
		}
	}()

	router := routes.NewRouter(h, redisService, notificationService, producer, cfg.JWT.Secret)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopBridge()
	if err := bridge.Close(); err != nil {
		slog.Error("Event bridge close failed", "error", err)
	}
	h.Stop()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}
