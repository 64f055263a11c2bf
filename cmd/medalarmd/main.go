package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medalarm-backend/config"
	"medalarm-backend/internal/api"
	"medalarm-backend/internal/db"
	"medalarm-backend/internal/firing"
	"medalarm-backend/internal/lifecycle"
	"medalarm-backend/internal/notification"
	"medalarm-backend/internal/registry"
	"medalarm-backend/internal/store"
	"medalarm-backend/internal/wake"

	"cloud.google.com/go/firestore"
	"github.com/SherClockHolmes/webpush-go"
	"google.golang.org/api/option"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "medalarm-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Check for VAPID keys
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatalf("VAPID keys must be configured. Please generate them and add them to your config file.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the alarm registry (document store)
	var reg registry.Registry
	if cfg.Firestore.UseMemory {
		logger.Println("using in-memory alarm registry; nothing will survive a restart")
		reg = registry.NewMemory()
	} else {
		var opts []option.ClientOption
		if cfg.Firestore.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Firestore.CredentialsFile))
		}
		client, err := firestore.NewClient(ctx, cfg.Firestore.ProjectID, opts...)
		if err != nil {
			logger.Fatalf("failed to create firestore client: %v", err)
		}
		defer client.Close()
		reg = registry.NewFirestore(client)
	}
	logger.Println("alarm registry initialized")

	// Initialize the relational database for push subscriptions
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	subs := store.NewGormStore(gormDB)
	logger.Println("subscription store initialized")

	// Wake timers and the firing pipeline
	timer := wake.NewService(cfg.Alarm.ExactAlarmsAllowed, cfg.Alarm.FireBuffer)
	board := firing.NewBoard(timer, cfg.Alarm.SnoozeDelay)

	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, subs, &webpushOptions)
	pool.Start(ctx)

	receiver := firing.NewReceiver(timer.Fired(), board, pool)
	go receiver.Run(ctx)

	// Lifecycle service and the boot reschedule path
	svc := lifecycle.NewService(reg, timer)
	boot := lifecycle.NewBootReceiver(svc)
	go boot.Run(ctx)

	// Initialize router
	handler := api.NewHandler(svc, reg, board, boot, subs, &webpushOptions)
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		CacheTTL:        time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
