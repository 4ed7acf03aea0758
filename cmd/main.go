package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/YelzhanWeb/canteen/internal/adapter/console"
	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/adapter/postgres"
	"github.com/YelzhanWeb/canteen/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/canteen/internal/app/cart"
	"github.com/YelzhanWeb/canteen/internal/app/gateway"
	"github.com/YelzhanWeb/canteen/internal/app/menu"
	"github.com/YelzhanWeb/canteen/internal/app/notify"
	"github.com/YelzhanWeb/canteen/internal/app/order"
	"github.com/YelzhanWeb/canteen/internal/config"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"

	amqpAdapter "github.com/YelzhanWeb/canteen/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/canteen/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "", "Service mode: api, notification-subscriber, console, migrate")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides server.port)")
	orderMode := flag.String("order-mode", "", "Filter console output by fulfillment mode")
	prefetch := flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	lgr := logger.NewWithWriter(*mode, os.Stdout, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "api":
		err = runAPI(ctx, cfg, lgr)

	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, lgr, *prefetch)

	case "console":
		err = runConsole(ctx, cfg, lgr, *orderMode)

	case "migrate":
		err = runMigrate(ctx, cfg, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}

	if err != nil {
		lgr.Error("service_failed", "Service stopped with error", "runtime", nil, err)
		os.Exit(1)
	}
}

func connectDB(ctx context.Context, cfg *config.Config, lgr logger.Logger) (postgres.DB, error) {
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})
	return db, nil
}

func connectMQ(cfg *config.Config, lgr logger.Logger) (rabbitmq.Connection, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})
	return conn, nil
}

func runAPI(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	db, err := connectDB(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer db.Close()

	// RabbitMQ is optional; without it only websocket subscribers are notified.
	var publisher interfaces.MessagePublisher
	if cfg.RabbitMQ.Enabled {
		mqConn, err := connectMQ(cfg, lgr)
		if err != nil {
			return err
		}
		defer mqConn.Close()
		publisher = rabbitmq.NewPublisher(mqConn)
	}

	orderRepo := postgres.NewOrderRepository(db)
	menuRepo := postgres.NewMenuRepository(db)
	cartRepo := postgres.NewCartRepository(db)
	userRepo := postgres.NewUserRepository(db)

	hub := gateway.NewHub(cfg.Gateway.SendBuffer, lgr)
	dispatcher := notify.NewDispatcher(hub, publisher, lgr)

	orderService := order.NewService(orderRepo, cartRepo, dispatcher, lgr)
	menuService := menu.NewService(menuRepo, lgr)
	cartService := cart.NewService(cartRepo, menuRepo, lgr)

	router := httpAdapter.NewRouter(httpAdapter.Handlers{
		Orders:  httpAdapter.NewOrderHandler(orderService, lgr),
		Menu:    httpAdapter.NewMenuHandler(menuService, lgr),
		Cart:    httpAdapter.NewCartHandler(cartService, lgr),
		Console: httpAdapter.NewConsoleHandler(orderService, lgr),
		Stream: httpAdapter.NewStreamHandler(orderService, hub, httpAdapter.StreamConfig{
			WriteTimeout:   cfg.Gateway.WriteTimeout,
			PingInterval:   cfg.Gateway.PingInterval,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}, lgr),
	}, userRepo, lgr)

	// No WriteTimeout: it would cut long-lived status streams.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	lgr.Info("service_started", fmt.Sprintf("API started on port %d", cfg.Server.Port), "startup", map[string]interface{}{
		"port":         cfg.Server.Port,
		"rabbitmq":     cfg.RabbitMQ.Enabled,
		"ws_buffer":    cfg.Gateway.SendBuffer,
		"ping_seconds": cfg.Gateway.PingInterval.Seconds(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		hub.Close()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	lgr.Info("shutdown_initiated", "Shutting down API", "shutdown", nil)

	// Streams are hijacked connections that Shutdown does not wait for, so
	// close them through the hub first.
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger, prefetch int) error {
	mqConn, err := connectMQ(cfg, lgr)
	if err != nil {
		return err
	}
	defer mqConn.Close()

	consumer := rabbitmq.NewConsumer(mqConn, prefetch, lgr)
	handler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", map[string]interface{}{
		"exchange": rabbitmq.StatusExchange,
		"prefetch": prefetch,
	})

	err = consumer.ConsumeNotifications(ctx, handler.HandleNotification)
	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runConsole(ctx context.Context, cfg *config.Config, lgr logger.Logger, rawMode string) error {
	var mode *domain.Mode
	if rawMode != "" {
		m, err := domain.ParseMode(rawMode)
		if err != nil {
			return err
		}
		mode = &m
	}

	db, err := connectDB(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer db.Close()

	orderService := order.NewService(postgres.NewOrderRepository(db), postgres.NewCartRepository(db), nil, lgr)
	return console.NewDashboard(orderService, os.Stdout).Print(ctx, mode)
}

func runMigrate(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	db, err := connectDB(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	lgr.Info("migration_applied", "Database schema is up to date", "startup", nil)
	return nil
}
