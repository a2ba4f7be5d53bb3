package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/harshshivam01/food-ordering-web/handlers"
	"github.com/harshshivam01/food-ordering-web/internal/auth"
	"github.com/harshshivam01/food-ordering-web/internal/carts"
	"github.com/harshshivam01/food-ordering-web/internal/consul"
	"github.com/harshshivam01/food-ordering-web/internal/menu"
	"github.com/harshshivam01/food-ordering-web/internal/orders"
	"github.com/harshshivam01/food-ordering-web/internal/stores/kafka"
	"github.com/harshshivam01/food-ordering-web/internal/stores/postgres"
	"github.com/harshshivam01/food-ordering-web/internal/users"
	"github.com/harshshivam01/food-ordering-web/pkg/logkey"

	"github.com/joho/godotenv"
)

const serviceName = "food-ordering"

func main() {
	setupSlog()

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	if err := startApp(); err != nil {
		slog.Error("service stopped", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func startApp() error {
	db, err := postgres.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}
	slog.Info("database ready")

	keys, err := loadAuthKeys()
	if err != nil {
		return err
	}

	cConf, err := carts.NewConf(db)
	if err != nil {
		return err
	}
	mConf, err := menu.NewConf(db)
	if err != nil {
		return err
	}
	oConf, err := orders.NewConf(db)
	if err != nil {
		return err
	}
	uConf, err := users.NewConf(db)
	if err != nil {
		return err
	}

	// Kafka and consul are optional in local development; the service runs
	// without them, just without events and discovery.
	kConf, err := kafka.NewConf()
	if err != nil {
		slog.Warn("kafka unavailable, order events disabled", slog.String(logkey.ERROR, err.Error()))
		kConf = nil
	} else {
		defer kConf.Close()
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	if consulClient, err := consul.NewClient(); err != nil {
		slog.Warn("consul unavailable, skipping registration", slog.String(logkey.ERROR, err.Error()))
	} else {
		portInt, _ := strconv.Atoi(port)
		host := os.Getenv("APP_HOST")
		if host == "" {
			host = "localhost"
		}
		if err := consul.RegisterService(consulClient, serviceName, host, portInt); err != nil {
			slog.Warn("consul registration failed", slog.String(logkey.ERROR, err.Error()))
		}
	}

	prefix := os.Getenv("SERVICE_ENDPOINT_PREFIX")
	if prefix == "" {
		prefix = "/api/v1"
	}

	api := http.Server{
		Addr:         ":" + port,
		Handler:      handlers.API(prefix, keys, cConf, mConf, oConf, uConf, kConf),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("starting server", slog.String("addr", api.Addr))
		serverErrors <- api.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			api.Close()
			return err
		}
	}

	return nil
}

func loadAuthKeys() (*auth.Keys, error) {
	privatePEM, err := os.ReadFile(envOr("AUTH_PRIVATE_KEY_PATH", "private.pem"))
	if err != nil {
		return nil, err
	}
	publicPEM, err := os.ReadFile(envOr("AUTH_PUBLIC_KEY_PATH", "pubkey.pem"))
	if err != nil {
		return nil, err
	}
	return auth.NewKeys(privatePEM, publicPEM)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupSlog() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	})
	slog.SetDefault(slog.New(handler))
}
