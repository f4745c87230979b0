package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/iliyamo/efarm/internal/config"
	"github.com/iliyamo/efarm/internal/database"
	"github.com/iliyamo/efarm/internal/handler"
	"github.com/iliyamo/efarm/internal/middleware"
	"github.com/iliyamo/efarm/internal/queue"
	"github.com/iliyamo/efarm/internal/repository"
	"github.com/iliyamo/efarm/internal/router"
	"github.com/iliyamo/efarm/internal/service"
	"github.com/iliyamo/efarm/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		migrate, _ := cmd.Flags().GetBool("migrate")
		consume, _ := cmd.Flags().GetBool("consume-events")
		return serve(cmd.Context(), cfg, migrate, consume)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "apply the schema before serving")
	serveCmd.Flags().Bool("consume-events", true, "append order events to logs/orders.log when RabbitMQ is configured")
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context, cfg config.Config, migrate, consume bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Page reads use the regular credentials; workflows that mutate
	// state use the privileged ones.
	readDB, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer readDB.Close()
	writeDB := readDB
	if adminUser, adminPass := cfg.AdminCredentials(); adminUser != cfg.DBUser {
		if writeDB, err = database.Open(adminUser, adminPass, cfg.DBHost, cfg.DBPort, cfg.DBName); err != nil {
			return fmt.Errorf("open admin database: %w", err)
		}
		defer writeDB.Close()
	}
	if migrate {
		if err := database.Migrate(ctx, writeDB); err != nil {
			return err
		}
	}

	codec, err := session.NewCodec(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return err
	}
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	opts := []session.Option{}
	revoker := session.NewRedisRevoker(rdb, "", cfg.SessionTTL)
	if rdb != nil {
		opts = append(opts, session.WithRevoker(revoker))
	}
	sessions := session.NewManager(codec, cfg.Production(), opts...)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	events := queue.NewPublisher(cfg.AMQPURL)

	users := repository.NewUserRepo(writeDB)
	logins := repository.NewLoginHistoryRepo(writeDB)
	products := repository.NewProductRepo(writeDB)
	orders := repository.NewOrderRepo(writeDB)

	authSvc := service.NewAuthService(users, logins, cfg.BcryptCost)
	catalogSvc := service.NewCatalogService(repository.NewProductRepo(readDB))
	orderSvc := service.NewOrderService(products, orders, cache, events, cfg.OrderAtomic)
	adminSvc := service.NewAdminService(users, products, orders, logins, cache, revoker)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				slog.ErrorContext(c.Request().Context(), "request", append(attrs, "err", v.Error)...)
				return nil
			}
			slog.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	}))
	router.Register(e, sessions, cache, router.Handlers{
		Health:  handler.Health(readDB),
		Auth:    handler.NewAuthHandler(authSvc, sessions),
		Catalog: handler.NewCatalogHandler(catalogSvc),
		Orders:  handler.NewOrderHandler(orderSvc),
		Admin:   handler.NewAdminHandler(adminSvc, orderSvc, sessions),
		Pages:   handler.NewPageHandler(catalogSvc, orderSvc, adminSvc),
	})

	if consume && events.Enabled() {
		go func() {
			if err := queue.StartOrderConsumer(ctx, cfg.AMQPURL, "logs"); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("order consumer stopped", "err", err)
			}
		}()
	}

	slog.Info("listening", "addr", ":"+cfg.Port, "atomic_orders", cfg.OrderAtomic,
		"redis", rdb != nil, "events", events.Enabled())
	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(":" + cfg.Port) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
