package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/minarilabs/storefront-backend/api/routes"
	"github.com/minarilabs/storefront-backend/internal/accounts"
	"github.com/minarilabs/storefront-backend/internal/cart"
	"github.com/minarilabs/storefront-backend/internal/catalog"
	checkoutsvc "github.com/minarilabs/storefront-backend/internal/checkout"
	"github.com/minarilabs/storefront-backend/internal/notifications"
	"github.com/minarilabs/storefront-backend/internal/orders"
	"github.com/minarilabs/storefront-backend/internal/payments"
	"github.com/minarilabs/storefront-backend/internal/promotions"
	"github.com/minarilabs/storefront-backend/internal/shipments"
	"github.com/minarilabs/storefront-backend/pkg/config"
	"github.com/minarilabs/storefront-backend/pkg/db"
	"github.com/minarilabs/storefront-backend/pkg/logger"
	"github.com/minarilabs/storefront-backend/pkg/migrate"
	"github.com/minarilabs/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()

	catalogRepo := catalog.NewRepository(gormDB)
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	accountsService, err := accounts.NewService(accounts.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}

	guestStore, err := cart.NewGuestStore(redisClient, cfg.GuestCart.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create guest cart store", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(gormDB)
	cartService, err := cart.NewService(cartRepo, dbClient, catalogService, guestStore)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	promotionsService, err := promotions.NewService(promotions.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create promotions service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	orderRepo := orders.NewRepository(gormDB)
	ordersService, err := orders.NewService(orderRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	estimator := shipments.NewEstimator(cfg.Shipping.NearProvinces)
	shipmentsService, err := shipments.NewService(shipments.NewRepository(gormDB), orderRepo, dbClient, estimator)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipments service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Logger:    logg,
		Tx:        dbClient,
		Carts:     cartService,
		CartRepo:  cartRepo,
		Catalog:   catalogRepo,
		Accounts:  accountsService,
		Promos:    promotionsService,
		Settler:   payments.NewSettler(),
		Orders:    orderRepo,
		Estimator: estimator,
		Notifier:  notificationsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Catalog:       catalogService,
			Accounts:      accountsService,
			Cart:          cartService,
			GuestCart:     guestStore,
			Checkout:      checkoutService,
			Promotions:    promotionsService,
			Orders:        ordersService,
			Shipments:     shipmentsService,
			Notifications: notificationsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
