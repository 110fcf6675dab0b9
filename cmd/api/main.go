package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/autoimport-storefront/api/routes"
	"github.com/angelmondragon/autoimport-storefront/internal/cart"
	"github.com/angelmondragon/autoimport-storefront/internal/cartstate"
	"github.com/angelmondragon/autoimport-storefront/internal/catalog"
	checkoutsvc "github.com/angelmondragon/autoimport-storefront/internal/checkout"
	"github.com/angelmondragon/autoimport-storefront/internal/invoice"
	"github.com/angelmondragon/autoimport-storefront/internal/storefront"
	"github.com/angelmondragon/autoimport-storefront/pkg/config"
	"github.com/angelmondragon/autoimport-storefront/pkg/instance"
	"github.com/angelmondragon/autoimport-storefront/pkg/logger"
	"github.com/angelmondragon/autoimport-storefront/pkg/metrics"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-api",
		Environment: cfg.App.Env,
		StoreName:   cfg.Store.Name,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storeMetrics := metrics.NewStorefrontMetrics(registry)

	backend, err := cartstate.Open(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to open cart state backend", err)
		os.Exit(1)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logg.Error(context.Background(), "error closing cart state backend", err)
		}
	}()

	cartStore, err := cart.NewStore(backend.Store, cart.Options{
		Key:    cfg.Cart.StorageKey,
		Logger: logg,
		Observers: []cart.Observer{
			func(_ context.Context, change cart.Change) {
				storeMetrics.IncCartMutation(string(change.Op))
				total, _ := change.Snapshot.TotalPrice.Float64()
				storeMetrics.ObserveCart(len(change.Snapshot.Lines), change.Snapshot.TotalItemCount, total)
			},
		},
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart store", err)
		os.Exit(1)
	}
	// Hydrate logs its own failure and leaves the cart empty; the next
	// mutation overwrites the unreadable payload.
	_ = cartStore.Hydrate(ctx)

	provider, err := catalog.NewHTTPProvider(cfg.Catalog.URL, nil)
	if err != nil {
		logg.Error(ctx, "failed to create catalog provider", err)
		os.Exit(1)
	}
	catalogs := catalog.NewLoader(provider, logg, storeMetrics)
	go func() {
		_, _ = catalogs.Load(ctx)
	}()

	money := storefront.NewMoney(cfg.Store.Locale, cfg.Store.CurrencySymbol)
	presenter := storefront.NewPresenter(money)
	invoices := invoice.NewGenerator(invoice.Options{
		StoreName: cfg.Store.Name,
		LegalName: cfg.Store.LegalName,
		Money:     money,
		Compress:  cfg.Invoice.Compress,
	})
	checkoutService, err := checkoutsvc.NewService(cartStore, invoices, logg, storeMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"addr":        addr,
		"instance":    instance.GetID(),
		"cart_driver": backend.Driver,
		"storage_key": cartStore.Key(),
	})
	logg.Info(runCtx, "starting storefront api")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, backend, catalogs, cartStore, checkoutService, presenter, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(runCtx, "shutting down storefront api")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "graceful shutdown failed", err)
		}
	}
}
