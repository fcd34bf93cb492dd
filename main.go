package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appCart "github.com/trippeak/tourshop/internal/application/cart"
	appCatalog "github.com/trippeak/tourshop/internal/application/catalog"
	appInventory "github.com/trippeak/tourshop/internal/application/inventory"
	appOrder "github.com/trippeak/tourshop/internal/application/order"
	appSettlement "github.com/trippeak/tourshop/internal/application/settlement"
	appShop "github.com/trippeak/tourshop/internal/application/shop"
	httptransport "github.com/trippeak/tourshop/internal/infrastructure/http"
	"github.com/trippeak/tourshop/internal/infrastructure/id"
	"github.com/trippeak/tourshop/internal/infrastructure/memory"
	notificationworker "github.com/trippeak/tourshop/internal/infrastructure/notification/worker"
	"github.com/trippeak/tourshop/internal/infrastructure/observability/oteltrace"
	"github.com/trippeak/tourshop/internal/infrastructure/observability/prometrics"
	"github.com/trippeak/tourshop/internal/infrastructure/observability/telemetry"
	"github.com/trippeak/tourshop/internal/infrastructure/observability/zaplogger"
	"github.com/trippeak/tourshop/internal/infrastructure/outbox"
	"github.com/trippeak/tourshop/internal/pkg/logging"
)

func main() {
	serviceName := getenvDefault("SERVICE_NAME", "tourshop")
	env := getenvDefault("ENV", "dev")
	addr := getenvDefault("HTTP_ADDR", ":8080")

	baseLogger := logging.MustNewLogger(serviceName, env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	obsLogger := zaplogger.Wrap(baseLogger)
	metrics := prometrics.New(serviceName, prometheus.DefaultRegisterer)
	tel := telemetry.New(oteltrace.New(serviceName), obsLogger, metrics)

	orderRepo := memory.NewOrderRepository()
	productRepo := memory.NewProductRepository()
	shopRepo := memory.NewShopRepository()
	walletRepo := memory.NewWalletRepository()
	cartRepo := memory.NewCartRepository()
	idGenerator := id.NewUUIDGenerator()

	bus := outbox.NewBus(obsLogger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	inventoryService := appInventory.NewService(orderRepo, productRepo, cartRepo)
	settlementService := appSettlement.NewService(orderRepo, productRepo, walletRepo, inventoryService, bus, tel)
	orderService := appOrder.NewService(orderRepo, productRepo, idGenerator)
	catalogService := appCatalog.NewService(productRepo, shopRepo, idGenerator)
	shopService := appShop.NewService(shopRepo, walletRepo, idGenerator)
	cartService := appCart.NewService(cartRepo, productRepo)

	notifier := notificationworker.New(bus)
	notifier.Start()

	handler := httptransport.NewHandler(orderService, catalogService, shopService, cartService, settlementService)
	router := handler.Router(
		middleware.RealIP,
		middleware.Recoverer,
		httptransport.ObservabilityMiddleware(obsLogger, tel),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
