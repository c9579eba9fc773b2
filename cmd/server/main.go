package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpRouter "currency-converter-service/internal/adapter/http"
	"currency-converter-service/internal/adapter/repository"
	"currency-converter-service/internal/config"
	"currency-converter-service/internal/metrics"
	"currency-converter-service/internal/service"
	"currency-converter-service/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Log.Level)
	log.Info("Starting currency converter service")

	appMetrics := metrics.NewMetrics()

	basketProvider := repository.NewECBClient(
		cfg.Upstreams.ECBURL,
		cfg.Upstreams.Timeout,
		cfg.Upstreams.ECBTTL,
		log,
		appMetrics,
	)
	pairProvider := repository.NewYahooClient(
		cfg.Upstreams.YahooURL,
		cfg.Upstreams.Timeout,
		cfg.Upstreams.YahooTTL,
		log,
		appMetrics,
	)
	priceProvider := repository.NewBinanceClient(
		cfg.Upstreams.BinanceURL,
		cfg.Upstreams.Timeout,
		cfg.Upstreams.BinanceTTL,
		log,
		appMetrics,
	)

	converterService := service.NewConverterService(basketProvider, pairProvider, priceProvider, log)
	handler := httpRouter.NewHandler(converterService, log, appMetrics)

	router := httpRouter.NewRouter(handler, log, appMetrics)
	routes := router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      routes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, cancelRefresh := context.WithCancel(context.Background())
	go refreshBasket(ctx, converterService, cfg.Upstreams.ECBTTL, log)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	cancelRefresh()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}

// refreshBasket keeps the fiat basket warm so conversion requests seldom
// hit the uncached-failure path of the basket source.
func refreshBasket(ctx context.Context, converter *service.ConverterService, interval time.Duration, log *logger.Logger) {
	// Populate the basket immediately at startup
	if err := converter.RefreshRates(ctx); err != nil {
		log.Error("Failed to refresh basket at startup", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := converter.RefreshRates(ctx); err != nil {
				log.Error("Failed to refresh basket", "error", err)
			}
		case <-ctx.Done():
			log.Info("Stopping basket refresh goroutine")
			return
		}
	}
}
