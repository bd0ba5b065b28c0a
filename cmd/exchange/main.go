package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/marketsim/exchange/internal/bootstrap"
	"github.com/marketsim/exchange/pkg/config"
	"github.com/marketsim/exchange/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	b, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap exchange: %v", err)
	}
	defer b.Log.Sync()

	b.Log.Info("starting exchange",
		logger.NewField("app", cfg.App.Name),
		logger.NewField("environment", cfg.App.Environment),
		logger.NewField("symbol", cfg.Exchange.Symbol),
		logger.NewField("market_data_addr", cfg.Exchange.MarketDataAddr),
		logger.NewField("order_addr", cfg.Exchange.OrderAddr),
	)

	if err := b.Exchange.Run(ctx); err != nil {
		b.Log.Error(err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	b.Close(shutdownCtx)
}
