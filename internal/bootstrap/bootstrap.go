// Package bootstrap wires the exchange from configuration: storage
// clients, the book and portfolio, the replay driver and both
// gateways.
package bootstrap

import (
	"context"
	"io"
	"time"

	"github.com/marketsim/exchange/internal/app/exchange"
	"github.com/marketsim/exchange/internal/app/gateway/marketdata"
	"github.com/marketsim/exchange/internal/app/gateway/order"
	"github.com/marketsim/exchange/internal/infrastructure/questdb/marketevent"
	"github.com/marketsim/exchange/internal/usecase/orderbook"
	"github.com/marketsim/exchange/internal/usecase/portfolio"
	"github.com/marketsim/exchange/internal/usecase/replay"
	"github.com/marketsim/exchange/internal/usecase/simclock"
	"github.com/marketsim/exchange/internal/usecase/snapshot"
	"github.com/marketsim/exchange/internal/usecase/tradelog"
	"github.com/marketsim/exchange/pkg/config"
	"github.com/marketsim/exchange/pkg/errors"
	"github.com/marketsim/exchange/pkg/logger"
	"github.com/marketsim/exchange/pkg/questdb"
	"github.com/marketsim/exchange/pkg/redis"
)

// Bootstrap holds the assembled exchange and the clients it owns.
type Bootstrap struct {
	Exchange *exchange.Exchange
	Log      *logger.Logger

	questdb questdb.QuestDBClient
	redis   redis.Client
}

// New assembles the exchange from configuration.
func New(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.Level(cfg.App.LogLevel)))
	if err != nil {
		return nil, err
	}

	questdbClient, err := questdb.NewClient(ctx, cfg.QuestDB)
	if err != nil {
		return nil, err
	}
	if err := questdbClient.Ping(ctx); err != nil {
		questdbClient.Close()
		return nil, err
	}

	b := &Bootstrap{Log: log, questdb: questdbClient}

	replayConfig, err := replayWindow(cfg.Exchange)
	if err != nil {
		b.Close(ctx)
		return nil, err
	}

	book := orderbook.NewOrderBook(cfg.Exchange.Symbol, log)
	clock := simclock.New(cfg.Exchange.UseSimulationTime)
	trader := portfolio.New(cfg.Exchange.ClientID, book, log)

	source := marketevent.NewRepository(questdbClient, replayConfig, log)
	driver := replay.NewDriver(source, book, clock, cfg.Exchange.ReplayDelay, log)

	marketDataGateway := marketdata.NewGateway(cfg.Exchange.MarketDataAddr, cfg.Exchange.Symbol, book, driver, clock, log)
	orderGateway := order.NewGateway(cfg.Exchange.OrderAddr, cfg.Exchange.Symbol, cfg.Exchange.ClientID, trader, clock, log)

	sinks := []io.Closer{source}
	options := []exchange.Option{}

	if cfg.TradeLog.Enabled {
		publisher := tradelog.NewPublisher(cfg.TradeLog.Brokers, cfg.TradeLog.Topic, log)
		trader.Subscribe(tradelog.NewRecorder(publisher, log))
		sinks = append(sinks, publisher)
	}

	if cfg.Exchange.SnapshotInterval > 0 {
		redisClient := redis.NewClient(log, &cfg.Redis)
		if err := redisClient.Connect(ctx); err != nil {
			b.Close(ctx)
			return nil, err
		}
		b.redis = redisClient

		store := snapshot.NewStore(redisClient, cfg.Redis.PrefixKey, cfg.Exchange.SnapshotTTL)
		job := snapshot.NewJob(store, book, cfg.Exchange.SnapshotInterval, log)
		options = append(options, exchange.WithSnapshots(job))
	}

	if cfg.Exchange.RunLoader {
		if cfg.Exchange.DataFile == "" {
			b.Close(ctx)
			return nil, errors.NewErrorDetails("loader enabled without a data file", string(errors.ReplayLoadError), "EXCHANGE_DATA_FILE")
		}
		loader := marketevent.NewLoader(questdbClient, cfg.Exchange.EventTable, cfg.Exchange.DataFile, log)
		options = append(options, exchange.WithLoader(loader))
	}

	options = append(options, exchange.WithSinks(sinks...))
	b.Exchange = exchange.New(marketDataGateway, orderGateway, driver, log, options...)
	return b, nil
}

// Close releases the storage clients.
func (b *Bootstrap) Close(ctx context.Context) {
	if b.redis != nil {
		if err := b.redis.Disconnect(ctx); err != nil {
			b.Log.Error(err)
		}
	}
	if b.questdb != nil {
		b.questdb.Close()
	}
}

func replayWindow(cfg config.ExchangeConfig) (marketevent.Config, error) {
	out := marketevent.Config{
		Table:  cfg.EventTable,
		Symbol: cfg.Symbol,
	}

	if cfg.ReplayFrom != "" {
		from, err := time.Parse(time.RFC3339, cfg.ReplayFrom)
		if err != nil {
			return out, errors.NewErrorDetails("invalid replay window start", string(errors.GeneralBadRequestError), "EXCHANGE_REPLAY_FROM")
		}
		out.From = from
	}
	if cfg.ReplayTo != "" {
		to, err := time.Parse(time.RFC3339, cfg.ReplayTo)
		if err != nil {
			return out, errors.NewErrorDetails("invalid replay window end", string(errors.GeneralBadRequestError), "EXCHANGE_REPLAY_TO")
		}
		out.To = to
	}
	return out, nil
}
