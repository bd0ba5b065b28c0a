package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/marketsim/exchange/pkg/questdb"
	"github.com/marketsim/exchange/pkg/redis"
)

// Config holds the exchange service configuration.
type Config struct {
	App      AppConfig      `envPrefix:"APP_"`
	Exchange ExchangeConfig `envPrefix:"EXCHANGE_"`
	QuestDB  questdb.Config `envPrefix:"QUESTDB_"`
	TradeLog TradeLogConfig `envPrefix:"TRADE_LOG_"`
	Redis    redis.Config   `envPrefix:"REDIS_"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `env:"NAME" envDefault:"exchange"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// ExchangeConfig holds the simulated exchange settings.
type ExchangeConfig struct {
	// Symbol is the single instrument served by this exchange instance.
	Symbol string `env:"SYMBOL" envDefault:"VOD.L"`

	// ClientID is the counterparty id assigned to all orders entered
	// through the order gateway. Historical orders carry their own ids.
	ClientID string `env:"CLIENT_ID" envDefault:"client"`

	MarketDataAddr string `env:"MARKET_DATA_ADDR" envDefault:":9880"`
	OrderAddr      string `env:"ORDER_ADDR" envDefault:":9881"`

	// UseSimulationTime makes report timestamps follow the replayed
	// event stream instead of the wall clock.
	UseSimulationTime bool `env:"USE_SIMULATION_TIME" envDefault:"true"`

	// ReplayDelay is the pause inserted between replayed seconds of
	// historical time. Zero replays as fast as possible.
	ReplayDelay time.Duration `env:"REPLAY_DELAY" envDefault:"250ms"`

	EventTable string `env:"EVENT_TABLE" envDefault:"market_events"`

	// ReplayFrom and ReplayTo bound the replayed window, RFC 3339.
	// Empty means unbounded on that side.
	ReplayFrom string `env:"REPLAY_FROM"`
	ReplayTo   string `env:"REPLAY_TO"`

	RunLoader   bool          `env:"RUN_LOADER" envDefault:"false"`
	DataFile    string        `env:"DATA_FILE"`
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" envDefault:"24h"`

	// SnapshotInterval is how often the book snapshot job runs.
	// Zero disables snapshotting.
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`
}

// TradeLogConfig holds the Kafka trade log settings.
type TradeLogConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"exchange.trades"`
}

// Load loads the configuration for the exchange service.
func Load() (*Config, error) {
	godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
