package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server    ServerConfig
	Upstreams UpstreamsConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         int           `env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" env-default:"120s"`
}

type UpstreamsConfig struct {
	// Timeout bounds every outbound fetch individually.
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT" env-default:"5s"`

	ECBURL     string        `env:"ECB_URL" env-default:"https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"`
	ECBTTL     time.Duration `env:"ECB_TTL" env-default:"1h"`
	YahooURL   string        `env:"YAHOO_URL" env-default:"https://query1.finance.yahoo.com/v8/finance/chart"`
	YahooTTL   time.Duration `env:"YAHOO_TTL" env-default:"10s"`
	BinanceURL string        `env:"BINANCE_URL" env-default:"https://api.binance.com/api/v3/ticker/price"`
	BinanceTTL time.Duration `env:"BINANCE_TTL" env-default:"10s"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
