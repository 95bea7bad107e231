package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Port      string  `env:"PORT,        default=8080"`
	Env       string  `env:"ENV,         default=development"`
	JWTSecret string  `env:"JWT_SECRET,  required"`
	LogLevel  string  `env:"LOG_LEVEL,   default=info"`
	LogPretty bool    `env:"LOG_PRETTY,  default=false"`
	AppDomain string  `env:"APP_DOMAIN,  default=localhost"`
	AppURL    string  `env:"APP_URL,     default=http://localhost:3000"`
	AdminFIDs []int64 `env:"ADMIN_FIDS"`

	StoreDriver string `env:"STORE_DRIVER, default=mongo"`

	Mongo     MongoConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Farcaster FarcasterConfig
	Chain     ChainConfig

	NameWorkers   int    `env:"NAME_WORKERS,   default=4"`
	TraceEndpoint string `env:"TRACE_ENDPOINT"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=twin"`
}

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN, default=host=localhost user=postgres password=postgres dbname=twin port=5432 sslmode=disable"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type FarcasterConfig struct {
	NeynarAPIKey string `env:"NEYNAR_API_KEY"`
	NeynarAPIURL string `env:"NEYNAR_API_URL, default=https://api.neynar.com"`
	NeynarHubURL string `env:"NEYNAR_HUB_URL, default=https://hub-api.neynar.com"`
	QuickAuthURL string `env:"QUICK_AUTH_URL, default=https://auth.farcaster.xyz"`
}

// ChainConfig holds RPC endpoints for name resolution. An empty URL disables
// the matching registry.
type ChainConfig struct {
	EthereumRPC string `env:"ETH_RPC_URL"`
	BaseRPC     string `env:"BASE_RPC_URL"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET must not be empty")
	}
	if cfg.StoreDriver != DriverMongo && cfg.StoreDriver != DriverPostgres {
		return nil, fmt.Errorf("config: unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
	return &cfg, nil
}
