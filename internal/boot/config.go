package boot

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverMongo  = "mongo"
)

type Config struct {
	Env           string `env:"ENV,default=prod"`
	BaseURL       string `env:"BASE_URL,default=http://localhost:8080"`
	DataDirectory string `env:"DATA_DIR,default=./data"`
	Server        struct {
		Port        string `env:"PORT,default=8080"`
		MetricsPort string `env:"METRICS_PORT,default=8081"`
		Origins     string `env:"ALLOWED_ORIGINS,default=*"`
		BodyLimit   string `env:"BODY_LIMIT,default=10M"`
	}
	Store struct {
		Driver        string `env:"STORE_DRIVER,default=sqlite"`
		MongoURI      string `env:"MONGO_URI"`
		MongoDatabase string `env:"MONGO_DATABASE,default=profiles"`
	}
	Login struct {
		MaxAttempts int           `env:"MAX_LOGIN_ATTEMPTS,default=3"`
		RateLimit   int           `env:"LOGIN_RATE_LIMIT,default=5"`
		RateWindow  time.Duration `env:"LOGIN_RATE_WINDOW,default=15m"`
	}
	Profile struct {
		RateLimit  int           `env:"PROFILE_RATE_LIMIT,default=3"`
		RateWindow time.Duration `env:"PROFILE_RATE_WINDOW,default=3m"`
	}
}

func Load() (*Config, error) {
	return LoadWith(envconfig.OsLookuper())
}

// LoadWith reads the configuration through l, so tests can supply a map.
func LoadWith(l envconfig.Lookuper) (*Config, error) {
	config := &Config{}
	if err := envconfig.ProcessWith(context.Background(), config, l); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreDriverSQLite:
	case StoreDriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=%s", StoreDriverMongo)
		}
	default:
		return fmt.Errorf("unknown store driver: %s", c.Store.Driver)
	}
	if c.Login.MaxAttempts < 1 {
		return fmt.Errorf("MAX_LOGIN_ATTEMPTS must be positive, got %d", c.Login.MaxAttempts)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "dev"
}

func (c *Config) DataDir() string {
	return c.DataDirectory
}
