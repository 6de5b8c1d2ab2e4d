package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const defaultJWTSecret = "default_secret_change_me"

type Config struct {
	HTTPPort  string `envconfig:"HTTP_PORT"  default:":8080"`
	GrpcPort  string `envconfig:"GRPC_PORT"  default:":50051"`
	LogLevel  string `envconfig:"LOG_LEVEL"  default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	StoreBackend string `envconfig:"STORE_BACKEND" default:"file"`
	StoreDir     string `envconfig:"STORE_DIR"     default:"./data"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	StoreTable   string `envconfig:"STORE_TABLE"   default:"minihub_slices"`
	RedisURL     string `envconfig:"REDIS_URL"`
	RedisPrefix  string `envconfig:"REDIS_PREFIX"  default:"minihub:"`

	JWTSecret       string        `envconfig:"JWT_SECRET"        default:"default_secret_change_me"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL"  default:"30m"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"24h"`

	NotificationTTL   time.Duration `envconfig:"NOTIFICATION_TTL"   default:"3s"`
	NotificationLimit int           `envconfig:"NOTIFICATION_LIMIT" default:"5"`

	PasswordHashing string `envconfig:"PASSWORD_HASHING" default:"plain"`
	DemoUsername    string `envconfig:"DEMO_USERNAME"    default:"admin"`
	DemoPassword    string `envconfig:"DEMO_PASSWORD"    default:"admin123"`
}

var (
	config Config
	once   sync.Once
)

// LoadConfig reads .env (when present) and the environment exactly once.
// Invalid configuration is fatal.
func LoadConfig(logger *logrus.Logger) *Config {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else if err == nil {
			logger.Info("Loaded configuration from .env file")
		}

		cfg, err := Process()
		if err != nil {
			logger.Fatalf("Failed to process configuration from environment variables: %v", err)
		}
		config = cfg

		logger.Infof("Configuration loaded: HTTP Port=%s, GRPC Port=%s, Store=%s, LogLevel=%s",
			config.HTTPPort, config.GrpcPort, config.StoreBackend, config.LogLevel)
		if config.JWTSecret == defaultJWTSecret {
			logger.Warn("Configuration: JWT_SECRET is not set, using the insecure default")
		}
	})
	return &config
}

// Process reads the environment into a Config and checks that the selected
// store backend has what it needs.
func Process() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case "memory":
	case "file":
		if c.StoreDir == "" {
			return fmt.Errorf("STORE_DIR is required for the file store")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want memory, file, postgres or redis)", c.StoreBackend)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	if c.NotificationLimit <= 0 {
		return fmt.Errorf("NOTIFICATION_LIMIT must be positive")
	}
	return nil
}
