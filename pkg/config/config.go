package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"

	LockKeyed  = "keyed"
	LockGlobal = "global"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// memory | dynamodb
	StoreBackend string `envconfig:"STORE_BACKEND" default:"memory"`
	// memory | redis
	BasketBackend string `envconfig:"BASKET_BACKEND" default:"memory"`

	AWSRegion        string `envconfig:"AWS_REGION" default:"ap-northeast-2"`
	DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT"`
	ProductTableName string `envconfig:"PRODUCT_TABLE_NAME" default:"products-table"`
	DealTableName    string `envconfig:"DEAL_TABLE_NAME" default:"deals-table"`
	DealProductIndex string `envconfig:"DEAL_PRODUCT_INDEX" default:"product_id-index"`
	CounterTableName string `envconfig:"COUNTER_TABLE_NAME" default:"counters-table"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	BasketTTL     time.Duration `envconfig:"BASKET_TTL" default:"0s"`

	// Kafka is disabled when no brokers are configured.
	KafkaBrokers             []string `envconfig:"KAFKA_BROKERS"`
	BasketEventsTopic        string   `envconfig:"BASKET_EVENTS_TOPIC" default:"basket-events"`
	InventoryEventsTopic     string   `envconfig:"INVENTORY_EVENTS_TOPIC" default:"inventory-events"`
	InventoryDeadLetterTopic string   `envconfig:"INVENTORY_DLQ_TOPIC" default:"inventory-events-dlq"`
	KafkaGroupID             string   `envconfig:"KAFKA_GROUP_ID" default:"basket-service"`

	// global serialises every mutation; keyed locks per session and product.
	LockStrategy       string        `envconfig:"LOCK_STRATEGY" default:"global"`
	ReserveMaxAttempts int           `envconfig:"RESERVE_MAX_ATTEMPTS" default:"3"`
	ReserveBackoff     time.Duration `envconfig:"RESERVE_BACKOFF" default:"10ms"`

	TLSEnabled      bool   `envconfig:"TLS_ENABLED" default:"false"`
	SpireSocketPath string `envconfig:"SPIRE_SOCKET_PATH" default:"unix:///run/spire/sockets/agent.sock"`
}

// Load reads the configuration from the environment. With APP_ENV=local a
// .env file in the working directory is loaded first, if present.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") == "local" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendDynamoDB:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.BasketBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unsupported BASKET_BACKEND %q", c.BasketBackend)
	}
	switch c.LockStrategy {
	case LockKeyed, LockGlobal:
	default:
		return fmt.Errorf("unsupported LOCK_STRATEGY %q", c.LockStrategy)
	}
	if c.ReserveMaxAttempts < 1 {
		return fmt.Errorf("RESERVE_MAX_ATTEMPTS must be at least 1, got %d", c.ReserveMaxAttempts)
	}
	if c.ReserveBackoff < 0 {
		return fmt.Errorf("RESERVE_BACKOFF must not be negative")
	}
	return nil
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
