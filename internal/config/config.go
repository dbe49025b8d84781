// Package config provides configuration management for the Molotov gallery service.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Chain    ChainConfig
	Feed     FeedConfig
	Cache    CacheConfig
	Pinning  PinningConfig
	Pricing  PricingConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          string
	Host          string
	PublicBaseURL string
	RequestsPerIP int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// ChainConfig holds blockchain access configuration
type ChainConfig struct {
	RPCPrimary      string
	RPCSecondary    string
	ContractAddress string
	DeploymentBlock uint64
	RPCTimeout      time.Duration
}

// FeedConfig holds activity feed and listing-time resolver configuration
type FeedConfig struct {
	MaxEvents      int
	LookbackBlocks uint64
	ChunkSize      uint64
	AvgBlockTime   time.Duration
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// PinningConfig holds IPFS pinning service configuration
type PinningConfig struct {
	Endpoint   string
	JWT        string
	GatewayURL string
}

// PricingConfig holds fiat price oracle configuration
type PricingConfig struct {
	Endpoint string
	CacheTTL time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			Host:          getEnv("SERVER_HOST", "0.0.0.0"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "https://molotov.gallery"),
			RequestsPerIP: getEnvAsInt("SERVER_REQUESTS_PER_IP", 20),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "molotov"),
				User:           getEnv("POSTGRES_USER", "molotov"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "molotov"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Chain: ChainConfig{
			RPCPrimary:      getEnv("CHAIN_RPC_PRIMARY", "https://base-sepolia-rpc.publicnode.com"),
			RPCSecondary:    getEnv("CHAIN_RPC_SECONDARY", ""),
			ContractAddress: getEnv("CONTRACT_ADDRESS", ""),
			DeploymentBlock: getEnvAsUint("CONTRACT_DEPLOYMENT_BLOCK", 36895663),
			RPCTimeout:      getEnvAsDuration("CHAIN_RPC_TIMEOUT", 30*time.Second),
		},
		Feed: FeedConfig{
			MaxEvents:      getEnvAsInt("FEED_MAX_EVENTS", 50),
			LookbackBlocks: getEnvAsUint("FEED_LOOKBACK_BLOCKS", 10000),
			ChunkSize:      getEnvAsUint("FEED_CHUNK_SIZE", 45000),
			AvgBlockTime:   getEnvAsDuration("FEED_AVG_BLOCK_TIME", 2*time.Second),
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("CACHE_TTL", 20*time.Second),
		},
		Pinning: PinningConfig{
			Endpoint:   getEnv("PINATA_ENDPOINT", "https://api.pinata.cloud"),
			JWT:        getEnv("PINATA_JWT", ""),
			GatewayURL: getEnv("PINATA_GATEWAY", "https://gateway.pinata.cloud"),
		},
		Pricing: PricingConfig{
			Endpoint: getEnv("PRICE_ENDPOINT", "https://api.coingecko.com/api/v3/simple/price?ids=ethereum&vs_currencies=usd"),
			CacheTTL: getEnvAsDuration("PRICE_CACHE_TTL", time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsUint gets an environment variable as a uint64 with a default value
func getEnvAsUint(key string, defaultValue uint64) uint64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
