package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
	"github.com/sheikh-saqib/org-finance-ledger/internal/rates"
)

// AuthConfig holds the shared secret bearer tokens are signed with.
type AuthConfig struct {
	Secret   []byte
	TokenTTL time.Duration
}

type Config struct {
	Port     string
	Owner    models.Address
	LogLevel string
	Auth     AuthConfig

	DatabaseURL  string
	KafkaBrokers []string
	RedisAddr    string

	PriceAPIURL string
	PriceTTL    time.Duration

	PayoutGatewayURL string
}

type SeedConfig struct {
	TargetURL   string
	Owner       models.Address
	RandomCount int
	Recipients  []models.Address
	LogLevel    string
	Auth        AuthConfig
}

// LoadEnv reads a .env file into the environment if one exists.
func LoadEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func Load() (*Config, error) {
	owner, err := models.ParseAddress(os.Getenv("LEDGER_OWNER"))
	if err != nil {
		return nil, fmt.Errorf("LEDGER_OWNER: %w", err)
	}

	authCfg, err := LoadAuth()
	if err != nil {
		return nil, err
	}

	ttl := GetEnvInt("PRICE_TTL_SECONDS", int(rates.DefaultTTL/time.Second))

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Owner:            owner,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Auth:             authCfg,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		PriceAPIURL:      getEnv("PRICE_API_URL", rates.DefaultCoinGeckoURL),
		PriceTTL:         time.Duration(ttl) * time.Second,
		PayoutGatewayURL: os.Getenv("PAYOUT_GATEWAY_URL"),
	}, nil
}

func LoadSeed() (*SeedConfig, error) {
	owner, err := models.ParseAddress(os.Getenv("LEDGER_OWNER"))
	if err != nil {
		return nil, fmt.Errorf("LEDGER_OWNER: %w", err)
	}

	authCfg, err := LoadAuth()
	if err != nil {
		return nil, err
	}

	var recipients []models.Address
	for _, raw := range splitList(os.Getenv("SEED_RECIPIENTS")) {
		addr, err := models.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("SEED_RECIPIENTS %q: %w", raw, err)
		}
		recipients = append(recipients, addr)
	}

	return &SeedConfig{
		TargetURL:   getEnv("SEED_TARGET_URL", "http://localhost:8080"),
		Owner:       owner,
		RandomCount: GetEnvInt("SEED_RANDOM_COUNT", 0),
		Recipients:  recipients,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Auth:        authCfg,
	}, nil
}

// LoadAuth reads AUTH_JWT_SECRET (required) and AUTH_TOKEN_TTL_MINUTES.
func LoadAuth() (AuthConfig, error) {
	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		return AuthConfig{}, errors.New("AUTH_JWT_SECRET is required")
	}
	return AuthConfig{
		Secret:   []byte(secret),
		TokenTTL: time.Duration(GetEnvInt("AUTH_TOKEN_TTL_MINUTES", 60)) * time.Minute,
	}, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
