package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	infisical "github.com/infisical/go-sdk"
)

type Config struct {
	Port           string
	DatabaseURL    string
	FrontendOrigin string
	RedisURL       string
	RedisPassword  string

	// External data sources
	MarketAPIURL    string
	MarketTokenID   string
	RPCURL          string
	SaleContract    string
	TokenDecimals   int
	ExplorerURL     string
	PurchaseFeedURL string
	PurchaseAPIURL  string

	// Telegram ops notifications (optional)
	TelegramToken  string
	TelegramChatID int64

	// Scheduler cadence
	PollInterval      time.Duration
	SnapshotInterval  time.Duration
	AggregateInterval time.Duration
	CleanupInterval   time.Duration

	// Retention windows
	SnapshotRetention time.Duration
	MetricRetention   time.Duration
}

func Load() Config {
	cfg := Config{
		Port:           envOr("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),
		RedisURL:       envOr("REDIS_URL", "redis://redis-master.redis.svc.cluster.local:6379/0"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),

		MarketAPIURL:    os.Getenv("MARKET_API_URL"),
		MarketTokenID:   envOr("MARKET_TOKEN_ID", "tokenforge"),
		RPCURL:          os.Getenv("RPC_URL"),
		SaleContract:    os.Getenv("SALE_CONTRACT"),
		TokenDecimals:   intOr("TOKEN_DECIMALS", 18),
		ExplorerURL:     os.Getenv("EXPLORER_URL"),
		PurchaseFeedURL: os.Getenv("PURCHASE_FEED_URL"),
		PurchaseAPIURL:  os.Getenv("PURCHASE_API_URL"),

		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: int64Or("TELEGRAM_OPS_CHAT_ID", 0),

		PollInterval:      durOr("POLL_INTERVAL", 5*time.Minute),
		SnapshotInterval:  durOr("SNAPSHOT_INTERVAL", 15*time.Minute),
		AggregateInterval: durOr("AGGREGATE_INTERVAL", 1*time.Hour),
		CleanupInterval:   durOr("CLEANUP_INTERVAL", 24*time.Hour),

		SnapshotRetention: durOr("SNAPSHOT_RETENTION", 90*24*time.Hour),
		MetricRetention:   durOr("METRIC_RETENTION", 365*24*time.Hour),
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL",
		"http://infisical-infisical-standalone-infisical.infisical.svc.cluster.local:8080")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &cfg.TelegramToken,
		"REDIS_PASSWORD":     &cfg.RedisPassword,
		"RPC_URL":            &cfg.RPCURL,
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func intOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func int64Or(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}
