// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	appErrors "github.com/retainly/retention-engine/internal/errors"
	"github.com/retainly/retention-engine/internal/model"
)

const (
	DefaultCampaignID   = "reactivation-journey-v1"
	DefaultBrazeBaseURL = "https://rest.iad-01.braze.com"
	DefaultQueryPath    = "sql/churn_analysis.sql"
)

// Config is the full run configuration, resolved from the environment
// once at startup and passed explicitly to every constructor.
type Config struct {
	DatabaseURL     string
	CampaignID      string
	APIKey          string
	BrazeBaseURL    string
	QueryPath       string
	Criteria        model.Criteria
	DispatchWorkers int
	LedgerEnabled   bool
	RedisAddr       string
	AMQPURL         string
	DashboardAddr   string
}

// Load resolves configuration from environment variables, applying the
// documented defaults for anything unset.
func Load() (*Config, error) {
	// An unset campaign id gets the documented default; an explicitly
	// empty one is a misconfiguration.
	campaignID, ok := os.LookupEnv("CAMPAIGN_ID")
	if !ok {
		campaignID = DefaultCampaignID
	}
	if campaignID == "" {
		return nil, appErrors.NewConfigMissing("CAMPAIGN_ID")
	}

	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		CampaignID:    campaignID,
		APIKey:        os.Getenv("API_KEY"),
		BrazeBaseURL:  envOr("BRAZE_BASE_URL", DefaultBrazeBaseURL),
		QueryPath:     envOr("QUERY_PATH", DefaultQueryPath),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		AMQPURL:       os.Getenv("AMQP_URL"),
		DashboardAddr: envOr("DASHBOARD_ADDR", ":8080"),
		LedgerEnabled: os.Getenv("LEDGER_ENABLED") == "true",
	}

	if cfg.DatabaseURL == "" {
		// Fall back to the split DB_* variables.
		user := os.Getenv("DB_USER")
		pass := os.Getenv("DB_PASSWORD")
		host := envOr("DB_HOST", "localhost")
		port := envOr("DB_PORT", "5432")
		name := os.Getenv("DB_NAME")
		if user == "" || name == "" {
			return nil, appErrors.NewConfigMissing("DATABASE_URL (or DB_USER/DB_NAME)")
		}
		cfg.DatabaseURL = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			user, pass, host, port, name,
		)
	}

	days, err := envInt("INACTIVITY_THRESHOLD_DAYS", 30)
	if err != nil {
		return nil, err
	}
	spend, err := envFloat("MIN_SPEND", 50)
	if err != nil {
		return nil, err
	}
	cfg.Criteria = model.Criteria{InactivityThresholdDays: days, MinSpend: spend}

	cfg.DispatchWorkers, err = envInt("DISPATCH_WORKERS", 4)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadQuery reads the externalized eligibility query. Operators change
// the predicate by editing the file, not by recompiling.
func (c *Config) LoadQuery() (string, error) {
	content, err := os.ReadFile(c.QueryPath)
	if err != nil {
		return "", appErrors.NewConfigMissing(fmt.Sprintf("query file at %s", c.QueryPath))
	}
	return string(content), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
