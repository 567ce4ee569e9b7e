package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	// HTTP Server
	Port string

	// Transaction log (append-only CSV, source of truth)
	TxLogPath string

	// State database (aggregate snapshot + limit/budget config)
	StateDBPath string

	// Reconciliation loop
	ReconcileInterval time.Duration
	AnomalyThreshold  decimal.Decimal

	// AMQP (optional; empty URL disables alert publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8081"),
		TxLogPath:   getEnv("TXLOG_PATH", "./data/transactions.csv"),
		StateDBPath: getEnv("STATE_DB_PATH", "./data/finpulse.db"),

		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 3*time.Second),
		AnomalyThreshold:  getEnvDecimal("ANOMALY_THRESHOLD", decimal.NewFromInt(10000)),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finpulse"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "alert_events"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.TxLogPath == "" {
		errors = append(errors, "transaction log path cannot be empty")
	}
	if c.StateDBPath == "" {
		errors = append(errors, "state database path cannot be empty")
	}

	if c.ReconcileInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at least 1 second", c.ReconcileInterval))
	} else if c.ReconcileInterval > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at most 1 hour", c.ReconcileInterval))
	}

	if !c.AnomalyThreshold.IsPositive() {
		errors = append(errors, fmt.Sprintf("invalid anomaly threshold %s: must be positive", c.AnomalyThreshold))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
