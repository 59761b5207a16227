package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BotToken            string
	BotEnabled          bool
	BotTransport        string
	WebhookURL          string
	WebhookListenAddr   string
	BotPollingIntervalS int
	BackendURL          string
	BackendTimeout      time.Duration
	DataDir             string
	DatabasePath        string
	HealthPort          int
	LogLevel            string
	LogFilePath         string
	LogMaxSizeMB        int
	LogMaxBackups       int
	LogMaxAgeDays       int
}

func LoadFromEnv() (Config, error) {
	dataDir := defaultString(os.Getenv("DATA_DIR"), "./data")
	botToken := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))

	backendTimeoutMs, err := parseIntWithDefault("BACKEND_TIMEOUT_MS", 20000)
	if err != nil {
		return Config{}, err
	}
	healthPort, err := parseIntWithDefault("HEALTH_PORT", 4098)
	if err != nil {
		return Config{}, err
	}
	pollingInterval, err := parseIntWithDefault("BOT_POLLING_INTERVAL_SECONDS", 2)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		BotToken:            botToken,
		BotEnabled:          tokenLooksReal(botToken),
		BotTransport:        defaultString(os.Getenv("BOT_TRANSPORT"), "polling"),
		WebhookURL:          strings.TrimSpace(os.Getenv("WEBHOOK_URL")),
		WebhookListenAddr:   defaultString(strings.TrimSpace(os.Getenv("WEBHOOK_LISTEN_ADDR")), ":8091"),
		BotPollingIntervalS: pollingInterval,
		BackendURL:          defaultString(os.Getenv("BACKEND_INTERNAL_URL"), "http://backend:3001"),
		BackendTimeout:      time.Duration(backendTimeoutMs) * time.Millisecond,
		DataDir:             dataDir,
		DatabasePath:        filepath.Join(dataDir, "bot.db"),
		HealthPort:          healthPort,
		LogLevel:            defaultString(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "info"),
		LogFilePath:         filepath.Join(dataDir, "logs", "bot.log"),
		LogMaxSizeMB:        10,
		LogMaxBackups:       5,
		LogMaxAgeDays:       14,
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// tokenLooksReal decides the process-wide enabled flag once at startup. A
// missing token or the compose placeholder means the bot runs in disabled
// mode instead of failing.
func tokenLooksReal(token string) bool {
	return token != "" && !strings.HasPrefix(token, "change_me")
}

func validate(cfg Config) error {
	if cfg.BackendURL == "" {
		return errors.New("BACKEND_INTERNAL_URL is required")
	}
	if cfg.BotTransport != "polling" && cfg.BotTransport != "webhook" {
		return fmt.Errorf("BOT_TRANSPORT must be polling or webhook: got %q", cfg.BotTransport)
	}
	if cfg.BotTransport == "webhook" && cfg.BotEnabled && cfg.WebhookURL == "" {
		return errors.New("WEBHOOK_URL is required when BOT_TRANSPORT=webhook")
	}
	if cfg.BackendTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT_MS must be > 0: got %d", cfg.BackendTimeout.Milliseconds())
	}
	if cfg.HealthPort <= 0 {
		return fmt.Errorf("HEALTH_PORT must be > 0: got %d", cfg.HealthPort)
	}
	return nil
}

func parseIntWithDefault(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be integer: %w", key, err)
	}
	return v, nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
