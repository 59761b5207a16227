package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/steamguard-web/telegram-bot/internal/app"
	"github.com/steamguard-web/telegram-bot/internal/backend"
	"github.com/steamguard-web/telegram-bot/internal/config"
	"github.com/steamguard-web/telegram-bot/internal/logging"
	"github.com/steamguard-web/telegram-bot/internal/service"
	"github.com/steamguard-web/telegram-bot/internal/storage"
	"github.com/steamguard-web/telegram-bot/internal/telegram"
)

const telegramTimeout = 60 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "bot: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return runServe()
	}

	switch args[0] {
	case "serve":
		return runServe()
	case "migrate":
		return runMigrate()
	case "bootstrap":
		return runBootstrap(args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runServe() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(context.Background()); err != nil {
		return err
	}

	backendClient := backend.NewClient(cfg)
	server := app.NewOpsServer(cfg, logger, backendClient, store)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 3)
	running := 1
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var webhookServer *http.Server
	if !cfg.BotEnabled {
		logger.Warn("telegram bot disabled: set a real TELEGRAM_BOT_TOKEN to enable polling")
	} else {
		telegramAPI := telegram.NewAPI(cfg.BotToken, telegramTimeout, time.Duration(cfg.BotPollingIntervalS)*time.Second)
		botService := service.NewBotService(logger, backendClient, telegramAPI, store)

		if cfg.BotTransport == "polling" {
			if err := telegramAPI.DeleteWebhook(ctx); err != nil {
				logger.Warn("delete webhook failed before polling", "error", err)
			}
			running++
			go func() {
				errCh <- telegramAPI.PollUpdates(ctx, botService.HandleUpdate)
			}()
		} else {
			if err := telegramAPI.SetupWebhook(ctx, cfg.WebhookURL); err != nil {
				return err
			}
			webhookPath := telegramAPI.WebhookPath(cfg.WebhookURL)
			mux := http.NewServeMux()
			mux.HandleFunc(webhookPath, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
					return
				}
				body, err := io.ReadAll(r.Body)
				if err != nil {
					http.Error(w, "invalid body", http.StatusBadRequest)
					return
				}
				update, err := telegramAPI.ParseWebhookUpdate(body)
				if err != nil {
					http.Error(w, "invalid update", http.StatusBadRequest)
					return
				}
				// Detach from the request context so a dropped Telegram
				// connection cannot abort a backend call mid-flight.
				botService.HandleUpdate(context.WithoutCancel(r.Context()), update)
				w.WriteHeader(http.StatusOK)
			})
			webhookServer = &http.Server{Addr: cfg.WebhookListenAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			running++
			go func() {
				errCh <- webhookServer.ListenAndServe()
			}()
		}
	}

	logger.Info("bot serving",
		"enabled", cfg.BotEnabled,
		"transport", cfg.BotTransport,
		"backend_url", cfg.BackendURL,
		"health_port", cfg.HealthPort,
	)

	select {
	case <-ctx.Done():
		// The shutdown budget must outlast one backend call so in-flight
		// handlers can finish instead of being interrupted mid-call.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.BackendTimeout+10*time.Second)
		defer shutdownCancel()
		logger.Info("shutting down bot")
		if webhookServer != nil {
			if err := webhookServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("webhook server shutdown failed", "error", err)
			}
		}
		if err := server.Shutdown(shutdownCtx); err != nil && !app.IsServerClosed(err) {
			logger.Warn("ops server shutdown failed", "error", err)
		}
		for i := 0; i < running; i++ {
			if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) && !app.IsServerClosed(err) {
				return err
			}
		}
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, context.Canceled) || app.IsServerClosed(err) {
			return nil
		}
		return err
	}
}

func runMigrate() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(context.Background()); err != nil {
		return err
	}

	fmt.Println("migration complete")
	return nil
}

func runBootstrap(args []string) error {
	fs := flag.NewFlagSet("bootstrap", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var envPath string
	fs.StringVar(&envPath, "env-file", ".env", "path to output .env file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	lines := []string{
		"TELEGRAM_BOT_TOKEN=" + cfg.BotToken,
		"BACKEND_INTERNAL_URL=" + cfg.BackendURL,
		"BACKEND_TIMEOUT_MS=" + strconv.FormatInt(cfg.BackendTimeout.Milliseconds(), 10),
		"BOT_TRANSPORT=" + cfg.BotTransport,
		"WEBHOOK_URL=" + cfg.WebhookURL,
		"WEBHOOK_LISTEN_ADDR=" + cfg.WebhookListenAddr,
		"BOT_POLLING_INTERVAL_SECONDS=" + strconv.Itoa(cfg.BotPollingIntervalS),
		"DATA_DIR=" + cfg.DataDir,
		"HEALTH_PORT=" + strconv.Itoa(cfg.HealthPort),
		"LOG_LEVEL=" + cfg.LogLevel,
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", envPath)
	return nil
}

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}
