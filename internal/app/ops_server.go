package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/steamguard-web/telegram-bot/internal/backend"
	"github.com/steamguard-web/telegram-bot/internal/config"
	"github.com/steamguard-web/telegram-bot/internal/ports"
	"github.com/steamguard-web/telegram-bot/internal/telegram"
)

var ErrServerClosed = http.ErrServerClosed

func IsServerClosed(err error) bool {
	return errors.Is(err, http.ErrServerClosed)
}

// OpsServer exposes local health and usage endpoints. It runs even when the
// bot itself is disabled, so a deployment with a placeholder token still
// reports its state.
type OpsServer struct {
	cfg        config.Config
	logger     *slog.Logger
	httpServer *http.Server
	startedAt  time.Time
	backend    *backend.Client
	audit      ports.AuditRepository
}

type serviceCheck struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type healthResponse struct {
	UptimeSeconds int64        `json:"uptimeSeconds"`
	BotEnabled    bool         `json:"botEnabled"`
	Backend       serviceCheck `json:"backend"`
	Telegram      serviceCheck `json:"telegram"`
}

func NewOpsServer(cfg config.Config, logger *slog.Logger, backendClient *backend.Client, auditRepo ports.AuditRepository) *OpsServer {
	server := &OpsServer{
		cfg:       cfg,
		logger:    logger,
		startedAt: time.Now(),
		backend:   backendClient,
		audit:     auditRepo,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.healthHandler)
	mux.HandleFunc("/stats", server.statsHandler)

	server.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server
}

func (s *OpsServer) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *OpsServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *OpsServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response := healthResponse{
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		BotEnabled:    s.cfg.BotEnabled,
	}

	if err := s.backend.Ping(ctx); err != nil {
		response.Backend = serviceCheck{OK: false, Error: err.Error()}
	} else {
		response.Backend = serviceCheck{OK: true}
	}

	if !s.cfg.BotEnabled {
		response.Telegram = serviceCheck{OK: false, Error: "bot disabled"}
	} else if err := telegram.CheckConnectivity(ctx, s.cfg.BotToken, 10*time.Second); err != nil {
		response.Telegram = serviceCheck{OK: false, Error: err.Error()}
	} else {
		response.Telegram = serviceCheck{OK: true}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("encode health response failed", "error", err)
	}
}

func (s *OpsServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts, err := s.audit.CommandCounts(r.Context())
	if err != nil {
		s.logger.Error("load command counts failed", "error", err)
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"commands": counts}); err != nil {
		s.logger.Error("encode stats response failed", "error", err)
	}
}
