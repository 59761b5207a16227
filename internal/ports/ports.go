package ports

import (
	"context"

	"github.com/steamguard-web/telegram-bot/internal/domain"
)

type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMarkdownMessage(ctx context.Context, chatID int64, text string) error
}

// BackendClient is the SteamGuard backend surface the bot consumes. Every
// method maps to exactly one HTTP call; errors already carry the user-facing
// message extracted from the backend response.
type BackendClient interface {
	OAuth(ctx context.Context, code string, userID string, username string) error
	Accounts(ctx context.Context, userID string) ([]domain.LinkedAccount, error)
	Codes(ctx context.Context, userID string) ([]domain.AuthCode, error)
	PendingConfirmations(ctx context.Context, userID string) ([]domain.PendingConfirmation, error)
	Confirm(ctx context.Context, userID string, confirmation domain.PendingConfirmation) error
	Link(ctx context.Context, code string, userID string, username string) error
}

type CommandRecord struct {
	TelegramUserID int64
	Intent         string
	Outcome        string
}

// AuditRepository records dispatched commands for the ops endpoints. It is
// write-behind only: command handling never reads from it.
type AuditRepository interface {
	RecordCommand(ctx context.Context, record CommandRecord) error
	CommandCounts(ctx context.Context) (map[string]int64, error)
}
