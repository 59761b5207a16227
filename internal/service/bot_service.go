package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/steamguard-web/telegram-bot/internal/command"
	"github.com/steamguard-web/telegram-bot/internal/ports"
	"github.com/steamguard-web/telegram-bot/internal/render"
	"github.com/steamguard-web/telegram-bot/internal/telegram"
)

// BotService turns inbound Telegram updates into backend calls and exactly
// one reply each. Handlers hold no state between messages, so concurrent
// updates need no coordination.
type BotService struct {
	logger  *slog.Logger
	backend ports.BackendClient
	chat    ports.TelegramClient
	audit   ports.AuditRepository
}

type Reply struct {
	Text     string
	Markdown bool
	Outcome  string
}

func NewBotService(
	logger *slog.Logger,
	backendClient ports.BackendClient,
	telegramClient ports.TelegramClient,
	auditRepo ports.AuditRepository,
) *BotService {
	return &BotService{
		logger:  logger,
		backend: backendClient,
		chat:    telegramClient,
		audit:   auditRepo,
	}
}

func (s *BotService) HandleUpdate(ctx context.Context, update telegram.Update) {
	if update.Message == nil {
		return
	}
	message := *update.Message
	if message.From.ID == 0 || message.Chat.ID == 0 {
		return
	}

	intent := command.Classify(message.Text)
	reply := s.safeDispatch(ctx, message, intent)

	var sendErr error
	if reply.Markdown {
		sendErr = s.chat.SendMarkdownMessage(ctx, message.Chat.ID, reply.Text)
	} else {
		sendErr = s.chat.SendMessage(ctx, message.Chat.ID, reply.Text)
	}
	if sendErr != nil {
		s.logger.Error("send reply failed", "error", sendErr, "chat_id", message.Chat.ID)
	}

	if err := s.audit.RecordCommand(ctx, ports.CommandRecord{
		TelegramUserID: message.From.ID,
		Intent:         intent.Kind.String(),
		Outcome:        reply.Outcome,
	}); err != nil {
		s.logger.Warn("record command failed", "error", err)
	}
}

// safeDispatch guarantees a rendered reply even when a handler panics.
func (s *BotService) safeDispatch(ctx context.Context, message telegram.Message, intent command.Intent) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic", "intent", intent.Kind.String(), "panic", r)
			reply = Reply{Text: render.InternalError, Outcome: "error"}
		}
	}()
	return s.dispatch(ctx, message, intent)
}

func (s *BotService) dispatch(ctx context.Context, message telegram.Message, intent command.Intent) Reply {
	senderID := strconv.FormatInt(message.From.ID, 10)

	switch intent.Kind {
	case command.StartDeepLink:
		if err := s.backend.OAuth(ctx, intent.Arg, senderID, message.From.Username); err != nil {
			s.logger.Error("oauth login failed", "error", err, "user_id", message.From.ID)
			return Reply{Text: render.LoginFailed(err), Outcome: "error"}
		}
		return Reply{Text: render.LoginApproved, Outcome: "ok"}

	case command.StartPlain:
		if intent.Arg != "" {
			return Reply{Text: render.ReadyCommands, Outcome: "ok"}
		}
		return Reply{Text: render.Greeting, Outcome: "ok"}

	case command.Status:
		if _, err := s.backend.Accounts(ctx, senderID); err != nil {
			return Reply{Text: render.BackendError(err), Outcome: "error"}
		}
		return Reply{Text: render.BackendOK, Outcome: "ok"}

	case command.ListAccounts:
		items, err := s.backend.Accounts(ctx, senderID)
		if err != nil {
			s.logger.Error("fetch accounts failed", "error", err, "user_id", message.From.ID)
			return Reply{Text: render.AccountsFailed(err), Outcome: "error"}
		}
		if len(items) == 0 {
			return Reply{Text: render.NoAccounts, Outcome: "ok"}
		}
		return Reply{Text: render.Accounts(items), Outcome: "ok"}

	case command.ListCodes:
		items, err := s.backend.Codes(ctx, senderID)
		if err != nil {
			s.logger.Error("fetch codes failed", "error", err, "user_id", message.From.ID)
			return Reply{Text: render.CodesFailed(err), Outcome: "error"}
		}
		if len(items) == 0 {
			return Reply{Text: render.NoCodes, Outcome: "ok"}
		}
		return Reply{Text: render.Codes(items), Markdown: true, Outcome: "ok"}

	case command.Confirm:
		return s.handleConfirm(ctx, senderID, message.From.ID, intent.Arg)

	case command.LinkViaEquals, command.LinkViaSpace:
		if err := s.backend.Link(ctx, intent.Arg, senderID, message.From.Username); err != nil {
			s.logger.Error("link failed", "error", err, "user_id", message.From.ID)
			return Reply{Text: render.LinkFailed(err), Outcome: "error"}
		}
		return Reply{Text: render.Linked, Outcome: "ok"}

	default:
		return Reply{Text: render.Help, Outcome: "unknown"}
	}
}

func (s *BotService) handleConfirm(ctx context.Context, senderID string, userID int64, rawArg string) Reply {
	if rawArg == "" {
		return Reply{Text: render.ConfirmUsage, Outcome: "usage"}
	}

	pending, err := s.backend.PendingConfirmations(ctx, senderID)
	if err != nil {
		s.logger.Error("fetch pending confirmations failed", "error", err, "user_id", userID)
		return Reply{Text: render.ConfirmFailed(err), Outcome: "error"}
	}
	if len(pending) == 0 {
		return Reply{Text: render.NoPendingTrades, Outcome: "ok"}
	}

	chosen, err := ResolveConfirmation(pending, rawArg)
	if errors.Is(err, ErrConfirmationNotFound) {
		return Reply{Text: render.TradeNotFound, Outcome: "not_found"}
	}
	if err != nil {
		return Reply{Text: render.ConfirmUsage, Outcome: "usage"}
	}

	if err := s.backend.Confirm(ctx, senderID, chosen); err != nil {
		s.logger.Error("confirm failed", "error", err, "user_id", userID, "confirmation_id", chosen.ConfirmationID)
		return Reply{Text: render.ConfirmFailed(err), Outcome: "error"}
	}
	return Reply{Text: render.ConfirmSent, Outcome: "ok"}
}
