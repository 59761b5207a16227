package render

import (
	"fmt"
	"strings"

	"github.com/steamguard-web/telegram-bot/internal/domain"
)

// Fixed reply texts. Every user-visible string lives here so the service
// layer only decides which one to send.
const (
	Greeting = "SteamGuard Bot is active. Use /accounts, /codes or /add=<code> from web settings."

	ReadyCommands = "SteamGuard Bot ready.\n" +
		"Commands:\n" +
		"/add=<code> - link Telegram to web account\n" +
		"/accounts - list Steam accounts\n" +
		"/codes - get auth codes\n" +
		"/confirm <trade_id> - confirm pending trade\n" +
		"/status - bot/backend status"

	LoginApproved = "Login approved. Return to SteamGuard Web and wait for auto-login."

	BackendOK = "Backend connection: OK"

	NoAccounts = "No Steam accounts linked."
	NoCodes    = "No linked accounts or codes unavailable."

	ConfirmUsage    = "Usage: /confirm <trade_id> OR /confirm <account_id>:<trade_id>"
	NoPendingTrades = "No pending confirmations."
	TradeNotFound   = "Trade confirmation id not found in pending queue."
	ConfirmSent     = "Trade confirmation sent to Steam successfully."

	Linked = "Telegram account linked successfully."

	Help = "Unknown command. Use /accounts, /codes, /confirm or /add=<code>."

	InternalError = "Something went wrong. Please try again."
)

func LoginFailed(err error) string {
	return "Login failed: " + err.Error()
}

func BackendError(err error) string {
	return "Backend connection error: " + err.Error()
}

func AccountsFailed(err error) string {
	return "Failed to fetch accounts: " + err.Error()
}

func CodesFailed(err error) string {
	return "Failed to fetch codes: " + err.Error()
}

func ConfirmFailed(err error) string {
	return "Confirm failed: " + err.Error()
}

func LinkFailed(err error) string {
	return "Link failed: " + err.Error()
}

func Accounts(items []domain.LinkedAccount) string {
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, "Your Steam accounts:")
	for _, item := range items {
		steamID := item.SteamID
		if steamID == "" {
			steamID = "no steamid"
		}
		lines = append(lines, fmt.Sprintf("- [%d] %s (%s)", item.ID, item.Alias, steamID))
	}
	return strings.Join(lines, "\n")
}

// Codes renders each code in Markdown fixed-width so it can be copied from
// the chat without picking up surrounding text.
func Codes(items []domain.AuthCode) string {
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, "Current Steam codes:")
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s: `%s`", item.Alias, item.Code))
	}
	return strings.Join(lines, "\n")
}
