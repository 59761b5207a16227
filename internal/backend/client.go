package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/steamguard-web/telegram-bot/internal/config"
	"github.com/steamguard-web/telegram-bot/internal/domain"
)

const authHeader = "x-telegram-bot-token"

// Error is the single failure type for backend calls. Message is already
// user-facing: for HTTP errors it is the backend's `message` field (or the
// raw body), for transport failures a generic text.
type Error struct {
	StatusCode int
	Message    string
	cause      error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

type Client struct {
	baseURL  string
	botToken string
	http     *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BackendURL, "/"),
		botToken: cfg.BotToken,
		http:     &http.Client{Timeout: cfg.BackendTimeout},
	}
}

func (c *Client) OAuth(ctx context.Context, code string, userID string, username string) error {
	body := map[string]any{
		"code":           code,
		"telegramUserId": userID,
		"username":       username,
	}
	_, err := c.call(ctx, http.MethodPost, "/api/telegram/bot/oauth", body)
	return err
}

func (c *Client) Accounts(ctx context.Context, userID string) ([]domain.LinkedAccount, error) {
	raw, err := c.call(ctx, http.MethodGet, "/api/telegram/bot/accounts/"+userID, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Items []domain.LinkedAccount `json:"items"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Message: "unexpected accounts payload", cause: err}
	}
	return payload.Items, nil
}

func (c *Client) Codes(ctx context.Context, userID string) ([]domain.AuthCode, error) {
	raw, err := c.call(ctx, http.MethodGet, "/api/telegram/bot/codes/"+userID, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Items []domain.AuthCode `json:"items"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Message: "unexpected codes payload", cause: err}
	}
	return payload.Items, nil
}

func (c *Client) PendingConfirmations(ctx context.Context, userID string) ([]domain.PendingConfirmation, error) {
	raw, err := c.call(ctx, http.MethodGet, "/api/telegram/bot/confirms/"+userID, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Items []domain.PendingConfirmation `json:"items"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Message: "unexpected confirmations payload", cause: err}
	}
	return payload.Items, nil
}

func (c *Client) Confirm(ctx context.Context, userID string, confirmation domain.PendingConfirmation) error {
	body := map[string]any{
		"telegramUserId": userID,
		"accountId":      confirmation.AccountID,
		"confirmationId": confirmation.ConfirmationID,
	}
	if confirmation.Nonce != "" {
		body["nonce"] = confirmation.Nonce
	}
	_, err := c.call(ctx, http.MethodPost, "/api/telegram/bot/confirm", body)
	return err
}

func (c *Client) Link(ctx context.Context, code string, userID string, username string) error {
	body := map[string]any{
		"code":           code,
		"telegramUserId": userID,
		"username":       username,
	}
	_, err := c.call(ctx, http.MethodPost, "/api/telegram/bot/link", body)
	return err
}

// Ping reports whether the backend answers HTTP at all. Any status counts as
// reachable; only transport failures are errors. Used by the ops server.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	req.Header.Set(authHeader, c.botToken)

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

// call issues one request and normalizes the response. The body is parsed as
// JSON regardless of the declared content type; a 2xx response that is not
// valid JSON is still a failure. No retries: the caller gets exactly one
// attempt per command.
func (c *Client) call(ctx context.Context, method string, path string, body any) ([]byte, error) {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Message: "encode backend request", cause: err}
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, &Error{Message: "build backend request", cause: err}
	}
	req.Header.Set(authHeader, c.botToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Message: "backend request failed", cause: err}
	}
	defer res.Body.Close()

	raw, readErr := io.ReadAll(res.Body)
	if readErr != nil {
		return nil, &Error{Message: "backend request failed", cause: readErr}
	}

	trimmed := bytes.TrimSpace(raw)
	var parsed any
	parseErr := json.Unmarshal(trimmed, &parsed)

	if res.StatusCode >= 400 {
		return nil, &Error{StatusCode: res.StatusCode, Message: errorMessage(parsed, parseErr, trimmed, res.StatusCode)}
	}
	if parseErr != nil {
		msg := strings.TrimSpace(string(trimmed))
		if msg == "" {
			msg = "backend returned an empty response"
		}
		return nil, &Error{StatusCode: res.StatusCode, Message: msg, cause: parseErr}
	}
	return trimmed, nil
}

// errorMessage extracts the user-facing text from an error response: the
// `message` field when the body is a JSON object, otherwise the body itself.
func errorMessage(parsed any, parseErr error, raw []byte, status int) string {
	if parseErr == nil {
		if object, ok := parsed.(map[string]any); ok {
			if message, ok := object["message"].(string); ok && strings.TrimSpace(message) != "" {
				return strings.TrimSpace(message)
			}
		}
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return fmt.Sprintf("backend status %d", status)
	}
	return text
}
