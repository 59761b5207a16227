package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// CheckConnectivity verifies the bot token against the Telegram getMe
// endpoint. Used by the ops server health probe.
func CheckConnectivity(ctx context.Context, botToken string, timeout time.Duration) error {
	client := &http.Client{Timeout: timeout}
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/getMe", botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return fmt.Errorf("telegram getMe status %d", res.StatusCode)
	}
	return nil
}
