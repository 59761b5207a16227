package service

import (
	"errors"
	"strconv"
	"strings"

	"github.com/steamguard-web/telegram-bot/internal/domain"
)

var (
	// ErrNoIdentifier means the caller passed an empty identifier and should
	// reply with usage text instead of querying the backend.
	ErrNoIdentifier = errors.New("confirmation identifier is empty")

	// ErrConfirmationNotFound means no pending item matched the identifier.
	ErrConfirmationNotFound = errors.New("confirmation not found in pending set")
)

// ResolveConfirmation selects one pending confirmation by a user-supplied
// identifier: either a bare confirmation id or <accountId>:<confirmationId>.
// Matching is first-match in the backend-provided order, so duplicate
// confirmation ids across accounts resolve deterministically to the
// earliest-listed item.
func ResolveConfirmation(pending []domain.PendingConfirmation, rawArg string) (domain.PendingConfirmation, error) {
	if rawArg == "" {
		return domain.PendingConfirmation{}, ErrNoIdentifier
	}
	if len(pending) == 0 {
		return domain.PendingConfirmation{}, ErrConfirmationNotFound
	}

	if accountPart, confirmationPart, ok := strings.Cut(rawArg, ":"); ok {
		for _, item := range pending {
			if strconv.FormatInt(item.AccountID, 10) == accountPart && item.ConfirmationID == confirmationPart {
				return item, nil
			}
		}
		return domain.PendingConfirmation{}, ErrConfirmationNotFound
	}

	for _, item := range pending {
		if item.ConfirmationID == rawArg {
			return item, nil
		}
	}
	return domain.PendingConfirmation{}, ErrConfirmationNotFound
}
