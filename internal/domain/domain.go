package domain

// LinkedAccount is a Steam account the backend has associated with a
// Telegram user.
type LinkedAccount struct {
	ID      int64  `json:"id"`
	Alias   string `json:"alias"`
	SteamID string `json:"steamid"`
}

// AuthCode is the current SteamGuard code for one linked account.
type AuthCode struct {
	Alias string `json:"alias"`
	Code  string `json:"code"`
}

// PendingConfirmation is a trade confirmation awaiting approval. The pending
// set is owned by the backend and fetched fresh on every /confirm command;
// it is never cached on this side.
type PendingConfirmation struct {
	AccountID      int64  `json:"account_id"`
	ConfirmationID string `json:"confirmation_id"`
	Nonce          string `json:"nonce,omitempty"`
}
