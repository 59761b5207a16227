package command

import "strings"

// Kind is the classified meaning of an inbound message.
type Kind int

const (
	Unknown Kind = iota
	StartPlain
	StartDeepLink
	Status
	ListAccounts
	ListCodes
	Confirm
	LinkViaEquals
	LinkViaSpace
)

func (k Kind) String() string {
	switch k {
	case StartPlain:
		return "start"
	case StartDeepLink:
		return "start_deep_link"
	case Status:
		return "status"
	case ListAccounts:
		return "accounts"
	case ListCodes:
		return "codes"
	case Confirm:
		return "confirm"
	case LinkViaEquals:
		return "link_equals"
	case LinkViaSpace:
		return "link_space"
	default:
		return "unknown"
	}
}

// Intent pairs a Kind with its argument: the login code for StartDeepLink,
// the raw identifier for Confirm, the link code for LinkViaEquals and
// LinkViaSpace, any leftover argument for StartPlain. Arg is empty for every
// other kind.
type Intent struct {
	Kind Kind
	Arg  string
}

const deepLinkPrefix = "login_"

// Classify maps raw message text to an Intent. It never fails and performs
// no I/O. /status, /accounts and /codes ignore any trailing arguments; the
// /start deep-link argument keeps its exact remainder after the first
// whitespace run, trailing whitespace included.
func Classify(text string) Intent {
	token, rest := splitCommand(text)

	switch {
	case isCommand(token, "start"):
		if strings.HasPrefix(rest, deepLinkPrefix) {
			return Intent{Kind: StartDeepLink, Arg: strings.TrimPrefix(rest, deepLinkPrefix)}
		}
		// A non-login argument still classifies as StartPlain; the argument
		// is kept so the handler can answer with the command list instead of
		// the bare greeting.
		return Intent{Kind: StartPlain, Arg: strings.TrimSpace(rest)}
	case isCommand(token, "status"):
		return Intent{Kind: Status}
	case isCommand(token, "accounts"):
		return Intent{Kind: ListAccounts}
	case isCommand(token, "codes"):
		return Intent{Kind: ListCodes}
	case isCommand(token, "confirm"):
		return Intent{Kind: Confirm, Arg: strings.TrimSpace(rest)}
	}

	trimmed := strings.TrimSpace(text)
	if value, ok := strings.CutPrefix(trimmed, "/add="); ok {
		return Intent{Kind: LinkViaEquals, Arg: value}
	}
	if value, ok := strings.CutPrefix(trimmed, "/add "); ok {
		return Intent{Kind: LinkViaSpace, Arg: strings.TrimSpace(value)}
	}

	return Intent{Kind: Unknown}
}

// splitCommand returns the first whitespace-delimited token and the remainder
// after the whitespace run that follows it. Leading whitespace before the
// token and before the remainder is dropped; trailing whitespace in the
// remainder is preserved.
func splitCommand(text string) (string, string) {
	start := 0
	for start < len(text) && isSpace(text[start]) {
		start++
	}
	end := start
	for end < len(text) && !isSpace(text[end]) {
		end++
	}
	token := text[start:end]

	restStart := end
	for restStart < len(text) && isSpace(text[restStart]) {
		restStart++
	}
	return token, text[restStart:]
}

// isCommand matches a /name token, with or without an @botname mention.
func isCommand(token string, name string) bool {
	body, ok := strings.CutPrefix(token, "/")
	if !ok {
		return false
	}
	if at := strings.IndexByte(body, '@'); at >= 0 {
		body = body[:at]
	}
	return body == name
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
