// Package headers provides parsing of the relay's inbound HTTP headers.
package headers

import (
	"mime"
	"net/http"
	"strings"

	"github.com/tgrelay/tgrelay/internal/telegram"
)

// ParseModeHeader selects the Telegram formatting mode for a relayed
// message.
const ParseModeHeader = "Telegram-Parse-Mode"

// ParseMode maps the parse-mode request header onto a Telegram parse mode.
// "markdown" selects MarkdownV2, "html" selects HTML; anything else,
// including an absent header, selects a plain send.
func ParseMode(h http.Header) string {
	switch strings.ToLower(strings.TrimSpace(h.Get(ParseModeHeader))) {
	case "markdown":
		return telegram.ParseModeMarkdownV2
	case "html":
		return telegram.ParseModeHTML
	default:
		return telegram.ParseModeNone
	}
}

// IsJSON reports whether the Content-Type header declares a JSON body.
// Media-type parameters ("application/json; charset=utf-8") are tolerated,
// as are +json suffixed types.
func IsJSON(h http.Header) bool {
	ct := h.Get("Content-Type")
	if ct == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		// Fall back to a prefix check for sloppy clients.
		return strings.HasPrefix(strings.ToLower(ct), "application/json")
	}

	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
