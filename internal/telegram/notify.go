package telegram

import "strings"

// Notify sends a one-off message without requiring a constructed Client.
// Best-effort: a blank token, zero chat id, or blank text is a no-op, so
// callers that need those rejected must validate before calling.
func Notify(token string, chatID int64, text string, parseMode string) error {
	token = strings.TrimSpace(token)
	if token == "" || chatID == 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	client, err := NewClient(token)
	if err != nil {
		return err
	}
	return client.SendMessage(chatID, text, parseMode)
}
