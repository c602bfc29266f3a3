// Package mocks provides test doubles shared across packages.
package mocks

import (
	"sync"
	"time"

	"github.com/tgrelay/tgrelay/internal/telegram"
)

// SentMessage represents a message captured by the mock
type SentMessage struct {
	ChatID    int64
	Text      string
	ParseMode string
	Time      time.Time
}

// MockTelegramAPI implements telegram.API for testing. Each GetUpdates call
// pops the next scripted result (an update batch or an error); when the
// script is exhausted it returns empty batches.
type MockTelegramAPI struct {
	mu sync.Mutex

	SentMessages []SentMessage
	SendErr      error

	script          []scriptEntry
	GetUpdatesCalls int
}

type scriptEntry struct {
	updates []telegram.Update
	err     error
}

// NewMockTelegramAPI creates an empty mock
func NewMockTelegramAPI() *MockTelegramAPI {
	return &MockTelegramAPI{}
}

// QueueUpdates scripts one GetUpdates result
func (m *MockTelegramAPI) QueueUpdates(updates ...telegram.Update) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptEntry{updates: updates})
}

// QueueError scripts one GetUpdates failure
func (m *MockTelegramAPI) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptEntry{err: err})
}

// SendMessage records the message, failing when SendErr is set
func (m *MockTelegramAPI) SendMessage(chatID int64, text string, parseMode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendErr != nil {
		return m.SendErr
	}

	m.SentMessages = append(m.SentMessages, SentMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode,
		Time:      time.Now(),
	})
	return nil
}

// GetUpdates pops the next scripted result
func (m *MockTelegramAPI) GetUpdates() ([]telegram.Update, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetUpdatesCalls++
	if len(m.script) == 0 {
		return nil, nil
	}

	next := m.script[0]
	m.script = m.script[1:]
	return next.updates, next.err
}

// Sent returns a copy of the captured messages
func (m *MockTelegramAPI) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.SentMessages))
	copy(out, m.SentMessages)
	return out
}

// SentCount returns the number of captured messages
func (m *MockTelegramAPI) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SentMessages)
}

var _ telegram.API = (*MockTelegramAPI)(nil)
