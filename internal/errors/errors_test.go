package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrConfigNotFound(t *testing.T) {
	err := &ErrConfigNotFound{Path: "/etc/tgrelay/config.json"}
	assert.Contains(t, err.Error(), "/etc/tgrelay/config.json")
	assert.Contains(t, err.Error(), "not found")
}

func TestErrConfigParse_Unwrap(t *testing.T) {
	cause := fmt.Errorf("unexpected end of JSON input")
	err := &ErrConfigParse{Err: cause}
	assert.Contains(t, err.Error(), "JSON")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestErrConfigValidation_Unwrap(t *testing.T) {
	cause := fmt.Errorf("telegram_bot_token is required")
	err := &ErrConfigValidation{Err: cause}
	assert.Contains(t, err.Error(), "validation failed")
	assert.True(t, errors.Is(err, cause))
}

func TestErrFileWrite_Unwrap(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := &ErrFileWrite{Path: "config.json", Err: cause}
	assert.Contains(t, err.Error(), "config.json")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestErrTelegramAPI(t *testing.T) {
	cause := fmt.Errorf("Bad Request: chat not found")
	err := &ErrTelegramAPI{Op: "sendMessage", Err: cause}
	assert.Contains(t, err.Error(), "sendMessage")
	assert.Contains(t, err.Error(), "chat not found")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestErrServerStart(t *testing.T) {
	cause := fmt.Errorf("address already in use")
	err := &ErrServerStart{Addr: "127.0.0.1:8080", Err: cause}
	assert.Contains(t, err.Error(), "127.0.0.1:8080")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestErrChatNotResolved(t *testing.T) {
	err := &ErrChatNotResolved{Username: "alice"}
	assert.Contains(t, err.Error(), "@alice")
}
