package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotify_ShortCircuits(t *testing.T) {
	// Incomplete inputs are dropped silently without touching the network.
	assert.NoError(t, Notify("", 42, "hello", ParseModeNone))
	assert.NoError(t, Notify("123456:TEST", 0, "hello", ParseModeNone))
	assert.NoError(t, Notify("123456:TEST", 42, "   ", ParseModeNone))
}
