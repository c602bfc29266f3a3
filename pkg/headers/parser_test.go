package headers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tgrelay/tgrelay/internal/telegram"
)

func headerWith(key, value string) http.Header {
	h := http.Header{}
	h.Set(key, value)
	return h
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"markdown", "markdown", telegram.ParseModeMarkdownV2},
		{"markdown uppercase", "MARKDOWN", telegram.ParseModeMarkdownV2},
		{"html", "html", telegram.ParseModeHTML},
		{"html padded", " html ", telegram.ParseModeHTML},
		{"unknown value", "bbcode", telegram.ParseModeNone},
		{"empty", "", telegram.ParseModeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMode(headerWith(ParseModeHeader, tt.value)))
		})
	}
}

func TestParseMode_AbsentHeader(t *testing.T) {
	assert.Equal(t, telegram.ParseModeNone, ParseMode(http.Header{}))
}

func TestIsJSON(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"plain json", "application/json", true},
		{"with charset", "application/json; charset=utf-8", true},
		{"suffixed", "application/problem+json", true},
		{"text", "text/plain", false},
		{"form", "application/x-www-form-urlencoded", false},
		{"sloppy but json", "application/json;", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsJSON(headerWith("Content-Type", tt.value)))
		})
	}
}

func TestIsJSON_AbsentHeader(t *testing.T) {
	assert.False(t, IsJSON(http.Header{}))
}
