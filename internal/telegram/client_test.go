package telegram

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tgrelay/tgrelay/internal/errors"
)

// fakeBotAPI emulates just enough of api.telegram.org for the client.
type fakeBotAPI struct {
	mu        sync.Mutex
	sendForms []map[string]string
	updates   string // raw JSON array served by getUpdates
	offsets   []string
	failSend  bool
}

func (f *fakeBotAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"relay","username":"relaybot"}}`)
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			f.offsets = append(f.offsets, r.Form.Get("offset"))
			updates := f.updates
			if updates == "" {
				updates = "[]"
			}
			f.updates = "[]"
			fmt.Fprintf(w, `{"ok":true,"result":%s}`, updates)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if f.failSend {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
				return
			}
			form := make(map[string]string)
			for k := range r.Form {
				form[k] = r.Form.Get(k)
			}
			f.sendForms = append(f.sendForms, form)
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"chat":{"id":42},"text":"x"}}`)
		default:
			t.Errorf("unexpected Bot API call: %s", r.URL.Path)
		}
	}
}

func newTestClient(t *testing.T, fake *fakeBotAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	client, err := NewClientWithEndpoint("123456:TEST", srv.URL+"/bot%s/%s")
	require.NoError(t, err)
	return client
}

func TestClient_SendMessageParseMode(t *testing.T) {
	fake := &fakeBotAPI{}
	client := newTestClient(t, fake)

	require.NoError(t, client.SendMessage(42, "*hi*", ParseModeMarkdownV2))

	require.Len(t, fake.sendForms, 1)
	assert.Equal(t, "42", fake.sendForms[0]["chat_id"])
	assert.Equal(t, "*hi*", fake.sendForms[0]["text"])
	assert.Equal(t, "MarkdownV2", fake.sendForms[0]["parse_mode"])
}

func TestClient_SendMessagePlain(t *testing.T) {
	fake := &fakeBotAPI{}
	client := newTestClient(t, fake)

	require.NoError(t, client.SendMessage(42, "hi", ParseModeNone))

	require.Len(t, fake.sendForms, 1)
	_, hasParseMode := fake.sendForms[0]["parse_mode"]
	assert.False(t, hasParseMode, "plain sends must not carry a parse_mode field")
}

func TestClient_SendMessageUpstreamError(t *testing.T) {
	fake := &fakeBotAPI{failSend: true}
	client := newTestClient(t, fake)

	err := client.SendMessage(42, "hi", ParseModeNone)
	var apiErr *apperrors.ErrTelegramAPI
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "sendMessage", apiErr.Op)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestClient_GetUpdatesFlattensAndAdvancesOffset(t *testing.T) {
	raw, err := json.Marshal([]map[string]interface{}{
		{
			"update_id": 10,
			"message": map[string]interface{}{
				"message_id": 1,
				"date":       1700000000,
				"chat":       map[string]interface{}{"id": 555},
				"from":       map[string]interface{}{"id": 7, "username": "alice"},
				"text":       "/start",
			},
		},
		{
			// No message payload (e.g. an edited_message) is skipped.
			"update_id": 11,
		},
	})
	require.NoError(t, err)

	fake := &fakeBotAPI{updates: string(raw)}
	client := newTestClient(t, fake)

	updates, err := client.GetUpdates()
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, 10, updates[0].UpdateID)
	assert.Equal(t, int64(555), updates[0].ChatID)
	assert.Equal(t, "alice", updates[0].Username)
	assert.Equal(t, "/start", updates[0].Text)

	// Second poll passes offset past the highest update id seen.
	_, err = client.GetUpdates()
	require.NoError(t, err)
	require.Len(t, fake.offsets, 2)
	assert.Equal(t, "", fake.offsets[0])
	assert.Equal(t, "12", fake.offsets[1])
}
