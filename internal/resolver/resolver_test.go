package resolver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgrelay/tgrelay/internal/config"
	"github.com/tgrelay/tgrelay/internal/logging"
	"github.com/tgrelay/tgrelay/internal/telegram"
	"github.com/tgrelay/tgrelay/test/mocks"
)

func testLoader(t *testing.T, chatID int64) *config.Loader {
	t.Helper()

	body := `{
  "listen_addr": "127.0.0.1:8080",
  "telegram_bot_token": "123456:TEST",
  "telegram_username": "@Alice"`
	if chatID != 0 {
		body += fmt.Sprintf(",\n  \"telegram_chat_id\": %d", chatID)
	}
	body += "\n}"

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	loader := config.NewLoader(path)
	_, err := loader.Load()
	require.NoError(t, err)
	return loader
}

func testResolver(api telegram.API, loader *config.Loader) *Resolver {
	r := New(api, loader, logging.NewLogger(logging.WithOutput(io.Discard)), nil)
	r.SetPollDelay(time.Millisecond)
	return r
}

func TestResolve_CachedChatIDSkipsPolling(t *testing.T) {
	api := mocks.NewMockTelegramAPI()
	loader := testLoader(t, 555)

	r := testResolver(api, loader)
	chatID, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(555), chatID)
	assert.Equal(t, StateResolved, r.State())
	assert.Zero(t, api.GetUpdatesCalls, "cached chat id must not trigger any network call")
}

func TestResolve_MatchesUsernameAndPersists(t *testing.T) {
	api := mocks.NewMockTelegramAPI()
	api.QueueUpdates() // empty first round
	api.QueueUpdates(
		telegram.Update{UpdateID: 1, ChatID: 100, Username: "mallory", Text: "/start"},
		telegram.Update{UpdateID: 2, ChatID: 200, Username: "alice", Text: "/start"},
	)

	loader := testLoader(t, 0)
	r := testResolver(api, loader)

	chatID, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(200), chatID)
	assert.Equal(t, StateResolved, r.State())

	// Persisted: a fresh load sees the resolved id.
	reloaded, err := config.NewLoader(loader.Path()).Load()
	require.NoError(t, err)
	assert.Equal(t, int64(200), reloaded.TelegramChatID)
}

func TestResolve_UsernameMatchIsCaseInsensitive(t *testing.T) {
	// Config has "@Alice"; the update carries "ALICE".
	api := mocks.NewMockTelegramAPI()
	api.QueueUpdates(telegram.Update{UpdateID: 1, ChatID: 300, Username: "ALICE", Text: "hello"})

	r := testResolver(api, testLoader(t, 0))
	chatID, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(300), chatID)
}

func TestResolve_IgnoresUpdatesWithoutUsername(t *testing.T) {
	api := mocks.NewMockTelegramAPI()
	api.QueueUpdates(telegram.Update{UpdateID: 1, ChatID: 300, Username: "", Text: "anonymous"})
	api.QueueUpdates(telegram.Update{UpdateID: 2, ChatID: 400, Username: "alice", Text: "hi"})

	r := testResolver(api, testLoader(t, 0))
	chatID, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(400), chatID)
}

func TestResolve_RetriesAfterTransientError(t *testing.T) {
	api := mocks.NewMockTelegramAPI()
	api.QueueError(fmt.Errorf("connection reset"))
	api.QueueUpdates(telegram.Update{UpdateID: 1, ChatID: 500, Username: "alice", Text: "/start"})

	r := testResolver(api, testLoader(t, 0))
	chatID, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(500), chatID)
	assert.GreaterOrEqual(t, api.GetUpdatesCalls, 2)
}

func TestResolve_ContextCancellation(t *testing.T) {
	api := mocks.NewMockTelegramAPI() // never matches: endless empty batches
	r := testResolver(api, testLoader(t, 0))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateResolving, r.State())
}

func TestResolve_SecondRunIsNoOp(t *testing.T) {
	api := mocks.NewMockTelegramAPI()
	api.QueueUpdates(telegram.Update{UpdateID: 1, ChatID: 600, Username: "alice", Text: "/start"})

	loader := testLoader(t, 0)
	r := testResolver(api, loader)
	_, err := r.Resolve(context.Background())
	require.NoError(t, err)

	raw1, err := os.ReadFile(loader.Path())
	require.NoError(t, err)

	// Second resolution against the same loader: cached, zero polls, file
	// untouched.
	api2 := mocks.NewMockTelegramAPI()
	r2 := testResolver(api2, loader)
	chatID, err := r2.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(600), chatID)
	assert.Zero(t, api2.GetUpdatesCalls)

	raw2, err := os.ReadFile(loader.Path())
	require.NoError(t, err)
	assert.Equal(t, raw1, raw2)
}

func TestResolve_InitialState(t *testing.T) {
	r := testResolver(mocks.NewMockTelegramAPI(), testLoader(t, 0))
	assert.Equal(t, StateUnresolved, r.State())
}
