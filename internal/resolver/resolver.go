// Package resolver turns a configured Telegram username into a chat id by
// observing the first message that user sends to the bot. Resolution runs
// once, before the relay server starts, and persists its result into the
// config file.
package resolver

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tgrelay/tgrelay/internal/config"
	"github.com/tgrelay/tgrelay/internal/logging"
	"github.com/tgrelay/tgrelay/internal/metrics"
	"github.com/tgrelay/tgrelay/internal/telegram"
)

// State is the resolution phase.
type State string

const (
	StateUnresolved State = "unresolved"
	StateResolving  State = "resolving"
	StateResolved   State = "resolved"
)

// DefaultPollDelay paces the poll loop between rounds. The client's
// long-poll timeout provides most of the waiting; this only guards against
// hot-looping when the API returns immediately.
const DefaultPollDelay = 2 * time.Second

// Resolver polls getUpdates until a message from the configured username
// arrives, then persists the chat id.
type Resolver struct {
	api     telegram.API
	loader  *config.Loader
	logger  *logging.Logger
	metrics *metrics.Metrics
	delay   time.Duration

	mu    sync.Mutex
	state State
}

// New creates a Resolver. m may be nil when metrics are not collected.
func New(api telegram.API, loader *config.Loader, logger *logging.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{
		api:     api,
		loader:  loader,
		logger:  logger,
		metrics: m,
		delay:   DefaultPollDelay,
		state:   StateUnresolved,
	}
}

// SetPollDelay overrides the delay between poll rounds. Tests use this to
// keep the loop fast.
func (r *Resolver) SetPollDelay(d time.Duration) {
	r.delay = d
}

// State returns the current resolution state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Resolver) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Resolve returns the chat id for the configured username. If the config
// already carries one, it returns immediately without any network call.
// Otherwise it blocks, polling until the user messages the bot or ctx is
// cancelled. The resolved id is persisted before Resolve returns.
func (r *Resolver) Resolve(ctx context.Context) (int64, error) {
	cfg := r.loader.Get()

	if cfg.Resolved() {
		r.setState(StateResolved)
		r.logger.Info("using cached chat id",
			"chat_id", cfg.TelegramChatID,
			"username", cfg.NormalizedUsername(),
		)
		return cfg.TelegramChatID, nil
	}

	r.setState(StateResolving)
	target := cfg.NormalizedUsername()
	r.logger.Info("waiting for the target user to message the bot",
		"username", target,
		"hint", "open the bot in Telegram and send /start",
	)

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		updates, err := r.api.GetUpdates()
		if err != nil {
			r.recordPoll("error")
			r.logger.Warn("getUpdates failed, retrying", "error", err.Error())
			if err := r.sleep(ctx); err != nil {
				return 0, err
			}
			continue
		}
		r.recordPoll("ok")

		for _, update := range updates {
			if update.Username == "" || !strings.EqualFold(update.Username, target) {
				continue
			}

			if err := r.loader.SaveChatID(update.ChatID); err != nil {
				// Persistence failure is a config error; resolution cannot
				// complete without the durable write.
				return 0, err
			}

			r.setState(StateResolved)
			r.logger.Info("resolved chat id",
				"username", target,
				"chat_id", update.ChatID,
			)
			return update.ChatID, nil
		}

		if err := r.sleep(ctx); err != nil {
			return 0, err
		}
	}
}

func (r *Resolver) sleep(ctx context.Context) error {
	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Resolver) recordPoll(status string) {
	if r.metrics != nil {
		r.metrics.RecordResolverPoll(status)
	}
}
