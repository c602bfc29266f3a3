package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/tgrelay/tgrelay/internal/errors"
)

// Loader handles configuration loading and the single chat-id persist.
// The config is immutable after startup; SaveChatID is the only writer.
type Loader struct {
	path   string
	mu     sync.RWMutex
	config *Config
	// raw holds the file bytes before env substitution so the persist can
	// patch the chat id without baking expanded secrets into the file.
	raw []byte
}

// NewLoader creates a new configuration loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the config file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads the configuration from the file
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.path); err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.ErrConfigNotFound{Path: l.path}
		}
		return nil, err
	}

	content, err := os.ReadFile(l.path)
	if err != nil {
		return nil, &errors.ErrFileRead{Path: l.path, Err: err}
	}

	config, err := Parse(substituteEnvVars(content))
	if err != nil {
		return nil, err
	}

	l.config = config
	l.raw = content
	return config, nil
}

// Get returns the current configuration
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// SaveChatID writes the resolved chat id back into the config file,
// preserving all other fields. The patch is applied to the raw file bytes,
// not the parsed config, so env references like "${TOKEN}" survive the
// rewrite instead of being replaced by their expanded values. Idempotent:
// persisting an id that is already stored leaves the file untouched.
func (l *Loader) SaveChatID(chatID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.config == nil || l.raw == nil {
		return &errors.ErrConfigNotFound{Path: l.path}
	}
	if l.config.TelegramChatID == chatID {
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(l.raw, &doc); err != nil {
		return &errors.ErrFileWrite{Path: l.path, Err: err}
	}

	id, err := json.Marshal(chatID)
	if err != nil {
		return &errors.ErrFileWrite{Path: l.path, Err: err}
	}
	doc["telegram_chat_id"] = id

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &errors.ErrFileWrite{Path: l.path, Err: err}
	}
	data = append(data, '\n')

	if err := os.WriteFile(l.path, data, 0o600); err != nil {
		return &errors.ErrFileWrite{Path: l.path, Err: err}
	}

	updated := *l.config
	updated.TelegramChatID = chatID
	l.config = &updated
	l.raw = data
	return nil
}

// Watch reports external modifications of the config file until ctx is
// cancelled. The config is immutable for the process lifetime, so onChange
// is a notification hook (typically a logged restart hint), never a reload.
// The parent directory is watched because editors replace files by rename.
func (l *Loader) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(l.path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					onChange()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}

// Parse parses configuration from a byte slice
func Parse(data []byte) (*Config, error) {
	var config Config

	if err := json.Unmarshal(data, &config); err != nil {
		return nil, &errors.ErrConfigParse{Err: err}
	}

	if err := config.Validate(); err != nil {
		return nil, &errors.ErrConfigValidation{Err: err}
	}

	return &config, nil
}

func substituteEnvVars(content []byte) []byte {
	return []byte(os.ExpandEnv(string(content)))
}
