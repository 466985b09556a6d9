package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads a config file when it changes on disk and delivers the validated result.
// Invalid edits are logged and skipped; the previous config stays in effect.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	changes chan *Config
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewWatcher starts watching path. The file's directory is watched rather than the file so that
// editors which replace the file on save are still seen.
//
// Parameters:
//   - path: the config file to watch; it does not need to exist yet
//   - logger: receives reload and error messages
//
// Returns:
//   - *Watcher: the running watcher
//   - error: error if the directory cannot be watched
func NewWatcher(path string, logger zerolog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config watcher: watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:    abs,
		watcher: fw,
		logger:  logger.With().Str("component", "config").Logger(),
		changes: make(chan *Config, 1),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.watchLoop()
	return w, nil
}

// Changes delivers each successfully reloaded config. Only the latest unread config is kept.
func (w *Watcher) Changes() <-chan *Config {
	return w.changes
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) reload() {
	// editors and os.WriteFile truncate before writing; the empty file is not a real edit
	if info, err := os.Stat(w.path); err != nil || info.Size() == 0 {
		return
	}
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("config reload rejected")
		return
	}
	// drop a stale unread config so the consumer always sees the newest one
	select {
	case <-w.changes:
	default:
	}
	select {
	case w.changes <- cfg:
		w.logger.Info().Str("path", w.path).Msg("config reloaded")
	case <-w.done:
	}
}
