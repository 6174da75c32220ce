// Package watch runs the long-lived sync loop: document edits trigger a
// debounced inbound push, and an optional timer runs periodic outbound
// pulls. Passes are strictly serialized; a burst of edits coalesces into one
// push after a quiet period.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harrisonrobin/ticksync/pkg/config"
	"github.com/harrisonrobin/ticksync/pkg/store"
	"github.com/harrisonrobin/ticksync/pkg/sync"
)

// Config holds the loop's timing knobs.
type Config struct {
	// QuietPeriod is how long the document must stay unchanged before a
	// queued edit is pushed. Further edits reset the wait.
	QuietPeriod time.Duration

	// PollInterval is how often the pending edit is checked against the
	// quiet period.
	PollInterval time.Duration

	// PullInterval is how often to run an outbound pull; zero disables the
	// periodic pull.
	PullInterval time.Duration

	// Logger for loop activity.
	Logger *log.Logger
}

// DefaultConfig returns the standard timings: a 2 second quiet period and
// no periodic pull unless the caller enables one.
func DefaultConfig() *Config {
	return &Config{
		QuietPeriod:  2 * time.Second,
		PollInterval: 250 * time.Millisecond,
		Logger:       log.New(os.Stderr, "[watch] ", log.LstdFlags),
	}
}

// Watcher owns the fsnotify watcher and the debounce state.
type Watcher struct {
	syncer  *sync.Syncer
	store   store.DocumentStore
	docPath string // absolute path of the target document on disk
	page    string // configured page path, for store reads
	config  *Config

	watcher *fsnotify.Watcher

	// pending is when the last unprocessed edit arrived; zero means none.
	// Only the Run goroutine touches it.
	pending time.Time
}

// New builds a watcher for the configured target document.
func New(syncer *sync.Syncer, st store.DocumentStore, settings *config.Settings, cfg *Config) (*Watcher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.QuietPeriod <= 0 {
		cfg.QuietPeriod = 2 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	docPath, err := filepath.Abs(filepath.Join(settings.VaultDir, store.NormalizePath(settings.TargetPagePath)))
	if err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		syncer:  syncer,
		store:   st,
		docPath: docPath,
		page:    settings.TargetPagePath,
		config:  cfg,
		watcher: fw,
	}, nil
}

// Run watches until ctx is cancelled. It blocks; errors from individual
// passes are logged, not returned — only setup failures abort the loop.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.docPath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	defer w.watcher.Close()

	w.config.Logger.Printf("Watching %s", w.docPath)

	debounce := time.NewTicker(w.config.PollInterval)
	defer debounce.Stop()

	var pull *time.Ticker
	var pullC <-chan time.Time
	if w.config.PullInterval > 0 {
		pull = time.NewTicker(w.config.PullInterval)
		defer pull.Stop()
		pullC = pull.C
	}

	for {
		select {
		case <-ctx.Done():
			w.config.Logger.Println("Shutdown signal received")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.isTargetEvent(event) {
				continue
			}
			w.config.Logger.Printf("File event: %s %s", event.Op, event.Name)
			w.pending = time.Now()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.config.Logger.Printf("Watcher error: %v", err)

		case <-debounce.C:
			w.processPending(ctx)

		case <-pullC:
			w.config.Logger.Println("Periodic pull")
			if err := w.syncer.Pull(ctx); err != nil {
				w.config.Logger.Printf("Pull failed: %v", err)
			}
		}
	}
}

// isTargetEvent filters directory events down to writes of the target
// document.
func (w *Watcher) isTargetEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return abs == w.docPath
}

// processPending runs the push once an edit has sat quiet long enough.
// Writes made by our own outbound pass are recognized by comparing against
// the engine's last rendered content and skipped.
func (w *Watcher) processPending(ctx context.Context) {
	if w.pending.IsZero() || time.Since(w.pending) < w.config.QuietPeriod {
		return
	}
	w.pending = time.Time{}

	if last := w.syncer.LastContent(); last != "" {
		current, err := w.store.Read(w.page)
		if err == nil && current == last {
			w.config.Logger.Println("Change was our own write; skipping push")
			return
		}
	}

	w.config.Logger.Println("Document changed; pushing to TickTick")
	if err := w.syncer.Push(ctx); err != nil {
		w.config.Logger.Printf("Push failed: %v", err)
	}
}
