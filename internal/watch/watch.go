// Package watch re-analyzes draft files once they stop changing.
package watch

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"content_integrity/internal/ingest"
)

const (
	DefaultDebounce = 2 * time.Second
	DefaultMinChars = 100
)

// Handler receives the parsed text of a draft that has been idle for the debounce interval.
type Handler func(ctx context.Context, path, text string) error

type Options struct {
	// Debounce is how long a file must go without writes before it is analyzed.
	Debounce time.Duration
	// MinChars skips drafts with fewer characters.
	MinChars int
	// Initial analyzes every watched draft once at start.
	Initial bool
	// Tick is the polling interval of the debounce loop; derived from Debounce when zero.
	Tick time.Duration
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.MinChars < 0 {
		o.MinChars = 0
	}
	if o.Tick <= 0 {
		o.Tick = o.Debounce / 4
		if o.Tick > time.Second {
			o.Tick = time.Second
		}
		if o.Tick < 10*time.Millisecond {
			o.Tick = 10 * time.Millisecond
		}
	}
	return o
}

// Watcher tracks supported drafts in files or directories.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	paths     []string
	opts      Options
	handler   Handler
	logger    zerolog.Logger

	// path -> time of the last write seen
	pending map[string]time.Time
	// path -> hash of the text last handed to the handler
	analyzed map[string][32]byte
	// watched directories and explicitly watched files, absolute
	dirs  map[string]bool
	files map[string]bool
	mu    sync.Mutex

	wg sync.WaitGroup
}

func New(paths []string, opts Options, handler Handler, logger zerolog.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: nil handler")
	}
	if len(paths) == 0 {
		return nil, errors.New("watch: no paths")
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		paths:     paths,
		opts:      opts.withDefaults(),
		handler:   handler,
		logger:    logger,
		pending:   map[string]time.Time{},
		analyzed:  map[string][32]byte{},
		dirs:      map[string]bool{},
		files:     map[string]bool{},
	}, nil
}

// Run watches until ctx is cancelled, then closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.add(); err != nil {
		_ = w.fsWatcher.Close()
		return err
	}
	w.logger.Info().Strs("paths", w.paths).Dur("debounce", w.opts.Debounce).Msg("watching drafts")

	w.wg.Add(2)
	go w.eventLoop(ctx)
	go w.debounceLoop(ctx)
	w.wg.Wait()

	return w.fsWatcher.Close()
}

func (w *Watcher) add() error {
	for _, path := range w.paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if err := w.fsWatcher.Add(absPath); err != nil {
				return fmt.Errorf("watch %s: %w", absPath, err)
			}
			w.mu.Lock()
			w.dirs[absPath] = true
			w.mu.Unlock()
			if w.opts.Initial {
				existing, err := ingest.ListSupported(absPath)
				if err != nil {
					return err
				}
				for _, p := range existing {
					w.touch(p, time.Time{})
				}
			}
			continue
		}

		// Single files are watched through their directory so editors that
		// replace the file on save keep being seen.
		if !ingest.Supported(absPath) {
			return fmt.Errorf("%w: %s", ingest.ErrUnsupported, filepath.Ext(absPath))
		}
		if err := w.fsWatcher.Add(filepath.Dir(absPath)); err != nil {
			return fmt.Errorf("watch %s: %w", absPath, err)
		}
		w.mu.Lock()
		w.files[absPath] = true
		w.mu.Unlock()
		if w.opts.Initial {
			w.touch(absPath, time.Time{})
		}
	}
	return nil
}

func (w *Watcher) touch(path string, at time.Time) {
	w.mu.Lock()
	w.pending[path] = at
	w.mu.Unlock()
}

func (w *Watcher) wanted(path string) bool {
	if !ingest.Supported(path) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[path] || w.dirs[filepath.Dir(path)]
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.wanted(event.Name) {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil || info.IsDir() {
				continue
			}
			w.touch(event.Name, time.Now())

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.opts.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

// flush hands every draft idle since now-Debounce to the handler. Drafts that are too
// short or unchanged since their last analysis are dropped without calling it.
func (w *Watcher) flush(ctx context.Context, now time.Time) int {
	threshold := now.Add(-w.opts.Debounce)

	type idle struct {
		path    string
		lastMod time.Time
	}
	var ready []idle
	w.mu.Lock()
	for path, lastMod := range w.pending {
		if !lastMod.After(threshold) {
			ready = append(ready, idle{path: path, lastMod: lastMod})
		}
	}
	w.mu.Unlock()

	handled := 0
	for _, f := range ready {
		if ctx.Err() != nil {
			return handled
		}
		doc, err := ingest.ParseFile(f.path)

		w.mu.Lock()
		if w.pending[f.path] != f.lastMod {
			// written again while parsing; wait for it to settle
			w.mu.Unlock()
			continue
		}
		delete(w.pending, f.path)
		w.mu.Unlock()

		log := w.logger.With().Str("path", f.path).Logger()
		if err != nil {
			log.Warn().Err(err).Msg("parse draft")
			continue
		}
		if n := utf8.RuneCountInString(strings.TrimSpace(doc.Text)); n < w.opts.MinChars {
			log.Debug().Int("chars", n).Int("min_chars", w.opts.MinChars).Msg("not enough text to analyze yet")
			continue
		}
		sum := sha256.Sum256([]byte(doc.Text))
		w.mu.Lock()
		prev, seen := w.analyzed[f.path]
		w.mu.Unlock()
		if seen && prev == sum {
			log.Debug().Msg("draft unchanged")
			continue
		}

		// a failed analysis leaves the hash unrecorded so the next save retries
		if err := w.handler(ctx, f.path, doc.Text); err != nil {
			log.Error().Err(err).Msg("analyze draft")
			continue
		}
		w.mu.Lock()
		w.analyzed[f.path] = sum
		w.mu.Unlock()
		handled++
	}
	return handled
}

// Pending returns the number of drafts waiting for their debounce interval.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
