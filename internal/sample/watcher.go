package sample

import (
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// datasetFileRe matches the per-language dataset naming scheme and captures
// the language code.
var datasetFileRe = regexp.MustCompile(`^data_([a-z]{2,8}(?:-[a-zA-Z]{2,8})?)\.csv$`)

// Watcher monitors the dataset directory for changed data_<lang>.csv files
// and reloads the corresponding table. This picks up datasets dropped in
// place out-of-band, in addition to the upload endpoint's explicit persist.
type Watcher struct {
	store *Store
	dir   string
	log   zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}

	// Debounce: coalesce rapid Create+Write events on the same file and
	// wait for the writer to finish.
	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	reloads atomic.Int64
}

// NewWatcher creates a Watcher over the store's dataset directory.
func NewWatcher(store *Store, log zerolog.Logger) *Watcher {
	return &Watcher{
		store:          store,
		dir:            store.dir,
		log:            log.With().Str("component", "watcher").Logger(),
		done:           make(chan struct{}),
		debounceTimers: make(map[string]*time.Timer),
	}
}

// Start begins watching the dataset directory.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return err
	}
	w.watcher = fw

	w.log.Info().Str("watch_dir", w.dir).Msg("dataset watcher started")
	go w.watchLoop()
	return nil
}

// Stop closes the fsnotify watcher and cancels pending debounced reloads.
func (w *Watcher) Stop() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.debounceMu.Lock()
	for path, t := range w.debounceTimers {
		t.Stop()
		delete(w.debounceTimers, path)
	}
	w.debounceMu.Unlock()
	w.log.Info().Int64("reloads", w.reloads.Load()).Msg("dataset watcher stopped")
}

// Reloads returns the number of reloads triggered by file events.
func (w *Watcher) Reloads() int64 { return w.reloads.Load() }

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			lang := languageFromPath(event.Name)
			if lang == "" {
				continue
			}
			w.scheduleReload(event.Name, lang)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// scheduleReload debounces reloads by 500ms so a file still being written
// is read once, after the writer finishes.
func (w *Watcher) scheduleReload(path, lang string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if t, ok := w.debounceTimers[path]; ok {
		t.Reset(500 * time.Millisecond)
		return
	}

	w.debounceTimers[path] = time.AfterFunc(500*time.Millisecond, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()

		if err := w.store.LoadFile(lang); err != nil {
			w.log.Warn().Err(err).Str("language", lang).Str("path", path).Msg("dataset reload failed, keeping previous table")
			return
		}
		w.reloads.Add(1)
	})
}

// languageFromPath extracts the language code from a dataset file path, or
// "" if the name doesn't match the scheme.
func languageFromPath(path string) string {
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	m := datasetFileRe.FindStringSubmatch(base)
	if m == nil {
		return ""
	}
	return m[1]
}
