package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/fsnotify/fsnotify"
)

// ReloadDelay gives editors time to finish writing before the file is re-read.
const ReloadDelay = 100 * time.Millisecond

// Result is one reload outcome. Exactly one of Config and Err is set.
type Result struct {
	Config *Config
	Err    error
}

// Watcher reloads the config file whenever it is written. It watches the
// directory rather than the file because editors often replace files.
type Watcher struct {
	path    string
	delay   time.Duration
	fsw     *fsnotify.Watcher
	results chan Result
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// Watch starts watching the config file under base.
func Watch(base string) (*Watcher, error) {
	return watchPath(Path(base), ReloadDelay)
}

func watchPath(path string, delay time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		delay:   delay,
		fsw:     fsw,
		results: make(chan Result, 1),
		stop:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()

	log.WithField("path", path).Debug("watching config")
	return w, nil
}

// Results delivers reloads. Only the most recent undelivered result is kept.
func (w *Watcher) Results() <-chan Result {
	return w.results
}

// Stop ends the watch goroutine. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
		if err := w.fsw.Close(); err != nil {
			log.WithError(err).Warn("error closing config watcher")
		}
		w.wg.Wait()
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}

			select {
			case <-time.After(w.delay):
			case <-w.stop:
				return
			}

			cfg, err := Read(w.path)
			if err != nil {
				w.push(Result{Err: fmt.Errorf("Failed to reload config: %w", err)})
				continue
			}
			w.push(Result{Config: cfg})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.push(Result{Err: fmt.Errorf("Watch error: %w", err)})

		case <-w.stop:
			return
		}
	}
}

// push never blocks: a pending result nobody has read yet is replaced.
func (w *Watcher) push(r Result) {
	for {
		select {
		case w.results <- r:
			return
		default:
		}
		select {
		case <-w.results:
			log.Debug("dropping unread config reload")
		default:
		}
	}
}
