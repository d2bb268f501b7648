// Package watch reloads file-linked frames when their HTML file is saved.
package watch

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler receives the new content of a watched file.
type ChangeHandler func(path, content string)

// Watcher tracks linked files. fsnotify watches directories, so each
// directory is added once and events are filtered by file path.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange ChangeHandler

	mu    sync.RWMutex
	files map[string]int // abs path -> link count
	dirs  map[string]int
	done  chan struct{}
}

func New(onChange ChangeHandler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		onChange: onChange,
		files:    make(map[string]int),
		dirs:     make(map[string]int),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Abs normalizes a path the way the watcher keys files.
func Abs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// Watch starts watching path. Calls are counted; each needs an Unwatch.
func (w *Watcher) Watch(path string) error {
	abs, err := Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs]++
	return nil
}

func (w *Watcher) Unwatch(path string) {
	abs, err := Abs(path)
	if err != nil {
		return
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[abs] == 0 {
		return
	}
	if w.files[abs]--; w.files[abs] == 0 {
		delete(w.files, abs)
	}
	if w.dirs[dir]--; w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		w.watcher.Remove(dir)
	}
}

// Watching reports whether path has at least one link.
func (w *Watcher) Watching(path string) bool {
	abs, err := Abs(path)
	if err != nil {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.files[abs] > 0
}

func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// editors that save by rename show up as Create
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs := filepath.Clean(event.Name)
			w.mu.RLock()
			watched := w.files[abs] > 0
			w.mu.RUnlock()
			if !watched {
				continue
			}
			content, err := os.ReadFile(abs)
			if err != nil {
				log.Printf("[WATCH] read %s: %v", abs, err)
				continue
			}
			if w.onChange != nil {
				w.onChange(abs, string(content))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[WATCH] watcher error: %v", err)
		}
	}
}
