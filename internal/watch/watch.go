// Package watch turns filesystem changes under the save and backup roots into
// refresh notifications. A burst of changes produces one notification once
// the roots have been quiet for the debounce interval.
package watch

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/worker/v4"
	"github.com/spf13/afero"
	"gopkg.in/tomb.v2"

	"github.com/joe/repo-saves/pkg/filesystem"
)

// DefaultDebounce is the quiet period before a notification.
const DefaultDebounce = 500 * time.Millisecond

var logger = loggo.GetLogger("repo-saves.watch")

// Source delivers raw change events. NewSource wraps fsnotify.
type Source interface {
	Events() <-chan fsnotify.Event
	Errors() <-chan error
	Add(path string) error
	Remove(path string) error
	Close() error
}

// Config defines the operation of the Watcher.
type Config struct {
	// Source defaults to NewSource.
	Source Source
	// FS lists bundle directories below each root. Defaults to the OS filesystem.
	FS       afero.Fs
	Clock    clock.Clock
	Debounce time.Duration
	// Notify is called on the watcher goroutine after each burst.
	Notify func()
}

// Validate returns an error if config cannot drive the Watcher.
func (config Config) Validate() error {
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}

	if config.Notify == nil {
		return errors.NotValidf("nil Notify")
	}

	if config.Debounce <= 0 {
		return errors.NotValidf("non-positive Debounce")
	}

	return nil
}

type watchRequest struct {
	dirs []string
	done chan struct{}
}

// Watcher watches a set of local roots and their immediate subdirectories.
type Watcher struct {
	tomb     tomb.Tomb
	config   Config
	requests chan watchRequest
	watched  map[string]bool
}

var _ worker.Worker = (*Watcher)(nil)

// New starts a watcher with nothing watched. Call Watch to pick the roots.
func New(config Config) (*Watcher, error) {
	if err := config.Validate(); err != nil { //nolint:noinlineerr // Matches the worker constructor idiom
		return nil, errors.Trace(err)
	}

	if config.FS == nil {
		config.FS = afero.NewOsFs()
	}

	if config.Source == nil {
		source, err := NewSource()
		if err != nil {
			return nil, errors.Trace(err)
		}

		config.Source = source
	}

	w := &Watcher{
		config:   config,
		requests: make(chan watchRequest),
		watched:  make(map[string]bool),
	}
	w.tomb.Go(w.loop)

	return w, nil
}

// Kill is part of the worker.Worker interface.
func (w *Watcher) Kill() {
	w.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Watcher) Wait() error {
	return w.tomb.Wait() //nolint:wrapcheck // tomb returns the loop's own error
}

// Watch replaces the watched roots. Empty entries and sftp:// URLs are
// ignored. It returns once every change event received before the call has
// been handled.
func (w *Watcher) Watch(dirs ...string) {
	req := watchRequest{dirs: dirs, done: make(chan struct{})}

	select {
	case w.requests <- req:
		<-req.done
	case <-w.tomb.Dying():
	}
}

func (w *Watcher) loop() error {
	defer func() {
		err := w.config.Source.Close()
		if err != nil {
			logger.Warningf("failed to close change source: %v", err)
		}
	}()

	var (
		timer clock.Timer
		fire  <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.tomb.Dying():
			return tomb.ErrDying
		case req := <-w.requests:
			w.apply(req.dirs)
			close(req.done)
		case event, ok := <-w.config.Source.Events():
			if !ok {
				return errors.New("change source closed")
			}

			if !w.relevant(event) {
				continue
			}

			if timer == nil {
				timer = w.config.Clock.NewTimer(w.config.Debounce)
			} else {
				timer.Reset(w.config.Debounce)
			}

			fire = timer.Chan()
		case err, ok := <-w.config.Source.Errors():
			if !ok {
				return errors.New("change source closed")
			}

			logger.Warningf("watch error: %v", err)
		case <-fire:
			fire = nil

			logger.Debugf("changes settled, notifying")
			w.config.Notify()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	logger.Tracef("change: %s", event)

	if event.Has(fsnotify.Create) && w.watched[filepath.Dir(event.Name)] {
		// A new bundle directory directly below a root.
		if isDir, _ := afero.IsDir(w.config.FS, event.Name); isDir {
			w.add(event.Name)
		}
	}

	return true
}

func (w *Watcher) apply(dirs []string) {
	wanted := make(map[string]bool)

	for _, dir := range dirs {
		if dir == "" || filesystem.IsSFTPURL(dir) {
			continue
		}

		root := filepath.Clean(dir)
		wanted[root] = true

		entries, err := afero.ReadDir(w.config.FS, root)
		if err != nil {
			logger.Debugf("cannot list %s: %v", root, err)
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				wanted[filepath.Join(root, entry.Name())] = true
			}
		}
	}

	for path := range w.watched {
		if !wanted[path] {
			err := w.config.Source.Remove(path)
			if err != nil {
				logger.Debugf("failed to unwatch %s: %v", path, err)
			}

			delete(w.watched, path)
		}
	}

	for path := range wanted {
		if !w.watched[path] {
			w.add(path)
		}
	}
}

func (w *Watcher) add(path string) {
	err := w.config.Source.Add(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warningf("cannot watch %s: %v", path, err)
		}

		return
	}

	w.watched[path] = true
}

type fsnotifySource struct {
	watcher *fsnotify.Watcher
}

// NewSource returns an fsnotify-backed Source.
func NewSource() (Source, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Annotate(err, "failed to create file watcher")
	}

	return fsnotifySource{watcher: watcher}, nil
}

func (s fsnotifySource) Events() <-chan fsnotify.Event { return s.watcher.Events }
func (s fsnotifySource) Errors() <-chan error          { return s.watcher.Errors }
func (s fsnotifySource) Add(path string) error         { return s.watcher.Add(path) }    //nolint:wrapcheck // Logged by the caller
func (s fsnotifySource) Remove(path string) error      { return s.watcher.Remove(path) } //nolint:wrapcheck // Logged by the caller
func (s fsnotifySource) Close() error                  { return s.watcher.Close() }      //nolint:wrapcheck // Logged by the caller
