package watch_test

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/clock/testclock"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
	"github.com/spf13/afero"
	"go.uber.org/goleak"

	"github.com/joe/repo-saves/internal/watch"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	events chan fsnotify.Event
	errors chan error

	mu      sync.Mutex
	watched map[string]bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		events:  make(chan fsnotify.Event),
		errors:  make(chan error),
		watched: map[string]bool{},
	}
}

func (s *fakeSource) Events() <-chan fsnotify.Event { return s.events }
func (s *fakeSource) Errors() <-chan error          { return s.errors }
func (s *fakeSource) Close() error                  { return nil }

func (s *fakeSource) Add(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watched[path] = true

	return nil
}

func (s *fakeSource) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.watched, path)

	return nil
}

func (s *fakeSource) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.watched))
	for path := range s.watched {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	return paths
}

type fixture struct {
	g       *WithT
	fsys    afero.Fs
	source  *fakeSource
	clock   *testclock.Clock
	notes   *atomic.Int32
	watcher *watch.Watcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g := NewWithT(t)

	f := &fixture{
		g:      g,
		fsys:   afero.NewMemMapFs(),
		source: newFakeSource(),
		clock:  testclock.NewClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
		notes:  &atomic.Int32{},
	}

	w, err := watch.New(watch.Config{
		Source:   f.source,
		FS:       f.fsys,
		Clock:    f.clock,
		Debounce: watch.DefaultDebounce,
		Notify:   func() { f.notes.Add(1) },
	})
	g.Expect(err).ShouldNot(HaveOccurred())

	f.watcher = w

	t.Cleanup(func() {
		w.Kill()
		g.Expect(w.Wait()).To(Succeed())
	})

	return f
}

func TestWatch_AddsRootsAndBundles(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.g.Expect(f.fsys.MkdirAll("/saves/SAVE_A", 0o750)).To(Succeed())
	f.g.Expect(f.fsys.MkdirAll("/backups", 0o750)).To(Succeed())
	f.g.Expect(afero.WriteFile(f.fsys, "/saves/notes.txt", []byte("x"), 0o600)).To(Succeed())

	f.watcher.Watch("/saves", "/backups", "sftp://nas/backups", "")

	f.g.Expect(f.source.paths()).To(Equal([]string{"/backups", "/saves", "/saves/SAVE_A"}))

	f.watcher.Watch("/backups")

	f.g.Expect(f.source.paths()).To(Equal([]string{"/backups"}))
}

func TestWatch_BurstNotifiesOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.g.Expect(f.fsys.MkdirAll("/saves", 0o750)).To(Succeed())
	f.watcher.Watch("/saves")

	for range 3 {
		f.source.events <- fsnotify.Event{Name: "/saves/SAVE_A/SAVE_A.es3", Op: fsnotify.Write}
	}

	// Watch is handled after the events, so the timer has its final deadline.
	f.watcher.Watch("/saves")

	f.g.Expect(f.clock.WaitAdvance(watch.DefaultDebounce, time.Second, 1)).To(Succeed())
	f.g.Eventually(f.notes.Load).Should(Equal(int32(1)))
	f.g.Consistently(f.notes.Load, 50*time.Millisecond).Should(Equal(int32(1)))
}

func TestWatch_QuietPeriodRestartsOnNewChange(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.source.events <- fsnotify.Event{Name: "/saves/a", Op: fsnotify.Create}
	f.watcher.Watch()

	f.g.Expect(f.clock.WaitAdvance(400*time.Millisecond, time.Second, 1)).To(Succeed())

	f.source.events <- fsnotify.Event{Name: "/saves/b", Op: fsnotify.Remove}
	f.watcher.Watch()

	f.g.Expect(f.clock.WaitAdvance(400*time.Millisecond, time.Second, 1)).To(Succeed())
	f.g.Consistently(f.notes.Load, 50*time.Millisecond).Should(BeZero())

	f.g.Expect(f.clock.WaitAdvance(100*time.Millisecond, time.Second, 1)).To(Succeed())
	f.g.Eventually(f.notes.Load).Should(Equal(int32(1)))
}

func TestWatch_IgnoresChmod(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.source.events <- fsnotify.Event{Name: "/saves/a", Op: fsnotify.Chmod}
	f.watcher.Watch()

	f.clock.Advance(time.Second)
	f.g.Consistently(f.notes.Load, 50*time.Millisecond).Should(BeZero())
}

func TestWatch_NewBundleDirectoryIsWatched(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.g.Expect(f.fsys.MkdirAll("/saves", 0o750)).To(Succeed())
	f.watcher.Watch("/saves")

	f.g.Expect(f.fsys.MkdirAll("/saves/SAVE_NEW", 0o750)).To(Succeed())
	f.source.events <- fsnotify.Event{Name: "/saves/SAVE_NEW", Op: fsnotify.Create}
	f.watcher.Watch("/saves")

	f.g.Expect(f.source.paths()).To(ContainElement("/saves/SAVE_NEW"))
}

func TestNew_ValidatesConfig(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := watch.New(watch.Config{})
	g.Expect(err).Should(HaveOccurred())
}
