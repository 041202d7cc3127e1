package controller_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/juju/errors"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
	"github.com/spf13/afero"
	"go.uber.org/goleak"

	"github.com/joe/repo-saves/internal/controller"
	"github.com/joe/repo-saves/internal/savebundle"
	"github.com/joe/repo-saves/internal/settings"
	"github.com/joe/repo-saves/internal/state"
	"github.com/joe/repo-saves/internal/syncengine"
	"github.com/joe/repo-saves/pkg/es3/es3test"
	"github.com/joe/repo-saves/pkg/filesystem"
)

const (
	saveRoot   = "/game/saves"
	backupRoot = "/backups"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memResolver struct {
	fsys afero.Fs
}

func (r memResolver) Resolve(dir string) (afero.Fs, string, error) {
	return r.fsys, dir, nil
}

var _ controller.SessionCloser = (*filesystem.Resolver)(nil)

type forgettingResolver struct {
	memResolver

	mu        sync.Mutex
	forgotten []string
}

func (r *forgettingResolver) Forget(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.forgotten = append(r.forgotten, dir)
}

type brokenResolver struct{}

func (brokenResolver) Resolve(dir string) (afero.Fs, string, error) {
	return nil, "", errors.New("host unreachable")
}

type recordingSettings struct {
	mu      sync.Mutex
	current settings.AppSettings
	writes  int
}

func (s *recordingSettings) Update(fn func(*settings.AppSettings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.current)
	s.writes++

	return nil
}

type harness struct {
	t     *testing.T
	g     *WithT
	fsys  afero.Fs
	store *state.Store
	queue *controller.Queue
	ctl   *controller.Controller
}

func start(t *testing.T, cfg controller.Config) *harness {
	t.Helper()
	g := NewWithT(t)

	h := &harness{
		t:     t,
		g:     g,
		fsys:  afero.NewMemMapFs(),
		store: state.NewStore(saveRoot, backupRoot),
		queue: controller.NewQueue(),
	}

	cfg.Store = h.store
	cfg.Queue = h.queue
	cfg.Engine = syncengine.NewEngine()

	if cfg.Resolver == nil {
		cfg.Resolver = memResolver{fsys: h.fsys}
	}

	ctl, err := controller.New(cfg)
	g.Expect(err).ShouldNot(HaveOccurred())

	h.ctl = ctl

	t.Cleanup(func() {
		ctl.Kill()
		g.Expect(ctl.Wait()).To(Succeed())
	})

	return h
}

func (h *harness) write(root, name string, level int) {
	_, err := es3test.WriteBundle(h.fsys, root, name, es3test.Save{
		Level:   level,
		Players: map[string]string{"76561198000000002": "Bob", "76561198000000001": "Alice"},
	})
	h.g.Expect(err).ShouldNot(HaveOccurred())
}

// do sends events and waits until all of them are handled.
func (h *harness) do(events ...controller.Event) state.AppState {
	for _, event := range events {
		h.queue.Send(event)
	}

	flush := controller.NewFlush()
	h.queue.Send(flush)

	select {
	case <-flush.Done:
	case <-time.After(5 * time.Second):
		h.t.Fatal("controller did not drain the queue")
	}

	return h.store.Snapshot()
}

func level(g *WithT, bundles []savebundle.SaveBundle, name string) int {
	bundle, ok := savebundle.Find(bundles, name)
	g.Expect(ok).To(BeTrue(), "bundle %s not found", name)

	return bundle.Level
}

func TestRefresh_LoadsBothRoots(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{})

	h.write(saveRoot, "SAVE_A", 3)
	h.write(backupRoot, "SAVE_B", 7)

	st := h.do(controller.Refresh{})

	h.g.Expect(st.GameSaveBundles).To(HaveLen(1))
	h.g.Expect(st.GameSaveBundles[0].Name).To(Equal("SAVE_A"))
	h.g.Expect(st.GameSaveBundles[0].DisplayLevel()).To(Equal(4))
	h.g.Expect(st.GameSaveBundles[0].Players).To(Equal([]string{"Alice", "Bob"}))
	h.g.Expect(st.BackupSaveBundles).To(HaveLen(1))
	h.g.Expect(level(h.g, st.BackupSaveBundles, "SAVE_B")).To(Equal(7))
}

func TestRestore_RequestThenConfirmReplacesGameSave(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{})

	h.write(saveRoot, "SAVE_A", 1)
	h.write(backupRoot, "SAVE_A", 5)

	st := h.do(controller.Refresh{})
	h.g.Expect(st.ConfirmRestoreBackupName).To(BeEmpty())

	st = h.do(controller.RestoreRequest{Name: "SAVE_A"})
	h.g.Expect(st.ConfirmRestoreBackupName).To(Equal("SAVE_A"))
	h.g.Expect(level(h.g, st.GameSaveBundles, "SAVE_A")).To(Equal(1))

	st = h.do(controller.RestoreConfirm{Name: "SAVE_A"})
	h.g.Expect(st.ConfirmRestoreBackupName).To(BeEmpty())
	h.g.Expect(st.LastError).To(BeNil())
	h.g.Expect(level(h.g, st.GameSaveBundles, "SAVE_A")).To(Equal(5))
}

func TestRestore_NoGameSaveCompletesImmediately(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{})

	h.write(backupRoot, "SAVE_B", 2)

	st := h.do(controller.Refresh{}, controller.RestoreRequest{Name: "SAVE_B"})

	h.g.Expect(st.ConfirmRestoreBackupName).To(BeEmpty())
	h.g.Expect(level(h.g, st.GameSaveBundles, "SAVE_B")).To(Equal(2))
}

func TestRestore_CancelLeavesGameSave(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{})

	h.write(saveRoot, "SAVE_A", 1)
	h.write(backupRoot, "SAVE_A", 5)

	st := h.do(controller.Refresh{}, controller.RestoreRequest{Name: "SAVE_A"}, controller.RestoreCancel{})

	h.g.Expect(st.ConfirmRestoreBackupName).To(BeEmpty())
	h.g.Expect(level(h.g, st.GameSaveBundles, "SAVE_A")).To(Equal(1))
}

func TestRestore_MismatchedConfirmIsIgnored(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{})

	h.write(saveRoot, "SAVE_A", 1)
	h.write(backupRoot, "SAVE_A", 5)
	h.write(saveRoot, "SAVE_B", 1)
	h.write(backupRoot, "SAVE_B", 9)

	st := h.do(controller.Refresh{}, controller.RestoreRequest{Name: "SAVE_A"}, controller.RestoreConfirm{Name: "SAVE_B"})

	h.g.Expect(st.ConfirmRestoreBackupName).To(Equal("SAVE_A"))
	h.g.Expect(level(h.g, st.GameSaveBundles, "SAVE_A")).To(Equal(1))
	h.g.Expect(level(h.g, st.GameSaveBundles, "SAVE_B")).To(Equal(1))
}

func TestRestore_SecondRequestReplacesPending(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{})

	for _, name := range []string{"SAVE_A", "SAVE_B"} {
		h.write(saveRoot, name, 1)
		h.write(backupRoot, name, 2)
	}

	st := h.do(controller.Refresh{}, controller.RestoreRequest{Name: "SAVE_A"}, controller.RestoreRequest{Name: "SAVE_B"})

	h.g.Expect(st.ConfirmRestoreBackupName).To(Equal("SAVE_B"))
}

func TestBackup_IsIdempotent(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{})

	h.write(saveRoot, "SAVE_A", 3)

	first := h.do(controller.Refresh{}, controller.Backup{Name: "SAVE_A"})
	h.g.Expect(first.BackupSaveBundles).To(HaveLen(1))

	saveFile := filepath.Join(backupRoot, "SAVE_A", "SAVE_A.es3")
	before, err := afero.ReadFile(h.fsys, saveFile)
	h.g.Expect(err).ShouldNot(HaveOccurred())

	second := h.do(controller.Backup{Name: "SAVE_A"})
	h.g.Expect(second.BackupSaveBundles).To(HaveLen(1))
	h.g.Expect(second.LastError).To(BeNil())

	after, err := afero.ReadFile(h.fsys, saveFile)
	h.g.Expect(err).ShouldNot(HaveOccurred())
	h.g.Expect(after).To(Equal(before))
}

func TestBackup_MissingSaveRecordsErrorAndKeepsRunning(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{})

	st := h.do(controller.Refresh{}, controller.Backup{Name: "NOPE"})
	h.g.Expect(st.LastError).ToNot(BeNil())
	h.g.Expect(st.LastError.Operation).To(Equal(controller.OpBackup))
	h.g.Expect(st.LastError.Name).To(Equal("NOPE"))
	h.g.Expect(st.LastError.Message).To(ContainSubstring("not found"))

	h.write(saveRoot, "SAVE_A", 0)

	st = h.do(controller.Refresh{}, controller.Backup{Name: "SAVE_A"})
	h.g.Expect(st.LastError).To(BeNil())
	h.g.Expect(st.BackupSaveBundles).To(HaveLen(1))
}

func TestBackup_InvalidNameIsRejected(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{})

	st := h.do(controller.Backup{Name: "../escape"})

	h.g.Expect(st.LastError).ToNot(BeNil())
	h.g.Expect(st.LastError.Message).To(ContainSubstring(savebundle.ErrInvalidName.Error()))
}

func TestUnlistedNamesAreRefused(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{})

	h.write(backupRoot, "SAVE_B", 3)
	h.write(saveRoot, "SAVE_C", 1)

	photos := filepath.Join(backupRoot, "photos")
	h.g.Expect(h.fsys.MkdirAll(photos, 0o755)).To(Succeed())
	h.g.Expect(h.fsys.MkdirAll(filepath.Join(saveRoot, "notes"), 0o755)).To(Succeed())
	h.g.Expect(afero.WriteFile(h.fsys, filepath.Join(photos, "cat.jpg"), []byte("meow"), 0o644)).To(Succeed())
	h.g.Expect(h.fsys.MkdirAll(filepath.Join(backupRoot, "junk"), 0o755)).To(Succeed())
	h.g.Expect(afero.WriteFile(h.fsys, filepath.Join(saveRoot, "notes", "todo.txt"), []byte("x"), 0o644)).To(Succeed())

	st := h.do(controller.Refresh{})
	h.g.Expect(st.BackupSaveBundles).To(HaveLen(1))
	h.g.Expect(st.GameSaveBundles).To(HaveLen(1))

	tests := []struct {
		name  string
		event controller.Event
		op    string
	}{
		{"delete a plain directory", controller.DeleteRequest{Name: "photos"}, controller.OpDelete},
		{"restore an empty directory", controller.RestoreRequest{Name: "junk"}, controller.OpRestore},
		{"back up a directory without a save", controller.Backup{Name: "notes"}, controller.OpBackup},
		{"restore a game save that has no backup", controller.RestoreRequest{Name: "SAVE_C"}, controller.OpRestore},
	}

	for _, tt := range tests {
		st := h.do(tt.event)
		h.g.Expect(st.LastError).ToNot(BeNil(), tt.name)
		h.g.Expect(st.LastError.Operation).To(Equal(tt.op), tt.name)
		h.g.Expect(st.LastError.Message).To(ContainSubstring("not found"), tt.name)
		h.g.Expect(st.ConfirmBackupDeletionName).To(BeEmpty(), tt.name)
		h.g.Expect(st.ConfirmRestoreBackupName).To(BeEmpty(), tt.name)
	}

	st = h.do(controller.DeleteConfirm{Name: "photos"})
	h.g.Expect(st.BackupSaveBundles).To(HaveLen(1))

	for _, dir := range []string{photos, filepath.Join(backupRoot, "junk"), filepath.Join(saveRoot, "SAVE_C")} {
		exists, err := afero.DirExists(h.fsys, dir)
		h.g.Expect(err).ShouldNot(HaveOccurred())
		h.g.Expect(exists).To(BeTrue(), dir)
	}

	for _, dir := range []string{filepath.Join(saveRoot, "junk"), filepath.Join(backupRoot, "notes")} {
		exists, err := afero.DirExists(h.fsys, dir)
		h.g.Expect(err).ShouldNot(HaveOccurred())
		h.g.Expect(exists).To(BeFalse(), dir)
	}
}

func TestDelete_RequestConfirm(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{})

	h.write(backupRoot, "SAVE_A", 3)

	st := h.do(controller.Refresh{}, controller.DeleteRequest{Name: "SAVE_A"})
	h.g.Expect(st.ConfirmBackupDeletionName).To(Equal("SAVE_A"))
	h.g.Expect(st.BackupSaveBundles).To(HaveLen(1))

	st = h.do(controller.DeleteConfirm{Name: "SAVE_A"})
	h.g.Expect(st.ConfirmBackupDeletionName).To(BeEmpty())
	h.g.Expect(st.BackupSaveBundles).To(BeEmpty())

	exists, err := afero.DirExists(h.fsys, filepath.Join(backupRoot, "SAVE_A"))
	h.g.Expect(err).ShouldNot(HaveOccurred())
	h.g.Expect(exists).To(BeFalse())
}

func TestDelete_CancelKeepsBackup(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{})

	h.write(backupRoot, "SAVE_A", 3)

	st := h.do(controller.Refresh{}, controller.DeleteRequest{Name: "SAVE_A"}, controller.DeleteCancel{}, controller.DeleteConfirm{Name: "SAVE_A"})

	h.g.Expect(st.ConfirmBackupDeletionName).To(BeEmpty())
	h.g.Expect(st.BackupSaveBundles).To(HaveLen(1))
}

func TestRefresh_DropsPendingForVanishedBackup(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{})

	h.write(backupRoot, "SAVE_A", 3)

	st := h.do(controller.Refresh{}, controller.DeleteRequest{Name: "SAVE_A"})
	h.g.Expect(st.ConfirmBackupDeletionName).To(Equal("SAVE_A"))

	h.g.Expect(h.fsys.RemoveAll(filepath.Join(backupRoot, "SAVE_A"))).To(Succeed())

	st = h.do(controller.Refresh{})
	h.g.Expect(st.ConfirmBackupDeletionName).To(BeEmpty())
}

func TestUpdateDirectories_PersistsAndRescans(t *testing.T) {
	t.Parallel()

	persisted := &recordingSettings{}
	h := start(t, controller.Config{Settings: persisted})

	h.write("/elsewhere", "SAVE_Z", 4)

	st := h.do(controller.UpdateSaveDirectory{Dir: "/elsewhere"}, controller.UpdateBackupDirectory{Dir: "/other-backups"})

	h.g.Expect(st.SaveDirectory).To(Equal("/elsewhere"))
	h.g.Expect(st.BackupDirectory).To(Equal("/other-backups"))
	h.g.Expect(level(h.g, st.GameSaveBundles, "SAVE_Z")).To(Equal(4))

	persisted.mu.Lock()
	defer persisted.mu.Unlock()
	h.g.Expect(persisted.current).To(Equal(settings.AppSettings{SaveDirectory: "/elsewhere", BackupDirectory: "/other-backups"}))
	h.g.Expect(persisted.writes).To(Equal(2))
}

func TestUpdateDirectories_ClosesUnusedSessions(t *testing.T) {
	t.Parallel()

	resolver := &forgettingResolver{memResolver: memResolver{fsys: afero.NewMemMapFs()}}
	h := start(t, controller.Config{Resolver: resolver})

	h.do(
		controller.UpdateBackupDirectory{Dir: "sftp://joe@nas/backups"},
		controller.UpdateBackupDirectory{Dir: "sftp://joe@nas/backups"},
		controller.UpdateBackupDirectory{Dir: saveRoot},
		controller.UpdateSaveDirectory{Dir: "/elsewhere"},
	)

	resolver.mu.Lock()
	defer resolver.mu.Unlock()

	h.g.Expect(resolver.forgotten).To(Equal([]string{backupRoot, "sftp://joe@nas/backups"}),
		"the old save root is still the backup root, so it stays open")
}

func TestRefresh_ResolveFailureRecordsError(t *testing.T) {
	t.Parallel()
	h := start(t, controller.Config{Resolver: brokenResolver{}})

	st := h.do(controller.Refresh{})

	h.g.Expect(st.LastError).ToNot(BeNil())
	h.g.Expect(st.LastError.Operation).To(Equal(controller.OpRefresh))
	h.g.Expect(st.GameSaveBundles).To(BeEmpty())
}

func TestExit_StopsLoop(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	queue := controller.NewQueue()
	ctl, err := controller.New(controller.Config{
		Store:    state.NewStore("", ""),
		Queue:    queue,
		Engine:   syncengine.NewEngine(),
		Resolver: memResolver{fsys: afero.NewMemMapFs()},
	})
	g.Expect(err).ShouldNot(HaveOccurred())

	queue.Send(controller.Exit{})
	queue.Send(controller.Refresh{})

	g.Eventually(ctl.Dead()).Should(BeClosed())
	g.Expect(ctl.Wait()).To(Succeed())
	g.Expect(queue.Len()).To(Equal(1))
}

func TestNew_ValidatesConfig(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := controller.New(controller.Config{})

	g.Expect(errors.Is(err, errors.NotValid)).To(BeTrue())
}
