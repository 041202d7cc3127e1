// Package controller serialises every mutation of the application state.
//
// Presentation layers send Events on a Queue and read state.Reader snapshots.
// A single goroutine, owned by a tomb, handles one event at a time to
// completion, including any filesystem work it implies.
package controller

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/worker/v4"
	"github.com/spf13/afero"
	"gopkg.in/tomb.v2"

	"github.com/joe/repo-saves/internal/savebundle"
	"github.com/joe/repo-saves/internal/settings"
	"github.com/joe/repo-saves/internal/state"
	"github.com/joe/repo-saves/internal/syncengine"
)

var logger = loggo.GetLogger("repo-saves.controller")

// Operation names recorded with failures.
const (
	OpRefresh  = "refresh"
	OpBackup   = "backup"
	OpRestore  = "restore"
	OpDelete   = "delete"
	OpSettings = "save settings"
)

// Resolver maps a configured directory onto a filesystem and a path on it.
type Resolver interface {
	Resolve(dir string) (afero.Fs, string, error)
}

// SessionCloser is implemented by resolvers that keep remote sessions open.
// The controller drops the session of a directory that is no longer configured.
type SessionCloser interface {
	Forget(dir string)
}

// SettingsWriter persists directory choices.
type SettingsWriter interface {
	Update(fn func(*settings.AppSettings)) error
}

// DirectoryWatcher follows the configured roots for changes.
type DirectoryWatcher interface {
	Watch(dirs ...string)
}

// Config defines the operation of the Controller.
type Config struct {
	Store    *state.Store
	Queue    *Queue
	Engine   *syncengine.Engine
	Resolver Resolver

	// Settings is optional. When nil, directory changes last for this run only.
	Settings SettingsWriter
	// Watcher is optional. It is pointed at the roots whenever they change.
	Watcher DirectoryWatcher
}

// Validate returns an error if config cannot drive the Controller.
func (config Config) Validate() error {
	if config.Store == nil {
		return errors.NotValidf("nil Store")
	}

	if config.Queue == nil {
		return errors.NotValidf("nil Queue")
	}

	if config.Engine == nil {
		return errors.NotValidf("nil Engine")
	}

	if config.Resolver == nil {
		return errors.NotValidf("nil Resolver")
	}

	return nil
}

// Controller consumes the queue.
type Controller struct {
	tomb   tomb.Tomb
	config Config
}

var _ worker.Worker = (*Controller)(nil)

// New starts a controller backed by config.
func New(config Config) (*Controller, error) {
	if err := config.Validate(); err != nil { //nolint:noinlineerr // Matches the worker constructor idiom
		return nil, errors.Trace(err)
	}

	c := &Controller{config: config}
	config.Engine.SetEventEmitter(activityReporter{store: config.Store})

	c.tomb.Go(c.loop)

	return c, nil
}

// Kill is part of the worker.Worker interface.
func (c *Controller) Kill() {
	c.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (c *Controller) Wait() error {
	return c.tomb.Wait() //nolint:wrapcheck // tomb returns the loop's own error
}

// Dead is closed once the loop has returned.
func (c *Controller) Dead() <-chan struct{} {
	return c.tomb.Dead()
}

func (c *Controller) loop() error {
	for {
		select {
		case <-c.tomb.Dying():
			return tomb.ErrDying
		case <-c.config.Queue.Ready():
		}

		for {
			event, ok := c.config.Queue.TryReceive()
			if !ok {
				break
			}

			if !c.handle(event) {
				logger.Infof("exit requested")
				return nil
			}
		}
	}
}

// handle processes one event and reports whether the loop should continue.
func (c *Controller) handle(event Event) bool {
	logger.Tracef("handling %T", event)

	switch ev := event.(type) {
	case UpdateSaveDirectory:
		c.updateSaveDirectory(ev.Dir)
	case UpdateBackupDirectory:
		c.updateBackupDirectory(ev.Dir)
	case Refresh:
		c.refresh()
	case Backup:
		c.backup(ev.Name)
	case RestoreRequest:
		c.restoreRequest(ev.Name)
	case RestoreConfirm:
		c.restoreConfirm(ev.Name)
	case RestoreCancel:
		if name := c.config.Store.SetPendingRestore(""); name != "" {
			c.config.Store.Log("restore of " + name + " cancelled")
		}
	case DeleteRequest:
		c.deleteRequest(ev.Name)
	case DeleteConfirm:
		c.deleteConfirm(ev.Name)
	case DeleteCancel:
		if name := c.config.Store.SetPendingDeletion(""); name != "" {
			c.config.Store.Log("deletion of " + name + " cancelled")
		}
	case Flush:
		close(ev.Done)
	case Exit:
		return false
	default:
		logger.Errorf("unknown event %T", event)
	}

	return true
}

func (c *Controller) updateSaveDirectory(dir string) {
	old, _ := c.config.Store.Directories()
	c.config.Store.SetSaveDirectory(dir)
	c.forget(old, dir)
	c.persist(func(s *settings.AppSettings) { s.SaveDirectory = dir })
	c.follow()
	c.refresh()
}

func (c *Controller) updateBackupDirectory(dir string) {
	_, old := c.config.Store.Directories()
	c.config.Store.SetBackupDirectory(dir)
	c.forget(old, dir)
	c.persist(func(s *settings.AppSettings) { s.BackupDirectory = dir })
	c.follow()
	c.refresh()
}

func (c *Controller) forget(old, current string) {
	closer, ok := c.config.Resolver.(SessionCloser)
	if !ok || old == "" || old == current {
		return
	}

	saveDir, backupDir := c.config.Store.Directories()
	if old == saveDir || old == backupDir {
		return
	}

	logger.Debugf("closing session for %s", old)
	closer.Forget(old)
}

func (c *Controller) follow() {
	if c.config.Watcher != nil {
		c.config.Watcher.Watch(c.config.Store.Directories())
	}
}

func (c *Controller) persist(fn func(*settings.AppSettings)) {
	if c.config.Settings == nil {
		return
	}

	err := c.config.Settings.Update(fn)
	if err != nil {
		c.fail(OpSettings, "", "", err)
	}
}

func (c *Controller) refresh() {
	saveDir, backupDir := c.config.Store.Directories()

	game := c.scan(saveDir)
	backups := c.scan(backupDir)

	c.config.Store.ReplaceBundles(game, backups)
	logger.Debugf("refreshed: %d game saves, %d backups", len(game), len(backups))
}

func (c *Controller) scan(dir string) []savebundle.SaveBundle {
	if dir == "" {
		return nil
	}

	fsys, path, err := c.config.Resolver.Resolve(dir)
	if err != nil {
		c.fail(OpRefresh, "", dir, err)
		return nil
	}

	return savebundle.Extract(fsys, path)
}

func (c *Controller) backup(name string) {
	saveRoot, backupRoot, err := c.roots(name)
	if err != nil {
		c.fail(OpBackup, name, "", err)
		return
	}

	src, err := c.gameBundle(saveRoot, name)
	if err != nil {
		c.fail(OpBackup, name, saveRoot.Path, err)
		return
	}

	err = c.config.Engine.CopyBundle(src, backupRoot, true)
	if err != nil {
		c.fail(OpBackup, name, backupRoot.Path, err)
		return
	}

	c.config.Store.RecordSuccess("backed up " + name)
	c.refresh()
}

func (c *Controller) restoreRequest(name string) {
	saveRoot, backupRoot, err := c.roots(name)
	if err != nil {
		c.fail(OpRestore, name, "", err)
		return
	}

	src, err := c.backupBundle(backupRoot, name)
	if err != nil {
		c.fail(OpRestore, name, backupRoot.Path, err)
		return
	}

	err = c.config.Engine.CopyBundle(src, saveRoot, false)

	switch {
	case errors.Is(err, syncengine.ErrAlreadyExists):
		previous := c.config.Store.SetPendingRestore(name)
		if previous != "" && previous != name {
			logger.Debugf("pending restore of %s replaced by %s", previous, name)
		}

		c.config.Store.Log("restore of " + name + " waits for confirmation")
	case err != nil:
		c.fail(OpRestore, name, saveRoot.Path, err)
	default:
		c.config.Store.RecordSuccess("restored " + name)
		c.refresh()
	}
}

func (c *Controller) restoreConfirm(name string) {
	pending := c.config.Store.PendingRestore()
	if pending == "" || pending != name {
		logger.Warningf("ignoring restore confirmation for %q: pending restore is %q", name, pending)
		return
	}

	defer c.refresh()
	defer c.config.Store.SetPendingRestore("")

	saveRoot, backupRoot, err := c.roots(name)
	if err != nil {
		c.fail(OpRestore, name, "", err)
		return
	}

	src, err := c.backupBundle(backupRoot, name)
	if err != nil {
		c.fail(OpRestore, name, backupRoot.Path, err)
		return
	}

	err = c.config.Engine.CopyBundle(src, saveRoot, true)
	if err != nil {
		c.fail(OpRestore, name, saveRoot.Path, err)
		return
	}

	c.config.Store.RecordSuccess("restored " + name + " over the game save")
}

func (c *Controller) deleteRequest(name string) {
	err := savebundle.ValidateName(name)
	if err != nil {
		c.fail(OpDelete, name, "", err)
		return
	}

	if _, ok := c.config.Store.Backup(name); !ok {
		_, backupDir := c.config.Store.Directories()
		c.fail(OpDelete, name, backupDir, errors.NotFoundf("backup %q", name))

		return
	}

	previous := c.config.Store.SetPendingDeletion(name)
	if previous != "" && previous != name {
		logger.Debugf("pending deletion of %s replaced by %s", previous, name)
	}

	c.config.Store.Log("deletion of " + name + " waits for confirmation")
}

func (c *Controller) deleteConfirm(name string) {
	pending := c.config.Store.PendingDeletion()
	if pending == "" || pending != name {
		logger.Warningf("ignoring delete confirmation for %q: pending deletion is %q", name, pending)
		return
	}

	defer c.refresh()
	defer c.config.Store.SetPendingDeletion("")

	_, backupRoot, err := c.roots(name)
	if err != nil {
		c.fail(OpDelete, name, "", err)
		return
	}

	target, err := c.backupBundle(backupRoot, name)
	if err != nil {
		c.fail(OpDelete, name, backupRoot.Path, err)
		return
	}

	err = c.config.Engine.DeleteBundle(target)
	if err != nil {
		c.fail(OpDelete, name, target.Path, err)
		return
	}

	c.config.Store.RecordSuccess("deleted backup " + name)
}

// roots validates name and resolves the save and backup roots.
func (c *Controller) roots(name string) (syncengine.Location, syncengine.Location, error) {
	err := savebundle.ValidateName(name)
	if err != nil {
		return syncengine.Location{}, syncengine.Location{}, err //nolint:wrapcheck // Already a savebundle error kind
	}

	saveDir, backupDir := c.config.Store.Directories()

	saveRoot, err := c.resolve("save", saveDir)
	if err != nil {
		return syncengine.Location{}, syncengine.Location{}, err
	}

	backupRoot, err := c.resolve("backup", backupDir)
	if err != nil {
		return syncengine.Location{}, syncengine.Location{}, err
	}

	return saveRoot, backupRoot, nil
}

func (c *Controller) resolve(kind, dir string) (syncengine.Location, error) {
	if dir == "" {
		return syncengine.Location{}, errors.NotValidf("empty %s directory", kind)
	}

	fsys, path, err := c.config.Resolver.Resolve(dir)
	if err != nil {
		return syncengine.Location{}, fmt.Errorf("failed to open %s directory %s: %w", kind, dir, err)
	}

	return syncengine.Location{FS: fsys, Path: path}, nil
}

func (c *Controller) fail(operation, name, path string, err error) {
	logger.Errorf("%s %s: %v", operation, name, err)
	c.config.Store.RecordError(operation, name, path, err)
}

// gameBundle locates the listed game save called name under root.
func (c *Controller) gameBundle(root syncengine.Location, name string) (syncengine.Location, error) {
	bundle, ok := c.config.Store.Game(name)
	if !ok {
		return syncengine.Location{}, errors.NotFoundf("game save %q", name)
	}

	return syncengine.Location{FS: root.FS, Path: bundle.Location}, nil
}

// backupBundle locates the listed backup called name under root.
func (c *Controller) backupBundle(root syncengine.Location, name string) (syncengine.Location, error) {
	bundle, ok := c.config.Store.Backup(name)
	if !ok {
		return syncengine.Location{}, errors.NotFoundf("backup %q", name)
	}

	return syncengine.Location{FS: root.FS, Path: bundle.Location}, nil
}

// activityReporter turns engine events into activity log lines.
type activityReporter struct {
	store *state.Store
}

func (r activityReporter) Emit(event syncengine.Event) {
	switch ev := event.(type) {
	case syncengine.CopyStarted:
		verb := "copying"
		if ev.Overwrite {
			verb = "replacing"
		}

		r.store.Log(fmt.Sprintf("%s %s (%d files, %s)", verb, ev.Name, ev.Files, humanize.Bytes(uint64(ev.Bytes)))) //nolint:gosec // Sizes are never negative
	case syncengine.FileCopied:
		r.store.Log(fmt.Sprintf("  %s (%s)", ev.RelativePath, humanize.Bytes(uint64(ev.Size)))) //nolint:gosec // Sizes are never negative
	case syncengine.CopyComplete:
		if ev.Verified {
			r.store.Log("verified " + ev.Destination)
		}
	case syncengine.DeleteStarted:
		r.store.Log("removing " + ev.Path)
	case syncengine.DeleteComplete:
	}
}
