// Package cli runs one headless command against the controller and exits.
//
// Commands go through the same event queue as the TUI, so a restore or a
// delete still passes through its pending confirmation state.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/joe/repo-saves/internal/config"
	"github.com/joe/repo-saves/internal/controller"
	"github.com/joe/repo-saves/internal/savebundle"
	"github.com/joe/repo-saves/internal/state"
)

var logger = loggo.GetLogger("repo-saves.cli")

// Error kinds returned by Run.
const (
	// ErrControllerStopped is returned when the controller exits mid-command.
	ErrControllerStopped = errors.ConstError("controller stopped")
	// ErrNeedsConfirmation is returned when a prompt is required but not possible.
	ErrNeedsConfirmation = errors.ConstError("confirmation required: rerun with --yes")
	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.ConstError("cancelled")
)

// Sender delivers events to the controller.
type Sender interface {
	Send(event controller.Event)
}

// PromptFn asks a yes/no question.
type PromptFn func(title, description string) (bool, error)

// Params wires a Runner to a running controller.
type Params struct {
	Reader state.Reader
	Events Sender
	// Dead is closed when the controller loop has returned.
	Dead <-chan struct{}
	W    io.Writer
	// PromptFn is used when a command needs confirmation and --yes was not
	// given. Nil means prompting is impossible.
	PromptFn PromptFn
}

// Runner executes headless commands.
type Runner struct {
	params Params
}

// New creates a Runner.
func New(params Params) *Runner {
	return &Runner{params: params}
}

// Run executes the subcommand selected in cfg.
func (r *Runner) Run(cfg *config.Config) error {
	switch {
	case cfg.List != nil:
		return r.List(cfg.List.Format)
	case cfg.Backup != nil:
		return r.Backup(cfg.Backup.Name)
	case cfg.Restore != nil:
		return r.Restore(cfg.Restore.Name, cfg.Restore.Yes)
	case cfg.Delete != nil:
		return r.Delete(cfg.Delete.Name, cfg.Delete.Yes)
	default:
		return errors.NotValidf("no command")
	}
}

// List prints both directories once every queued scan has finished.
func (r *Runner) List(format config.Format) error {
	snap, err := r.do()
	if err != nil {
		return err
	}

	if snap.LastError != nil && snap.LastError.Operation == controller.OpRefresh {
		return *snap.LastError
	}

	return writeListing(r.params.W, snap, format)
}

// Backup copies the game save called name into the backup directory.
func (r *Runner) Backup(name string) error {
	_, err := r.do(controller.Backup{Name: name})
	return err
}

// Restore copies the backup called name over the game save. An existing game
// save is only replaced after confirmation.
func (r *Runner) Restore(name string, yes bool) error {
	snap, err := r.do(controller.RestoreRequest{Name: name})
	if err != nil {
		return err
	}

	if snap.ConfirmRestoreBackupName != name {
		return nil
	}

	description := fmt.Sprintf("Level: %s -> %s", levelOf(snap.GameSaveBundles, name), levelOf(snap.BackupSaveBundles, name))

	ok, err := r.confirm(yes, fmt.Sprintf("Replace game save %s with its backup?", name), description)
	if err != nil || !ok {
		_, cancelErr := r.do(controller.RestoreCancel{})

		return firstError(err, cancelErr, ErrCancelled)
	}

	_, err = r.do(controller.RestoreConfirm{Name: name})

	return err
}

// Delete removes the backup called name after confirmation.
func (r *Runner) Delete(name string, yes bool) error {
	snap, err := r.do(controller.DeleteRequest{Name: name})
	if err != nil {
		return err
	}

	if snap.ConfirmBackupDeletionName != name {
		return errors.NotFoundf("backup %q", name)
	}

	description := fmt.Sprintf("Level %s, this cannot be undone", levelOf(snap.BackupSaveBundles, name))

	ok, err := r.confirm(yes, fmt.Sprintf("Delete backup %s?", name), description)
	if err != nil || !ok {
		_, cancelErr := r.do(controller.DeleteCancel{})

		return firstError(err, cancelErr, ErrCancelled)
	}

	_, err = r.do(controller.DeleteConfirm{Name: name})

	return err
}

// do sends events and waits until the controller has handled them. It prints
// the activity they produced and returns a failure they recorded.
func (r *Runner) do(events ...controller.Event) (state.AppState, error) {
	before := r.params.Reader.Snapshot()
	started := time.Now()

	flush := controller.NewFlush()
	for _, event := range events {
		r.params.Events.Send(event)
	}

	r.params.Events.Send(flush)

	select {
	case <-flush.Done:
	case <-r.params.Dead:
		return state.AppState{}, ErrControllerStopped
	}

	after := r.params.Reader.Snapshot()

	for _, entry := range after.Activity {
		if !entry.At.Before(started) {
			fmt.Fprintln(r.params.W, entry.Message)
		}
	}

	if len(events) > 0 && newError(before.LastError, after.LastError) {
		return after, *after.LastError
	}

	return after, nil
}

func (r *Runner) confirm(yes bool, title, description string) (bool, error) {
	if yes {
		return true, nil
	}

	if r.params.PromptFn == nil {
		return false, ErrNeedsConfirmation
	}

	logger.Debugf("prompting: %s", title)

	return r.params.PromptFn(title, description)
}

// HuhPrompt asks on the terminal with a huh confirm field.
func HuhPrompt(title, description string) (bool, error) {
	var ok bool

	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		return false, errors.Annotate(err, "prompt failed")
	}

	return ok, nil
}

func newError(before, after *state.OperationError) bool {
	if after == nil {
		return false
	}

	return before == nil || *before != *after
}

func levelOf(bundles []savebundle.SaveBundle, name string) string {
	bundle, ok := savebundle.Find(bundles, name)
	if !ok {
		return "?"
	}

	return fmt.Sprintf("%d", bundle.DisplayLevel())
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
