// Package state holds the process-wide application state.
//
// The controller owns a *Store and is its only writer. Everything else reads
// through the Reader interface, which hands out deep copies.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/mohae/deepcopy"

	"github.com/joe/repo-saves/internal/savebundle"
)

// MaxActivity bounds the activity log.
const MaxActivity = 50

// AppState is the shared application state.
type AppState struct {
	SaveDirectory   string
	BackupDirectory string

	GameSaveBundles   []savebundle.SaveBundle
	BackupSaveBundles []savebundle.SaveBundle

	// ConfirmRestoreBackupName names a backup whose restore waits for
	// confirmation. Empty means none.
	ConfirmRestoreBackupName string
	// ConfirmBackupDeletionName names a backup whose deletion waits for
	// confirmation. Empty means none.
	ConfirmBackupDeletionName string

	// LastError is the most recent operation failure, cleared by the next success.
	LastError *OperationError

	Activity []ActivityEntry

	// Revision increases on every mutation.
	Revision uint64
}

// OperationError records a failed operation for display.
type OperationError struct {
	Operation string
	Name      string
	Path      string
	Message   string
	At        time.Time
}

func (e OperationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
	}

	return fmt.Sprintf("%s %s failed: %s", e.Operation, e.Name, e.Message)
}

// ActivityEntry is one line of the activity log.
type ActivityEntry struct {
	At      time.Time
	Message string
}

// Reader gives read-only access to the state.
type Reader interface {
	Snapshot() AppState
}

// Store guards an AppState with a mutex.
type Store struct {
	mu    sync.Mutex
	state AppState
	now   func() time.Time
}

// NewStore creates a store for the given directories.
func NewStore(saveDir, backupDir string) *Store {
	return &Store{
		state: AppState{
			SaveDirectory:   saveDir,
			BackupDirectory: backupDir,
		},
		now: time.Now,
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, _ := deepcopy.Copy(s.state).(AppState)

	return snapshot
}

// Update runs fn on the state under the lock. fn must not do I/O.
func (s *Store) Update(fn func(*AppState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)
	s.state.Revision++
}

// SetSaveDirectory replaces the save directory.
func (s *Store) SetSaveDirectory(dir string) {
	s.Update(func(st *AppState) {
		st.SaveDirectory = dir
	})
}

// SetBackupDirectory replaces the backup directory.
func (s *Store) SetBackupDirectory(dir string) {
	s.Update(func(st *AppState) {
		st.BackupDirectory = dir
	})
}

// Directories returns the save and backup directories.
func (s *Store) Directories() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.SaveDirectory, s.state.BackupDirectory
}

// ReplaceBundles installs fresh scan results. Pending confirmations whose
// backup no longer exists are dropped.
func (s *Store) ReplaceBundles(game, backups []savebundle.SaveBundle) {
	s.Update(func(st *AppState) {
		st.GameSaveBundles = game
		st.BackupSaveBundles = backups

		if _, ok := savebundle.Find(backups, st.ConfirmRestoreBackupName); !ok {
			st.ConfirmRestoreBackupName = ""
		}

		if _, ok := savebundle.Find(backups, st.ConfirmBackupDeletionName); !ok {
			st.ConfirmBackupDeletionName = ""
		}
	})
}

// Backup returns the backup bundle called name from the last scan.
func (s *Store) Backup(name string) (savebundle.SaveBundle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return savebundle.Find(s.state.BackupSaveBundles, name)
}

// Game returns the game save bundle called name from the last scan.
func (s *Store) Game(name string) (savebundle.SaveBundle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return savebundle.Find(s.state.GameSaveBundles, name)
}

// SetPendingRestore sets or clears (name == "") the pending restore.
// It returns the name it replaced.
func (s *Store) SetPendingRestore(name string) string {
	var previous string

	s.Update(func(st *AppState) {
		previous = st.ConfirmRestoreBackupName
		st.ConfirmRestoreBackupName = name
	})

	return previous
}

// SetPendingDeletion sets or clears (name == "") the pending deletion.
// It returns the name it replaced.
func (s *Store) SetPendingDeletion(name string) string {
	var previous string

	s.Update(func(st *AppState) {
		previous = st.ConfirmBackupDeletionName
		st.ConfirmBackupDeletionName = name
	})

	return previous
}

// PendingRestore returns the pending restore name.
func (s *Store) PendingRestore() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.ConfirmRestoreBackupName
}

// PendingDeletion returns the pending deletion name.
func (s *Store) PendingDeletion() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.ConfirmBackupDeletionName
}

// RecordError stores a failed operation and logs it to the activity log.
func (s *Store) RecordError(operation, name, path string, err error) {
	s.Update(func(st *AppState) {
		opErr := &OperationError{
			Operation: operation,
			Name:      name,
			Path:      path,
			Message:   err.Error(),
			At:        s.now(),
		}
		st.LastError = opErr
		appendActivity(st, opErr.At, opErr.Error())
	})
}

// RecordSuccess clears LastError and logs message.
func (s *Store) RecordSuccess(message string) {
	s.Update(func(st *AppState) {
		st.LastError = nil
		appendActivity(st, s.now(), message)
	})
}

// Log appends message to the activity log without touching LastError.
func (s *Store) Log(message string) {
	s.Update(func(st *AppState) {
		appendActivity(st, s.now(), message)
	})
}

func appendActivity(st *AppState, at time.Time, message string) {
	st.Activity = append(st.Activity, ActivityEntry{At: at, Message: message})
	if len(st.Activity) > MaxActivity {
		st.Activity = append([]ActivityEntry(nil), st.Activity[len(st.Activity)-MaxActivity:]...)
	}
}
