package controller

// Event is the interface implemented by all controller events.
type Event interface {
	isEvent()
}

// Directory events

// UpdateSaveDirectory points the controller at a new game save root.
type UpdateSaveDirectory struct {
	Dir string
}

func (UpdateSaveDirectory) isEvent() {}

// UpdateBackupDirectory points the controller at a new backup root.
type UpdateBackupDirectory struct {
	Dir string
}

func (UpdateBackupDirectory) isEvent() {}

// Refresh rescans both roots.
type Refresh struct{}

func (Refresh) isEvent() {}

// Bundle events

// Backup copies the game save bundle Name into the backup root, replacing
// any backup of the same name.
type Backup struct {
	Name string
}

func (Backup) isEvent() {}

// RestoreRequest starts restoring the backup Name. If a game save of that
// name exists the restore waits for RestoreConfirm.
type RestoreRequest struct {
	Name string
}

func (RestoreRequest) isEvent() {}

// RestoreConfirm overwrites the game save with the pending backup Name.
type RestoreConfirm struct {
	Name string
}

func (RestoreConfirm) isEvent() {}

// RestoreCancel drops the pending restore.
type RestoreCancel struct{}

func (RestoreCancel) isEvent() {}

// DeleteRequest asks for confirmation before deleting the backup Name.
type DeleteRequest struct {
	Name string
}

func (DeleteRequest) isEvent() {}

// DeleteConfirm deletes the pending backup Name.
type DeleteConfirm struct {
	Name string
}

func (DeleteConfirm) isEvent() {}

// DeleteCancel drops the pending deletion.
type DeleteCancel struct{}

func (DeleteCancel) isEvent() {}

// Lifecycle events

// Exit stops the loop. Events queued behind it are never processed.
type Exit struct{}

func (Exit) isEvent() {}

// Flush closes Done once every event sent before it has been handled.
type Flush struct {
	Done chan struct{}
}

func (Flush) isEvent() {}

// NewFlush returns a Flush with a fresh Done channel.
func NewFlush() Flush {
	return Flush{Done: make(chan struct{})}
}
