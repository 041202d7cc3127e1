package syncengine

// Event is the interface implemented by all sync engine events.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events.
type EventEmitter interface {
	Emit(event Event)
}

// Copy events

// CopyStarted is emitted before the first file of a bundle copy is written.
type CopyStarted struct {
	Name        string
	Destination string
	Files       int
	Bytes       int64
	Overwrite   bool
}

func (CopyStarted) isEvent() {}

// FileCopied is emitted after each file of a bundle copy lands.
type FileCopied struct {
	RelativePath string
	Size         int64
}

func (FileCopied) isEvent() {}

// CopyComplete is emitted when a bundle copy finishes successfully.
type CopyComplete struct {
	Name        string
	Destination string
	Files       int
	Bytes       int64
	Verified    bool
}

func (CopyComplete) isEvent() {}

// Delete events

// DeleteStarted is emitted before a bundle is removed.
type DeleteStarted struct {
	Path string
}

func (DeleteStarted) isEvent() {}

// DeleteComplete is emitted after a bundle is removed.
type DeleteComplete struct {
	Path string
}

func (DeleteComplete) isEvent() {}
