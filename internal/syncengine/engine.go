// Package syncengine copies and deletes whole save bundles between roots.
//
// A copy is destination := dstRoot/basename(src). Without overwrite an existing
// destination fails with ErrAlreadyExists and nothing is touched. With overwrite
// the destination is removed and rebuilt from the source. The two steps are not
// atomic and nothing is locked; callers serialise operations on a destination.
package syncengine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/spf13/afero"

	"github.com/joe/repo-saves/pkg/fileops"
)

// Error kinds returned by the engine.
const (
	// ErrAlreadyExists means the destination bundle exists and overwrite was not requested.
	ErrAlreadyExists = errors.AlreadyExists
	// ErrIOFailure wraps every other failure; the cause stays in the chain.
	ErrIOFailure = errors.ConstError("save bundle I/O failure")
)

var logger = loggo.GetLogger("repo-saves.syncengine")

// Location is a path on a specific filesystem.
type Location struct {
	FS   afero.Fs
	Path string
}

// Join returns the location of elem below l.
func (l Location) Join(elem ...string) Location {
	return Location{FS: l.FS, Path: filepath.Join(append([]string{l.Path}, elem...)...)}
}

// Engine performs bundle copies and deletes.
type Engine struct {
	// Verify re-reads every copied file and compares it with its source.
	Verify bool

	emitter EventEmitter // Event emitter for activity reporting (optional)
}

// NewEngine creates an engine with no emitter.
func NewEngine() *Engine {
	return &Engine{}
}

// SetEventEmitter sets the event emitter.
// The emitter is optional - if nil, no events will be emitted.
func (e *Engine) SetEventEmitter(emitter EventEmitter) {
	e.emitter = emitter
}

// CopyBundle copies the bundle directory src into dstRoot.
func (e *Engine) CopyBundle(src, dstRoot Location, overwrite bool) error {
	name := filepath.Base(src.Path)
	dest := dstRoot.Join(name)

	if overlaps(src, dest) {
		return fmt.Errorf("%w: %s and %s overlap", ErrIOFailure, src.Path, dest.Path)
	}

	exists, err := afero.Exists(dest.FS, dest.Path)
	if err != nil {
		return ioFailure(fmt.Errorf("failed to check destination %s: %w", dest.Path, err))
	}

	if exists && !overwrite {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, dest.Path)
	}

	stats, err := fileops.ScanTree(src.FS, src.Path)
	if err != nil {
		return ioFailure(err)
	}

	err = dstRoot.FS.MkdirAll(dstRoot.Path, fileops.DefaultDirPermissions)
	if err != nil {
		return ioFailure(fmt.Errorf("failed to create %s: %w", dstRoot.Path, err))
	}

	if exists {
		logger.Debugf("removing existing %s before copy", dest.Path)

		err = fileops.RemoveTree(dest.FS, dest.Path)
		if err != nil {
			return ioFailure(err)
		}
	}

	e.emit(CopyStarted{
		Name:        name,
		Destination: dest.Path,
		Files:       stats.Files,
		Bytes:       stats.Bytes,
		Overwrite:   exists,
	})

	err = e.copyTree(src, dest)
	if err != nil {
		return ioFailure(err)
	}

	logger.Infof("copied %s to %s (%d files)", src.Path, dest.Path, stats.Files)

	e.emit(CopyComplete{
		Name:        name,
		Destination: dest.Path,
		Files:       stats.Files,
		Bytes:       stats.Bytes,
		Verified:    e.Verify,
	})

	return nil
}

// DeleteBundle removes loc and everything below it.
func (e *Engine) DeleteBundle(loc Location) error {
	e.emit(DeleteStarted{Path: loc.Path})

	err := fileops.RemoveTree(loc.FS, loc.Path)
	if err != nil {
		return ioFailure(err)
	}

	logger.Infof("deleted %s", loc.Path)
	e.emit(DeleteComplete{Path: loc.Path})

	return nil
}

func (e *Engine) copyTree(src, dest Location) error {
	ops := fileops.NewDualFileOps(src.FS, dest.FS)

	walker := fileops.Walk(src.FS, src.Path)
	for walker.Step() {
		if err := walker.Err(); err != nil { //nolint:noinlineerr // Inline error check is idiomatic for walker error handling
			return fmt.Errorf("failed to read %s: %w", walker.Path(), err)
		}

		rel, err := filepath.Rel(src.Path, walker.Path())
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", walker.Path(), err)
		}

		target := filepath.Join(dest.Path, rel)
		info := walker.Stat()

		switch {
		case info.IsDir():
			err = dest.FS.MkdirAll(target, info.Mode().Perm()|0o700)
			if err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case info.Mode().IsRegular():
			err = e.copyFile(ops, walker.Path(), target)
			if err != nil {
				return err
			}

			e.emit(FileCopied{RelativePath: rel, Size: info.Size()})
		default:
			logger.Warningf("skipping %s: not a regular file (%s)", walker.Path(), info.Mode().Type())
		}
	}

	return nil
}

func (e *Engine) copyFile(ops *fileops.FileOps, src, dst string) error {
	_, err := ops.CopyFile(src, dst, nil)
	if err != nil {
		return err //nolint:wrapcheck // fileops errors name both paths
	}

	if !e.Verify {
		return nil
	}

	same, err := ops.CompareFilesBytes(src, dst)
	if err != nil {
		return fmt.Errorf("failed to verify %s: %w", dst, err)
	}

	if !same {
		return fmt.Errorf("verification failed: %s differs from %s", dst, src)
	}

	return nil
}

func (e *Engine) emit(event Event) {
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}

func ioFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrIOFailure, err)
}

// overlaps reports whether src and dest are the same directory or one lies
// inside the other on the same filesystem.
func overlaps(src, dest Location) bool {
	if src.FS != dest.FS {
		return false
	}

	srcPath := filepath.Clean(src.Path)
	destPath := filepath.Clean(dest.Path)

	return srcPath == destPath || within(destPath, srcPath) || within(srcPath, destPath)
}

func within(path, dir string) bool {
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
