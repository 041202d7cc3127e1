package fileops

import (
	"fmt"
	"os"
	"path/filepath"

	krfs "github.com/kr/fs"
	"github.com/spf13/afero"
)

// TreeStats summarises a directory tree.
type TreeStats struct {
	Files int
	Dirs  int
	Bytes int64
}

// Walk returns a kr/fs walker over root on fsys. The root itself is the first step.
func Walk(fsys afero.Fs, root string) *krfs.Walker {
	return krfs.WalkFS(root, walkFS{fsys: fsys})
}

// ScanTree counts the files, directories and bytes below root.
// The root directory itself is not counted.
func ScanTree(fsys afero.Fs, root string) (TreeStats, error) {
	var stats TreeStats

	walker := Walk(fsys, root)
	for walker.Step() {
		if err := walker.Err(); err != nil { //nolint:noinlineerr // Inline error check is idiomatic for walker error handling
			return stats, fmt.Errorf("failed to scan %s: %w", walker.Path(), err)
		}

		if walker.Path() == root {
			continue
		}

		info := walker.Stat()
		if info.IsDir() {
			stats.Dirs++
			continue
		}

		stats.Files++
		stats.Bytes += info.Size()
	}

	return stats, nil
}

// RemoveTree deletes root and everything below it, children before parents.
// Unlike afero.Fs.RemoveAll this works on filesystems whose RemoveAll is a no-op.
func RemoveTree(fsys afero.Fs, root string) error {
	var paths []string

	walker := Walk(fsys, root)
	for walker.Step() {
		if err := walker.Err(); err != nil { //nolint:noinlineerr // Inline error check is idiomatic for walker error handling
			return fmt.Errorf("failed to walk %s: %w", walker.Path(), err)
		}

		paths = append(paths, walker.Path())
	}

	for i := len(paths) - 1; i >= 0; i-- {
		err := fsys.Remove(paths[i])
		if err != nil {
			return fmt.Errorf("failed to remove %s: %w", paths[i], err)
		}
	}

	return nil
}

// walkFS adapts an afero.Fs to krfs.FileSystem.
type walkFS struct {
	fsys afero.Fs
}

func (w walkFS) Join(elem ...string) string {
	return filepath.Join(elem...)
}

func (w walkFS) Lstat(name string) (os.FileInfo, error) {
	if lstater, ok := w.fsys.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(name)
		return info, err //nolint:wrapcheck // Walker reports the path alongside the error
	}

	return w.fsys.Stat(name) //nolint:wrapcheck // Walker reports the path alongside the error
}

func (w walkFS) ReadDir(dirname string) ([]os.FileInfo, error) {
	return afero.ReadDir(w.fsys, dirname) //nolint:wrapcheck // Walker reports the path alongside the error
}
