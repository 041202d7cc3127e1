// Package fileops provides file operation utilities for copying, comparing and
// removing files on afero filesystems.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Exported constants.
const (
	// BufferSize is the size of the buffer used for file copy operations (32KB)
	BufferSize = 32 * 1024
	// DefaultDirPermissions is the default permission mode for created directories
	DefaultDirPermissions = 0o750
)

// ProgressCallback is called during file operations to report progress
type ProgressCallback func(bytesTransferred int64, totalBytes int64, currentFile string)

// FileOps performs file operations between a source and a destination filesystem.
// Both may be the same afero.Fs.
type FileOps struct {
	SourceFS afero.Fs
	DestFS   afero.Fs
}

// NewFileOps creates a FileOps that reads and writes on fsys.
func NewFileOps(fsys afero.Fs) *FileOps {
	return &FileOps{SourceFS: fsys, DestFS: fsys}
}

// NewDualFileOps creates a FileOps for cross-filesystem operations (e.g., local to SFTP).
func NewDualFileOps(sourceFS, destFS afero.Fs) *FileOps {
	return &FileOps{SourceFS: sourceFS, DestFS: destFS}
}

// CopyFile copies src on the source filesystem to dst on the destination
// filesystem, creating parent directories and preserving the modification time.
func (fo *FileOps) CopyFile(src, dst string, progress ProgressCallback) (int64, error) {
	sourceFile, err := fo.SourceFS.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file %s: %w", src, err)
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	dstDir := filepath.Dir(dst)

	err = fo.DestFS.MkdirAll(dstDir, DefaultDirPermissions)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination directory %s: %w", dstDir, err)
	}

	destFile, err := fo.DestFS.OpenFile(dst, createFlags, sourceInfo.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	written, err := copyLoop(sourceFile, destFile, sourceInfo.Size(), src, progress)
	if err != nil {
		_ = destFile.Close()
		return written, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	// Close before Chtimes; remote filesystems apply times on the closed file.
	err = destFile.Close()
	if err != nil {
		return written, fmt.Errorf("failed to close destination file %s: %w", dst, err)
	}

	err = fo.DestFS.Chtimes(dst, sourceInfo.ModTime(), sourceInfo.ModTime())
	if err != nil {
		return written, fmt.Errorf("failed to preserve modification time for %s: %w", dst, err)
	}

	return written, nil
}

// CompareFilesBytes reports whether src on the source filesystem and dst on the
// destination filesystem hold identical bytes.
func (fo *FileOps) CompareFilesBytes(src, dst string) (bool, error) {
	file1, err := fo.SourceFS.Open(src)
	if err != nil {
		return false, fmt.Errorf("failed to open file %s: %w", src, err)
	}

	defer func() {
		_ = file1.Close()
	}()

	file2, err := fo.DestFS.Open(dst)
	if err != nil {
		return false, fmt.Errorf("failed to open file %s: %w", dst, err)
	}

	defer func() {
		_ = file2.Close()
	}()

	info1, err := file1.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat file %s: %w", src, err)
	}

	info2, err := file2.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat file %s: %w", dst, err)
	}

	if info1.Size() != info2.Size() {
		return false, nil
	}

	identical, err := compareContents(file1, file2)
	if err != nil {
		return false, fmt.Errorf("failed to compare %s and %s: %w", src, dst, err)
	}

	return identical, nil
}

// unexported constants.
const (
	createFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
)

// compareContents performs byte-by-byte comparison of two readers.
func compareContents(file1, file2 io.Reader) (bool, error) {
	buf1 := make([]byte, BufferSize)
	buf2 := make([]byte, BufferSize)

	for {
		n1, err1 := io.ReadFull(file1, buf1) //nolint:varnamelen // n1/n2 are idiomatic for bytes read
		n2, err2 := io.ReadFull(file2, buf2) //nolint:varnamelen // n1/n2 are idiomatic for bytes read

		err := checkReadErrors(err1, err2)
		if err != nil {
			return false, fmt.Errorf("failed to read file for comparison: %w", err)
		}

		if n1 != n2 {
			return false, nil
		}

		for i := range n1 {
			if buf1[i] != buf2[i] {
				return false, nil
			}
		}

		if isEnd(err1) && isEnd(err2) {
			return true, nil
		}
	}
}

// checkReadErrors checks for read errors (excluding EOF).
func checkReadErrors(err1, err2 error) error {
	if err1 != nil && !isEnd(err1) {
		return err1
	}

	if err2 != nil && !isEnd(err2) {
		return err2
	}

	return nil
}

func isEnd(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// copyLoop performs a basic file copy with progress tracking.
func copyLoop(sourceFile io.Reader, destFile io.Writer, sourceSize int64, srcPath string, progress ProgressCallback) (int64, error) {
	var written int64

	buf := make([]byte, BufferSize)

	for {
		nr, err := sourceFile.Read(buf) //nolint:varnamelen // nr is idiomatic for bytes read
		if nr > 0 {
			nw, err := destFile.Write(buf[0:nr]) //nolint:varnamelen // nw is idiomatic for bytes written
			if err != nil {
				return written, fmt.Errorf("failed to write to destination: %w", err)
			}

			if nr != nw {
				return written, fmt.Errorf("short write: %w", io.ErrShortWrite)
			}

			written += int64(nw)

			if progress != nil {
				progress(written, sourceSize, srcPath)
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return written, fmt.Errorf("failed to read from source: %w", err)
		}
	}

	return written, nil
}
