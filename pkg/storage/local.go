package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Local is a filesystem-based storage backend.
// Calls are synchronous; ctx is only checked before each call.
type Local struct{}

// NewLocal creates a new local filesystem backend
func NewLocal() *Local {
	return &Local{}
}

// Lstat returns file metadata without following a final symlink
func (l *Local) Lstat(ctx context.Context, path string) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapError("lstat", path, err)
	}

	info, err := os.Lstat(path)
	if err != nil {
		return nil, wrapError("lstat", path, err)
	}

	return l.toFileInfo(path, info), nil
}

// ReadDir returns the entries of a directory
func (l *Local) ReadDir(ctx context.Context, path string) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapError("readdir", path, err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, wrapError("readdir", path, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, wrapError("readdir", path, err)
		}

		childPath := filepath.Join(path, entry.Name())
		info, err := entry.Info()
		if err != nil {
			// Entry vanished between readdir and stat
			continue
		}
		files = append(files, *l.toFileInfo(childPath, info))
	}

	return files, nil
}

func (l *Local) toFileInfo(path string, info fs.FileInfo) *FileInfo {
	fi := &FileInfo{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
		IsDir:   info.IsDir(),
		IsFile:  info.Mode().IsRegular(),
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		fi.IsSymlink = true
		if target, err := os.Readlink(path); err == nil {
			fi.LinkTarget = target
		}
		// Type, size and time describe the link target; a dangling link is neither file nor dir
		if targetInfo, err := os.Stat(path); err == nil {
			fi.IsDir = targetInfo.IsDir()
			fi.IsFile = targetInfo.Mode().IsRegular()
			fi.Size = targetInfo.Size()
			fi.ModTime = targetInfo.ModTime()
		}
	}

	return fi
}

// Open opens a file for reading
func (l *Local) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapError("open", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, wrapError("open", path, err)
	}

	return file, nil
}

// Create writes to a temporary sibling that replaces path on Close
func (l *Local) Create(ctx context.Context, path string, perm fs.FileMode) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapError("create", path, err)
	}

	tmpPath := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.New().String()[:8]))
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, wrapError("create", path, err)
	}

	return &localWriter{file: file, tmpPath: tmpPath, path: path}, nil
}

type localWriter struct {
	file    *os.File
	tmpPath string
	path    string
	failed  bool
}

func (w *localWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		w.failed = true
	}
	return n, err
}

func (w *localWriter) Close() error {
	if err := w.file.Close(); err != nil {
		os.Remove(w.tmpPath)
		return wrapError("create", w.path, err)
	}
	if w.failed {
		os.Remove(w.tmpPath)
		return nil
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		return wrapError("create", w.path, err)
	}
	return nil
}

// Abort discards the temporary file without touching the destination
func (w *localWriter) Abort() {
	w.failed = true
}

// Rename moves a file or directory
func (l *Local) Rename(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return wrapError("rename", from, err)
	}
	if err := os.Rename(from, to); err != nil {
		return wrapError("rename", from, err)
	}
	return nil
}

// Remove deletes a file, symlink or empty directory
func (l *Local) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return wrapError("remove", path, err)
	}
	if err := os.Remove(path); err != nil {
		return wrapError("remove", path, err)
	}
	return nil
}

// Mkdir creates a single directory
func (l *Local) Mkdir(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return wrapError("mkdir", path, err)
	}
	if err := os.Mkdir(path, 0755); err != nil {
		return wrapError("mkdir", path, err)
	}
	return nil
}

// Symlink creates a symbolic link
func (l *Local) Symlink(ctx context.Context, target, location string) error {
	if err := ctx.Err(); err != nil {
		return wrapError("symlink", location, err)
	}
	if err := os.Symlink(target, location); err != nil {
		return wrapError("symlink", location, err)
	}
	return nil
}

// Chtimes sets the modification time
func (l *Local) Chtimes(ctx context.Context, path string, modTime time.Time) error {
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		return wrapError("chtimes", path, err)
	}
	return nil
}

// Join joins path elements with the OS separator
func (l *Local) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// Dir returns the parent directory of path
func (l *Local) Dir(path string) string {
	return filepath.Dir(path)
}

// IsLocal returns true
func (l *Local) IsLocal() bool {
	return true
}

func (l *Local) String() string {
	return "local"
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}
