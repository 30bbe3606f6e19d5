package storage

import (
	"context"
	"io"
	"io/fs"
	"time"
)

// FileInfo represents metadata about a file as reported by a backend
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	Mode    fs.FileMode
	// IsDir, IsFile, Size and ModTime describe the link target when IsSymlink is set
	IsDir      bool
	IsFile     bool
	IsSymlink  bool
	LinkTarget string
}

// Backend defines the filesystem primitives a FileNode is built on.
// Paths are absolute in the backend's own syntax.
// Implementations include the local filesystem and SFTP.
type Backend interface {
	// Lstat returns metadata without following a final symlink.
	// A missing path yields an error of kind NotFound.
	Lstat(ctx context.Context, path string) (*FileInfo, error)

	// ReadDir returns the entries of a directory, excluding "." and ".."
	ReadDir(ctx context.Context, path string) ([]FileInfo, error)

	// Open opens a file for reading
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Create opens a file for writing. The content replaces path atomically on Close.
	Create(ctx context.Context, path string, perm fs.FileMode) (io.WriteCloser, error)

	// Rename moves a file or directory within the backend
	Rename(ctx context.Context, from, to string) error

	// Remove deletes a file, a symlink or an empty directory
	Remove(ctx context.Context, path string) error

	// Mkdir creates a single directory
	Mkdir(ctx context.Context, path string) error

	// Symlink creates a symbolic link at location pointing to target
	Symlink(ctx context.Context, target, location string) error

	// Chtimes sets the modification time
	Chtimes(ctx context.Context, path string, modTime time.Time) error

	// Join joins path elements using the backend separator
	Join(elem ...string) string

	// Dir returns all but the last element of path
	Dir(path string) string

	// IsLocal reports whether calls are served by the local filesystem
	IsLocal() bool

	// String describes the backend for log output
	String() string

	// Close releases any resources held by the backend
	Close() error
}
