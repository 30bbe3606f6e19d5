package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/sftp"
)

// SFTP is a storage backend on a remote host.
// Every call runs as a job that the caller waits on until it finishes or ctx is cancelled.
type SFTP struct {
	client *sftp.Client
	host   string
}

// NewSFTP wraps an established SFTP client. The client is owned by the caller.
func NewSFTP(client *sftp.Client, host string) *SFTP {
	return &SFTP{client: client, host: host}
}

func (s *SFTP) toFileInfo(p string, info os.FileInfo) *FileInfo {
	fi := &FileInfo{
		Path:    p,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
		IsDir:   info.IsDir(),
		IsFile:  info.Mode().IsRegular(),
	}
	if info.Mode()&os.ModeSymlink != 0 {
		fi.IsSymlink = true
		if target, err := s.client.ReadLink(p); err == nil {
			fi.LinkTarget = target
		}
		if targetInfo, err := s.client.Stat(p); err == nil {
			fi.IsDir = targetInfo.IsDir()
			fi.IsFile = targetInfo.Mode().IsRegular()
			fi.Size = targetInfo.Size()
			fi.ModTime = targetInfo.ModTime()
		}
	}
	return fi
}

// Lstat returns file metadata without following a final symlink
func (s *SFTP) Lstat(ctx context.Context, p string) (*FileInfo, error) {
	return runJob(ctx, "lstat", p, func() (*FileInfo, error) {
		info, err := s.client.Lstat(p)
		if err != nil {
			return nil, err
		}
		return s.toFileInfo(p, info), nil
	}, nil)
}

// ReadDir returns the entries of a remote directory
func (s *SFTP) ReadDir(ctx context.Context, p string) ([]FileInfo, error) {
	return runJob(ctx, "readdir", p, func() ([]FileInfo, error) {
		infos, err := s.client.ReadDir(p)
		if err != nil {
			return nil, err
		}
		files := make([]FileInfo, 0, len(infos))
		for _, info := range infos {
			if info.Name() == "." || info.Name() == ".." {
				continue
			}
			files = append(files, *s.toFileInfo(path.Join(p, info.Name()), info))
		}
		return files, nil
	}, nil)
}

// Open opens a remote file for reading
func (s *SFTP) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	return runJob(ctx, "open", p, func() (io.ReadCloser, error) {
		return s.client.Open(p)
	}, func(rc io.ReadCloser) { rc.Close() })
}

// Create writes to a temporary remote file that is renamed over p on Close
func (s *SFTP) Create(ctx context.Context, p string, perm fs.FileMode) (io.WriteCloser, error) {
	tmpPath := path.Join(path.Dir(p), fmt.Sprintf(".%s.%s.tmp", path.Base(p), uuid.New().String()[:8]))
	f, err := runJob(ctx, "create", p, func() (*sftp.File, error) {
		f, err := s.client.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
		if err != nil {
			return nil, err
		}
		// OpenFile doesn't accept a mode
		if err := s.client.Chmod(tmpPath, perm); err != nil {
			f.Close()
			s.client.Remove(tmpPath)
			return nil, err
		}
		return f, nil
	}, func(f *sftp.File) {
		f.Close()
		s.client.Remove(tmpPath)
	})
	if err != nil {
		return nil, err
	}
	return &sftpWriter{backend: s, file: f, tmpPath: tmpPath, path: p}, nil
}

type sftpWriter struct {
	backend *SFTP
	file    *sftp.File
	tmpPath string
	path    string
	failed  bool
}

func (w *sftpWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		w.failed = true
	}
	return n, err
}

func (w *sftpWriter) Close() error {
	client := w.backend.client
	if err := w.file.Close(); err != nil {
		client.Remove(w.tmpPath)
		return wrapError("create", w.path, err)
	}
	if w.failed {
		client.Remove(w.tmpPath)
		return nil
	}
	if err := w.backend.replace(w.tmpPath, w.path); err != nil {
		client.Remove(w.tmpPath)
		return wrapError("create", w.path, err)
	}
	return nil
}

func (w *sftpWriter) Abort() {
	w.failed = true
}

// replace renames from over to; plain SFTP rename fails when to exists
func (s *SFTP) replace(from, to string) error {
	if err := s.client.PosixRename(from, to); err == nil {
		return nil
	}
	if _, err := s.client.Lstat(to); err == nil {
		if err := s.client.Remove(to); err != nil {
			return err
		}
	}
	return s.client.Rename(from, to)
}

// Rename moves a remote file or directory
func (s *SFTP) Rename(ctx context.Context, from, to string) error {
	return runVoid(ctx, "rename", from, func() error {
		return s.client.Rename(from, to)
	})
}

// Remove deletes a remote file, link or empty directory
func (s *SFTP) Remove(ctx context.Context, p string) error {
	return runVoid(ctx, "remove", p, func() error {
		return s.client.Remove(p)
	})
}

// Mkdir creates a remote directory
func (s *SFTP) Mkdir(ctx context.Context, p string) error {
	return runVoid(ctx, "mkdir", p, func() error {
		return s.client.Mkdir(p)
	})
}

// Symlink creates a remote symbolic link
func (s *SFTP) Symlink(ctx context.Context, target, location string) error {
	return runVoid(ctx, "symlink", location, func() error {
		return s.client.Symlink(target, location)
	})
}

// Chtimes sets the remote modification time
func (s *SFTP) Chtimes(ctx context.Context, p string, modTime time.Time) error {
	return runVoid(ctx, "chtimes", p, func() error {
		return s.client.Chtimes(p, modTime, modTime)
	})
}

// RealPath resolves p to an absolute remote path
func (s *SFTP) RealPath(ctx context.Context, p string) (string, error) {
	return runJob(ctx, "realpath", p, func() (string, error) {
		return s.client.RealPath(p)
	}, nil)
}

// Join joins remote path elements with "/"
func (s *SFTP) Join(elem ...string) string {
	return path.Join(elem...)
}

// Dir returns the parent of a remote path
func (s *SFTP) Dir(p string) string {
	return path.Dir(p)
}

// IsLocal returns false
func (s *SFTP) IsLocal() bool {
	return false
}

func (s *SFTP) String() string {
	return "sftp://" + s.host
}

// Close is a no-op; the connection belongs to the Pool that created it
func (s *SFTP) Close() error {
	return nil
}
