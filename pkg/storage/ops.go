package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const copyBufferSize = 256 * 1024

// CopyTo copies the content of file n to dest, keeping modification time and permissions.
// The destination is replaced atomically; on failure it is left untouched.
func (n *FileNode) CopyTo(ctx context.Context, dest *FileNode, limiter *Limiter) error {
	if !n.IsFile() {
		return &Error{Op: "copy", Path: n.path, Kind: KindOther, Err: errors.New("not a regular file")}
	}

	src, err := n.Open(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	perm := n.info.Mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	w, err := dest.backend.Create(ctx, dest.path, perm)
	if err != nil {
		return err
	}

	reader := ThrottleReader(ctx, &contextReader{ctx: ctx, r: src}, limiter)
	written, err := io.CopyBuffer(w, reader, make([]byte, copyBufferSize))
	if err == nil && written != n.info.Size {
		err = &Error{Op: "copy", Path: n.path, Kind: KindPartialTransfer,
			Err: fmt.Errorf("copied %d of %d bytes", written, n.info.Size)}
	}
	if err != nil {
		abort(w)
		w.Close()
		return wrapError("copy", n.path, err)
	}
	if err := w.Close(); err != nil {
		return err
	}

	return dest.backend.Chtimes(ctx, dest.path, n.info.ModTime)
}

// RenameTo moves n to dest. Both must be on the same backend.
func (n *FileNode) RenameTo(ctx context.Context, dest *FileNode) error {
	if n.backend != dest.backend {
		return &Error{Op: "rename", Path: n.path, Kind: KindOther,
			Err: fmt.Errorf("cannot rename across backends (%s -> %s)", n.backend, dest.backend)}
	}
	return n.backend.Rename(ctx, n.path, dest.path)
}

// Remove deletes the file, link or empty directory at n
func (n *FileNode) Remove(ctx context.Context) error {
	return n.backend.Remove(ctx, n.path)
}

// MakeDir creates a directory at n's path. The parent must exist.
func (n *FileNode) MakeDir(ctx context.Context) error {
	return n.backend.Mkdir(ctx, n.path)
}

// Symlink creates a link at n's path pointing to target
func (n *FileNode) Symlink(ctx context.Context, target string) error {
	return n.backend.Symlink(ctx, target, n.path)
}

// CreateBackup renames an existing n to n+ext, removing an older backup first.
// Nothing happens when n does not exist.
func (n *FileNode) CreateBackup(ctx context.Context, ext string) error {
	current, err := n.Stat(ctx)
	if err != nil {
		return err
	}
	if !current.Exists() {
		return nil
	}

	backup, err := NewFileNode(ctx, n.backend, n.path+ext)
	if err != nil {
		return err
	}
	if backup.Exists() {
		if err := backup.Remove(ctx); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backup.path, err)
		}
	}

	if err := current.RenameTo(ctx, backup); err != nil {
		return fmt.Errorf("failed to create backup %s: %w", backup.path, err)
	}
	return nil
}
