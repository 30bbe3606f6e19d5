package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/pkg/sftp"
)

// Kind classifies storage failures
type Kind int

const (
	KindOther Kind = iota
	KindNotFound
	KindPermissionDenied
	KindCancelled
	KindBackendUnavailable
	KindPartialTransfer
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindPermissionDenied:
		return "permission denied"
	case KindCancelled:
		return "cancelled"
	case KindBackendUnavailable:
		return "backend unavailable"
	case KindPartialTransfer:
		return "partial transfer"
	}
	return "error"
}

// Sentinels usable with errors.Is against any *Error
var (
	ErrNotFound           = errors.New("not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrCancelled          = errors.New("cancelled")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrPartialTransfer    = errors.New("partial transfer")
)

// Error is returned by every FileNode and Backend operation
type Error struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrPermissionDenied:
		return e.Kind == KindPermissionDenied
	case ErrCancelled:
		return e.Kind == KindCancelled
	case ErrBackendUnavailable:
		return e.Kind == KindBackendUnavailable
	case ErrPartialTransfer:
		return e.Kind == KindPartialTransfer
	}
	return false
}

// wrapError converts err into an *Error, keeping an existing classification
func wrapError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var sErr *Error
	if errors.As(err, &sErr) {
		return err
	}
	return &Error{Op: op, Path: path, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.ErrShortWrite):
		return KindPartialTransfer
	case errors.Is(err, sftp.ErrSSHFxConnectionLost), errors.Is(err, sftp.ErrSSHFxNoConnection):
		return KindBackendUnavailable
	}
	return KindOther
}

// IsNotFound reports whether err means the path does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCancelled reports whether err was caused by cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
