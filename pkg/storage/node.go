package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"
)

// FileNode is an immutable snapshot of one filesystem object.
// Use Stat to take a fresh snapshot; a node never changes after construction.
type FileNode struct {
	backend Backend
	path    string
	relPath string
	parent  *FileNode
	exists  bool
	info    FileInfo
}

// NewFileNode stats path on backend. A missing path yields a node with
// Exists() == false and no error.
func NewFileNode(ctx context.Context, backend Backend, path string) (*FileNode, error) {
	return statNode(ctx, backend, path, "", nil)
}

// OpenRoot returns a node for path, which must be an existing directory
func OpenRoot(ctx context.Context, backend Backend, path string) (*FileNode, error) {
	node, err := NewFileNode(ctx, backend, path)
	if err != nil {
		return nil, err
	}
	if !node.Exists() {
		return nil, &Error{Op: "open", Path: path, Kind: KindNotFound}
	}
	if !node.IsDir() {
		return nil, &Error{Op: "open", Path: path, Kind: KindOther, Err: fmt.Errorf("not a directory")}
	}
	return node, nil
}

func statNode(ctx context.Context, backend Backend, path, relPath string, parent *FileNode) (*FileNode, error) {
	node := &FileNode{backend: backend, path: path, relPath: relPath, parent: parent}

	info, err := backend.Lstat(ctx, path)
	if err != nil {
		if IsNotFound(err) {
			node.info = FileInfo{Path: path, Name: baseName(path)}
			return node, nil
		}
		return nil, err
	}

	node.exists = true
	node.info = *info
	return node, nil
}

func newListedNode(backend Backend, info FileInfo, relPath string, parent *FileNode) *FileNode {
	return &FileNode{
		backend: backend,
		path:    info.Path,
		relPath: relPath,
		parent:  parent,
		exists:  true,
		info:    info,
	}
}

func baseName(p string) string {
	p = strings.TrimRight(p, `/\`)
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Stat returns a new snapshot of the same path
func (n *FileNode) Stat(ctx context.Context) (*FileNode, error) {
	return statNode(ctx, n.backend, n.path, n.relPath, n.parent)
}

// Path returns the absolute path in the backend's syntax
func (n *FileNode) Path() string { return n.path }

// Name returns the last path element
func (n *FileNode) Name() string {
	if n.info.Name != "" {
		return n.info.Name
	}
	return baseName(n.path)
}

// RelPath returns the "/"-separated path below the scanned root ("" for the root itself)
func (n *FileNode) RelPath() string { return n.relPath }

// Parent returns the directory node this node was listed from, or nil
func (n *FileNode) Parent() *FileNode { return n.parent }

// Backend returns the backend serving this node
func (n *FileNode) Backend() Backend { return n.backend }

func (n *FileNode) Exists() bool { return n.exists }
func (n *FileNode) IsFile() bool { return n.exists && n.info.IsFile }
func (n *FileNode) IsDir() bool { return n.exists && n.info.IsDir }
func (n *FileNode) IsSymlink() bool { return n.exists && n.info.IsSymlink }
func (n *FileNode) Size() int64 { return n.info.Size }
func (n *FileNode) ModTime() time.Time { return n.info.ModTime }
func (n *FileNode) Mode() fs.FileMode { return n.info.Mode }
func (n *FileNode) LinkTarget() string { return n.info.LinkTarget }
func (n *FileNode) IsLocal() bool { return n.backend.IsLocal() }
func (n *FileNode) Hidden() bool { return strings.HasPrefix(n.Name(), ".") }
func (n *FileNode) Readable() bool { return n.exists && n.info.Mode.Perm()&0o400 != 0 }
func (n *FileNode) Writable() bool { return n.exists && n.info.Mode.Perm()&0o200 != 0 }
func (n *FileNode) Executable() bool { return n.exists && n.info.Mode.Perm()&0o100 != 0 }

// IsNormal is false for devices, pipes and sockets. Missing paths count as normal.
func (n *FileNode) IsNormal() bool {
	return !n.exists || n.info.IsFile || n.info.IsDir || n.info.IsSymlink
}

func (n *FileNode) String() string {
	if n.backend.IsLocal() {
		return n.path
	}
	return n.backend.String() + ":" + n.path
}

// Open opens the file for reading
func (n *FileNode) Open(ctx context.Context) (io.ReadCloser, error) {
	return n.backend.Open(ctx, n.path)
}

// ReadFile fills buf from the start of the file. Reading fewer bytes than
// len(buf) is a PartialTransfer error unless the file is shorter than buf
// and was read completely.
func (n *FileNode) ReadFile(ctx context.Context, buf []byte) (int, error) {
	rc, err := n.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	want := len(buf)
	if n.info.Size < int64(want) {
		want = int(n.info.Size)
	}
	if err := ReadChunk(rc, n.path, buf[:want]); err != nil {
		return 0, err
	}
	return want, nil
}

// ReadAll returns the whole file content
func (n *FileNode) ReadAll(ctx context.Context) ([]byte, error) {
	rc, err := n.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, &contextReader{ctx: ctx, r: rc}); err != nil {
		return nil, wrapError("read", n.path, err)
	}
	return buf.Bytes(), nil
}

// WriteFile replaces the file content with data
func (n *FileNode) WriteFile(ctx context.Context, data []byte) error {
	w, err := n.backend.Create(ctx, n.path, 0o644)
	if err != nil {
		return err
	}

	written, err := w.Write(data)
	if err == nil && written != len(data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		abort(w)
		w.Close()
		return wrapError("write", n.path, err)
	}
	return w.Close()
}

// ReadChunk reads exactly len(buf) bytes from r
func ReadChunk(r io.Reader, path string, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &Error{Op: "read", Path: path, Kind: KindPartialTransfer, Err: err}
	}
	return wrapError("read", path, err)
}

type aborter interface {
	Abort()
}

func abort(w io.Writer) {
	if a, ok := w.(aborter); ok {
		a.Abort()
	}
}

// contextReader fails the next Read once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
