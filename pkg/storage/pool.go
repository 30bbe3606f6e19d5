package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sync"

	"github.com/pkg/sftp"
	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/crypto/ssh"
)

type sftpConn struct {
	ssh     *ssh.Client
	client  *sftp.Client
	backend *SFTP
}

// Pool hands out backends for root locations. Roots on the same host
// share one SSH connection.
type Pool struct {
	opts  SSHOptions
	local *Local
	conns *xsync.Map[string, *sftpConn]
	dial  sync.Mutex
}

// NewPool creates a backend pool
func NewPool(opts SSHOptions) *Pool {
	return &Pool{
		opts:  opts,
		local: NewLocal(),
		conns: xsync.NewMap[string, *sftpConn](),
	}
}

// Backend returns the backend serving loc, dialing the host on first use
func (p *Pool) Backend(ctx context.Context, loc Location) (Backend, error) {
	if !loc.IsRemote() {
		return p.local, nil
	}

	key := loc.User + "@" + loc.Host
	if conn, ok := p.conns.Load(key); ok {
		return conn.backend, nil
	}

	p.dial.Lock()
	defer p.dial.Unlock()
	if conn, ok := p.conns.Load(key); ok {
		return conn.backend, nil
	}

	conn, err := runJob(ctx, "dial", loc.Host, func() (*sftpConn, error) {
		sshClient, err := DialSSH(loc.Host, loc.User, p.opts)
		if err != nil {
			return nil, err
		}
		client, err := sftp.NewClient(sshClient)
		if err != nil {
			sshClient.Close()
			return nil, &Error{Op: "sftp", Path: loc.Host, Kind: KindBackendUnavailable, Err: err}
		}
		return &sftpConn{ssh: sshClient, client: client, backend: NewSFTP(client, loc.Host)}, nil
	}, func(c *sftpConn) {
		c.client.Close()
		c.ssh.Close()
	})
	if err != nil {
		return nil, err
	}

	p.conns.Store(key, conn)
	return conn.backend, nil
}

// Open resolves a root argument into a directory node
func (p *Pool) Open(ctx context.Context, arg string) (*FileNode, error) {
	backend, rootPath, err := p.resolve(ctx, arg)
	if err != nil {
		return nil, err
	}
	return OpenRoot(ctx, backend, rootPath)
}

// OpenDest resolves a destination argument. Unlike Open the directory may
// not exist yet; it is created by the first operation writing into it.
func (p *Pool) OpenDest(ctx context.Context, arg string) (*FileNode, error) {
	backend, destPath, err := p.resolve(ctx, arg)
	if err != nil {
		return nil, err
	}
	node, err := NewFileNode(ctx, backend, destPath)
	if err != nil {
		return nil, err
	}
	if node.Exists() && !node.IsDir() {
		return nil, &Error{Op: "open", Path: destPath, Kind: KindOther, Err: fmt.Errorf("not a directory")}
	}
	return node, nil
}

func (p *Pool) resolve(ctx context.Context, arg string) (Backend, string, error) {
	loc := ParseLocation(arg)
	backend, err := p.Backend(ctx, loc)
	if err != nil {
		return nil, "", err
	}

	var resolved string
	if remote, ok := backend.(*SFTP); ok {
		resolved, err = remote.RealPath(ctx, loc.Path)
		if err != nil && IsNotFound(err) && path.IsAbs(loc.Path) {
			resolved, err = path.Clean(loc.Path), nil
		}
	} else {
		resolved, err = filepath.Abs(loc.Path)
	}
	if err != nil {
		return nil, "", &Error{Op: "open", Path: loc.Path, Kind: KindOther, Err: err}
	}
	return backend, resolved, nil
}

// Close closes every pooled connection
func (p *Pool) Close() error {
	var firstErr error
	p.conns.Range(func(key string, conn *sftpConn) bool {
		if err := conn.client.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close sftp client for %s: %w", key, err)
		}
		if err := conn.ssh.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close ssh connection for %s: %w", key, err)
		}
		p.conns.Delete(key)
		return true
	})
	return firstErr
}
