// Package filesystem maps configured directory strings onto afero filesystems.
// Plain paths resolve to the local filesystem; sftp:// URLs open an SSH session.
package filesystem

import (
	"fmt"
	"sync"

	"github.com/spf13/afero"
)

// Dialer opens a remote session. Connect is the production implementation.
type Dialer func(host string, port int, user string) (*SFTPConnection, error)

// Resolver resolves directory strings and keeps one SFTP session per endpoint
// alive until Close.
type Resolver struct {
	local afero.Fs
	dial  Dialer

	mu    sync.Mutex
	conns map[string]*SFTPConnection
}

// NewResolver creates a Resolver that serves local paths from local.
func NewResolver(local afero.Fs) *Resolver {
	return &Resolver{
		local: local,
		dial:  Connect,
		conns: make(map[string]*SFTPConnection),
	}
}

// WithDialer replaces the SSH dialer.
func (r *Resolver) WithDialer(dial Dialer) *Resolver {
	r.dial = dial
	return r
}

// Local returns the filesystem plain paths resolve to.
func (r *Resolver) Local() afero.Fs {
	return r.local
}

// Resolve returns the filesystem and the path on it for dir.
func (r *Resolver) Resolve(dir string) (afero.Fs, string, error) {
	parsed, err := ParsePath(dir)
	if err != nil {
		return nil, "", err
	}

	if !parsed.IsRemote {
		return r.local, parsed.LocalPath, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	endpoint := parsed.Endpoint()
	if conn, ok := r.conns[endpoint]; ok {
		return conn.FS(), parsed.Path, nil
	}

	conn, err := r.dial(parsed.Host, parsed.Port, parsed.User)
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	r.conns[endpoint] = conn

	return conn.FS(), parsed.Path, nil
}

// Forget closes and drops the session serving dir, if any. The next Resolve reconnects.
func (r *Resolver) Forget(dir string) {
	parsed, err := ParsePath(dir)
	if err != nil || !parsed.IsRemote {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.conns[parsed.Endpoint()]; ok {
		_ = conn.Close()
		delete(r.conns, parsed.Endpoint())
	}
}

// Close closes every open session.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error

	for endpoint, conn := range r.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}

		delete(r.conns, endpoint)
	}

	return firstErr
}
