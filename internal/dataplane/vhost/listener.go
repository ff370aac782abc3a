// Copyright 2026 mvirt authors.

package vhost

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/MalteJ/mvirt-sub000/internal/minilog"
)

// ErrShuttingDown is returned by Accept once Shutdown has been called.
var ErrShuttingDown = errors.New("vhost: listener shutting down")

// Listener binds one vhost-user backend socket and serves one guest
// connection at a time, rebinding after each disconnect: one worker
// thread per vNIC, bound to one listening path, accepting a single
// connection and rebinding after disconnect.
type Listener struct {
	path string
	ln   *net.UnixListener

	shuttingDown atomic.Bool
	mu           sync.Mutex
}

// Bind creates the listening socket at path, removing any stale socket
// file left behind by a previous run. Failure here is reported back to
// the caller synchronously rather than surfacing later on a goroutine.
func Bind(path string) (*Listener, error) {
	_ = os.Remove(path)

	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("resolving vhost-user socket path %q: %w", path, err)
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("binding vhost-user socket %q: %w", path, err)
	}
	return &Listener{path: path, ln: ln}, nil
}

// Accept blocks for the next guest connection and returns a Session
// ready to Serve. onKick is wired through to the returned Session.
// Returns ErrShuttingDown once Shutdown has been called: Shutdown's
// underlying close of the listening socket unblocks AcceptUnix
// immediately.
func (l *Listener) Accept(onKick KickHandler) (*Session, error) {
	conn, err := l.ln.AcceptUnix()
	if err != nil {
		if l.shuttingDown.Load() {
			return nil, ErrShuttingDown
		}
		return nil, err
	}
	return newSession(conn, onKick), nil
}

// Rebind is a no-op placeholder: net.UnixListener.AcceptUnix already
// accepts the next connection without needing to recreate the socket,
// so the caller's Accept/Serve loop IS the rebind after a disconnect.
func (l *Listener) Rebind() error { return nil }

// Shutdown closes the listening socket, unblocking any pending Accept.
func (l *Listener) Shutdown() error {
	l.shuttingDown.Store(true)
	return l.ln.Close()
}

// Path returns the socket path this listener is bound to.
func (l *Listener) Path() string { return l.path }

// Serve runs the bind/accept/rebind loop until Shutdown is called,
// calling onSession for every accepted guest connection. onSession
// should call Session.Serve and block until the guest disconnects;
// Serve then loops back to Accept.
func (l *Listener) Serve(onKick KickHandler, onSession func(*Session)) error {
	for {
		sess, err := l.Accept(onKick)
		if err != nil {
			if errors.Is(err, ErrShuttingDown) {
				return nil
			}
			return err
		}
		minilog.Debug("vhost-user: accepted connection on %s", l.path)
		onSession(sess)
	}
}
