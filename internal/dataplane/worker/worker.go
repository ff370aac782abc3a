// Copyright 2026 mvirt authors.

// Package worker implements the vNIC worker: one worker per vNIC,
// binding a vhost-user socket, handling protocol responders, and
// routing guest traffic through a per-network router.
package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/MalteJ/mvirt-sub000/internal/dataplane/buffer"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/proto"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/router"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/vhost"
	"github.com/MalteJ/mvirt-sub000/internal/minilog"
)

const (
	// rxBatchSize and rxBatchDeadline bound the RX injection thread's
	// batching, amortizing guest-notification cost.
	rxBatchSize     = 32
	rxBatchDeadline = 100 * time.Microsecond
)

// Config is everything spawning one vNIC worker needs.
type Config struct {
	NicID      string
	SocketPath string
	Identity   proto.GatewayIdentity
	Router     *router.Router
	Pool       *buffer.Pool

	// RouterRX is this NIC's dedicated inbound channel: other workers
	// (and the TUN device) deliver routed packets here for injection
	// into the guest's RX queue.
	RouterRX <-chan *buffer.Buffer

	// TunTX, when non-nil, is where TX packets with no local route are
	// forwarded for egress through the shared TUN device (public
	// networks only).
	TunTX chan<- *buffer.Buffer
}

// Handle controls a running worker: spawn/stop/join built on Go's
// goroutine+channel idiom instead of a raw thread+eventfd pair.
type Handle struct {
	cfg      Config
	listener *vhost.Listener

	// kicked wakes runTX when the guest signals the TX ring's kick
	// eventfd, so a negotiated FeatureEventIdx backend can idle instead
	// of busy-polling. Buffered 1: a pending wake is never lost, and
	// redundant kicks while one is already pending are harmless no-ops.
	kicked chan struct{}

	shutdown atomic.Bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// Spawn binds the worker's vhost-user socket and starts its
// accept/process loop in the background, returning once the socket is
// ready to accept connections; failure here is reported back to the
// caller synchronously rather than surfacing later on the goroutine.
func Spawn(cfg Config) (*Handle, error) {
	ln, err := vhost.Bind(cfg.SocketPath)
	if err != nil {
		return nil, err
	}

	h := &Handle{cfg: cfg, listener: ln, done: make(chan struct{}), kicked: make(chan struct{}, 1)}
	h.wg.Add(1)
	go h.run()
	return h, nil
}

// Stop signals the worker to exit, unblocking any pending accept, and
// waits for its goroutines to finish.
func (h *Handle) Stop() {
	h.shutdown.Store(true)
	_ = h.listener.Shutdown()
	h.wg.Wait()
}

// NicID returns the vNIC this worker serves.
func (h *Handle) NicID() string { return h.cfg.NicID }

func (h *Handle) run() {
	defer h.wg.Done()
	defer close(h.done)

	err := h.listener.Serve(h.onKick(), func(sess *vhost.Session) {
		h.serveSession(sess)
	})
	if err != nil {
		minilog.Error("vnic worker %s: %v", h.cfg.NicID, err)
	}
}

// onKick wakes runTX when the guest kicks the TX ring (index 1); RX
// kicks need no handling since the guest only kicks TX to ask the
// backend to drain descriptors it just made available.
func (h *Handle) onKick() vhost.KickHandler {
	return func(ring int) {
		if ring != 1 {
			return
		}
		select {
		case h.kicked <- struct{}{}:
		default:
		}
	}
}

// serveSession brings up RX injection and TX processing for one
// accepted guest connection, and blocks until it disconnects. When it
// returns, Listener.Serve loops back to Accept, rebinding for the next
// guest.
func (h *Handle) serveSession(sess *vhost.Session) {
	rx := newRingQueue(sess, 0)
	tx := newRingQueue(sess, 1)

	sessionDone := make(chan struct{})
	var sessionWG sync.WaitGroup

	sessionWG.Add(1)
	go func() {
		defer sessionWG.Done()
		h.runRXInjection(rx, sessionDone)
	}()

	go func() {
		_ = sess.Serve()
		close(sessionDone)
	}()

	h.runTX(rx, tx, sessionDone)
	sessionWG.Wait()
}

// runRXInjection drains h.cfg.RouterRX and writes packets into the RX
// virtqueue in batches of up to rxBatchSize or until rxBatchDeadline
// elapses, signalling the guest once per batch.
func (h *Handle) runRXInjection(rx *ringQueue, sessionDone <-chan struct{}) {
	for {
		select {
		case <-sessionDone:
			return
		case <-h.done:
			return
		case buf, ok := <-h.cfg.RouterRX:
			if !ok {
				return
			}
			batch := []*buffer.Buffer{buf}
			deadline := time.After(rxBatchDeadline)
		collect:
			for len(batch) < rxBatchSize {
				select {
				case b, ok := <-h.cfg.RouterRX:
					if !ok {
						break collect
					}
					batch = append(batch, b)
				case <-deadline:
					break collect
				case <-sessionDone:
					break collect
				}
			}
			rx.writeBatch(batch, h.cfg.Pool)
		}
	}
}

// runTX is the main worker loop: for each guest-produced TX frame, run
// the protocol responder chain, then fall back to the per-network
// router.
func (h *Handle) runTX(rx, tx *ringQueue, sessionDone <-chan struct{}) {
	for {
		select {
		case <-sessionDone:
			return
		case <-h.done:
			return
		default:
		}

		hdr, frame, free, ok := tx.popFrame()
		if !ok {
			// Wait for the guest's kick rather than busy-polling; the
			// short fallback timer covers the race where a kick lands
			// between popFrame's negative result and this select.
			select {
			case <-sessionDone:
				return
			case <-h.done:
				return
			case <-h.kicked:
			case <-time.After(time.Millisecond):
			}
			continue
		}

		if reply, handled := proto.Dispatch(h.cfg.Identity, frame); handled {
			h.injectReply(rx, reply)
			free()
			continue
		}

		h.route(hdr, frame, free)
	}
}

// injectReply writes a protocol responder's reply frame directly into
// this guest's own RX virtqueue; the inbound request frame that
// triggered it is discarded rather than forwarded anywhere else.
func (h *Handle) injectReply(rx *ringQueue, frame []byte) {
	buf := h.cfg.Pool.Get()
	if buf == nil {
		minilog.Warn("vnic %s: buffer pool exhausted, dropping protocol reply", h.cfg.NicID)
		return
	}
	buf.Data = append(buf.Data, frame...)
	rx.writeBatch([]*buffer.Buffer{buf}, h.cfg.Pool)
}

func (h *Handle) route(hdr vhost.NetHeader, frame []byte, free func()) {
	buf := h.cfg.Pool.Get()
	if buf == nil {
		minilog.Warn("vnic %s: buffer pool exhausted, dropping TX frame", h.cfg.NicID)
		free()
		return
	}
	buf.Hdr = hdr
	buf.Data = append(buf.Data, frame...)
	free()

	verdict, target := h.cfg.Router.Route(h.cfg.NicID, buf)
	switch verdict {
	case router.Routed:
		select {
		case target <- buf:
		default:
			minilog.Warn("vnic %s: target NIC RX queue full, dropping", h.cfg.NicID)
			h.cfg.Pool.Put(buf)
		}
	case router.ToInternet:
		if h.cfg.TunTX == nil {
			h.cfg.Pool.Put(buf)
			return
		}
		select {
		case h.cfg.TunTX <- buf:
		default:
			minilog.Warn("vnic %s: TUN queue full, dropping", h.cfg.NicID)
			h.cfg.Pool.Put(buf)
		}
	default:
		h.cfg.Pool.Put(buf)
	}
}
