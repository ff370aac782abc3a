// Copyright 2026 mvirt authors.

package worker

import (
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/buffer"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/vhost"
	"github.com/MalteJ/mvirt-sub000/internal/minilog"
)

// ringQueue adapts a negotiated vhost.VirtQueue to the worker's
// batch-oriented TX/RX access pattern, handling the 12-byte virtio-net
// header that precedes every descriptor's Ethernet frame.
type ringQueue struct {
	vq *vhost.VirtQueue
}

func newRingQueue(sess *vhost.Session, idx int) *ringQueue {
	return &ringQueue{vq: vhost.NewVirtQueue(sess, idx)}
}

// popFrame consumes the next guest-available TX descriptor and returns
// the parsed virtio-net header plus its Ethernet frame (header bytes
// stripped from frame itself), along with a free func the caller must
// invoke exactly once to return the descriptor to the guest. The
// header carries the GSO/checksum-offload metadata the guest computed
// for this frame, which callers must carry forward rather than discard.
func (q *ringQueue) popFrame() (hdr vhost.NetHeader, frame []byte, free func(), ok bool) {
	descID, data, ok, err := q.vq.PopAvail()
	if err != nil {
		minilog.Error("ring queue: %v", err)
		return vhost.NetHeader{}, nil, nil, false
	}
	if !ok || len(data) < vhost.HdrSize {
		return vhost.NetHeader{}, nil, nil, false
	}
	hdr = vhost.ParseNetHeader(data[:vhost.HdrSize])
	frame = data[vhost.HdrSize:]
	free = func() {
		if err := q.vq.PushUsedAndSignal(descID, uint32(len(data))); err != nil {
			minilog.Error("ring queue: returning descriptor: %v", err)
		}
	}
	return hdr, frame, free, true
}

// writeBatch writes each buffer in batch (virtio header + payload)
// into successive RX descriptors and signals the guest once for the
// whole batch. Buffers are returned to pool once written or on
// failure.
func (q *ringQueue) writeBatch(batch []*buffer.Buffer, pool *buffer.Pool) {
	wrote := false
	for _, buf := range batch {
		hdr := buf.Hdr
		hdr.NumBuffers = 1
		descID, dst, ok, err := q.vq.PopAvail()
		if err != nil {
			minilog.Error("ring queue: %v", err)
			pool.Put(buf)
			continue
		}
		if !ok {
			minilog.Warn("ring queue: no RX descriptors available, dropping packet")
			pool.Put(buf)
			continue
		}
		if len(dst) < vhost.HdrSize+len(buf.Data) {
			minilog.Warn("ring queue: RX descriptor too small, dropping packet")
			pool.Put(buf)
			continue
		}
		hdr.Marshal(dst[:vhost.HdrSize])
		n := copy(dst[vhost.HdrSize:], buf.Data)
		pool.Put(buf)

		if err := q.vq.PushUsed(descID, uint32(vhost.HdrSize+n)); err != nil {
			minilog.Error("ring queue: %v", err)
			continue
		}
		wrote = true
	}
	if wrote {
		if err := q.vq.Signal(); err != nil {
			minilog.Error("ring queue: signalling guest: %v", err)
		}
	}
}
