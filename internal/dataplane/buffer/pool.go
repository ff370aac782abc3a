// Copyright 2026 mvirt authors.

// Package buffer implements the dataplane's zero-copy packet arena:
// fixed-size slots with headroom for an Ethernet header and a
// virtio-net header, pooled so hot-path forwarding never calls into
// the allocator.
package buffer

import (
	"sync"

	"github.com/MalteJ/mvirt-sub000/internal/dataplane/vhost"
)

const (
	// EthHeadroom is the 14-byte Ethernet-header preamble, reserved so
	// the router can prepend a rewritten Ethernet header in place.
	EthHeadroom = 14

	// VirtioHdrSize is the 12-byte virtio-net header preamble, reserved
	// ahead of the Ethernet headroom. The TUN egress path does not
	// prepend into it (it writes the header over the tail of the
	// Ethernet header), and RX injection writes the header straight
	// into the guest descriptor.
	VirtioHdrSize = 12

	// Headroom is the combined preamble every Buffer reserves before
	// its payload area: virtio header outermost, then the Ethernet
	// header, then the payload.
	Headroom = VirtioHdrSize + EthHeadroom

	// payloadCapacity comfortably covers a max-size Ethernet frame plus
	// GSO-coalesced TCP segments (up to 64KiB superframes).
	payloadCapacity = 65536
)

// Buffer is one pool slot. raw is the fixed backing array; start is the
// raw-array offset of Data's first byte. Prepend grows Data backward by
// decreasing start, exposing headroom bytes with no copy. Hdr carries
// the packet's virtio-net header (GSO type/size, checksum offsets,
// num_buffers) alongside Data so it survives a buffer's whole trip
// through the arena instead of being parsed and dropped at ingress.
type Buffer struct {
	raw   [Headroom + payloadCapacity]byte
	start int
	Data  []byte
	Hdr   vhost.NetHeader
}

func newBuffer() *Buffer {
	b := &Buffer{}
	b.Reset()
	return b
}

// Reset clears Data to empty, positioned after the full headroom, ready
// for a new packet to be written or appended.
func (b *Buffer) Reset() {
	b.start = Headroom
	b.Data = b.raw[Headroom:Headroom]
	b.Hdr = vhost.NetHeader{}
}

// Prepend grows Data backward by n bytes into the reserved headroom and
// returns the newly exposed prefix for the caller to fill in. Panics if
// n exceeds the headroom still available, which would indicate a caller
// prepending more header layers than the arena reserves for.
func (b *Buffer) Prepend(n int) []byte {
	if n > b.start {
		panic("buffer: prepend exceeds remaining headroom")
	}
	b.start -= n
	b.Data = b.raw[b.start : b.start+n+len(b.Data)]
	return b.Data[:n]
}

// Pool is a fixed-capacity, goroutine-safe free list of Buffers.
// Allocation is non-blocking: Get returns nil when the pool is
// exhausted rather than growing or blocking.
type Pool struct {
	mu   sync.Mutex
	free []*Buffer
}

// NewPool preallocates size Buffers.
func NewPool(size int) *Pool {
	p := &Pool{free: make([]*Buffer, 0, size)}
	for i := 0; i < size; i++ {
		p.free = append(p.free, newBuffer())
	}
	return p
}

// Get returns a ready-to-use Buffer, or nil if the pool is exhausted.
func (p *Pool) Get() *Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.free)
	if n == 0 {
		return nil
	}
	b := p.free[n-1]
	p.free = p.free[:n-1]
	b.Reset()
	return b
}

// Put returns b to the pool.
func (p *Pool) Put(b *Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, b)
}

// Available reports the number of free buffers, for metrics/logging.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
