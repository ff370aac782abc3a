// Copyright 2026 mvirt authors.

package vhost

import "fmt"

const (
	descFNext  uint16 = 1
	descFWrite uint16 = 2
)

const descSize = 16 // addr(8) len(4) flags(2) next(2)

// VirtQueue is a translated view of one negotiated split virtqueue
// (descriptor table + avail ring + used ring) living in guest memory.
// Simplification: descriptor chains are not followed — every buffer is
// assumed to fit in a single descriptor, which holds for the dataplane
// arena's fixed-size per-packet slots. Chained scatter/gather
// descriptors are rejected rather than silently mishandled.
type VirtQueue struct {
	sess *Session
	idx  int

	lastAvail uint16
	usedIdx   uint16
}

func newVirtQueue(sess *Session, idx int) *VirtQueue {
	return &VirtQueue{sess: sess, idx: idx}
}

// NewVirtQueue returns a VirtQueue view of ring idx (0 = RX, 1 = TX) of
// a negotiated Session, for use by the worker package's TX/RX loops.
func NewVirtQueue(sess *Session, idx int) *VirtQueue {
	return newVirtQueue(sess, idx)
}

func (q *VirtQueue) state() VringState {
	q.sess.mu.Lock()
	defer q.sess.mu.Unlock()
	return q.sess.vrings[q.idx]
}

// AvailCount returns how many descriptors the guest has made available
// since the last PopAvail, without consuming them.
func (q *VirtQueue) AvailCount() int {
	st := q.state()
	if st.Num == 0 {
		return 0
	}
	availBuf := q.sess.translate(st.AvailAddr, 4)
	if availBuf == nil {
		return 0
	}
	idx := leUint16(availBuf[2:4])
	return int(idx - q.lastAvail)
}

// PopAvail consumes the next available descriptor and returns the guest
// buffer it points at. ok is false when the ring is empty.
func (q *VirtQueue) PopAvail() (descID uint16, buf []byte, ok bool, err error) {
	st := q.state()
	if st.Num == 0 {
		return 0, nil, false, nil
	}

	availBuf := q.sess.translate(st.AvailAddr, int(4+2*st.Num))
	if availBuf == nil {
		return 0, nil, false, fmt.Errorf("avail ring not mapped")
	}
	availIdx := leUint16(availBuf[2:4])
	if q.lastAvail == availIdx {
		return 0, nil, false, nil
	}

	ringOff := 4 + 2*(int(q.lastAvail)%int(st.Num))
	head := leUint16(availBuf[ringOff : ringOff+2])
	q.lastAvail++

	descTable := q.sess.translate(st.DescAddr, int(st.Num)*descSize)
	if descTable == nil {
		return 0, nil, false, fmt.Errorf("descriptor table not mapped")
	}
	off := int(head) * descSize
	addr := leUint64(descTable[off : off+8])
	length := leUint32(descTable[off+8 : off+12])
	flags := leUint16(descTable[off+12 : off+14])
	if flags&descFNext != 0 {
		return 0, nil, false, fmt.Errorf("chained descriptors are not supported")
	}

	data := q.sess.translate(addr, int(length))
	if data == nil {
		return 0, nil, false, fmt.Errorf("descriptor buffer not mapped")
	}
	return head, data, true, nil
}

// PushUsed marks descID as used with writtenLen bytes and advances the
// used ring. It does not signal the guest — callers that write several
// descriptors in a batch should call Signal once afterward to amortize
// the eventfd write; PushUsedAndSignal is the single-descriptor
// convenience form.
func (q *VirtQueue) PushUsed(descID uint16, writtenLen uint32) error {
	st := q.state()
	usedBuf := q.sess.translate(st.UsedAddr, int(4+8*st.Num))
	if usedBuf == nil {
		return fmt.Errorf("used ring not mapped")
	}

	ringOff := 4 + 8*(int(q.usedIdx)%int(st.Num))
	leePutUint32(usedBuf[ringOff:ringOff+4], uint32(descID))
	leePutUint32(usedBuf[ringOff+4:ringOff+8], writtenLen)
	q.usedIdx++
	leePutUint16(usedBuf[2:4], q.usedIdx)
	return nil
}

// PushUsedAndSignal is PushUsed followed by an immediate Signal, for
// callers pushing one descriptor at a time.
func (q *VirtQueue) PushUsedAndSignal(descID uint16, writtenLen uint32) error {
	if err := q.PushUsed(descID, writtenLen); err != nil {
		return err
	}
	return q.Signal()
}

// Signal notifies the guest via this ring's call eventfd that new used
// entries are available.
func (q *VirtQueue) Signal() error {
	return q.sess.SignalGuest(q.idx)
}

func leUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func leePutUint16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
