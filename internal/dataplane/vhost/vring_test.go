// Copyright 2026 mvirt authors.

package vhost

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// newTestSession builds a Session with one mmap'd memory region backing
// a single virtqueue's descriptor table, avail ring, and used ring, at
// fixed guest-address offsets, so PopAvail/PushUsed can be exercised
// without a real guest.
func newTestSession(t *testing.T) (*Session, []byte) {
	t.Helper()

	fd, err := unix.MemfdCreate("vring-test", 0)
	require.NoError(t, err)
	const size = 1 << 16
	require.NoError(t, unix.Ftruncate(fd, size))

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	require.NoError(t, err)

	sess := &Session{closed: make(chan struct{})}
	sess.regions = []MemoryRegion{{
		GuestAddr:  0x1000,
		Size:       size,
		FD:         fd,
		MappedAddr: addrOf(data),
		MappedSize: len(data),
	}}
	return sess, data
}

func TestVirtQueuePopAvailAndPushUsed(t *testing.T) {
	sess, mem := newTestSession(t)
	defer sess.Close()

	const (
		numDescs  = 4
		descBase  = 0x1000
		availBase = descBase + numDescs*descSize
		usedBase  = availBase + 4 + 2*numDescs
		bufBase   = usedBase + 4 + 8*numDescs
	)

	sess.vrings[0] = VringState{
		Num:       numDescs,
		DescAddr:  descBase,
		AvailAddr: availBase,
		UsedAddr:  usedBase,
	}

	payload := []byte("hello from the guest")
	copy(mem[bufBase-0x1000:], payload)

	descOff := descBase - 0x1000
	leePutUint64(mem[descOff:descOff+8], bufBase)
	leePutUint32(mem[descOff+8:descOff+12], uint32(len(payload)))
	leePutUint16(mem[descOff+12:descOff+14], 0)
	leePutUint16(mem[descOff+14:descOff+16], 0)

	availOff := availBase - 0x1000
	leePutUint16(mem[availOff+4:availOff+6], 0) // ring[0] = descriptor 0
	leePutUint16(mem[availOff+2:availOff+4], 1) // idx = 1

	q := newVirtQueue(sess, 0)
	require.Equal(t, 1, q.AvailCount())

	descID, buf, ok, err := q.PopAvail()
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0, descID)
	require.Equal(t, payload, buf[:len(payload)])

	_, _, ok, err = q.PopAvail()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, q.PushUsed(descID, uint32(len(payload))))

	usedOff := usedBase - 0x1000
	require.EqualValues(t, 1, leUint16(mem[usedOff+2:usedOff+4]))
	require.EqualValues(t, 0, leUint32(mem[usedOff+4:usedOff+8]))
	require.EqualValues(t, len(payload), leUint32(mem[usedOff+8:usedOff+12]))
}

func TestVirtQueueRejectsChainedDescriptors(t *testing.T) {
	sess, mem := newTestSession(t)
	defer sess.Close()

	const (
		numDescs  = 2
		descBase  = 0x1000
		availBase = descBase + numDescs*descSize
	)
	sess.vrings[0] = VringState{Num: numDescs, DescAddr: descBase, AvailAddr: availBase}

	descOff := descBase - 0x1000
	leePutUint16(mem[descOff+12:descOff+14], descFNext)
	availOff := availBase - 0x1000
	leePutUint16(mem[availOff+2:availOff+4], 1)

	q := newVirtQueue(sess, 0)
	_, _, _, err := q.PopAvail()
	require.Error(t, err)
}
