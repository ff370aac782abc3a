// Copyright 2026 mvirt authors.

package vhost

import (
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func socketpair(t *testing.T) (*net.UnixConn, *net.UnixConn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)

	left, err := net.FileConn(os.NewFile(uintptr(fds[0]), "left"))
	require.NoError(t, err)
	right, err := net.FileConn(os.NewFile(uintptr(fds[1]), "right"))
	require.NoError(t, err)
	return left.(*net.UnixConn), right.(*net.UnixConn)
}

func sendRequest(t *testing.T, conn *net.UnixConn, req Request, payload []byte) {
	t.Helper()
	buf := make([]byte, headerSize+len(payload))
	leePutUint32(buf[0:4], uint32(req))
	leePutUint32(buf[4:8], flagVersion)
	leePutUint32(buf[8:12], uint32(len(payload)))
	copy(buf[headerSize:], payload)
	_, err := conn.Write(buf)
	require.NoError(t, err)
}

func TestSessionFeatureNegotiation(t *testing.T) {
	front, back := socketpair(t)
	defer front.Close()

	sess := newSession(back, nil)
	go sess.Serve()

	sendRequest(t, front, ReqGetFeatures, nil)
	hdr, payload, _, err := readMsg(front)
	require.NoError(t, err)
	require.Equal(t, ReqGetFeatures, hdr.Request)
	require.EqualValues(t, RequiredFeatures, leUint64(payload))

	sendRequest(t, front, ReqSetFeatures, encodeU64(RequiredFeatures))

	// SET_FEATURES has no reply; since the connection is a single
	// stream processed synchronously by one goroutine, following it
	// with a request that DOES reply guarantees SET_FEATURES was
	// already applied by the time the reply arrives.
	sendRequest(t, front, ReqGetQueueNum, nil)
	_, payload, _, err = readMsg(front)
	require.NoError(t, err)
	require.EqualValues(t, 2, leUint64(payload))

	sess.mu.Lock()
	features := sess.features
	sess.mu.Unlock()
	require.EqualValues(t, RequiredFeatures, features)

	sess.Close()
}

func encodeU64(v uint64) []byte {
	b := make([]byte, 8)
	leePutUint64(b, v)
	return b
}
