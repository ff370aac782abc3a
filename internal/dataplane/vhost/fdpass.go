// Copyright 2026 mvirt authors.

package vhost

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// readMsg reads one vhost-user frame off conn: the 12-byte header, its
// payload, and any file descriptors carried as ancillary data (sent
// during SET_MEM_TABLE and SET_VRING_KICK/CALL/ERR). Grounded on
// hcsshim's ioutils.go fd-passing idiom (ReadMsgUnix + ParseUnixRights),
// adapted to vhost-user's own framing.
func readMsg(conn *net.UnixConn) (header, []byte, []int, error) {
	var hdr header
	hdrBuf := make([]byte, headerSize)
	if _, err := readFull(conn, hdrBuf); err != nil {
		return header{}, nil, nil, fmt.Errorf("reading vhost-user header: %w", err)
	}
	hdr.Request = Request(leUint32(hdrBuf[0:4]))
	hdr.Flags = leUint32(hdrBuf[4:8])
	hdr.Size = leUint32(hdrBuf[8:12])

	if hdr.Size == 0 {
		return hdr, nil, nil, nil
	}

	payload := make([]byte, hdr.Size)
	oob := make([]byte, unix.CmsgSpace(16*4))
	n, oobn, _, _, err := conn.ReadMsgUnix(payload, oob)
	if err != nil {
		return header{}, nil, nil, fmt.Errorf("reading vhost-user payload: %w", err)
	}
	payload = payload[:n]

	var fds []int
	if oobn > 0 {
		cmsgs, err := unix.ParseSocketControlMessage(oob[:oobn])
		if err != nil {
			return header{}, nil, nil, fmt.Errorf("parsing control message: %w", err)
		}
		for _, cmsg := range cmsgs {
			rights, err := unix.ParseUnixRights(&cmsg)
			if err != nil {
				continue
			}
			fds = append(fds, rights...)
		}
	}
	return hdr, payload, fds, nil
}

// writeMsg writes a reply frame back to the front-end; replies never
// carry fds in this backend's subset of the protocol.
func writeMsg(conn *net.UnixConn, req Request, payload []byte) error {
	buf := make([]byte, headerSize+len(payload))
	leePutUint32(buf[0:4], uint32(req))
	leePutUint32(buf[4:8], flagReply|flagVersion)
	leePutUint32(buf[8:12], uint32(len(payload)))
	copy(buf[headerSize:], payload)
	_, err := conn.Write(buf)
	return err
}

func readFull(conn *net.UnixConn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		if n > 0 {
			total += n
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, fmt.Errorf("unexpected EOF")
		}
	}
	return total, nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func leePutUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func leePutUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
