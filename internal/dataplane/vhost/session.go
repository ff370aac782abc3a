// Copyright 2026 mvirt authors.

package vhost

import (
	"fmt"
	"net"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/MalteJ/mvirt-sub000/internal/minilog"
)

// KickHandler is invoked whenever the guest signals ring (0 = RX, 1 =
// TX) via its kick eventfd, i.e. whenever new descriptors are available.
type KickHandler func(ring int)

// Session is one negotiated vhost-user connection: everything a vNIC
// worker needs to read/write virtqueues after SET_MEM_TABLE and
// SET_VRING_* have completed — a connection plus negotiated session
// state guarded by a mutex, rather than QEMU's own libvhost-user.
type Session struct {
	conn *net.UnixConn

	mu       sync.Mutex
	features uint64
	protoFts uint64
	regions  []MemoryRegion
	vrings   [2]VringState // 0 = RX, 1 = TX

	onKick KickHandler

	closeOnce sync.Once
	closed    chan struct{}
}

func newSession(conn *net.UnixConn, onKick KickHandler) *Session {
	return &Session{conn: conn, onKick: onKick, closed: make(chan struct{})}
}

// Serve processes vhost-user requests until the connection is closed or
// a fatal protocol error occurs. Grounded on qmp.go's read-dispatch-loop
// style (internal/qmp/qmp.go), adapted to vhost-user's request/reply
// framing instead of QMP's JSON line protocol.
func (s *Session) Serve() error {
	defer s.Close()
	for {
		hdr, payload, fds, err := readMsg(s.conn)
		if err != nil {
			return err
		}
		if err := s.handle(hdr, payload, fds); err != nil {
			minilog.Error("vhost-user: handling %v: %v", hdr.Request, err)
			return err
		}
	}
}

func (s *Session) handle(hdr header, payload []byte, fds []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch hdr.Request {
	case ReqGetFeatures:
		reply := make([]byte, 8)
		leePutUint64(reply, RequiredFeatures)
		return writeMsg(s.conn, hdr.Request, reply)

	case ReqSetFeatures:
		if len(payload) < 8 {
			return fmt.Errorf("SET_FEATURES: short payload")
		}
		s.features = leUint64(payload)
		return nil

	case ReqGetProtocolFeature:
		reply := make([]byte, 8)
		leePutUint64(reply, ProtocolFeatureMQ)
		return writeMsg(s.conn, hdr.Request, reply)

	case ReqSetProtocolFeature:
		if len(payload) < 8 {
			return fmt.Errorf("SET_PROTOCOL_FEATURES: short payload")
		}
		s.protoFts = leUint64(payload)
		return nil

	case ReqSetOwner, ReqResetOwner:
		return nil

	case ReqGetQueueNum:
		reply := make([]byte, 8)
		leePutUint64(reply, 2)
		return writeMsg(s.conn, hdr.Request, reply)

	case ReqSetMemTable:
		return s.setMemTable(payload, fds)

	case ReqSetVringNum:
		idx, n, err := parseVringIndexed32(payload)
		if err != nil {
			return err
		}
		s.vrings[idx].Num = n
		return nil

	case ReqSetVringAddr:
		return s.setVringAddr(payload)

	case ReqSetVringBase:
		idx, n, err := parseVringIndexed32(payload)
		if err != nil {
			return err
		}
		s.vrings[idx].Base = n
		return nil

	case ReqGetVringBase:
		idx, err := parseVringIndex(payload)
		if err != nil {
			return err
		}
		reply := make([]byte, 8)
		leePutUint32(reply[0:4], uint32(idx))
		leePutUint32(reply[4:8], s.vrings[idx].Base)
		return writeMsg(s.conn, hdr.Request, reply)

	case ReqSetVringKick:
		return s.setVringFD(payload, fds, func(v *VringState, fd int) { v.KickFD = fd }, true)

	case ReqSetVringCall:
		return s.setVringFD(payload, fds, func(v *VringState, fd int) { v.CallFD = fd }, true)

	case ReqSetVringErr:
		return s.setVringFD(payload, fds, func(v *VringState, fd int) { v.ErrFD = fd }, false)

	case ReqSetVringEnable:
		idx, n, err := parseVringIndexed32(payload)
		if err != nil {
			return err
		}
		s.vrings[idx].Enabled = n != 0
		if s.vrings[idx].Enabled && s.vrings[idx].KickFD != 0 {
			s.watchKick(idx)
		}
		return nil

	default:
		minilog.Debug("vhost-user: ignoring unsupported request %d", hdr.Request)
		return nil
	}
}

func parseVringIndex(payload []byte) (int, error) {
	if len(payload) < 8 {
		return 0, fmt.Errorf("short vring-indexed payload")
	}
	idx := int(leUint64(payload) & 0xff)
	if idx != 0 && idx != 1 {
		return 0, fmt.Errorf("unsupported vring index %d", idx)
	}
	return idx, nil
}

func parseVringIndexed32(payload []byte) (int, uint32, error) {
	idx, err := parseVringIndex(payload)
	if err != nil {
		return 0, 0, err
	}
	if len(payload) < 16 {
		return 0, 0, fmt.Errorf("short vring-indexed-u64 payload")
	}
	return idx, uint32(leUint64(payload[8:16])), nil
}

func (s *Session) setMemTable(payload []byte, fds []int) error {
	if len(payload) < 8 {
		return fmt.Errorf("SET_MEM_TABLE: short payload")
	}
	count := int(leUint64(payload[0:8]))
	const entrySize = 32
	if len(payload) < 8+count*entrySize {
		return fmt.Errorf("SET_MEM_TABLE: truncated region table")
	}
	if len(fds) < count {
		return fmt.Errorf("SET_MEM_TABLE: expected %d fds, got %d", count, len(fds))
	}

	for _, r := range s.regions {
		if r.MappedAddr != 0 {
			_ = unix.Munmap(unsafeBytes(r.MappedAddr, r.MappedSize))
		}
		unix.Close(r.FD)
	}
	s.regions = s.regions[:0]

	for i := 0; i < count; i++ {
		off := 8 + i*entrySize
		region := MemoryRegion{
			GuestAddr:  leUint64(payload[off : off+8]),
			Size:       leUint64(payload[off+8 : off+16]),
			UserAddr:   leUint64(payload[off+16 : off+24]),
			MmapOffset: leUint64(payload[off+24 : off+32]),
			FD:         fds[i],
		}
		data, err := unix.Mmap(region.FD, int64(region.MmapOffset), int(region.Size),
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return fmt.Errorf("mmap region %d: %w", i, err)
		}
		region.MappedAddr = addrOf(data)
		region.MappedSize = len(data)
		s.regions = append(s.regions, region)
	}
	return nil
}

func (s *Session) setVringAddr(payload []byte) error {
	if len(payload) < 40 {
		return fmt.Errorf("SET_VRING_ADDR: short payload")
	}
	idx := int(leUint64(payload[0:8]) & 0xff)
	if idx != 0 && idx != 1 {
		return fmt.Errorf("unsupported vring index %d", idx)
	}
	s.vrings[idx].DescAddr = leUint64(payload[16:24])
	s.vrings[idx].UsedAddr = leUint64(payload[24:32])
	s.vrings[idx].AvailAddr = leUint64(payload[32:40])
	return nil
}

func (s *Session) setVringFD(payload []byte, fds []int, set func(*VringState, int), needsFD bool) error {
	idx, err := parseVringIndex(payload)
	if err != nil {
		return err
	}
	if needsFD {
		if len(fds) == 0 {
			return fmt.Errorf("expected an fd for vring %d", idx)
		}
		set(&s.vrings[idx], fds[0])
	}
	return nil
}

// watchKick spawns a goroutine reading the eventfd for ring idx,
// invoking onKick on every signal, until the session closes. Must be
// called with s.mu held; it only reads state, not mutates it further.
func (s *Session) watchKick(idx int) {
	fd := s.vrings[idx].KickFD
	go func() {
		buf := make([]byte, 8)
		for {
			select {
			case <-s.closed:
				return
			default:
			}
			n, err := unix.Read(fd, buf)
			if err != nil || n != 8 {
				return
			}
			if s.onKick != nil {
				s.onKick(idx)
			}
		}
	}()
}

// SignalGuest writes to ring's call eventfd, notifying the guest that
// used-ring entries are available.
func (s *Session) SignalGuest(ring int) error {
	s.mu.Lock()
	fd := s.vrings[ring].CallFD
	s.mu.Unlock()
	if fd == 0 {
		return nil
	}
	buf := make([]byte, 8)
	buf[0] = 1
	_, err := unix.Write(fd, buf)
	return err
}

// Close releases mmap'd regions and fds and unblocks any kick watchers.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, r := range s.regions {
			if r.MappedAddr != 0 {
				_ = unix.Munmap(unsafeBytes(r.MappedAddr, r.MappedSize))
			}
			unix.Close(r.FD)
		}
		for _, v := range s.vrings {
			for _, fd := range []int{v.KickFD, v.CallFD, v.ErrFD} {
				if fd != 0 {
					unix.Close(fd)
				}
			}
		}
		s.conn.Close()
	})
}
