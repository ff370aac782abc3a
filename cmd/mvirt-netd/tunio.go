// Copyright 2026 mvirt authors.

package main

import (
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/buffer"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/router"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/tun"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/worker"
	"github.com/MalteJ/mvirt-sub000/internal/minilog"
)

// tunIncomingNicID is the sentinel "source NIC" a router.Route call uses
// for packets arriving from the TUN device, guaranteed not to equal any
// real vNIC id so the self-sourced-NIC skip in router.Route never fires.
const tunIncomingNicID = ""

// tunIO runs the two goroutines bridging the shared TUN device and the
// per-network routers: egress drains worker-routed ToInternet traffic
// out to the kernel, ingress polls the kernel and fans packets back
// into whichever public network's router claims them.
type tunIO struct {
	dev   *tun.Device
	pool  *buffer.Pool
	mgr   *worker.Manager
	tunTX <-chan *buffer.Buffer
}

// egressLoop writes every buffer handed to it by a vNIC worker's router
// fallthrough out through the TUN device, carrying forward the guest's
// own virtio header (buf.Hdr) so GSO/checksum offload metadata survives
// the VM-to-TUN hop instead of being erased.
func (t *tunIO) egressLoop() {
	for buf := range t.tunTX {
		if err := t.dev.WriteOutbound(buf); err != nil {
			minilog.Error("netd: tun write: %v", err)
		}
		t.pool.Put(buf)
	}
}

// ingressLoop polls the TUN device for packets arriving from the host's
// IP stack, prepends an Ethernet header, and consults every public
// network's router in turn until one claims the destination: the
// first router whose longest-prefix match finds the destination
// routes the packet.
func (t *tunIO) ingressLoop() {
	raw := make([]byte, 65536)
	for {
		hdr, payload, ethType, err := t.dev.ReadInbound(raw)
		if err != nil {
			minilog.Error("netd: tun read: %v", err)
			continue
		}

		buf := t.pool.Get()
		if buf == nil {
			minilog.Warn("netd: buffer pool exhausted, dropping inbound tun packet")
			continue
		}
		buf.Hdr = hdr
		tun.PrependEthernet(buf, gatewayMAC, ethType)
		buf.Data = append(buf.Data, payload...)

		if !t.dispatch(buf) {
			t.pool.Put(buf)
		}
	}
}

// dispatch tries every public router's LPM table against buf's
// destination, delivering and returning true on the first match.
func (t *tunIO) dispatch(buf *buffer.Buffer) bool {
	for _, rt := range t.mgr.Routers() {
		if !rt.IsPublic() {
			continue
		}
		verdict, target := rt.Route(tunIncomingNicID, buf)
		if verdict != router.Routed {
			continue
		}
		select {
		case target <- buf:
			return true
		default:
			minilog.Warn("netd: target nic rx queue full, dropping inbound tun packet")
			return true // drop rather than fall through to a different network's router
		}
	}
	return false
}
