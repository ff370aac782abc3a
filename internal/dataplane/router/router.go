// Copyright 2026 mvirt authors.

// Package router implements the per-network packet router:
// longest-prefix-match routing between the vNICs of a network and,
// for public networks, the shared TUN device.
package router

import (
	"net/netip"
	"sync"

	"github.com/gaissmai/bart"

	"github.com/MalteJ/mvirt-sub000/internal/dataplane/buffer"
)

// Verdict is the outcome of routing one packet.
type Verdict int

const (
	// Dropped means the frame is not routable: it is not IPv4/IPv6, no
	// route matched on a non-public network, or the matched NIC is the
	// source or is not attached.
	Dropped Verdict = iota
	// Routed means the packet was rewritten and handed to a NIC channel.
	Routed
	// ToInternet means no route matched but the network is public; the
	// caller is responsible for forwarding buf to the TUN device.
	ToInternet
)

// Route describes one LPM table entry: the NIC a prefix routes to, and
// whether it is a direct (host) route or any other routed prefix — the
// distinction the bart LPM naturally resolves via longest match, kept
// here only for inspection/debugging.
type Route struct {
	NicID  string
	Direct bool
}

// nicEntry is a live, routable vNIC: its outbound channel and MAC, used
// for Ethernet header rewriting.
type nicEntry struct {
	ch  chan<- *buffer.Buffer
	mac [6]byte
}

// Router is one network's LPM tables plus its live NIC set. Safe for
// concurrent use: TX packets from many vNIC workers and inbound TUN
// traffic may all call Route concurrently.
type Router struct {
	mu       sync.RWMutex
	v4       bart.Table[Route]
	v6       bart.Table[Route]
	nics     map[string]nicEntry
	isPublic bool
	gwMAC    [6]byte
}

// New creates an empty router for one network.
func New(isPublic bool, gatewayMAC [6]byte) *Router {
	return &Router{
		nics:     make(map[string]nicEntry),
		isPublic: isPublic,
		gwMAC:    gatewayMAC,
	}
}

// IsPublic reports whether unmatched packets should fall through to the
// TUN device.
func (r *Router) IsPublic() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isPublic
}

// AddRoute installs an LPM entry for prefix, directing matching
// destinations at nicID.
func (r *Router) AddRoute(prefix netip.Prefix, nicID string, direct bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route := Route{NicID: nicID, Direct: direct}
	if prefix.Addr().Is4() {
		r.v4.Insert(prefix, route)
	} else {
		r.v6.Insert(prefix, route)
	}
}

// RemoveRoute deletes the LPM entry for prefix, if present.
func (r *Router) RemoveRoute(prefix netip.Prefix) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prefix.Addr().Is4() {
		r.v4.Delete(prefix)
	} else {
		r.v6.Delete(prefix)
	}
}

// AttachNIC registers a live vNIC's outbound channel and MAC so routed
// packets can be delivered to it.
func (r *Router) AttachNIC(nicID string, mac [6]byte, ch chan<- *buffer.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nics[nicID] = nicEntry{ch: ch, mac: mac}
}

// DetachNIC removes a vNIC from the live set, e.g. on VM deletion.
func (r *Router) DetachNIC(nicID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.nics, nicID)
}

// Route parses the Ethernet header in buf, performs an LPM on the
// IPv4/IPv6 destination, and either rewrites the Ethernet header in
// place and returns Routed (the caller should then send buf on the
// returned channel), returns ToInternet when no route matched on a
// public network, or returns Dropped otherwise.
func (r *Router) Route(srcNicID string, buf *buffer.Buffer) (Verdict, chan<- *buffer.Buffer) {
	dst, ok := parseDestination(buf.Data)
	if !ok {
		return Dropped, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var route Route
	var found bool
	if dst.Is4() {
		route, found = r.v4.Lookup(dst)
	} else {
		route, found = r.v6.Lookup(dst)
	}

	if found && route.NicID != srcNicID {
		target, ok := r.nics[route.NicID]
		if ok {
			rewriteEthernet(buf, target.mac, r.gwMAC)
			return Routed, target.ch
		}
	}

	if !found && r.isPublic {
		return ToInternet, nil
	}
	return Dropped, nil
}

// parseDestination extracts the IPv4 or IPv6 destination address from
// an Ethernet frame, reporting ok=false for non-IP ethertypes or
// truncated frames.
func parseDestination(frame []byte) (netip.Addr, bool) {
	const ethHeaderLen = 14
	if len(frame) < ethHeaderLen+1 {
		return netip.Addr{}, false
	}
	ethType := uint16(frame[12])<<8 | uint16(frame[13])
	payload := frame[ethHeaderLen:]

	switch ethType {
	case 0x0800: // IPv4
		if len(payload) < 20 {
			return netip.Addr{}, false
		}
		return netip.AddrFrom4([4]byte(payload[16:20])), true
	case 0x86DD: // IPv6
		if len(payload) < 40 {
			return netip.Addr{}, false
		}
		return netip.AddrFrom16([16]byte(payload[24:40])), true
	default:
		return netip.Addr{}, false
	}
}

// rewriteEthernet overwrites the 14-byte Ethernet header in buf's
// headroom in place: dst = the target NIC's MAC, src = the gateway
// MAC. No copy is required since the header lives in buf's reserved
// headroom.
func rewriteEthernet(buf *buffer.Buffer, dstMAC, srcMAC [6]byte) {
	hdr := buf.Data[:14]
	copy(hdr[0:6], dstMAC[:])
	copy(hdr[6:12], srcMAC[:])
}
