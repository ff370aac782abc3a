// Copyright 2026 mvirt authors.

// Package proto answers the handful of link-local protocols every vNIC's
// gateway identity must speak without a real router on the other end:
// ARP, ICMP(v6) echo, NDP, DHCPv4, and DHCPv6. Each handler is tried in
// the fixed order the worker requires and may produce a reply frame to
// inject back into the guest's RX queue.
package proto

import "net/netip"

// GatewayIdentity is the per-NIC answer-for identity the protocol
// handlers impersonate: a gateway that never actually forwards packets
// itself (that's the router's job) but must look like one to the guest.
type GatewayIdentity struct {
	MAC [6]byte

	// GatewayIPv4/GatewayIPv6 are the addresses ARP/NDP/ICMP answer for:
	// typically the first usable address of the subnet.
	GatewayIPv4 netip.Addr
	GatewayIPv6 netip.Addr

	// NicIPv4/NicIPv6 are the addresses this specific NIC is assigned,
	// handed out via DHCPv4/DHCPv6.
	NicIPv4 netip.Addr
	NicIPv6 netip.Addr

	DNS       []netip.Addr
	NTP       []netip.Addr
	LeaseTime uint32 // seconds

	// IsPublic gates the DHCPv4 default-gateway option and NDP Router
	// Advertisements: non-public networks omit both so guests keep
	// routing everything to the configured gateway.
	IsPublic bool
}

// Handler answers one protocol for a given identity. frame is the full
// Ethernet frame (virtio header already stripped). ok reports whether
// the handler recognised and answered the packet; when ok, reply is a
// complete Ethernet frame ready for injection into the guest's RX
// queue, and the inbound frame that triggered it is discarded.
type Handler func(id GatewayIdentity, frame []byte) (reply []byte, ok bool)

// Chain runs handlers in a fixed sequence: ARP, ICMPv4 echo, NDP,
// ICMPv6 echo, DHCPv4, DHCPv6.
var Chain = []Handler{
	HandleARP,
	HandleICMPv4Echo,
	HandleNDP,
	HandleICMPv6Echo,
	HandleDHCPv4,
	HandleDHCPv6,
}

// Dispatch tries every handler in Chain and returns the first reply.
func Dispatch(id GatewayIdentity, frame []byte) (reply []byte, handled bool) {
	for _, h := range Chain {
		if reply, ok := h(id, frame); ok {
			return reply, true
		}
	}
	return nil, false
}
