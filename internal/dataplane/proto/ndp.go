// Copyright 2026 mvirt authors.

package proto

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	ndpFlagRouter    = 0x80
	ndpFlagSolicited = 0x40
	ndpFlagOverride  = 0x20
)

// HandleNDP answers Neighbor Solicitations for the gateway and, for
// public networks only, Router Solicitations: the RA advertises the
// gateway only on public networks, so non-public networks leave guests
// routing everything to the configured gateway instead of
// auto-configuring a default route.
func HandleNDP(id GatewayIdentity, frame []byte) ([]byte, bool) {
	var eth layers.Ethernet
	var ip6 layers.IPv6
	var icmp layers.ICMPv6
	var ns layers.ICMPv6NeighborSolicitation
	var rs layers.ICMPv6RouterSolicitation

	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &eth, &ip6, &icmp, &ns, &rs)
	decoded := make([]gopacket.LayerType, 0, 5)
	if err := parser.DecodeLayers(frame, &decoded); err != nil {
		return nil, false
	}

	switch {
	case containsLayer(decoded, layers.LayerTypeICMPv6NeighborSolicitation):
		return handleNeighborSolicitation(id, eth, ip6, ns)
	case containsLayer(decoded, layers.LayerTypeICMPv6RouterSolicitation):
		if !id.IsPublic {
			return nil, false
		}
		return handleRouterSolicitation(id, eth, ip6)
	default:
		return nil, false
	}
}

func handleNeighborSolicitation(id GatewayIdentity, eth layers.Ethernet, ip6 layers.IPv6, ns layers.ICMPv6NeighborSolicitation) ([]byte, bool) {
	if !id.GatewayIPv6.IsValid() || !ipv6Equal(ns.TargetAddress, id.GatewayIPv6) {
		return nil, false
	}

	na := layers.ICMPv6NeighborAdvertisement{
		Flags:         ndpFlagSolicited | ndpFlagOverride,
		TargetAddress: id.GatewayIPv6.AsSlice(),
		Options: layers.ICMPv6Options{{
			Type: layers.ICMPv6OptTargetAddress,
			Data: id.MAC[:],
		}},
	}
	replyICMP := layers.ICMPv6{TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeNeighborAdvertisement, 0)}
	replyIP := layers.IPv6{
		Version:    6,
		HopLimit:   255,
		NextHeader: layers.IPProtocolICMPv6,
		SrcIP:      id.GatewayIPv6.AsSlice(),
		DstIP:      ip6.SrcIP,
	}
	replyEth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr(id.MAC[:]),
		DstMAC:       eth.SrcMAC,
		EthernetType: layers.EthernetTypeIPv6,
	}
	replyICMP.SetNetworkLayerForChecksum(&replyIP)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, &replyEth, &replyIP, &replyICMP, &na); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func handleRouterSolicitation(id GatewayIdentity, eth layers.Ethernet, ip6 layers.IPv6) ([]byte, bool) {
	ra := layers.ICMPv6RouterAdvertisement{
		HopLimit:       64,
		Flags:          0,
		RouterLifetime: 1800,
		Options: layers.ICMPv6Options{{
			Type: layers.ICMPv6OptSourceAddress,
			Data: id.MAC[:],
		}},
	}
	replyICMP := layers.ICMPv6{TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeRouterAdvertisement, 0)}
	replyIP := layers.IPv6{
		Version:    6,
		HopLimit:   255,
		NextHeader: layers.IPProtocolICMPv6,
		SrcIP:      id.GatewayIPv6.AsSlice(),
		DstIP:      ip6.SrcIP,
	}
	replyEth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr(id.MAC[:]),
		DstMAC:       eth.SrcMAC,
		EthernetType: layers.EthernetTypeIPv6,
	}
	replyICMP.SetNetworkLayerForChecksum(&replyIP)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, &replyEth, &replyIP, &replyICMP, &ra); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
