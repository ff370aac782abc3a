// Copyright 2026 mvirt authors.

package proto

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// HandleICMPv6Echo replies to echo requests addressed to the gateway's
// IPv6.
func HandleICMPv6Echo(id GatewayIdentity, frame []byte) ([]byte, bool) {
	var eth layers.Ethernet
	var ip6 layers.IPv6
	var icmp layers.ICMPv6
	var echo layers.ICMPv6Echo
	var payload gopacket.Payload

	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &eth, &ip6, &icmp, &echo, &payload)
	decoded := make([]gopacket.LayerType, 0, 5)
	if err := parser.DecodeLayers(frame, &decoded); err != nil {
		return nil, false
	}
	if !containsLayer(decoded, layers.LayerTypeICMPv6Echo) {
		return nil, false
	}
	if icmp.TypeCode.Type() != layers.ICMPv6TypeEchoRequest {
		return nil, false
	}
	if !id.GatewayIPv6.IsValid() || !ipv6Equal(ip6.DstIP, id.GatewayIPv6) {
		return nil, false
	}

	replyICMP := layers.ICMPv6{
		TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeEchoReply, 0),
	}
	replyEcho := layers.ICMPv6Echo{
		Identifier: echo.Identifier,
		SeqNumber:  echo.SeqNumber,
	}
	replyIP := layers.IPv6{
		Version:    6,
		HopLimit:   64,
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
	if err := gopacket.SerializeLayers(buf, opts, &replyEth, &replyIP, &replyICMP, &replyEcho, gopacket.Payload(payload)); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
