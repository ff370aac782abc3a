// Copyright 2026 mvirt authors.

package proto

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// HandleICMPv4Echo replies to echo requests addressed to the gateway's
// IPv4, answering from the gateway identity rather than forwarding the
// request anywhere.
func HandleICMPv4Echo(id GatewayIdentity, frame []byte) ([]byte, bool) {
	var eth layers.Ethernet
	var ip4 layers.IPv4
	var icmp layers.ICMPv4
	var payload gopacket.Payload

	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &eth, &ip4, &icmp, &payload)
	decoded := make([]gopacket.LayerType, 0, 4)
	if err := parser.DecodeLayers(frame, &decoded); err != nil {
		return nil, false
	}
	if !containsLayer(decoded, layers.LayerTypeICMPv4) {
		return nil, false
	}
	if icmp.TypeCode.Type() != layers.ICMPv4TypeEchoRequest {
		return nil, false
	}
	if !id.GatewayIPv4.IsValid() || !ipv4Equal(ip4.DstIP, id.GatewayIPv4) {
		return nil, false
	}

	replyICMP := layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoReply, 0),
		Id:       icmp.Id,
		Seq:      icmp.Seq,
	}
	replyIP := layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    id.GatewayIPv4.AsSlice(),
		DstIP:    ip4.SrcIP,
	}
	replyEth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr(id.MAC[:]),
		DstMAC:       eth.SrcMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, &replyEth, &replyIP, &replyICMP, gopacket.Payload(payload)); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
