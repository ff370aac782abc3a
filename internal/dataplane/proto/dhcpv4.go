// Copyright 2026 mvirt authors.

package proto

import (
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// HandleDHCPv4 replies to DHCPDISCOVER/DHCPREQUEST with the NIC's
// assigned address, DNS/NTP, lease time, and — only for public networks
// — the default gateway option.
func HandleDHCPv4(id GatewayIdentity, frame []byte) ([]byte, bool) {
	var eth layers.Ethernet
	var ip4 layers.IPv4
	var udp layers.UDP
	var dhcp layers.DHCPv4

	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &eth, &ip4, &udp, &dhcp)
	decoded := make([]gopacket.LayerType, 0, 4)
	if err := parser.DecodeLayers(frame, &decoded); err != nil {
		return nil, false
	}
	if !containsLayer(decoded, layers.LayerTypeDHCPv4) {
		return nil, false
	}
	if dhcp.Operation != layers.DHCPOpRequest {
		return nil, false
	}
	if !id.NicIPv4.IsValid() {
		return nil, false
	}

	msgType := dhcpMessageType(dhcp.Options)
	var replyType layers.DHCPMsgType
	switch msgType {
	case layers.DHCPMsgTypeDiscover:
		replyType = layers.DHCPMsgTypeOffer
	case layers.DHCPMsgTypeRequest:
		replyType = layers.DHCPMsgTypeAck
	default:
		return nil, false
	}

	opts := layers.DHCPOptions{
		layers.NewDHCPOption(layers.DHCPOptMessageType, []byte{byte(replyType)}),
		layers.NewDHCPOption(layers.DHCPOptServerID, id.GatewayIPv4.AsSlice()),
		layers.NewDHCPOption(layers.DHCPOptLeaseTime, uint32Bytes(id.LeaseTime)),
	}
	if len(id.DNS) > 0 {
		opts = append(opts, layers.NewDHCPOption(layers.DHCPOptDNS, addrsToBytes(id.DNS)))
	}
	if len(id.NTP) > 0 {
		const dhcpOptNTPServers = layers.DHCPOpt(42)
		opts = append(opts, layers.NewDHCPOption(dhcpOptNTPServers, addrsToBytes(id.NTP)))
	}
	if id.IsPublic {
		opts = append(opts, layers.NewDHCPOption(layers.DHCPOptRouter, id.GatewayIPv4.AsSlice()))
	}
	opts = append(opts, layers.NewDHCPOption(layers.DHCPOptEnd, nil))

	replyDHCP := layers.DHCPv4{
		Operation:    layers.DHCPOpReply,
		HardwareType: layers.LinkTypeEthernet,
		HardwareLen:  6,
		Xid:          dhcp.Xid,
		YourClientIP: id.NicIPv4.AsSlice(),
		NextServerIP: id.GatewayIPv4.AsSlice(),
		ClientHWAddr: dhcp.ClientHWAddr,
		Options:      opts,
	}
	replyUDP := layers.UDP{SrcPort: 67, DstPort: 68}
	replyIP := layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    id.GatewayIPv4.AsSlice(),
		DstIP:    net.IPv4bcast,
	}
	replyEth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr(id.MAC[:]),
		DstMAC:       eth.SrcMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	_ = replyUDP.SetNetworkLayerForChecksum(&replyIP)

	buf := gopacket.NewSerializeBuffer()
	opt := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opt, &replyEth, &replyIP, &replyUDP, &replyDHCP); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func dhcpMessageType(opts layers.DHCPOptions) layers.DHCPMsgType {
	for _, o := range opts {
		if o.Type == layers.DHCPOptMessageType && len(o.Data) == 1 {
			return layers.DHCPMsgType(o.Data[0])
		}
	}
	return 0
}

func uint32Bytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func addrsToBytes(addrs []netip.Addr) []byte {
	var out []byte
	for _, a := range addrs {
		out = append(out, a.AsSlice()...)
	}
	return out
}
