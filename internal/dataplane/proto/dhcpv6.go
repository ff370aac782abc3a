// Copyright 2026 mvirt authors.

package proto

import (
	"encoding/binary"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// DHCPv6 message types (RFC 8415 §7.3); gopacket/layers has no DHCPv6
// layer, so the message body is built by hand below.
const (
	dhcpv6Solicit  = 1
	dhcpv6Advertise = 2
	dhcpv6Request  = 3
	dhcpv6Reply    = 7
)

const (
	dhcpv6OptClientID   = 1
	dhcpv6OptServerID   = 2
	dhcpv6OptIANA       = 3
	dhcpv6OptIAAddr     = 5
	dhcpv6OptDNSServers = 23
)

const dhcpv6ClientPort, dhcpv6ServerPort = 546, 547

// HandleDHCPv6 replies to Solicit/Request with the NIC's assigned IPv6
// and DNS servers.
func HandleDHCPv6(id GatewayIdentity, frame []byte) ([]byte, bool) {
	var eth layers.Ethernet
	var ip6 layers.IPv6
	var udp layers.UDP
	var payload gopacket.Payload

	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &eth, &ip6, &udp, &payload)
	decoded := make([]gopacket.LayerType, 0, 4)
	if err := parser.DecodeLayers(frame, &decoded); err != nil {
		return nil, false
	}
	if udp.DstPort != dhcpv6ServerPort || len(payload) < 4 {
		return nil, false
	}
	if !id.NicIPv6.IsValid() {
		return nil, false
	}

	msgType := payload[0]
	xid := payload[1:4]

	var replyType byte
	switch msgType {
	case dhcpv6Solicit:
		replyType = dhcpv6Advertise
	case dhcpv6Request:
		replyType = dhcpv6Reply
	default:
		return nil, false
	}

	clientID, _ := findDHCPv6Option(payload[4:], dhcpv6OptClientID)

	body := make([]byte, 0, 128)
	body = append(body, replyType)
	body = append(body, xid...)
	body = append(body, dhcpv6Option(dhcpv6OptServerID, id.MAC[:])...)
	if clientID != nil {
		body = append(body, dhcpv6Option(dhcpv6OptClientID, clientID)...)
	}

	iaAddr := dhcpv6Option(dhcpv6OptIAAddr, iaAddrData(id.NicIPv6.AsSlice(), id.LeaseTime))
	body = append(body, dhcpv6Option(dhcpv6OptIANA, append(make([]byte, 12), iaAddr...))...)

	if len(id.DNS) > 0 {
		dns := make([]byte, 0, 16*len(id.DNS))
		for _, a := range id.DNS {
			a16 := a.As16()
			dns = append(dns, a16[:]...)
		}
		body = append(body, dhcpv6Option(dhcpv6OptDNSServers, dns)...)
	}

	replyUDP := layers.UDP{SrcPort: dhcpv6ServerPort, DstPort: dhcpv6ClientPort}
	replyIP := layers.IPv6{
		Version:    6,
		HopLimit:   64,
		NextHeader: layers.IPProtocolUDP,
		SrcIP:      id.GatewayIPv6.AsSlice(),
		DstIP:      ip6.SrcIP,
	}
	replyEth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr(id.MAC[:]),
		DstMAC:       eth.SrcMAC,
		EthernetType: layers.EthernetTypeIPv6,
	}
	_ = replyUDP.SetNetworkLayerForChecksum(&replyIP)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, &replyEth, &replyIP, &replyUDP, gopacket.Payload(body)); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// dhcpv6Option frames one DHCPv6 option: 2-byte type, 2-byte length,
// then data (RFC 8415 §21.1).
func dhcpv6Option(optType uint16, data []byte) []byte {
	out := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(out[0:2], optType)
	binary.BigEndian.PutUint16(out[2:4], uint16(len(data)))
	copy(out[4:], data)
	return out
}

// iaAddrData builds an OPTION_IAADDR body: 16-byte address, preferred
// and valid lifetimes.
func iaAddrData(ip6 net.IP, leaseSeconds uint32) []byte {
	out := make([]byte, 24)
	copy(out[0:16], ip6.To16())
	binary.BigEndian.PutUint32(out[16:20], leaseSeconds)
	binary.BigEndian.PutUint32(out[20:24], leaseSeconds)
	return out
}

func findDHCPv6Option(options []byte, want uint16) ([]byte, bool) {
	for len(options) >= 4 {
		optType := binary.BigEndian.Uint16(options[0:2])
		optLen := int(binary.BigEndian.Uint16(options[2:4]))
		if len(options) < 4+optLen {
			return nil, false
		}
		if optType == want {
			return options[4 : 4+optLen], true
		}
		options = options[4+optLen:]
	}
	return nil, false
}
