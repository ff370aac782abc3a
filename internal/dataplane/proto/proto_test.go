// Copyright 2026 mvirt authors.

package proto

import (
	"net"
	"net/netip"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"
)

var testIdentity = GatewayIdentity{
	MAC:         [6]byte{0x02, 0, 0, 0, 0, 1},
	GatewayIPv4: netip.MustParseAddr("169.254.0.1"),
	GatewayIPv6: netip.MustParseAddr("fe80::1"),
	NicIPv4:     netip.MustParseAddr("10.0.0.5"),
	NicIPv6:     netip.MustParseAddr("fd00::5"),
	DNS:         []netip.Addr{netip.MustParseAddr("10.0.0.1")},
	LeaseTime:   3600,
	IsPublic:    true,
}

func serialize(t *testing.T, layerList ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, layerList...))
	return buf.Bytes()
}

func TestHandleARPRequest(t *testing.T) {
	guestMAC := net.HardwareAddr{0xaa, 0xbb, 0xcc, 0, 0, 1}
	eth := &layers.Ethernet{SrcMAC: guestMAC, DstMAC: net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, EthernetType: layers.EthernetTypeARP}
	arp := &layers.ARP{
		AddrType: layers.LinkTypeEthernet, Protocol: layers.EthernetTypeIPv4,
		HwAddressSize: 6, ProtAddressSize: 4, Operation: layers.ARPRequest,
		SourceHwAddress: guestMAC, SourceProtAddress: net.ParseIP("10.0.0.5").To4(),
		DstHwAddress: []byte{0, 0, 0, 0, 0, 0}, DstProtAddress: net.ParseIP("169.254.0.1").To4(),
	}
	frame := serialize(t, eth, arp)

	reply, ok := HandleARP(testIdentity, frame)
	require.True(t, ok)

	var rEth layers.Ethernet
	var rArp layers.ARP
	decoded := []gopacket.LayerType{}
	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &rEth, &rArp)
	require.NoError(t, parser.DecodeLayers(reply, &decoded))

	require.Equal(t, layers.ARPReply, rArp.Operation)
	require.Equal(t, testIdentity.MAC[:], []byte(rArp.SourceHwAddress))
	require.Equal(t, guestMAC, rEth.DstMAC)
}

func TestHandleARPIgnoresOtherTargets(t *testing.T) {
	eth := &layers.Ethernet{SrcMAC: net.HardwareAddr{1, 2, 3, 4, 5, 6}, DstMAC: net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, EthernetType: layers.EthernetTypeARP}
	arp := &layers.ARP{
		AddrType: layers.LinkTypeEthernet, Protocol: layers.EthernetTypeIPv4,
		HwAddressSize: 6, ProtAddressSize: 4, Operation: layers.ARPRequest,
		SourceHwAddress: []byte{1, 2, 3, 4, 5, 6}, SourceProtAddress: net.ParseIP("10.0.0.5").To4(),
		DstHwAddress: []byte{0, 0, 0, 0, 0, 0}, DstProtAddress: net.ParseIP("10.0.0.9").To4(),
	}
	frame := serialize(t, eth, arp)

	_, ok := HandleARP(testIdentity, frame)
	require.False(t, ok)
}

func TestHandleICMPv4EchoReply(t *testing.T) {
	guestMAC := net.HardwareAddr{0xaa, 0xbb, 0xcc, 0, 0, 1}
	eth := &layers.Ethernet{SrcMAC: guestMAC, DstMAC: net.HardwareAddr(testIdentity.MAC[:]), EthernetType: layers.EthernetTypeIPv4}
	ip4 := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolICMPv4,
		SrcIP: net.ParseIP("10.0.0.5").To4(), DstIP: net.ParseIP("169.254.0.1").To4()}
	icmp := &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0), Id: 42, Seq: 1}
	payload := gopacket.Payload([]byte("ping"))
	frame := serialize(t, eth, ip4, icmp, &payload)

	reply, ok := HandleICMPv4Echo(testIdentity, frame)
	require.True(t, ok)

	var rEth layers.Ethernet
	var rIP4 layers.IPv4
	var rICMP layers.ICMPv4
	var rPayload gopacket.Payload
	decoded := []gopacket.LayerType{}
	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &rEth, &rIP4, &rICMP, &rPayload)
	require.NoError(t, parser.DecodeLayers(reply, &decoded))

	require.Equal(t, uint8(layers.ICMPv4TypeEchoReply), rICMP.TypeCode.Type())
	require.EqualValues(t, 42, rICMP.Id)
	require.Equal(t, []byte("ping"), []byte(rPayload))
	require.Equal(t, "169.254.0.1", rIP4.SrcIP.String())
}

func TestHandleDHCPv4Discover(t *testing.T) {
	guestMAC := net.HardwareAddr{0xaa, 0xbb, 0xcc, 0, 0, 1}
	eth := &layers.Ethernet{SrcMAC: guestMAC, DstMAC: net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, EthernetType: layers.EthernetTypeIPv4}
	ip4 := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP,
		SrcIP: net.IPv4zero, DstIP: net.IPv4bcast}
	udp := &layers.UDP{SrcPort: 68, DstPort: 67}
	dhcp := &layers.DHCPv4{
		Operation: layers.DHCPOpRequest, HardwareType: layers.LinkTypeEthernet, HardwareLen: 6,
		Xid: 0x1234, ClientHWAddr: guestMAC,
		Options: layers.DHCPOptions{
			layers.NewDHCPOption(layers.DHCPOptMessageType, []byte{byte(layers.DHCPMsgTypeDiscover)}),
		},
	}
	udp.SetNetworkLayerForChecksum(ip4)
	frame := serialize(t, eth, ip4, udp, dhcp)

	reply, ok := HandleDHCPv4(testIdentity, frame)
	require.True(t, ok)

	var rEth layers.Ethernet
	var rIP4 layers.IPv4
	var rUDP layers.UDP
	var rDHCP layers.DHCPv4
	decoded := []gopacket.LayerType{}
	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &rEth, &rIP4, &rUDP, &rDHCP)
	require.NoError(t, parser.DecodeLayers(reply, &decoded))

	require.EqualValues(t, 0x1234, rDHCP.Xid)
	require.Equal(t, "10.0.0.5", rDHCP.YourClientIP.String())
}

func TestHandleNeighborSolicitation(t *testing.T) {
	guestMAC := net.HardwareAddr{0xaa, 0xbb, 0xcc, 0, 0, 1}
	eth := &layers.Ethernet{SrcMAC: guestMAC, DstMAC: net.HardwareAddr(testIdentity.MAC[:]), EthernetType: layers.EthernetTypeIPv6}
	ip6 := &layers.IPv6{Version: 6, HopLimit: 255, NextHeader: layers.IPProtocolICMPv6,
		SrcIP: net.ParseIP("fd00::5"), DstIP: net.ParseIP("fe80::1")}
	icmp := &layers.ICMPv6{TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeNeighborSolicitation, 0)}
	ns := &layers.ICMPv6NeighborSolicitation{TargetAddress: net.ParseIP("fe80::1")}
	icmp.SetNetworkLayerForChecksum(ip6)
	frame := serialize(t, eth, ip6, icmp, ns)

	reply, ok := HandleNDP(testIdentity, frame)
	require.True(t, ok)
	require.NotEmpty(t, reply)
}

func TestHandleDHCPv6Solicit(t *testing.T) {
	guestMAC := net.HardwareAddr{0xaa, 0xbb, 0xcc, 0, 0, 1}
	eth := &layers.Ethernet{SrcMAC: guestMAC, DstMAC: net.HardwareAddr(testIdentity.MAC[:]), EthernetType: layers.EthernetTypeIPv6}
	ip6 := &layers.IPv6{Version: 6, HopLimit: 64, NextHeader: layers.IPProtocolUDP,
		SrcIP: net.ParseIP("fe80::aabb"), DstIP: net.ParseIP("ff02::1:2")}
	udp := &layers.UDP{SrcPort: 546, DstPort: 547}
	udp.SetNetworkLayerForChecksum(ip6)

	body := []byte{dhcpv6Solicit, 0xaa, 0xbb, 0xcc}
	body = append(body, dhcpv6Option(dhcpv6OptClientID, []byte{0, 1, 2, 3})...)
	payload := gopacket.Payload(body)
	frame := serialize(t, eth, ip6, udp, &payload)

	reply, ok := HandleDHCPv6(testIdentity, frame)
	require.True(t, ok)
	require.NotEmpty(t, reply)
}
