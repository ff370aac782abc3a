// Copyright 2026 mvirt authors.

package proto

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// HandleARP resolves the gateway's link-local IPv4 to the gateway MAC,
// answering ARP requests for a NIC's synthetic gateway identity using
// the same DecodingLayerParser/serialize idiom as any other
// gopacket-based packet snooper.
func HandleARP(id GatewayIdentity, frame []byte) ([]byte, bool) {
	var eth layers.Ethernet
	var arp layers.ARP

	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &eth, &arp)
	decoded := make([]gopacket.LayerType, 0, 2)
	if err := parser.DecodeLayers(frame, &decoded); err != nil {
		return nil, false
	}
	if !containsLayer(decoded, layers.LayerTypeARP) {
		return nil, false
	}
	if arp.Operation != layers.ARPRequest {
		return nil, false
	}
	if !id.GatewayIPv4.IsValid() || !ipv4Equal(arp.DstProtAddress, id.GatewayIPv4) {
		return nil, false
	}

	replyARP := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPReply,
		SourceHwAddress:   id.MAC[:],
		SourceProtAddress: id.GatewayIPv4.AsSlice(),
		DstHwAddress:      arp.SourceHwAddress,
		DstProtAddress:    arp.SourceProtAddress,
	}
	replyEth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr(id.MAC[:]),
		DstMAC:       eth.SrcMAC,
		EthernetType: layers.EthernetTypeARP,
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, &replyEth, &replyARP); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func containsLayer(decoded []gopacket.LayerType, want gopacket.LayerType) bool {
	for _, l := range decoded {
		if l == want {
			return true
		}
	}
	return false
}
