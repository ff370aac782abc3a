// Copyright 2026 mvirt authors.

// Package vhost implements the vhost-user backend protocol and the
// 12-byte virtio-net header carried on every packet that crosses a
// vNIC or the TUN device.
package vhost

import "encoding/binary"

// HdrSize is the on-wire size of NetHeader, matching virtio-net's
// legacy (non-mrg_rxbuf-numbuffers-absent) header layout extended with
// num_buffers, as required for mergeable RX buffers.
const HdrSize = 12

const (
	// FlagsNeedsCsum indicates csum_start/csum_offset are valid and the
	// checksum at that offset has not yet been computed by the sender.
	FlagsNeedsCsum uint8 = 1 << 0
	// FlagsDataValid indicates the checksum is already correct; set by
	// the host when delivering a packet it validated itself.
	FlagsDataValid uint8 = 1 << 1
)

// GSO type values (virtio-net gso_type field).
const (
	GSONone  uint8 = 0
	GSOTCPv4 uint8 = 1
	GSOUDP   uint8 = 3
	GSOTCPv6 uint8 = 4
)

// NetHeader is the 12-byte virtio-net header prepended to every frame
// on the wire (vhost-user virtqueues and the TUN device alike), carried
// end-to-end so GSO and checksum-offload metadata survive forwarding.
type NetHeader struct {
	Flags      uint8
	GSOType    uint8
	HdrLen     uint16
	GSOSize    uint16
	CSumStart  uint16
	CSumOffset uint16
	NumBuffers uint16
}

// Marshal encodes h into dst, which must be at least HdrSize bytes.
func (h NetHeader) Marshal(dst []byte) {
	_ = dst[:HdrSize]
	dst[0] = h.Flags
	dst[1] = h.GSOType
	binary.LittleEndian.PutUint16(dst[2:4], h.HdrLen)
	binary.LittleEndian.PutUint16(dst[4:6], h.GSOSize)
	binary.LittleEndian.PutUint16(dst[6:8], h.CSumStart)
	binary.LittleEndian.PutUint16(dst[8:10], h.CSumOffset)
	binary.LittleEndian.PutUint16(dst[10:12], h.NumBuffers)
}

// ParseNetHeader decodes a NetHeader from the front of src, which must
// be at least HdrSize bytes.
func ParseNetHeader(src []byte) NetHeader {
	_ = src[:HdrSize]
	return NetHeader{
		Flags:      src[0],
		GSOType:    src[1],
		HdrLen:     binary.LittleEndian.Uint16(src[2:4]),
		GSOSize:    binary.LittleEndian.Uint16(src[4:6]),
		CSumStart:  binary.LittleEndian.Uint16(src[6:8]),
		CSumOffset: binary.LittleEndian.Uint16(src[8:10]),
		NumBuffers: binary.LittleEndian.Uint16(src[10:12]),
	}
}

// AdjustForEthernetStrip corrects CSumStart/HdrLen after the
// Ethernet header has been stripped from a packet (vNIC -> TUN
// direction), since both offsets were computed relative to the start of
// the Ethernet frame.
func (h *NetHeader) AdjustForEthernetStrip(ethHeaderLen uint16) {
	if h.Flags&FlagsNeedsCsum != 0 && h.CSumStart >= ethHeaderLen {
		h.CSumStart -= ethHeaderLen
	}
	if h.HdrLen >= ethHeaderLen {
		h.HdrLen -= ethHeaderLen
	}
}

// AdjustForEthernetPrepend is the inverse of AdjustForEthernetStrip,
// applied when an Ethernet header is prepended to a packet arriving
// from the TUN device before it is delivered to a vNIC.
func (h *NetHeader) AdjustForEthernetPrepend(ethHeaderLen uint16) {
	if h.Flags&FlagsNeedsCsum != 0 {
		h.CSumStart += ethHeaderLen
	}
	if h.HdrLen != 0 || h.GSOType != GSONone {
		h.HdrLen += ethHeaderLen
	}
}
