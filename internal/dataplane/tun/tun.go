// Copyright 2026 mvirt authors.

// Package tun implements the process-wide L3 TUN device: a single
// thread bridging between the per-network routers and the host's IP
// stack, carrying the virtio-net header end-to-end so GSO and
// checksum offload survive the trip.
package tun

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/MalteJ/mvirt-sub000/internal/dataplane/buffer"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/vhost"
)

const (
	ifReqSize  = 40
	tunDevPath = "/dev/net/tun"
)

// ioctl request codes for TUN/TAP device creation (linux/if_tun.h);
// not exposed by golang.org/x/sys/unix as typed constants, so defined
// here the way low-level TUN drivers in the ecosystem do.
const (
	iffTUN     = 0x0001
	iffNoPI    = 0x1000
	iffVnetHdr = 0x4000
	tunSetIFF  = 0x400454ca
)

// Device is the single process-wide TUN device.
type Device struct {
	file *os.File
	name string
}

// Open creates (or attaches to) a TUN interface named name with the
// virtio-net header feature enabled.
func Open(name string) (*Device, error) {
	f, err := os.OpenFile(tunDevPath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", tunDevPath, err)
	}

	var ifr [ifReqSize]byte
	copy(ifr[:16], name)
	flags := uint16(iffTUN | iffNoPI | iffVnetHdr)
	ifr[16] = byte(flags)
	ifr[17] = byte(flags >> 8)

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), tunSetIFF, uintptr(unsafe.Pointer(&ifr[0]))); errno != 0 {
		f.Close()
		return nil, fmt.Errorf("TUNSETIFF: %w", errno)
	}

	return &Device{file: f, name: name}, nil
}

// Name returns the kernel interface name backing this device.
func (d *Device) Name() string { return d.name }

// Close releases the TUN file descriptor.
func (d *Device) Close() error { return d.file.Close() }

// WriteOutbound corrects buf.Hdr for the Ethernet-less TUN framing —
// subtracting the 14-byte Ethernet offset from csum_start and hdr_len —
// and writes virtio_hdr|payload to the device. buf.Data must still
// begin with the 14-byte Ethernet header the router built; those bytes
// are about to be discarded by an L3-only TUN device, so their last
// vhost.HdrSize bytes are overwritten in place with the marshaled
// header, producing one contiguous write with no allocation or copy.
func (d *Device) WriteOutbound(buf *buffer.Buffer) error {
	if len(buf.Data) < buffer.EthHeadroom {
		return fmt.Errorf("tun: outbound packet shorter than an ethernet header (%d bytes)", len(buf.Data))
	}

	hdr := buf.Hdr
	hdr.AdjustForEthernetStrip(buffer.EthHeadroom)

	frame := buf.Data[buffer.EthHeadroom-vhost.HdrSize:]
	hdr.Marshal(frame[:vhost.HdrSize])

	_, err := d.file.Write(frame)
	return err
}

// ReadInbound blocks for the next packet from the kernel, strips the
// virtio header the kernel prepends, and returns it along with the
// corrected header for re-prepending an Ethernet frame. The ethertype
// is determined from the IP version nibble of the first payload byte.
func (d *Device) ReadInbound(buf []byte) (hdr vhost.NetHeader, payload []byte, ethType uint16, err error) {
	n, err := d.file.Read(buf)
	if err != nil {
		return vhost.NetHeader{}, nil, 0, err
	}
	if n < vhost.HdrSize {
		return vhost.NetHeader{}, nil, 0, fmt.Errorf("short read from tun: %d bytes", n)
	}

	hdr = vhost.ParseNetHeader(buf[:vhost.HdrSize])
	payload = buf[vhost.HdrSize:n]
	ethType, err = ipEthertype(payload)
	if err != nil {
		return vhost.NetHeader{}, nil, 0, err
	}
	hdr.AdjustForEthernetPrepend(buffer.EthHeadroom)
	return hdr, payload, ethType, nil
}

// ipEthertype determines the Ethernet type (0x0800 / 0x86DD) from the
// IP version nibble of the first payload byte of a packet emerging
// from an L3-only TUN device.
func ipEthertype(payload []byte) (uint16, error) {
	if len(payload) == 0 {
		return 0, fmt.Errorf("empty tun payload")
	}
	switch payload[0] >> 4 {
	case 4:
		return 0x0800, nil
	case 6:
		return 0x86DD, nil
	default:
		return 0, fmt.Errorf("unrecognised IP version nibble %d", payload[0]>>4)
	}
}

// PrependEthernet builds a full Ethernet frame around payload in buf's
// headroom: src = gateway MAC, dst is a placeholder the router
// overwrites on LPM match.
func PrependEthernet(buf *buffer.Buffer, srcMAC [6]byte, ethType uint16) {
	eth := buf.Prepend(buffer.EthHeadroom)
	copy(eth[6:12], srcMAC[:])
	eth[12] = byte(ethType >> 8)
	eth[13] = byte(ethType)
}
