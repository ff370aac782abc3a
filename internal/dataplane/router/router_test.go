// Copyright 2026 mvirt authors.

package router

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalteJ/mvirt-sub000/internal/dataplane/buffer"
)

func ipv4Frame(dstMAC, srcMAC [6]byte, dstIP [4]byte) *buffer.Buffer {
	pool := buffer.NewPool(1)
	buf := pool.Get()
	eth := buf.Prepend(14)
	copy(eth[0:6], dstMAC[:])
	copy(eth[6:12], srcMAC[:])
	eth[12], eth[13] = 0x08, 0x00

	ip := make([]byte, 20)
	ip[0] = 0x45
	copy(ip[16:20], dstIP[:])
	buf.Data = append(buf.Data, ip...)
	return buf
}

var gwMAC = [6]byte{0x02, 0, 0, 0, 0, 1}

func TestRouteToKnownNIC(t *testing.T) {
	r := New(false, gwMAC)
	nicPrefix := netip.MustParsePrefix("10.0.0.5/32")
	r.AddRoute(nicPrefix, "nic-b", true)

	ch := make(chan *buffer.Buffer, 1)
	nicMAC := [6]byte{0xde, 0xad, 0xbe, 0xef, 0, 1}
	r.AttachNIC("nic-b", nicMAC, ch)

	buf := ipv4Frame([6]byte{}, [6]byte{}, [4]byte{10, 0, 0, 5})
	verdict, target := r.Route("nic-a", buf)

	require.Equal(t, Routed, verdict)
	assert.Equal(t, (chan<- *buffer.Buffer)(ch), target)
	assert.Equal(t, nicMAC[:], buf.Data[0:6])
	assert.Equal(t, gwMAC[:], buf.Data[6:12])
}

func TestRouteFallsThroughToInternetWhenPublic(t *testing.T) {
	r := New(true, gwMAC)
	buf := ipv4Frame([6]byte{}, [6]byte{}, [4]byte{8, 8, 8, 8})

	verdict, target := r.Route("nic-a", buf)
	assert.Equal(t, ToInternet, verdict)
	assert.Nil(t, target)
}

func TestRouteDroppedWhenPrivateAndUnmatched(t *testing.T) {
	r := New(false, gwMAC)
	buf := ipv4Frame([6]byte{}, [6]byte{}, [4]byte{8, 8, 8, 8})

	verdict, _ := r.Route("nic-a", buf)
	assert.Equal(t, Dropped, verdict)
}

func TestRouteDroppedForNonIPEthertype(t *testing.T) {
	pool := buffer.NewPool(1)
	buf := pool.Get()
	eth := buf.Prepend(14)
	eth[12], eth[13] = 0x08, 0x06 // ARP

	r := New(true, gwMAC)
	verdict, _ := r.Route("nic-a", buf)
	assert.Equal(t, Dropped, verdict)
}

func TestRouteSkipsSelfSourcedNIC(t *testing.T) {
	r := New(false, gwMAC)
	r.AddRoute(netip.MustParsePrefix("10.0.0.5/32"), "nic-a", true)
	ch := make(chan *buffer.Buffer, 1)
	r.AttachNIC("nic-a", [6]byte{1}, ch)

	buf := ipv4Frame([6]byte{}, [6]byte{}, [4]byte{10, 0, 0, 5})
	verdict, _ := r.Route("nic-a", buf)
	assert.Equal(t, Dropped, verdict)
}

func TestLongestPrefixMatchPrefersDirectRoute(t *testing.T) {
	r := New(false, gwMAC)
	r.AddRoute(netip.MustParsePrefix("10.0.0.0/24"), "nic-subnet", false)
	r.AddRoute(netip.MustParsePrefix("10.0.0.5/32"), "nic-direct", true)

	chSubnet := make(chan *buffer.Buffer, 1)
	chDirect := make(chan *buffer.Buffer, 1)
	r.AttachNIC("nic-subnet", [6]byte{1}, chSubnet)
	r.AttachNIC("nic-direct", [6]byte{2}, chDirect)

	buf := ipv4Frame([6]byte{}, [6]byte{}, [4]byte{10, 0, 0, 5})
	verdict, target := r.Route("nic-other", buf)

	require.Equal(t, Routed, verdict)
	assert.Equal(t, (chan<- *buffer.Buffer)(chDirect), target)
}
