// Copyright 2026 mvirt authors.

package tun

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalteJ/mvirt-sub000/internal/dataplane/buffer"
)

func TestIPEthertypeDetection(t *testing.T) {
	v4, err := ipEthertype([]byte{0x45, 0, 0, 0})
	require.NoError(t, err)
	assert.EqualValues(t, 0x0800, v4)

	v6, err := ipEthertype([]byte{0x60, 0, 0, 0})
	require.NoError(t, err)
	assert.EqualValues(t, 0x86DD, v6)

	_, err = ipEthertype([]byte{0x00})
	assert.Error(t, err)

	_, err = ipEthertype(nil)
	assert.Error(t, err)
}

func TestPrependEthernetSetsSrcAndEthertype(t *testing.T) {
	pool := buffer.NewPool(1)
	buf := pool.Get()
	buf.Data = append(buf.Data, []byte{0x45, 0, 0, 20}...)

	mac := [6]byte{0x02, 0, 0, 0, 0, 1}
	PrependEthernet(buf, mac, 0x0800)

	assert.Equal(t, mac[:], buf.Data[6:12])
	assert.Equal(t, byte(0x08), buf.Data[12])
	assert.Equal(t, byte(0x00), buf.Data[13])
	assert.Equal(t, byte(0x45), buf.Data[14])
}

func TestPrefixIPNetRoundTrip(t *testing.T) {
	p := netip.MustParsePrefix("10.1.2.0/24")
	n := prefixToIPNet(p)
	back, ok := prefixFromIPNet(n)
	require.True(t, ok)
	assert.Equal(t, p, back)

	p6 := netip.MustParsePrefix("fd00::/48")
	n6 := prefixToIPNet(p6)
	back6, ok := prefixFromIPNet(n6)
	require.True(t, ok)
	assert.Equal(t, p6, back6)
}
