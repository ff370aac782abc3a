// Copyright 2026 mvirt authors.

package main

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalteJ/mvirt-sub000/internal/state"
)

func TestFirstUsableReturnsNetworkAddressPlusOne(t *testing.T) {
	gw, err := firstUsable("10.20.0.0/24")
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("10.20.0.1"), gw)

	gw6, err := firstUsable("fd00:1::/64")
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("fd00:1::1"), gw6)
}

func TestFirstUsableMasksHostBits(t *testing.T) {
	gw, err := firstUsable("10.20.0.17/24")
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("10.20.0.1"), gw)
}

func TestFirstUsableRejectsInvalidPrefix(t *testing.T) {
	_, err := firstUsable("not-a-prefix")
	assert.Error(t, err)
}

func TestNet6ToMACRoundTrips(t *testing.T) {
	mac, err := net6ToMAC("02:00:00:00:00:01")
	require.NoError(t, err)
	assert.Equal(t, [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}, mac)
}

func TestNet6ToMACRejectsShortAddress(t *testing.T) {
	_, err := net6ToMAC("02:00:00")
	assert.Error(t, err)
}

func TestNet6ToMACRejectsGarbage(t *testing.T) {
	_, err := net6ToMAC("not-a-mac")
	assert.Error(t, err)
}

func TestGatewayIdentityPopulatesBothFamilies(t *testing.T) {
	network := state.Network{
		IPv4Enabled: true,
		IPv4Prefix:  "10.20.0.0/24",
		IPv6Enabled: true,
		IPv6Prefix:  "fd00:1::/64",
		IsPublic:    true,
		DNSServers:  []string{"1.1.1.1", "not-an-ip"},
		NTPServers:  []string{"2.2.2.2"},
	}
	nic := state.Nic{
		IPv4Address: "10.20.0.5",
		IPv6Address: "fd00:1::5",
	}

	id, err := gatewayIdentity(network, nic)
	require.NoError(t, err)

	assert.Equal(t, gatewayMAC, id.MAC)
	assert.True(t, id.IsPublic)
	assert.EqualValues(t, defaultLeaseSeconds, id.LeaseTime)
	assert.Equal(t, netip.MustParseAddr("10.20.0.1"), id.GatewayIPv4)
	assert.Equal(t, netip.MustParseAddr("fd00:1::1"), id.GatewayIPv6)
	assert.Equal(t, netip.MustParseAddr("10.20.0.5"), id.NicIPv4)
	assert.Equal(t, netip.MustParseAddr("fd00:1::5"), id.NicIPv6)
	require.Len(t, id.DNS, 1)
	assert.Equal(t, netip.MustParseAddr("1.1.1.1"), id.DNS[0])
	require.Len(t, id.NTP, 1)
	assert.Equal(t, netip.MustParseAddr("2.2.2.2"), id.NTP[0])
}

func TestGatewayIdentitySkipsDisabledFamilies(t *testing.T) {
	network := state.Network{IPv4Enabled: false, IPv6Enabled: false, IsPublic: false}
	nic := state.Nic{}

	id, err := gatewayIdentity(network, nic)
	require.NoError(t, err)

	assert.False(t, id.GatewayIPv4.IsValid())
	assert.False(t, id.GatewayIPv6.IsValid())
	assert.False(t, id.NicIPv4.IsValid())
	assert.False(t, id.NicIPv6.IsValid())
}

func TestGatewayIdentityRejectsMalformedNicAddress(t *testing.T) {
	network := state.Network{}
	nic := state.Nic{IPv4Address: "not-an-ip"}

	_, err := gatewayIdentity(network, nic)
	assert.Error(t, err)
}

func TestForgetNicsOnRemovesOnlyMatchingNetwork(t *testing.T) {
	r := &reconciler{
		nics: map[string]string{
			"nic-a": "net-1",
			"nic-b": "net-1",
			"nic-c": "net-2",
		},
	}

	r.forgetNicsOn("net-1")

	_, aStillThere := r.nics["nic-a"]
	_, bStillThere := r.nics["nic-b"]
	_, cStillThere := r.nics["nic-c"]
	assert.False(t, aStillThere)
	assert.False(t, bStillThere)
	assert.True(t, cStillThere)
}

func TestPublicPrefixesSkipsNonPublicAndUnparseable(t *testing.T) {
	r := &reconciler{
		networks: map[string]networkSnapshot{
			"net-1": {ipv4Prefix: "10.0.0.0/24", ipv6Prefix: "fd00::/64", isPublic: true},
			"net-2": {ipv4Prefix: "192.168.0.0/24", isPublic: false},
			"net-3": {ipv4Prefix: "garbage", isPublic: true},
		},
	}

	prefixes := r.publicPrefixes()
	require.Len(t, prefixes, 2)
	assert.Contains(t, prefixes, netip.MustParsePrefix("10.0.0.0/24"))
	assert.Contains(t, prefixes, netip.MustParsePrefix("fd00::/64"))
}
