// Copyright 2026 mvirt authors.

package proto

import "net/netip"

func ipv4Equal(b []byte, addr netip.Addr) bool {
	if len(b) != 4 || !addr.Is4() {
		return false
	}
	a := addr.As4()
	return a[0] == b[0] && a[1] == b[1] && a[2] == b[2] && a[3] == b[3]
}

func ipv6Equal(b []byte, addr netip.Addr) bool {
	if len(b) != 16 || !addr.Is6() {
		return false
	}
	a := addr.As16()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
