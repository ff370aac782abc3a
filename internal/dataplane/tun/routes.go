// Copyright 2026 mvirt authors.

package tun

import (
	"net"
	"net/netip"

	"github.com/vishvananda/netlink"

	"github.com/MalteJ/mvirt-sub000/internal/minilog"
)

// Reconciler periodically diffs the kernel routes on a TUN link against
// the subnets of live public networks and converges them.
type Reconciler struct {
	linkName string
}

// NewReconciler targets the TUN interface named linkName.
func NewReconciler(linkName string) *Reconciler {
	return &Reconciler{linkName: linkName}
}

// Reconcile adds routes for every subnet in want that the kernel is
// missing, and removes kernel routes on this link for subnets not in
// want. want is the full set of live public network prefixes.
func (r *Reconciler) Reconcile(want []netip.Prefix) error {
	link, err := netlink.LinkByName(r.linkName)
	if err != nil {
		return err
	}

	current, err := netlink.RouteList(link, netlink.FAMILY_ALL)
	if err != nil {
		return err
	}

	wantSet := make(map[string]netip.Prefix, len(want))
	for _, p := range want {
		wantSet[p.String()] = p
	}

	haveSet := make(map[string]bool, len(current))
	for _, route := range current {
		if route.Dst == nil {
			continue
		}
		prefix, ok := prefixFromIPNet(route.Dst)
		if !ok {
			continue
		}
		haveSet[prefix.String()] = true
		if _, wanted := wantSet[prefix.String()]; !wanted {
			if err := netlink.RouteDel(&route); err != nil {
				minilog.Warn("tun: removing stale route %s: %v", prefix, err)
			}
		}
	}

	for key, prefix := range wantSet {
		if haveSet[key] {
			continue
		}
		route := &netlink.Route{
			LinkIndex: link.Attrs().Index,
			Dst:       prefixToIPNet(prefix),
		}
		if err := netlink.RouteAdd(route); err != nil {
			minilog.Warn("tun: adding route %s: %v", prefix, err)
		}
	}
	return nil
}

func prefixFromIPNet(n *net.IPNet) (netip.Prefix, bool) {
	addr, ok := netip.AddrFromSlice(n.IP)
	if !ok {
		return netip.Prefix{}, false
	}
	ones, _ := n.Mask.Size()
	return netip.PrefixFrom(addr.Unmap(), ones), true
}

func prefixToIPNet(p netip.Prefix) *net.IPNet {
	return &net.IPNet{
		IP:   p.Addr().AsSlice(),
		Mask: net.CIDRMask(p.Bits(), p.Addr().BitLen()),
	}
}
