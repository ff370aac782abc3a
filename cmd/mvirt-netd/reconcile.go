// Copyright 2026 mvirt authors.

package main

import (
	"fmt"
	"net"
	"net/netip"
	"path/filepath"
	"sync"

	"github.com/MalteJ/mvirt-sub000/internal/dataplane/proto"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/router"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/worker"
	"github.com/MalteJ/mvirt-sub000/internal/minilog"
	"github.com/MalteJ/mvirt-sub000/internal/state"
	"github.com/MalteJ/mvirt-sub000/internal/store"
)

// gatewayMAC is the synthetic layer-2 identity every per-NIC gateway
// answers ARP/NDP for. A single fixed value is used here since the
// gateway is never a real host interface and each network's traffic
// is isolated by its own router.
var gatewayMAC = [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}

// defaultLeaseSeconds is handed out in every DHCPv4/DHCPv6 lease.
const defaultLeaseSeconds = 3600

// networkSnapshot is the subset of a state.Network reconcile cares
// about changing, used to detect when a known network's routable
// configuration has drifted since the last pass.
type networkSnapshot struct {
	ipv4Prefix string
	ipv6Prefix string
	isPublic   bool
}

// reconciler diffs the control plane's authoritative networks/NICs
// against the dataplane's live routers and workers, and converges the
// latter to match.
type reconciler struct {
	facade    *store.Facade
	mgr       *worker.Manager
	socketDir string

	mu       sync.Mutex
	networks map[string]networkSnapshot
	nics     map[string]string // nic id -> network id, for workers currently running
}

// reconcile runs one convergence pass: stop workers/routers for
// networks/NICs no longer present (or no longer connected), start
// workers for newly-connected NICs, and register routes for every
// NIC's addresses and routed prefixes.
func (r *reconciler) reconcile() {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.facade.State()

	wantNics := make(map[string]state.Nic, len(snap.Nics))
	for id, nic := range snap.Nics {
		if nic.State == state.NicConnected {
			wantNics[id] = nic
		}
	}

	for nicID := range r.nics {
		if _, ok := wantNics[nicID]; ok {
			continue
		}
		minilog.Info("netd: nic %s no longer connected, stopping worker", nicID)
		r.mgr.Stop(nicID)
		delete(r.nics, nicID)
	}

	for netID := range r.networks {
		if _, ok := snap.Networks[netID]; !ok {
			minilog.Info("netd: network %s deleted, removing router", netID)
			r.mgr.RemoveNetwork(netID)
			delete(r.networks, netID)
		}
	}

	for netID, network := range snap.Networks {
		cur := networkSnapshot{ipv4Prefix: network.IPv4Prefix, ipv6Prefix: network.IPv6Prefix, isPublic: network.IsPublic}
		if prev, ok := r.networks[netID]; ok && prev != cur {
			minilog.Info("netd: network %s configuration changed, recreating router", netID)
			r.mgr.RemoveNetwork(netID)
			r.forgetNicsOn(netID)
		}
		r.networks[netID] = cur
		rt := r.mgr.Router(netID, network.IsPublic, gatewayMAC)

		for _, nic := range wantNics {
			if nic.NetworkID != netID {
				continue
			}
			r.installRoutes(rt, nic)
		}
	}

	for nicID, nic := range wantNics {
		if _, running := r.nics[nicID]; running {
			continue
		}
		network, ok := snap.Networks[nic.NetworkID]
		if !ok {
			continue
		}
		if err := r.startWorker(network, nic); err != nil {
			minilog.Error("netd: starting worker for nic %s: %v", nicID, err)
			continue
		}
		r.nics[nicID] = nic.NetworkID
	}
}

// forgetNicsOn drops every tracked nic id belonging to networkID so a
// later pass re-evaluates and restarts them against the freshly
// recreated router.
func (r *reconciler) forgetNicsOn(networkID string) {
	for nicID, netID := range r.nics {
		if netID == networkID {
			delete(r.nics, nicID)
		}
	}
}

// installRoutes registers a vNIC's addresses and any additionally
// routed prefixes as LPM entries, replacing router.AddRoute calls the
// control plane would otherwise have had to perform directly.
func (r *reconciler) installRoutes(rt *router.Router, nic state.Nic) {
	if nic.IPv4Address != "" {
		if p, err := netip.ParsePrefix(nic.IPv4Address + "/32"); err == nil {
			rt.AddRoute(p, nic.ID, true)
		}
	}
	if nic.IPv6Address != "" {
		if p, err := netip.ParsePrefix(nic.IPv6Address + "/128"); err == nil {
			rt.AddRoute(p, nic.ID, true)
		}
	}
	for _, cidr := range nic.RoutedIPv4Prefixes {
		if p, err := netip.ParsePrefix(cidr); err == nil {
			rt.AddRoute(p, nic.ID, false)
		}
	}
	for _, cidr := range nic.RoutedIPv6Prefixes {
		if p, err := netip.ParsePrefix(cidr); err == nil {
			rt.AddRoute(p, nic.ID, false)
		}
	}
}

// startWorker spawns the vNIC worker for one newly-connected NIC,
// deriving its gateway identity from the owning network.
func (r *reconciler) startWorker(network state.Network, nic state.Nic) error {
	mac, err := net6ToMAC(nic.MACAddress)
	if err != nil {
		return fmt.Errorf("parsing mac %q: %w", nic.MACAddress, err)
	}

	id, err := gatewayIdentity(network, nic)
	if err != nil {
		return fmt.Errorf("building gateway identity: %w", err)
	}

	cfg := worker.Config{
		NicID:      nic.ID,
		SocketPath: filepath.Join(r.socketDir, nic.ID+".sock"),
		Identity:   id,
	}
	_, err = r.mgr.Start(nic.NetworkID, cfg, mac)
	return err
}

// publicPrefixes returns every live public network's routable prefixes,
// the set the TUN link's kernel routes must converge to.
func (r *reconciler) publicPrefixes() []netip.Prefix {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []netip.Prefix
	for _, snap := range r.networks {
		if !snap.isPublic {
			continue
		}
		if snap.ipv4Prefix != "" {
			if p, err := netip.ParsePrefix(snap.ipv4Prefix); err == nil {
				out = append(out, p)
			}
		}
		if snap.ipv6Prefix != "" {
			if p, err := netip.ParsePrefix(snap.ipv6Prefix); err == nil {
				out = append(out, p)
			}
		}
	}
	return out
}

// gatewayIdentity builds the per-NIC synthetic gateway address set a
// vNIC worker's protocol handlers answer for.
func gatewayIdentity(network state.Network, nic state.Nic) (proto.GatewayIdentity, error) {
	id := proto.GatewayIdentity{
		MAC:       gatewayMAC,
		IsPublic:  network.IsPublic,
		LeaseTime: defaultLeaseSeconds,
	}

	if network.IPv4Enabled && network.IPv4Prefix != "" {
		gw, err := firstUsable(network.IPv4Prefix)
		if err != nil {
			return id, err
		}
		id.GatewayIPv4 = gw
	}
	if network.IPv6Enabled && network.IPv6Prefix != "" {
		gw, err := firstUsable(network.IPv6Prefix)
		if err != nil {
			return id, err
		}
		id.GatewayIPv6 = gw
	}
	if nic.IPv4Address != "" {
		addr, err := netip.ParseAddr(nic.IPv4Address)
		if err != nil {
			return id, fmt.Errorf("nic ipv4 address %q: %w", nic.IPv4Address, err)
		}
		id.NicIPv4 = addr
	}
	if nic.IPv6Address != "" {
		addr, err := netip.ParseAddr(nic.IPv6Address)
		if err != nil {
			return id, fmt.Errorf("nic ipv6 address %q: %w", nic.IPv6Address, err)
		}
		id.NicIPv6 = addr
	}
	for _, s := range network.DNSServers {
		if addr, err := netip.ParseAddr(s); err == nil {
			id.DNS = append(id.DNS, addr)
		}
	}
	for _, s := range network.NTPServers {
		if addr, err := netip.ParseAddr(s); err == nil {
			id.NTP = append(id.NTP, addr)
		}
	}
	return id, nil
}

// firstUsable returns the first host address within prefix (the
// network address plus one), the network's de-facto gateway address.
func firstUsable(prefix string) (netip.Addr, error) {
	p, err := netip.ParsePrefix(prefix)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("parsing prefix %q: %w", prefix, err)
	}
	return p.Masked().Addr().Next(), nil
}

// net6ToMAC parses a colon-separated MAC address string into the fixed
// 6-byte form the dataplane packages use throughout.
func net6ToMAC(s string) ([6]byte, error) {
	var out [6]byte
	hw, err := net.ParseMAC(s)
	if err != nil {
		return out, err
	}
	if len(hw) != 6 {
		return out, fmt.Errorf("mac %q is not 6 bytes", s)
	}
	copy(out[:], hw)
	return out, nil
}
