// Copyright 2026 mvirt authors.

package state

import (
	"net"
	"sort"
)

func (m *Machine) applyCreateNetwork(ts string, c *CreateNetworkCmd) (Response, []Event) {
	for _, n := range m.state.Networks {
		if n.Name == c.Name {
			return errResp(409, "network with name %q already exists", c.Name), nil
		}
	}
	if existing, ok := m.state.Networks[c.ID]; ok {
		return Response{Kind: RespNetwork, Network: &existing}, nil
	}
	if !c.IPv4Enabled && !c.IPv6Enabled {
		return errResp(400, "network must enable at least one of ipv4/ipv6"), nil
	}

	if c.IsPublic {
		if err := m.checkPublicOverlap(c.IPv4Prefix, c.IPv6Prefix); err != nil {
			return errResp(409, err.Error()), nil
		}
	}

	network := Network{
		ID:          c.ID,
		ProjectID:   c.ProjectID,
		Name:        c.Name,
		IPv4Enabled: c.IPv4Enabled,
		IPv4Prefix:  c.IPv4Prefix,
		IPv6Enabled: c.IPv6Enabled,
		IPv6Prefix:  c.IPv6Prefix,
		DNSServers:  append([]string(nil), c.DNSServers...),
		NTPServers:  append([]string(nil), c.NTPServers...),
		IsPublic:    c.IsPublic,
		NicCount:    0,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	m.state.Networks[c.ID] = network

	return Response{Kind: RespNetwork, Network: &network}, []Event{{
		Kind: EventNetworkCreated, Network: &network,
	}}
}

// checkPublicOverlap enforces that no two public networks may have
// overlapping IPv4 subnets, and likewise for IPv6.
func (m *Machine) checkPublicOverlap(ipv4Prefix, ipv6Prefix string) error {
	_, newV4, v4err := net.ParseCIDR(ipv4Prefix)
	_, newV6, v6err := net.ParseCIDR(ipv6Prefix)

	for _, n := range m.state.Networks {
		if !n.IsPublic {
			continue
		}
		if v4err == nil && n.IPv4Prefix != "" {
			if _, existing, err := net.ParseCIDR(n.IPv4Prefix); err == nil {
				if cidrsOverlap(newV4, existing) {
					return errConflict("ipv4 prefix %s overlaps public network %s", ipv4Prefix, n.Name)
				}
			}
		}
		if v6err == nil && n.IPv6Prefix != "" {
			if _, existing, err := net.ParseCIDR(n.IPv6Prefix); err == nil {
				if cidrsOverlap(newV6, existing) {
					return errConflict("ipv6 prefix %s overlaps public network %s", ipv6Prefix, n.Name)
				}
			}
		}
	}
	return nil
}

func cidrsOverlap(a, b *net.IPNet) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Contains(b.IP) || b.Contains(a.IP)
}

func (m *Machine) applyUpdateNetwork(ts string, c *UpdateNetworkCmd) (Response, []Event) {
	old, ok := m.state.Networks[c.ID]
	if !ok {
		return errResp(404, "network %q not found", c.ID), nil
	}

	network := old
	network.DNSServers = append([]string(nil), c.DNSServers...)
	network.NTPServers = append([]string(nil), c.NTPServers...)
	network.UpdatedAt = ts
	m.state.Networks[c.ID] = network

	return Response{Kind: RespNetwork, Network: &network}, []Event{{
		Kind: EventNetworkUpdated, OldNetwork: &old, NewNetwork: &network,
	}}
}

// applyDeleteNetwork implements the referential deletion policy for
// networks: force=false fails 409 while NICs remain; force=true
// cascade-deletes them atomically and returns DeletedWithCount.
func (m *Machine) applyDeleteNetwork(c *DeleteNetworkCmd) (Response, []Event) {
	if _, ok := m.state.Networks[c.ID]; !ok {
		return errResp(404, "network %q not found", c.ID), nil
	}

	var toDelete []Nic
	for _, n := range m.state.Nics {
		if n.NetworkID == c.ID {
			toDelete = append(toDelete, n)
		}
	}
	sort.Slice(toDelete, func(i, j int) bool { return toDelete[i].ID < toDelete[j].ID })

	if len(toDelete) > 0 && !c.Force {
		return errResp(409, "network has %d NICs, use force=true to delete", len(toDelete)), nil
	}

	var events []Event
	for _, nic := range toDelete {
		delete(m.state.Nics, nic.ID)
		if nic.SecurityGroupID != "" {
			if sg, ok := m.state.SecurityGroups[nic.SecurityGroupID]; ok {
				sg.NicCount = decr(sg.NicCount)
				m.state.SecurityGroups[nic.SecurityGroupID] = sg
			}
		}
		events = append(events, Event{Kind: EventNicDeleted, ID: nic.ID, NetworkID: nic.NetworkID})
	}

	delete(m.state.Networks, c.ID)
	events = append(events, Event{Kind: EventNetworkDeleted, ID: c.ID})

	return Response{Kind: RespDeletedWithCount, DeletedID: c.ID, NicsDeleted: len(toDelete)}, events
}

func decr(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}

func errConflict(format string, args ...any) error {
	return errResp(409, format, args...).Err
}
