// Copyright 2026 mvirt authors.

package state

import "fmt"

func (m *Machine) applyCreateNic(ts string, c *CreateNicCmd) (Response, []Event) {
	network, ok := m.state.Networks[c.NetworkID]
	if !ok {
		return errResp(404, "network %q not found", c.NetworkID), nil
	}
	if c.SecurityGroupID != "" {
		if _, ok := m.state.SecurityGroups[c.SecurityGroupID]; !ok {
			return errResp(404, "security group %q not found", c.SecurityGroupID), nil
		}
	}
	if existing, ok := m.state.Nics[c.ID]; ok {
		return Response{Kind: RespNic, Nic: &existing}, nil
	}

	mac := c.MACAddress
	if mac == "" {
		mac = deriveMAC(c.ID)
	}

	nic := Nic{
		ID:                 c.ID,
		ProjectID:          c.ProjectID,
		Name:               c.Name,
		NetworkID:          c.NetworkID,
		MACAddress:         mac,
		IPv4Address:        c.IPv4Address,
		IPv6Address:        c.IPv6Address,
		RoutedIPv4Prefixes: append([]string(nil), c.RoutedIPv4Prefixes...),
		RoutedIPv6Prefixes: append([]string(nil), c.RoutedIPv6Prefixes...),
		SecurityGroupID:    c.SecurityGroupID,
		SocketPath:         fmt.Sprintf("/run/mvirt-net/nic-%s.sock", c.ID),
		State:              NicCreated,
		CreatedAt:          ts,
		UpdatedAt:          ts,
	}
	m.state.Nics[c.ID] = nic

	network.NicCount++
	m.state.Networks[c.NetworkID] = network

	if nic.SecurityGroupID != "" {
		sg := m.state.SecurityGroups[nic.SecurityGroupID]
		sg.NicCount++
		m.state.SecurityGroups[nic.SecurityGroupID] = sg
	}

	return Response{Kind: RespNic, Nic: &nic}, []Event{{Kind: EventNicCreated, Nic: &nic}}
}

func (m *Machine) applyUpdateNic(ts string, c *UpdateNicCmd) (Response, []Event) {
	old, ok := m.state.Nics[c.ID]
	if !ok {
		return errResp(404, "NIC %q not found", c.ID), nil
	}

	nic := old
	nic.RoutedIPv4Prefixes = append([]string(nil), c.RoutedIPv4Prefixes...)
	nic.RoutedIPv6Prefixes = append([]string(nil), c.RoutedIPv6Prefixes...)
	nic.UpdatedAt = ts
	m.state.Nics[c.ID] = nic

	return Response{Kind: RespNic, Nic: &nic}, []Event{{Kind: EventNicUpdated, OldNic: &old, NewNic: &nic}}
}

func (m *Machine) applyDeleteNic(c *DeleteNicCmd) (Response, []Event) {
	nic, ok := m.state.Nics[c.ID]
	if !ok {
		return errResp(404, "NIC %q not found", c.ID), nil
	}
	delete(m.state.Nics, c.ID)

	if network, ok := m.state.Networks[nic.NetworkID]; ok {
		network.NicCount = decr(network.NicCount)
		m.state.Networks[nic.NetworkID] = network
	}
	if nic.SecurityGroupID != "" {
		if sg, ok := m.state.SecurityGroups[nic.SecurityGroupID]; ok {
			sg.NicCount = decr(sg.NicCount)
			m.state.SecurityGroups[nic.SecurityGroupID] = sg
		}
	}

	return Response{Kind: RespDeleted, DeletedID: c.ID}, []Event{{
		Kind: EventNicDeleted, ID: c.ID, NetworkID: nic.NetworkID,
	}}
}

// applyAttachNic attaches a NIC to a VM: 409 on re-attach, 404 on
// unknown VM.
func (m *Machine) applyAttachNic(ts string, c *AttachNicCmd) (Response, []Event) {
	old, ok := m.state.Nics[c.ID]
	if !ok {
		return errResp(404, "NIC %q not found", c.ID), nil
	}
	if old.VMID != "" {
		return errResp(409, "NIC %q is already attached to a VM", c.ID), nil
	}
	if _, ok := m.state.VMs[c.VMID]; !ok {
		return errResp(404, "VM %q not found", c.VMID), nil
	}

	nic := old
	nic.VMID = c.VMID
	nic.UpdatedAt = ts
	m.state.Nics[c.ID] = nic

	return Response{Kind: RespNic, Nic: &nic}, []Event{{Kind: EventNicUpdated, OldNic: &old, NewNic: &nic}}
}

// applyDetachNic unconditionally clears vm_id — it does not verify the
// NIC was attached to the VM the caller thinks it was.
func (m *Machine) applyDetachNic(ts string, c *DetachNicCmd) (Response, []Event) {
	old, ok := m.state.Nics[c.ID]
	if !ok {
		return errResp(404, "NIC %q not found", c.ID), nil
	}

	nic := old
	nic.VMID = ""
	nic.UpdatedAt = ts
	m.state.Nics[c.ID] = nic

	return Response{Kind: RespNic, Nic: &nic}, []Event{{Kind: EventNicUpdated, OldNic: &old, NewNic: &nic}}
}
