// Copyright 2026 mvirt authors.

package store

import "github.com/MalteJ/mvirt-sub000/internal/state"

// Nics is the typed wrapper for NIC lifecycle and attach/detach
// commands.
type Nics struct{ f *Facade }

type CreateNicRequest struct {
	ProjectID          string
	NetworkID          string
	Name               string
	MACAddress         string
	IPv4Address        string
	IPv6Address        string
	RoutedIPv4Prefixes []string
	RoutedIPv6Prefixes []string
	SecurityGroupID    string
}

func (n *Nics) List(networkID string) []state.Nic {
	s := n.f.State()
	out := make([]state.Nic, 0, len(s.Nics))
	for _, v := range s.Nics {
		if networkID == "" || v.NetworkID == networkID {
			out = append(out, v)
		}
	}
	return out
}

func (n *Nics) ListByProject(projectID string) []state.Nic {
	var out []state.Nic
	for _, v := range n.List("") {
		if v.ProjectID == projectID {
			out = append(out, v)
		}
	}
	return out
}

func (n *Nics) Get(id string) (state.Nic, bool) {
	s := n.f.State()
	v, ok := s.Nics[id]
	return v, ok
}

func (n *Nics) GetByName(name string) (state.Nic, bool) {
	for _, v := range n.List("") {
		if v.Name == name {
			return v, true
		}
	}
	return state.Nic{}, false
}

func (n *Nics) Create(req CreateNicRequest) (state.Nic, error) {
	resp, err := n.f.submit(state.Command{
		Kind: state.KindCreateNic,
		CreateNic: &state.CreateNicCmd{
			ID: newID(), ProjectID: req.ProjectID, NetworkID: req.NetworkID, Name: req.Name,
			MACAddress: req.MACAddress, IPv4Address: req.IPv4Address, IPv6Address: req.IPv6Address,
			RoutedIPv4Prefixes: req.RoutedIPv4Prefixes, RoutedIPv6Prefixes: req.RoutedIPv6Prefixes,
			SecurityGroupID: req.SecurityGroupID,
		},
	})
	if err != nil {
		return state.Nic{}, err
	}
	return *resp.Nic, nil
}

func (n *Nics) Update(id string, routedIPv4, routedIPv6 []string) (state.Nic, error) {
	resp, err := n.f.submit(state.Command{
		Kind: state.KindUpdateNic,
		UpdateNic: &state.UpdateNicCmd{
			ID: id, RoutedIPv4Prefixes: routedIPv4, RoutedIPv6Prefixes: routedIPv6,
		},
	})
	if err != nil {
		return state.Nic{}, err
	}
	return *resp.Nic, nil
}

func (n *Nics) Delete(id string) error {
	_, err := n.f.submit(state.Command{
		Kind:      state.KindDeleteNic,
		DeleteNic: &state.DeleteNicCmd{ID: id},
	})
	return err
}

func (n *Nics) Attach(id, vmID string) (state.Nic, error) {
	resp, err := n.f.submit(state.Command{
		Kind:      state.KindAttachNic,
		AttachNic: &state.AttachNicCmd{ID: id, VMID: vmID},
	})
	if err != nil {
		return state.Nic{}, err
	}
	return *resp.Nic, nil
}

func (n *Nics) Detach(id string) (state.Nic, error) {
	resp, err := n.f.submit(state.Command{
		Kind:      state.KindDetachNic,
		DetachNic: &state.DetachNicCmd{ID: id},
	})
	if err != nil {
		return state.Nic{}, err
	}
	return *resp.Nic, nil
}
