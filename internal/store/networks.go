// Copyright 2026 mvirt authors.

package store

import "github.com/MalteJ/mvirt-sub000/internal/state"

// Networks is the typed wrapper for per-project network lifecycle
// commands.
type Networks struct{ f *Facade }

// CreateNetworkRequest is kept as a value type so handlers never
// construct a state.Command directly.
type CreateNetworkRequest struct {
	ProjectID   string
	Name        string
	IPv4Enabled bool
	IPv4Prefix  string
	IPv6Enabled bool
	IPv6Prefix  string
	DNSServers  []string
	NTPServers  []string
	IsPublic    bool
}

func (n *Networks) List() []state.Network {
	s := n.f.State()
	out := make([]state.Network, 0, len(s.Networks))
	for _, v := range s.Networks {
		out = append(out, v)
	}
	return out
}

func (n *Networks) ListByProject(projectID string) []state.Network {
	var out []state.Network
	for _, v := range n.List() {
		if v.ProjectID == projectID {
			out = append(out, v)
		}
	}
	return out
}

func (n *Networks) Get(id string) (state.Network, bool) {
	s := n.f.State()
	v, ok := s.Networks[id]
	return v, ok
}

func (n *Networks) GetByName(name string) (state.Network, bool) {
	for _, v := range n.List() {
		if v.Name == name {
			return v, true
		}
	}
	return state.Network{}, false
}

func (n *Networks) Create(req CreateNetworkRequest) (state.Network, error) {
	resp, err := n.f.submit(state.Command{
		Kind: state.KindCreateNetwork,
		CreateNetwork: &state.CreateNetworkCmd{
			ID: newID(), ProjectID: req.ProjectID, Name: req.Name,
			IPv4Enabled: req.IPv4Enabled, IPv4Prefix: req.IPv4Prefix,
			IPv6Enabled: req.IPv6Enabled, IPv6Prefix: req.IPv6Prefix,
			DNSServers: req.DNSServers, NTPServers: req.NTPServers,
			IsPublic: req.IsPublic,
		},
	})
	if err != nil {
		return state.Network{}, err
	}
	return *resp.Network, nil
}

func (n *Networks) Update(id string, dnsServers, ntpServers []string) (state.Network, error) {
	resp, err := n.f.submit(state.Command{
		Kind: state.KindUpdateNetwork,
		UpdateNetwork: &state.UpdateNetworkCmd{
			ID: id, DNSServers: dnsServers, NTPServers: ntpServers,
		},
	})
	if err != nil {
		return state.Network{}, err
	}
	return *resp.Network, nil
}

// DeleteResult carries the cascade count back, mirroring the distilled
// source's DeleteNetworkResult.
type DeleteResult struct {
	NicsDeleted int
}

func (n *Networks) Delete(id string, force bool) (DeleteResult, error) {
	resp, err := n.f.submit(state.Command{
		Kind:          state.KindDeleteNetwork,
		DeleteNetwork: &state.DeleteNetworkCmd{ID: id, Force: force},
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{NicsDeleted: resp.NicsDeleted}, nil
}
