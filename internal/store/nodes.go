// Copyright 2026 mvirt authors.

package store

import (
	"github.com/MalteJ/mvirt-sub000/internal/state"
)

// Nodes is the typed wrapper for node registration/lifecycle commands.
type Nodes struct{ f *Facade }

func (n *Nodes) List() []state.Node {
	s := n.f.State()
	out := make([]state.Node, 0, len(s.Nodes))
	for _, v := range s.Nodes {
		out = append(out, v)
	}
	return out
}

func (n *Nodes) ListOnline() []state.Node {
	var out []state.Node
	for _, v := range n.List() {
		if v.Status == state.NodeOnline {
			out = append(out, v)
		}
	}
	return out
}

func (n *Nodes) Get(id string) (state.Node, bool) {
	s := n.f.State()
	v, ok := s.Nodes[id]
	return v, ok
}

func (n *Nodes) GetByName(name string) (state.Node, bool) {
	for _, v := range n.List() {
		if v.Name == name {
			return v, true
		}
	}
	return state.Node{}, false
}

func (n *Nodes) Register(id, name, address string, resources state.NodeResources, labels map[string]string) (state.Node, error) {
	resp, err := n.f.submit(state.Command{
		Kind: state.KindRegisterNode,
		RegisterNode: &state.RegisterNodeCmd{
			ID: id, Name: name, Address: address, Resources: resources, Labels: labels,
		},
	})
	if err != nil {
		return state.Node{}, err
	}
	return *resp.Node, nil
}

func (n *Nodes) UpdateStatus(id string, status state.NodeStatus, resources *state.NodeResources) (state.Node, error) {
	resp, err := n.f.submit(state.Command{
		Kind: state.KindUpdateNodeStatus,
		UpdateNodeStatus: &state.UpdateNodeStatusCmd{
			NodeID: id, Status: status, Resources: resources,
		},
	})
	if err != nil {
		return state.Node{}, err
	}
	return *resp.Node, nil
}

func (n *Nodes) UpdateLabels(id string, labels map[string]string) (state.Node, error) {
	resp, err := n.f.submit(state.Command{
		Kind:             state.KindUpdateNodeLabels,
		UpdateNodeLabels: &state.UpdateNodeLabelsCmd{NodeID: id, Labels: labels},
	})
	if err != nil {
		return state.Node{}, err
	}
	return *resp.Node, nil
}

func (n *Nodes) Deregister(id string) error {
	_, err := n.f.submit(state.Command{
		Kind:           state.KindDeregisterNode,
		DeregisterNode: &state.DeregisterNodeCmd{NodeID: id},
	})
	return err
}
