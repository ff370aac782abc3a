// Copyright 2026 mvirt authors.

package state

func (m *Machine) applyRegisterNode(ts string, c *RegisterNodeCmd) (Response, []Event) {
	for _, n := range m.state.Nodes {
		if n.Name == c.Name {
			return errResp(409, "node with name %q already exists", c.Name), nil
		}
	}
	if existing, ok := m.state.Nodes[c.ID]; ok {
		return Response{Kind: RespNode, Node: &existing}, nil
	}

	node := Node{
		ID:            c.ID,
		Name:          c.Name,
		Address:       c.Address,
		Status:        NodeOnline,
		Resources:     c.Resources,
		Labels:        cloneMap(c.Labels),
		LastHeartbeat: ts,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	m.state.Nodes[c.ID] = node

	return Response{Kind: RespNode, Node: &node}, []Event{{Kind: EventNodeRegistered, Node: &node}}
}

func (m *Machine) applyUpdateNodeStatus(ts string, c *UpdateNodeStatusCmd) (Response, []Event) {
	old, ok := m.state.Nodes[c.NodeID]
	if !ok {
		return errResp(404, "node %q not found", c.NodeID), nil
	}

	node := old
	node.Status = c.Status
	if c.Resources != nil {
		node.Resources = *c.Resources
	}
	node.LastHeartbeat = ts
	node.UpdatedAt = ts
	m.state.Nodes[c.NodeID] = node

	return Response{Kind: RespNode, Node: &node}, []Event{{
		Kind: EventNodeUpdated, OldNode: &old, NewNode: &node,
	}}
}

func (m *Machine) applyUpdateNodeLabels(ts string, c *UpdateNodeLabelsCmd) (Response, []Event) {
	old, ok := m.state.Nodes[c.NodeID]
	if !ok {
		return errResp(404, "node %q not found", c.NodeID), nil
	}

	node := old
	node.Labels = cloneMap(c.Labels)
	node.UpdatedAt = ts
	m.state.Nodes[c.NodeID] = node

	return Response{Kind: RespNode, Node: &node}, []Event{{
		Kind: EventNodeUpdated, OldNode: &old, NewNode: &node,
	}}
}

func (m *Machine) applyDeregisterNode(c *DeregisterNodeCmd) (Response, []Event) {
	node, ok := m.state.Nodes[c.NodeID]
	if !ok {
		return errResp(404, "node %q not found", c.NodeID), nil
	}
	delete(m.state.Nodes, c.NodeID)

	return Response{Kind: RespDeleted, DeletedID: c.NodeID}, []Event{{
		Kind: EventNodeDeregistered, ID: c.NodeID, Node: &node,
	}}
}
