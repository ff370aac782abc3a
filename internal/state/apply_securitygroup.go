// Copyright 2026 mvirt authors.

package state

func (m *Machine) applyCreateSecurityGroup(ts string, c *CreateSecurityGroupCmd) (Response, []Event) {
	if existing, ok := m.state.SecurityGroups[c.ID]; ok {
		return Response{Kind: RespSecurityGroup, SecurityGroup: &existing}, nil
	}
	for _, sg := range m.state.SecurityGroups {
		if sg.ProjectID == c.ProjectID && sg.Name == c.Name {
			return errResp(409, "security group %q already exists in project", c.Name), nil
		}
	}
	if _, ok := m.state.Projects[c.ProjectID]; !ok {
		return errResp(404, "project %q not found", c.ProjectID), nil
	}

	sg := SecurityGroup{
		ID:          c.ID,
		ProjectID:   c.ProjectID,
		Name:        c.Name,
		Description: c.Description,
		NicCount:    0,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	m.state.SecurityGroups[c.ID] = sg

	return Response{Kind: RespSecurityGroup, SecurityGroup: &sg}, []Event{{
		Kind: EventSecurityGroupCreated, ID: c.ID,
	}}
}

// applyDeleteSecurityGroup rejects deletion while any NIC still
// references the group.
func (m *Machine) applyDeleteSecurityGroup(c *DeleteSecurityGroupCmd) (Response, []Event) {
	for _, n := range m.state.Nics {
		if n.SecurityGroupID == c.ID {
			return errResp(409, "security group %q is still referenced by NICs", c.ID), nil
		}
	}
	if _, ok := m.state.SecurityGroups[c.ID]; !ok {
		return errResp(404, "security group %q not found", c.ID), nil
	}
	delete(m.state.SecurityGroups, c.ID)

	return Response{Kind: RespDeleted, DeletedID: c.ID}, []Event{{
		Kind: EventSecurityGroupDeleted, ID: c.ID,
	}}
}

func (m *Machine) applyCreateSGRule(ts string, c *CreateSGRuleCmd) (Response, []Event) {
	sg, ok := m.state.SecurityGroups[c.SecurityGroupID]
	if !ok {
		return errResp(404, "security group %q not found", c.SecurityGroupID), nil
	}
	for _, r := range sg.Rules {
		if r.ID == c.ID {
			return Response{Kind: RespSecurityGroup, SecurityGroup: &sg}, nil
		}
	}

	sg.Rules = append(sg.Rules, SecurityGroupRule{
		ID:             c.ID,
		Direction:      c.Direction,
		Protocol:       c.Protocol,
		PortRangeStart: c.PortRangeStart,
		PortRangeEnd:   c.PortRangeEnd,
		CIDR:           c.CIDR,
		Description:    c.Description,
		CreatedAt:      ts,
	})
	sg.UpdatedAt = ts
	m.state.SecurityGroups[c.SecurityGroupID] = sg

	return Response{Kind: RespSecurityGroup, SecurityGroup: &sg}, nil
}

func (m *Machine) applyDeleteSGRule(c *DeleteSGRuleCmd) (Response, []Event) {
	sg, ok := m.state.SecurityGroups[c.SecurityGroupID]
	if !ok {
		return errResp(404, "security group %q not found", c.SecurityGroupID), nil
	}

	before := len(sg.Rules)
	filtered := sg.Rules[:0:0]
	for _, r := range sg.Rules {
		if r.ID != c.RuleID {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == before {
		return errResp(404, "rule %q not found", c.RuleID), nil
	}
	sg.Rules = filtered
	m.state.SecurityGroups[c.SecurityGroupID] = sg

	return Response{Kind: RespSecurityGroup, SecurityGroup: &sg}, nil
}
