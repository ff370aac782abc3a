// Copyright 2026 mvirt authors.

package store

import "github.com/MalteJ/mvirt-sub000/internal/state"

// SecurityGroups is the typed wrapper for security group and rule
// lifecycle commands. Rules are stored and returned here but not
// enforced by the dataplane in this core.
type SecurityGroups struct{ f *Facade }

func (g *SecurityGroups) List(projectID string) []state.SecurityGroup {
	s := g.f.State()
	out := make([]state.SecurityGroup, 0, len(s.SecurityGroups))
	for _, sg := range s.SecurityGroups {
		if projectID == "" || sg.ProjectID == projectID {
			out = append(out, sg)
		}
	}
	return out
}

func (g *SecurityGroups) Get(id string) (state.SecurityGroup, bool) {
	s := g.f.State()
	sg, ok := s.SecurityGroups[id]
	return sg, ok
}

func (g *SecurityGroups) Create(projectID, name, description string) (state.SecurityGroup, error) {
	resp, err := g.f.submit(state.Command{
		Kind: state.KindCreateSecurityGroup,
		CreateSecurityGroup: &state.CreateSecurityGroupCmd{
			ID: newID(), ProjectID: projectID, Name: name, Description: description,
		},
	})
	if err != nil {
		return state.SecurityGroup{}, err
	}
	return *resp.SecurityGroup, nil
}

func (g *SecurityGroups) Delete(id string) error {
	_, err := g.f.submit(state.Command{
		Kind:                state.KindDeleteSecurityGroup,
		DeleteSecurityGroup: &state.DeleteSecurityGroupCmd{ID: id},
	})
	return err
}

type CreateSGRuleRequest struct {
	SecurityGroupID string
	Direction       state.SGDirection
	Protocol        state.SGProtocol
	PortRangeStart  int
	PortRangeEnd    int
	CIDR            string
	Description     string
}

func (g *SecurityGroups) CreateRule(req CreateSGRuleRequest) (state.SecurityGroup, error) {
	resp, err := g.f.submit(state.Command{
		Kind: state.KindCreateSGRule,
		CreateSGRule: &state.CreateSGRuleCmd{
			ID: newID(), SecurityGroupID: req.SecurityGroupID, Direction: req.Direction,
			Protocol: req.Protocol, PortRangeStart: req.PortRangeStart, PortRangeEnd: req.PortRangeEnd,
			CIDR: req.CIDR, Description: req.Description,
		},
	})
	if err != nil {
		return state.SecurityGroup{}, err
	}
	return *resp.SecurityGroup, nil
}

func (g *SecurityGroups) DeleteRule(securityGroupID, ruleID string) (state.SecurityGroup, error) {
	resp, err := g.f.submit(state.Command{
		Kind:         state.KindDeleteSGRule,
		DeleteSGRule: &state.DeleteSGRuleCmd{SecurityGroupID: securityGroupID, RuleID: ruleID},
	})
	if err != nil {
		return state.SecurityGroup{}, err
	}
	return *resp.SecurityGroup, nil
}
