// Copyright 2026 mvirt authors.

package state

func (m *Machine) applyCreateTemplate(ts string, c *CreateTemplateCmd) (Response, []Event) {
	for _, t := range m.state.Templates {
		if t.Name == c.Name {
			return errResp(409, "template with name %q already exists", c.Name), nil
		}
	}
	if existing, ok := m.state.Templates[c.ID]; ok {
		return Response{Kind: RespTemplate, Template: &existing}, nil
	}

	tmpl := Template{
		ID:         c.ID,
		ProjectID:  c.ProjectID,
		NodeID:     c.NodeID,
		Name:       c.Name,
		SizeBytes:  c.SizeBytes,
		CloneCount: 0,
		CreatedAt:  ts,
	}
	m.state.Templates[c.ID] = tmpl

	return Response{Kind: RespTemplate, Template: &tmpl}, nil
}
