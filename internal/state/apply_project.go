// Copyright 2026 mvirt authors.

package state

func (m *Machine) applyCreateProject(ts string, c *CreateProjectCmd) (Response, []Event) {
	for _, p := range m.state.Projects {
		if p.Name == c.Name {
			return errResp(409, "project with name %q already exists", c.Name), nil
		}
	}
	if existing, ok := m.state.Projects[c.ID]; ok {
		return Response{Kind: RespProject, Project: &existing}, nil
	}

	project := Project{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: ts}
	m.state.Projects[c.ID] = project

	return Response{Kind: RespProject, Project: &project}, nil
}

// applyDeleteProject deletes a project. No referential guard against
// owned volumes/networks/security groups is enforced here; deleting a
// project with live children is the caller's responsibility to avoid.
func (m *Machine) applyDeleteProject(c *DeleteProjectCmd) (Response, []Event) {
	if _, ok := m.state.Projects[c.ID]; !ok {
		return errResp(404, "project %q not found", c.ID), nil
	}
	delete(m.state.Projects, c.ID)

	return Response{Kind: RespDeleted, DeletedID: c.ID}, nil
}
