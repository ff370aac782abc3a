// Copyright 2026 mvirt authors.

package store

import "github.com/MalteJ/mvirt-sub000/internal/state"

// Projects is the typed wrapper for project lifecycle commands.
type Projects struct{ f *Facade }

func (p *Projects) List() []state.Project {
	s := p.f.State()
	out := make([]state.Project, 0, len(s.Projects))
	for _, v := range s.Projects {
		out = append(out, v)
	}
	return out
}

func (p *Projects) Get(id string) (state.Project, bool) {
	s := p.f.State()
	v, ok := s.Projects[id]
	return v, ok
}

func (p *Projects) GetByName(name string) (state.Project, bool) {
	for _, v := range p.List() {
		if v.Name == name {
			return v, true
		}
	}
	return state.Project{}, false
}

func (p *Projects) Create(name, description string) (state.Project, error) {
	resp, err := p.f.submit(state.Command{
		Kind:          state.KindCreateProject,
		CreateProject: &state.CreateProjectCmd{ID: newID(), Name: name, Description: description},
	})
	if err != nil {
		return state.Project{}, err
	}
	return *resp.Project, nil
}

func (p *Projects) Delete(id string) error {
	_, err := p.f.submit(state.Command{
		Kind:          state.KindDeleteProject,
		DeleteProject: &state.DeleteProjectCmd{ID: id},
	})
	return err
}
