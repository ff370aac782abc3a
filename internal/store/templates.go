// Copyright 2026 mvirt authors.

package store

import "github.com/MalteJ/mvirt-sub000/internal/state"

// Templates is the typed wrapper for template creation and lookup;
// import_template is implemented via ImportJobs since the distilled
// source models it as an async job rather than a synchronous create.
type Templates struct{ f *Facade }

func (t *Templates) List(nodeID string) []state.Template {
	s := t.f.State()
	out := make([]state.Template, 0, len(s.Templates))
	for _, tmpl := range s.Templates {
		if nodeID == "" || tmpl.NodeID == nodeID {
			out = append(out, tmpl)
		}
	}
	return out
}

func (t *Templates) ListByProject(projectID string) []state.Template {
	var out []state.Template
	for _, tmpl := range t.List("") {
		if tmpl.ProjectID == projectID {
			out = append(out, tmpl)
		}
	}
	return out
}

func (t *Templates) Get(id string) (state.Template, bool) {
	s := t.f.State()
	tmpl, ok := s.Templates[id]
	return tmpl, ok
}

func (t *Templates) Create(projectID, nodeID, name string, sizeBytes int64) (state.Template, error) {
	resp, err := t.f.submit(state.Command{
		Kind: state.KindCreateTemplate,
		CreateTemplate: &state.CreateTemplateCmd{
			ID: newID(), ProjectID: projectID, NodeID: nodeID, Name: name, SizeBytes: sizeBytes,
		},
	})
	if err != nil {
		return state.Template{}, err
	}
	return *resp.Template, nil
}
