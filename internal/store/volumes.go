// Copyright 2026 mvirt authors.

package store

import "github.com/MalteJ/mvirt-sub000/internal/state"

// Volumes is the typed wrapper for volume and snapshot lifecycle
// commands.
type Volumes struct{ f *Facade }

type CreateVolumeRequest struct {
	ProjectID  string
	NodeID     string
	Name       string
	SizeBytes  int64
	TemplateID string
}

func (v *Volumes) List(projectID string) []state.Volume {
	s := v.f.State()
	out := make([]state.Volume, 0, len(s.Volumes))
	for _, vol := range s.Volumes {
		if projectID == "" || vol.ProjectID == projectID {
			out = append(out, vol)
		}
	}
	return out
}

func (v *Volumes) Get(id string) (state.Volume, bool) {
	s := v.f.State()
	vol, ok := s.Volumes[id]
	return vol, ok
}

func (v *Volumes) Create(req CreateVolumeRequest) (state.Volume, error) {
	resp, err := v.f.submit(state.Command{
		Kind: state.KindCreateVolume,
		CreateVolume: &state.CreateVolumeCmd{
			ID: newID(), ProjectID: req.ProjectID, NodeID: req.NodeID,
			Name: req.Name, SizeBytes: req.SizeBytes, TemplateID: req.TemplateID,
		},
	})
	if err != nil {
		return state.Volume{}, err
	}
	return *resp.Volume, nil
}

func (v *Volumes) Delete(id string) error {
	_, err := v.f.submit(state.Command{
		Kind:         state.KindDeleteVolume,
		DeleteVolume: &state.DeleteVolumeCmd{ID: id},
	})
	return err
}

func (v *Volumes) Resize(id string, sizeBytes int64) (state.Volume, error) {
	resp, err := v.f.submit(state.Command{
		Kind:         state.KindResizeVolume,
		ResizeVolume: &state.ResizeVolumeCmd{ID: id, SizeBytes: sizeBytes},
	})
	if err != nil {
		return state.Volume{}, err
	}
	return *resp.Volume, nil
}

func (v *Volumes) CreateSnapshot(volumeID, name string) (state.Volume, error) {
	resp, err := v.f.submit(state.Command{
		Kind:           state.KindCreateSnapshot,
		CreateSnapshot: &state.CreateSnapshotCmd{ID: newID(), VolumeID: volumeID, Name: name},
	})
	if err != nil {
		return state.Volume{}, err
	}
	return *resp.Volume, nil
}
