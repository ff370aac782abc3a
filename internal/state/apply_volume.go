// Copyright 2026 mvirt authors.

package state

import "fmt"

func (m *Machine) applyCreateVolume(ts string, c *CreateVolumeCmd) (Response, []Event) {
	if _, ok := m.state.Projects[c.ProjectID]; !ok {
		return errResp(404, "project %q not found", c.ProjectID), nil
	}
	if existing, ok := m.state.Volumes[c.ID]; ok {
		return Response{Kind: RespVolume, Volume: &existing}, nil
	}
	for _, v := range m.state.Volumes {
		if v.ProjectID == c.ProjectID && v.Name == c.Name {
			return errResp(409, "volume with name %q already exists in project", c.Name), nil
		}
	}

	if c.TemplateID != "" {
		tmpl, ok := m.state.Templates[c.TemplateID]
		if !ok {
			return errResp(404, "template %q not found", c.TemplateID), nil
		}
		if tmpl.NodeID != c.NodeID {
			return errResp(409, "template %s is on node %s but volume targets node %s",
				c.TemplateID, tmpl.NodeID, c.NodeID), nil
		}
	}

	volume := Volume{
		ID:               c.ID,
		ProjectID:        c.ProjectID,
		NodeID:           c.NodeID,
		Name:             c.Name,
		Path:             fmt.Sprintf("/dev/zvol/pool/vol-%s", c.ID),
		SizeBytes:        c.SizeBytes,
		UsedBytes:        0,
		CompressionRatio: 1.0,
		TemplateID:       c.TemplateID,
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
	m.state.Volumes[c.ID] = volume

	if c.TemplateID != "" {
		tmpl := m.state.Templates[c.TemplateID]
		tmpl.CloneCount++
		m.state.Templates[c.TemplateID] = tmpl
	}

	return Response{Kind: RespVolume, Volume: &volume}, nil
}

func (m *Machine) applyDeleteVolume(c *DeleteVolumeCmd) (Response, []Event) {
	volume, ok := m.state.Volumes[c.ID]
	if !ok {
		return errResp(404, "volume %q not found", c.ID), nil
	}
	delete(m.state.Volumes, c.ID)

	if volume.TemplateID != "" {
		if tmpl, ok := m.state.Templates[volume.TemplateID]; ok {
			tmpl.CloneCount = decr(tmpl.CloneCount)
			m.state.Templates[volume.TemplateID] = tmpl
		}
	}

	return Response{Kind: RespDeleted, DeletedID: c.ID}, nil
}

// applyResizeVolume enforces the grow-only invariant: shrinking is
// rejected with 400.
func (m *Machine) applyResizeVolume(ts string, c *ResizeVolumeCmd) (Response, []Event) {
	volume, ok := m.state.Volumes[c.ID]
	if !ok {
		return errResp(404, "volume %q not found", c.ID), nil
	}
	if c.SizeBytes < volume.SizeBytes {
		return errResp(400, "cannot shrink volume"), nil
	}

	volume.SizeBytes = c.SizeBytes
	volume.UpdatedAt = ts
	m.state.Volumes[c.ID] = volume

	return Response{Kind: RespVolume, Volume: &volume}, nil
}

// applyCreateSnapshot rejects duplicate names within the volume with
// 409.
func (m *Machine) applyCreateSnapshot(ts string, c *CreateSnapshotCmd) (Response, []Event) {
	volume, ok := m.state.Volumes[c.VolumeID]
	if !ok {
		return errResp(404, "volume %q not found", c.VolumeID), nil
	}
	for _, s := range volume.Snapshots {
		if s.Name == c.Name {
			return errResp(409, "snapshot with name %q already exists on volume", c.Name), nil
		}
	}

	volume.Snapshots = append(volume.Snapshots, Snapshot{
		ID:        c.ID,
		Name:      c.Name,
		UsedBytes: 0,
		CreatedAt: ts,
	})
	volume.UpdatedAt = ts
	m.state.Volumes[c.VolumeID] = volume

	return Response{Kind: RespVolume, Volume: &volume}, nil
}
