// Copyright 2026 mvirt authors.

package state

func (m *Machine) applyCreateImportJob(ts string, c *CreateImportJobCmd) (Response, []Event) {
	if existing, ok := m.state.ImportJobs[c.ID]; ok {
		return Response{Kind: RespImportJob, ImportJob: &existing}, nil
	}

	job := ImportJob{
		ID:           c.ID,
		ProjectID:    c.ProjectID,
		NodeID:       c.NodeID,
		TemplateName: c.TemplateName,
		URL:          c.URL,
		State:        ImportPending,
		BytesWritten: 0,
		TotalBytes:   c.TotalBytes,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	m.state.ImportJobs[c.ID] = job

	return Response{Kind: RespImportJob, ImportJob: &job}, nil
}

// applyUpdateImportJob enforces the bytes_written <= total_bytes
// invariant when total_bytes is known.
func (m *Machine) applyUpdateImportJob(ts string, c *UpdateImportJobCmd) (Response, []Event) {
	job, ok := m.state.ImportJobs[c.ID]
	if !ok {
		return errResp(404, "import job %q not found", c.ID), nil
	}
	if job.TotalBytes > 0 && c.BytesWritten > job.TotalBytes {
		return errResp(400, "bytes_written exceeds total_bytes for import job %q", c.ID), nil
	}

	job.BytesWritten = c.BytesWritten
	job.State = c.State
	job.Error = c.Error
	job.UpdatedAt = ts
	m.state.ImportJobs[c.ID] = job

	return Response{Kind: RespImportJob, ImportJob: &job}, nil
}
