// Copyright 2026 mvirt authors.

package store

import "github.com/MalteJ/mvirt-sub000/internal/state"

// ImportJobs is the typed wrapper for template-import job lifecycle
// commands. The actual download/conversion work happens outside the
// replicated log; this package only tracks progress deterministically.
type ImportJobs struct{ f *Facade }

type ImportTemplateRequest struct {
	ProjectID    string
	NodeID       string
	TemplateName string
	URL          string
	TotalBytes   int64
}

func (j *ImportJobs) Get(id string) (state.ImportJob, bool) {
	s := j.f.State()
	job, ok := s.ImportJobs[id]
	return job, ok
}

func (j *ImportJobs) Start(req ImportTemplateRequest) (state.ImportJob, error) {
	resp, err := j.f.submit(state.Command{
		Kind: state.KindCreateImportJob,
		CreateImportJob: &state.CreateImportJobCmd{
			ID: newID(), ProjectID: req.ProjectID, NodeID: req.NodeID,
			TemplateName: req.TemplateName, URL: req.URL, TotalBytes: req.TotalBytes,
		},
	})
	if err != nil {
		return state.ImportJob{}, err
	}
	return *resp.ImportJob, nil
}

func (j *ImportJobs) UpdateProgress(id string, bytesWritten int64, jobState state.ImportJobState, errMsg string) (state.ImportJob, error) {
	resp, err := j.f.submit(state.Command{
		Kind: state.KindUpdateImportJob,
		UpdateImportJob: &state.UpdateImportJobCmd{
			ID: id, BytesWritten: bytesWritten, State: jobState, Error: errMsg,
		},
	})
	if err != nil {
		return state.ImportJob{}, err
	}
	return *resp.ImportJob, nil
}
