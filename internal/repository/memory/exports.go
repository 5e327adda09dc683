package memory

import (
	"context"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/repository"
)

type exportJobRepo struct{ db *DB }

func (r *exportJobRepo) Create(_ context.Context, job *models.ExportJob) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if job.ID == "" {
		job.ID = r.db.newID()
	}
	if job.Status == "" {
		job.Status = models.ExportQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = r.db.now().UTC()
	}
	r.db.exportJobs[job.ID] = cloneExportJob(*job)
	return nil
}

func (r *exportJobRepo) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	job, ok := r.db.exportJobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneExportJob(job)
	return &out, nil
}

func (r *exportJobRepo) Update(_ context.Context, id string, params repository.UpdateExportJobParams) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	job, ok := r.db.exportJobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.FilePath != nil {
		job.FilePath = cloneString(params.FilePath)
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = cloneString(params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		job.FinishedAt = cloneTime(params.FinishedAt)
	}
	r.db.exportJobs[id] = job
	return nil
}
