package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/repository"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
	"github.com/noah-isme/eduattend-api/pkg/export"
	"github.com/noah-isme/eduattend-api/pkg/jobs"
	"github.com/noah-isme/eduattend-api/pkg/storage"
	"github.com/noah-isme/eduattend-api/pkg/validation"
)

const (
	exportJobKind      = "attendance_export"
	maxExportRangeDays = 366
)

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
}

type rosterReader interface {
	GetByID(ctx context.Context, id string) (*models.Child, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Child, error)
}

type exportStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (io.ReadSeekCloser, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Sign(jobID, path string) (string, time.Time, error)
	Verify(token string) (storage.Grant, error)
	TTL() time.Duration
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ExportConfig tunes attendance export behaviour.
type ExportConfig struct {
	Enabled         bool
	APIPrefix       string
	CleanupInterval time.Duration
}

var errExportsDisabled = appErrors.Clone(appErrors.ErrFeatureDisabled, "attendance exports are disabled")

// ExportDownload is an opened export file.
type ExportDownload struct {
	File        io.ReadSeekCloser
	Filename    string
	ContentType string
}

// ExportService queues class attendance exports, renders them in the
// background and serves them through signed links.
type ExportService struct {
	jobs       exportJobRepository
	children   rosterReader
	classes    classReader
	attendance attendanceLister
	guard      guard
	storage    exportStorage
	signer     downloadSigner
	queue      jobDispatcher
	metrics    *MetricsService
	validator  *validator.Validate
	cfg        ExportConfig
	now        func() time.Time
	logger     *zap.Logger
}

// ExportDeps groups the collaborators of ExportService.
type ExportDeps struct {
	Jobs       exportJobRepository
	Children   rosterReader
	Classes    classReader
	Attendance attendanceLister
	Storage    exportStorage
	Signer     downloadSigner
	Metrics    *MetricsService
	Validator  *validator.Validate
	Config     ExportConfig
	Logger     *zap.Logger
}

func NewExportService(deps ExportDeps) *ExportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := deps.Validator
	if validate == nil {
		validate = validation.New()
	}
	if deps.Config.APIPrefix == "" {
		deps.Config.APIPrefix = "/api/v1"
	}
	return &ExportService{
		jobs:       deps.Jobs,
		children:   deps.Children,
		classes:    deps.Classes,
		attendance: deps.Attendance,
		guard:      guard{children: deps.Children, classes: deps.Classes},
		storage:    deps.Storage,
		signer:     deps.Signer,
		metrics:    deps.Metrics,
		validator:  validate,
		cfg:        deps.Config,
		now:        time.Now,
		logger:     logger,
	}
}

// AttachQueue sets the dispatcher. The queue is built with HandleJob, so it
// is attached after construction.
func (s *ExportService) AttachQueue(q jobDispatcher) {
	s.queue = q
}

// Request records a QUEUED export job for a class and enqueues it.
func (s *ExportService) Request(ctx context.Context, actor Actor, classID string, req models.ExportRequest) (*models.ExportJob, error) {
	if !s.cfg.Enabled || s.queue == nil {
		return nil, errExportsDisabled
	}
	if err := validation.Struct(s.validator, req, "invalid export request"); err != nil {
		return nil, err
	}
	if _, err := s.guard.class(ctx, actor, classID); err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, appErrors.WithFields(err, "invalid export request", map[string][]string{"format": {"must be one of [csv pdf xlsx]"}})
	}
	from, err := parseDay(req.From, "from")
	if err != nil {
		return nil, err
	}
	to, err := parseDay(req.To, "to")
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, appErrors.WithFields(nil, "invalid date range", map[string][]string{"from": {"must not be after to"}})
	}
	if to.Sub(from) > maxExportRangeDays*24*time.Hour {
		return nil, appErrors.WithFields(nil, "invalid date range", map[string][]string{"to": {fmt.Sprintf("range must not exceed %d days", maxExportRangeDays)}})
	}

	job := &models.ExportJob{
		ClassID:     classID,
		Format:      string(format),
		From:        from,
		To:          to,
		Status:      models.ExportQueued,
		RequestedBy: actor.UserID,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, storeError(err, "export job not found", "create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: exportJobKind}); err != nil {
		s.fail(ctx, job.ID, "failed to enqueue job")
		s.metrics.RecordExport(job.Format, string(models.ExportFailed))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	s.logger.Info("export queued", zap.String("job_id", job.ID), zap.String("class_id", classID), zap.String("format", job.Format))
	return job, nil
}

// Status reports a job to its requester. Finished jobs carry a fresh signed link.
func (s *ExportService) Status(ctx context.Context, actor Actor, id string) (*models.ExportJob, error) {
	if s.signer == nil {
		return nil, errExportsDisabled
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "export job not found", "load export job")
	}
	if job.RequestedBy != actor.UserID {
		return nil, errAuthorizationMismatch
	}
	if job.Status == models.ExportFinished && job.FilePath != nil {
		token, _, err := s.signer.Sign(job.ID, *job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
		}
		link := fmt.Sprintf("%s/exports/download?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), url.QueryEscape(token))
		job.DownloadURL = &link
	}
	return job, nil
}

// Open resolves a download token into the stored file.
func (s *ExportService) Open(ctx context.Context, token string) (*ExportDownload, error) {
	if s.signer == nil || s.storage == nil {
		return nil, errExportsDisabled
	}
	grant, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.jobs.GetByID(ctx, grant.JobID)
	if err != nil {
		return nil, storeError(err, "export job not found", "load export job")
	}
	if job.Status != models.ExportFinished || job.FilePath == nil || *job.FilePath != grant.Path {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not available")
	}
	file, err := s.storage.Open(grant.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	format, _ := export.ParseFormat(job.Format)
	return &ExportDownload{File: file, Filename: path.Base(grant.Path), ContentType: format.ContentType()}, nil
}

// HandleJob is the queue handler: it renders and stores one export.
func (s *ExportService) HandleJob(ctx context.Context, qj jobs.Job) error {
	job, err := s.jobs.GetByID(ctx, qj.ID)
	if err != nil {
		return err
	}
	processing := models.ExportProcessing
	if err := s.jobs.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &processing}); err != nil {
		return err
	}

	format, err := export.ParseFormat(job.Format)
	if err != nil {
		return err
	}
	dataset, err := s.dataset(ctx, job)
	if err != nil {
		return err
	}
	renderer, err := export.RendererFor(format)
	if err != nil {
		return err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return fmt.Errorf("render export: %w", err)
	}
	name := fmt.Sprintf("attendance/%s_%s_%s%s", job.ClassID, job.From.Format("20060102"), job.ID, format.Extension())
	stored, err := s.storage.Save(name, payload)
	if err != nil {
		return err
	}

	finished := models.ExportFinished
	finishedAt := s.now().UTC()
	if err := s.jobs.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:     &finished,
		FilePath:   &stored,
		FinishedAt: &finishedAt,
	}); err != nil {
		return err
	}
	s.metrics.RecordExport(job.Format, string(models.ExportFinished))
	s.logger.Info("export finished", zap.String("job_id", job.ID), zap.Int("rows", len(dataset.Rows)))
	return nil
}

// JobDone marks a job FAILED once the queue gives up on it.
func (s *ExportService) JobDone(qj jobs.Job, err error) {
	if err == nil {
		return
	}
	ctx := context.Background()
	s.fail(ctx, qj.ID, err.Error())
	format := ""
	if job, gerr := s.jobs.GetByID(ctx, qj.ID); gerr == nil {
		format = job.Format
	}
	s.metrics.RecordExport(format, string(models.ExportFailed))
}

func (s *ExportService) fail(ctx context.Context, id, message string) {
	failed := models.ExportFailed
	at := s.now().UTC()
	if err := s.jobs.Update(ctx, id, repository.UpdateExportJobParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &at,
	}); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("failed to mark export failed", zap.String("job_id", id), zap.Error(err))
	}
}

var exportHeaders = []string{"Date", "Student", "Status", "Notes"}

func (s *ExportService) dataset(ctx context.Context, job *models.ExportJob) (export.Dataset, error) {
	class, err := s.classes.GetByID(ctx, job.ClassID)
	if err != nil {
		return export.Dataset{}, err
	}
	students, err := s.children.ListByIDs(ctx, class.StudentIDs)
	if err != nil {
		return export.Dataset{}, err
	}
	type row struct {
		date  time.Time
		order int
		cells map[string]string
	}
	var rows []row
	for i, st := range students {
		records, err := s.attendance.ListByChild(ctx, st.ID, &job.From, &job.To)
		if err != nil {
			return export.Dataset{}, err
		}
		for _, r := range records {
			notes := ""
			if r.Notes != nil {
				notes = *r.Notes
			}
			rows = append(rows, row{date: r.Date, order: i, cells: map[string]string{
				"Date":    r.Date.Format(validation.DateLayout),
				"Student": st.Name,
				"Status":  string(r.Status),
				"Notes":   notes,
			}})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].date.Equal(rows[j].date) {
			return rows[i].date.Before(rows[j].date)
		}
		return rows[i].order < rows[j].order
	})

	out := export.Dataset{
		Title:   fmt.Sprintf("%s attendance %s to %s", class.Name, job.From.Format(validation.DateLayout), job.To.Format(validation.DateLayout)),
		Headers: exportHeaders,
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, r := range rows {
		out.Rows = append(out.Rows, r.cells)
	}
	return out, nil
}

// StartCleanup purges stored exports older than the link lifetime until ctx ends.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Cleanup removes expired export files once.
func (s *ExportService) Cleanup() {
	deleted, err := s.storage.CleanupOlderThan(s.signer.TTL())
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
}
