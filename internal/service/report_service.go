package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/edulog/workload-api/internal/dto"
	"github.com/edulog/workload-api/internal/models"
	"github.com/edulog/workload-api/internal/repository"
	appErrors "github.com/edulog/workload-api/pkg/errors"
	"github.com/edulog/workload-api/pkg/jobs"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	List(ctx context.Context, createdBy string, limit int) ([]models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	Delete(ctx context.Context, id string) error
	ListPending(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

type reportQueue interface {
	Enqueue(job jobs.Job) error
}

type reportExporter interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
	SignedToken(jobID, relPath string) (string, time.Time, error)
	ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	Cleanup(ttl time.Duration) ([]string, error)
}

type instructorChecker interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// reportJobType is the queue job type for report generation.
const reportJobType = "report.generate"

// ReportService accepts report submissions and tracks their lifecycle.
// Terminal transitions belong to the worker; this service only creates
// Pending rows, enqueues work and reads status back. The one exception is an
// enqueue failure, where the job can never run and is marked Failed here.
type ReportService struct {
	repo     reportJobStore
	queue    reportQueue
	exporter reportExporter
	users    instructorChecker
	logger   *zap.Logger

	downloadPrefix string
	resultTTL      time.Duration
}

// NewReportService constructs the service. downloadPrefix is the route prefix
// download tokens are appended to when building URLs.
func NewReportService(repo reportJobStore, queue reportQueue, exporter reportExporter, users instructorChecker, logger *zap.Logger, downloadPrefix string, resultTTL time.Duration) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if downloadPrefix == "" {
		downloadPrefix = "/api/v1/reports/download"
	}
	if resultTTL <= 0 {
		resultTTL = 7 * 24 * time.Hour
	}
	return &ReportService{
		repo:           repo,
		queue:          queue,
		exporter:       exporter,
		users:          users,
		logger:         logger,
		downloadPrefix: downloadPrefix,
		resultTTL:      resultTTL,
	}
}

// Submit validates the request, resolves its period to concrete dates and
// persists a Pending job before handing it to the queue. Period resolution
// happens first: a bad tag aborts with no side effects at all.
func (s *ReportService) Submit(ctx context.Context, req dto.ReportRequest, actor *models.JWTClaims) (*dto.ReportJobResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	dateRange, err := ResolvePeriod(req.PeriodTag, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := validateReportRequest(&req); err != nil {
		return nil, err
	}
	scope, err := s.resolveScope(ctx, req.InstructorScope, actor)
	if err != nil {
		return nil, err
	}

	job := &models.ReportJob{
		Type:            req.Type,
		PeriodTag:       req.PeriodTag,
		StartDate:       dateRange.Start,
		EndDate:         dateRange.End,
		InstructorScope: scope,
		Format:          req.Format,
		Status:          models.ReportStatusPending,
		CreatedBy:       actor.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportJobType, Payload: job.ID}); err != nil {
		s.logger.Error("failed to enqueue report job", zap.String("job_id", job.ID), zap.Error(err))
		s.markFailed(ctx, job.ID, "could not schedule report generation")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule report job")
	}

	s.logger.Info("report job submitted",
		zap.String("job_id", job.ID),
		zap.String("report_type", string(job.Type)),
		zap.String("period", string(job.PeriodTag)),
		zap.String("scope", job.InstructorScope),
	)
	return &dto.ReportJobResponse{
		ID:        job.ID,
		Status:    job.Status,
		StartDate: job.StartDate.Format("2006-01-02"),
		EndDate:   job.EndDate.Format("2006-01-02"),
	}, nil
}

// GetStatus returns lifecycle metadata for one job. A fresh download URL is
// issued on every read for Completed jobs.
func (s *ReportService) GetStatus(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ReportStatusResponse, error) {
	job, err := s.loadVisible(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return s.toStatusResponse(job), nil
}

// List returns recent jobs newest first. Instructors see their own
// submissions; admins see everyone's.
func (s *ReportService) List(ctx context.Context, limit int, actor *models.JWTClaims) ([]dto.ReportStatusResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	createdBy := ""
	if actor.Role != models.RoleAdmin {
		createdBy = actor.UserID
	}
	jobRows, err := s.repo.List(ctx, createdBy, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	responses := make([]dto.ReportStatusResponse, 0, len(jobRows))
	for i := range jobRows {
		responses = append(responses, *s.toStatusResponse(&jobRows[i]))
	}
	return responses, nil
}

// Delete removes a job row in any state, along with its artifact when one
// exists. Deleting an unknown id is a distinct not-found error.
func (s *ReportService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	job, err := s.loadVisible(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report job")
	}
	if job.ResultPath != nil {
		if err := s.exporter.Delete(*job.ResultPath); err != nil {
			s.logger.Warn("failed to remove report artifact", zap.String("job_id", id), zap.Error(err))
		}
	}
	s.logger.Info("report job deleted", zap.String("job_id", id), zap.String("status", string(job.Status)))
	return nil
}

// ResolveDownload validates a signed token and opens the artifact it points
// to. Only Completed jobs are servable.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*os.File, *models.ReportJob, error) {
	jobID, relPath, _, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if !job.Downloadable() || *job.ResultPath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrReportNotReady, "report is not ready for download")
	}
	file, err := s.exporter.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report artifact")
	}
	return file, job, nil
}

// RecoverPendingJobs requeues jobs left non-terminal by an earlier process.
// Called once on startup after the queue is running.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) error {
	pending, err := s.repo.ListPending(ctx, 100)
	if err != nil {
		return fmt.Errorf("recover pending jobs: %w", err)
	}
	for i := range pending {
		job := &pending[i]
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportJobType, Payload: job.ID}); err != nil {
			s.logger.Error("failed to requeue report job", zap.String("job_id", job.ID), zap.Error(err))
			s.markFailed(ctx, job.ID, "could not reschedule report generation after restart")
			continue
		}
		s.logger.Info("requeued report job", zap.String("job_id", job.ID), zap.String("status", string(job.Status)))
	}
	return nil
}

// StartCleanup launches a background loop purging expired artifacts and their
// rows. Returns immediately; the loop exits when ctx is cancelled.
func (s *ReportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ReportService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.resultTTL)
	expired, err := s.repo.ListCompletedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Error("report cleanup listing failed", zap.Error(err))
		return
	}
	for i := range expired {
		job := &expired[i]
		if job.ResultPath != nil {
			if err := s.exporter.Delete(*job.ResultPath); err != nil {
				s.logger.Warn("failed to remove expired artifact", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
		if err := s.repo.Delete(ctx, job.ID); err != nil {
			s.logger.Warn("failed to remove expired job row", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if removed, err := s.exporter.Cleanup(s.resultTTL); err != nil {
		s.logger.Warn("orphan artifact sweep failed", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("removed orphan report artifacts", zap.Int("count", len(removed)))
	}
}

func (s *ReportService) loadVisible(ctx context.Context, id string, actor *models.JWTClaims) (*models.ReportJob, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if actor.Role != models.RoleAdmin && job.CreatedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return job, nil
}

func (s *ReportService) toStatusResponse(job *models.ReportJob) *dto.ReportStatusResponse {
	resp := &dto.ReportStatusResponse{
		ID:              job.ID,
		Type:            job.Type,
		Status:          job.Status,
		StartDate:       job.StartDate.Format("2006-01-02"),
		EndDate:         job.EndDate.Format("2006-01-02"),
		InstructorScope: job.InstructorScope,
		Downloadable:    job.Downloadable(),
		Error:           job.ErrorMessage,
		CreatedAt:       job.CreatedAt.Format(time.RFC3339),
	}
	if job.Downloadable() {
		token, _, err := s.exporter.SignedToken(job.ID, *job.ResultPath)
		if err != nil {
			s.logger.Warn("failed to sign download token", zap.String("job_id", job.ID), zap.Error(err))
		} else {
			url := s.downloadPrefix + "/" + token
			resp.DownloadURL = &url
		}
	}
	return resp
}

func (s *ReportService) resolveScope(ctx context.Context, scope string, actor *models.JWTClaims) (string, error) {
	if actor.Role == models.RoleInstructor {
		// Instructors always report on themselves regardless of the
		// requested scope.
		return actor.UserID, nil
	}
	if scope == "" || scope == models.ScopeAllInstructors {
		return models.ScopeAllInstructors, nil
	}
	if s.users != nil {
		if _, err := s.users.FindByID(ctx, scope); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve instructor scope")
		}
	}
	return scope, nil
}

func (s *ReportService) markFailed(ctx context.Context, jobID, message string) {
	status := models.ReportStatusFailed
	now := time.Now().UTC()
	params := repository.UpdateReportJobParams{Status: &status, ErrorMessage: &message, FinishedAt: &now}
	if err := s.repo.Update(ctx, jobID, params); err != nil {
		s.logger.Error("failed to mark report job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

func validateReportRequest(req *dto.ReportRequest) error {
	fieldErrs := models.FieldErrors{}
	switch req.Type {
	case models.ReportActivitySummary, models.ReportPerformanceAnalysis:
	default:
		fieldErrs["report_type"] = fmt.Sprintf("unknown report type %q", req.Type)
	}
	if req.Format == "" {
		req.Format = models.ReportFormatCSV
	}
	switch req.Format {
	case models.ReportFormatCSV, models.ReportFormatPDF:
	default:
		fieldErrs["format"] = fmt.Sprintf("unknown format %q", req.Format)
	}
	if !fieldErrs.Empty() {
		return appErrors.WithFields(appErrors.ErrValidation, fieldErrs)
	}
	return nil
}
