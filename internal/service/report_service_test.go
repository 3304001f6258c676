package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulog/workload-api/internal/dto"
	"github.com/edulog/workload-api/internal/models"
	"github.com/edulog/workload-api/internal/repository"
	appErrors "github.com/edulog/workload-api/pkg/errors"
	"github.com/edulog/workload-api/pkg/jobs"
)

type reportRepoStub struct {
	jobs      map[string]*models.ReportJob
	createErr error
}

func newReportRepoStub() *reportRepoStub {
	return &reportRepoStub{jobs: map[string]*models.ReportJob{}}
}

func (r *reportRepoStub) Create(ctx context.Context, job *models.ReportJob) error {
	if r.createErr != nil {
		return r.createErr
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *reportRepoStub) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("get report job: %w", sql.ErrNoRows)
	}
	copied := *job
	return &copied, nil
}

func (r *reportRepoStub) List(ctx context.Context, createdBy string, limit int) ([]models.ReportJob, error) {
	out := make([]models.ReportJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		if createdBy == "" || job.CreatedBy == createdBy {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *reportRepoStub) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("update report job: %w", sql.ErrNoRows)
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultPath != nil {
		job.ResultPath = params.ResultPath
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *reportRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := r.jobs[id]; !ok {
		return fmt.Errorf("delete report job: %w", sql.ErrNoRows)
	}
	delete(r.jobs, id)
	return nil
}

func (r *reportRepoStub) ListPending(ctx context.Context, limit int) ([]models.ReportJob, error) {
	var pending []models.ReportJob
	for _, job := range r.jobs {
		if !job.Status.Terminal() {
			pending = append(pending, *job)
		}
	}
	return pending, nil
}

func (r *reportRepoStub) ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

type queueStub struct {
	enqueued []jobs.Job
	err      error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

type exporterStub struct {
	result      *ExportResult
	generateErr error
	deleted     []string
	token       string
	parseJobID  string
	parsePath   string
	parseErr    error
}

func (e *exporterStub) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if e.generateErr != nil {
		return nil, e.generateErr
	}
	if e.result != nil {
		return e.result, nil
	}
	return &ExportResult{RelativePath: "out.csv", Format: job.Format}, nil
}

func (e *exporterStub) SignedToken(jobID, relPath string) (string, time.Time, error) {
	if e.token == "" {
		return "token-" + jobID, time.Now().Add(time.Hour), nil
	}
	return e.token, time.Now().Add(time.Hour), nil
}

func (e *exporterStub) ParseToken(token string, allowExpired bool) (string, string, time.Time, error) {
	if e.parseErr != nil {
		return "", "", time.Time{}, e.parseErr
	}
	return e.parseJobID, e.parsePath, time.Now().Add(time.Hour), nil
}

func (e *exporterStub) Open(relPath string) (*os.File, error) {
	return os.Open(os.DevNull)
}

func (e *exporterStub) Delete(relPath string) error {
	e.deleted = append(e.deleted, relPath)
	return nil
}

func (e *exporterStub) Cleanup(ttl time.Duration) ([]string, error) {
	return nil, nil
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func instructorClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleInstructor}
}

func newReportServiceForTest() (*ReportService, *reportRepoStub, *queueStub, *exporterStub) {
	repo := newReportRepoStub()
	queue := &queueStub{}
	exporter := &exporterStub{}
	svc := NewReportService(repo, queue, exporter, nil, zap.NewNop(), "/api/v1/reports/download", time.Hour)
	return svc, repo, queue, exporter
}

func TestReportSubmitCreatesPendingJob(t *testing.T) {
	svc, repo, queue, _ := newReportServiceForTest()

	res, err := svc.Submit(context.Background(), dto.ReportRequest{
		Type:      models.ReportActivitySummary,
		PeriodTag: models.PeriodLastWeek,
		Format:    models.ReportFormatCSV,
	}, adminClaims())
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusPending, res.Status)
	assert.NotEmpty(t, res.StartDate)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, res.ID, queue.enqueued[0].Payload)

	stored := repo.jobs[res.ID]
	require.NotNil(t, stored)
	assert.False(t, stored.Status.Terminal())
	assert.Equal(t, models.ScopeAllInstructors, stored.InstructorScope)
}

func TestReportSubmitUnknownPeriodHasNoSideEffects(t *testing.T) {
	svc, repo, queue, _ := newReportServiceForTest()

	_, err := svc.Submit(context.Background(), dto.ReportRequest{
		Type:      models.ReportActivitySummary,
		PeriodTag: "FORTNIGHT",
	}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSchemaUnknown.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.jobs)
	assert.Empty(t, queue.enqueued)
}

func TestReportSubmitEnqueueFailureMarksFailed(t *testing.T) {
	svc, repo, queue, _ := newReportServiceForTest()
	queue.err = errors.New("queue stopped")

	_, err := svc.Submit(context.Background(), dto.ReportRequest{
		Type:      models.ReportPerformanceAnalysis,
		PeriodTag: models.PeriodThisMonth,
	}, adminClaims())
	require.Error(t, err)

	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
	}
}

func TestReportSubmitInstructorIsScopedToSelf(t *testing.T) {
	svc, repo, _, _ := newReportServiceForTest()

	res, err := svc.Submit(context.Background(), dto.ReportRequest{
		Type:            models.ReportActivitySummary,
		PeriodTag:       models.PeriodThisWeek,
		InstructorScope: models.ScopeAllInstructors,
	}, instructorClaims("u7"))
	require.NoError(t, err)
	assert.Equal(t, "u7", repo.jobs[res.ID].InstructorScope)
}

func TestReportStatusDownloadURLOnlyWhenCompleted(t *testing.T) {
	svc, repo, _, _ := newReportServiceForTest()
	path := "report.csv"
	now := time.Now().UTC()

	pending := &models.ReportJob{ID: "p1", Status: models.ReportStatusPending, CreatedBy: "admin-1", CreatedAt: now}
	failed := &models.ReportJob{ID: "f1", Status: models.ReportStatusFailed, CreatedBy: "admin-1", CreatedAt: now}
	completed := &models.ReportJob{ID: "c1", Status: models.ReportStatusCompleted, ResultPath: &path, CreatedBy: "admin-1", CreatedAt: now, FinishedAt: &now}
	repo.jobs["p1"], repo.jobs["f1"], repo.jobs["c1"] = pending, failed, completed

	res, err := svc.GetStatus(context.Background(), "p1", adminClaims())
	require.NoError(t, err)
	assert.False(t, res.Downloadable)
	assert.Nil(t, res.DownloadURL)

	res, err = svc.GetStatus(context.Background(), "f1", adminClaims())
	require.NoError(t, err)
	assert.False(t, res.Downloadable)
	assert.Nil(t, res.DownloadURL)

	res, err = svc.GetStatus(context.Background(), "c1", adminClaims())
	require.NoError(t, err)
	assert.True(t, res.Downloadable)
	require.NotNil(t, res.DownloadURL)
	assert.Contains(t, *res.DownloadURL, "/api/v1/reports/download/")
}

func TestReportStatusHiddenFromOtherInstructors(t *testing.T) {
	svc, repo, _, _ := newReportServiceForTest()
	repo.jobs["j1"] = &models.ReportJob{ID: "j1", Status: models.ReportStatusPending, CreatedBy: "u1"}

	_, err := svc.GetStatus(context.Background(), "j1", instructorClaims("u2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReportDeleteFailedJobAndArtifact(t *testing.T) {
	svc, repo, _, exporter := newReportServiceForTest()
	path := "old.pdf"
	repo.jobs["j1"] = &models.ReportJob{ID: "j1", Status: models.ReportStatusFailed, ResultPath: &path, CreatedBy: "admin-1"}

	require.NoError(t, svc.Delete(context.Background(), "j1", adminClaims()))
	assert.Empty(t, repo.jobs)
	assert.Equal(t, []string{"old.pdf"}, exporter.deleted)
}

func TestReportDeleteMissingJobIsNotFound(t *testing.T) {
	svc, _, _, _ := newReportServiceForTest()
	err := svc.Delete(context.Background(), "missing", adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportResolveDownloadRejectsUnreadyJob(t *testing.T) {
	svc, repo, _, exporter := newReportServiceForTest()
	repo.jobs["j1"] = &models.ReportJob{ID: "j1", Status: models.ReportStatusProcessing, CreatedBy: "u1"}
	exporter.parseJobID = "j1"
	exporter.parsePath = "out.csv"

	_, _, err := svc.ResolveDownload(context.Background(), "sometoken")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrReportNotReady.Code, appErrors.FromError(err).Code)
}

func TestReportRecoverPendingJobsRequeues(t *testing.T) {
	svc, repo, queue, _ := newReportServiceForTest()
	repo.jobs["j1"] = &models.ReportJob{ID: "j1", Status: models.ReportStatusPending}
	repo.jobs["j2"] = &models.ReportJob{ID: "j2", Status: models.ReportStatusProcessing}
	repo.jobs["j3"] = &models.ReportJob{ID: "j3", Status: models.ReportStatusCompleted}

	require.NoError(t, svc.RecoverPendingJobs(context.Background()))
	assert.Len(t, queue.enqueued, 2)
}
