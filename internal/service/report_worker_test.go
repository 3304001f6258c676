package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulog/workload-api/internal/models"
	"github.com/edulog/workload-api/pkg/jobs"
)

func TestReportWorkerCompletesJob(t *testing.T) {
	repo := newReportRepoStub()
	exporter := &exporterStub{result: &ExportResult{RelativePath: "summary.csv", Format: models.ReportFormatCSV}}
	repo.jobs["j1"] = &models.ReportJob{ID: "j1", Status: models.ReportStatusPending, Format: models.ReportFormatCSV}

	worker := NewReportWorker(repo, exporter, nil, zap.NewNop(), 3)
	err := worker.Handle(context.Background(), jobs.Job{ID: "j1", Payload: "j1"})
	require.NoError(t, err)

	job := repo.jobs["j1"]
	assert.Equal(t, models.ReportStatusCompleted, job.Status)
	require.NotNil(t, job.ResultPath)
	assert.Equal(t, "summary.csv", *job.ResultPath)
	assert.NotNil(t, job.FinishedAt)
}

func TestReportWorkerRetriesBeforeFailing(t *testing.T) {
	repo := newReportRepoStub()
	exporter := &exporterStub{generateErr: errors.New("datasource down")}
	repo.jobs["j1"] = &models.ReportJob{ID: "j1", Status: models.ReportStatusPending}

	worker := NewReportWorker(repo, exporter, nil, zap.NewNop(), 2)

	// First attempt returns the error so the queue requeues.
	err := worker.Handle(context.Background(), jobs.Job{ID: "j1", Payload: "j1", Attempt: 0})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusProcessing, repo.jobs["j1"].Status)

	// Final attempt exhausts the budget and settles the job as Failed.
	err = worker.Handle(context.Background(), jobs.Job{ID: "j1", Payload: "j1", Attempt: 1})
	require.NoError(t, err)

	job := repo.jobs["j1"]
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "datasource down")
	assert.NotNil(t, job.FinishedAt)
}

func TestReportWorkerSkipsTerminalJobs(t *testing.T) {
	repo := newReportRepoStub()
	exporter := &exporterStub{generateErr: errors.New("should not run")}
	path := "done.csv"
	repo.jobs["j1"] = &models.ReportJob{ID: "j1", Status: models.ReportStatusCompleted, ResultPath: &path}

	worker := NewReportWorker(repo, exporter, nil, zap.NewNop(), 3)
	err := worker.Handle(context.Background(), jobs.Job{ID: "j1", Payload: "j1"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusCompleted, repo.jobs["j1"].Status)
}

func TestReportWorkerIgnoresMalformedPayload(t *testing.T) {
	repo := newReportRepoStub()
	worker := NewReportWorker(repo, &exporterStub{}, nil, zap.NewNop(), 3)
	assert.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "x", Payload: 42}))
}
