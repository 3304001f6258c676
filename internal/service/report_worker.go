package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edulog/workload-api/internal/models"
	"github.com/edulog/workload-api/internal/repository"
	"github.com/edulog/workload-api/pkg/jobs"
)

// ReportWorker executes report generation jobs off the queue. It owns every
// terminal transition: a job becomes Completed or Failed here and nowhere
// else (aside from enqueue failures, which never reach a worker).
type ReportWorker struct {
	repo        reportJobStore
	exporter    reportExporter
	metrics     *MetricsService
	logger      *zap.Logger
	maxAttempts int
}

// NewReportWorker constructs a worker. maxAttempts bounds generation retries
// before the job is marked Failed.
func NewReportWorker(repo reportJobStore, exporter reportExporter, metrics *MetricsService, logger *zap.Logger, maxAttempts int) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &ReportWorker{repo: repo, exporter: exporter, metrics: metrics, logger: logger, maxAttempts: maxAttempts}
}

// Handle processes one queued job. Returning an error requeues the job for
// another attempt; once attempts are exhausted the job is marked Failed and
// nil is returned so the queue stops retrying.
func (w *ReportWorker) Handle(ctx context.Context, queued jobs.Job) error {
	jobID, ok := queued.Payload.(string)
	if !ok || jobID == "" {
		w.logger.Error("report job payload is not a job id", zap.String("queue_job", queued.ID))
		return nil
	}

	job, err := w.repo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", jobID, err)
	}
	if job.Status.Terminal() {
		// Requeued duplicate after a restart; nothing left to do.
		w.logger.Info("skipping terminal report job", zap.String("job_id", jobID), zap.String("status", string(job.Status)))
		return nil
	}

	if job.Status != models.ReportStatusProcessing {
		processing := models.ReportStatusProcessing
		if err := w.repo.Update(ctx, jobID, repository.UpdateReportJobParams{Status: &processing}); err != nil {
			return fmt.Errorf("mark report job processing: %w", err)
		}
		job.Status = processing
	}

	started := time.Now()
	result, err := w.exporter.Generate(ctx, job)
	if err != nil {
		w.logger.Error("report generation failed",
			zap.String("job_id", jobID),
			zap.Int("attempt", queued.Attempt+1),
			zap.Error(err),
		)
		if queued.Attempt+1 >= w.maxAttempts {
			w.fail(ctx, jobID, err)
			return nil
		}
		return err
	}

	completed := models.ReportStatusCompleted
	now := time.Now().UTC()
	params := repository.UpdateReportJobParams{
		Status:     &completed,
		ResultPath: &result.RelativePath,
		FinishedAt: &now,
	}
	if err := w.repo.Update(ctx, jobID, params); err != nil {
		return fmt.Errorf("mark report job completed: %w", err)
	}

	w.metrics.ObserveReportGeneration(time.Since(started))
	w.metrics.RecordReportJob("completed")
	w.logger.Info("report job completed",
		zap.String("job_id", jobID),
		zap.String("result_path", result.RelativePath),
		zap.Duration("took", time.Since(started)),
	)
	return nil
}

func (w *ReportWorker) fail(ctx context.Context, jobID string, cause error) {
	failed := models.ReportStatusFailed
	message := cause.Error()
	now := time.Now().UTC()
	params := repository.UpdateReportJobParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}
	if err := w.repo.Update(ctx, jobID, params); err != nil {
		w.logger.Error("failed to mark report job failed", zap.String("job_id", jobID), zap.Error(err))
	}
	w.metrics.RecordReportJob("failed")
}
