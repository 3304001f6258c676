package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulog/workload-api/internal/models"
)

const reportColumns = "id, report_type, period_tag, start_date, end_date, instructor_scope, format, status, result_path, error_message, created_by, created_at, finished_at"

// ReportRepository persists report job metadata.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report job row with generated defaults.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_jobs (id, report_type, period_tag, start_date, end_date, instructor_scope, format, status, result_path, error_message, created_by, created_at, finished_at)
VALUES (:id, :report_type, :period_tag, :start_date, :end_date, :instructor_scope, :format, :status, :result_path, :error_message, :created_by, :created_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// GetByID returns a job row by its identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	query := fmt.Sprintf("SELECT %s FROM report_jobs WHERE id = $1", reportColumns)
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, fmt.Errorf("get report job: %w", err)
	}
	return &job, nil
}

// List returns jobs newest first, optionally narrowed to a creator.
func (r *ReportRepository) List(ctx context.Context, createdBy string, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	var (
		query string
		args  []interface{}
	)
	if createdBy == "" {
		query = fmt.Sprintf("SELECT %s FROM report_jobs ORDER BY created_at DESC LIMIT $1", reportColumns)
		args = []interface{}{limit}
	} else {
		query = fmt.Sprintf("SELECT %s FROM report_jobs WHERE created_by = $1 ORDER BY created_at DESC LIMIT $2", reportColumns)
		args = []interface{}{createdBy, limit}
	}
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobs, nil
}

// UpdateReportJobParams defines the mutable fields.
type UpdateReportJobParams struct {
	Status       *models.ReportStatus
	ResultPath   *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update persists the provided changes for a job row.
func (r *ReportRepository) Update(ctx context.Context, id string, params UpdateReportJobParams) error {
	set := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Status != nil {
		appendSet("status", *params.Status)
	}
	if params.ResultPath != nil {
		appendSet("result_path", *params.ResultPath)
	}
	if params.ErrorMessage != nil {
		appendSet("error_message", *params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		appendSet("finished_at", *params.FinishedAt)
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE report_jobs SET %s WHERE id = $%d", strings.Join(set, ", "), len(args)+1)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	return nil
}

// Delete removes a job row. Deleting a missing job yields sql.ErrNoRows so
// callers can surface a distinct not-found condition.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM report_jobs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete report job: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete report job %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// ListPending fetches non-terminal jobs (used for cold start recovery).
func (r *ReportRepository) ListPending(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM report_jobs WHERE status IN ('Pending', 'Processing') ORDER BY created_at ASC LIMIT $1", reportColumns)
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list pending report jobs: %w", err)
	}
	return jobs, nil
}

// ListCompletedBefore retrieves completed jobs prior to cutoff for cleanup.
func (r *ReportRepository) ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM report_jobs WHERE status = 'Completed' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2", reportColumns)
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list completed report jobs: %w", err)
	}
	return jobs, nil
}
