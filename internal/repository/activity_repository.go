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

const activityColumns = "id, activity_type, course_id, instructor_id, details, logged_at, created_at, updated_at"

// ActivityRepository persists activity records.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create inserts a new activity row with generated defaults.
func (r *ActivityRepository) Create(ctx context.Context, record *models.ActivityRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.LoggedAt.IsZero() {
		record.LoggedAt = now
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO activity_records (id, activity_type, course_id, instructor_id, details, logged_at, created_at, updated_at)
VALUES (:id, :activity_type, :course_id, :instructor_id, :details, :logged_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create activity record: %w", err)
	}
	return nil
}

// GetByID returns an activity row by its identifier.
func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*models.ActivityRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM activity_records WHERE id = $1", activityColumns)
	var record models.ActivityRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, fmt.Errorf("get activity record: %w", err)
	}
	return &record, nil
}

// Replace rewrites a record whole. Edits have no partial-patch semantics:
// type, course, details and log date are always written together.
func (r *ActivityRepository) Replace(ctx context.Context, record *models.ActivityRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE activity_records
SET activity_type = :activity_type, course_id = :course_id, details = :details, logged_at = :logged_at, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("replace activity record: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("replace activity record %s: %w", record.ID, sql.ErrNoRows)
	}
	return nil
}

// Delete removes an activity row.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM activity_records WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete activity record: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete activity record %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// List returns records matching the filter plus the total count. The SQL
// predicates mirror ApplyActivityFilter: AND-combined dimensions, inclusive
// day-precision date bounds, newest first.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityRecord, int, error) {
	where, args := buildActivityWhere(filter)

	countQuery := "SELECT COUNT(*) FROM activity_records" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count activity records: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := fmt.Sprintf("SELECT %s FROM activity_records%s ORDER BY logged_at DESC, id DESC LIMIT $%d OFFSET $%d",
		activityColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	var records []models.ActivityRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activity records: %w", err)
	}
	return records, total, nil
}

// ListRange fetches every record in the inclusive date range, optionally
// narrowed to a single instructor, ordered oldest first for report builds.
func (r *ActivityRepository) ListRange(ctx context.Context, instructorID string, from, to time.Time) ([]models.ActivityRecord, error) {
	filter := models.ActivityFilter{DateFrom: &from, DateTo: &to}
	if instructorID != "" && instructorID != models.ScopeAllInstructors {
		filter.InstructorID = &instructorID
	}
	where, args := buildActivityWhere(filter)

	query := fmt.Sprintf("SELECT %s FROM activity_records%s ORDER BY logged_at ASC, id ASC", activityColumns, where)
	var records []models.ActivityRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list activity range: %w", err)
	}
	return records, nil
}

func buildActivityWhere(filter models.ActivityFilter) (string, []interface{}) {
	conditions := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)

	appendCond := func(expr string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if filter.Type != nil {
		appendCond("activity_type = $%d", *filter.Type)
	}
	if filter.CourseID != nil {
		appendCond("course_id = $%d", *filter.CourseID)
	}
	if filter.InstructorID != nil {
		appendCond("instructor_id = $%d", *filter.InstructorID)
	}
	if filter.DateFrom != nil {
		appendCond("logged_at::date >= $%d", filter.DateFrom.Format("2006-01-02"))
	}
	if filter.DateTo != nil {
		appendCond("logged_at::date <= $%d", filter.DateTo.Format("2006-01-02"))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
