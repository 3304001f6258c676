package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edulog/workload-api/internal/models"
)

const courseColumns = "id, code, name, instructor_id, active, created_at"

// CourseRepository resolves course references for the directory boundary.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// GetByID returns a course by its identifier.
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &course, nil
}

// List returns all active courses ordered by code.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE active = TRUE ORDER BY code ASC", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListByInstructor returns the active courses assigned to an instructor.
func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE instructor_id = $1 AND active = TRUE ORDER BY code ASC", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	return courses, nil
}
