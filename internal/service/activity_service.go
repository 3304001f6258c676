package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edulog/workload-api/internal/dto"
	"github.com/edulog/workload-api/internal/models"
	appErrors "github.com/edulog/workload-api/pkg/errors"
)

type activityStore interface {
	Create(ctx context.Context, record *models.ActivityRecord) error
	GetByID(ctx context.Context, id string) (*models.ActivityRecord, error)
	Replace(ctx context.Context, record *models.ActivityRecord) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityRecord, int, error)
}

type courseDirectory interface {
	GetByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
}

type dashboardInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ActivityService orchestrates the capture, listing and mutation of
// activity records. Validation happens here, before anything is persisted;
// a validation failure never reaches the record store.
type ActivityService struct {
	repo    activityStore
	courses courseDirectory
	cache   dashboardInvalidator
	logger  *zap.Logger
}

// NewActivityService constructs the service.
func NewActivityService(repo activityStore, courses courseDirectory, cache dashboardInvalidator, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, courses: courses, cache: cache, logger: logger}
}

// Create validates raw input against the type schema and persists a record
// owned by the acting instructor.
func (s *ActivityService) Create(ctx context.Context, req dto.ActivityRequest, actor *models.JWTClaims) (*dto.ActivityResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	payload, err := s.validatedPayload(req)
	if err != nil {
		return nil, err
	}
	course, err := s.resolveCourse(ctx, req.CourseID, actor)
	if err != nil {
		return nil, err
	}

	record := &models.ActivityRecord{
		Type:         req.Type,
		CourseID:     course.ID,
		InstructorID: actor.UserID,
		Details:      payload,
	}
	if req.LoggedAt != nil {
		record.LoggedAt = req.LoggedAt.UTC()
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store activity record")
	}
	s.invalidateDashboard(ctx, record.InstructorID)
	return s.toResponse(record, course.Code), nil
}

// Update replaces a record whole after revalidation. Only the owner or an
// admin may edit; there is no partial patch.
func (s *ActivityService) Update(ctx context.Context, id string, req dto.ActivityRequest, actor *models.JWTClaims) (*dto.ActivityResponse, error) {
	record, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	payload, err := s.validatedPayload(req)
	if err != nil {
		return nil, err
	}
	course, err := s.resolveCourse(ctx, req.CourseID, actor)
	if err != nil {
		return nil, err
	}

	record.Type = req.Type
	record.CourseID = course.ID
	record.Details = payload
	if req.LoggedAt != nil {
		record.LoggedAt = req.LoggedAt.UTC()
	}
	if err := s.repo.Replace(ctx, record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity record")
	}
	s.invalidateDashboard(ctx, record.InstructorID)
	return s.toResponse(record, course.Code), nil
}

// Delete removes a record. Only the owner or an admin may delete.
func (s *ActivityService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	record, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "activity record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity record")
	}
	s.invalidateDashboard(ctx, record.InstructorID)
	return nil
}

// Get returns a single record with resolved display values.
func (s *ActivityService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ActivityResponse, error) {
	record, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return s.toResponse(record, s.courseCode(ctx, record.CourseID)), nil
}

// List returns filtered records. Instructors are always scoped to their own
// records; admins may scope to any instructor or none.
func (s *ActivityService) List(ctx context.Context, query dto.ActivityListQuery, instructorScope string, actor *models.JWTClaims) ([]dto.ActivityResponse, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter, err := buildListFilter(query)
	if err != nil {
		return nil, nil, err
	}
	if actor.Role == models.RoleInstructor {
		filter.InstructorID = &actor.UserID
	} else if instructorScope != "" {
		filter.InstructorID = &instructorScope
	}

	records, total, err := s.repo.List(ctx, *filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity records")
	}

	codes := s.courseCodes(ctx)
	responses := make([]dto.ActivityResponse, 0, len(records))
	for i := range records {
		responses = append(responses, *s.toResponse(&records[i], codes[records[i].CourseID]))
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return responses, pagination, nil
}

func (s *ActivityService) validatedPayload(req dto.ActivityRequest) (models.DetailPayload, error) {
	if !models.ValidActivityType(req.Type) {
		s.logger.Error("activity type missing from registry", zap.String("activity_type", string(req.Type)))
		return nil, appErrors.Clone(appErrors.ErrSchemaUnknown, fmt.Sprintf("unknown activity type %q", req.Type))
	}
	payload, fieldErrs, err := ValidateDetails(req.Type, req.Details)
	if err != nil {
		return nil, err
	}
	if !fieldErrs.Empty() {
		return nil, appErrors.WithFields(appErrors.ErrValidation, fieldErrs)
	}
	return payload, nil
}

func (s *ActivityService) resolveCourse(ctx context.Context, courseID string, actor *models.JWTClaims) (*models.Course, error) {
	if courseID == "" {
		return nil, appErrors.WithFields(appErrors.ErrValidation, models.FieldErrors{"course_id": "Course is required"})
	}
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course")
	}
	if actor.Role == models.RoleInstructor && (course.InstructorID == nil || *course.InstructorID != actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course is not assigned to you")
	}
	return course, nil
}

func (s *ActivityService) loadOwned(ctx context.Context, id string, actor *models.JWTClaims) (*models.ActivityRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity record")
	}
	if actor.Role != models.RoleAdmin && record.InstructorID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return record, nil
}

func (s *ActivityService) toResponse(record *models.ActivityRecord, courseCode string) *dto.ActivityResponse {
	return &dto.ActivityResponse{
		ID:         record.ID,
		Type:       record.Type,
		TypeLabel:  ActivityLabel(record.Type),
		CourseID:   record.CourseID,
		CourseCode: courseCode,
		Instructor: record.InstructorID,
		Details:    record.Details,
		Summary:    SummarizeActivity(record),
		LoggedAt:   record.LoggedAt,
	}
}

func (s *ActivityService) courseCode(ctx context.Context, courseID string) string {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return ""
	}
	return course.Code
}

func (s *ActivityService) courseCodes(ctx context.Context) map[string]string {
	codes := map[string]string{}
	courses, err := s.courses.List(ctx)
	if err != nil {
		s.logger.Warn("failed to resolve course codes", zap.Error(err))
		return codes
	}
	for _, c := range courses {
		codes[c.ID] = c.Code
	}
	return codes
}

func (s *ActivityService) invalidateDashboard(ctx context.Context, instructorID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:"+instructorID+":*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func buildListFilter(query dto.ActivityListQuery) (*models.ActivityFilter, error) {
	filter := &models.ActivityFilter{Page: query.Page, PageSize: query.PageSize}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	if query.Type != "" {
		t := models.ActivityType(query.Type)
		if !models.ValidActivityType(t) {
			return nil, appErrors.Clone(appErrors.ErrSchemaUnknown, fmt.Sprintf("unknown activity type %q", query.Type))
		}
		filter.Type = &t
	}
	if query.CourseID != "" {
		courseID := query.CourseID
		filter.CourseID = &courseID
	}
	if query.DateFrom != "" {
		from, err := time.Parse("2006-01-02", query.DateFrom)
		if err != nil {
			return nil, appErrors.WithFields(appErrors.ErrValidation, models.FieldErrors{"date_from": "must be a date (YYYY-MM-DD)"})
		}
		filter.DateFrom = &from
	}
	if query.DateTo != "" {
		to, err := time.Parse("2006-01-02", query.DateTo)
		if err != nil {
			return nil, appErrors.WithFields(appErrors.ErrValidation, models.FieldErrors{"date_to": "must be a date (YYYY-MM-DD)"})
		}
		filter.DateTo = &to
	}
	return filter, nil
}
