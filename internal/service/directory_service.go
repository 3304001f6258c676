package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/edulog/workload-api/internal/models"
	appErrors "github.com/edulog/workload-api/pkg/errors"
)

type directoryCourseStore interface {
	List(ctx context.Context) ([]models.Course, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error)
}

// DirectoryService serves the reference data the activity and report forms
// are built from: courses and instructor accounts.
type DirectoryService struct {
	courses     directoryCourseStore
	instructors instructorDirectory
	logger      *zap.Logger
}

// NewDirectoryService constructs the service.
func NewDirectoryService(courses directoryCourseStore, instructors instructorDirectory, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{courses: courses, instructors: instructors, logger: logger}
}

// Courses returns the active courses visible to the actor. Instructors see
// their own assignments, admins see everything.
func (s *DirectoryService) Courses(ctx context.Context, actor *models.JWTClaims) ([]models.Course, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	var (
		courses []models.Course
		err     error
	)
	if actor.Role == models.RoleInstructor {
		courses, err = s.courses.ListByInstructor(ctx, actor.UserID)
	} else {
		courses, err = s.courses.List(ctx)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Instructors returns active instructor accounts for the report scope picker.
func (s *DirectoryService) Instructors(ctx context.Context, actor *models.JWTClaims) ([]models.UserInfo, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	users, err := s.instructors.ListInstructors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	infos := make([]models.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, models.UserInfo{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role})
	}
	return infos, nil
}
