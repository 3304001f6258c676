package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulog/workload-api/internal/dto"
	"github.com/edulog/workload-api/internal/models"
	appErrors "github.com/edulog/workload-api/pkg/errors"
)

type activityRepoStub struct {
	records map[string]*models.ActivityRecord
}

func newActivityRepoStub() *activityRepoStub {
	return &activityRepoStub{records: map[string]*models.ActivityRecord{}}
}

func (r *activityRepoStub) Create(ctx context.Context, record *models.ActivityRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.LoggedAt.IsZero() {
		record.LoggedAt = time.Now().UTC()
	}
	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *activityRepoStub) GetByID(ctx context.Context, id string) (*models.ActivityRecord, error) {
	record, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("get activity: %w", sql.ErrNoRows)
	}
	copied := *record
	return &copied, nil
}

func (r *activityRepoStub) Replace(ctx context.Context, record *models.ActivityRecord) error {
	if _, ok := r.records[record.ID]; !ok {
		return fmt.Errorf("replace activity: %w", sql.ErrNoRows)
	}
	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *activityRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := r.records[id]; !ok {
		return fmt.Errorf("delete activity: %w", sql.ErrNoRows)
	}
	delete(r.records, id)
	return nil
}

func (r *activityRepoStub) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityRecord, int, error) {
	all := make([]models.ActivityRecord, 0, len(r.records))
	for _, record := range r.records {
		all = append(all, *record)
	}
	filtered := ApplyActivityFilter(all, filter)
	return filtered, len(filtered), nil
}

type courseDirectoryStub struct {
	courses map[string]*models.Course
}

func newCourseDirectoryStub() *courseDirectoryStub {
	owner := "u1"
	return &courseDirectoryStub{courses: map[string]*models.Course{
		"cs101": {ID: "cs101", Code: "CS101", Name: "Intro to Computing", InstructorID: &owner, Active: true},
		"cs202": {ID: "cs202", Code: "CS202", Name: "Data Structures", Active: true},
	}}
}

func (s *courseDirectoryStub) GetByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := s.courses[id]
	if !ok {
		return nil, fmt.Errorf("get course: %w", sql.ErrNoRows)
	}
	return course, nil
}

func (s *courseDirectoryStub) List(ctx context.Context) ([]models.Course, error) {
	out := make([]models.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, *c)
	}
	return out, nil
}

type invalidatorStub struct {
	patterns []string
}

func (s *invalidatorStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func newActivityServiceForTest() (*ActivityService, *activityRepoStub, *invalidatorStub) {
	repo := newActivityRepoStub()
	invalidator := &invalidatorStub{}
	svc := NewActivityService(repo, newCourseDirectoryStub(), invalidator, zap.NewNop())
	return svc, repo, invalidator
}

func validCreateRequest() dto.ActivityRequest {
	return dto.ActivityRequest{
		Type:     models.ActivityMDBReplies,
		CourseID: "cs101",
		Details:  map[string]interface{}{"mdb_topic": "Week 4", "number_of_replies": 6},
	}
}

func TestActivityCreatePersistsValidatedPayload(t *testing.T) {
	svc, repo, invalidator := newActivityServiceForTest()

	res, err := svc.Create(context.Background(), validCreateRequest(), instructorClaims("u1"))
	require.NoError(t, err)

	assert.Equal(t, "MDB Replies", res.TypeLabel)
	assert.Equal(t, "CS101", res.CourseCode)
	assert.Equal(t, `6 replies on MDB topic "Week 4"`, res.Summary)

	stored := repo.records[res.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "u1", stored.InstructorID)
	assert.Equal(t, 6, stored.Details["number_of_replies"])
	assert.Equal(t, []string{"dashboard:u1:*"}, invalidator.patterns)
}

func TestActivityCreateValidationFailureNeverPersists(t *testing.T) {
	svc, repo, _ := newActivityServiceForTest()

	req := validCreateRequest()
	req.Details = map[string]interface{}{"number_of_replies": 6}
	_, err := svc.Create(context.Background(), req, instructorClaims("u1"))
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "MDB Topic is required", appErr.Fields["mdb_topic"])
	assert.Empty(t, repo.records)
}

func TestActivityCreateUnknownTypeIsLoudError(t *testing.T) {
	svc, repo, _ := newActivityServiceForTest()

	req := validCreateRequest()
	req.Type = "PHONE_CALLS"
	_, err := svc.Create(context.Background(), req, instructorClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSchemaUnknown.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.records)
}

func TestActivityCreateForeignCourseForbidden(t *testing.T) {
	svc, _, _ := newActivityServiceForTest()

	req := validCreateRequest()
	req.CourseID = "cs202"
	_, err := svc.Create(context.Background(), req, instructorClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestActivityUpdateReplacesPayloadWholesale(t *testing.T) {
	svc, repo, _ := newActivityServiceForTest()
	res, err := svc.Create(context.Background(), validCreateRequest(), instructorClaims("u1"))
	require.NoError(t, err)

	update := dto.ActivityRequest{
		Type:     models.ActivityTicketResponses,
		CourseID: "cs101",
		Details:  map[string]interface{}{"ticket_id": "TKT-2", "response_summary": "answered"},
	}
	updated, err := svc.Update(context.Background(), res.ID, update, instructorClaims("u1"))
	require.NoError(t, err)
	assert.Equal(t, models.ActivityTicketResponses, updated.Type)

	stored := repo.records[res.ID]
	assert.NotContains(t, stored.Details, "mdb_topic")
	assert.Equal(t, "TKT-2", stored.Details["ticket_id"])
}

func TestActivityUpdateByNonOwnerForbidden(t *testing.T) {
	svc, _, _ := newActivityServiceForTest()
	res, err := svc.Create(context.Background(), validCreateRequest(), instructorClaims("u1"))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), res.ID, validCreateRequest(), instructorClaims("u9"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestActivityDeleteMissingRecordNotFound(t *testing.T) {
	svc, _, _ := newActivityServiceForTest()
	err := svc.Delete(context.Background(), "nope", adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestActivityListInstructorAlwaysScopedToSelf(t *testing.T) {
	svc, _, _ := newActivityServiceForTest()
	_, err := svc.Create(context.Background(), validCreateRequest(), instructorClaims("u1"))
	require.NoError(t, err)

	records, pagination, err := svc.List(context.Background(), dto.ActivityListQuery{}, "u9", instructorClaims("u1"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "u1", records[0].Instructor)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestActivityListRejectsUnknownTypeFilter(t *testing.T) {
	svc, _, _ := newActivityServiceForTest()
	_, _, err := svc.List(context.Background(), dto.ActivityListQuery{Type: "PHONE_CALLS"}, "", adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSchemaUnknown.Code, appErrors.FromError(err).Code)
}
