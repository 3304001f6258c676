package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/edulog/workload-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestActivityRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activity_records")).
		WithArgs(sqlmock.AnyArg(), "MDB_REPLIES", "cs101", "u1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.ActivityRecord{
		Type:         models.ActivityMDBReplies,
		CourseID:     "cs101",
		InstructorID: "u1",
		Details:      models.DetailPayload{"mdb_topic": "W1", "number_of_replies": 4},
	}
	require.NoError(t, repo.Create(context.Background(), record))
	require.NotEmpty(t, record.ID)
	require.False(t, record.LoggedAt.IsZero())

	rows := sqlmock.NewRows([]string{"id", "activity_type", "course_id", "instructor_id", "details", "logged_at", "created_at", "updated_at"}).
		AddRow(record.ID, "MDB_REPLIES", "cs101", "u1", []byte(`{"mdb_topic":"W1","number_of_replies":4}`), time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, activity_type, course_id, instructor_id, details, logged_at, created_at, updated_at FROM activity_records WHERE id = $1")).
		WithArgs(record.ID).
		WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, models.ActivityMDBReplies, fetched.Type)
	require.Equal(t, float64(4), fetched.Details["number_of_replies"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryReplaceMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE activity_records")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Replace(context.Background(), &models.ActivityRecord{ID: "missing", Type: models.ActivityGDBMarking})
	require.Error(t, err)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM activity_records WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryListBuildsAndedPredicates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	activityType := models.ActivityMDBReplies
	course := "cs101"
	from := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.September, 7, 0, 0, 0, 0, time.UTC)
	filter := models.ActivityFilter{
		Type:     &activityType,
		CourseID: &course,
		DateFrom: &from,
		DateTo:   &to,
		Page:     2,
		PageSize: 10,
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM activity_records WHERE activity_type = $1 AND course_id = $2 AND logged_at::date >= $3 AND logged_at::date <= $4")).
		WithArgs("MDB_REPLIES", "cs101", "2025-09-01", "2025-09-07").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(13))

	rows := sqlmock.NewRows([]string{"id", "activity_type", "course_id", "instructor_id", "details", "logged_at", "created_at", "updated_at"}).
		AddRow("a1", "MDB_REPLIES", "cs101", "u1", []byte(`{}`), time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY logged_at DESC, id DESC LIMIT $5 OFFSET $6")).
		WithArgs("MDB_REPLIES", "cs101", "2025-09-01", "2025-09-07", 10, 10).
		WillReturnRows(rows)

	records, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	require.Equal(t, 13, total)
	require.Len(t, records, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryListRangeScopesInstructor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	from := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.September, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE instructor_id = $1 AND logged_at::date >= $2 AND logged_at::date <= $3 ORDER BY logged_at ASC, id ASC")).
		WithArgs("u1", "2025-09-01", "2025-09-07").
		WillReturnRows(sqlmock.NewRows([]string{"id", "activity_type", "course_id", "instructor_id", "details", "logged_at", "created_at", "updated_at"}))

	_, err := repo.ListRange(context.Background(), "u1", from, to)
	require.NoError(t, err)

	// The ALL scope drops the instructor predicate.
	mock.ExpectQuery(regexp.QuoteMeta("WHERE logged_at::date >= $1 AND logged_at::date <= $2 ORDER BY logged_at ASC, id ASC")).
		WithArgs("2025-09-01", "2025-09-07").
		WillReturnRows(sqlmock.NewRows([]string{"id", "activity_type", "course_id", "instructor_id", "details", "logged_at", "created_at", "updated_at"}))

	_, err = repo.ListRange(context.Background(), models.ScopeAllInstructors, from, to)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
