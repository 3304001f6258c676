package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulog/workload-api/internal/models"
)

func filterFixture() []models.ActivityRecord {
	day := func(d int, hour int) time.Time {
		return time.Date(2025, time.September, d, hour, 0, 0, 0, time.UTC)
	}
	return []models.ActivityRecord{
		{ID: "a", Type: models.ActivityMDBReplies, CourseID: "cs101", InstructorID: "u1", LoggedAt: day(1, 9)},
		{ID: "b", Type: models.ActivityGDBMarking, CourseID: "cs101", InstructorID: "u2", LoggedAt: day(2, 23)},
		{ID: "c", Type: models.ActivityMDBReplies, CourseID: "cs202", InstructorID: "u1", LoggedAt: day(3, 0)},
		{ID: "d", Type: models.ActivityEmailResponses, CourseID: "cs202", InstructorID: "u2", LoggedAt: day(5, 12)},
	}
}

func recordIDs(records []models.ActivityRecord) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestApplyActivityFilterEmptyFilterKeepsEverything(t *testing.T) {
	records := filterFixture()
	out := ApplyActivityFilter(records, models.ActivityFilter{})
	assert.Equal(t, []string{"a", "b", "c", "d"}, recordIDs(out))
}

func TestApplyActivityFilterDimensionsCombineWithAnd(t *testing.T) {
	records := filterFixture()
	mdb := models.ActivityMDBReplies
	course := "cs202"
	out := ApplyActivityFilter(records, models.ActivityFilter{Type: &mdb, CourseID: &course})
	assert.Equal(t, []string{"c"}, recordIDs(out))
}

func TestApplyActivityFilterDateBoundsInclusive(t *testing.T) {
	records := filterFixture()
	// Bounds carry arbitrary times of day; comparison is day-precision.
	from := time.Date(2025, time.September, 2, 18, 30, 0, 0, time.UTC)
	to := time.Date(2025, time.September, 3, 1, 0, 0, 0, time.UTC)
	out := ApplyActivityFilter(records, models.ActivityFilter{DateFrom: &from, DateTo: &to})
	assert.Equal(t, []string{"b", "c"}, recordIDs(out))
}

func TestApplyActivityFilterPureAndIdempotent(t *testing.T) {
	records := filterFixture()
	instructor := "u1"
	filter := models.ActivityFilter{InstructorID: &instructor}

	once := ApplyActivityFilter(records, filter)
	twice := ApplyActivityFilter(once, filter)
	require.Equal(t, recordIDs(once), recordIDs(twice))

	// Input left untouched.
	assert.Equal(t, []string{"a", "b", "c", "d"}, recordIDs(records))
}
