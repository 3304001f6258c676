package service

import (
	"time"

	"github.com/edulog/workload-api/internal/models"
)

// ApplyActivityFilter projects a snapshot of records through a filter. All
// present dimensions combine with AND; absent ones impose no constraint.
// The projection is pure and stable: the input slice is never mutated and
// relative order is preserved, which also makes it idempotent.
func ApplyActivityFilter(records []models.ActivityRecord, filter models.ActivityFilter) []models.ActivityRecord {
	out := make([]models.ActivityRecord, 0, len(records))
	for _, record := range records {
		if matchesActivityFilter(&record, filter) {
			out = append(out, record)
		}
	}
	return out
}

func matchesActivityFilter(record *models.ActivityRecord, filter models.ActivityFilter) bool {
	if filter.Type != nil && record.Type != *filter.Type {
		return false
	}
	if filter.CourseID != nil && record.CourseID != *filter.CourseID {
		return false
	}
	if filter.InstructorID != nil && record.InstructorID != *filter.InstructorID {
		return false
	}

	// Date bounds are inclusive, compared at day precision.
	day := truncateToDay(record.LoggedAt)
	if filter.DateFrom != nil && day.Before(truncateToDay(*filter.DateFrom)) {
		return false
	}
	if filter.DateTo != nil && day.After(truncateToDay(*filter.DateTo)) {
		return false
	}
	return true
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
