package service

import (
	"fmt"
	"time"

	"github.com/edulog/workload-api/internal/models"
	appErrors "github.com/edulog/workload-api/pkg/errors"
)

// ResolvePeriod turns a symbolic period tag into an inclusive calendar date
// range anchored at the reference instant. Weeks follow the ISO convention
// and run Monday through Sunday. An unknown tag is an error, never a silent
// default period.
func ResolvePeriod(tag models.PeriodTag, ref time.Time) (models.DateRange, error) {
	ref = truncateToDay(ref)

	switch tag {
	case models.PeriodThisWeek:
		start := startOfWeek(ref)
		return models.DateRange{Start: start, End: start.AddDate(0, 0, 6)}, nil

	case models.PeriodLastWeek:
		start := startOfWeek(ref).AddDate(0, 0, -7)
		return models.DateRange{Start: start, End: start.AddDate(0, 0, 6)}, nil

	case models.PeriodThisMonth:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return models.DateRange{Start: start, End: start.AddDate(0, 1, -1)}, nil

	case models.PeriodLastMonth:
		thisMonth := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		start := thisMonth.AddDate(0, -1, 0)
		return models.DateRange{Start: start, End: thisMonth.AddDate(0, 0, -1)}, nil

	default:
		return models.DateRange{}, appErrors.Clone(appErrors.ErrSchemaUnknown, fmt.Sprintf("unknown period tag %q", tag))
	}
}

// startOfWeek returns the Monday of the week containing day.
func startOfWeek(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
