package models

import "time"

// ReportType enumerates supported asynchronous report categories.
type ReportType string

const (
	ReportActivitySummary     ReportType = "ACTIVITY_SUMMARY"
	ReportPerformanceAnalysis ReportType = "PERFORMANCE_ANALYSIS"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportStatus captures report job lifecycle states. Pending and Processing
// are non-terminal; Completed and Failed are terminal and never change again.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "Pending"
	ReportStatusProcessing ReportStatus = "Processing"
	ReportStatusCompleted  ReportStatus = "Completed"
	ReportStatusFailed     ReportStatus = "Failed"
)

// Terminal reports whether the status can no longer change.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusCompleted || s == ReportStatusFailed
}

// PeriodTag is a symbolic time-range selector resolved to concrete dates
// before submission.
type PeriodTag string

const (
	PeriodThisWeek  PeriodTag = "THIS_WEEK"
	PeriodLastWeek  PeriodTag = "LAST_WEEK"
	PeriodThisMonth PeriodTag = "THIS_MONTH"
	PeriodLastMonth PeriodTag = "LAST_MONTH"
)

// ScopeAllInstructors selects every instructor in a report.
const ScopeAllInstructors = "ALL"

// DateRange is an inclusive calendar date range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ReportJob records one submitted report request and its observed lifecycle.
// Terminal transitions are owned by the generation worker; the manager only
// reads them back.
type ReportJob struct {
	ID              string       `db:"id" json:"id"`
	Type            ReportType   `db:"report_type" json:"report_type"`
	PeriodTag       PeriodTag    `db:"period_tag" json:"period_tag"`
	StartDate       time.Time    `db:"start_date" json:"start_date"`
	EndDate         time.Time    `db:"end_date" json:"end_date"`
	InstructorScope string       `db:"instructor_scope" json:"instructor_scope"`
	Format          ReportFormat `db:"format" json:"format"`
	Status          ReportStatus `db:"status" json:"status"`
	ResultPath      *string      `db:"result_path" json:"-"`
	ErrorMessage    *string      `db:"error_message" json:"error_message,omitempty"`
	CreatedBy       string       `db:"created_by" json:"created_by"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	FinishedAt      *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
}

// Downloadable reports whether the job's artifact may be served.
func (j *ReportJob) Downloadable() bool {
	return j.Status == ReportStatusCompleted && j.ResultPath != nil
}
