package dto

import "github.com/edulog/workload-api/internal/models"

// ReportRequest captures POST /reports payloads. The period tag is resolved
// to concrete dates before anything else happens.
type ReportRequest struct {
	Type            models.ReportType   `json:"report_type"`
	PeriodTag       models.PeriodTag    `json:"period"`
	InstructorScope string              `json:"instructor_scope"`
	Format          models.ReportFormat `json:"format"`
}

// ReportJobResponse is returned after a submission is acknowledged.
type ReportJobResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	StartDate string              `json:"start_date"`
	EndDate   string              `json:"end_date"`
}

// ReportStatusResponse exposes job lifecycle metadata. DownloadURL is only
// populated for Completed jobs.
type ReportStatusResponse struct {
	ID              string              `json:"id"`
	Type            models.ReportType   `json:"report_type"`
	Status          models.ReportStatus `json:"status"`
	StartDate       string              `json:"start_date"`
	EndDate         string              `json:"end_date"`
	InstructorScope string              `json:"instructor_scope"`
	Downloadable    bool                `json:"downloadable"`
	DownloadURL     *string             `json:"download_url,omitempty"`
	Error           *string             `json:"error,omitempty"`
	CreatedAt       string              `json:"created_at"`
}
