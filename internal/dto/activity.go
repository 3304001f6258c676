package dto

import (
	"time"

	"github.com/edulog/workload-api/internal/models"
)

// ActivityRequest captures POST/PUT /activities payloads. Details are raw
// user input; the validation engine shapes them against the type schema.
type ActivityRequest struct {
	Type     models.ActivityType    `json:"activity_type"`
	CourseID string                 `json:"course_id"`
	LoggedAt *time.Time             `json:"logged_at,omitempty"`
	Details  map[string]interface{} `json:"details"`
}

// ActivityResponse is the listing/detail representation of a record,
// enriched with resolved display values.
type ActivityResponse struct {
	ID         string               `json:"id"`
	Type       models.ActivityType  `json:"activity_type"`
	TypeLabel  string               `json:"activity_type_label"`
	CourseID   string               `json:"course_id"`
	CourseCode string               `json:"course_code,omitempty"`
	Instructor string               `json:"instructor_id"`
	Details    models.DetailPayload `json:"details"`
	Summary    string               `json:"summary"`
	LoggedAt   time.Time            `json:"logged_at"`
}

// ActivityListQuery mirrors the supported list filter dimensions.
type ActivityListQuery struct {
	Type     string `form:"type"`
	CourseID string `form:"course_id"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}
