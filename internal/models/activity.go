package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ActivityType identifies one of the closed set of instructor work categories.
// Values are stable: they are used as storage keys and as dispatch keys for
// validation and formatting, and must never be renamed.
type ActivityType string

const (
	ActivityMDBReplies        ActivityType = "MDB_REPLIES"
	ActivityTicketResponses   ActivityType = "TICKET_RESPONSES"
	ActivityAssignmentUpload  ActivityType = "ASSIGNMENT_UPLOAD"
	ActivityAssignmentMarking ActivityType = "ASSIGNMENT_MARKING"
	ActivityGDBMarking        ActivityType = "GDB_MARKING"
	ActivityWeeklySession     ActivityType = "WEEKLY_SESSION"
	ActivityEmailResponses    ActivityType = "EMAIL_RESPONSES"
)

// DetailPayload holds the schema-validated, type-specific fields of an
// activity record, persisted as JSONB.
type DetailPayload map[string]interface{}

// Value marshals the payload to JSON for persistence.
func (p DetailPayload) Value() (driver.Value, error) {
	if p == nil {
		p = DetailPayload{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal activity details: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the map.
func (p *DetailPayload) Scan(value interface{}) error {
	if value == nil {
		*p = DetailPayload{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for DetailPayload", value)
	}
	if len(data) == 0 {
		*p = DetailPayload{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal activity details: %w", err)
	}
	return nil
}

// ActivityRecord is one logged unit of instructor work against a course.
// Edits are full-replace: the details payload is always rewritten whole.
type ActivityRecord struct {
	ID           string        `db:"id" json:"id"`
	Type         ActivityType  `db:"activity_type" json:"activity_type"`
	CourseID     string        `db:"course_id" json:"course_id"`
	InstructorID string        `db:"instructor_id" json:"instructor_id"`
	Details      DetailPayload `db:"details" json:"details"`
	LoggedAt     time.Time     `db:"logged_at" json:"logged_at"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// ActivityFilter narrows activity listings. Absent dimensions impose no
// constraint; present ones combine with AND. Date bounds are inclusive and
// compared at day precision against LoggedAt.
type ActivityFilter struct {
	Type         *ActivityType
	CourseID     *string
	InstructorID *string
	DateFrom     *time.Time
	DateTo       *time.Time
	Page         int
	PageSize     int
}

// FieldErrors maps a field name to a human-readable validation message.
type FieldErrors map[string]string

// Empty reports whether no field failed validation.
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}
