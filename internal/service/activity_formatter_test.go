package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edulog/workload-api/internal/models"
)

func TestSummarizeActivityKnownTypes(t *testing.T) {
	tests := []struct {
		name    string
		record  models.ActivityRecord
		summary string
	}{
		{
			name: "mdb replies",
			record: models.ActivityRecord{
				Type:    models.ActivityMDBReplies,
				Details: models.DetailPayload{"mdb_topic": "Week 2", "number_of_replies": 8},
			},
			summary: `8 replies on MDB topic "Week 2"`,
		},
		{
			name: "ticket responses",
			record: models.ActivityRecord{
				Type:    models.ActivityTicketResponses,
				Details: models.DetailPayload{"ticket_id": "TKT-4", "response_summary": "grade fixed"},
			},
			summary: "Ticket TKT-4: grade fixed",
		},
		{
			name: "assignment upload",
			record: models.ActivityRecord{
				Type:    models.ActivityAssignmentUpload,
				Details: models.DetailPayload{"assignment_name": "Assignment 2", "material_type": "Handouts"},
			},
			summary: "Uploaded Assignment 2 (Handouts)",
		},
		{
			name: "assignment marking",
			record: models.ActivityRecord{
				Type:    models.ActivityAssignmentMarking,
				Details: models.DetailPayload{"assignment_name": "Assignment 1", "number_marked": 40},
			},
			summary: "Marked 40 submissions of Assignment 1",
		},
		{
			name: "gdb marking",
			record: models.ActivityRecord{
				Type:    models.ActivityGDBMarking,
				Details: models.DetailPayload{"gdb_topic": "Ethics", "number_marked": 15},
			},
			summary: `Marked 15 GDB posts on "Ethics"`,
		},
		{
			name: "weekly session with notes",
			record: models.ActivityRecord{
				Type:    models.ActivityWeeklySession,
				Details: models.DetailPayload{"session_date": "2025-09-10", "attendance_notes": "30 attended"},
			},
			summary: "Session held on 2025-09-10: 30 attended",
		},
		{
			name: "email responses",
			record: models.ActivityRecord{
				Type:    models.ActivityEmailResponses,
				Details: models.DetailPayload{"email_subject": "Quiz", "email_purpose": "rescheduled"},
			},
			summary: `Email "Quiz": rescheduled`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.summary, SummarizeActivity(&tc.record))
		})
	}
}

func TestSummarizeActivityNeverPanicsOnPartialPayloads(t *testing.T) {
	for _, schema := range models.AllActivitySchemas() {
		record := &models.ActivityRecord{Type: schema.Type, Details: models.DetailPayload{}}
		assert.NotPanics(t, func() { SummarizeActivity(record) }, "type %s", schema.Type)
		assert.NotEmpty(t, SummarizeActivity(record), "type %s", schema.Type)

		record.Details = nil
		assert.NotPanics(t, func() { SummarizeActivity(record) }, "type %s nil payload", schema.Type)
	}
}

func TestSummarizeActivityPlaceholders(t *testing.T) {
	record := &models.ActivityRecord{Type: models.ActivityMDBReplies, Details: models.DetailPayload{}}
	assert.Equal(t, `0 replies on MDB topic "N/A"`, SummarizeActivity(record))
}

func TestSummarizeActivityUnknownTypeFallsBack(t *testing.T) {
	record := &models.ActivityRecord{
		Type:    "OFFICE_HOURS",
		Details: models.DetailPayload{"student_count": 4, "office_location": "B-12"},
	}
	assert.Equal(t, "office location: B-12; student count: 4", SummarizeActivity(record))

	record.Details = nil
	assert.Equal(t, "N/A", SummarizeActivity(record))
}

func TestActivityLabel(t *testing.T) {
	assert.Equal(t, "MDB Replies", ActivityLabel(models.ActivityMDBReplies))
	assert.Equal(t, "Office Hours", ActivityLabel("OFFICE_HOURS"))
}
