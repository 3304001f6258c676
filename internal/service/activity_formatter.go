package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/edulog/workload-api/internal/models"
)

// ActivityLabel returns the display label for an activity type. Unknown
// identifiers are prettified from their raw form so future types still render.
func ActivityLabel(t models.ActivityType) string {
	if schema, ok := models.SchemaFor(t); ok {
		return schema.Label
	}
	return prettifyKey(string(t))
}

// SummarizeActivity renders a one-line synopsis of a record's details. It
// never fails: missing fields render as "N/A" or 0 placeholders, and types
// outside the dispatch table fall back to a generic key/value join. The
// fallback is the guard against schema drift between registry and formatter.
func SummarizeActivity(record *models.ActivityRecord) string {
	if record == nil {
		return ""
	}
	details := record.Details

	switch record.Type {
	case models.ActivityMDBReplies:
		return fmt.Sprintf("%d replies on MDB topic %q", intOrZero(details, "number_of_replies"), textOrNA(details, "mdb_topic"))
	case models.ActivityTicketResponses:
		return fmt.Sprintf("Ticket %s: %s", textOrNA(details, "ticket_id"), textOrNA(details, "response_summary"))
	case models.ActivityAssignmentUpload:
		return fmt.Sprintf("Uploaded %s (%s)", textOrNA(details, "assignment_name"), textOrNA(details, "material_type"))
	case models.ActivityAssignmentMarking:
		return fmt.Sprintf("Marked %d submissions of %s", intOrZero(details, "number_marked"), textOrNA(details, "assignment_name"))
	case models.ActivityGDBMarking:
		return fmt.Sprintf("Marked %d GDB posts on %q", intOrZero(details, "number_marked"), textOrNA(details, "gdb_topic"))
	case models.ActivityWeeklySession:
		summary := fmt.Sprintf("Session held on %s", textOrNA(details, "session_date"))
		if notes := textOr(details, "attendance_notes", ""); notes != "" {
			summary += ": " + notes
		}
		return summary
	case models.ActivityEmailResponses:
		return fmt.Sprintf("Email %q: %s", textOrNA(details, "email_subject"), textOrNA(details, "email_purpose"))
	default:
		return genericSummary(details)
	}
}

// genericSummary joins all payload entries as "key: value; ..." with
// underscores replaced by spaces, keys sorted for stable output.
func genericSummary(details models.DetailPayload) string {
	if len(details) == 0 {
		return "N/A"
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", strings.ReplaceAll(k, "_", " "), details[k]))
	}
	return strings.Join(parts, "; ")
}

func textOrNA(details models.DetailPayload, name string) string {
	return textOr(details, name, "N/A")
}

func textOr(details models.DetailPayload, name, fallback string) string {
	if details == nil {
		return fallback
	}
	value, ok := details[name]
	if !ok || value == nil {
		return fallback
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", value))
	if s == "" {
		return fallback
	}
	return s
}

func intOrZero(details models.DetailPayload, name string) int {
	if details == nil {
		return 0
	}
	n, err := coerceInt(details[name])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func prettifyKey(raw string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(raw), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
