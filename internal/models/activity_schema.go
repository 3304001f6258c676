package models

// FieldKind is the semantic type of a schema field.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldLongText FieldKind = "longtext"
	FieldInteger  FieldKind = "integer"
	FieldDate     FieldKind = "date"
	FieldEnum     FieldKind = "enum"
)

// FieldDef describes one field of an activity type schema.
type FieldDef struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Choices  []string  `json:"choices,omitempty"`
	Default  string    `json:"default,omitempty"`
}

// ActivityTypeSchema fully describes the detail payload of one activity type.
type ActivityTypeSchema struct {
	Type   ActivityType `json:"type"`
	Label  string       `json:"label"`
	Fields []FieldDef   `json:"fields"`
}

// Field returns the definition for the named field.
func (s *ActivityTypeSchema) Field(name string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// activitySchemas is the registry of all supported activity types. Adding a
// new type means adding one entry here; validation, formatting and the
// schema endpoint pick it up without further changes.
var activitySchemas = map[ActivityType]ActivityTypeSchema{
	ActivityMDBReplies: {
		Type:  ActivityMDBReplies,
		Label: "MDB Replies",
		Fields: []FieldDef{
			{Name: "mdb_topic", Label: "MDB Topic", Kind: FieldText, Required: true},
			{Name: "number_of_replies", Label: "Number of Replies", Kind: FieldInteger, Required: true},
		},
	},
	ActivityTicketResponses: {
		Type:  ActivityTicketResponses,
		Label: "Ticket Responses",
		Fields: []FieldDef{
			{Name: "ticket_id", Label: "Ticket ID", Kind: FieldText, Required: true},
			{Name: "response_summary", Label: "Response Summary", Kind: FieldLongText, Required: true},
		},
	},
	ActivityAssignmentUpload: {
		Type:  ActivityAssignmentUpload,
		Label: "Assignment/Material Upload",
		Fields: []FieldDef{
			{Name: "assignment_name", Label: "Assignment/Material Name", Kind: FieldText, Required: true},
			{
				Name:    "material_type",
				Label:   "Material Type",
				Kind:    FieldEnum,
				Choices: []string{"Assignment", "Lecture Notes", "Resources", "Handouts", "Reference Material", "Other"},
				Default: "Assignment",
			},
		},
	},
	ActivityAssignmentMarking: {
		Type:  ActivityAssignmentMarking,
		Label: "Assignment Marking",
		Fields: []FieldDef{
			{Name: "assignment_name", Label: "Assignment Name", Kind: FieldText, Required: true},
			{Name: "number_marked", Label: "Number Marked", Kind: FieldInteger, Required: true},
		},
	},
	ActivityGDBMarking: {
		Type:  ActivityGDBMarking,
		Label: "GDB Marking",
		Fields: []FieldDef{
			{Name: "gdb_topic", Label: "GDB Topic", Kind: FieldText, Required: true},
			{Name: "number_marked", Label: "Number Marked", Kind: FieldInteger, Required: true},
		},
	},
	ActivityWeeklySession: {
		Type:  ActivityWeeklySession,
		Label: "Weekly Session",
		Fields: []FieldDef{
			{Name: "session_date", Label: "Session Date", Kind: FieldDate, Required: true},
			{Name: "attendance_notes", Label: "Attendance/Participation Notes", Kind: FieldLongText},
		},
	},
	ActivityEmailResponses: {
		Type:  ActivityEmailResponses,
		Label: "Email Responses",
		Fields: []FieldDef{
			{Name: "email_subject", Label: "Email Subject/Topic", Kind: FieldText, Required: true},
			{Name: "email_purpose", Label: "Purpose/Response Summary", Kind: FieldLongText, Required: true},
		},
	},
}

// activityTypeOrder fixes the presentation order of schemas.
var activityTypeOrder = []ActivityType{
	ActivityMDBReplies,
	ActivityTicketResponses,
	ActivityAssignmentUpload,
	ActivityAssignmentMarking,
	ActivityGDBMarking,
	ActivityWeeklySession,
	ActivityEmailResponses,
}

// SchemaFor resolves the schema of an activity type. The second return value
// is false for unknown identifiers; callers must surface that loudly rather
// than fall back to a default schema.
func SchemaFor(t ActivityType) (ActivityTypeSchema, bool) {
	schema, ok := activitySchemas[t]
	return schema, ok
}

// ValidActivityType reports whether t is a registered activity type.
func ValidActivityType(t ActivityType) bool {
	_, ok := activitySchemas[t]
	return ok
}

// AllActivitySchemas returns every registered schema in presentation order.
func AllActivitySchemas() []ActivityTypeSchema {
	out := make([]ActivityTypeSchema, 0, len(activityTypeOrder))
	for _, t := range activityTypeOrder {
		out = append(out, activitySchemas[t])
	}
	return out
}
