package models

import "time"

// Course is a taught course an instructor logs activities against.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	InstructorID *string   `db:"instructor_id" json:"instructor_id,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
