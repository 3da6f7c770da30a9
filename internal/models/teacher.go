package models

import "time"

// Teacher represents a teaching staff member.
type Teacher struct {
	ID         string    `db:"id" json:"id"`
	NationalID string    `db:"national_id" json:"national_id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Email      string    `db:"email" json:"email"`
	Phone      string    `db:"phone" json:"phone"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns "Last, First" as printed on school documents.
func (t Teacher) FullName() string {
	return t.LastName + ", " + t.FirstName
}

// TeacherFilter defines list query options.
type TeacherFilter struct {
	Search   string
	Page     int
	PageSize int
}
