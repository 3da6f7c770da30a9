package models

import "time"

// Student represents a student record.
type Student struct {
	ID         string     `db:"id" json:"id"`
	NationalID string     `db:"national_id" json:"national_id"`
	FirstName  string     `db:"first_name" json:"first_name"`
	LastName   string     `db:"last_name" json:"last_name"`
	Gender     string     `db:"gender" json:"gender"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	BirthPlace string     `db:"birth_place" json:"birth_place"`
	Address    string     `db:"address" json:"address"`
	Phone      string     `db:"phone" json:"phone"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName returns "Last, First" as printed on school documents.
func (s Student) FullName() string {
	return s.LastName + ", " + s.FirstName
}

// StudentFilter defines the query parameters for listing students.
type StudentFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
