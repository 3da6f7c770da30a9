package grading

// Path is the enrollment route a student follows into a new school year.
type Path string

const (
	// PathStandard offers the regular subject list of the new section.
	PathStandard Path = "standard"
	// PathCarryOver offers only the one or two subjects still owed.
	PathCarryOver Path = "carry_over"
	// PathHeldBack repeats the whole prior year.
	PathHeldBack Path = "held_back"
)

// MaxCarryOver is the largest number of failed subjects a student may owe
// and still be promoted.
const MaxCarryOver = 2

// DecidePath picks the path for the number of failed, unexempted subjects
// from the prior school year.
func DecidePath(failed int) Path {
	switch {
	case failed <= 0:
		return PathStandard
	case failed <= MaxCarryOver:
		return PathCarryOver
	default:
		return PathHeldBack
	}
}
