package rules

import "fmt"

// Rule names for conflict reporting.
const (
	RuleTimetableOverlap   = "timetable_overlap"
	RuleSingleSubmission   = "single_submission"
	RuleCourseCodeUnique   = "course_code_unique"
	RuleSemesterNumber     = "semester_number_unique"
	RuleEnrollmentCapacity = "enrollment_capacity"
	RuleAlreadyEnrolled    = "already_enrolled"
	RuleSemesterSelected   = "semester_already_selected"
	RuleDuplicate          = "duplicate"
)

// ConflictError reports a cross-record invariant that a write would violate.
type ConflictError struct {
	Rule          string `json:"rule"`
	Message       string `json:"message"`
	ConflictingID uint   `json:"conflicting_id,omitempty"`
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

// Conflict builds a ConflictError for the named rule.
func Conflict(rule, format string, args ...interface{}) *ConflictError {
	return &ConflictError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
