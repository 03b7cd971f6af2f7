package policy

import "strings"

// Role names an actor class known to the policy engine.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole normalises a raw role string and reports whether it is known.
func ParseRole(value string) (Role, bool) {
	switch role := Role(strings.ToLower(strings.TrimSpace(value))); role {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

// Identity is the resolved authenticated caller together with the relational
// data the visibility rules need. It is built once per request.
type Identity struct {
	ID     uint
	Name   string
	Email  string
	Role   Role
	Active bool

	EnrolledCourseIDs   []uint
	TeachingCourseIDs   []uint
	EnrolledSemesterIDs []uint
	TeachingSemesterIDs []uint
	CurrentSemesterID   *uint
}

// Authenticated reports whether the identity may reach the policy engine at all.
func (i Identity) Authenticated() bool {
	return i.ID != 0 && i.Active
}

// Is reports whether the identity holds one of the given roles.
func (i Identity) Is(roles ...Role) bool {
	for _, role := range roles {
		if i.Role == role {
			return true
		}
	}
	return false
}

// Enrolled reports whether the student is enrolled in the course.
func (i Identity) Enrolled(courseID uint) bool {
	return containsID(i.EnrolledCourseIDs, courseID)
}

// Teaches reports whether the teacher has the course among its teaching courses.
func (i Identity) Teaches(courseID uint) bool {
	return containsID(i.TeachingCourseIDs, courseID)
}

func containsID(ids []uint, id uint) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
