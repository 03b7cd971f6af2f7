package policy

import (
	"fmt"
	"time"
)

// EntityKind identifies a collection governed by the policy engine.
type EntityKind string

const (
	KindCourse       EntityKind = "course"
	KindAssignment   EntityKind = "assignment"
	KindAnnouncement EntityKind = "announcement"
	KindMaterial     EntityKind = "material"
	KindTimetable    EntityKind = "timetable_entry"
	KindSemester     EntityKind = "semester"
	KindGrade        EntityKind = "grade"
	KindUser         EntityKind = "user"
)

type scopeRule func(id Identity, now time.Time) Scope

func unrestricted(Identity, time.Time) Scope { return Scope{} }

func activeOnly(Identity, time.Time) Scope {
	return Scope{Conditions: []Condition{Eq(FieldActive, true)}}
}

func empty() Scope { return Scope{Empty: true} }

// visibilityRules is the single table of read scopes, keyed by kind then role.
// Every kind follows the same three tiers: self-scoped students, ownership or
// teaching scoped teachers, unrestricted (or active-only) admins.
var visibilityRules = map[EntityKind]map[Role]scopeRule{
	KindCourse: {
		RoleStudent: activeOnly,
		RoleTeacher: activeOnly,
		RoleAdmin:   unrestricted,
	},
	KindAssignment: {
		RoleStudent: func(id Identity, _ time.Time) Scope {
			if len(id.EnrolledCourseIDs) == 0 {
				return empty()
			}
			return Scope{Conditions: []Condition{
				In(FieldCourseID, id.EnrolledCourseIDs),
				Eq(FieldActive, true),
			}}
		},
		RoleTeacher: func(id Identity, _ time.Time) Scope {
			return Scope{Conditions: []Condition{
				Or(Eq(FieldTeacherID, id.ID), In(FieldCourseID, id.TeachingCourseIDs)),
				Eq(FieldActive, true),
			}}
		},
		RoleAdmin: activeOnly,
	},
	KindAnnouncement: {
		RoleStudent: func(id Identity, now time.Time) Scope {
			if len(id.EnrolledSemesterIDs) == 0 {
				return empty()
			}
			return Scope{Conditions: []Condition{
				In(FieldSemesterID, id.EnrolledSemesterIDs),
				Eq(FieldPublished, true),
				Eq(FieldActive, true),
				Unexpired(FieldExpiryDate, now),
			}}
		},
		RoleTeacher: func(id Identity, _ time.Time) Scope {
			if len(id.TeachingSemesterIDs) == 0 {
				return empty()
			}
			return Scope{Conditions: []Condition{
				In(FieldSemesterID, id.TeachingSemesterIDs),
				Eq(FieldPublished, true),
			}}
		},
		RoleAdmin: unrestricted,
	},
	KindMaterial: {
		RoleStudent: func(id Identity, _ time.Time) Scope {
			if len(id.EnrolledCourseIDs) == 0 {
				return empty()
			}
			return Scope{Conditions: []Condition{
				In(FieldCourseID, id.EnrolledCourseIDs),
				Eq(FieldActive, true),
			}}
		},
		RoleTeacher: func(id Identity, _ time.Time) Scope {
			return Scope{Conditions: []Condition{
				Eq(FieldTeacherID, id.ID),
				Eq(FieldActive, true),
			}}
		},
		RoleAdmin: unrestricted,
	},
	KindTimetable: {
		RoleStudent: func(id Identity, _ time.Time) Scope {
			if len(id.EnrolledCourseIDs) == 0 {
				return empty()
			}
			return Scope{Conditions: []Condition{
				In(FieldCourseID, id.EnrolledCourseIDs),
				Eq(FieldActive, true),
			}}
		},
		RoleTeacher: func(id Identity, _ time.Time) Scope {
			// A teacher with nothing assigned yet sees the whole timetable.
			if len(id.TeachingCourseIDs) == 0 {
				return Scope{Conditions: []Condition{Eq(FieldActive, true)}}
			}
			return Scope{Conditions: []Condition{
				In(FieldCourseID, id.TeachingCourseIDs),
				Eq(FieldActive, true),
			}}
		},
		RoleAdmin: unrestricted,
	},
	KindSemester: {
		RoleStudent: activeOnly,
		RoleTeacher: activeOnly,
		RoleAdmin:   unrestricted,
	},
	KindGrade: {
		RoleStudent: func(id Identity, _ time.Time) Scope {
			return Scope{Conditions: []Condition{Eq(FieldStudentID, id.ID)}}
		},
		RoleTeacher: func(id Identity, _ time.Time) Scope {
			return Scope{Conditions: []Condition{
				Or(In(FieldCourseID, id.TeachingCourseIDs), Eq(FieldGradedBy, id.ID)),
			}}
		},
		RoleAdmin: unrestricted,
	},
}

// Visibility returns the read scope of kind for the identity at the given instant.
// An identity whose relational data cannot satisfy the rule gets an Empty scope,
// never an error.
func Visibility(kind EntityKind, id Identity, now time.Time) (Scope, error) {
	if !id.Authenticated() {
		return Scope{}, ErrUnauthenticated
	}

	byRole, ok := visibilityRules[kind]
	if !ok {
		return Scope{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	rule, ok := byRole[id.Role]
	if !ok {
		return Scope{}, fmt.Errorf("%w: %s cannot read %s", ErrForbiddenRole, id.Role, kind)
	}

	scope := rule(id, now)
	scope.Kind = kind
	return scope, nil
}

// CanSee reports whether a single record is inside the identity's read scope.
func CanSee(kind EntityKind, id Identity, record Record, now time.Time) bool {
	scope, err := Visibility(kind, id, now)
	if err != nil {
		return false
	}
	return scope.Matches(record)
}
