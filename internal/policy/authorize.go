package policy

import "fmt"

// Action names a write or entity-specific operation.
type Action string

const (
	ActionCreate          Action = "create"
	ActionUpdate          Action = "update"
	ActionDelete          Action = "delete"
	ActionEnroll          Action = "enroll"
	ActionAssignTeacher   Action = "assign_teacher"
	ActionSubmit          Action = "submit"
	ActionGrade           Action = "grade"
	ActionListSubmissions Action = "list_submissions"
	ActionMarkRead        Action = "mark_read"
	ActionSetCurrent      Action = "set_current"
	ActionSelect          Action = "select"
)

// Owned is implemented by entities carrying an owner field (teacher or author).
// A zero OwnerID means the record has no owner.
type Owned interface {
	OwnerID() uint
}

type permission struct {
	roles []Role
	// owned requires non-admin callers to own the target.
	owned bool
}

func allow(roles ...Role) permission { return permission{roles: roles} }

func allowOwner(roles ...Role) permission { return permission{roles: roles, owned: true} }

var permissions = map[EntityKind]map[Action]permission{
	KindCourse: {
		ActionCreate:        allow(RoleTeacher, RoleAdmin),
		ActionUpdate:        allowOwner(RoleTeacher, RoleAdmin),
		ActionDelete:        allowOwner(RoleTeacher, RoleAdmin),
		ActionEnroll:        allow(RoleStudent),
		ActionAssignTeacher: allow(RoleAdmin),
	},
	KindAssignment: {
		ActionCreate: allow(RoleTeacher, RoleAdmin),
		ActionUpdate: allowOwner(RoleTeacher, RoleAdmin),
		ActionDelete: allowOwner(RoleTeacher, RoleAdmin),
		ActionSubmit: allow(RoleStudent),
		// Grading and submission review carry no ownership check: any teacher may grade.
		ActionGrade:           allow(RoleTeacher),
		ActionListSubmissions: allow(RoleTeacher, RoleAdmin),
	},
	KindAnnouncement: {
		ActionCreate:   allow(RoleTeacher, RoleAdmin),
		ActionUpdate:   allowOwner(RoleTeacher, RoleAdmin),
		ActionDelete:   allowOwner(RoleTeacher, RoleAdmin),
		ActionMarkRead: allow(RoleStudent),
	},
	KindMaterial: {
		ActionCreate: allow(RoleTeacher, RoleAdmin),
		ActionUpdate: allowOwner(RoleTeacher, RoleAdmin),
		ActionDelete: allowOwner(RoleTeacher, RoleAdmin),
	},
	KindTimetable: {
		ActionCreate: allow(RoleTeacher, RoleAdmin),
		ActionUpdate: allow(RoleTeacher, RoleAdmin),
		ActionDelete: allow(RoleAdmin),
	},
	KindSemester: {
		ActionCreate:     allow(RoleAdmin),
		ActionUpdate:     allow(RoleAdmin),
		ActionDelete:     allow(RoleAdmin),
		ActionSetCurrent: allow(RoleAdmin),
		ActionSelect:     allow(RoleStudent),
	},
	KindGrade: {
		ActionCreate: allowOwner(RoleTeacher, RoleAdmin),
		ActionUpdate: allowOwner(RoleTeacher, RoleAdmin),
	},
	KindUser: {
		ActionUpdate: allow(RoleAdmin),
	},
}

// Authorize checks whether the identity may perform action on kind. target is
// the instance being acted on (nil for creates); for grades it is the course.
func Authorize(id Identity, kind EntityKind, action Action, target Owned) error {
	if !id.Authenticated() {
		return ErrUnauthenticated
	}

	byAction, ok := permissions[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	perm, ok := byAction[action]
	if !ok || !id.Is(perm.roles...) {
		return fmt.Errorf("%w: %s cannot %s %s", ErrForbiddenRole, id.Role, action, kind)
	}

	if perm.owned && id.Role != RoleAdmin {
		if target == nil || target.OwnerID() == 0 || target.OwnerID() != id.ID {
			return fmt.Errorf("%w: %s %s", ErrForbiddenOwnership, action, kind)
		}
	}

	return nil
}

// CanMutate reports whether the identity may update the instance.
func CanMutate(id Identity, kind EntityKind, target Owned) bool {
	return Authorize(id, kind, ActionUpdate, target) == nil
}
