package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type ownedStub uint

func (o ownedStub) OwnerID() uint { return uint(o) }

func TestAuthorizeCreateRequiresTeacherOrAdmin(t *testing.T) {
	require.NoError(t, Authorize(teacher(1, nil, nil), KindAnnouncement, ActionCreate, nil))
	require.NoError(t, Authorize(admin(2), KindAnnouncement, ActionCreate, nil))
	require.ErrorIs(t, Authorize(student(3, nil, nil), KindAnnouncement, ActionCreate, nil), ErrForbiddenRole)
}

func TestAuthorizeOwnershipForTeachers(t *testing.T) {
	owner := teacher(1, nil, nil)
	other := teacher(2, nil, nil)

	require.NoError(t, Authorize(owner, KindAnnouncement, ActionUpdate, ownedStub(1)))
	require.ErrorIs(t, Authorize(other, KindAnnouncement, ActionUpdate, ownedStub(1)), ErrForbiddenOwnership)
	require.NoError(t, Authorize(admin(9), KindAnnouncement, ActionDelete, ownedStub(1)))

	// An unowned course cannot be edited by a teacher.
	require.ErrorIs(t, Authorize(owner, KindCourse, ActionUpdate, ownedStub(0)), ErrForbiddenOwnership)
	require.False(t, CanMutate(other, KindMaterial, ownedStub(1)))
	require.True(t, CanMutate(owner, KindMaterial, ownedStub(1)))
}

func TestAuthorizeTimetableDeleteIsAdminOnly(t *testing.T) {
	require.NoError(t, Authorize(teacher(1, nil, nil), KindTimetable, ActionUpdate, ownedStub(5)))
	require.ErrorIs(t, Authorize(teacher(1, nil, nil), KindTimetable, ActionDelete, ownedStub(1)), ErrForbiddenRole)
	require.NoError(t, Authorize(admin(2), KindTimetable, ActionDelete, nil))
}

func TestAuthorizeGradingHasNoOwnershipCheck(t *testing.T) {
	require.NoError(t, Authorize(teacher(1, nil, nil), KindAssignment, ActionGrade, ownedStub(42)))
	require.ErrorIs(t, Authorize(admin(2), KindAssignment, ActionGrade, nil), ErrForbiddenRole)
	require.ErrorIs(t, Authorize(student(3, nil, nil), KindAssignment, ActionGrade, nil), ErrForbiddenRole)
}

func TestAuthorizeStudentActions(t *testing.T) {
	st := student(3, nil, nil)
	require.NoError(t, Authorize(st, KindAnnouncement, ActionMarkRead, nil))
	require.NoError(t, Authorize(st, KindCourse, ActionEnroll, nil))
	require.NoError(t, Authorize(st, KindSemester, ActionSelect, nil))
	require.ErrorIs(t, Authorize(teacher(1, nil, nil), KindAnnouncement, ActionMarkRead, nil), ErrForbiddenRole)
	require.ErrorIs(t, Authorize(st, KindSemester, ActionSetCurrent, nil), ErrForbiddenRole)
}

func TestAuthorizeFailsClosed(t *testing.T) {
	require.ErrorIs(t, Authorize(Identity{ID: 1, Role: RoleAdmin}, KindCourse, ActionCreate, nil), ErrUnauthenticated)
	require.ErrorIs(t, Authorize(admin(1), KindCourse, Action("archive"), nil), ErrForbiddenRole)
	require.ErrorIs(t, Authorize(admin(1), EntityKind("invoice"), ActionCreate, nil), ErrUnknownKind)
}

func TestAuthorizeUserAdministrationIsAdminOnly(t *testing.T) {
	require.NoError(t, Authorize(admin(1), KindUser, ActionUpdate, nil))
	require.ErrorIs(t, Authorize(teacher(2, nil, nil), KindUser, ActionUpdate, nil), ErrForbiddenRole)
	require.ErrorIs(t, Authorize(student(3, nil, nil), KindUser, ActionUpdate, nil), ErrForbiddenRole)
}
