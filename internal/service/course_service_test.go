package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

func newCourseService(f *fixture) CourseService {
	return NewCourseService(f.courses, f.semesters, f.users, f.validate, f.hooks, testLogger())
}

func TestCourseServiceTeacherOwnsCreatedCourse(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)
	ctx := context.Background()
	teacher := f.user(policy.RoleTeacher, "Owner")
	other := f.user(policy.RoleTeacher, "Other")
	semester := f.semester(1, true)

	created, err := svc.Create(ctx, f.identity(teacher), dto.CourseCreateRequest{
		Name: "Algorithms", Code: "cs201", SemesterID: semester.ID, Credits: 4, MaxEnrollment: 40,
	})
	require.NoError(t, err)
	require.Equal(t, "CS201", created.Code)
	require.NotNil(t, created.TeacherID)
	require.Equal(t, teacher.ID, *created.TeacherID)
	require.True(t, f.identity(teacher).Teaches(created.ID))

	var conflict *rules.ConflictError
	_, err = svc.Create(ctx, f.identity(other), dto.CourseCreateRequest{
		Name: "Algorithms II", Code: "CS201", SemesterID: semester.ID, Credits: 3, MaxEnrollment: 10,
	})
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, rules.RuleCourseCodeUnique, conflict.Rule)

	name := "Hijacked"
	_, err = svc.Update(ctx, f.identity(other), created.ID, dto.CourseUpdateRequest{Name: &name})
	require.ErrorIs(t, err, policy.ErrForbiddenOwnership)

	student := f.user(policy.RoleStudent, "Student")
	_, err = svc.Update(ctx, f.identity(student), created.ID, dto.CourseUpdateRequest{Name: &name})
	require.ErrorIs(t, err, policy.ErrForbiddenRole)

	name = "Algorithms and Data"
	updated, err := svc.Update(ctx, f.identity(teacher), created.ID, dto.CourseUpdateRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
}

func TestCourseServiceEnrollmentRules(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)
	ctx := context.Background()
	semester := f.semester(1, true)
	course := f.course("MA101", semester.ID, nil)
	require.NoError(t, f.db.Model(&course).Update("max_enrollment", 1).Error)

	first := f.user(policy.RoleStudent, "First")
	second := f.user(policy.RoleStudent, "Second")

	require.NoError(t, svc.Enroll(ctx, f.identity(first), course.ID))
	require.True(t, f.identity(first).Enrolled(course.ID))

	var conflict *rules.ConflictError
	require.ErrorAs(t, svc.Enroll(ctx, f.identity(first), course.ID), &conflict)
	require.Equal(t, rules.RuleAlreadyEnrolled, conflict.Rule)

	require.ErrorAs(t, svc.Enroll(ctx, f.identity(second), course.ID), &conflict)
	require.Equal(t, rules.RuleEnrollmentCapacity, conflict.Rule)

	teacher := f.user(policy.RoleTeacher, "Teacher")
	require.ErrorIs(t, svc.Enroll(ctx, f.identity(teacher), course.ID), policy.ErrForbiddenRole)
}

func TestCourseServiceDeactivatedCourseHiddenFromStudents(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)
	ctx := context.Background()
	admin := f.identity(f.user(policy.RoleAdmin, "Admin"))
	student := f.identity(f.user(policy.RoleStudent, "Student"))
	semester := f.semester(1, true)
	course := f.course("PH101", semester.ID, nil)

	require.NoError(t, svc.Delete(ctx, admin, course.ID))

	_, err := svc.Get(ctx, student, course.ID)
	require.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(ctx, student, dto.CourseListRequest{})
	require.NoError(t, err)
	require.Empty(t, list.Items)

	adminList, err := svc.List(ctx, admin, dto.CourseListRequest{})
	require.NoError(t, err)
	require.Len(t, adminList.Items, 1)
	require.False(t, adminList.Items[0].Active)
}

func TestCourseServiceAssignTeacher(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)
	ctx := context.Background()
	admin := f.identity(f.user(policy.RoleAdmin, "Admin"))
	teacher := f.user(policy.RoleTeacher, "Teacher")
	student := f.user(policy.RoleStudent, "Student")
	semester := f.semester(1, true)
	course := f.course("CH101", semester.ID, nil)

	var invalid *rules.ValidationError
	_, err := svc.AssignTeacher(ctx, admin, course.ID, dto.CourseAssignTeacherRequest{TeacherID: student.ID})
	require.ErrorAs(t, err, &invalid)

	_, err = svc.AssignTeacher(ctx, f.identity(teacher), course.ID, dto.CourseAssignTeacherRequest{TeacherID: teacher.ID})
	require.ErrorIs(t, err, policy.ErrForbiddenRole)

	resp, err := svc.AssignTeacher(ctx, admin, course.ID, dto.CourseAssignTeacherRequest{TeacherID: teacher.ID})
	require.NoError(t, err)
	require.Equal(t, teacher.ID, *resp.TeacherID)
	require.True(t, f.identity(teacher).Teaches(course.ID))

	successor := f.user(policy.RoleTeacher, "Successor")
	_, err = svc.AssignTeacher(ctx, admin, course.ID, dto.CourseAssignTeacherRequest{TeacherID: successor.ID})
	require.NoError(t, err)
	require.True(t, f.identity(successor).Teaches(course.ID))
	require.False(t, f.identity(teacher).Teaches(course.ID))

	_, err = svc.AssignTeacher(ctx, admin, 4242, dto.CourseAssignTeacherRequest{TeacherID: teacher.ID})
	require.ErrorIs(t, err, ErrNotFound)
}
