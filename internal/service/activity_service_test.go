package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/policy"
)

func TestActivityServiceRecordMasksSensitiveKeys(t *testing.T) {
	f := newFixture(t)
	svc := NewActivityService(f.activity, testLogger())
	entityID := uint(5)

	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		ActorRole:  "Admin",
		Action:     "User.Updated",
		EntityType: "user",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"email":       "student@example.com",
			"reset_token": "abc",
			"field":       "status",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, "***", entry.Metadata["reset_token"])
	require.Equal(t, "status", entry.Metadata["field"])
	require.Equal(t, "admin", entry.ActorRole)
	require.Equal(t, "user.updated", entry.Action)

	_, err = svc.Record(context.Background(), ActivityEntry{EntityType: "user"})
	require.Error(t, err)
}

func TestActivityServiceListIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	svc := NewActivityService(f.activity, testLogger())
	ctx := context.Background()

	admin := f.identity(f.user(policy.RoleAdmin, "Admin"))
	teacher := f.identity(f.user(policy.RoleTeacher, "Teacher"))

	semesters := newSemesterService(f)
	_, err := semesters.Create(ctx, admin, dto.SemesterCreateRequest{Number: 1, Name: "First", AcademicYear: "2025/2026"})
	require.NoError(t, err)

	list, err := svc.List(ctx, admin, dto.ActivityListRequest{EntityType: "Semester"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, "semester.created", list.Items[0].Action)
	require.Equal(t, admin.ID, list.Items[0].ActorID)

	_, err = svc.List(ctx, teacher, dto.ActivityListRequest{})
	require.ErrorIs(t, err, policy.ErrForbiddenRole)
}

func TestIdentityResolverFailsClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.resolver.Resolve(ctx, 0)
	require.ErrorIs(t, err, policy.ErrUnauthenticated)

	_, err = f.resolver.Resolve(ctx, 12345)
	require.ErrorIs(t, err, policy.ErrUnauthenticated)

	teacher := f.user(policy.RoleTeacher, "Teacher")
	student := f.user(policy.RoleStudent, "Student")
	semester := f.semester(3, true)
	course := f.course("CS301", semester.ID, &teacher)
	f.enroll(course.ID, student)

	sid := f.identity(student)
	require.Equal(t, []uint{course.ID}, sid.EnrolledCourseIDs)
	require.Equal(t, []uint{semester.ID}, sid.EnrolledSemesterIDs)
	require.Empty(t, sid.TeachingCourseIDs)

	tid := f.identity(teacher)
	require.Equal(t, []uint{semester.ID}, tid.TeachingSemesterIDs)
	require.Empty(t, tid.EnrolledCourseIDs)
}
