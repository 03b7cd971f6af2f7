package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/events"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

func newTimetableService(f *fixture) TimetableService {
	return NewTimetableService(f.timetable, f.courses, f.validate, f.hooks, testLogger())
}

func TestTimetableServiceTouchingBoundaries(t *testing.T) {
	f := newFixture(t)
	svc := newTimetableService(f)
	ctx := context.Background()

	teacher := f.user(policy.RoleTeacher, "Teacher")
	semester := f.semester(1, true)
	algebra := f.course("MA101", semester.ID, &teacher)
	geometry := f.course("MA102", semester.ID, &teacher)
	id := f.identity(teacher)

	first, err := svc.Create(ctx, id, dto.TimetableCreateRequest{Day: "Mon", StartTime: "09:00", EndTime: "10:00", CourseID: algebra.ID, Room: "101"})
	require.NoError(t, err)
	require.Equal(t, "monday", first.Day)
	require.Equal(t, teacher.ID, first.TeacherID)
	require.Equal(t, "lecture", first.Type)

	var conflict *rules.ConflictError
	_, err = svc.Create(ctx, id, dto.TimetableCreateRequest{Day: "monday", StartTime: "09:30", EndTime: "10:30", CourseID: geometry.ID, Room: "202"})
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, rules.RuleTimetableOverlap, conflict.Rule)
	require.Equal(t, first.ID, conflict.ConflictingID)

	second, err := svc.Create(ctx, id, dto.TimetableCreateRequest{Day: "monday", StartTime: "10:00", EndTime: "11:00", CourseID: geometry.ID, Room: "202"})
	require.NoError(t, err)

	start := "09:45"
	_, err = svc.Update(ctx, id, second.ID, dto.TimetableUpdateRequest{StartTime: &start})
	require.ErrorAs(t, err, &conflict)

	room := "303"
	moved, err := svc.Update(ctx, id, second.ID, dto.TimetableUpdateRequest{Room: &room})
	require.NoError(t, err)
	require.Equal(t, "303", moved.Room)

	var invalid *rules.ValidationError
	_, err = svc.Create(ctx, id, dto.TimetableCreateRequest{Day: "tuesday", StartTime: "11:00", EndTime: "10:00", CourseID: algebra.ID, Room: "101"})
	require.ErrorAs(t, err, &invalid)

	require.Equal(t, []string{events.TimetableChanged, events.TimetableChanged, events.TimetableChanged}, f.recorder.Topics())
}

func TestTimetableServiceTeacherWithoutCoursesSeesAll(t *testing.T) {
	f := newFixture(t)
	svc := newTimetableService(f)
	ctx := context.Background()

	admin := f.identity(f.user(policy.RoleAdmin, "Admin"))
	busy := f.user(policy.RoleTeacher, "Busy")
	idle := f.user(policy.RoleTeacher, "Idle")
	student := f.user(policy.RoleStudent, "Student")
	semester := f.semester(1, true)
	mine := f.course("PH101", semester.ID, &busy)
	unassigned := f.course("PH102", semester.ID, nil)
	f.enroll(mine.ID, student)

	_, err := svc.Create(ctx, admin, dto.TimetableCreateRequest{Day: "friday", StartTime: "08:00", EndTime: "09:00", CourseID: mine.ID, Room: "A"})
	require.NoError(t, err)

	var invalid *rules.ValidationError
	_, err = svc.Create(ctx, admin, dto.TimetableCreateRequest{Day: "friday", StartTime: "10:00", EndTime: "11:00", CourseID: unassigned.ID, Room: "B"})
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "teacher_id", invalid.Field)

	other, err := svc.Create(ctx, admin, dto.TimetableCreateRequest{Day: "friday", StartTime: "10:00", EndTime: "11:00", CourseID: unassigned.ID, TeacherID: idle.ID, Room: "B"})
	require.NoError(t, err)

	idleView, err := svc.List(ctx, f.identity(idle), dto.TimetableListRequest{})
	require.NoError(t, err)
	require.Len(t, idleView.Items, 2)

	busyView, err := svc.List(ctx, f.identity(busy), dto.TimetableListRequest{Day: "fri"})
	require.NoError(t, err)
	require.Len(t, busyView.Items, 1)
	require.Equal(t, mine.ID, busyView.Items[0].CourseID)

	studentView, err := svc.List(ctx, f.identity(student), dto.TimetableListRequest{})
	require.NoError(t, err)
	require.Len(t, studentView.Items, 1)

	_, err = svc.Get(ctx, f.identity(student), other.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, f.identity(busy), other.ID), policy.ErrForbiddenRole)
	require.NoError(t, svc.Delete(ctx, admin, other.ID))
	require.ErrorIs(t, svc.Delete(ctx, admin, other.ID), ErrNotFound)
}
