package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/events"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

func newSemesterService(f *fixture) SemesterService {
	return NewSemesterService(f.semesters, f.users, f.validate, f.hooks, testLogger())
}

func TestSemesterServiceSwitchCurrent(t *testing.T) {
	f := newFixture(t)
	svc := newSemesterService(f)
	ctx := context.Background()
	admin := f.identity(f.user(policy.RoleAdmin, "Admin"))

	f.semester(1, true)
	f.semester(2, false)
	third := f.semester(3, false)

	resp, err := svc.SetCurrent(ctx, admin, third.ID)
	require.NoError(t, err)
	require.True(t, resp.IsCurrent)

	var count int64
	require.NoError(t, f.db.Model(&models.Semester{}).Where("is_current = ?", true).Count(&count).Error)
	require.Equal(t, int64(1), count)

	current, err := svc.Current(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, third.ID, current.ID)
	require.Equal(t, []string{events.SemesterCurrent}, f.recorder.Topics())
}

func TestSemesterServiceSetCurrentGuards(t *testing.T) {
	f := newFixture(t)
	svc := newSemesterService(f)
	ctx := context.Background()
	admin := f.identity(f.user(policy.RoleAdmin, "Admin"))
	teacher := f.identity(f.user(policy.RoleTeacher, "Teacher"))

	semester := f.semester(1, false)

	_, err := svc.SetCurrent(ctx, teacher, semester.ID)
	require.ErrorIs(t, err, policy.ErrForbiddenRole)

	require.NoError(t, svc.Delete(ctx, admin, semester.ID))
	var invalid *rules.ValidationError
	_, err = svc.SetCurrent(ctx, admin, semester.ID)
	require.ErrorAs(t, err, &invalid)

	_, err = svc.SetCurrent(ctx, admin, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSemesterServiceNumberUniqueness(t *testing.T) {
	f := newFixture(t)
	svc := newSemesterService(f)
	ctx := context.Background()
	admin := f.identity(f.user(policy.RoleAdmin, "Admin"))

	first, err := svc.Create(ctx, admin, dto.SemesterCreateRequest{Number: 1, Name: "First", AcademicYear: "2025/2026"})
	require.NoError(t, err)

	var conflict *rules.ConflictError
	_, err = svc.Create(ctx, admin, dto.SemesterCreateRequest{Number: 1, Name: "Again", AcademicYear: "2025/2026"})
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, rules.RuleSemesterNumber, conflict.Rule)
	require.Equal(t, first.ID, conflict.ConflictingID)

	second, err := svc.Create(ctx, admin, dto.SemesterCreateRequest{Number: 2, Name: "Second", AcademicYear: "2025/2026"})
	require.NoError(t, err)

	number := 1
	_, err = svc.Update(ctx, admin, second.ID, dto.SemesterUpdateRequest{Number: &number})
	require.ErrorAs(t, err, &conflict)

	name := "First (renamed)"
	updated, err := svc.Update(ctx, admin, first.ID, dto.SemesterUpdateRequest{Number: &number, Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
}

func TestSemesterServiceStudentSelectsOnce(t *testing.T) {
	f := newFixture(t)
	svc := newSemesterService(f)
	ctx := context.Background()
	student := f.user(policy.RoleStudent, "Student")

	f.semester(1, true)
	second := f.semester(2, false)
	hidden := f.semester(3, false)
	require.NoError(t, f.semesters.Deactivate(ctx, hidden.ID))

	_, err := svc.Select(ctx, f.identity(student), dto.SemesterSelectRequest{SemesterID: hidden.ID})
	require.ErrorIs(t, err, ErrNotFound)

	resp, err := svc.Select(ctx, f.identity(student), dto.SemesterSelectRequest{SemesterID: second.ID})
	require.NoError(t, err)
	require.NotNil(t, resp.CurrentSemesterID)
	require.Equal(t, second.ID, *resp.CurrentSemesterID)

	var conflict *rules.ConflictError
	_, err = svc.Select(ctx, f.identity(student), dto.SemesterSelectRequest{SemesterID: second.ID})
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, rules.RuleSemesterSelected, conflict.Rule)

	list, err := svc.List(ctx, f.identity(student), dto.ListRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
}

func TestSemesterServiceDeactivatingCurrentLeavesNoneCurrent(t *testing.T) {
	f := newFixture(t)
	svc := newSemesterService(f)
	ctx := context.Background()
	admin := f.identity(f.user(policy.RoleAdmin, "Admin"))

	current := f.semester(1, true)
	f.semester(2, false)

	inactive := false
	resp, err := svc.Update(ctx, admin, current.ID, dto.SemesterUpdateRequest{Active: &inactive})
	require.NoError(t, err)
	require.False(t, resp.Active)
	require.False(t, resp.IsCurrent)

	var count int64
	require.NoError(t, f.db.Model(&models.Semester{}).Where("is_current = ?", true).Count(&count).Error)
	require.Zero(t, count)

	_, err = svc.Current(ctx, admin)
	require.ErrorIs(t, err, ErrNotFound)
}
