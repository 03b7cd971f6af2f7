package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/auth"
	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

func newAuthService(f *fixture) (AuthService, *auth.Issuer) {
	issuer := auth.NewIssuer("test-secret", "edutrack", time.Hour)
	return NewAuthService(f.users, issuer, f.validate, f.hooks, testLogger()), issuer
}

func TestAuthServiceSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	svc, issuer := newAuthService(f)
	ctx := context.Background()

	signup, err := svc.Signup(ctx, dto.SignupRequest{Name: "Ada", Email: "Ada@Example.com", Password: "correct-horse", Role: "student"})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", signup.User.Email)
	require.Equal(t, "student", signup.User.Role)

	claims, err := issuer.Parse(signup.Token)
	require.NoError(t, err)
	require.Equal(t, signup.User.ID, claims.UserID)

	login, err := svc.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, signup.User.ID, login.User.ID)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	var conflict *rules.ConflictError
	_, err = svc.Signup(ctx, dto.SignupRequest{Name: "Ada Again", Email: "ada@example.com", Password: "another-pass", Role: "teacher"})
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, rules.RuleDuplicate, conflict.Rule)
}

func TestAuthServiceRejectsAdminSignupAndInactiveLogin(t *testing.T) {
	f := newFixture(t)
	svc, _ := newAuthService(f)
	ctx := context.Background()

	_, err := svc.Signup(ctx, dto.SignupRequest{Name: "Root", Email: "root@example.com", Password: "password123", Role: "admin"})
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)

	user, err := svc.CreateUser(ctx, "Grace", "grace@example.com", "password123", policy.RoleTeacher)
	require.NoError(t, err)
	require.NoError(t, f.users.SetActive(ctx, user.ID, false))

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "grace@example.com", Password: "password123"})
	require.ErrorIs(t, err, ErrAccountInactive)

	_, err = f.resolver.Resolve(ctx, user.ID)
	require.ErrorIs(t, err, policy.ErrUnauthenticated)
}

func TestAuthServiceMeIncludesRelations(t *testing.T) {
	f := newFixture(t)
	svc, _ := newAuthService(f)
	ctx := context.Background()

	teacher := f.user(policy.RoleTeacher, "Turing")
	semester := f.semester(1, true)
	course := f.course("CS101", semester.ID, &teacher)

	profile, err := svc.Me(ctx, f.identity(teacher))
	require.NoError(t, err)
	require.Equal(t, []uint{course.ID}, profile.TeachingCourseIDs)
	require.Empty(t, profile.EnrolledCourseIDs)

	_, err = svc.Me(ctx, policy.Identity{})
	require.ErrorIs(t, err, policy.ErrUnauthenticated)
}
