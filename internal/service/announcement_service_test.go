package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/events"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
)

func newAnnouncementService(f *fixture, cache *redis.Client) AnnouncementService {
	return NewAnnouncementService(f.announcements, f.semesters, cache, AnnouncementConfig{UnreadTTL: time.Minute}, f.validate, f.hooks, testLogger())
}

type announcementWorld struct {
	admin   policy.Identity
	teacher models.User
	student models.User
	first   models.Semester
	second  models.Semester
}

func seedAnnouncementWorld(f *fixture) announcementWorld {
	w := announcementWorld{
		admin:   f.identity(f.user(policy.RoleAdmin, "Admin")),
		teacher: f.user(policy.RoleTeacher, "Teacher"),
		student: f.user(policy.RoleStudent, "Student"),
		first:   f.semester(1, false),
		second:  f.semester(2, true),
	}
	course := f.course("CS201", w.second.ID, &w.teacher)
	f.enroll(course.ID, w.student)
	return w
}

func TestAnnouncementServiceStudentSeesOwnSemesterOnly(t *testing.T) {
	f := newFixture(t)
	svc := newAnnouncementService(f, nil)
	ctx := context.Background()
	w := seedAnnouncementWorld(f)

	visible, err := svc.Create(ctx, w.admin, dto.AnnouncementCreateRequest{
		Title: "Exam week", Content: "<script>alert(1)</script><p>Bring ID</p>", SemesterID: w.second.ID, Priority: "high",
	})
	require.NoError(t, err)
	require.Equal(t, "<p>Bring ID</p>", visible.Content)
	require.Equal(t, models.AnnouncementGeneral, visible.Type)
	require.NotNil(t, visible.ExpiryDate)
	require.Equal(t, fixedNow.Add(30*24*time.Hour), visible.ExpiryDate.UTC())

	_, err = svc.Create(ctx, w.admin, dto.AnnouncementCreateRequest{Title: "Old term", Content: "bye", SemesterID: w.first.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, w.admin, dto.AnnouncementCreateRequest{Title: "Draft", Content: "soon", SemesterID: w.second.ID, Published: boolPtr(false)})
	require.NoError(t, err)
	publish := fixedNow.Add(-72 * time.Hour)
	expiry := fixedNow.Add(-24 * time.Hour)
	_, err = svc.Create(ctx, w.admin, dto.AnnouncementCreateRequest{Title: "Expired", Content: "gone", SemesterID: w.second.ID, PublishDate: &publish, ExpiryDate: &expiry})
	require.NoError(t, err)

	studentList, err := svc.List(ctx, f.identity(w.student), dto.AnnouncementListRequest{})
	require.NoError(t, err)
	require.Len(t, studentList.Items, 1)
	require.Equal(t, visible.ID, studentList.Items[0].ID)

	teacherList, err := svc.List(ctx, f.identity(w.teacher), dto.AnnouncementListRequest{})
	require.NoError(t, err)
	require.Len(t, teacherList.Items, 2)

	adminList, err := svc.List(ctx, w.admin, dto.AnnouncementListRequest{})
	require.NoError(t, err)
	require.Len(t, adminList.Items, 4)

	fresh := f.user(policy.RoleStudent, "Fresh")
	empty, err := svc.List(ctx, f.identity(fresh), dto.AnnouncementListRequest{})
	require.NoError(t, err)
	require.Empty(t, empty.Items)

	require.Equal(t, []string{events.AnnouncementPublished, events.AnnouncementPublished, events.AnnouncementPublished}, f.recorder.Topics())
}

func TestAnnouncementServiceUnreadCountCache(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	f := newFixture(t)
	svc := newAnnouncementService(f, client)
	ctx := context.Background()
	w := seedAnnouncementWorld(f)
	student := f.identity(w.student)

	first, err := svc.Create(ctx, w.admin, dto.AnnouncementCreateRequest{Title: "First", Content: "one", SemesterID: w.second.ID})
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, student)
	require.NoError(t, err)
	require.Equal(t, int64(1), count.Unread)
	require.True(t, server.Exists("announcements:unread:v1:"+uintString(w.student.ID)))

	_, err = svc.Create(ctx, w.admin, dto.AnnouncementCreateRequest{Title: "Second", Content: "two", SemesterID: w.second.ID})
	require.NoError(t, err)

	count, err = svc.UnreadCount(ctx, student)
	require.NoError(t, err)
	require.Equal(t, int64(2), count.Unread)

	require.NoError(t, svc.MarkRead(ctx, student, first.ID))
	require.NoError(t, svc.MarkRead(ctx, student, first.ID))

	count, err = svc.UnreadCount(ctx, student)
	require.NoError(t, err)
	require.Equal(t, int64(1), count.Unread)

	got, err := svc.Get(ctx, student, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)

	_, err = svc.UnreadCount(ctx, f.identity(w.teacher))
	require.ErrorIs(t, err, policy.ErrForbiddenRole)
}

func TestAnnouncementServiceAuthorOwnership(t *testing.T) {
	f := newFixture(t)
	svc := newAnnouncementService(f, nil)
	ctx := context.Background()
	w := seedAnnouncementWorld(f)

	colleague := f.user(policy.RoleTeacher, "Colleague")
	f.course("CS202", w.second.ID, &colleague)

	created, err := svc.Create(ctx, f.identity(w.teacher), dto.AnnouncementCreateRequest{Title: "Lab moved", Content: "Room 4", SemesterID: w.second.ID})
	require.NoError(t, err)
	require.Equal(t, w.teacher.ID, created.AuthorID)

	title := "Lab cancelled"
	_, err = svc.Update(ctx, f.identity(colleague), created.ID, dto.AnnouncementUpdateRequest{Title: &title})
	require.ErrorIs(t, err, policy.ErrForbiddenOwnership)

	updated, err := svc.Update(ctx, f.identity(w.teacher), created.ID, dto.AnnouncementUpdateRequest{Title: &title, Content: stringPtr("<b>Cancelled</b>")})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)

	_, err = svc.Update(ctx, f.identity(w.teacher), created.ID, dto.AnnouncementUpdateRequest{Content: stringPtr("<script>x</script>")})
	require.Error(t, err)

	require.NoError(t, svc.Delete(ctx, w.admin, created.ID))
	_, err = svc.Get(ctx, f.identity(w.student), created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func uintString(v uint) string {
	return fmt.Sprintf("%d", v)
}
