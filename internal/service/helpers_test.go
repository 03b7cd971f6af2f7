package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/database"
	"github.com/noah-isme/edutrack-api/internal/events"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/repository"
)

var fixedNow = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type fixture struct {
	t        *testing.T
	db       *gorm.DB
	validate *validator.Validate
	recorder *events.Recorder
	hooks    Hooks

	users         repository.UserRepository
	semesters     repository.SemesterRepository
	courses       repository.CourseRepository
	assignments   repository.AssignmentRepository
	submissions   repository.SubmissionRepository
	announcements repository.AnnouncementRepository
	materials     repository.MaterialRepository
	timetable     repository.TimetableRepository
	grades        repository.GradeRepository
	activity      repository.ActivityLogRepository

	resolver IdentityResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	f := &fixture{
		t:             t,
		db:            db,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		recorder:      &events.Recorder{},
		users:         repository.NewUserRepository(db),
		semesters:     repository.NewSemesterRepository(db),
		courses:       repository.NewCourseRepository(db),
		assignments:   repository.NewAssignmentRepository(db),
		submissions:   repository.NewSubmissionRepository(db),
		announcements: repository.NewAnnouncementRepository(db),
		materials:     repository.NewMaterialRepository(db),
		timetable:     repository.NewTimetableRepository(db),
		grades:        repository.NewGradeRepository(db),
		activity:      repository.NewActivityLogRepository(db),
	}
	f.resolver = NewIdentityResolver(f.users)
	f.hooks = Hooks{
		Activity:  NewActivityService(f.activity, testLogger()),
		Publisher: f.recorder,
		Clock:     func() time.Time { return fixedNow },
	}
	return f
}

func (f *fixture) user(role policy.Role, name string) models.User {
	f.t.Helper()
	user := models.User{
		Name:         name,
		Email:        strings.ToLower(name) + "@edutrack.test",
		PasswordHash: "x",
		Role:         string(role),
		Active:       true,
	}
	require.NoError(f.t, f.users.Create(context.Background(), &user))
	return user
}

// identity re-resolves the user so relational data reflects the latest writes.
func (f *fixture) identity(user models.User) policy.Identity {
	f.t.Helper()
	id, err := f.resolver.Resolve(context.Background(), user.ID)
	require.NoError(f.t, err)
	return id
}

func (f *fixture) semester(number int, current bool) models.Semester {
	f.t.Helper()
	semester := models.Semester{Number: number, Name: fmt.Sprintf("Semester %d", number), AcademicYear: "2025/2026", Active: true, IsCurrent: current}
	require.NoError(f.t, f.semesters.Create(context.Background(), &semester))
	return semester
}

func (f *fixture) course(code string, semesterID uint, teacher *models.User) models.Course {
	f.t.Helper()
	course := models.Course{Name: code, Code: code, SemesterID: semesterID, Credits: 3, MaxEnrollment: 30, Active: true}
	require.NoError(f.t, f.courses.Create(context.Background(), &course))
	if teacher != nil {
		require.NoError(f.t, f.courses.AssignTeacher(context.Background(), course.ID, teacher.ID))
		course.TeacherID = &teacher.ID
	}
	return course
}

func (f *fixture) enroll(courseID uint, student models.User) {
	f.t.Helper()
	require.NoError(f.t, f.courses.Enroll(context.Background(), courseID, student.ID))
}

type uploaderStub struct {
	calls int
}

func (u *uploaderStub) Store(_ context.Context, folder string, file *multipart.FileHeader) (models.FileRef, error) {
	u.calls++
	name := "file.bin"
	if file != nil {
		name = file.Filename
	}
	return models.FileRef{URL: "https://cdn.edutrack.test/" + folder + "/" + name, Name: name, Size: 4, MimeType: "application/pdf"}, nil
}

type storageStub struct {
	folder   string
	uploaded bytes.Buffer
}

func (s *storageStub) Upload(_ context.Context, folder, name string, reader io.Reader) (string, error) {
	s.folder = folder
	s.uploaded.Reset()
	if _, err := s.uploaded.ReadFrom(reader); err != nil {
		return "", err
	}
	return "https://cdn.edutrack.test/" + folder + "/" + name, nil
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }
