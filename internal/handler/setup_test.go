package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/auth"
	"github.com/noah-isme/edutrack-api/internal/config"
	"github.com/noah-isme/edutrack-api/internal/database"
	"github.com/noah-isme/edutrack-api/internal/events"
	"github.com/noah-isme/edutrack-api/internal/handler"
	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/router"
	"github.com/noah-isme/edutrack-api/internal/service"
)

type memoryStorage struct {
	uploads []string
}

func (m *memoryStorage) Upload(_ context.Context, folder, name string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	m.uploads = append(m.uploads, folder+"/"+name)
	return "https://cdn.edutrack.test/" + folder + "/" + name, nil
}

type testApp struct {
	t         *testing.T
	app       *fiber.App
	db        *gorm.DB
	issuer    *auth.Issuer
	auth      service.AuthService
	semesters repository.SemesterRepository
	recorder  *events.Recorder
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	issuer := auth.NewIssuer("test-secret", "edutrack", time.Hour)
	recorder := &events.Recorder{}

	userRepo := repository.NewUserRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	courseRepo := repository.NewCourseRepository(db)

	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	hooks := service.Hooks{Activity: activityService, Publisher: recorder}
	uploader := service.NewFileUploader(&memoryStorage{}, 1<<20, []string{"application/pdf", "text/plain"}, logger)

	authService := service.NewAuthService(userRepo, issuer, validate, hooks, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, config.Config{AppName: "EduTrack Test", AppEnv: "test", AuthRateLimit: 1000}, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		SemesterHandler:     handler.NewSemesterHandler(service.NewSemesterService(semesterRepo, userRepo, validate, hooks, logger), logger),
		CourseHandler:       handler.NewCourseHandler(service.NewCourseService(courseRepo, semesterRepo, userRepo, validate, hooks, logger), logger),
		AssignmentHandler:   handler.NewAssignmentHandler(service.NewAssignmentService(repository.NewAssignmentRepository(db), repository.NewSubmissionRepository(db), courseRepo, uploader, validate, hooks, logger), logger),
		AnnouncementHandler: handler.NewAnnouncementHandler(service.NewAnnouncementService(repository.NewAnnouncementRepository(db), semesterRepo, nil, service.AnnouncementConfig{}, validate, hooks, logger), logger),
		MaterialHandler:     handler.NewMaterialHandler(service.NewMaterialService(repository.NewMaterialRepository(db), courseRepo, uploader, validate, hooks, logger), logger),
		TimetableHandler:    handler.NewTimetableHandler(service.NewTimetableService(repository.NewTimetableRepository(db), courseRepo, validate, hooks, logger), logger),
		GradeHandler:        handler.NewGradeHandler(service.NewGradeService(repository.NewGradeRepository(db), courseRepo, validate, hooks, logger), logger),
		ActivityHandler:     handler.NewActivityHandler(activityService, logger),
		UserHandler:         handler.NewUserHandler(service.NewUserService(userRepo, semesterRepo, validate, hooks, logger), logger),
		JWTMiddleware:       middleware.JWTProtected(issuer),
		IdentityMiddleware:  middleware.ResolveIdentity(service.NewIdentityResolver(userRepo), logger),
	})

	return &testApp{t: t, app: app, db: db, issuer: issuer, auth: authService, semesters: semesterRepo, recorder: recorder}
}

// account provisions a user and returns a bearer token for it.
func (a *testApp) account(role policy.Role, name string) (models.User, string) {
	a.t.Helper()
	user, err := a.auth.CreateUser(context.Background(), name, strings.ToLower(name)+"@edutrack.test", "password123", role)
	require.NoError(a.t, err)
	token, _, err := a.issuer.Issue(user.ID, role)
	require.NoError(a.t, err)
	return user, token
}

func (a *testApp) semester(number int) models.Semester {
	a.t.Helper()
	semester := models.Semester{Number: number, Name: fmt.Sprintf("Semester %d", number), AcademicYear: "2025/2026", Active: true}
	require.NoError(a.t, a.semesters.Create(context.Background(), &semester))
	return semester
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func (a *testApp) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.send(req, token)
}

func (a *testApp) upload(path, token, filename string, content []byte, fields map[string]string) (int, envelope) {
	a.t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(a.t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(a.t, err)
	_, err = part.Write(content)
	require.NoError(a.t, err)
	require.NoError(a.t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return a.send(req, token)
}

func (a *testApp) send(req *http.Request, token string) (int, envelope) {
	a.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var out envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	if len(raw) > 0 {
		require.NoError(a.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func decodeData(t *testing.T, env envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, target))
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
