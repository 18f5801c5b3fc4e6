package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/logging"
	"github.com/csuite-pathway/alumniportal/internal/server/blob"
	"github.com/csuite-pathway/alumniportal/internal/server/metrics"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
	"github.com/csuite-pathway/alumniportal/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

var (
	member = &models.User{ID: 2, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", IsVerified: true}
	admin  = &models.User{ID: 1, FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", IsVerified: true, IsAdmin: true}
)

type fakeAccounts struct {
	registerErr error
	loggedOut   []string
}

func (f *fakeAccounts) Register(_ context.Context, in services.RegisterInput) (*services.RegisterResult, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &services.RegisterResult{
		User:    &models.User{ID: 7, FirstName: in.FirstName, LastName: in.LastName, Email: in.Email, PasswordHash: "secret-hash"},
		Status:  services.StatusPendingVerification,
		Message: "check your email",
	}, nil
}

func (f *fakeAccounts) Verify(_ context.Context, token string) (*models.User, error) {
	if token != "good" {
		return nil, common.ErrInvalidToken
	}
	return member, nil
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (*services.Session, error) {
	if password != "analytical1" {
		return nil, common.ErrInvalidCredentials
	}
	return &services.Session{Token: "member-token", ExpiresAt: time.Now().Add(time.Hour), User: member}, nil
}

func (f *fakeAccounts) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeAccounts) Authenticate(_ context.Context, token string) (*models.User, error) {
	switch token {
	case "member-token":
		return member, nil
	case "admin-token":
		return admin, nil
	case "revoked-token":
		return nil, common.ErrSessionRevoked
	}
	return nil, common.ErrorUnauthorized
}

type fakeContent struct {
	lastActor *models.User
	lastType  string
	err       error
}

func (f *fakeContent) CreateMessage(_ context.Context, actor *models.User, in services.MessageInput) (*models.Message, error) {
	f.lastActor = actor
	if f.err != nil {
		return nil, f.err
	}
	typ := models.MessageTypeClassmate
	if actor.IsAdmin {
		typ = models.MessageTypeAdmin
	}
	return &models.Message{ID: 1, Title: in.Title, Content: in.Content, AuthorID: actor.ID, MessageType: typ}, nil
}

func (f *fakeContent) ListMessages(_ context.Context, actor *models.User, messageType string) ([]*models.Message, error) {
	f.lastActor, f.lastType = actor, messageType
	return []*models.Message{{ID: 1, Title: "hi"}}, f.err
}

func (f *fakeContent) CreateEvent(_ context.Context, actor *models.User, in services.EventInput) (*models.Event, error) {
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", common.ErrValidation)
	}
	return &models.Event{ID: 1, Title: in.Title, Date: in.Date, CreatedBy: actor.ID}, nil
}

func (f *fakeContent) ListEvents(context.Context, *models.User) ([]*models.Event, error) {
	return nil, f.err
}

func (f *fakeContent) CreateFAQ(_ context.Context, actor *models.User, in services.FAQInput) (*models.FAQ, error) {
	return &models.FAQ{ID: 1, Question: in.Question, Answer: in.Answer, CreatedBy: actor.ID}, nil
}

func (f *fakeContent) ListFAQs(context.Context, *models.User) ([]*models.FAQ, error) {
	return nil, f.err
}

func (f *fakeContent) Dashboard(_ context.Context, actor *models.User) (*services.Dashboard, error) {
	f.lastActor = actor
	if f.err != nil {
		return nil, f.err
	}
	return &services.Dashboard{
		AdminMessages:  []*models.Message{{ID: 1, MessageType: models.MessageTypeAdmin}},
		UpcomingEvents: []*models.Event{{ID: 3}},
	}, nil
}

type fakeResources struct {
	uploaded  []byte
	upload    services.UploadInput
	deleteErr error
	linkErr   error
}

func (f *fakeResources) Upload(_ context.Context, actor *models.User, in services.UploadInput) (*models.Resource, error) {
	data, _ := io.ReadAll(in.Body)
	f.uploaded, f.upload = data, in
	return &models.Resource{ID: 5, Title: in.Title, FileName: in.FileName, FileSize: int64(len(data)), FileType: "pdf", StorageKey: "resources/secret-key.pdf", UploadedBy: actor.ID}, nil
}

func (f *fakeResources) List(context.Context, *models.User) ([]*models.Resource, error) {
	return []*models.Resource{{ID: 5, StorageKey: "resources/secret-key.pdf"}}, nil
}

func (f *fakeResources) Open(_ context.Context, _ *models.User, id int64) (*models.Resource, io.ReadCloser, error) {
	if id != 5 {
		return nil, nil, common.ErrorNotFound
	}
	return &models.Resource{ID: 5, FileName: "deck.pdf", FileType: "pdf", FileSize: 4}, io.NopCloser(strings.NewReader("%PDF")), nil
}

func (f *fakeResources) DownloadURL(context.Context, *models.User, int64) (string, error) {
	if f.linkErr != nil {
		return "", f.linkErr
	}
	return "https://storage.example.com/x", nil
}

func (f *fakeResources) Delete(context.Context, *models.User, int64) error { return f.deleteErr }

type fakeRoster struct{}

func (fakeRoster) AddAlumni(_ context.Context, actor *models.User, in services.AlumniInput) (*models.Alumni, error) {
	if err := services.Authorize(actor, services.ManageAlumni, 0); err != nil {
		return nil, err
	}
	return &models.Alumni{ID: 1, FirstName: in.FirstName, LastName: in.LastName, Email: in.Email, IsActive: true}, nil
}

func (fakeRoster) ListAlumni(_ context.Context, actor *models.User) ([]*models.Alumni, error) {
	if err := services.Authorize(actor, services.ManageAlumni, 0); err != nil {
		return nil, err
	}
	return []*models.Alumni{{ID: 1, Email: "ada@example.com", IsActive: true}}, nil
}

func (fakeRoster) SetActive(_ context.Context, _ *models.User, id int64, active bool) (*models.Alumni, error) {
	return &models.Alumni{ID: id, IsActive: active}, nil
}

// ---- helpers ----

type testEnv struct {
	handler   http.Handler
	accounts  *fakeAccounts
	content   *fakeContent
	resources *fakeResources
	registry  *prometheus.Registry
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	reg := prometheus.NewRegistry()
	env := &testEnv{
		accounts:  &fakeAccounts{},
		content:   &fakeContent{},
		resources: &fakeResources{},
		registry:  reg,
	}
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 1 << 20
	}
	opts.Gatherer = reg
	s := NewHTTPServer(opts, logging.Nop{}, metrics.New(reg), env.accounts, env.content, env.resources, fakeRoster{})
	env.handler = s.Handler()
	return env
}

func (e *testEnv) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(method, path, token, body string) *httptest.ResponseRecorder {
	return e.do(method, path, token, strings.NewReader(body), "application/json")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// ---- tests ----

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.doJSON(http.MethodPost, "/register", "", `{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","password":"analytical1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-hash")

	var body registerResponse
	decode(t, rec, &body)
	assert.Equal(t, services.StatusPendingVerification, body.Status)
	assert.Equal(t, "ada@example.com", body.User.Email)

	rec = env.doJSON(http.MethodPost, "/register", "", `{"first_name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.accounts.registerErr = fmt.Errorf("%w: this email is not authorized to register", common.ErrNotAuthorized)
	rec = env.doJSON(http.MethodPost, "/register", "", `{"email":"x@example.com"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "not authorized")
}

func TestVerify(t *testing.T) {
	env := newTestEnv(t, Options{})
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/verify/good", "", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/verify/bad", "", nil, "").Code)
}

func TestLogin_AndRateLimit(t *testing.T) {
	env := newTestEnv(t, Options{AuthRateLimit: 2})

	rec := env.doJSON(http.MethodPost, "/login", "", `{"email":"ada@example.com","password":"analytical1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body loginResponse
	decode(t, rec, &body)
	assert.Equal(t, "member-token", body.Token)

	rec = env.doJSON(http.MethodPost, "/login", "", `{"email":"ada@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doJSON(http.MethodPost, "/login", "", `{"email":"ada@example.com","password":"analytical1"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSessionRequired(t *testing.T) {
	env := newTestEnv(t, Options{})

	for _, path := range []string{"/dashboard", "/messages", "/events", "/faqs", "/resources", "/admin/alumni"} {
		assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, path, "", nil, "").Code, path)
		assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, path, "forged", nil, "").Code, path)
	}
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/dashboard", "revoked-token", nil, "").Code)

	rec := env.do(http.MethodGet, "/dashboard", "member-token", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, member, env.content.lastActor)

	var body dashboardResponse
	decode(t, rec, &body)
	assert.Len(t, body.AdminMessages, 1)
	assert.Empty(t, body.ClassmateMessages)
	assert.Len(t, body.UpcomingEvents, 1)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(http.MethodPost, "/logout", "member-token", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"member-token"}, env.accounts.loggedOut)
}

func TestMessages(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.doJSON(http.MethodPost, "/messages", "member-token", `{"title":"Hi","content":"All","message_type":"admin"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var m messageView
	decode(t, rec, &m)
	assert.Equal(t, models.MessageTypeClassmate, m.MessageType)

	rec = env.do(http.MethodGet, "/messages?type=admin", "member-token", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", env.content.lastType)

	env.content.err = errors.New("db exploded")
	rec = env.do(http.MethodGet, "/messages", "member-token", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "exploded")
}

func TestCreateEvent_DateFormats(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.doJSON(http.MethodPost, "/events", "member-token", `{"title":"Gala","date":"2026-12-01T19:30"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var ev eventView
	decode(t, rec, &ev)
	assert.Equal(t, time.Date(2026, 12, 1, 19, 30, 0, 0, time.UTC), ev.Date)

	rec = env.doJSON(http.MethodPost, "/events", "member-token", `{"title":"Gala","date":"next tuesday"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSON(http.MethodPost, "/events", "member-token", `{"title":"Gala"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFAQ_AnyMemberMayPost(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.doJSON(http.MethodPost, "/faqs", "member-token", `{"question":"Where?","answer":"Here."}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func multipartUpload(t *testing.T, title, name string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", title))
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestResources(t *testing.T) {
	env := newTestEnv(t, Options{MaxUploadBytes: 64})

	body, ct := multipartUpload(t, "Deck", "deck.pdf", []byte("%PDF-1.4"))
	rec := env.do(http.MethodPost, "/resources", "member-token", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Deck", env.resources.upload.Title)
	assert.Equal(t, "deck.pdf", env.resources.upload.FileName)
	assert.Equal(t, []byte("%PDF-1.4"), env.resources.uploaded)
	assert.NotContains(t, rec.Body.String(), "secret-key")

	rec = env.do(http.MethodPost, "/resources", "member-token", strings.NewReader("x"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartUpload(t, "Big", "big.pdf", bytes.Repeat([]byte("x"), 2<<20))
	rec = env.do(http.MethodPost, "/resources", "member-token", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = env.do(http.MethodGet, "/resources", "member-token", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-key")

	rec = env.do(http.MethodGet, "/resources/5/download", "member-token", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF", rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename=deck.pdf`)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/resources/6/download", "member-token", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/resources/abc/download", "member-token", nil, "").Code)

	rec = env.do(http.MethodGet, "/resources/5/link", "member-token", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	env.resources.linkErr = blob.ErrPresignNotSupported
	rec = env.do(http.MethodGet, "/resources/5/link", "member-token", nil, "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	env.resources.deleteErr = fmt.Errorf("%w: only the uploader or an administrator may delete this resource", common.ErrForbidden)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, "/resources/5", "member-token", nil, "").Code)
	env.resources.deleteErr = nil
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/resources/5", "admin-token", nil, "").Code)
}

func TestAdminAlumni(t *testing.T) {
	env := newTestEnv(t, Options{})

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/admin/alumni", "member-token", nil, "").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/admin/alumni", "admin-token", nil, "").Code)

	rec := env.doJSON(http.MethodPost, "/admin/alumni", "admin-token", `{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","graduation_year":2019}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.doJSON(http.MethodPatch, "/admin/alumni/1", "admin-token", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSON(http.MethodPatch, "/admin/alumni/1", "admin-token", `{"is_active":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var a alumniView
	decode(t, rec, &a)
	assert.False(t, a.IsActive)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.do(http.MethodGet, "/healthz", "", nil, "")

	rec := env.do(http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `portal_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestStatusFor(t *testing.T) {
	tests := map[error]int{
		fmt.Errorf("%w: x", common.ErrValidation):           http.StatusBadRequest,
		common.ErrDuplicateAccount:                          http.StatusConflict,
		common.ErrDuplicateAlumni:                           http.StatusConflict,
		common.ErrNotAuthorized:                             http.StatusForbidden,
		common.ErrInvalidToken:                              http.StatusBadRequest,
		common.ErrInvalidCredentials:                        http.StatusUnauthorized,
		common.ErrNotVerified:                               http.StatusForbidden,
		common.ErrTokenExpired:                              http.StatusUnauthorized,
		common.ErrForbidden:                                 http.StatusForbidden,
		common.ErrUnsupportedFileType:                       http.StatusUnsupportedMediaType,
		common.ErrFileTooLarge:                              http.StatusRequestEntityTooLarge,
		common.ErrorNotFound:                                http.StatusNotFound,
		errors.New("boom"):                                  http.StatusInternalServerError,
		fmt.Errorf("wrapped: %w", common.ErrSessionRevoked): http.StatusUnauthorized,
	}
	for err, want := range tests {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}
