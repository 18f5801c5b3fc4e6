package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/dbx"
	"github.com/csuite-pathway/alumniportal/internal/server/mail"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/alumni"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/events"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/faqs"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/messages"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/resources"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	hashPassword = func(password string) (string, error) {
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		return string(b), err
	}
}

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// expectTx queues n committed transactions.
func expectTx(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func userFixture(id int64, admin bool) *models.User {
	return &models.User{ID: id, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", IsVerified: true, IsAdmin: admin}
}

// --- fake repositories ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User

	err       error
	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[int64]*models.User{}}
}

func (f *fakeUsersRepo) put(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c := *u
	c.ID = f.nextID
	f.byID[c.ID] = &c
	return &c
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	for _, e := range f.byID {
		if strings.EqualFold(e.Email, u.Email) {
			f.mu.Unlock()
			return nil, common.ErrAlreadyExists
		}
	}
	f.mu.Unlock()
	return f.put(u), nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) ConsumeVerificationToken(_ context.Context, token string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if !u.IsVerified && u.VerificationToken != nil && *u.VerificationToken == token {
			u.IsVerified = true
			u.VerificationToken = nil
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) HasAdmin(context.Context) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.IsAdmin {
			return true, nil
		}
	}
	return false, nil
}

type fakeAlumniRepo struct {
	nextID int64
	rows   []*models.Alumni

	err error
}

func (f *fakeAlumniRepo) Create(_ context.Context, a *models.Alumni) (*models.Alumni, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rows {
		if strings.EqualFold(r.Email, a.Email) {
			return nil, common.ErrAlreadyExists
		}
	}
	f.nextID++
	c := *a
	c.ID = f.nextID
	f.rows = append(f.rows, &c)
	return &c, nil
}

func (f *fakeAlumniRepo) GetByID(_ context.Context, id int64) (*models.Alumni, error) {
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAlumniRepo) FindActiveByEmail(_ context.Context, email string) (*models.Alumni, error) {
	for _, r := range f.rows {
		if r.IsActive && strings.EqualFold(r.Email, email) {
			return r, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAlumniRepo) ExistsEmail(_ context.Context, email string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, r := range f.rows {
		if strings.EqualFold(r.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAlumniRepo) List(context.Context) ([]*models.Alumni, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := append([]*models.Alumni(nil), f.rows...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (f *fakeAlumniRepo) SetActive(_ context.Context, id int64, active bool) (*models.Alumni, error) {
	for _, r := range f.rows {
		if r.ID == id {
			r.IsActive = active
			return r, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeMessagesRepo struct {
	created []*models.Message
	list    map[string][]*models.Message
	filters []messages.ListFilter

	err error
}

func (f *fakeMessagesRepo) Create(_ context.Context, m *models.Message) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := *m
	c.ID = int64(len(f.created) + 1)
	f.created = append(f.created, &c)
	return &c, nil
}

func (f *fakeMessagesRepo) List(_ context.Context, flt messages.ListFilter) ([]*models.Message, error) {
	f.filters = append(f.filters, flt)
	if f.err != nil {
		return nil, f.err
	}
	return f.list[flt.Type], nil
}

type fakeEventsRepo struct {
	created  []*models.Event
	all      []*models.Event
	upcoming []*models.Event

	upcomingFrom  time.Time
	upcomingLimit int
	err           error
}

func (f *fakeEventsRepo) Create(_ context.Context, e *models.Event) (*models.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := *e
	c.ID = int64(len(f.created) + 1)
	f.created = append(f.created, &c)
	return &c, nil
}

func (f *fakeEventsRepo) List(context.Context) ([]*models.Event, error) {
	return f.all, f.err
}

func (f *fakeEventsRepo) Upcoming(_ context.Context, from time.Time, limit int) ([]*models.Event, error) {
	f.upcomingFrom, f.upcomingLimit = from, limit
	return f.upcoming, f.err
}

type fakeFAQsRepo struct {
	created []*models.FAQ
	err     error
}

func (f *fakeFAQsRepo) Create(_ context.Context, q *models.FAQ) (*models.FAQ, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := *q
	c.ID = int64(len(f.created) + 1)
	f.created = append(f.created, &c)
	return &c, nil
}

func (f *fakeFAQsRepo) List(context.Context) ([]*models.FAQ, error) {
	return f.created, f.err
}

type fakeResourcesRepo struct {
	nextID int64
	rows   map[int64]*models.Resource

	createErr error
	deleteErr error
}

func newFakeResourcesRepo() *fakeResourcesRepo {
	return &fakeResourcesRepo{rows: map[int64]*models.Resource{}}
}

func (f *fakeResourcesRepo) Create(_ context.Context, r *models.Resource) (*models.Resource, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	c := *r
	c.ID = f.nextID
	f.rows[c.ID] = &c
	return &c, nil
}

func (f *fakeResourcesRepo) GetByID(_ context.Context, id int64) (*models.Resource, error) {
	r, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r, nil
}

func (f *fakeResourcesRepo) List(context.Context) ([]*models.Resource, error) {
	var out []*models.Resource
	for _, r := range f.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeResourcesRepo) Delete(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	a *fakeAlumniRepo
	m *fakeMessagesRepo
	e *fakeEventsRepo
	r *fakeResourcesRepo
	f *fakeFAQsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u: newFakeUsersRepo(),
		a: &fakeAlumniRepo{},
		m: &fakeMessagesRepo{},
		e: &fakeEventsRepo{},
		r: newFakeResourcesRepo(),
		f: &fakeFAQsRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return m.u }
func (m *fakeRepoManager) Alumni(dbx.DBTX) alumni.Repository           { return m.a }
func (m *fakeRepoManager) Messages(dbx.DBTX) messages.Repository       { return m.m }
func (m *fakeRepoManager) Events(dbx.DBTX) events.Repository           { return m.e }
func (m *fakeRepoManager) Resources(dbx.DBTX) resources.Repository     { return m.r }
func (m *fakeRepoManager) FAQs(dbx.DBTX) faqs.Repository               { return m.f }

// --- fake collaborators ---

type fakeNotifier struct {
	sent []string
	err  error
}

func (n *fakeNotifier) Configured() bool { return n.err == nil }

func (n *fakeNotifier) Send(_ context.Context, msg mail.Message) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg.To+"|"+msg.HTML)
	return nil
}

type memBlob struct {
	n         int
	files     map[string][]byte
	putErr    error
	deleteErr error
	deleted   []string
}

func newMemBlob() *memBlob { return &memBlob{files: map[string][]byte{}} }

func (b *memBlob) Put(_ context.Context, ext string, data []byte, _ string) (string, error) {
	if b.putErr != nil {
		return "", b.putErr
	}
	b.n++
	key := fmt.Sprintf("resources/k%d.%s", b.n, ext)
	b.files[key] = append([]byte(nil), data...)
	return key, nil
}

func (b *memBlob) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := b.files[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBlob) Delete(_ context.Context, key string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.deleted = append(b.deleted, key)
	delete(b.files, key)
	return nil
}

type presigningBlob struct {
	*memBlob
	ttl time.Duration
}

func (p *presigningBlob) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	p.ttl = ttl
	return "https://storage.example.com/" + key + "?sig=x", nil
}
