// Package httpapi exposes the portal over JSON/HTTP.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/csuite-pathway/alumniportal/internal/logging"
	"github.com/csuite-pathway/alumniportal/internal/server/metrics"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
	"github.com/csuite-pathway/alumniportal/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error)
	Verify(ctx context.Context, token string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type Content interface {
	CreateMessage(ctx context.Context, actor *models.User, in services.MessageInput) (*models.Message, error)
	ListMessages(ctx context.Context, actor *models.User, messageType string) ([]*models.Message, error)
	CreateEvent(ctx context.Context, actor *models.User, in services.EventInput) (*models.Event, error)
	ListEvents(ctx context.Context, actor *models.User) ([]*models.Event, error)
	CreateFAQ(ctx context.Context, actor *models.User, in services.FAQInput) (*models.FAQ, error)
	ListFAQs(ctx context.Context, actor *models.User) ([]*models.FAQ, error)
	Dashboard(ctx context.Context, actor *models.User) (*services.Dashboard, error)
}

type Resources interface {
	Upload(ctx context.Context, actor *models.User, in services.UploadInput) (*models.Resource, error)
	List(ctx context.Context, actor *models.User) ([]*models.Resource, error)
	Open(ctx context.Context, actor *models.User, id int64) (*models.Resource, io.ReadCloser, error)
	DownloadURL(ctx context.Context, actor *models.User, id int64) (string, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
}

type Roster interface {
	AddAlumni(ctx context.Context, actor *models.User, in services.AlumniInput) (*models.Alumni, error)
	ListAlumni(ctx context.Context, actor *models.User) ([]*models.Alumni, error)
	SetActive(ctx context.Context, actor *models.User, id int64, active bool) (*models.Alumni, error)
}

// Options configures an HTTPServer.
type Options struct {
	Address string
	// MaxUploadBytes bounds multipart bodies on POST /resources.
	MaxUploadBytes int64
	// AuthRateLimit is the number of /register and /login requests allowed
	// per client IP per minute. Zero disables the limit.
	AuthRateLimit int
	Gatherer      prometheus.Gatherer
}

type HTTPServer struct {
	opts      Options
	accounts  Accounts
	content   Content
	resources Resources
	roster    Roster
	metrics   *metrics.Metrics
	logger    logging.Logger
}

func NewHTTPServer(opts Options, l logging.Logger, m *metrics.Metrics, a Accounts, c Content, r Resources, ro Roster) *HTTPServer {
	return &HTTPServer{
		opts:      opts,
		accounts:  a,
		content:   c,
		resources: r,
		roster:    ro,
		metrics:   m,
		logger:    l.With("module", "http_server"),
	}
}

// Handler builds the router.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if s.opts.AuthRateLimit > 0 {
			r.Use(httprate.LimitByIP(s.opts.AuthRateLimit, time.Minute))
		}
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
	})
	r.Get("/verify/{token}", s.handleVerify)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Post("/logout", s.handleLogout)
		r.Get("/dashboard", s.handleDashboard)

		r.Get("/messages", s.handleListMessages)
		r.Post("/messages", s.handleCreateMessage)
		r.Get("/events", s.handleListEvents)
		r.Post("/events", s.handleCreateEvent)
		r.Get("/faqs", s.handleListFAQs)
		r.Post("/faqs", s.handleCreateFAQ)

		r.Get("/resources", s.handleListResources)
		r.Post("/resources", s.handleUploadResource)
		r.Delete("/resources/{id}", s.handleDeleteResource)
		r.Get("/resources/{id}/download", s.handleDownloadResource)
		r.Get("/resources/{id}/link", s.handleResourceLink)

		r.Route("/admin/alumni", func(r chi.Router) {
			r.Get("/", s.handleListAlumni)
			r.Post("/", s.handleAddAlumni)
			r.Patch("/{id}", s.handleSetAlumniActive)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
