// Package server wires configuration, storage, collaborators and services
// into a runnable portal and serves it over HTTP until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/csuite-pathway/alumniportal/internal/logging"
	"github.com/csuite-pathway/alumniportal/internal/server/allowlist"
	"github.com/csuite-pathway/alumniportal/internal/server/auth"
	"github.com/csuite-pathway/alumniportal/internal/server/blob"
	"github.com/csuite-pathway/alumniportal/internal/server/config"
	"github.com/csuite-pathway/alumniportal/internal/server/httpapi"
	"github.com/csuite-pathway/alumniportal/internal/server/mail"
	"github.com/csuite-pathway/alumniportal/internal/server/metrics"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/repomanager"
	"github.com/csuite-pathway/alumniportal/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// authRateLimit bounds /register and /login per client IP per minute.
const authRateLimit = 20

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	Repos     repomanager.RepositoryManager
	Notifier  *mail.SMTPNotifier
	Users     *services.UserService
	Content   *services.ContentService
	Resources *services.ResourceService
	Alumni    *services.AlumniService
}

// NewApp opens the database and builds every collaborator. Migrations are
// not run here; see Migrate.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository manager: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, Repos: rm}
	if err := app.build(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) build(ctx context.Context) error {
	c := app.config

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.metrics = metrics.New(app.registry)

	policy, err := newPolicy(c, app.Repos.Alumni(app.db))
	if err != nil {
		return err
	}

	var revoker auth.Revoker
	revoker, app.redis = newRevoker(c)

	store, err := newStorage(ctx, c)
	if err != nil {
		return err
	}

	app.Notifier = mail.NewSMTPNotifier(mail.Config{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
		Timeout:  c.MailTimeout,
	}, app.logger)
	if !app.Notifier.Configured() {
		app.logger.Warn(ctx, "SMTP is not configured, verification emails will not be sent", "auto_verify", c.AllowInsecureAutoVerify)
	}

	app.Users = services.NewUserService(app.db, app.Repos, c, policy, app.Notifier, revoker, app.metrics, app.logger)
	app.Content = services.NewContentService(app.db, app.Repos, app.logger)
	app.Resources = services.NewResourceService(app.db, app.Repos, store, services.ResourceLimits{
		MaxBytes:          c.MaxUploadBytes,
		AllowedExtensions: c.AllowedExtensions,
		PresignTTL:        c.PresignTTL,
	}, app.metrics, app.logger)
	app.Alumni = services.NewAlumniService(app.db, app.Repos, c.CompoundFirstNames, app.logger)
	return nil
}

func newPolicy(c *config.Config, alumni allowlist.AlumniFinder) (allowlist.Policy, error) {
	emails := append([]string(nil), c.AllowList...)
	if c.AllowListFile != "" {
		fromFile, err := allowlist.LoadFile(c.AllowListFile)
		if err != nil {
			return nil, err
		}
		emails = append(emails, fromFile...)
	}
	return allowlist.New(c.RegistrationPolicy, emails, alumni)
}

// newRevoker uses Redis when an address is configured and keeps
// revocations in process memory otherwise.
func newRevoker(c *config.Config) (auth.Revoker, *redis.Client) {
	if c.RedisAddr == "" {
		return auth.NewMemoryRevoker(), nil
	}
	rc := redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
	return auth.NewRedisRevoker(rc), rc
}

// newStorage uses S3 when a bucket is configured and the local filesystem
// otherwise.
func newStorage(ctx context.Context, c *config.Config) (blob.Storage, error) {
	if c.S3Bucket == "" {
		return blob.NewFSStorage(c.StoragePath)
	}
	return blob.NewS3Storage(ctx, blob.S3Config{
		RootUser:     c.S3RootUser,
		RootPassword: c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
}

// Migrate applies the embedded schema migrations.
func (app *App) Migrate(ctx context.Context) error {
	return app.Repos.RunMigrations(ctx, app.db)
}

func (app *App) Close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(httpapi.Options{
		Address:        app.config.HTTPAddr,
		MaxUploadBytes: app.config.MaxUploadBytes,
		AuthRateLimit:  authRateLimit,
		Gatherer:       app.registry,
	}, app.logger, app.metrics, app.Users, app.Content, app.Resources, app.Alumni)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run migrates the schema and serves until SIGINT/SIGTERM.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.Migrate(ctx); err != nil {
		return err
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	return app.Close()
}
