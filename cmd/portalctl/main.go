package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/csuite-pathway/alumniportal/internal/ctl"
	"github.com/csuite-pathway/alumniportal/internal/logging"
	"github.com/csuite-pathway/alumniportal/internal/server"
	"github.com/csuite-pathway/alumniportal/internal/server/config"
	"github.com/csuite-pathway/alumniportal/internal/server/mail"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
	"github.com/csuite-pathway/alumniportal/internal/server/services"
)

type backend struct {
	app *server.App
}

func (b backend) Migrate(ctx context.Context) error { return b.app.Migrate(ctx) }

func (b backend) CreateAdmin(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	return b.app.Users.CreateAdmin(ctx, in)
}

func (b backend) ImportAlumni(ctx context.Context, r io.Reader) (*services.ImportReport, error) {
	return b.app.Alumni.ImportAlumni(ctx, r)
}

func (b backend) MailConfigured() bool { return b.app.Notifier.Configured() }

func (b backend) SendTestMail(ctx context.Context, to string) error {
	return b.app.Notifier.Send(ctx, mail.Message{
		To:      to,
		Subject: "C-Suite Pathway mail check",
		HTML:    "<p>This is a test message from portalctl.</p>",
	})
}

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	cmd, _ := ctl.Command(os.Args[1:])
	if cmd == "" {
		_ = ctl.New(nil, os.Stdin, os.Stdout).Run(ctx, nil)
		os.Exit(2)
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer app.Close()

	if err := ctl.New(backend{app: app}, os.Stdin, os.Stdout).Run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, ctl.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		_ = app.Close()
		os.Exit(1)
	}
}
