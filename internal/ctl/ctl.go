// Package ctl implements portalctl, the operator command line: schema
// migration, admin bootstrap, roster import and a mail configuration check.
package ctl

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/csuite-pathway/alumniportal/internal/flagx"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
	"github.com/csuite-pathway/alumniportal/internal/server/services"
)

// Backend is what portalctl needs from a running portal.
type Backend interface {
	Migrate(ctx context.Context) error
	CreateAdmin(ctx context.Context, in services.RegisterInput) (*models.User, error)
	ImportAlumni(ctx context.Context, r io.Reader) (*services.ImportReport, error)
	MailConfigured() bool
	SendTestMail(ctx context.Context, to string) error
}

var ErrUsage = errors.New("usage")

const usage = `usage: portalctl <command> [options]

commands:
  migrate                              apply database migrations
  create-admin [-first -last -email]   create the first administrator
  load-alumni <roster.tsv>             import "Name<TAB>Email" lines
  check-mail [-to address]             report SMTP configuration, optionally send a test message
`

type CLI struct {
	backend Backend
	in      *bufio.Reader
	out     io.Writer
}

func New(b Backend, in io.Reader, out io.Writer) *CLI {
	return &CLI{backend: b, in: bufio.NewReader(in), out: out}
}

// Command returns the first argument that is not a global config flag or
// its value.
func Command(args []string) (string, []string) {
	global := map[string]bool{"-a": true, "-d": true, "-s": true, "-t": true, "-u": true, "-r": true,
		"-b": true, "-e": true, "-m": true, "-l": true, "-c": true, "-config": true, "-env": true}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if global[a] {
			i++
			continue
		}
		if strings.HasPrefix(a, "-") {
			continue
		}
		return a, args[i+1:]
	}
	return "", nil
}

func (c *CLI) Run(ctx context.Context, args []string) error {
	cmd, rest := Command(args)
	switch cmd {
	case "migrate":
		if err := c.backend.Migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "migrations applied")
		return nil
	case "create-admin":
		return c.createAdmin(ctx, rest)
	case "load-alumni":
		return c.loadAlumni(ctx, rest)
	case "check-mail":
		return c.checkMail(ctx, rest)
	default:
		fmt.Fprint(c.out, usage)
		return ErrUsage
	}
}

func (c *CLI) createAdmin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(c.out)
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	email := fs.String("email", "", "email")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-first", "-last", "-email"})); err != nil {
		return err
	}

	in := services.RegisterInput{FirstName: *first, LastName: *last, Email: *email}
	prompts := []struct {
		label string
		dst   *string
	}{
		{"First name", &in.FirstName},
		{"Last name", &in.LastName},
		{"Email", &in.Email},
	}
	for _, p := range prompts {
		if *p.dst != "" {
			continue
		}
		v, err := GetSimpleText(c.in, p.label, c.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	pw, err := GetPassword("Password", c.out)
	if err != nil {
		return err
	}
	confirm, err := GetPassword("Confirm password", c.out)
	if err != nil {
		return err
	}
	if pw != confirm {
		return errors.New("passwords do not match")
	}
	in.Password = pw

	admin, err := c.backend.CreateAdmin(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "admin %s created (id %d)\n", admin.Email, admin.ID)
	return nil
}

func (c *CLI) loadAlumni(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprint(c.out, usage)
		return ErrUsage
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := c.backend.ImportAlumni(ctx, f)
	if report != nil {
		fmt.Fprintf(c.out, "added: %d\nduplicates: %d\nerrors: %d\n", report.Added, report.Duplicates, len(report.Errors))
		for _, e := range report.Errors {
			fmt.Fprintln(c.out, "  "+e)
		}
	}
	return err
}

func (c *CLI) checkMail(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("check-mail", flag.ContinueOnError)
	fs.SetOutput(c.out)
	to := fs.String("to", "", "send a test message to this address")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-to"})); err != nil {
		return err
	}

	if !c.backend.MailConfigured() {
		fmt.Fprintln(c.out, "mail: not configured (set PORTAL_SMTP_HOST and PORTAL_MAIL_FROM)")
		return nil
	}
	fmt.Fprintln(c.out, "mail: configured")

	if *to == "" {
		return nil
	}
	if err := c.backend.SendTestMail(ctx, *to); err != nil {
		return fmt.Errorf("test message: %w", err)
	}
	fmt.Fprintf(c.out, "test message sent to %s\n", *to)
	return nil
}
