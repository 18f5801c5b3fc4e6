// Package mail delivers portal notifications. SMTPNotifier talks to a
// relay through net/smtp behind a circuit breaker so a dead relay fails
// fast instead of stalling every registration.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/logging"
	"github.com/sony/gobreaker"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier sends messages. Implementations return common.ErrMailNotConfigured
// when no transport has been set up.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	Configured() bool
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// sendMail is a seam for tests.
var sendMail = deliver

// deliver is smtp.SendMail bound to ctx: the dial honours its deadline and
// the same deadline is set on the connection so a stalled relay cannot
// block the exchange.
func deliver(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return err
		}
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if err := c.Hello("localhost"); err != nil {
		return err
	}
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp: server doesn't support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

type SMTPNotifier struct {
	cfg Config
	cb  *gobreaker.CircuitBreaker
	log logging.Logger
}

func NewSMTPNotifier(cfg Config, log logging.Logger) *SMTPNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	log = log.With("module", "mail")

	st := gobreaker.Settings{
		Name:        "smtp_send",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn(context.Background(), "circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &SMTPNotifier{cfg: cfg, cb: gobreaker.NewCircuitBreaker(st), log: log}
}

// Configured reports whether a relay host and sender address are set.
func (n *SMTPNotifier) Configured() bool {
	return n.cfg.Host != "" && n.cfg.From != ""
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if !n.Configured() {
		return common.ErrMailNotConfigured
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	body := n.compose(msg)

	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	_, err := n.cb.Execute(func() (interface{}, error) {
		err := sendMail(ctx, addr, auth, n.cfg.From, []string{msg.To}, body)
		var ne net.Error
		if err != nil && (ctx.Err() != nil || errors.As(err, &ne) && ne.Timeout()) {
			return nil, fmt.Errorf("smtp send timed out: %w", err)
		}
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (n *SMTPNotifier) compose(msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	if id, err := common.MakeRandHexString(16); err == nil {
		fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", id, n.cfg.Host)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.HTML, "\n", "\r\n"))
	return b.Bytes()
}

var verificationTmpl = template.Must(template.New("verify").Parse(`<h2>Welcome to the C-Suite Pathway alumni portal!</h2>
<p>Hi {{.Name}},</p>
<p>Thank you for registering. Please click the link below to verify your email address:</p>
<p><a href="{{.Link}}">Verify Email</a></p>
<p>If the link doesn't work, copy and paste this address into your browser:</p>
<p>{{.Link}}</p>
<p>Best regards,<br>C-Suite Pathway Team</p>
`))

// VerificationMessage renders the email that carries a verification link.
func VerificationMessage(to, name, link string) (Message, error) {
	var b bytes.Buffer
	if err := verificationTmpl.Execute(&b, struct{ Name, Link string }{name, link}); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Verify Your C-Suite Pathway Account", HTML: b.String()}, nil
}
