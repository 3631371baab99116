// Package mail renders and delivers the verification and notice emails.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/Shailesh2302/CipherChat/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Transport delivers rendered messages.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer renders the application emails and hands them to a Transport.
type Mailer struct {
	transport Transport
	appURL    string
	codeTTL   time.Duration
}

// NewMailer creates a Mailer. appURL is the public base URL used in links.
func NewMailer(transport Transport, appURL string, codeTTL time.Duration) *Mailer {
	return &Mailer{transport: transport, appURL: appURL, codeTTL: codeTTL}
}

// NewTransport returns an SMTP transport when credentials are configured and
// a logging transport otherwise.
func NewTransport(cfg config.Mail, logger *slog.Logger) Transport {
	if cfg.Username == "" || cfg.Password == "" {
		logger.Warn("EMAIL_USER/EMAIL_PASS not set, emails are logged instead of sent")
		return &LogTransport{logger: logger}
	}
	return &SMTPTransport{cfg: cfg, timeout: 15 * time.Second}
}

// SendVerification emails a sign-up code.
func (m *Mailer) SendVerification(ctx context.Context, email, username, code string) error {
	html, err := render("verification.html", map[string]interface{}{
		"Username":  username,
		"Code":      code,
		"ValidFor":  m.codeTTL.String(),
		"VerifyURL": m.appURL + "/verify/" + url.PathEscape(username),
	})
	if err != nil {
		return err
	}

	return m.transport.Send(ctx, Message{
		To:      email,
		Subject: "CipherChat Verification Code",
		HTML:    html,
		Text:    fmt.Sprintf("Hello %s, your verification code is %s. It expires in %s.", username, code, m.codeTTL),
	})
}

// SendMessageNotice tells an owner a new anonymous message arrived.
func (m *Mailer) SendMessageNotice(ctx context.Context, email, username string) error {
	html, err := render("message_notice.html", map[string]interface{}{
		"Username":     username,
		"DashboardURL": m.appURL + "/dashboard",
	})
	if err != nil {
		return err
	}

	return m.transport.Send(ctx, Message{
		To:      email,
		Subject: "You received a new anonymous message",
		HTML:    html,
		Text:    fmt.Sprintf("Hello %s, someone sent you an anonymous message. Read it at %s/dashboard.", username, m.appURL),
	})
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// SMTPTransport sends through an authenticated SMTP server.
type SMTPTransport struct {
	cfg     config.Mail
	timeout time.Duration
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(t.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)

	client, err := gomail.NewClient(t.cfg.Host,
		gomail.WithPort(t.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(t.cfg.Username),
		gomail.WithPassword(t.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(t.timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogTransport writes messages to the log. Used when SMTP is not configured.
// Bodies carry verification codes, so they are only logged at debug level.
type LogTransport struct {
	logger *slog.Logger
}

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	t.logger.Info("Email not sent (SMTP disabled)",
		"to", msg.To,
		"subject", msg.Subject,
	)
	t.logger.DebugContext(ctx, "Email body", "to", msg.To, "body", msg.Text)
	return nil
}
