package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"github.com/noah-isme/lender-relay-api/pkg/config"
	appErrors "github.com/noah-isme/lender-relay-api/pkg/errors"
)

const (
	NotifyTransportSES      = "ses"
	NotifyTransportSMTP     = "smtp"
	NotifyTransportDisabled = "disabled"
)

// NotifyInput describes the submission an operator is told about.
type NotifyInput struct {
	SubmissionID string
	UserEmail    string
	Origin       string
}

// EmailMessage is a rendered notification ready for a transport.
type EmailMessage struct {
	To      string
	From    string
	Subject string
	Text    string
	HTML    string
}

// MailSender delivers a rendered message.
type MailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SESAPI is the subset of the SES client used for delivery.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

var notifyHTML = template.Must(template.New("notify").Parse(`<div style="font-family: ui-sans-serif, system-ui; line-height: 1.4">
<p><strong>A new submission was received.</strong></p>
<p><strong>Submission ID:</strong> {{.SubmissionID}}</p>
{{- if .UserEmail}}
<p><strong>User email:</strong> {{.UserEmail}}</p>
{{- end}}
{{- if .AdminLink}}
<p><a href="{{.AdminLink}}">Open in Admin</a></p>
{{- end}}
</div>`))

// NotificationService tells the operator about new submissions. Delivery
// failures are returned to the caller and never panic.
type NotificationService struct {
	sender        MailSender
	to            string
	from          string
	publicBaseURL string
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewNotificationService wires a notification service. A nil sender means the
// transport is disabled.
func NewNotificationService(cfg config.NotifyConfig, sender MailSender, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		sender:        sender,
		to:            strings.TrimSpace(cfg.To),
		from:          strings.TrimSpace(cfg.From),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		metrics:       metrics,
		logger:        logger,
	}
}

// NewMailSender builds the transport selected by NOTIFY_TRANSPORT. The
// disabled transport yields a nil sender.
func NewMailSender(ctx context.Context, cfg config.NotifyConfig) (MailSender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case "", NotifyTransportSES:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return NewSESSender(ses.NewFromConfig(awsCfg)), nil
	case NotifyTransportSMTP:
		return NewSMTPSender(cfg), nil
	case NotifyTransportDisabled:
		return nil, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("unknown NOTIFY_TRANSPORT %q", cfg.Transport))
	}
}

// Notify renders and delivers the new-submission email.
func (s *NotificationService) Notify(ctx context.Context, input NotifyInput) error {
	err := s.deliver(ctx, input)
	s.metrics.RecordNotification(err == nil)
	if err != nil {
		s.logger.Warn("submission notification failed", zap.String("submission_id", input.SubmissionID), zap.Error(err))
		return err
	}
	s.logger.Info("submission notification sent", zap.String("submission_id", input.SubmissionID))
	return nil
}

func (s *NotificationService) deliver(ctx context.Context, input NotifyInput) error {
	if s.sender == nil {
		return appErrors.Clone(appErrors.ErrConfiguration, "notification transport is disabled")
	}
	if s.to == "" {
		return appErrors.Clone(appErrors.ErrConfiguration, "SUBMISSION_NOTIFY_TO not configured")
	}
	if s.from == "" {
		return appErrors.Clone(appErrors.ErrConfiguration, "SUBMISSION_NOTIFY_FROM not configured")
	}

	msg, err := s.render(input)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotifyFailed.Code, appErrors.ErrNotifyFailed.Status, appErrors.ErrNotifyFailed.Message)
	}
	return nil
}

func (s *NotificationService) render(input NotifyInput) (EmailMessage, error) {
	origin := strings.TrimRight(input.Origin, "/")
	if s.publicBaseURL != "" {
		origin = s.publicBaseURL
	}
	var adminLink string
	if origin != "" {
		adminLink = fmt.Sprintf("%s/admin/submissions/%s", origin, input.SubmissionID)
	}

	subject := "New submission received"
	if input.UserEmail != "" {
		subject += ": " + input.UserEmail
	}

	lines := []string{"A new submission was received.", "", "Submission ID: " + input.SubmissionID}
	if input.UserEmail != "" {
		lines = append(lines, "User email: "+input.UserEmail)
	}
	if adminLink != "" {
		lines = append(lines, "Admin link: "+adminLink)
	}

	var html bytes.Buffer
	data := struct {
		SubmissionID string
		UserEmail    string
		AdminLink    string
	}{input.SubmissionID, input.UserEmail, adminLink}
	if err := notifyHTML.Execute(&html, data); err != nil {
		return EmailMessage{}, fmt.Errorf("render notification html: %w", err)
	}

	return EmailMessage{
		To:      s.to,
		From:    s.from,
		Subject: subject,
		Text:    strings.Join(lines, "\n"),
		HTML:    html.String(),
	}, nil
}

// SESSender delivers through Amazon SES.
type SESSender struct {
	client SESAPI
}

// NewSESSender wraps an SES client.
func NewSESSender(client SESAPI) *SESSender {
	return &SESSender{client: client}
}

// Send implements MailSender.
func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	input := &ses.SendEmailInput{
		Source:      aws.String(msg.From),
		Destination: &sestypes.Destination{ToAddresses: []string{msg.To}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
				Html: &sestypes.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
			},
		},
	}
	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}

// SMTPSender delivers through an SMTP relay. Implicit TLS is used when
// SMTP_SECURE is true, or when it is unset and the port is 465.
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	secure   bool
	timeout  time.Duration
}

// NewSMTPSender builds an SMTP transport from configuration.
func NewSMTPSender(cfg config.NotifyConfig) *SMTPSender {
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	secure := cfg.SMTPSecure == "true" || (cfg.SMTPSecure == "" && port == 465)
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     port,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		secure:   secure,
		timeout:  15 * time.Second,
	}
}

// Send implements MailSender.
func (s *SMTPSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.host == "" {
		return appErrors.Clone(appErrors.ErrConfiguration, "SMTP_HOST not configured")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	body, err := buildMIMEMessage(msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	dialer := &net.Dialer{Timeout: s.timeout}

	var conn net.Conn
	if s.secure {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: s.host})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open SMTP session: %w", err)
	}
	defer client.Close()

	if !s.secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}

	if s.user != "" && s.password != "" {
		if err := client.Auth(smtp.PlainAuth("", s.user, s.password, s.host)); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", msg.To, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return client.Quit()
}

// buildMIMEMessage renders a multipart/alternative message with text and HTML parts.
func buildMIMEMessage(msg EmailMessage) ([]byte, error) {
	var parts bytes.Buffer
	mw := multipart.NewWriter(&parts)

	for _, part := range []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	} {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", part.contentType)
		w, err := mw.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("create mime part: %w", err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("write mime part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mime writer: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", msg.From)
	fmt.Fprintf(&out, "To: %s\r\n", msg.To)
	fmt.Fprintf(&out, "Subject: %s\r\n", msg.Subject)
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%s\r\n", mw.Boundary())
	out.WriteString("\r\n")
	out.Write(parts.Bytes())
	return out.Bytes(), nil
}
