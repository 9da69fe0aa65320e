package email

import (
	"crypto/tls"
	"fmt"
	"html"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for outgoing mail
type EmailService interface {
	SendPurchaseApprovedEmail(toEmail, toName string, msg PurchaseMessage) error
	SendPurchaseRejectedEmail(toEmail, toName string, msg PurchaseMessage) error
}

// PurchaseMessage is the content of a purchase decision email
type PurchaseMessage struct {
	Reference string
	Items     []string
	Total     string
	Available string
	Reason    string
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
	send   func(toEmail, message string) error
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) *EmailServiceImpl {
	s := &EmailServiceImpl{
		config: config,
		logger: logger,
	}
	s.send = s.sendSMTP
	return s
}

// Configured reports whether SMTP credentials are present
func (s *EmailServiceImpl) Configured() bool {
	return s.config.Host != "" && s.config.Username != "" && s.config.Password != ""
}

// SendPurchaseApprovedEmail tells a student their purchase was approved
func (s *EmailServiceImpl) SendPurchaseApprovedEmail(toEmail, toName string, msg PurchaseMessage) error {
	subject := fmt.Sprintf("Purchase request %s approved", msg.Reference)
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #2e7d32;">Your purchase request was approved</h2>
				<p>Hello %s,</p>
				<p>Request <strong>%s</strong> for %s has been approved.</p>
				<p>Total: <strong>%s</strong><br>Remaining purchase limit: <strong>%s</strong></p>
				<p>Best regards,<br>The Environmental Benefits Dashboard Team</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(toName), msg.Reference, html.EscapeString(strings.Join(msg.Items, ", ")), msg.Total, msg.Available)

	return s.deliver(toEmail, subject, body)
}

// SendPurchaseRejectedEmail tells a student their purchase was rejected and why
func (s *EmailServiceImpl) SendPurchaseRejectedEmail(toEmail, toName string, msg PurchaseMessage) error {
	subject := fmt.Sprintf("Purchase request %s rejected", msg.Reference)
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #c62828;">Your purchase request was rejected</h2>
				<p>Hello %s,</p>
				<p>Request <strong>%s</strong> for %s was not approved.</p>
				<p>Reason: %s</p>
				<p>Best regards,<br>The Environmental Benefits Dashboard Team</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(toName), msg.Reference, html.EscapeString(strings.Join(msg.Items, ", ")), html.EscapeString(msg.Reason))

	return s.deliver(toEmail, subject, body)
}

func (s *EmailServiceImpl) deliver(toEmail, subject, htmlBody string) error {
	// Without credentials the message is logged, which keeps local setups working
	if !s.Configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("subject", subject).
			Msg("SMTP credentials not configured - email not sent")
		return nil
	}
	return s.send(toEmail, s.buildMessage(toEmail, subject, htmlBody))
}

func (s *EmailServiceImpl) buildMessage(toEmail, subject, htmlBody string) string {
	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)},
		{"To", toEmail},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var b strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return b.String()
}

// sendSMTP sends a prepared message, over implicit TLS when configured
func (s *EmailServiceImpl) sendSMTP(toEmail, message string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if !s.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, []string{toEmail}, []byte(message)); err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		s.logger.Error().Err(err).Msg("SMTP authentication failed")
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return nil
}
