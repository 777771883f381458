package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
)

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
	FrontendURL  string
}

// DocumentEmail is the data rendered into a document notification email
type DocumentEmail struct {
	DocumentID     string
	DocumentTitle  string // "Receipt" or "Invoice"
	DocumentNumber string
	CustomerName   string
	CompanyName    string
	Total          string
	Currency       string
	IssuedOn       string
}

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config, send: smtp.SendMail}
}

// Enabled reports whether an SMTP host is configured.
func (s *EmailService) Enabled() bool {
	return s.config.SMTPHost != ""
}

// SendDocumentEmail sends the customer a notice that a document was issued
func (s *EmailService) SendDocumentEmail(toEmail string, data DocumentEmail) error {
	viewURL := ""
	if s.config.FrontendURL != "" {
		viewURL = fmt.Sprintf("%s/documents/%s", s.config.FrontendURL, url.PathEscape(data.DocumentID))
	}

	htmlContent, err := renderDocumentEmail(data, viewURL)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Your %s %s", data.DocumentTitle, data.DocumentNumber)
	if data.CompanyName != "" {
		subject += " from " + data.CompanyName
	}
	message := s.buildHTMLEmail(toEmail, subject, htmlContent)

	return s.sendEmail(toEmail, message)
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	if err := s.send(addr, auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// buildHTMLEmail builds an HTML email message
func (s *EmailService) buildHTMLEmail(to, subject, htmlBody string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		s.config.FromName,
		s.config.FromEmail,
		to,
		subject,
	)

	return []byte(headers + htmlBody)
}

func renderDocumentEmail(data DocumentEmail, viewURL string) (string, error) {
	tmpl, err := template.New("document").Parse(documentTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct {
		DocumentEmail
		ViewURL string
	}{data, viewURL}); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const documentTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.DocumentTitle}} {{.DocumentNumber}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
    <table role="presentation" style="max-width: 600px; margin: 40px auto; background-color: #ffffff; border-radius: 12px;">
        <tr>
            <td style="padding: 32px 30px;">
                <h2 style="color: #1a1a2e; margin: 0 0 20px 0;">{{.DocumentTitle}} {{.DocumentNumber}}</h2>
                <p style="color: #4a5568; font-size: 16px;">Hello{{if .CustomerName}} {{.CustomerName}}{{end}},</p>
                <p style="color: #4a5568; font-size: 16px;">
                    {{if .CompanyName}}{{.CompanyName}} has{{else}}We have{{end}} issued {{.DocumentTitle}} <strong>{{.DocumentNumber}}</strong>
                    on {{.IssuedOn}} for a total of <strong>{{.Total}} {{.Currency}}</strong>.
                </p>
                {{if .ViewURL}}
                <p style="font-size: 14px;"><a href="{{.ViewURL}}" style="color: #667eea;">View your {{.DocumentTitle}}</a></p>
                {{end}}
            </td>
        </tr>
    </table>
</body>
</html>
`
