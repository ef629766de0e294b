package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/sharebook-app/sharebook/internal/config"
	"github.com/sharebook-app/sharebook/internal/logging"
	"github.com/sharebook-app/sharebook/internal/models"
)

// EmailSender delivers a single email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// NewEmailService picks a provider from config: "resend" for real
// delivery, anything else logs to stdout (local development).
func NewEmailService(cfg *config.EmailConfig) EmailSender {
	if cfg.Provider == "resend" && cfg.ResendAPIKey != "" {
		return &resendEmailService{
			client: resend.NewClient(cfg.ResendAPIKey),
			from:   fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress),
		}
	}
	return &consoleEmailService{}
}

type resendEmailService struct {
	client *resend.Client
	from   string
}

func (s *resendEmailService) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
		Text:    textBody,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}

type consoleEmailService struct{}

func (s *consoleEmailService) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	logging.Info("Email (console provider)", map[string]interface{}{
		"to":      to,
		"subject": subject,
		"text":    textBody,
	})
	return nil
}

// buildFollowEmail renders the subject/html/text for a follow event.
// An empty subject means the type has no email rendition.
func buildFollowEmail(ntype models.NotificationType, actorNickname, baseURL string) (string, string, string) {
	safeNickname := templateEscape(actorNickname)
	requestsURL := fmt.Sprintf("%s/#requests", baseURL)
	profileURL := fmt.Sprintf("%s/#profile/%s", baseURL, actorNickname)

	var subject, lead, action, actionURL string
	switch ntype {
	case models.NotificationTypeFollowRequestReceived:
		subject = fmt.Sprintf("%s wants to follow you", actorNickname)
		lead = fmt.Sprintf("<strong>%s</strong> sent you a follow request.", safeNickname)
		action = "Review requests"
		actionURL = requestsURL
	case models.NotificationTypeFollowRequestApproved:
		subject = fmt.Sprintf("%s approved your follow request", actorNickname)
		lead = fmt.Sprintf("<strong>%s</strong> approved your follow request. Their posts now show up in your feed.", safeNickname)
		action = "View profile"
		actionURL = profileURL
	default:
		return "", "", ""
	}

	subject = sanitizeSubject(subject)
	safeActionURL := templateEscape(actionURL)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 640px; margin: 0 auto; padding: 24px;">
  <h1 style="color: #333; font-size: 24px;">Sharebook</h1>
  <p style="font-size: 16px;">%s</p>
  <p>
    <a href="%s" style="display: inline-block; background: #3b5f8a; color: white; padding: 10px 18px; text-decoration: none; border-radius: 6px; margin: 12px 0;">%s</a>
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #999; font-size: 12px;">Sharebook - sharebook.app</p>
</body>
</html>`,
		lead,
		safeActionURL,
		templateEscape(action),
	)

	textBody := fmt.Sprintf(`%s

%s: %s

--
Sharebook
sharebook.app`,
		subject,
		action,
		actionURL,
	)

	return subject, htmlBody, textBody
}

func templateEscape(value string) string {
	return html.EscapeString(value)
}

func sanitizeSubject(subject string) string {
	cleaned := strings.ReplaceAll(subject, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) > 120 {
		cleaned = cleaned[:117] + "..."
	}
	return cleaned
}
