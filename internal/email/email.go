// Package email provides notification email backends.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keighl/postmark"
	"github.com/kdelacruz/bantay"
)

// NewEmailService creates an email service based on the provider configuration.
func NewEmailService(logger *slog.Logger, config bantay.EmailConfig) bantay.EmailService {
	switch config.Provider {
	case "postmark":
		return newPostmarkEmailService(logger, config)
	default:
		return newMockEmailService(logger, config)
	}
}

// mockEmailService is a mock implementation that logs instead of sending emails.
type mockEmailService struct {
	logger *slog.Logger
	config bantay.EmailConfig
}

// newMockEmailService creates a new mock email service.
func newMockEmailService(logger *slog.Logger, config bantay.EmailConfig) *mockEmailService {
	return &mockEmailService{
		logger: logger,
		config: config,
	}
}

// SendSuspensionNotice logs the suspension notice instead of sending it.
func (s *mockEmailService) SendSuspensionNotice(ctx context.Context, to, actorName string, record *bantay.ViolationRecord) error {
	s.logger.Info("📧 MOCK EMAIL: Suspension notice",
		slog.String("to", to),
		slog.String("actor", actorName),
		slog.String("record_code", record.Code),
	)
	return nil
}

// postmarkEmailService sends emails via Postmark.
type postmarkEmailService struct {
	client *postmark.Client
	logger *slog.Logger
	config bantay.EmailConfig
}

// newPostmarkEmailService creates a new Postmark email service.
func newPostmarkEmailService(logger *slog.Logger, config bantay.EmailConfig) *postmarkEmailService {
	client := postmark.NewClient(config.PostmarkServerToken, config.PostmarkAccountToken)
	return &postmarkEmailService{
		client: client,
		logger: logger,
		config: config,
	}
}

// SendSuspensionNotice sends a suspension notice via Postmark.
func (s *postmarkEmailService) SendSuspensionNotice(ctx context.Context, to, actorName string, record *bantay.ViolationRecord) error {
	window := "immediately"
	if record.SuspensionStart != nil && record.SuspensionEnd != nil {
		window = fmt.Sprintf("from %s to %s",
			record.SuspensionStart.Format("January 2, 2006"),
			record.SuspensionEnd.Format("January 2, 2006"),
		)
	}

	email := postmark.Email{
		From:    fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress),
		To:      to,
		Subject: fmt.Sprintf("Suspension notice: violation %s", record.Code),
		TextBody: fmt.Sprintf(
			"Dear %s,\n\nA suspension penalty has been applied to your registry record under violation %s. "+
				"The suspension is in effect %s.\n\nContact the enforcement office to appeal or settle this violation.",
			actorName, record.Code, window,
		),
		HtmlBody: fmt.Sprintf(`
			<h2>Suspension Notice</h2>
			<p>Dear %s,</p>
			<p>A suspension penalty has been applied to your registry record under violation <strong>%s</strong>.</p>
			<p>The suspension is in effect %s.</p>
			<p>Contact the enforcement office to appeal or settle this violation.</p>
		`, actorName, record.Code, window),
		Tag:        "suspension-notice",
		TrackOpens: true,
	}

	_, err := s.client.SendEmail(email)
	if err != nil {
		s.logger.Error("failed to send suspension notice via Postmark",
			slog.String("to", to),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to send suspension notice: %w", err)
	}

	s.logger.Info("suspension notice sent via Postmark",
		slog.String("to", to),
		slog.String("record_code", record.Code),
	)
	return nil
}
