package bantay

import "context"

// EmailService defines operations for sending notification emails.
type EmailService interface {
	// SendSuspensionNotice notifies an actor that a suspension penalty has
	// been applied to them, including the suspension window.
	SendSuspensionNotice(ctx context.Context, to, actorName string, record *ViolationRecord) error
}

// EmailConfig holds configuration for email services.
type EmailConfig struct {
	// Provider is the email provider ("mock" or "postmark").
	Provider string

	// FromAddress is the sender email address.
	FromAddress string

	// FromName is the sender display name.
	FromName string

	// Postmark-specific configuration
	PostmarkServerToken  string
	PostmarkAccountToken string
}
