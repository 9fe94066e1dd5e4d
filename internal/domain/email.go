package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RSVPConfirmationEmailData holds data for the RSVP confirmation email.
type RSVPConfirmationEmailData struct {
	Email     string
	FirstName string
	EventName string
}

// TicketConfirmationEmailData holds data for the ticket reservation email.
type TicketConfirmationEmailData struct {
	Email         string
	FirstName     string
	EventName     string
	TierName      string
	Reference     string
	Complimentary bool
}

// EmailService defines the contract for sending domain-level emails.
// Delivery failures are reported to the caller but never block a
// participation write; notification delivery is a downstream collaborator.
type EmailService interface {
	SendRSVPConfirmation(ctx context.Context, data *RSVPConfirmationEmailData) error
	SendTicketConfirmation(ctx context.Context, data *TicketConfirmationEmailData) error
}
