package services

import (
	"context"
	"fmt"
	"log"

	"gatekeeper/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendRSVPConfirmation sends an RSVP confirmation using the "rsvp_confirmation" template.
func (s *emailService) SendRSVPConfirmation(ctx context.Context, data *domain.RSVPConfirmationEmailData) error {
	if data == nil {
		return fmt.Errorf("rsvp confirmation data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("rsvp_confirmation", data)
	if err != nil {
		return fmt.Errorf("failed to render rsvp_confirmation template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send rsvp confirmation: %w", err)
	}
	log.Printf("[EMAIL] RSVP confirmation sent to %s", data.Email)
	return nil
}

// SendTicketConfirmation sends a reservation confirmation using the "ticket_confirmation" template.
func (s *emailService) SendTicketConfirmation(ctx context.Context, data *domain.TicketConfirmationEmailData) error {
	if data == nil {
		return fmt.Errorf("ticket confirmation data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("ticket_confirmation", data)
	if err != nil {
		return fmt.Errorf("failed to render ticket_confirmation template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send ticket confirmation: %w", err)
	}
	log.Printf("[EMAIL] Ticket confirmation sent to %s", data.Email)
	return nil
}
