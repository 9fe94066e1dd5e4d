package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gatekeeper/internal/domain"
	"gatekeeper/internal/observability"
)

type participationService struct {
	eligibility    domain.EligibilityService
	users          domain.UserRepository
	events         domain.EventRepository
	orgs           domain.OrganizationRepository
	memberships    domain.MembershipRepository
	invitations    domain.InvitationRepository
	participations domain.ParticipationRepository
	counts         domain.AttendanceCountCache
	emails         domain.EmailService
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewParticipationService creates the participation manager. The counts cache
// and email service may be nil.
func NewParticipationService(
	eligibility domain.EligibilityService,
	users domain.UserRepository,
	events domain.EventRepository,
	orgs domain.OrganizationRepository,
	memberships domain.MembershipRepository,
	invitations domain.InvitationRepository,
	participations domain.ParticipationRepository,
	counts domain.AttendanceCountCache,
	emails domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ParticipationService {
	return &participationService{
		eligibility:    eligibility,
		users:          users,
		events:         events,
		orgs:           orgs,
		memberships:    memberships,
		invitations:    invitations,
		participations: participations,
		counts:         counts,
		emails:         emails,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *participationService) CheckEligibility(ctx context.Context, userID, eventID string, raiseOnFalse bool) (*domain.EligibilityResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	res, err := s.eligibility.CheckEligibility(ctx, userID, eventID, domain.CheckOptions{})
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		if raiseOnFalse {
			return nil, &domain.IneligibleError{Result: res}
		}
		return res, nil
	}

	// The pipeline leaves next_step unset on positive results; attach the
	// follow-up action here.
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.Ticketed {
		res.NextStep = domain.StepPurchaseTicket
	} else {
		res.NextStep = domain.StepRSVP
	}
	return res, nil
}

func (s *participationService) RSVP(ctx context.Context, userID, eventID string, status domain.RSVPStatus) (*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !status.Valid() {
		return nil, domain.ErrInvalidInput
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.Ticketed {
		return nil, domain.ErrInvalidInput
	}

	existing, err := s.participations.GetByEventAndUser(ctx, eventID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get participation: %w", err)
	}

	// A user already holding a "yes" RSVP is only changing their answer; the
	// pipeline is skipped so tightened requirements cannot trap them.
	if existing != nil && existing.Kind == domain.KindRSVP &&
		existing.Status == domain.ParticipationActive && existing.RSVPStatus == domain.RSVPYes {
		if status == domain.RSVPYes {
			return existing, nil
		}
		existing.RSVPStatus = status
		existing.UpdatedAt = time.Now()
		if err := s.participations.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("save participation: %w", err)
		}
		s.invalidateCount(ctx, eventID)
		return existing, nil
	}

	res, err := s.eligibility.CheckEligibility(ctx, userID, eventID, domain.CheckOptions{})
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, &domain.IneligibleError{Result: res}
	}

	now := time.Now()
	p := existing
	if p == nil {
		p = &domain.Participation{
			EventID:   eventID,
			UserID:    userID,
			CreatedAt: now,
		}
	}
	p.Kind = domain.KindRSVP
	p.Status = domain.ParticipationActive
	p.RSVPStatus = status
	p.UpdatedAt = now

	if status != domain.RSVPYes {
		// "no" and "maybe" never occupy a spot; no capacity assertion needed.
		if err := s.participations.Save(ctx, p); err != nil {
			return nil, fmt.Errorf("save participation: %w", err)
		}
	} else {
		capacity, err := s.commitCapacity(ctx, event, userID)
		if err != nil {
			return nil, err
		}
		if err := s.participations.SaveWithCapacity(ctx, p, capacity); err != nil {
			if errors.Is(err, domain.ErrCapacityExceeded) {
				observability.CapacityRaceLosses.Inc()
				return nil, domain.ErrCapacityExceeded
			}
			return nil, fmt.Errorf("save participation: %w", err)
		}
	}

	observability.ParticipationsWritten.WithLabelValues(string(domain.KindRSVP)).Inc()
	s.invalidateCount(ctx, eventID)
	if status == domain.RSVPYes {
		s.sendRSVPConfirmation(ctx, userID, event)
	}
	return p, nil
}

func (s *participationService) PurchaseTicket(ctx context.Context, userID, eventID, tierID string) (*domain.Participation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.Ticketed {
		return nil, domain.ErrInvalidInput
	}

	existing, err := s.participations.GetByEventAndUser(ctx, eventID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get participation: %w", err)
	}
	if existing != nil && existing.Kind == domain.KindTicket && existing.Status == domain.ParticipationActive {
		return existing, nil
	}

	res, err := s.eligibility.CheckEligibility(ctx, userID, eventID, domain.CheckOptions{})
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, &domain.IneligibleError{Result: res}
	}

	tiers, err := s.events.ListTicketTiers(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list ticket tiers: %w", err)
	}
	var tier *domain.TicketTier
	for _, t := range tiers {
		if t.ID == tierID {
			tier = t
			break
		}
	}
	if tier == nil {
		return nil, domain.ErrNotFound
	}
	if !tier.OnSale(time.Now()) {
		return nil, domain.ErrTierNotOnSale
	}

	if tier.MembershipRequired {
		// Tier gating checks for a membership record only, not its status.
		_, err := s.memberships.GetByOrgAndUser(ctx, event.OrganizationID, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.IneligibleError{
					Result: domain.Ineligible(eventID, domain.ReasonMembershipRequired, domain.StepBecomeMember),
				}
			}
			return nil, fmt.Errorf("get membership: %w", err)
		}
	}

	invitation, err := s.invitations.GetByEventAndUser(ctx, eventID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get invitation: %w", err)
	}

	now := time.Now()
	p := existing
	if p == nil {
		p = &domain.Participation{
			EventID:   eventID,
			UserID:    userID,
			CreatedAt: now,
		}
	}
	p.Kind = domain.KindTicket
	p.Status = domain.ParticipationActive
	p.RSVPStatus = ""
	p.TicketTierID = &tier.ID
	p.Reference = uuid.NewString()
	p.Complimentary = invitation.Approved() && invitation.WaivesPurchase
	p.UpdatedAt = now

	capacity, err := s.commitCapacity(ctx, event, userID)
	if err != nil {
		return nil, err
	}
	if err := s.participations.SaveWithCapacity(ctx, p, capacity); err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) {
			observability.CapacityRaceLosses.Inc()
			return nil, domain.ErrCapacityExceeded
		}
		return nil, fmt.Errorf("save participation: %w", err)
	}

	observability.ParticipationsWritten.WithLabelValues(string(domain.KindTicket)).Inc()
	s.invalidateCount(ctx, eventID)
	s.sendTicketConfirmation(ctx, userID, event, tier, p)
	return p, nil
}

func (s *participationService) ListEventParticipants(ctx context.Context, eventID, callerID string, params domain.PaginationParams) ([]*domain.Participation, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	org, err := s.orgs.GetByID(ctx, event.OrganizationID)
	if err != nil {
		return nil, 0, fmt.Errorf("get organization: %w", err)
	}
	if org.OwnerID != callerID {
		staff, err := s.orgs.IsStaff(ctx, org.ID, callerID)
		if err != nil {
			return nil, 0, fmt.Errorf("check staff: %w", err)
		}
		if !staff {
			return nil, 0, domain.ErrForbidden
		}
	}

	participants, total, err := s.participations.ListByEventID(ctx, eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list participants: %w", err)
	}
	if participants == nil {
		participants = []*domain.Participation{}
	}
	return participants, total, nil
}

// commitCapacity computes the capacity to assert at write time. The
// capacity-override waiver also applies here, otherwise a waived user would
// pass the pipeline and still lose at commit.
func (s *participationService) commitCapacity(ctx context.Context, event *domain.Event, userID string) (int, error) {
	var venue *domain.Venue
	if event.VenueID != nil {
		v, err := s.events.GetVenueByID(ctx, *event.VenueID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return 0, fmt.Errorf("get venue: %w", err)
		}
		venue = v
	}
	capacity := event.EffectiveCapacity(venue)
	if capacity == 0 {
		return 0, nil
	}
	invitation, err := s.invitations.GetByEventAndUser(ctx, event.ID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("get invitation: %w", err)
	}
	if invitation.Approved() && invitation.WaivesCapacity {
		return 0, nil
	}
	return capacity, nil
}

func (s *participationService) invalidateCount(ctx context.Context, eventID string) {
	if s.counts == nil {
		return
	}
	if err := s.counts.Invalidate(ctx, eventID); err != nil {
		s.logger.Warn("count cache invalidation failed", "event_id", eventID, "error", err)
	}
}

func (s *participationService) sendRSVPConfirmation(ctx context.Context, userID string, event *domain.Event) {
	if s.emails == nil {
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("rsvp confirmation skipped", "user_id", userID, "error", err)
		return
	}
	data := &domain.RSVPConfirmationEmailData{
		Email:     user.Email,
		FirstName: user.Name,
		EventName: event.Name,
	}
	if err := s.emails.SendRSVPConfirmation(ctx, data); err != nil {
		s.logger.Warn("rsvp confirmation failed", "user_id", userID, "error", err)
	}
}

func (s *participationService) sendTicketConfirmation(ctx context.Context, userID string, event *domain.Event, tier *domain.TicketTier, p *domain.Participation) {
	if s.emails == nil {
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("ticket confirmation skipped", "user_id", userID, "error", err)
		return
	}
	data := &domain.TicketConfirmationEmailData{
		Email:         user.Email,
		FirstName:     user.Name,
		EventName:     event.Name,
		TierName:      tier.Name,
		Reference:     p.Reference,
		Complimentary: p.Complimentary,
	}
	if err := s.emails.SendTicketConfirmation(ctx, data); err != nil {
		s.logger.Warn("ticket confirmation failed", "user_id", userID, "error", err)
	}
}
