package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gatekeeper/internal/domain"
	"gatekeeper/internal/observability"
)

type eligibilityService struct {
	users          domain.UserRepository
	events         domain.EventRepository
	orgs           domain.OrganizationRepository
	memberships    domain.MembershipRepository
	invitations    domain.InvitationRepository
	blacklists     domain.BlacklistRepository
	questionnaires domain.QuestionnaireRepository
	participations domain.ParticipationRepository
	counts         domain.AttendanceCountCache
	logger         *slog.Logger
	contextTimeout time.Duration
	gates          []gate
	now            func() time.Time
}

// NewEligibilityService creates the eligibility pipeline service. The counts
// cache may be nil; participant counts then come straight from the repository.
func NewEligibilityService(
	users domain.UserRepository,
	events domain.EventRepository,
	orgs domain.OrganizationRepository,
	memberships domain.MembershipRepository,
	invitations domain.InvitationRepository,
	blacklists domain.BlacklistRepository,
	questionnaires domain.QuestionnaireRepository,
	participations domain.ParticipationRepository,
	counts domain.AttendanceCountCache,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EligibilityService {
	return &eligibilityService{
		users:          users,
		events:         events,
		orgs:           orgs,
		memberships:    memberships,
		invitations:    invitations,
		blacklists:     blacklists,
		questionnaires: questionnaires,
		participations: participations,
		counts:         counts,
		logger:         logger,
		contextTimeout: timeout,
		gates:          newPipeline(),
		now:            time.Now,
	}
}

func (s *eligibilityService) CheckEligibility(ctx context.Context, userID, eventID string, opts domain.CheckOptions) (*domain.EligibilityResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if opts.Bypass {
		return domain.Eligible(eventID), nil
	}

	gc, err := s.buildContext(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	return s.run(gc), nil
}

// run evaluates the gates in order and stops at the first non-nil result.
// Gates issue no queries; everything they need is already on the context.
func (s *eligibilityService) run(gc *gateContext) *domain.EligibilityResult {
	for _, g := range s.gates {
		res := g.check(gc)
		if res == nil {
			continue
		}
		if res.Allowed {
			observability.EligibilityChecks.WithLabelValues("allowed", g.name()).Inc()
		} else {
			observability.EligibilityChecks.WithLabelValues("denied", g.name()).Inc()
			s.logger.Debug("eligibility denied",
				"user_id", gc.User.ID,
				"event_id", gc.Event.ID,
				"gate", g.name(),
				"reason", res.Reason,
			)
		}
		return res
	}
	observability.EligibilityChecks.WithLabelValues("allowed", "none").Inc()
	return domain.Eligible(gc.Event.ID)
}

// buildContext prefetches all gate inputs in a small fixed number of queries.
func (s *eligibilityService) buildContext(ctx context.Context, userID, eventID string) (*gateContext, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	org, err := s.orgs.GetByID(ctx, event.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}

	gc := &gateContext{
		Now:          s.now(),
		User:         user,
		Event:        event,
		Organization: org,
		IsOwner:      org.OwnerID == userID,
	}

	if !gc.IsOwner {
		staff, err := s.orgs.IsStaff(ctx, org.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("check staff: %w", err)
		}
		gc.IsStaff = staff
	}

	if event.VenueID != nil {
		venue, err := s.events.GetVenueByID(ctx, *event.VenueID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get venue: %w", err)
		}
		gc.Venue = venue
	}

	if event.Ticketed {
		tiers, err := s.events.ListTicketTiers(ctx, event.ID)
		if err != nil {
			return nil, fmt.Errorf("list ticket tiers: %w", err)
		}
		gc.Tiers = tiers
	}

	membership, err := s.memberships.GetByOrgAndUser(ctx, org.ID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	gc.Membership = membership

	invitation, err := s.invitations.GetByEventAndUser(ctx, event.ID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	gc.Invitation = invitation

	blacklist, err := s.blacklists.ListByOrganization(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	gc.Blacklist = blacklist

	whitelist, err := s.blacklists.GetWhitelistEntry(ctx, org.ID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get whitelist entry: %w", err)
	}
	gc.Whitelist = whitelist

	questionnaires, err := s.questionnaires.ListRequirements(ctx, org.ID, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list questionnaire requirements: %w", err)
	}
	gc.Questionnaires = questionnaires

	if len(questionnaires) > 0 {
		ids := make([]string, 0, len(questionnaires))
		for _, q := range questionnaires {
			ids = append(ids, q.ID)
		}
		subs, err := s.questionnaires.ListSubmissions(ctx, userID, ids)
		if err != nil {
			return nil, fmt.Errorf("list questionnaire submissions: %w", err)
		}
		gc.Submissions = make(map[string]*domain.QuestionnaireSubmission, len(subs))
		for _, sub := range subs {
			gc.Submissions[sub.QuestionnaireID] = sub
		}
	}

	existing, err := s.participations.GetByEventAndUser(ctx, event.ID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get participation: %w", err)
	}
	gc.Existing = existing

	count, err := s.participantCount(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}
	gc.ParticipantCount = count

	return gc, nil
}

// participantCount reads the advisory count snapshot, preferring the cache.
// Cache failures fall back to the repository; staleness is acceptable here.
func (s *eligibilityService) participantCount(ctx context.Context, eventID string) (int, error) {
	if s.counts != nil {
		count, ok, err := s.counts.Get(ctx, eventID)
		if err != nil {
			s.logger.Debug("count cache read failed", "event_id", eventID, "error", err)
		} else if ok {
			return count, nil
		}
	}
	count, err := s.participations.CountActive(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if s.counts != nil {
		if err := s.counts.Set(ctx, eventID, count); err != nil {
			s.logger.Debug("count cache write failed", "event_id", eventID, "error", err)
		}
	}
	return count, nil
}
