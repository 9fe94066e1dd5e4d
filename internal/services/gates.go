package services

import (
	"strings"
	"time"

	"github.com/hbollon/go-edlib"

	"gatekeeper/internal/domain"
)

// blacklistNameSimilarity is the Levenshtein similarity above which a user's
// name is considered a fuzzy match against a blacklist entry.
const blacklistNameSimilarity = 0.9

// gateContext holds everything the gates need for one (user, event) pair. It
// is built once per check from a fixed set of prefetch queries and never
// mutated during the run; gates perform no reads of their own.
type gateContext struct {
	Now time.Time

	User         *domain.User
	Event        *domain.Event
	Organization *domain.Organization
	Venue        *domain.Venue
	Tiers        []*domain.TicketTier

	IsOwner bool
	IsStaff bool

	Membership *domain.Membership
	Invitation *domain.Invitation

	Blacklist []*domain.BlacklistEntry
	Whitelist *domain.WhitelistEntry

	Questionnaires []*domain.Questionnaire
	Submissions    map[string]*domain.QuestionnaireSubmission

	// ParticipantCount is the prefetched snapshot used by the advisory
	// availability check. The authoritative recount happens at write time.
	ParticipantCount int
	Existing         *domain.Participation
}

// gate is one independent admission check. Returning nil means the gate has
// no objection; a non-nil result stops the pipeline. Gates are read-only
// against the context so re-running the same context yields the same result.
type gate interface {
	name() string
	check(gc *gateContext) *domain.EligibilityResult
}

// newPipeline returns the gates in their fixed evaluation order. The order is
// a correctness requirement: the privileged fast path runs before the
// blacklist, and the blacklist before any waivable check.
func newPipeline() []gate {
	return []gate{
		privilegedAccessGate{},
		blacklistGate{},
		eventStatusGate{},
		rsvpDeadlineGate{},
		applyDeadlineGate{},
		invitationGate{},
		membershipGate{},
		fullProfileGate{},
		questionnaireGate{},
		availabilityGate{},
		ticketSalesGate{},
	}
}

// privilegedAccessGate fast-accepts organization owners and staff. They
// always have access to their own events, bypassing every later check.
type privilegedAccessGate struct{}

func (privilegedAccessGate) name() string { return "privileged_access" }

func (privilegedAccessGate) check(gc *gateContext) *domain.EligibilityResult {
	if gc.IsOwner || gc.IsStaff {
		return domain.Eligible(gc.Event.ID)
	}
	return nil
}

// blacklistGate blocks hard-blacklisted users outright and holds fuzzy name
// matches for whitelist verification. It can never be waived, not even by
// invitation.
type blacklistGate struct{}

func (blacklistGate) name() string { return "blacklist" }

func (blacklistGate) check(gc *gateContext) *domain.EligibilityResult {
	fullName := strings.ToLower(gc.User.FullName())
	nameMatch := false
	for _, entry := range gc.Blacklist {
		if entry.UserID != "" && entry.UserID == gc.User.ID {
			return domain.Ineligible(gc.Event.ID, domain.ReasonBlacklisted, "")
		}
		if entry.Email != "" && strings.EqualFold(entry.Email, gc.User.Email) {
			return domain.Ineligible(gc.Event.ID, domain.ReasonBlacklisted, "")
		}
		if nameMatch || entry.FullName == "" || fullName == "" {
			continue
		}
		similarity, err := edlib.StringsSimilarity(fullName, strings.ToLower(entry.FullName), edlib.Levenshtein)
		if err == nil && similarity > blacklistNameSimilarity {
			nameMatch = true
		}
	}
	if !nameMatch {
		return nil
	}
	// A name collision with the blacklist needs verification unless the user
	// is already an active member or has been whitelisted.
	if gc.Membership.Active() {
		return nil
	}
	if gc.Whitelist != nil {
		switch gc.Whitelist.Status {
		case domain.WhitelistApproved:
			return nil
		case domain.WhitelistPending:
			return domain.Ineligible(gc.Event.ID, domain.ReasonBlacklistNameMatch, domain.StepWaitForWhitelistApproval)
		}
	}
	return domain.Ineligible(gc.Event.ID, domain.ReasonBlacklistNameMatch, domain.StepRequestWhitelist)
}

// eventStatusGate requires the event to be open and not finished.
type eventStatusGate struct{}

func (eventStatusGate) name() string { return "event_status" }

func (eventStatusGate) check(gc *gateContext) *domain.EligibilityResult {
	if gc.Event.Finished(gc.Now) {
		return domain.Ineligible(gc.Event.ID, domain.ReasonEventFinished, "")
	}
	if gc.Event.Status == domain.EventStatusOpen {
		return nil
	}
	step := domain.NextStep("")
	if gc.Event.Status == domain.EventStatusDraft {
		step = domain.StepWaitForEventToOpen
	}
	return domain.Ineligible(gc.Event.ID, domain.ReasonEventNotOpen, step)
}

// rsvpDeadlineGate enforces the RSVP deadline on non-ticketed events.
// Ticketed events skip it unconditionally.
type rsvpDeadlineGate struct{}

func (rsvpDeadlineGate) name() string { return "rsvp_deadline" }

func (rsvpDeadlineGate) check(gc *gateContext) *domain.EligibilityResult {
	if gc.Event.Ticketed || gc.Event.RSVPDeadline == nil {
		return nil
	}
	if gc.Now.Before(*gc.Event.RSVPDeadline) {
		return nil
	}
	if gc.Invitation.Approved() && gc.Invitation.WaivesRSVPDeadline {
		return nil
	}
	return domain.Ineligible(gc.Event.ID, domain.ReasonRSVPDeadlinePassed, "")
}

// applyDeadlineGate enforces the application deadline, falling back to event
// start, but only for users who still need to act: request an invitation or
// submit a questionnaire. Users who already did pass through.
type applyDeadlineGate struct{}

func (applyDeadlineGate) name() string { return "apply_deadline" }

func (applyDeadlineGate) check(gc *gateContext) *domain.EligibilityResult {
	needsInvitation := gc.Event.Visibility == domain.VisibilityPrivate && gc.Invitation == nil
	needsQuestionnaire := false
	if !(gc.Invitation.Approved() && gc.Invitation.WaivesQuestionnaire) {
		needsQuestionnaire = len(questionnaireOutcomes(gc).missing) > 0
	}
	if !needsInvitation && !needsQuestionnaire {
		return nil
	}
	deadline := gc.Event.EffectiveApplyDeadline()
	if deadline.IsZero() || gc.Now.Before(deadline) {
		return nil
	}
	if gc.Invitation.Approved() && gc.Invitation.WaivesApplyDeadline {
		return nil
	}
	return domain.Ineligible(gc.Event.ID, domain.ReasonApplyDeadlinePassed, "")
}

// invitationGate requires a valid invitation for private events.
type invitationGate struct{}

func (invitationGate) name() string { return "invitation" }

func (invitationGate) check(gc *gateContext) *domain.EligibilityResult {
	if gc.Event.Visibility != domain.VisibilityPrivate {
		return nil
	}
	if gc.Invitation == nil {
		return domain.Ineligible(gc.Event.ID, domain.ReasonInvitationRequired, domain.StepRequestInvitation)
	}
	switch gc.Invitation.Status {
	case domain.InvitationApproved:
		return nil
	case domain.InvitationPending:
		return domain.Ineligible(gc.Event.ID, domain.ReasonInvitationPending, domain.StepWaitForInvitationApproval)
	}
	return domain.Ineligible(gc.Event.ID, domain.ReasonInvitationRejected, "")
}

// membershipGate requires an active membership for members-only events, of at
// least the event's required tier.
type membershipGate struct{}

func (membershipGate) name() string { return "membership" }

func (membershipGate) check(gc *gateContext) *domain.EligibilityResult {
	if gc.Event.Visibility != domain.VisibilityMembersOnly {
		return nil
	}
	if gc.Invitation.Approved() && gc.Invitation.WaivesMembershipRequired {
		return nil
	}
	if gc.Membership.Active() {
		if gc.Event.RequiredMembershipTier > 0 && gc.Membership.TierRank < gc.Event.RequiredMembershipTier {
			return domain.Ineligible(gc.Event.ID, domain.ReasonMembershipUpgradeNeeded, domain.StepUpgradeMembership)
		}
		return nil
	}
	if gc.Membership != nil && gc.Membership.Status == domain.MembershipBanned {
		return domain.Ineligible(gc.Event.ID, domain.ReasonMembershipRequired, "")
	}
	step := domain.NextStep("")
	if gc.Organization.AcceptsMembershipRequests {
		step = domain.StepBecomeMember
	}
	return domain.Ineligible(gc.Event.ID, domain.ReasonMembershipRequired, step)
}

// fullProfileGate requires a complete profile (name, pronouns, picture) for
// events that ask for one.
type fullProfileGate struct{}

func (fullProfileGate) name() string { return "full_profile" }

func (fullProfileGate) check(gc *gateContext) *domain.EligibilityResult {
	if !gc.Event.RequiresFullProfile {
		return nil
	}
	missing := gc.User.MissingProfileFields()
	if len(missing) == 0 {
		return nil
	}
	res := domain.Ineligible(gc.Event.ID, domain.ReasonProfileIncomplete, domain.StepCompleteProfile)
	res.MissingProfileFields = missing
	return res
}

// questionnaireOutcome buckets the user's required questionnaires.
type questionnaireOutcome struct {
	missing []string
	pending []string
	failed  []string
	retryOn *time.Time
}

// questionnaireOutcomes aggregates per-questionnaire submission statuses.
// Member-exempt questionnaires are skipped for active members; per-event
// scoping is applied by the prefetch query. A rejection with retries left and
// an elapsed cooldown folds back into "missing" (resubmission allowed).
func questionnaireOutcomes(gc *gateContext) questionnaireOutcome {
	var out questionnaireOutcome
	for _, q := range gc.Questionnaires {
		if q.MemberExempt && gc.Membership.Active() {
			continue
		}
		sub := gc.Submissions[q.ID]
		switch {
		case sub == nil || sub.Status == domain.SubmissionDraft:
			out.missing = append(out.missing, q.ID)
		case sub.Status == domain.SubmissionPendingReview:
			out.pending = append(out.pending, q.ID)
		case sub.Status == domain.SubmissionRejected:
			if sub.AttemptsExhausted(q) {
				out.failed = append(out.failed, q.ID)
				continue
			}
			retry := sub.RetryAvailableAt(q)
			if retry.IsZero() || !gc.Now.Before(retry) {
				out.missing = append(out.missing, q.ID)
				continue
			}
			out.failed = append(out.failed, q.ID)
			if out.retryOn == nil || retry.Before(*out.retryOn) {
				r := retry
				out.retryOn = &r
			}
		}
	}
	return out
}

// questionnaireGate requires all required questionnaires to be submitted and
// approved. Missing outranks pending, which outranks failed.
type questionnaireGate struct{}

func (questionnaireGate) name() string { return "questionnaire" }

func (questionnaireGate) check(gc *gateContext) *domain.EligibilityResult {
	if gc.Invitation.Approved() && gc.Invitation.WaivesQuestionnaire {
		return nil
	}
	out := questionnaireOutcomes(gc)
	if len(out.missing) == 0 && len(out.pending) == 0 && len(out.failed) == 0 {
		return nil
	}
	res := &domain.EligibilityResult{
		EventID:                     gc.Event.ID,
		QuestionnairesMissing:       out.missing,
		QuestionnairesPendingReview: out.pending,
		QuestionnairesFailed:        out.failed,
		RetryOn:                     out.retryOn,
	}
	switch {
	case len(out.missing) > 0:
		res.Reason = domain.ReasonQuestionnaireMissing
		res.NextStep = domain.StepCompleteQuestionnaire
	case len(out.pending) > 0:
		res.Reason = domain.ReasonQuestionnairePending
		res.NextStep = domain.StepWaitForEvaluation
	default:
		res.Reason = domain.ReasonQuestionnaireFailed
		if out.retryOn != nil {
			res.NextStep = domain.StepWaitToRetakeQuestionnaire
		}
	}
	return res
}

// availabilityGate is the advisory capacity check against the prefetched
// count snapshot. It takes no locks; the binding recount happens inside the
// write transaction and always wins.
type availabilityGate struct{}

func (availabilityGate) name() string { return "availability" }

func (availabilityGate) check(gc *gateContext) *domain.EligibilityResult {
	capacity := gc.Event.EffectiveCapacity(gc.Venue)
	if capacity == 0 {
		return nil
	}
	if gc.Invitation.Approved() && gc.Invitation.WaivesCapacity {
		return nil
	}
	// A user already occupying a spot keeps it.
	if gc.Existing.CountsTowardCapacity() {
		return nil
	}
	if gc.ParticipantCount < capacity {
		return nil
	}
	step := domain.StepWaitForOpenSpot
	if gc.Event.WaitlistEnabled {
		step = domain.StepJoinWaitlist
	}
	return domain.Ineligible(gc.Event.ID, domain.ReasonEventFull, step)
}

// ticketSalesGate requires at least one tier with an open sales window for
// ticketed events.
type ticketSalesGate struct{}

func (ticketSalesGate) name() string { return "ticket_sales" }

func (ticketSalesGate) check(gc *gateContext) *domain.EligibilityResult {
	if !gc.Event.Ticketed {
		return nil
	}
	for _, tier := range gc.Tiers {
		if tier.OnSale(gc.Now) {
			return nil
		}
	}
	return domain.Ineligible(gc.Event.ID, domain.ReasonNoTicketsOnSale, "")
}
