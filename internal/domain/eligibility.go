package domain

import (
	"context"
	"fmt"
	"time"
)

// NextStep is a machine-readable action a user can take after a negative
// eligibility result (or, for RSVP/PURCHASE_TICKET, after a positive one).
type NextStep string

const (
	StepRequestWhitelist          NextStep = "REQUEST_WHITELIST"
	StepWaitForWhitelistApproval  NextStep = "WAIT_FOR_WHITELIST_APPROVAL"
	StepWaitForEventToOpen        NextStep = "WAIT_FOR_EVENT_TO_OPEN"
	StepRequestInvitation         NextStep = "REQUEST_INVITATION"
	StepWaitForInvitationApproval NextStep = "WAIT_FOR_INVITATION_APPROVAL"
	StepBecomeMember              NextStep = "BECOME_MEMBER"
	StepUpgradeMembership         NextStep = "UPGRADE_MEMBERSHIP"
	StepCompleteProfile           NextStep = "COMPLETE_PROFILE"
	StepCompleteQuestionnaire     NextStep = "COMPLETE_QUESTIONNAIRE"
	StepWaitForEvaluation         NextStep = "WAIT_FOR_QUESTIONNAIRE_EVALUATION"
	StepWaitToRetakeQuestionnaire NextStep = "WAIT_TO_RETAKE_QUESTIONNAIRE"
	StepJoinWaitlist              NextStep = "JOIN_WAITLIST"
	StepWaitForOpenSpot           NextStep = "WAIT_FOR_OPEN_SPOT"
	StepPurchaseTicket            NextStep = "PURCHASE_TICKET"
	StepRSVP                      NextStep = "RSVP"
)

// Reason codes carried on negative eligibility results.
const (
	ReasonBlacklisted              = "blacklisted"
	ReasonBlacklistNameMatch       = "blacklist_verification_required"
	ReasonEventFinished            = "event_finished"
	ReasonEventNotOpen             = "event_not_open"
	ReasonRSVPDeadlinePassed       = "rsvp_deadline_passed"
	ReasonApplyDeadlinePassed      = "apply_deadline_passed"
	ReasonInvitationRequired       = "invitation_required"
	ReasonInvitationPending        = "invitation_pending"
	ReasonInvitationRejected       = "invitation_rejected"
	ReasonMembershipRequired       = "membership_required"
	ReasonMembershipUpgradeNeeded  = "membership_upgrade_required"
	ReasonProfileIncomplete        = "profile_incomplete"
	ReasonQuestionnaireMissing     = "questionnaire_missing"
	ReasonQuestionnairePending     = "questionnaire_pending_review"
	ReasonQuestionnaireFailed      = "questionnaire_failed"
	ReasonEventFull                = "event_full"
	ReasonNoTicketsOnSale          = "no_tickets_on_sale"
)

// EligibilityResult is the single output of an eligibility check. Exactly one
// result is produced per pipeline run. When Allowed is true all optional
// fields are unset (the participation manager may later attach an action
// next step).
// swagger:model EligibilityResult
type EligibilityResult struct {
	Allowed  bool     `json:"allowed"`
	EventID  string   `json:"event_id"`
	Reason   string   `json:"reason,omitempty"`
	NextStep NextStep `json:"next_step,omitempty"`

	QuestionnairesMissing       []string   `json:"questionnaires_missing,omitempty"`
	QuestionnairesPendingReview []string   `json:"questionnaires_pending_review,omitempty"`
	QuestionnairesFailed        []string   `json:"questionnaires_failed,omitempty"`
	RetryOn                     *time.Time `json:"retry_on,omitempty"`
	MissingProfileFields        []string   `json:"missing_profile_fields,omitempty"`
}

// Eligible returns a positive result for the event.
func Eligible(eventID string) *EligibilityResult {
	return &EligibilityResult{Allowed: true, EventID: eventID}
}

// Ineligible returns a negative result with a reason and optional next step.
func Ineligible(eventID, reason string, step NextStep) *EligibilityResult {
	return &EligibilityResult{EventID: eventID, Reason: reason, NextStep: step}
}

// IneligibleError wraps a negative eligibility result for callers that opt
// into error-based control flow. HTTP layers map it to a structured 403.
type IneligibleError struct {
	Result *EligibilityResult
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("user is ineligible: %s", e.Result.Reason)
}

// CheckOptions tune a single eligibility check.
type CheckOptions struct {
	// Bypass returns an unconditional positive result without running any
	// check. Reserved for privileged internal flows.
	Bypass bool
}

// EligibilityService runs the gate pipeline for one (user, event) pair.
type EligibilityService interface {
	CheckEligibility(ctx context.Context, userID, eventID string, opts CheckOptions) (*EligibilityResult, error)
}

// ParticipationService orchestrates eligibility checks and the transactional
// participation write path.
type ParticipationService interface {
	// CheckEligibility delegates to the pipeline. If raiseOnFalse is set and
	// the result is negative, it returns an *IneligibleError instead. A
	// positive result is annotated with the follow-up action (RSVP or
	// PURCHASE_TICKET).
	CheckEligibility(ctx context.Context, userID, eventID string, raiseOnFalse bool) (*EligibilityResult, error)
	// RSVP records the user's answer for a non-ticketed event. Users holding
	// a "yes" RSVP may change their answer without re-running the pipeline.
	RSVP(ctx context.Context, userID, eventID string, status RSVPStatus) (*Participation, error)
	// PurchaseTicket reserves a ticket on the given tier for a ticketed
	// event. Payment capture happens downstream.
	PurchaseTicket(ctx context.Context, userID, eventID, tierID string) (*Participation, error)
	// ListEventParticipants returns the event's participations. Restricted
	// to the organization owner and staff.
	ListEventParticipants(ctx context.Context, eventID, callerID string, params PaginationParams) ([]*Participation, int, error)
}
