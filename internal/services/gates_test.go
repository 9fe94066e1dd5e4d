package services

import (
	"testing"
	"time"

	"gatekeeper/internal/domain"
)

var gateNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// openEventContext builds a context for a public, open, non-ticketed event
// that passes every gate.
func openEventContext() *gateContext {
	return &gateContext{
		Now: gateNow,
		User: &domain.User{
			ID:    "u1",
			Email: "ada@example.com",
			Name:  "Ada",
		},
		Event: &domain.Event{
			ID:             "e1",
			OrganizationID: "org1",
			Visibility:     domain.VisibilityPublic,
			Status:         domain.EventStatusOpen,
			StartsAt:       gateNow.Add(48 * time.Hour),
			EndsAt:         gateNow.Add(52 * time.Hour),
		},
		Organization: &domain.Organization{ID: "org1", OwnerID: "owner1"},
	}
}

func runPipeline(gc *gateContext) *domain.EligibilityResult {
	for _, g := range newPipeline() {
		if res := g.check(gc); res != nil {
			return res
		}
	}
	return domain.Eligible(gc.Event.ID)
}

func TestPrivilegedAccessGate(t *testing.T) {
	g := privilegedAccessGate{}

	gc := openEventContext()
	if res := g.check(gc); res != nil {
		t.Fatalf("expected abstain for regular user, got %+v", res)
	}

	gc.IsOwner = true
	res := g.check(gc)
	if res == nil || !res.Allowed {
		t.Fatalf("expected owner to be fast-accepted, got %+v", res)
	}

	gc = openEventContext()
	gc.IsStaff = true
	res = g.check(gc)
	if res == nil || !res.Allowed {
		t.Fatalf("expected staff to be fast-accepted, got %+v", res)
	}
}

func TestPrivilegedAccessGate_BypassesBlacklist(t *testing.T) {
	gc := openEventContext()
	gc.IsOwner = true
	gc.Blacklist = []*domain.BlacklistEntry{{UserID: "u1"}}

	res := runPipeline(gc)
	if !res.Allowed {
		t.Fatalf("expected blacklisted owner to pass via fast path, got %+v", res)
	}
}

func TestBlacklistGate_HardMatches(t *testing.T) {
	tests := []struct {
		name  string
		entry *domain.BlacklistEntry
	}{
		{"user id match", &domain.BlacklistEntry{UserID: "u1"}},
		{"email match case insensitive", &domain.BlacklistEntry{Email: "ADA@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := openEventContext()
			gc.Blacklist = []*domain.BlacklistEntry{tt.entry}
			// An approved invitation with every waiver must not help.
			gc.Invitation = &domain.Invitation{
				Status:                   domain.InvitationApproved,
				WaivesRSVPDeadline:       true,
				WaivesApplyDeadline:      true,
				WaivesMembershipRequired: true,
				WaivesQuestionnaire:      true,
				WaivesCapacity:           true,
			}

			res := blacklistGate{}.check(gc)
			if res == nil || res.Allowed {
				t.Fatalf("expected denial, got %+v", res)
			}
			if res.Reason != domain.ReasonBlacklisted {
				t.Fatalf("expected reason %q, got %q", domain.ReasonBlacklisted, res.Reason)
			}
			if res.NextStep != "" {
				t.Fatalf("expected no next step for a hard block, got %q", res.NextStep)
			}
		})
	}
}

func TestBlacklistGate_FuzzyNameMatch(t *testing.T) {
	entry := &domain.BlacklistEntry{FullName: "Ada Lovelaces"}

	tests := []struct {
		name       string
		membership *domain.Membership
		whitelist  *domain.WhitelistEntry
		wantDeny   bool
		wantStep   domain.NextStep
	}{
		{
			name:     "unverified user is held",
			wantDeny: true,
			wantStep: domain.StepRequestWhitelist,
		},
		{
			name:      "pending whitelist waits",
			whitelist: &domain.WhitelistEntry{Status: domain.WhitelistPending},
			wantDeny:  true,
			wantStep:  domain.StepWaitForWhitelistApproval,
		},
		{
			name:      "approved whitelist clears",
			whitelist: &domain.WhitelistEntry{Status: domain.WhitelistApproved},
		},
		{
			name:       "active member clears",
			membership: &domain.Membership{Status: domain.MembershipActive},
		},
		{
			name:       "paused member is still held",
			membership: &domain.Membership{Status: domain.MembershipPaused},
			wantDeny:   true,
			wantStep:   domain.StepRequestWhitelist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := openEventContext()
			gc.User.Name = "Ada"
			gc.User.LastName = "Lovelace"
			gc.Blacklist = []*domain.BlacklistEntry{entry}
			gc.Membership = tt.membership
			gc.Whitelist = tt.whitelist

			res := blacklistGate{}.check(gc)
			if !tt.wantDeny {
				if res != nil {
					t.Fatalf("expected abstain, got %+v", res)
				}
				return
			}
			if res == nil || res.Allowed {
				t.Fatalf("expected denial, got %+v", res)
			}
			if res.Reason != domain.ReasonBlacklistNameMatch {
				t.Fatalf("expected reason %q, got %q", domain.ReasonBlacklistNameMatch, res.Reason)
			}
			if res.NextStep != tt.wantStep {
				t.Fatalf("expected step %q, got %q", tt.wantStep, res.NextStep)
			}
		})
	}
}

func TestBlacklistGate_DissimilarNameAbstains(t *testing.T) {
	gc := openEventContext()
	gc.User.Name = "Grace"
	gc.User.LastName = "Hopper"
	gc.Blacklist = []*domain.BlacklistEntry{{FullName: "Ada Lovelace"}}

	if res := (blacklistGate{}).check(gc); res != nil {
		t.Fatalf("expected abstain for dissimilar name, got %+v", res)
	}
}

func TestEventStatusGate(t *testing.T) {
	tests := []struct {
		name       string
		status     domain.EventStatus
		endsAt     time.Time
		wantDeny   bool
		wantReason string
		wantStep   domain.NextStep
	}{
		{name: "open abstains", status: domain.EventStatusOpen},
		{
			name:       "finished event is final",
			status:     domain.EventStatusOpen,
			endsAt:     gateNow.Add(-time.Hour),
			wantDeny:   true,
			wantReason: domain.ReasonEventFinished,
		},
		{
			name:       "draft waits for opening",
			status:     domain.EventStatusDraft,
			wantDeny:   true,
			wantReason: domain.ReasonEventNotOpen,
			wantStep:   domain.StepWaitForEventToOpen,
		},
		{
			name:       "closed has no next step",
			status:     domain.EventStatusClosed,
			wantDeny:   true,
			wantReason: domain.ReasonEventNotOpen,
		},
		{
			name:       "cancelled has no next step",
			status:     domain.EventStatusCancelled,
			wantDeny:   true,
			wantReason: domain.ReasonEventNotOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := openEventContext()
			gc.Event.Status = tt.status
			if !tt.endsAt.IsZero() {
				gc.Event.EndsAt = tt.endsAt
			}

			res := eventStatusGate{}.check(gc)
			if !tt.wantDeny {
				if res != nil {
					t.Fatalf("expected abstain, got %+v", res)
				}
				return
			}
			if res == nil || res.Allowed {
				t.Fatalf("expected denial, got %+v", res)
			}
			if res.Reason != tt.wantReason {
				t.Fatalf("expected reason %q, got %q", tt.wantReason, res.Reason)
			}
			if res.NextStep != tt.wantStep {
				t.Fatalf("expected step %q, got %q", tt.wantStep, res.NextStep)
			}
		})
	}
}

func TestRSVPDeadlineGate(t *testing.T) {
	past := gateNow.Add(-time.Hour)
	future := gateNow.Add(time.Hour)

	tests := []struct {
		name       string
		ticketed   bool
		deadline   *time.Time
		invitation *domain.Invitation
		wantDeny   bool
	}{
		{name: "no deadline abstains"},
		{name: "ticketed event skips", ticketed: true, deadline: &past},
		{name: "before deadline abstains", deadline: &future},
		{name: "past deadline denies", deadline: &past, wantDeny: true},
		{
			name:       "approved waiver clears past deadline",
			deadline:   &past,
			invitation: &domain.Invitation{Status: domain.InvitationApproved, WaivesRSVPDeadline: true},
		},
		{
			name:       "pending invitation waiver is inert",
			deadline:   &past,
			invitation: &domain.Invitation{Status: domain.InvitationPending, WaivesRSVPDeadline: true},
			wantDeny:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := openEventContext()
			gc.Event.Ticketed = tt.ticketed
			gc.Event.RSVPDeadline = tt.deadline
			gc.Invitation = tt.invitation

			res := rsvpDeadlineGate{}.check(gc)
			if tt.wantDeny {
				if res == nil || res.Reason != domain.ReasonRSVPDeadlinePassed {
					t.Fatalf("expected rsvp deadline denial, got %+v", res)
				}
				if res.NextStep != "" {
					t.Fatalf("expected no next step, got %q", res.NextStep)
				}
				return
			}
			if res != nil {
				t.Fatalf("expected abstain, got %+v", res)
			}
		})
	}
}

func TestApplyDeadlineGate(t *testing.T) {
	past := gateNow.Add(-time.Hour)

	t.Run("only binds users who still need to act", func(t *testing.T) {
		gc := openEventContext()
		gc.Event.ApplyDeadline = &past

		// Public event, no questionnaires: nothing left to apply for.
		if res := (applyDeadlineGate{}).check(gc); res != nil {
			t.Fatalf("expected abstain, got %+v", res)
		}
	})

	t.Run("private event without invitation past deadline", func(t *testing.T) {
		gc := openEventContext()
		gc.Event.Visibility = domain.VisibilityPrivate
		gc.Event.ApplyDeadline = &past

		res := applyDeadlineGate{}.check(gc)
		if res == nil || res.Reason != domain.ReasonApplyDeadlinePassed {
			t.Fatalf("expected apply deadline denial, got %+v", res)
		}
	})

	t.Run("private event with any invitation passes through", func(t *testing.T) {
		gc := openEventContext()
		gc.Event.Visibility = domain.VisibilityPrivate
		gc.Event.ApplyDeadline = &past
		gc.Invitation = &domain.Invitation{Status: domain.InvitationPending}

		if res := (applyDeadlineGate{}).check(gc); res != nil {
			t.Fatalf("expected abstain for user who already applied, got %+v", res)
		}
	})

	t.Run("missing questionnaire past deadline", func(t *testing.T) {
		gc := openEventContext()
		gc.Event.ApplyDeadline = &past
		gc.Questionnaires = []*domain.Questionnaire{{ID: "q1"}}

		res := applyDeadlineGate{}.check(gc)
		if res == nil || res.Reason != domain.ReasonApplyDeadlinePassed {
			t.Fatalf("expected apply deadline denial, got %+v", res)
		}
	})

	t.Run("submitted questionnaire passes through", func(t *testing.T) {
		gc := openEventContext()
		gc.Event.ApplyDeadline = &past
		gc.Questionnaires = []*domain.Questionnaire{{ID: "q1"}}
		gc.Submissions = map[string]*domain.QuestionnaireSubmission{
			"q1": {QuestionnaireID: "q1", Status: domain.SubmissionPendingReview},
		}

		if res := (applyDeadlineGate{}).check(gc); res != nil {
			t.Fatalf("expected abstain, got %+v", res)
		}
	})

	t.Run("falls back to event start", func(t *testing.T) {
		gc := openEventContext()
		gc.Event.Visibility = domain.VisibilityPrivate
		gc.Event.StartsAt = past

		res := applyDeadlineGate{}.check(gc)
		if res == nil || res.Reason != domain.ReasonApplyDeadlinePassed {
			t.Fatalf("expected denial after event start, got %+v", res)
		}
	})

	t.Run("approved waiver clears past deadline", func(t *testing.T) {
		gc := openEventContext()
		gc.Event.ApplyDeadline = &past
		gc.Questionnaires = []*domain.Questionnaire{{ID: "q1"}}
		gc.Invitation = &domain.Invitation{Status: domain.InvitationApproved, WaivesApplyDeadline: true}

		if res := (applyDeadlineGate{}).check(gc); res != nil {
			t.Fatalf("expected abstain with waiver, got %+v", res)
		}
	})
}

func TestInvitationGate(t *testing.T) {
	tests := []struct {
		name       string
		visibility domain.EventVisibility
		invitation *domain.Invitation
		wantDeny   bool
		wantReason string
		wantStep   domain.NextStep
	}{
		{name: "public abstains", visibility: domain.VisibilityPublic},
		{name: "members only abstains", visibility: domain.VisibilityMembersOnly},
		{
			name:       "private without invitation",
			visibility: domain.VisibilityPrivate,
			wantDeny:   true,
			wantReason: domain.ReasonInvitationRequired,
			wantStep:   domain.StepRequestInvitation,
		},
		{
			name:       "private pending",
			visibility: domain.VisibilityPrivate,
			invitation: &domain.Invitation{Status: domain.InvitationPending},
			wantDeny:   true,
			wantReason: domain.ReasonInvitationPending,
			wantStep:   domain.StepWaitForInvitationApproval,
		},
		{
			name:       "private rejected has no next step",
			visibility: domain.VisibilityPrivate,
			invitation: &domain.Invitation{Status: domain.InvitationRejected},
			wantDeny:   true,
			wantReason: domain.ReasonInvitationRejected,
		},
		{
			name:       "private approved abstains",
			visibility: domain.VisibilityPrivate,
			invitation: &domain.Invitation{Status: domain.InvitationApproved},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := openEventContext()
			gc.Event.Visibility = tt.visibility
			gc.Invitation = tt.invitation

			res := invitationGate{}.check(gc)
			if !tt.wantDeny {
				if res != nil {
					t.Fatalf("expected abstain, got %+v", res)
				}
				return
			}
			if res == nil || res.Reason != tt.wantReason {
				t.Fatalf("expected reason %q, got %+v", tt.wantReason, res)
			}
			if res.NextStep != tt.wantStep {
				t.Fatalf("expected step %q, got %q", tt.wantStep, res.NextStep)
			}
		})
	}
}

func TestMembershipGate(t *testing.T) {
	tests := []struct {
		name         string
		requiredTier int
		membership   *domain.Membership
		invitation   *domain.Invitation
		orgAccepts   bool
		wantDeny     bool
		wantReason   string
		wantStep     domain.NextStep
	}{
		{
			name:       "active member abstains",
			membership: &domain.Membership{Status: domain.MembershipActive},
		},
		{
			name:       "non-member pointed at signup",
			orgAccepts: true,
			wantDeny:   true,
			wantReason: domain.ReasonMembershipRequired,
			wantStep:   domain.StepBecomeMember,
		},
		{
			name:       "non-member with closed org has no step",
			wantDeny:   true,
			wantReason: domain.ReasonMembershipRequired,
		},
		{
			name:       "paused member treated as non-member",
			membership: &domain.Membership{Status: domain.MembershipPaused},
			orgAccepts: true,
			wantDeny:   true,
			wantReason: domain.ReasonMembershipRequired,
			wantStep:   domain.StepBecomeMember,
		},
		{
			name:       "banned member gets no step even when org accepts",
			membership: &domain.Membership{Status: domain.MembershipBanned},
			orgAccepts: true,
			wantDeny:   true,
			wantReason: domain.ReasonMembershipRequired,
		},
		{
			name:         "tier too low",
			requiredTier: 2,
			membership:   &domain.Membership{Status: domain.MembershipActive, TierRank: 1},
			wantDeny:     true,
			wantReason:   domain.ReasonMembershipUpgradeNeeded,
			wantStep:     domain.StepUpgradeMembership,
		},
		{
			name:         "tier sufficient abstains",
			requiredTier: 2,
			membership:   &domain.Membership{Status: domain.MembershipActive, TierRank: 3},
		},
		{
			name:       "approved waiver clears non-member",
			invitation: &domain.Invitation{Status: domain.InvitationApproved, WaivesMembershipRequired: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := openEventContext()
			gc.Event.Visibility = domain.VisibilityMembersOnly
			gc.Event.RequiredMembershipTier = tt.requiredTier
			gc.Organization.AcceptsMembershipRequests = tt.orgAccepts
			gc.Membership = tt.membership
			gc.Invitation = tt.invitation

			res := membershipGate{}.check(gc)
			if !tt.wantDeny {
				if res != nil {
					t.Fatalf("expected abstain, got %+v", res)
				}
				return
			}
			if res == nil || res.Reason != tt.wantReason {
				t.Fatalf("expected reason %q, got %+v", tt.wantReason, res)
			}
			if res.NextStep != tt.wantStep {
				t.Fatalf("expected step %q, got %q", tt.wantStep, res.NextStep)
			}
		})
	}
}

func TestMembershipGate_SkipsOtherVisibilities(t *testing.T) {
	gc := openEventContext()
	gc.Event.Visibility = domain.VisibilityPublic

	if res := (membershipGate{}).check(gc); res != nil {
		t.Fatalf("expected abstain for public event, got %+v", res)
	}
}

func TestFullProfileGate(t *testing.T) {
	t.Run("not required abstains", func(t *testing.T) {
		gc := openEventContext()
		gc.User.Pronouns = ""

		if res := (fullProfileGate{}).check(gc); res != nil {
			t.Fatalf("expected abstain, got %+v", res)
		}
	})

	t.Run("missing fields are reported", func(t *testing.T) {
		gc := openEventContext()
		gc.Event.RequiresFullProfile = true
		gc.User.Pronouns = ""
		gc.User.PictureURL = ""

		res := fullProfileGate{}.check(gc)
		if res == nil || res.Reason != domain.ReasonProfileIncomplete {
			t.Fatalf("expected profile denial, got %+v", res)
		}
		if res.NextStep != domain.StepCompleteProfile {
			t.Fatalf("expected step %q, got %q", domain.StepCompleteProfile, res.NextStep)
		}
		want := []string{domain.ProfileFieldPronouns, domain.ProfileFieldPicture}
		if len(res.MissingProfileFields) != len(want) {
			t.Fatalf("expected missing fields %v, got %v", want, res.MissingProfileFields)
		}
		for i, f := range want {
			if res.MissingProfileFields[i] != f {
				t.Fatalf("expected missing fields %v, got %v", want, res.MissingProfileFields)
			}
		}
	})

	t.Run("complete profile abstains", func(t *testing.T) {
		gc := openEventContext()
		gc.Event.RequiresFullProfile = true
		gc.User.Pronouns = "she/her"
		gc.User.PictureURL = "https://example.com/ada.png"

		if res := (fullProfileGate{}).check(gc); res != nil {
			t.Fatalf("expected abstain, got %+v", res)
		}
	})
}

func TestQuestionnaireGate(t *testing.T) {
	evaluated := gateNow.Add(-time.Hour)

	t.Run("no questionnaires abstains", func(t *testing.T) {
		gc := openEventContext()
		if res := (questionnaireGate{}).check(gc); res != nil {
			t.Fatalf("expected abstain, got %+v", res)
		}
	})

	t.Run("missing submission", func(t *testing.T) {
		gc := openEventContext()
		gc.Questionnaires = []*domain.Questionnaire{{ID: "q1"}}

		res := questionnaireGate{}.check(gc)
		if res == nil || res.Reason != domain.ReasonQuestionnaireMissing {
			t.Fatalf("expected missing denial, got %+v", res)
		}
		if res.NextStep != domain.StepCompleteQuestionnaire {
			t.Fatalf("expected step %q, got %q", domain.StepCompleteQuestionnaire, res.NextStep)
		}
		if len(res.QuestionnairesMissing) != 1 || res.QuestionnairesMissing[0] != "q1" {
			t.Fatalf("expected q1 in missing, got %v", res.QuestionnairesMissing)
		}
	})

	t.Run("draft counts as missing", func(t *testing.T) {
		gc := openEventContext()
		gc.Questionnaires = []*domain.Questionnaire{{ID: "q1"}}
		gc.Submissions = map[string]*domain.QuestionnaireSubmission{
			"q1": {QuestionnaireID: "q1", Status: domain.SubmissionDraft},
		}

		res := questionnaireGate{}.check(gc)
		if res == nil || res.Reason != domain.ReasonQuestionnaireMissing {
			t.Fatalf("expected missing denial, got %+v", res)
		}
	})

	t.Run("pending review", func(t *testing.T) {
		gc := openEventContext()
		gc.Questionnaires = []*domain.Questionnaire{{ID: "q1"}}
		gc.Submissions = map[string]*domain.QuestionnaireSubmission{
			"q1": {QuestionnaireID: "q1", Status: domain.SubmissionPendingReview},
		}

		res := questionnaireGate{}.check(gc)
		if res == nil || res.Reason != domain.ReasonQuestionnairePending {
			t.Fatalf("expected pending denial, got %+v", res)
		}
		if res.NextStep != domain.StepWaitForEvaluation {
			t.Fatalf("expected step %q, got %q", domain.StepWaitForEvaluation, res.NextStep)
		}
	})

	t.Run("rejected with attempts exhausted is final", func(t *testing.T) {
		gc := openEventContext()
		gc.Questionnaires = []*domain.Questionnaire{{ID: "q1", MaxAttempts: 2}}
		gc.Submissions = map[string]*domain.QuestionnaireSubmission{
			"q1": {QuestionnaireID: "q1", Status: domain.SubmissionRejected, Attempts: 2, EvaluatedAt: &evaluated},
		}

		res := questionnaireGate{}.check(gc)
		if res == nil || res.Reason != domain.ReasonQuestionnaireFailed {
			t.Fatalf("expected failed denial, got %+v", res)
		}
		if res.NextStep != "" {
			t.Fatalf("expected no next step when exhausted, got %q", res.NextStep)
		}
		if res.RetryOn != nil {
			t.Fatalf("expected no retry time when exhausted, got %v", res.RetryOn)
		}
	})

	t.Run("rejected within cooldown waits", func(t *testing.T) {
		gc := openEventContext()
		gc.Questionnaires = []*domain.Questionnaire{{ID: "q1", MaxAttempts: 3, RetryCooldown: 24 * time.Hour}}
		gc.Submissions = map[string]*domain.QuestionnaireSubmission{
			"q1": {QuestionnaireID: "q1", Status: domain.SubmissionRejected, Attempts: 1, EvaluatedAt: &evaluated},
		}

		res := questionnaireGate{}.check(gc)
		if res == nil || res.Reason != domain.ReasonQuestionnaireFailed {
			t.Fatalf("expected failed denial, got %+v", res)
		}
		if res.NextStep != domain.StepWaitToRetakeQuestionnaire {
			t.Fatalf("expected step %q, got %q", domain.StepWaitToRetakeQuestionnaire, res.NextStep)
		}
		if res.RetryOn == nil || !res.RetryOn.Equal(evaluated.Add(24*time.Hour)) {
			t.Fatalf("expected retry at %v, got %v", evaluated.Add(24*time.Hour), res.RetryOn)
		}
	})

	t.Run("rejected with cooldown elapsed folds into missing", func(t *testing.T) {
		old := gateNow.Add(-48 * time.Hour)
		gc := openEventContext()
		gc.Questionnaires = []*domain.Questionnaire{{ID: "q1", MaxAttempts: 3, RetryCooldown: 24 * time.Hour}}
		gc.Submissions = map[string]*domain.QuestionnaireSubmission{
			"q1": {QuestionnaireID: "q1", Status: domain.SubmissionRejected, Attempts: 1, EvaluatedAt: &old},
		}

		res := questionnaireGate{}.check(gc)
		if res == nil || res.Reason != domain.ReasonQuestionnaireMissing {
			t.Fatalf("expected resubmission to be allowed, got %+v", res)
		}
	})

	t.Run("missing outranks pending and failed", func(t *testing.T) {
		gc := openEventContext()
		gc.Questionnaires = []*domain.Questionnaire{{ID: "q1"}, {ID: "q2"}, {ID: "q3", MaxAttempts: 1}}
		gc.Submissions = map[string]*domain.QuestionnaireSubmission{
			"q2": {QuestionnaireID: "q2", Status: domain.SubmissionPendingReview},
			"q3": {QuestionnaireID: "q3", Status: domain.SubmissionRejected, Attempts: 1, EvaluatedAt: &evaluated},
		}

		res := questionnaireGate{}.check(gc)
		if res == nil || res.Reason != domain.ReasonQuestionnaireMissing {
			t.Fatalf("expected missing to win, got %+v", res)
		}
		if len(res.QuestionnairesMissing) != 1 || len(res.QuestionnairesPendingReview) != 1 || len(res.QuestionnairesFailed) != 1 {
			t.Fatalf("expected all buckets populated, got %+v", res)
		}
	})

	t.Run("member exempt skipped for active members", func(t *testing.T) {
		gc := openEventContext()
		gc.Questionnaires = []*domain.Questionnaire{{ID: "q1", MemberExempt: true}}
		gc.Membership = &domain.Membership{Status: domain.MembershipActive}

		if res := (questionnaireGate{}).check(gc); res != nil {
			t.Fatalf("expected abstain for exempt member, got %+v", res)
		}
	})

	t.Run("approved waiver clears all questionnaires", func(t *testing.T) {
		gc := openEventContext()
		gc.Questionnaires = []*domain.Questionnaire{{ID: "q1"}}
		gc.Invitation = &domain.Invitation{Status: domain.InvitationApproved, WaivesQuestionnaire: true}

		if res := (questionnaireGate{}).check(gc); res != nil {
			t.Fatalf("expected abstain with waiver, got %+v", res)
		}
	})

	t.Run("approved submission abstains", func(t *testing.T) {
		gc := openEventContext()
		gc.Questionnaires = []*domain.Questionnaire{{ID: "q1"}}
		gc.Submissions = map[string]*domain.QuestionnaireSubmission{
			"q1": {QuestionnaireID: "q1", Status: domain.SubmissionApproved},
		}

		if res := (questionnaireGate{}).check(gc); res != nil {
			t.Fatalf("expected abstain, got %+v", res)
		}
	})
}

func TestAvailabilityGate(t *testing.T) {
	tests := []struct {
		name         string
		maxAttendees int
		venue        *domain.Venue
		count        int
		waitlist     bool
		invitation   *domain.Invitation
		existing     *domain.Participation
		wantDeny     bool
		wantStep     domain.NextStep
	}{
		{name: "unlimited capacity abstains", count: 10000},
		{name: "under capacity abstains", maxAttendees: 100, count: 99},
		{
			name:         "full event denies",
			maxAttendees: 100,
			count:        100,
			wantDeny:     true,
			wantStep:     domain.StepWaitForOpenSpot,
		},
		{
			name:         "full event with waitlist",
			maxAttendees: 100,
			count:        100,
			waitlist:     true,
			wantDeny:     true,
			wantStep:     domain.StepJoinWaitlist,
		},
		{
			name:     "venue capacity caps the event",
			venue:    &domain.Venue{Capacity: 50},
			count:    50,
			wantDeny: true,
			wantStep: domain.StepWaitForOpenSpot,
		},
		{
			name:         "smaller venue wins over max attendees",
			maxAttendees: 100,
			venue:        &domain.Venue{Capacity: 50},
			count:        50,
			wantDeny:     true,
			wantStep:     domain.StepWaitForOpenSpot,
		},
		{
			name:         "capacity waiver clears a full event",
			maxAttendees: 100,
			count:        100,
			invitation:   &domain.Invitation{Status: domain.InvitationApproved, WaivesCapacity: true},
		},
		{
			name:         "existing spot holder keeps it",
			maxAttendees: 100,
			count:        100,
			existing: &domain.Participation{
				Kind:       domain.KindRSVP,
				Status:     domain.ParticipationActive,
				RSVPStatus: domain.RSVPYes,
			},
		},
		{
			name:         "cancelled participation does not hold a spot",
			maxAttendees: 100,
			count:        100,
			existing: &domain.Participation{
				Kind:       domain.KindRSVP,
				Status:     domain.ParticipationCancelled,
				RSVPStatus: domain.RSVPYes,
			},
			wantDeny: true,
			wantStep: domain.StepWaitForOpenSpot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := openEventContext()
			gc.Event.MaxAttendees = tt.maxAttendees
			gc.Event.WaitlistEnabled = tt.waitlist
			gc.Venue = tt.venue
			gc.ParticipantCount = tt.count
			gc.Invitation = tt.invitation
			gc.Existing = tt.existing

			res := availabilityGate{}.check(gc)
			if !tt.wantDeny {
				if res != nil {
					t.Fatalf("expected abstain, got %+v", res)
				}
				return
			}
			if res == nil || res.Reason != domain.ReasonEventFull {
				t.Fatalf("expected event full denial, got %+v", res)
			}
			if res.NextStep != tt.wantStep {
				t.Fatalf("expected step %q, got %q", tt.wantStep, res.NextStep)
			}
		})
	}
}

func TestTicketSalesGate(t *testing.T) {
	onSale := &domain.TicketTier{SalesStart: gateNow.Add(-time.Hour), SalesEnd: gateNow.Add(time.Hour)}
	notYet := &domain.TicketTier{SalesStart: gateNow.Add(time.Hour)}
	over := &domain.TicketTier{SalesStart: gateNow.Add(-2 * time.Hour), SalesEnd: gateNow.Add(-time.Hour)}
	openEnded := &domain.TicketTier{SalesStart: gateNow.Add(-time.Hour)}

	tests := []struct {
		name     string
		ticketed bool
		tiers    []*domain.TicketTier
		wantDeny bool
	}{
		{name: "non-ticketed abstains"},
		{name: "tier on sale abstains", ticketed: true, tiers: []*domain.TicketTier{over, onSale}},
		{name: "open-ended sales window abstains", ticketed: true, tiers: []*domain.TicketTier{openEnded}},
		{name: "no tiers denies", ticketed: true, wantDeny: true},
		{name: "all windows closed denies", ticketed: true, tiers: []*domain.TicketTier{notYet, over}, wantDeny: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := openEventContext()
			gc.Event.Ticketed = tt.ticketed
			gc.Tiers = tt.tiers

			res := ticketSalesGate{}.check(gc)
			if tt.wantDeny {
				if res == nil || res.Reason != domain.ReasonNoTicketsOnSale {
					t.Fatalf("expected no tickets denial, got %+v", res)
				}
				if res.NextStep != "" {
					t.Fatalf("expected no next step, got %q", res.NextStep)
				}
				return
			}
			if res != nil {
				t.Fatalf("expected abstain, got %+v", res)
			}
		})
	}
}

func TestPipelineOrder(t *testing.T) {
	// A user failing several checks at once must get the earliest gate's
	// answer: the blacklist outranks everything except the privileged fast
	// path.
	gc := openEventContext()
	gc.Event.Visibility = domain.VisibilityPrivate
	gc.Event.Status = domain.EventStatusClosed
	gc.Blacklist = []*domain.BlacklistEntry{{UserID: "u1"}}

	res := runPipeline(gc)
	if res.Reason != domain.ReasonBlacklisted {
		t.Fatalf("expected blacklist to win, got %+v", res)
	}

	// Without the blacklist entry the status check answers next.
	gc.Blacklist = nil
	res = runPipeline(gc)
	if res.Reason != domain.ReasonEventNotOpen {
		t.Fatalf("expected event status to win, got %+v", res)
	}

	// With the event open the invitation requirement surfaces.
	gc.Event.Status = domain.EventStatusOpen
	res = runPipeline(gc)
	if res.Reason != domain.ReasonInvitationRequired {
		t.Fatalf("expected invitation requirement, got %+v", res)
	}
}
