package domain

import (
	"context"
	"time"
)

// SubmissionStatus is a user's evaluation status for one questionnaire.
// Authoring and scoring are owned by the external questionnaire-evaluation
// collaborator; only the final status is read here.
type SubmissionStatus string

const (
	SubmissionDraft         SubmissionStatus = "draft"
	SubmissionPendingReview SubmissionStatus = "pending_review"
	SubmissionApproved      SubmissionStatus = "approved"
	SubmissionRejected      SubmissionStatus = "rejected"
)

// Questionnaire is an admission questionnaire required by an organization or
// a single event.
// swagger:model Questionnaire
type Questionnaire struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	// EventID scopes the questionnaire to one event; nil means it applies to
	// all of the organization's events.
	EventID *string `json:"event_id,omitempty"`
	Name    string  `json:"name"`
	// MemberExempt skips the questionnaire for active members.
	MemberExempt bool `json:"member_exempt"`
	// MaxAttempts 0 means unlimited retries.
	MaxAttempts   int           `json:"max_attempts"`
	RetryCooldown time.Duration `json:"retry_cooldown"`
	CreatedAt     time.Time     `json:"created_at"`
}

// QuestionnaireSubmission is a user's latest submission for a questionnaire.
// swagger:model QuestionnaireSubmission
type QuestionnaireSubmission struct {
	ID              string           `json:"id"`
	QuestionnaireID string           `json:"questionnaire_id"`
	UserID          string           `json:"user_id"`
	Status          SubmissionStatus `json:"status"`
	Attempts        int              `json:"attempts"`
	EvaluatedAt     *time.Time       `json:"evaluated_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// AttemptsExhausted reports whether the user has no retries left.
func (s *QuestionnaireSubmission) AttemptsExhausted(q *Questionnaire) bool {
	return q.MaxAttempts > 0 && s.Attempts >= q.MaxAttempts
}

// RetryAvailableAt returns when a rejected submission may be retried, or the
// zero time if no cooldown applies.
func (s *QuestionnaireSubmission) RetryAvailableAt(q *Questionnaire) time.Time {
	if s.EvaluatedAt == nil || q.RetryCooldown <= 0 {
		return time.Time{}
	}
	return s.EvaluatedAt.Add(q.RetryCooldown)
}

// QuestionnaireRepository defines read access to questionnaire requirements
// and per-user submission state.
type QuestionnaireRepository interface {
	// ListRequirements returns the questionnaires bound to the organization
	// plus those scoped to the given event.
	ListRequirements(ctx context.Context, orgID, eventID string) ([]*Questionnaire, error)
	// ListSubmissions returns the user's latest submission per questionnaire.
	ListSubmissions(ctx context.Context, userID string, questionnaireIDs []string) ([]*QuestionnaireSubmission, error)
}
