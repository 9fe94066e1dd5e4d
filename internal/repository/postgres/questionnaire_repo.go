package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"gatekeeper/internal/domain"
)

type questionnaireRepository struct {
	DB *sql.DB
}

func NewQuestionnaireRepository(db *sql.DB) domain.QuestionnaireRepository {
	return &questionnaireRepository{
		DB: db,
	}
}

func (r *questionnaireRepository) ListRequirements(ctx context.Context, orgID, eventID string) ([]*domain.Questionnaire, error) {
	query := `
		SELECT id, organization_id, event_id, name, member_exempt, max_attempts, retry_cooldown_seconds, created_at
		FROM questionnaires
		WHERE organization_id = $1 AND (event_id IS NULL OR event_id = $2)
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, orgID, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questionnaires []*domain.Questionnaire
	for rows.Next() {
		q := &domain.Questionnaire{}
		var cooldownSeconds int64
		if err := rows.Scan(&q.ID, &q.OrganizationID, &q.EventID, &q.Name, &q.MemberExempt, &q.MaxAttempts, &cooldownSeconds, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.RetryCooldown = time.Duration(cooldownSeconds) * time.Second
		questionnaires = append(questionnaires, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if questionnaires == nil {
		questionnaires = []*domain.Questionnaire{}
	}
	return questionnaires, nil
}

func (r *questionnaireRepository) ListSubmissions(ctx context.Context, userID string, questionnaireIDs []string) ([]*domain.QuestionnaireSubmission, error) {
	if len(questionnaireIDs) == 0 {
		return []*domain.QuestionnaireSubmission{}, nil
	}
	query := `
		SELECT id, questionnaire_id, user_id, status, attempts, evaluated_at, created_at, updated_at
		FROM questionnaire_submissions
		WHERE user_id = $1 AND questionnaire_id = ANY($2)
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, pq.Array(questionnaireIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []*domain.QuestionnaireSubmission
	for rows.Next() {
		sub := &domain.QuestionnaireSubmission{}
		if err := rows.Scan(&sub.ID, &sub.QuestionnaireID, &sub.UserID, &sub.Status, &sub.Attempts, &sub.EvaluatedAt, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		submissions = append(submissions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if submissions == nil {
		submissions = []*domain.QuestionnaireSubmission{}
	}
	return submissions, nil
}
