package slack

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
)

const timeFormat = time.RFC3339Nano

// Repository defines data access for Slack account links.
type Repository interface {
	Upsert(ctx context.Context, link *LinkedUser) error
	GetBySlackUserID(ctx context.Context, slackUserID string) (*LinkedUser, error)
	GetByUserID(ctx context.Context, userID string) (*LinkedUser, error)
	Unlink(ctx context.Context, slackUserID string) error
}

// LibsqlRepository implements Repository over database/sql.
type LibsqlRepository struct {
	db *sql.DB
}

func NewLibsqlRepository(db *sql.DB) *LibsqlRepository {
	return &LibsqlRepository{db: db}
}

func (r *LibsqlRepository) Upsert(ctx context.Context, link *LinkedUser) error {
	link.LinkedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO slack_users (user_id, slack_user_id, slack_team_id, slack_access_token, linked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(slack_user_id) DO UPDATE SET
			user_id = excluded.user_id,
			slack_team_id = excluded.slack_team_id,
			slack_access_token = excluded.slack_access_token,
			linked_at = excluded.linked_at
	`, link.UserID, link.SlackUserID, link.SlackTeamID,
		nullIfEmpty(link.SlackAccessToken), link.LinkedAt.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("upsert slack link: %w", err)
	}
	return nil
}

func (r *LibsqlRepository) GetBySlackUserID(ctx context.Context, slackUserID string) (*LinkedUser, error) {
	return r.get(ctx, `
		SELECT user_id, slack_user_id, slack_team_id, slack_access_token, linked_at
		FROM slack_users WHERE slack_user_id = ?
	`, slackUserID)
}

func (r *LibsqlRepository) GetByUserID(ctx context.Context, userID string) (*LinkedUser, error) {
	return r.get(ctx, `
		SELECT user_id, slack_user_id, slack_team_id, slack_access_token, linked_at
		FROM slack_users WHERE user_id = ?
	`, userID)
}

func (r *LibsqlRepository) get(ctx context.Context, query, arg string) (*LinkedUser, error) {
	var link LinkedUser
	var token sql.NullString
	var linkedAt string

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&link.UserID, &link.SlackUserID, &link.SlackTeamID, &token, &linkedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan slack link: %w", err)
	}

	link.SlackAccessToken = token.String
	link.LinkedAt, _ = time.Parse(timeFormat, linkedAt)
	return &link, nil
}

func (r *LibsqlRepository) Unlink(ctx context.Context, slackUserID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM slack_users WHERE slack_user_id = ?`, slackUserID)
	if err != nil {
		return fmt.Errorf("delete slack link: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
