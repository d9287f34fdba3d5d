package share

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
)

const timeFormat = time.RFC3339Nano

// Repository defines data access for shares.
type Repository interface {
	// EnsureActive returns the graph's active share, creating one when none
	// exists. At most one insert happens per invocation.
	EnsureActive(ctx context.Context, graphID, createdBy string) (*Share, error)
	GetByToken(ctx context.Context, token string) (*Share, error)
	GetActiveByGraph(ctx context.Context, graphID string) (*Share, error)
	Deactivate(ctx context.Context, graphID string) error
	// RecordView bumps view_count (and slack_view_count when fromSlack) and
	// stamps last_viewed_at. Callers treat failures as non-fatal.
	RecordView(ctx context.Context, token string, fromSlack bool) error
}

// LibsqlRepository implements Repository over database/sql.
type LibsqlRepository struct {
	db *sql.DB
}

func NewLibsqlRepository(db *sql.DB) *LibsqlRepository {
	return &LibsqlRepository{db: db}
}

func (r *LibsqlRepository) EnsureActive(ctx context.Context, graphID, createdBy string) (*Share, error) {
	existing, err := r.GetActiveByGraph(ctx, graphID)
	if err == nil {
		return existing, nil
	}
	if err != apperrors.ErrNotFound {
		return nil, err
	}

	s := &Share{
		ID:         uuid.NewString(),
		GraphID:    graphID,
		ShareToken: uuid.NewString(),
		CreatedBy:  createdBy,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO shared_efforts (id, graph_id, share_token, created_by, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)
	`, s.ID, s.GraphID, s.ShareToken, s.CreatedBy, s.CreatedAt.Format(timeFormat))
	if err != nil {
		// The partial unique index makes a concurrent creator lose the
		// race; fall back to the winner's row.
		if winner, lookupErr := r.GetActiveByGraph(ctx, graphID); lookupErr == nil {
			return winner, nil
		}
		return nil, fmt.Errorf("insert share: %w", err)
	}
	return s, nil
}

func (r *LibsqlRepository) GetByToken(ctx context.Context, token string) (*Share, error) {
	return r.get(ctx, `
		SELECT id, graph_id, share_token, created_by, view_count, slack_view_count,
		       last_viewed_at, is_active, created_at
		FROM shared_efforts WHERE share_token = ? AND is_active = 1
	`, token)
}

func (r *LibsqlRepository) GetActiveByGraph(ctx context.Context, graphID string) (*Share, error) {
	return r.get(ctx, `
		SELECT id, graph_id, share_token, created_by, view_count, slack_view_count,
		       last_viewed_at, is_active, created_at
		FROM shared_efforts WHERE graph_id = ? AND is_active = 1
	`, graphID)
}

func (r *LibsqlRepository) get(ctx context.Context, query, arg string) (*Share, error) {
	var s Share
	var lastViewed sql.NullString
	var isActive int
	var createdAt string

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&s.ID, &s.GraphID, &s.ShareToken, &s.CreatedBy,
		&s.ViewCount, &s.SlackViewCount, &lastViewed, &isActive, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan share: %w", err)
	}

	s.IsActive = isActive == 1
	s.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	if lastViewed.Valid {
		if t, err := time.Parse(timeFormat, lastViewed.String); err == nil {
			s.LastViewedAt = &t
		}
	}
	return &s, nil
}

func (r *LibsqlRepository) Deactivate(ctx context.Context, graphID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE shared_efforts SET is_active = 0 WHERE graph_id = ? AND is_active = 1
	`, graphID)
	if err != nil {
		return fmt.Errorf("deactivate share: %w", err)
	}
	return nil
}

func (r *LibsqlRepository) RecordView(ctx context.Context, token string, fromSlack bool) error {
	slackInc := 0
	if fromSlack {
		slackInc = 1
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE shared_efforts
		SET view_count = view_count + 1,
		    slack_view_count = slack_view_count + ?,
		    last_viewed_at = ?
		WHERE share_token = ?
	`, slackInc, time.Now().UTC().Format(timeFormat), token)
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}
