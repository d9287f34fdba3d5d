package user

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
)

const timeFormat = time.RFC3339Nano

// Repository defines data access for accounts and preferences.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByAPIToken(ctx context.Context, token string) (*User, error)
	FindOrCreateByEmail(ctx context.Context, email string) (*User, error)
	GetTheme(ctx context.Context, userID string) (Theme, error)
	SetTheme(ctx context.Context, userID string, theme Theme) error
}

// LibsqlRepository implements Repository over database/sql.
type LibsqlRepository struct {
	db *sql.DB
}

func NewLibsqlRepository(db *sql.DB) *LibsqlRepository {
	return &LibsqlRepository{db: db}
}

func (r *LibsqlRepository) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.APIToken == "" {
		u.APIToken = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, api_token, created_at)
		VALUES (?, ?, ?, ?)
	`, u.ID, u.Email, u.APIToken, u.CreatedAt.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *LibsqlRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.get(ctx, `SELECT id, email, api_token, created_at FROM users WHERE id = ?`, id)
}

func (r *LibsqlRepository) GetByAPIToken(ctx context.Context, token string) (*User, error) {
	return r.get(ctx, `SELECT id, email, api_token, created_at FROM users WHERE api_token = ?`, token)
}

func (r *LibsqlRepository) get(ctx context.Context, query, arg string) (*User, error) {
	var u User
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.APIToken, &createdAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return &u, nil
}

// FindOrCreateByEmail looks an account up by email, creating one on first
// sight. OAuth identity providers land here.
func (r *LibsqlRepository) FindOrCreateByEmail(ctx context.Context, email string) (*User, error) {
	u, err := r.get(ctx, `SELECT id, email, api_token, created_at FROM users WHERE email = ?`, email)
	if err == nil {
		return u, nil
	}
	if err != apperrors.ErrNotFound {
		return nil, err
	}

	created := &User{Email: email}
	if err := r.Create(ctx, created); err != nil {
		// A concurrent signup may have won the unique index race.
		if u, getErr := r.get(ctx, `SELECT id, email, api_token, created_at FROM users WHERE email = ?`, email); getErr == nil {
			return u, nil
		}
		return nil, err
	}
	return created, nil
}

// GetTheme returns the user's theme preference, defaulting to dark when no
// preferences row exists.
func (r *LibsqlRepository) GetTheme(ctx context.Context, userID string) (Theme, error) {
	var theme string
	err := r.db.QueryRowContext(ctx, `SELECT theme FROM user_preferences WHERE user_id = ?`, userID).Scan(&theme)
	if err == sql.ErrNoRows {
		return ThemeDark, nil
	}
	if err != nil {
		return ThemeDark, fmt.Errorf("query theme: %w", err)
	}
	return ParseTheme(theme), nil
}

func (r *LibsqlRepository) SetTheme(ctx context.Context, userID string, theme Theme) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, theme) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET theme = excluded.theme
	`, userID, string(theme))
	if err != nil {
		return fmt.Errorf("set theme: %w", err)
	}
	return nil
}
