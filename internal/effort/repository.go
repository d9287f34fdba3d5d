package effort

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
)

// timeFormat keeps sub-second precision so updated_at changes within the
// same second still rotate chart cache keys.
const timeFormat = time.RFC3339Nano

// Repository defines the data access interface for graphs and workstreams.
type Repository interface {
	CreateGraph(ctx context.Context, graph *Graph) error
	GetGraph(ctx context.Context, id string) (*Graph, error)
	GetGraphWithWorkstreams(ctx context.Context, id string) (*Graph, error)
	FindGraphByName(ctx context.Context, authorID, name string) (*Graph, error)
	ListGraphsByAuthor(ctx context.Context, authorID string) ([]Graph, error)
	UpdateGraph(ctx context.Context, graph *Graph) error
	DeleteGraph(ctx context.Context, id string) error
	ListWorkstreams(ctx context.Context, graphID string) ([]Workstream, error)
	GrantPermission(ctx context.Context, p Permission) error
	GetPermission(ctx context.Context, graphID, userID string) (*Permission, error)
}

// LibsqlRepository implements Repository over database/sql.
type LibsqlRepository struct {
	db *sql.DB
}

func NewLibsqlRepository(db *sql.DB) *LibsqlRepository {
	return &LibsqlRepository{db: db}
}

// CreateGraph inserts the graph and its workstreams in one transaction,
// assigning ids and timestamps to any that lack them.
func (r *LibsqlRepository) CreateGraph(ctx context.Context, graph *Graph) error {
	now := time.Now().UTC()
	if graph.ID == "" {
		graph.ID = uuid.NewString()
	}
	graph.CreatedAt = now
	graph.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO effort_graphs (id, name, description, author_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, graph.ID, graph.Name, nullIfEmpty(graph.Description), graph.AuthorID,
		now.Format(timeFormat), now.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert graph: %w", err)
	}

	for i := range graph.Workstreams {
		ws := &graph.Workstreams[i]
		if ws.ID == "" {
			ws.ID = uuid.NewString()
		}
		ws.GraphID = graph.ID
		ws.CreatedAt = now
		ws.UpdatedAt = now

		_, err = tx.ExecContext(ctx, `
			INSERT INTO workstreams (id, name, effort, color, graph_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, ws.ID, ws.Name, ws.Effort, ws.Color, graph.ID,
			now.Format(timeFormat), now.Format(timeFormat))
		if err != nil {
			return fmt.Errorf("insert workstream %q: %w", ws.Name, err)
		}
	}

	return tx.Commit()
}

func (r *LibsqlRepository) GetGraph(ctx context.Context, id string) (*Graph, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, author_id, created_at, updated_at
		FROM effort_graphs WHERE id = ?
	`, id)
	return scanGraph(row)
}

func (r *LibsqlRepository) GetGraphWithWorkstreams(ctx context.Context, id string) (*Graph, error) {
	graph, err := r.GetGraph(ctx, id)
	if err != nil {
		return nil, err
	}
	graph.Workstreams, err = r.ListWorkstreams(ctx, id)
	if err != nil {
		return nil, err
	}
	return graph, nil
}

// FindGraphByName looks up an author's graph by exact name, used by the
// Slack view and share commands.
func (r *LibsqlRepository) FindGraphByName(ctx context.Context, authorID, name string) (*Graph, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, author_id, created_at, updated_at
		FROM effort_graphs WHERE author_id = ? AND name = ? LIMIT 1
	`, authorID, name)
	graph, err := scanGraph(row)
	if err != nil {
		return nil, err
	}
	graph.Workstreams, err = r.ListWorkstreams(ctx, graph.ID)
	if err != nil {
		return nil, err
	}
	return graph, nil
}

func (r *LibsqlRepository) ListGraphsByAuthor(ctx context.Context, authorID string) ([]Graph, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, author_id, created_at, updated_at
		FROM effort_graphs WHERE author_id = ? ORDER BY updated_at DESC
	`, authorID)
	if err != nil {
		return nil, fmt.Errorf("query graphs: %w", err)
	}
	defer rows.Close()

	var graphs []Graph
	for rows.Next() {
		graph, err := scanGraph(rows)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, *graph)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range graphs {
		graphs[i].Workstreams, err = r.ListWorkstreams(ctx, graphs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return graphs, nil
}

// UpdateGraph replaces the graph's name, description and workstreams and
// bumps updated_at, which rotates the chart cache key.
func (r *LibsqlRepository) UpdateGraph(ctx context.Context, graph *Graph) error {
	now := time.Now().UTC()
	graph.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE effort_graphs SET name = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, graph.Name, nullIfEmpty(graph.Description), now.Format(timeFormat), graph.ID)
	if err != nil {
		return fmt.Errorf("update graph: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM workstreams WHERE graph_id = ?`, graph.ID); err != nil {
		return fmt.Errorf("clear workstreams: %w", err)
	}

	for i := range graph.Workstreams {
		ws := &graph.Workstreams[i]
		if ws.ID == "" {
			ws.ID = uuid.NewString()
		}
		ws.GraphID = graph.ID
		if ws.CreatedAt.IsZero() {
			ws.CreatedAt = now
		}
		ws.UpdatedAt = now

		_, err = tx.ExecContext(ctx, `
			INSERT INTO workstreams (id, name, effort, color, graph_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, ws.ID, ws.Name, ws.Effort, ws.Color, graph.ID,
			ws.CreatedAt.Format(timeFormat), now.Format(timeFormat))
		if err != nil {
			return fmt.Errorf("insert workstream %q: %w", ws.Name, err)
		}
	}

	return tx.Commit()
}

// DeleteGraph removes the graph; workstreams, shares and permissions cascade
// at the schema level. Cached chart blobs are the caller's concern.
func (r *LibsqlRepository) DeleteGraph(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM effort_graphs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *LibsqlRepository) ListWorkstreams(ctx context.Context, graphID string) ([]Workstream, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, effort, color, graph_id, created_at, updated_at
		FROM workstreams WHERE graph_id = ? ORDER BY created_at, id
	`, graphID)
	if err != nil {
		return nil, fmt.Errorf("query workstreams: %w", err)
	}
	defer rows.Close()

	var workstreams []Workstream
	for rows.Next() {
		var ws Workstream
		var createdAt, updatedAt string
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Effort, &ws.Color, &ws.GraphID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan workstream: %w", err)
		}
		ws.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		ws.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
		workstreams = append(workstreams, ws)
	}
	return workstreams, rows.Err()
}

func (r *LibsqlRepository) GrantPermission(ctx context.Context, p Permission) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO graph_permissions (graph_id, user_id, permission_level)
		VALUES (?, ?, ?)
		ON CONFLICT(graph_id, user_id) DO UPDATE SET permission_level = excluded.permission_level
	`, p.GraphID, p.UserID, string(p.Level))
	if err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	return nil
}

func (r *LibsqlRepository) GetPermission(ctx context.Context, graphID, userID string) (*Permission, error) {
	var p Permission
	var level string
	err := r.db.QueryRowContext(ctx, `
		SELECT graph_id, user_id, permission_level
		FROM graph_permissions WHERE graph_id = ? AND user_id = ?
	`, graphID, userID).Scan(&p.GraphID, &p.UserID, &level)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query permission: %w", err)
	}
	p.Level = PermissionLevel(level)
	return &p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGraph(row rowScanner) (*Graph, error) {
	var g Graph
	var description sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&g.ID, &g.Name, &description, &g.AuthorID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan graph: %w", err)
	}

	g.Description = description.String
	g.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	g.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	return &g, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
