package effort

import "time"

// Graph is a named collection of workstreams owned by one user.
type Graph struct {
	ID          string
	Name        string
	Description string
	AuthorID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Workstreams []Workstream
}

// Workstream is a named allocation with a raw effort magnitude and a display
// color. The magnitude is meaningful only relative to the sum across its
// graph; consumers renormalize at read time with Normalize.
type Workstream struct {
	ID        string
	Name      string
	Effort    float64
	Color     string
	GraphID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PermissionLevel grants non-owner access to a graph.
type PermissionLevel string

const (
	PermissionViewer PermissionLevel = "viewer"
	PermissionEditor PermissionLevel = "editor"
)

// Permission links a user to a graph they don't own.
type Permission struct {
	GraphID string
	UserID  string
	Level   PermissionLevel
}
