package share

import "time"

// Share grants public read access to one graph via a stable token URL. At
// most one active share exists per graph, enforced by a partial unique
// index on (graph_id) WHERE is_active.
type Share struct {
	ID             string
	GraphID        string
	ShareToken     string
	CreatedBy      string
	ViewCount      int64
	SlackViewCount int64
	LastViewedAt   *time.Time
	IsActive       bool
	CreatedAt      time.Time
}
