package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
	"github.com/emiliopalmerini/effortmap/internal/database"
	"github.com/emiliopalmerini/effortmap/internal/effort"
	"github.com/emiliopalmerini/effortmap/internal/user"
)

// resolveTheme picks the chart theme: an explicit theme query wins,
// otherwise the preference of the user named by userId (falling back to the
// graph owner's), defaulting to dark.
func (s *Server) resolveTheme(r *http.Request, ownerID string) user.Theme {
	if t := r.URL.Query().Get("theme"); t != "" {
		return user.ParseTheme(t)
	}

	subject := r.URL.Query().Get("userId")
	if subject == "" {
		subject = ownerID
	}
	theme, err := s.users.GetTheme(r.Context(), subject)
	if err != nil {
		s.logger.Warn("reading theme preference failed", zap.String("user_id", subject), zap.Error(err))
		return user.ThemeDark
	}
	return theme
}

// serveChart runs the cache flow and writes the response: a redirect to the
// stored blob on a hit, the fresh bytes otherwise.
func (s *Server) serveChart(w http.ResponseWriter, r *http.Request, ownerID, graphID string, theme user.Theme, updatedAt time.Time, refresh bool, render func(context.Context) ([]byte, error), kind string) {
	result, err := s.cache.Fetch(r.Context(), ownerID, graphID, theme, updatedAt, refresh, render)
	if err != nil {
		s.logger.Error("chart fetch failed",
			zap.String("graph_id", graphID), zap.String("kind", kind), zap.Error(err))
		apperrors.Write(w, err)
		return
	}

	if !result.Cached {
		s.metrics.ChartRenders.Add(r.Context(), 1, metric.WithAttributes(
			attribute.String("renderer", kind),
			attribute.String("theme", string(theme)),
		))
	}

	if result.Cached {
		http.Redirect(w, r, "/charts/"+result.Key, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(result.Bytes)
}

// handleChartPNG serves the natively rendered pie for a graph.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	graph, err := database.WithRetry(r.Context(), 2, func() (*effort.Graph, error) {
		return s.graphs.GetGraphWithWorkstreams(r.Context(), r.PathValue("graphId"))
	})
	if err != nil {
		apperrors.Write(w, err)
		return
	}

	theme := s.resolveTheme(r, graph.AuthorID)
	refresh := r.URL.Query().Get("refresh") == "true"

	s.serveChart(w, r, graph.AuthorID, graph.ID, theme, graph.UpdatedAt, refresh, func(ctx context.Context) ([]byte, error) {
		return s.renderer.Render(graph, theme)
	}, "native")
}

// handleChartScreenshot serves a browser screenshot of the render page.
// Slack image blocks point here.
func (s *Server) handleChartScreenshot(w http.ResponseWriter, r *http.Request) {
	graphID := r.URL.Query().Get("graphId")
	if graphID == "" {
		apperrors.Write(w, apperrors.NewValidation("graphId is required"))
		return
	}

	graph, err := s.graphs.GetGraph(r.Context(), graphID)
	if err != nil {
		apperrors.Write(w, err)
		return
	}

	theme := s.resolveTheme(r, graph.AuthorID)
	refresh := r.URL.Query().Get("refresh") == "true"

	s.serveChart(w, r, graph.AuthorID, graph.ID, theme, graph.UpdatedAt, refresh, func(ctx context.Context) ([]byte, error) {
		return s.screenshots.Capture(ctx, graph.ID, theme)
	}, "screenshot")
}

type generateRequest struct {
	GraphID string   `json:"graphId"`
	Themes  []string `json:"themes"`
}

// handleChartGenerate pre-renders chart variants so the first viewer gets a
// cache hit. Defaults to both themes.
func (s *Server) handleChartGenerate(w http.ResponseWriter, r *http.Request, u *user.User) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GraphID == "" {
		apperrors.Write(w, apperrors.NewValidation("graphId is required"))
		return
	}

	graph, err := s.graphs.GetGraphWithWorkstreams(r.Context(), req.GraphID)
	if err != nil {
		apperrors.Write(w, err)
		return
	}

	themes := []user.Theme{user.ThemeLight, user.ThemeDark}
	if len(req.Themes) > 0 {
		themes = themes[:0]
		for _, t := range req.Themes {
			themes = append(themes, user.ParseTheme(t))
		}
	}

	keys := make([]string, 0, len(themes))
	for _, theme := range themes {
		result, err := s.cache.Fetch(r.Context(), graph.AuthorID, graph.ID, theme, graph.UpdatedAt, false,
			func(ctx context.Context) ([]byte, error) {
				return s.renderer.Render(graph, theme)
			})
		if err != nil {
			apperrors.Write(w, err)
			return
		}
		keys = append(keys, result.Key)
	}

	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

// handleChartInvalidate drops every cached blob for a graph, both themes.
func (s *Server) handleChartInvalidate(w http.ResponseWriter, r *http.Request, u *user.User) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GraphID == "" {
		apperrors.Write(w, apperrors.NewValidation("graphId is required"))
		return
	}

	graph, err := s.graphs.GetGraph(r.Context(), req.GraphID)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	// Evicting blobs is owner-only, like deleting the graph itself.
	if graph.AuthorID != u.ID {
		apperrors.Write(w, apperrors.ErrForbidden)
		return
	}

	if err := s.cache.Invalidate(graph.AuthorID, graph.ID); err != nil {
		s.logger.Error("invalidating chart cache failed", zap.String("graph_id", graph.ID), zap.Error(err))
		apperrors.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Warm renders and stores the screenshot variant for the graph owner's
// theme. Fired after modal submissions so the Slack image URL is already a
// cache hit when Slack fetches it.
func (s *Server) Warm(ctx context.Context, ownerID, graphID string) {
	graph, err := s.graphs.GetGraph(ctx, graphID)
	if err != nil {
		s.logger.Warn("warming chart cache failed", zap.String("graph_id", graphID), zap.Error(err))
		return
	}

	theme, err := s.users.GetTheme(ctx, ownerID)
	if err != nil {
		theme = user.ThemeDark
	}

	if _, err := s.cache.Fetch(ctx, ownerID, graphID, theme, graph.UpdatedAt, false,
		func(ctx context.Context) ([]byte, error) {
			return s.screenshots.Capture(ctx, graphID, theme)
		}); err != nil {
		s.logger.Warn("warming chart cache failed", zap.String("graph_id", graphID), zap.Error(err))
	}
}
