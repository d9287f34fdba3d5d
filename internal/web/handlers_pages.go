package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
	"github.com/emiliopalmerini/effortmap/internal/database"
	"github.com/emiliopalmerini/effortmap/internal/share"
	"github.com/emiliopalmerini/effortmap/internal/user"
	"github.com/emiliopalmerini/effortmap/internal/web/templates"
)

// handleSharePage serves the public view behind a share token and records
// the view. A src=slack query attributes it to the Slack counter.
func (s *Server) handleSharePage(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	sh, err := database.WithRetry(r.Context(), 2, func() (*share.Share, error) {
		return s.shares.GetByToken(r.Context(), token)
	})
	if err != nil {
		apperrors.Write(w, err)
		return
	}

	graph, err := s.graphs.GetGraphWithWorkstreams(r.Context(), sh.GraphID)
	if err != nil {
		apperrors.Write(w, err)
		return
	}

	fromSlack := r.URL.Query().Get("src") == "slack"
	if err := s.shares.RecordView(r.Context(), token, fromSlack); err != nil {
		s.logger.Warn("recording share view failed", zap.String("token", token), zap.Error(err))
	}

	theme := s.resolveTheme(r, graph.AuthorID)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.SharePage(graph, theme, int(sh.ViewCount)+1).Render(r.Context(), w); err != nil {
		s.logger.Error("rendering share page failed", zap.String("token", token), zap.Error(err))
	}
}

// handleRenderPage serves the bare chart page the screenshot renderer
// captures. Public by graph id, like the chart endpoints.
func (s *Server) handleRenderPage(w http.ResponseWriter, r *http.Request) {
	graph, err := s.graphs.GetGraphWithWorkstreams(r.Context(), r.PathValue("graphId"))
	if err != nil {
		apperrors.Write(w, err)
		return
	}

	theme := user.ParseTheme(r.URL.Query().Get("theme"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.RenderPage(graph, theme).Render(r.Context(), w); err != nil {
		s.logger.Error("rendering chart page failed", zap.String("graph_id", graph.ID), zap.Error(err))
	}
}
