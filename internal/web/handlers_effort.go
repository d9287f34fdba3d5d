package web

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
	"github.com/emiliopalmerini/effortmap/internal/effort"
	"github.com/emiliopalmerini/effortmap/internal/user"
)

type workstreamPayload struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Effort float64 `json:"effort"`
	Color  string  `json:"color,omitempty"`
}

type effortPayload struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	AuthorID    string              `json:"authorId"`
	Workstreams []workstreamPayload `json:"workstreams"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type effortRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Workstreams []workstreamPayload `json:"workstreams"`
	// Text is the line-oriented alternative to Workstreams: "name, effort"
	// per line, as typed into the Slack modal.
	Text string `json:"text"`
}

func toPayload(g *effort.Graph) effortPayload {
	p := effortPayload{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		AuthorID:    g.AuthorID,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
		Workstreams: make([]workstreamPayload, len(g.Workstreams)),
	}
	for i, ws := range g.Workstreams {
		p.Workstreams[i] = workstreamPayload{ID: ws.ID, Name: ws.Name, Effort: ws.Effort, Color: ws.Color}
	}
	return p
}

// parseEffortRequest validates the body and returns the workstreams to
// store. Either the structured list or the text form must yield between one
// and ten valid workstreams.
func parseEffortRequest(r *http.Request) (*effortRequest, []effort.Workstream, error) {
	var req effortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, apperrors.NewValidation("invalid JSON body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, nil, apperrors.NewValidation("name is required")
	}

	if req.Text != "" {
		parsed := effort.ParseWorkstreams(req.Text)
		if len(parsed.Errors) > 0 {
			return nil, nil, &apperrors.ValidationError{Messages: parsed.Errors}
		}
		if len(parsed.Workstreams) == 0 {
			return nil, nil, apperrors.NewValidation("at least one workstream is required")
		}
		return &req, parsed.Workstreams, nil
	}

	if len(req.Workstreams) == 0 {
		return nil, nil, apperrors.NewValidation("at least one workstream is required")
	}
	if len(req.Workstreams) > effort.MaxWorkstreams {
		return nil, nil, apperrors.NewValidation("too many workstreams (max %d)", effort.MaxWorkstreams)
	}

	workstreams := make([]effort.Workstream, len(req.Workstreams))
	for i, ws := range req.Workstreams {
		name := strings.TrimSpace(ws.Name)
		if name == "" {
			return nil, nil, apperrors.NewValidation("workstream %d: name is required", i+1)
		}
		if ws.Effort < 0 || math.IsNaN(ws.Effort) || math.IsInf(ws.Effort, 0) {
			return nil, nil, apperrors.NewValidation("workstream %d: effort must be a non-negative number", i+1)
		}
		color := ws.Color
		if color == "" {
			color = effort.Palette[i%len(effort.Palette)]
		}
		workstreams[i] = effort.Workstream{Name: name, Effort: ws.Effort, Color: color}
	}
	return &req, workstreams, nil
}

func (s *Server) handleListEfforts(w http.ResponseWriter, r *http.Request, u *user.User) {
	graphs, err := s.graphs.ListGraphsByAuthor(r.Context(), u.ID)
	if err != nil {
		s.logger.Error("listing efforts failed", zap.String("user_id", u.ID), zap.Error(err))
		apperrors.Write(w, err)
		return
	}

	payloads := make([]effortPayload, len(graphs))
	for i := range graphs {
		payloads[i] = toPayload(&graphs[i])
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleCreateEffort(w http.ResponseWriter, r *http.Request, u *user.User) {
	req, workstreams, err := parseEffortRequest(r)
	if err != nil {
		apperrors.Write(w, err)
		return
	}

	graph := &effort.Graph{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		AuthorID:    u.ID,
		Workstreams: workstreams,
	}
	if err := s.graphs.CreateGraph(r.Context(), graph); err != nil {
		s.logger.Error("creating effort failed", zap.String("user_id", u.ID), zap.Error(err))
		apperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPayload(graph))
}

func (s *Server) handleGetEffort(w http.ResponseWriter, r *http.Request, u *user.User) {
	graph, err := s.loadGraph(r, u, false)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayload(graph))
}

func (s *Server) handleUpdateEffort(w http.ResponseWriter, r *http.Request, u *user.User) {
	graph, err := s.loadGraph(r, u, true)
	if err != nil {
		apperrors.Write(w, err)
		return
	}

	req, workstreams, err := parseEffortRequest(r)
	if err != nil {
		apperrors.Write(w, err)
		return
	}

	graph.Name = req.Name
	graph.Description = strings.TrimSpace(req.Description)
	graph.Workstreams = workstreams
	if err := s.graphs.UpdateGraph(r.Context(), graph); err != nil {
		s.logger.Error("updating effort failed", zap.String("graph_id", graph.ID), zap.Error(err))
		apperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPayload(graph))
}

func (s *Server) handleDeleteEffort(w http.ResponseWriter, r *http.Request, u *user.User) {
	graph, err := s.graphs.GetGraph(r.Context(), r.PathValue("graphId"))
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	// Deleting is owner-only; editors may change content but not remove it.
	if graph.AuthorID != u.ID {
		apperrors.Write(w, apperrors.ErrForbidden)
		return
	}

	if err := s.graphs.DeleteGraph(r.Context(), graph.ID); err != nil {
		s.logger.Error("deleting effort failed", zap.String("graph_id", graph.ID), zap.Error(err))
		apperrors.Write(w, err)
		return
	}
	if err := s.cache.Invalidate(graph.AuthorID, graph.ID); err != nil {
		s.logger.Warn("removing chart blobs failed", zap.String("graph_id", graph.ID), zap.Error(err))
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShareEffort(w http.ResponseWriter, r *http.Request, u *user.User) {
	graph, err := s.loadGraph(r, u, true)
	if err != nil {
		apperrors.Write(w, err)
		return
	}

	sh, err := s.shares.EnsureActive(r.Context(), graph.ID, u.ID)
	if err != nil {
		s.logger.Error("ensuring share failed", zap.String("graph_id", graph.ID), zap.Error(err))
		apperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"shareToken": sh.ShareToken,
		"url":        "/share/" + sh.ShareToken,
	})
}

// loadGraph fetches the graph from the path and enforces access: authors
// always pass, other users need a permission row (editor for writes).
func (s *Server) loadGraph(r *http.Request, u *user.User, write bool) (*effort.Graph, error) {
	graph, err := s.graphs.GetGraphWithWorkstreams(r.Context(), r.PathValue("graphId"))
	if err != nil {
		return nil, err
	}
	if graph.AuthorID == u.ID {
		return graph, nil
	}

	perm, err := s.graphs.GetPermission(r.Context(), graph.ID, u.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if write && perm.Level != effort.PermissionEditor {
		return nil, apperrors.ErrForbidden
	}
	return graph, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
