package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/effortmap/internal/chart"
	"github.com/emiliopalmerini/effortmap/internal/effort"
	"github.com/emiliopalmerini/effortmap/internal/metrics"
	"github.com/emiliopalmerini/effortmap/internal/share"
	"github.com/emiliopalmerini/effortmap/internal/slack"
	"github.com/emiliopalmerini/effortmap/internal/storage"
	"github.com/emiliopalmerini/effortmap/internal/user"
)

type Server struct {
	router      *http.ServeMux
	port        int
	logger      *zap.Logger
	metrics     *metrics.Metrics
	users       user.Repository
	graphs      effort.Repository
	shares      share.Repository
	store       *storage.FSStore
	cache       *chart.Cache
	renderer    *chart.PieRenderer
	screenshots *chart.Screenshotter
	slack       *slack.Handler
}

func NewServer(
	port int,
	logger *zap.Logger,
	m *metrics.Metrics,
	users user.Repository,
	graphs effort.Repository,
	shares share.Repository,
	store *storage.FSStore,
	cache *chart.Cache,
	renderer *chart.PieRenderer,
	screenshots *chart.Screenshotter,
	slackHandler *slack.Handler,
) *Server {
	s := &Server{
		router:      http.NewServeMux(),
		port:        port,
		logger:      logger,
		metrics:     m,
		users:       users,
		graphs:      graphs,
		shares:      shares,
		store:       store,
		cache:       cache,
		renderer:    renderer,
		screenshots: screenshots,
		slack:       slackHandler,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Rendered chart blobs; cache hits redirect here.
	s.router.Handle("GET /charts/",
		http.StripPrefix("/charts/", http.FileServer(http.Dir(s.store.Root()))))

	// Health check
	s.router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Effort CRUD
	s.router.HandleFunc("GET /api/efforts", s.requireUser(s.handleListEfforts))
	s.router.HandleFunc("POST /api/efforts", s.requireUser(s.handleCreateEffort))
	s.router.HandleFunc("GET /api/effort/{graphId}", s.requireUser(s.handleGetEffort))
	s.router.HandleFunc("PUT /api/effort/{graphId}", s.requireUser(s.handleUpdateEffort))
	s.router.HandleFunc("DELETE /api/effort/{graphId}", s.requireUser(s.handleDeleteEffort))
	s.router.HandleFunc("POST /api/effort/{graphId}/share", s.requireUser(s.handleShareEffort))

	// Public pages
	s.router.HandleFunc("GET /share/{token}", s.handleSharePage)
	s.router.HandleFunc("GET /render/{graphId}", s.handleRenderPage)

	// Charts. Public by graph id so Slack can embed image URLs without auth.
	s.router.HandleFunc("GET /api/chart/screenshot", s.handleChartScreenshot)
	s.router.HandleFunc("GET /api/chart/{graphId}", s.handleChartPNG)
	s.router.HandleFunc("POST /api/chart/generate", s.requireUser(s.handleChartGenerate))
	s.router.HandleFunc("POST /api/chart/invalidate", s.requireUser(s.handleChartInvalidate))

	// Slack webhooks and OAuth
	s.router.Handle("POST /api/slack/commands",
		s.slack.VerifySignature(http.HandlerFunc(s.slack.HandleCommand)))
	s.router.Handle("POST /api/slack/interactions",
		s.slack.VerifySignature(http.HandlerFunc(s.slack.HandleInteraction)))
	s.router.Handle("POST /api/slack/events",
		s.slack.VerifySignature(http.HandlerFunc(s.slack.HandleEvents)))
	s.router.HandleFunc("GET /api/slack/link", s.slack.HandleLink)
	s.router.HandleFunc("GET /api/slack/oauth/callback", s.slack.HandleOAuthCallback)
	s.router.HandleFunc("GET /api/slack/check-link", s.slack.HandleCheckLink)
}

// Handler exposes the routed mux for tests.
func (s *Server) Handler() http.Handler {
	return s.requestObserver(s.router)
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting server", zap.Int("port", s.port))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown", zap.Error(err))
		}
	}()

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
