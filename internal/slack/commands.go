package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	slackapi "github.com/slack-go/slack"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
	"github.com/emiliopalmerini/effortmap/internal/config"
	"github.com/emiliopalmerini/effortmap/internal/effort"
	"github.com/emiliopalmerini/effortmap/internal/metrics"
	"github.com/emiliopalmerini/effortmap/internal/share"
	"github.com/emiliopalmerini/effortmap/internal/user"
)

// API is the subset of the Slack Web API the handlers call, satisfied by
// *slack.Client and by fakes in tests.
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
	OpenViewContext(ctx context.Context, triggerID string, view slackapi.ModalViewRequest) (*slackapi.ViewResponse, error)
}

// Handler serves the Slack webhook endpoints: slash commands, modal
// interactions and OAuth linking.
type Handler struct {
	cfg     config.Slack
	baseURL string
	api     API
	links   Repository
	users   user.Repository
	graphs  effort.Repository
	shares  share.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger

	screenshots Screenshotter
}

func NewHandler(
	cfg config.Slack,
	baseURL string,
	api API,
	links Repository,
	users user.Repository,
	graphs effort.Repository,
	shares share.Repository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		cfg:     cfg,
		baseURL: baseURL,
		api:     api,
		links:   links,
		users:   users,
		graphs:  graphs,
		shares:  shares,
		metrics: m,
		logger:  logger,
	}
}

const helpText = "*Effort App Commands:*\n" +
	"• `/effort list` - List all your efforts\n" +
	"• `/effort view [name]` - View a specific effort\n" +
	"• `/effort share [name]` - Share an effort to this channel\n" +
	"• `/effort new` - Create a new effort\n" +
	"• `/effort link` - Link your Slack account\n" +
	"• `/effort help` - Show this help message"

// HandleCommand is the slash-command webhook. Slack expects a prompt 200
// with a message payload or empty body, so every failure path answers with
// ephemeral text rather than an error status.
func (h *Handler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cmd, err := slackapi.SlashCommandParse(r)
	if err != nil {
		h.logger.Error("parsing slash command failed", zap.Error(err))
		writeEphemeral(w, "Sorry, something went wrong.")
		return
	}

	fields := strings.Fields(cmd.Text)
	subcommand := "help"
	if len(fields) > 0 {
		subcommand = fields[0]
	}
	argument := strings.Join(fields[1:], " ")

	h.metrics.SlackCommands.Add(ctx, 1, metric.WithAttributes(attribute.String("subcommand", subcommand)))

	// help and link are available regardless of link state.
	switch subcommand {
	case "help":
		writeEphemeral(w, helpText)
		return
	case "link":
		writeBlocks(w, slackapi.ResponseTypeEphemeral, LinkPromptBlocks(h.LinkURL(cmd.UserID)))
		return
	}

	link, err := h.links.GetBySlackUserID(ctx, cmd.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		writeBlocks(w, slackapi.ResponseTypeEphemeral, LinkPromptBlocks(h.LinkURL(cmd.UserID)))
		return
	}
	if err != nil {
		h.logger.Error("looking up slack link failed", zap.String("slack_user_id", cmd.UserID), zap.Error(err))
		writeEphemeral(w, "Sorry, something went wrong.")
		return
	}

	switch subcommand {
	case "list":
		h.handleList(ctx, w, link)
	case "view":
		h.handleView(ctx, w, link, argument)
	case "share":
		h.handleShare(ctx, w, link, argument)
	case "new":
		h.handleNew(ctx, w, cmd)
	default:
		writeEphemeral(w, helpText)
	}
}

func (h *Handler) handleList(ctx context.Context, w http.ResponseWriter, link *LinkedUser) {
	graphs, err := h.graphs.ListGraphsByAuthor(ctx, link.UserID)
	if err != nil {
		h.logger.Error("listing efforts failed", zap.String("user_id", link.UserID), zap.Error(err))
		writeEphemeral(w, "Sorry, something went wrong.")
		return
	}
	if len(graphs) == 0 {
		writeEphemeral(w, "You don't have any efforts yet. Use `/effort new` to create one.")
		return
	}
	writeBlocks(w, slackapi.ResponseTypeEphemeral, EffortListBlocks(graphs))
}

func (h *Handler) handleView(ctx context.Context, w http.ResponseWriter, link *LinkedUser, name string) {
	if name == "" {
		writeEphemeral(w, "Usage: `/effort view [name]`")
		return
	}

	graph, err := h.graphs.FindGraphByName(ctx, link.UserID, name)
	if errors.Is(err, apperrors.ErrNotFound) {
		writeEphemeral(w, fmt.Sprintf("No effort named %q found.", name))
		return
	}
	if err != nil {
		h.logger.Error("finding effort failed", zap.String("name", name), zap.Error(err))
		writeEphemeral(w, "Sorry, something went wrong.")
		return
	}

	writeBlocks(w, slackapi.ResponseTypeEphemeral, EffortBlocks(graph, h.ChartURL(graph.ID, link.UserID), ""))
}

func (h *Handler) handleShare(ctx context.Context, w http.ResponseWriter, link *LinkedUser, name string) {
	if name == "" {
		writeEphemeral(w, "Usage: `/effort share [name]`")
		return
	}

	graph, err := h.graphs.FindGraphByName(ctx, link.UserID, name)
	if errors.Is(err, apperrors.ErrNotFound) {
		writeEphemeral(w, fmt.Sprintf("No effort named %q found.", name))
		return
	}
	if err != nil {
		h.logger.Error("finding effort failed", zap.String("name", name), zap.Error(err))
		writeEphemeral(w, "Sorry, something went wrong.")
		return
	}

	s, err := h.shares.EnsureActive(ctx, graph.ID, link.UserID)
	if err != nil {
		h.logger.Error("ensuring share failed", zap.String("graph_id", graph.ID), zap.Error(err))
		writeEphemeral(w, "Sorry, something went wrong.")
		return
	}

	writeBlocks(w, slackapi.ResponseTypeInChannel, EffortBlocks(graph, h.ChartURL(graph.ID, link.UserID), h.ShareURL(s.ShareToken)))
}

func (h *Handler) handleNew(ctx context.Context, w http.ResponseWriter, cmd slackapi.SlashCommand) {
	if _, err := h.api.OpenViewContext(ctx, cmd.TriggerID, createEffortModal(cmd.ChannelID)); err != nil {
		h.logger.Error("opening modal failed", zap.Error(err))
		writeEphemeral(w, "Couldn't open the create dialog. Please try again.")
		return
	}
	// An empty 200 acknowledges the command; the modal is already open.
	w.WriteHeader(http.StatusOK)
}

// LinkURL starts the OAuth flow for a Slack user.
func (h *Handler) LinkURL(slackUserID string) string {
	return fmt.Sprintf("%s/api/slack/link?slack_user_id=%s", h.baseURL, url.QueryEscape(slackUserID))
}

// ChartURL points at the screenshot endpoint. The timestamp query busts
// Slack's own image cache; server-side caching is keyed separately.
func (h *Handler) ChartURL(graphID, userID string) string {
	return fmt.Sprintf("%s/api/chart/screenshot?graphId=%s&userId=%s&t=%d",
		h.baseURL, url.QueryEscape(graphID), url.QueryEscape(userID), time.Now().UnixMilli())
}

// ShareURL is the public page for a share token. The src marker lets the
// share page attribute the view to Slack.
func (h *Handler) ShareURL(token string) string {
	return fmt.Sprintf("%s/share/%s?src=slack", h.baseURL, url.PathEscape(token))
}

func writeEphemeral(w http.ResponseWriter, text string) {
	writeMsg(w, slackapi.Msg{ResponseType: slackapi.ResponseTypeEphemeral, Text: text})
}

func writeBlocks(w http.ResponseWriter, responseType string, blocks []slackapi.Block) {
	writeMsg(w, slackapi.Msg{
		ResponseType: responseType,
		Blocks:       slackapi.Blocks{BlockSet: blocks},
	})
}

func writeMsg(w http.ResponseWriter, msg slackapi.Msg) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(msg)
}
