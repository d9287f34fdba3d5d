package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	slackapi "github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
	"github.com/emiliopalmerini/effortmap/internal/effort"
)

// Screenshotter warms the chart cache after a graph changes. The web layer
// provides the real implementation.
type Screenshotter interface {
	Warm(ctx context.Context, ownerID, graphID string)
}

// SetScreenshotter wires in the cache warmer. Optional; without it created
// efforts render their chart on first view instead.
func (h *Handler) SetScreenshotter(s Screenshotter) {
	h.screenshots = s
}

// HandleInteraction is the interactivity webhook. Only the create-effort
// modal submission is handled; everything else is acknowledged and dropped.
func (h *Handler) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var callback slackapi.InteractionCallback
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &callback); err != nil {
		h.logger.Error("parsing interaction payload failed", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if callback.Type != slackapi.InteractionTypeViewSubmission || callback.View.CallbackID != createEffortCallbackID {
		w.WriteHeader(http.StatusOK)
		return
	}

	link, err := h.links.GetBySlackUserID(ctx, callback.User.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		writeSubmissionErrors(w, map[string]string{
			effortNameBlockID: "Your Slack account is not linked. Run /effort link first.",
		})
		return
	}
	if err != nil {
		h.logger.Error("looking up slack link failed", zap.String("slack_user_id", callback.User.ID), zap.Error(err))
		writeSubmissionErrors(w, map[string]string{effortNameBlockID: "Something went wrong. Please try again."})
		return
	}

	if callback.View.State == nil {
		writeSubmissionErrors(w, map[string]string{effortNameBlockID: "Something went wrong. Please try again."})
		return
	}
	values := callback.View.State.Values
	name := strings.TrimSpace(values[effortNameBlockID][effortNameActionID].Value)
	workstreamsText := values[workstreamsBlockID][workstreamsActionID].Value
	description := strings.TrimSpace(values[descriptionBlockID][descriptionActionID].Value)

	if name == "" {
		writeSubmissionErrors(w, map[string]string{effortNameBlockID: "Name is required."})
		return
	}

	parsed := effort.ParseWorkstreams(workstreamsText)
	if len(parsed.Errors) > 0 {
		writeSubmissionErrors(w, map[string]string{workstreamsBlockID: strings.Join(parsed.Errors, " ")})
		return
	}
	if len(parsed.Workstreams) == 0 {
		writeSubmissionErrors(w, map[string]string{workstreamsBlockID: "Enter at least one workstream as: name, effort"})
		return
	}

	graph := &effort.Graph{
		Name:        name,
		Description: description,
		AuthorID:    link.UserID,
		Workstreams: parsed.Workstreams,
	}
	if err := h.graphs.CreateGraph(ctx, graph); err != nil {
		h.logger.Error("creating effort from modal failed", zap.String("user_id", link.UserID), zap.Error(err))
		writeSubmissionErrors(w, map[string]string{effortNameBlockID: "Couldn't save the effort. Please try again."})
		return
	}

	// The modal must close within Slack's response window. Pre-rendering
	// the chart and announcing in the channel happen after the ack.
	channelID := callback.View.PrivateMetadata
	go h.announceCreated(graph, link, channelID)

	writeViewResponse(w, slackapi.NewClearViewSubmissionResponse())
}

func (h *Handler) announceCreated(graph *effort.Graph, link *LinkedUser, channelID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if h.screenshots != nil {
		h.screenshots.Warm(ctx, link.UserID, graph.ID)
	}

	if channelID == "" {
		return
	}
	blocks := EffortBlocks(graph, h.ChartURL(graph.ID, link.UserID), "")
	if _, _, err := h.api.PostMessageContext(ctx, channelID,
		slackapi.MsgOptionBlocks(blocks...),
		slackapi.MsgOptionText("New effort: "+graph.Name, false),
	); err != nil {
		h.logger.Error("posting created effort failed",
			zap.String("channel_id", channelID), zap.String("graph_id", graph.ID), zap.Error(err))
	}
}

func writeSubmissionErrors(w http.ResponseWriter, errs map[string]string) {
	writeViewResponse(w, slackapi.NewErrorsViewSubmissionResponse(errs))
}

func writeViewResponse(w http.ResponseWriter, resp *slackapi.ViewSubmissionResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
