package slack

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"
)

// HandleEvents is the Events API webhook. Slack posts a url_verification
// challenge here when the endpoint is configured; it must be echoed back
// before Slack enables event delivery. Everything else is acknowledged,
// since no event subscriptions drive behavior.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("reading event body failed", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// The signature middleware already authenticated the request.
	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		h.logger.Error("parsing event payload failed", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if event.Type == slackevents.URLVerification {
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			h.logger.Error("parsing url verification challenge failed", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(challenge.Challenge))
		return
	}

	w.WriteHeader(http.StatusOK)
}
