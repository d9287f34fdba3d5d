package slack

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	slackapi "github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
)

const (
	oauthAuthorizeURL = "https://slack.com/oauth/v2/authorize"
	oauthUserScopes   = "identity.basic,identity.email"

	pendingLinkCookie = "slack_oauth_data"
)

// HandleLink redirects a Slack user into the OAuth consent flow. The Slack
// user ID travels in the state parameter so the callback can tie the
// resulting identity back to the workspace user that asked.
func (h *Handler) HandleLink(w http.ResponseWriter, r *http.Request) {
	slackUserID := r.URL.Query().Get("slack_user_id")
	if slackUserID == "" {
		apperrors.Write(w, apperrors.NewValidation("slack_user_id is required"))
		return
	}

	q := url.Values{}
	q.Set("client_id", h.cfg.ClientID)
	q.Set("user_scope", oauthUserScopes)
	q.Set("state", slackUserID)
	q.Set("redirect_uri", h.redirectURI())

	http.Redirect(w, r, oauthAuthorizeURL+"?"+q.Encode(), http.StatusFound)
}

// HandleOAuthCallback completes the link: exchanges the code, reads the
// user's Slack identity and upserts the mapping. Re-linking the same Slack
// user to a different account replaces the old mapping.
func (h *Handler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	slackUserID := r.URL.Query().Get("state")
	if code == "" || slackUserID == "" {
		apperrors.Write(w, apperrors.NewValidation("missing code or state"))
		return
	}

	resp, err := slackapi.GetOAuthV2ResponseContext(ctx, http.DefaultClient,
		h.cfg.ClientID, h.cfg.ClientSecret, code, h.redirectURI())
	if err != nil {
		h.logger.Error("oauth exchange failed", zap.Error(err))
		apperrors.Write(w, apperrors.Upstream("slack", err))
		return
	}

	identity, err := slackapi.New(resp.AuthedUser.AccessToken).GetUserIdentityContext(ctx)
	if err != nil {
		h.logger.Error("fetching slack identity failed", zap.Error(err))
		apperrors.Write(w, apperrors.Upstream("slack", err))
		return
	}

	u, err := h.users.FindOrCreateByEmail(ctx, identity.User.Email)
	if err != nil {
		h.logger.Error("resolving account for slack identity failed",
			zap.String("email", identity.User.Email), zap.Error(err))
		apperrors.Write(w, err)
		return
	}

	link := &LinkedUser{
		UserID:           u.ID,
		SlackUserID:      slackUserID,
		SlackTeamID:      identity.Team.ID,
		SlackAccessToken: resp.AuthedUser.AccessToken,
	}
	if err := h.links.Upsert(ctx, link); err != nil {
		h.logger.Error("saving slack link failed", zap.String("slack_user_id", slackUserID), zap.Error(err))
		apperrors.Write(w, err)
		return
	}

	// Lets the browser-side poller on the confirmation page spot the fresh
	// link without re-authenticating.
	http.SetCookie(w, &http.Cookie{
		Name:     pendingLinkCookie,
		Value:    slackUserID,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("slack account linked",
		zap.String("slack_user_id", slackUserID), zap.String("user_id", u.ID))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, linkedPage)
}

// HandleCheckLink reports whether a Slack user has a linked account.
func (h *Handler) HandleCheckLink(w http.ResponseWriter, r *http.Request) {
	slackUserID := r.URL.Query().Get("slack_user_id")
	if slackUserID == "" {
		if c, err := r.Cookie(pendingLinkCookie); err == nil {
			slackUserID = c.Value
		}
	}
	if slackUserID == "" {
		apperrors.Write(w, apperrors.NewValidation("slack_user_id is required"))
		return
	}

	_, err := h.links.GetBySlackUserID(r.Context(), slackUserID)
	linked := err == nil
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		apperrors.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"linked": linked})
}

func (h *Handler) redirectURI() string {
	return h.baseURL + "/api/slack/oauth/callback"
}

const linkedPage = `<!DOCTYPE html>
<html>
<head><title>Slack linked</title></head>
<body>
<h1>Slack account linked</h1>
<p>You can close this window and return to Slack.</p>
</body>
</html>
`
