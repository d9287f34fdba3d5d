package slack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitModal(t *testing.T, f *commandFixture, slackUserID, name, workstreams, description string) *httptest.ResponseRecorder {
	t.Helper()

	callback := slackapi.InteractionCallback{
		Type: slackapi.InteractionTypeViewSubmission,
		User: slackapi.User{ID: slackUserID},
	}
	callback.View.CallbackID = "create_effort"
	callback.View.PrivateMetadata = "C1"
	callback.View.State = &slackapi.ViewState{
		Values: map[string]map[string]slackapi.BlockAction{
			"effort_name_block": {"effort_name_input": {Value: name}},
			"workstreams_block": {"workstreams_input": {Value: workstreams}},
			"description_block": {"description_input": {Value: description}},
		},
	}

	payload, err := json.Marshal(callback)
	require.NoError(t, err)

	form := url.Values{}
	form.Set("payload", string(payload))
	req := httptest.NewRequest(http.MethodPost, "/api/slack/interactions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.HandleInteraction(rec, req)
	return rec
}

func TestModalSubmissionCreatesEffort(t *testing.T) {
	f := newCommandFixture(t)
	f.link(t, "U1")

	rec := submitModal(t, f, "U1", "Q3 Priorities", "Frontend, 60\nBackend, 40", "quarterly split")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "clear", resp["response_action"])

	graph, err := f.graphs.FindGraphByName(context.Background(), f.userID, "Q3 Priorities")
	require.NoError(t, err)
	full, err := f.graphs.GetGraphWithWorkstreams(context.Background(), graph.ID)
	require.NoError(t, err)
	require.Len(t, full.Workstreams, 2)
	assert.InDelta(t, 60, full.Workstreams[0].Effort, 0.001)
}

func TestModalSubmissionRejectsBadWorkstreams(t *testing.T) {
	f := newCommandFixture(t)
	f.link(t, "U1")

	rec := submitModal(t, f, "U1", "Broken", "no comma here", "")

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "errors", resp["response_action"])
	errs := resp["errors"].(map[string]any)
	assert.Contains(t, errs["workstreams_block"], "Line 1")

	_, err := f.graphs.FindGraphByName(context.Background(), f.userID, "Broken")
	assert.Error(t, err, "nothing persisted on validation failure")
}

func TestModalSubmissionRequiresName(t *testing.T) {
	f := newCommandFixture(t)
	f.link(t, "U1")

	rec := submitModal(t, f, "U1", "   ", "A, 1", "")

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "errors", resp["response_action"])
}

func TestModalSubmissionUnlinkedUser(t *testing.T) {
	f := newCommandFixture(t)

	rec := submitModal(t, f, "U-unlinked", "X", "A, 1", "")

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "errors", resp["response_action"])
}

func TestModalSubmissionWithoutState(t *testing.T) {
	f := newCommandFixture(t)
	f.link(t, "U1")

	callback := slackapi.InteractionCallback{
		Type: slackapi.InteractionTypeViewSubmission,
		User: slackapi.User{ID: "U1"},
	}
	callback.View.CallbackID = "create_effort"

	payload, err := json.Marshal(callback)
	require.NoError(t, err)

	form := url.Values{}
	form.Set("payload", string(payload))
	req := httptest.NewRequest(http.MethodPost, "/api/slack/interactions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.HandleInteraction(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "errors", resp["response_action"])
}

func TestNonSubmissionInteractionsAreAcknowledged(t *testing.T) {
	f := newCommandFixture(t)

	callback := slackapi.InteractionCallback{Type: slackapi.InteractionTypeBlockActions}
	payload, err := json.Marshal(callback)
	require.NoError(t, err)

	form := url.Values{}
	form.Set("payload", string(payload))
	req := httptest.NewRequest(http.MethodPost, "/api/slack/interactions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.HandleInteraction(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
