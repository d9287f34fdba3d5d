package slack_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsURLVerificationEchoesChallenge(t *testing.T) {
	f := newCommandFixture(t)

	body := `{"token":"tok","challenge":"abc123","type":"url_verification"}`
	req := httptest.NewRequest(http.MethodPost, "/api/slack/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.HandleEvents(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", rec.Body.String())
}

func TestEventsCallbackIsAcknowledged(t *testing.T) {
	f := newCommandFixture(t)

	body := `{"token":"tok","type":"event_callback","event":{"type":"app_mention"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/slack/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.HandleEvents(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestEventsRejectsGarbage(t *testing.T) {
	f := newCommandFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/slack/events", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	f.handler.HandleEvents(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
