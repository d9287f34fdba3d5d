package slack_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
	"github.com/emiliopalmerini/effortmap/internal/slack"
	"github.com/emiliopalmerini/effortmap/internal/testutil"
)

func TestUpsertAndGet(t *testing.T) {
	db := testutil.DB(t)
	userID := testutil.SeedUser(t, db, "a@example.com")
	repo := slack.NewLibsqlRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &slack.LinkedUser{
		UserID:      userID,
		SlackUserID: "U123",
		SlackTeamID: "T1",
	}))

	link, err := repo.GetBySlackUserID(ctx, "U123")
	require.NoError(t, err)
	assert.Equal(t, userID, link.UserID)
	assert.Equal(t, "T1", link.SlackTeamID)
	assert.False(t, link.LinkedAt.IsZero())

	byUser, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "U123", byUser.SlackUserID)
}

func TestLastLinkWins(t *testing.T) {
	db := testutil.DB(t)
	first := testutil.SeedUser(t, db, "first@example.com")
	second := testutil.SeedUser(t, db, "second@example.com")
	repo := slack.NewLibsqlRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &slack.LinkedUser{UserID: first, SlackUserID: "U123", SlackTeamID: "T1"}))
	require.NoError(t, repo.Upsert(ctx, &slack.LinkedUser{UserID: second, SlackUserID: "U123", SlackTeamID: "T1"}))

	link, err := repo.GetBySlackUserID(ctx, "U123")
	require.NoError(t, err)
	assert.Equal(t, second, link.UserID)

	_, err = repo.GetByUserID(ctx, first)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "old mapping is gone")
}

func TestUnlink(t *testing.T) {
	db := testutil.DB(t)
	userID := testutil.SeedUser(t, db, "a@example.com")
	repo := slack.NewLibsqlRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &slack.LinkedUser{UserID: userID, SlackUserID: "U123", SlackTeamID: "T1"}))
	require.NoError(t, repo.Unlink(ctx, "U123"))

	_, err := repo.GetBySlackUserID(ctx, "U123")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
