package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/effortmap/internal/database"
)

func TestIsStreamError(t *testing.T) {
	assert.False(t, database.IsStreamError(nil))
	assert.False(t, database.IsStreamError(errors.New("syntax error")))
	assert.True(t, database.IsStreamError(errors.New("hrana: stream not found")))
}

func TestWithRetryRecoversFromStreamErrors(t *testing.T) {
	calls := 0
	result, err := database.WithRetry(context.Background(), 2, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("stream not found")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsOnOtherErrors(t *testing.T) {
	calls := 0
	_, err := database.WithRetry(context.Background(), 5, func() (int, error) {
		calls++
		return 0, errors.New("constraint violation")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	_, err := database.WithRetry(context.Background(), 2, func() (int, error) {
		calls++
		return 0, errors.New("stream not found")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestNewOpensInMemoryDatabase(t *testing.T) {
	db, err := database.New(":memory:", "")
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}
