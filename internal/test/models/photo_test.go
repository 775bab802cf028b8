package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stamp-match-backend/internal/models"
)

func TestPhotoStatusTransitions(t *testing.T) {
	allowed := []struct {
		from, to models.PhotoStatus
	}{
		{models.StatusUploaded, models.StatusMatched},
		{models.StatusUploaded, models.StatusPending},
		{models.StatusMatched, models.StatusConfirmed},
		{models.StatusMatched, models.StatusPending},
		{models.StatusMatched, models.StatusRejected},
		{models.StatusRejected, models.StatusPending},
		{models.StatusPending, models.StatusMatched},
		{models.StatusPending, models.StatusConfirmed},
	}
	for _, tc := range allowed {
		next, err := tc.from.Transition(tc.to)
		require.NoError(t, err, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, tc.to, next)
	}
}

func TestPhotoStatusConfirmedIsTerminal(t *testing.T) {
	for _, to := range []models.PhotoStatus{
		models.StatusUploaded,
		models.StatusMatched,
		models.StatusPending,
		models.StatusRejected,
	} {
		assert.False(t, models.StatusConfirmed.CanTransition(to))
	}
}

func TestPhotoStatusInvalidTransition(t *testing.T) {
	got, err := models.StatusUploaded.Transition(models.StatusConfirmed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid photo status transition")

	// The original status is handed back so callers keep a valid state.
	assert.Equal(t, models.StatusUploaded, got)
}

func TestPhotoStatusRejectedReentersViaPending(t *testing.T) {
	next, err := models.StatusRejected.Transition(models.StatusPending)
	require.NoError(t, err)

	next, err = next.Transition(models.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, next)
}
