package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	const secret = "0123456789abcdef0123456789abcdef"

	token, err := SignState("google", secret, time.Minute)
	require.NoError(t, err)

	assert.NoError(t, VerifyState(token, "google", secret))
	assert.ErrorIs(t, VerifyState(token, "microsoft", secret), ErrInvalidState)
	assert.ErrorIs(t, VerifyState(token, "google", "wrong-secret-wrong"), ErrInvalidState)
	assert.ErrorIs(t, VerifyState("garbage", "google", secret), ErrInvalidState)
}

func TestStateExpiry(t *testing.T) {
	const secret = "0123456789abcdef0123456789abcdef"

	token, err := SignState("google", secret, -time.Minute)
	require.NoError(t, err)
	assert.ErrorIs(t, VerifyState(token, "google", secret), ErrInvalidState)
}
