package repository

import (
	"testing"
	"time"

	"github.com/forsetihq/flowd/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeRedeemOnce(t *testing.T) {
	repo := NewChallengeRepository(testStore(t))
	now := time.Now().UTC()

	require.NoError(t, repo.Create(&domain.LoginChallenge{
		Token:     "tok-1",
		AccountID: 1,
		ExpiresAt: now.Add(5 * time.Minute),
	}))

	require.NoError(t, repo.Redeem("tok-1", now))

	// The second redemption finds no unredeemed row.
	assert.ErrorIs(t, repo.Redeem("tok-1", now), ErrChallengeNotFound)

	c, err := repo.FindByToken("tok-1")
	require.NoError(t, err)
	assert.True(t, c.Redeemed())
}

func TestChallengeRedeemExpired(t *testing.T) {
	repo := NewChallengeRepository(testStore(t))
	now := time.Now().UTC()

	require.NoError(t, repo.Create(&domain.LoginChallenge{
		Token:     "tok-old",
		AccountID: 1,
		ExpiresAt: now.Add(-time.Second),
	}))

	assert.ErrorIs(t, repo.Redeem("tok-old", now), ErrChallengeNotFound)
}

func TestChallengeFindByToken(t *testing.T) {
	repo := NewChallengeRepository(testStore(t))

	_, err := repo.FindByToken("missing")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestChallengePurgeExpired(t *testing.T) {
	repo := NewChallengeRepository(testStore(t))
	now := time.Now().UTC()

	require.NoError(t, repo.Create(&domain.LoginChallenge{Token: "live", AccountID: 1, ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, repo.Create(&domain.LoginChallenge{Token: "dead", AccountID: 1, ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, repo.Create(&domain.LoginChallenge{Token: "used", AccountID: 1, ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, repo.Redeem("used", now))

	n, err := repo.PurgeExpired(now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = repo.FindByToken("live")
	assert.NoError(t, err)
	_, err = repo.FindByToken("dead")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}
