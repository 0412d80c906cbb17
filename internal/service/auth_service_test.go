package service

import (
	"context"
	"testing"
	"time"

	"github.com/forsetihq/flowd/internal/domain"
	"github.com/forsetihq/flowd/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginTOTP(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(f.cfg, f.accounts, f.sessions)
	ctx := context.Background()

	secret, err := security.GenerateTOTPSecret()
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(&domain.Account{
		Username:   "forseti",
		IsAdmin:    true,
		TOTPSecret: secret,
	}))

	code, err := security.TOTPCode(secret, time.Now())
	require.NoError(t, err)

	sess, err := svc.LoginTOTP(ctx, code)
	require.NoError(t, err)
	assert.False(t, sess.NeedsUpdate)

	got, err := f.sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.AccountID, got.AccountID)

	_, err = svc.LoginTOTP(ctx, "000000")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestLoginTOTPCarriesMustUpdate(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(f.cfg, f.accounts, f.sessions)

	secret, err := security.GenerateTOTPSecret()
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(&domain.Account{
		Username:              "forseti",
		TOTPSecret:            secret,
		MustUpdateCredentials: true,
	}))

	code, err := security.TOTPCode(secret, time.Now())
	require.NoError(t, err)

	sess, err := svc.LoginTOTP(context.Background(), code)
	require.NoError(t, err)
	assert.True(t, sess.NeedsUpdate)
}

func TestLoginTOTPNoAccount(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(f.cfg, f.accounts, f.sessions)

	_, err := svc.LoginTOTP(context.Background(), "123456")
	assert.ErrorIs(t, err, ErrNotApplicable)
}

func TestLoginTOTPEnrollmentOutstanding(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(f.cfg, f.accounts, f.sessions)

	require.NoError(t, f.accounts.Create(&domain.Account{Username: "forseti"}))

	_, err := svc.LoginTOTP(context.Background(), "123456")
	assert.ErrorIs(t, err, ErrEnrollmentOutstanding)
}

func TestLoginDemo(t *testing.T) {
	f := newFixture(t)
	f.cfg.DemoMode = true
	svc := NewAuthService(f.cfg, f.accounts, f.sessions)
	ctx := context.Background()

	// The demo account is provisioned on first login.
	sess, err := svc.LoginTOTP(ctx, "246810")
	require.NoError(t, err)
	assert.False(t, sess.NeedsUpdate)

	account, err := f.accounts.First()
	require.NoError(t, err)
	assert.Equal(t, "forseti", account.Username)
	assert.True(t, account.IsAdmin)

	// Second login reuses it.
	_, err = svc.LoginTOTP(ctx, "246810")
	require.NoError(t, err)
	count, err := f.accounts.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = svc.LoginTOTP(ctx, "999999")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(f.cfg, f.accounts, f.sessions)
	ctx := context.Background()

	sess, err := f.sessions.Create(ctx, 1, false)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.ID))
	_, err = f.sessions.Get(ctx, sess.ID)
	assert.Error(t, err)
}
