package service

import (
	"context"
	"testing"
	"time"

	"github.com/forsetihq/flowd/internal/domain"
	"github.com/forsetihq/flowd/internal/security"
	"github.com/forsetihq/flowd/internal/sms"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	startErr   error
	checkErr   error
	approved   bool
	startCalls int
	lastPhone  string
}

func (v *fakeVerifier) StartVerification(_ context.Context, phone string) error {
	v.startCalls++
	v.lastPhone = phone
	return v.startErr
}

func (v *fakeVerifier) CheckVerification(_ context.Context, phone, code string) (bool, error) {
	v.lastPhone = phone
	return v.approved, v.checkErr
}

func seedSMSAccount(t *testing.T, f *fixture) *domain.Account {
	t.Helper()
	hash, err := security.HashPassword("hunter2")
	require.NoError(t, err)
	account := &domain.Account{
		Username:     "ada",
		PasswordHash: hash,
		PhoneNumber:  "5551230001",
		CountryCode:  "1",
	}
	require.NoError(t, f.accounts.Create(account))
	return account
}

func TestSMSStart(t *testing.T) {
	f := newFixture(t)
	seedSMSAccount(t, f)
	verifier := &fakeVerifier{approved: true}
	svc := NewSMSAuthService(f.cfg, f.accounts, f.challenges, f.sessions, verifier)
	ctx := context.Background()

	info, err := svc.Start(ctx, "ada", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, info.Token)
	assert.Equal(t, "••••••0001", info.MaskedPhone)
	assert.Equal(t, "+15551230001", verifier.lastPhone)
	assert.WithinDuration(t, time.Now().Add(f.cfg.ChallengeTTL), info.ExpiresAt, 5*time.Second)
}

func TestSMSStartBadCredentials(t *testing.T) {
	f := newFixture(t)
	seedSMSAccount(t, f)
	verifier := &fakeVerifier{}
	svc := NewSMSAuthService(f.cfg, f.accounts, f.challenges, f.sessions, verifier)
	ctx := context.Background()

	_, err := svc.Start(ctx, "nobody", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Start(ctx, "ada", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Zero(t, verifier.startCalls, "no dispatch without a password match")
}

func TestSMSStartProviderDown(t *testing.T) {
	f := newFixture(t)
	seedSMSAccount(t, f)
	verifier := &fakeVerifier{startErr: sms.ErrProviderUnavailable}
	svc := NewSMSAuthService(f.cfg, f.accounts, f.challenges, f.sessions, verifier)

	_, err := svc.Start(context.Background(), "ada", "hunter2")
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	// A provider failure must not leave a redeemable challenge behind.
	n, err := f.challenges.PurgeExpired(time.Now().Add(f.cfg.ChallengeTTL + time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSMSCompleteRedeemsOnce(t *testing.T) {
	f := newFixture(t)
	seedSMSAccount(t, f)
	verifier := &fakeVerifier{approved: true}
	svc := NewSMSAuthService(f.cfg, f.accounts, f.challenges, f.sessions, verifier)
	ctx := context.Background()

	info, err := svc.Start(ctx, "ada", "hunter2")
	require.NoError(t, err)

	sess, err := svc.Complete(ctx, info.Token, "123456")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	_, err = svc.Complete(ctx, info.Token, "123456")
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
}

func TestSMSCompleteWrongCode(t *testing.T) {
	f := newFixture(t)
	seedSMSAccount(t, f)
	verifier := &fakeVerifier{approved: false}
	svc := NewSMSAuthService(f.cfg, f.accounts, f.challenges, f.sessions, verifier)
	ctx := context.Background()

	info, err := svc.Start(ctx, "ada", "hunter2")
	require.NoError(t, err)

	_, err = svc.Complete(ctx, info.Token, "999999")
	assert.ErrorIs(t, err, ErrInvalidCode)

	// A rejected code does not burn the challenge.
	verifier.approved = true
	_, err = svc.Complete(ctx, info.Token, "123456")
	assert.NoError(t, err)
}

func TestSMSCompleteExpired(t *testing.T) {
	f := newFixture(t)
	f.cfg.ChallengeTTL = -time.Second
	seedSMSAccount(t, f)
	verifier := &fakeVerifier{approved: true}
	svc := NewSMSAuthService(f.cfg, f.accounts, f.challenges, f.sessions, verifier)
	ctx := context.Background()

	info, err := svc.Start(ctx, "ada", "hunter2")
	require.NoError(t, err)

	_, err = svc.Complete(ctx, info.Token, "123456")
	assert.ErrorIs(t, err, ErrChallengeExpired)
}

func TestSMSCompleteUnknownToken(t *testing.T) {
	f := newFixture(t)
	verifier := &fakeVerifier{}
	svc := NewSMSAuthService(f.cfg, f.accounts, f.challenges, f.sessions, verifier)

	_, err := svc.Complete(context.Background(), "no-such-token", "123456")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestSMSCompleteProviderDown(t *testing.T) {
	f := newFixture(t)
	seedSMSAccount(t, f)
	verifier := &fakeVerifier{approved: true}
	svc := NewSMSAuthService(f.cfg, f.accounts, f.challenges, f.sessions, verifier)
	ctx := context.Background()

	info, err := svc.Start(ctx, "ada", "hunter2")
	require.NoError(t, err)

	verifier.checkErr = sms.ErrProviderUnavailable
	_, err = svc.Complete(ctx, info.Token, "123456")
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	// Still redeemable once the provider recovers.
	verifier.checkErr = nil
	_, err = svc.Complete(ctx, info.Token, "123456")
	assert.NoError(t, err)
}
