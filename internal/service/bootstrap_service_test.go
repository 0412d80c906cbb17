package service

import (
	"context"
	"testing"
	"time"

	"github.com/forsetihq/flowd/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentFlow(t *testing.T) {
	f := newFixture(t)
	svc := NewBootstrapService(f.cfg, f.accounts, f.pending)
	ctx := context.Background()

	material, err := svc.BeginEnrollment(ctx, "setup-key")
	require.NoError(t, err)
	assert.NotEmpty(t, material.Secret)
	assert.Contains(t, material.ProvisioningURI, "otpauth://totp/")
	assert.Contains(t, material.ProvisioningURI, "issuer=Forseti+Flow")

	// Re-requesting before confirmation returns the same secret.
	again, err := svc.BeginEnrollment(ctx, "setup-key")
	require.NoError(t, err)
	assert.Equal(t, material.Secret, again.Secret)

	code, err := security.TOTPCode(material.Secret, time.Now())
	require.NoError(t, err)

	account, err := svc.CompleteEnrollment(ctx, "setup-key", code)
	require.NoError(t, err)
	assert.Equal(t, "forseti", account.Username)
	assert.True(t, account.IsAdmin)
	assert.Equal(t, material.Secret, account.TOTPSecret)

	// Setup is one-shot.
	_, err = svc.BeginEnrollment(ctx, "setup-key")
	assert.ErrorIs(t, err, ErrNotApplicable)
	_, err = svc.CompleteEnrollment(ctx, "setup-key", code)
	assert.ErrorIs(t, err, ErrNotApplicable)
}

func TestEnrollmentWrongCode(t *testing.T) {
	f := newFixture(t)
	svc := NewBootstrapService(f.cfg, f.accounts, f.pending)
	ctx := context.Background()

	_, err := svc.BeginEnrollment(ctx, "k")
	require.NoError(t, err)

	_, err = svc.CompleteEnrollment(ctx, "k", "000000")
	assert.ErrorIs(t, err, ErrInvalidCode)

	count, err := f.accounts.Count()
	require.NoError(t, err)
	assert.Zero(t, count, "no account on failed confirmation")

	// The pending secret survives a failed attempt.
	_, ok := f.pending.Get("k")
	assert.True(t, ok)
}

func TestEnrollmentWithoutBegin(t *testing.T) {
	f := newFixture(t)
	svc := NewBootstrapService(f.cfg, f.accounts, f.pending)

	_, err := svc.CompleteEnrollment(context.Background(), "never-began", "123456")
	assert.ErrorIs(t, err, ErrNoSecretPending)
}

func TestEnrollmentDisabledInDemoMode(t *testing.T) {
	f := newFixture(t)
	f.cfg.DemoMode = true
	svc := NewBootstrapService(f.cfg, f.accounts, f.pending)

	_, err := svc.BeginEnrollment(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotApplicable)
	_, err = svc.CompleteEnrollment(context.Background(), "k", "246810")
	assert.ErrorIs(t, err, ErrNotApplicable)
}
