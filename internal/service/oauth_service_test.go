package service

import (
	"context"
	"testing"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oauthConfig(f *fixture) *config.Config {
	f.cfg.AuthMode = config.ModeOAuth
	f.cfg.OAuthStateSecret = "0123456789abcdef0123456789abcdef"
	f.cfg.OAuthRedirectURL = "http://localhost:8080/api/v1/auth/oauth"
	f.cfg.OAuthProviders = []config.OAuthProviderConfig{
		{Name: "google", DisplayName: "Google", ClientID: "cid", ClientSecret: "cs"},
		{Name: "microsoft", DisplayName: "Microsoft", ClientID: "mid", ClientSecret: "ms"},
	}
	return f.cfg
}

func TestOAuthProviders(t *testing.T) {
	f := newFixture(t)
	svc := NewOAuthService(oauthConfig(f), f.accounts, f.sessions)

	providers := svc.Providers()
	require.Len(t, providers, 2)
	assert.Equal(t, "google", providers[0].Name)
	assert.Equal(t, "Microsoft", providers[1].DisplayName)
}

func TestOAuthLoginURL(t *testing.T) {
	f := newFixture(t)
	svc := NewOAuthService(oauthConfig(f), f.accounts, f.sessions)

	url, err := svc.LoginURL("google")
	require.NoError(t, err)
	assert.Contains(t, url, "client_id=cid")
	assert.Contains(t, url, "state=")
	assert.Contains(t, url, "redirect_uri=")

	_, err = svc.LoginURL("github")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestOAuthGenericOIDCProvider(t *testing.T) {
	f := newFixture(t)
	cfg := oauthConfig(f)
	cfg.OAuthProviders = append(cfg.OAuthProviders, config.OAuthProviderConfig{
		Name: "oidc", DisplayName: "Single Sign-On",
		ClientID: "oid", ClientSecret: "os",
		IssuerURL: "https://sso.example.com/",
	})
	svc := NewOAuthService(cfg, f.accounts, f.sessions)

	require.Len(t, svc.Providers(), 3)
	url, err := svc.LoginURL("oidc")
	require.NoError(t, err)
	assert.Contains(t, url, "https://sso.example.com/authorize")
	assert.Contains(t, url, "client_id=oid")
}

func TestOAuthCallbackRejectsBadState(t *testing.T) {
	f := newFixture(t)
	svc := NewOAuthService(oauthConfig(f), f.accounts, f.sessions)

	_, err := svc.HandleCallback(context.Background(), "google", "forged-state", "code")
	assert.ErrorIs(t, err, ErrProviderError)

	_, err = svc.HandleCallback(context.Background(), "github", "s", "c")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestProvisionAccount(t *testing.T) {
	f := newFixture(t)
	svc := NewOAuthService(oauthConfig(f), f.accounts, f.sessions)

	account, err := svc.provisionAccount("ada@example.com", "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "adalovelace", account.Username)
	assert.False(t, account.IsAdmin)
	assert.False(t, account.MustUpdateCredentials)
	require.NotNil(t, account.Email)
	assert.Equal(t, "ada@example.com", *account.Email)
	assert.NotEmpty(t, account.PasswordHash)
}

func TestProvisionAccountHandleCollision(t *testing.T) {
	f := newFixture(t)
	svc := NewOAuthService(oauthConfig(f), f.accounts, f.sessions)

	require.NoError(t, f.accounts.Create(&domain.Account{Username: "adalovelace"}))

	account, err := svc.provisionAccount("other@example.com", "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "adalovelace1", account.Username)
}

func TestProvisionAccountForceUpdateFlag(t *testing.T) {
	f := newFixture(t)
	cfg := oauthConfig(f)
	cfg.OAuthForceUpdate = true
	svc := NewOAuthService(cfg, f.accounts, f.sessions)

	account, err := svc.provisionAccount("ada@example.com", "Ada")
	require.NoError(t, err)
	assert.True(t, account.MustUpdateCredentials)
}

func TestProvisionAccountEmailFallbackHandle(t *testing.T) {
	f := newFixture(t)
	svc := NewOAuthService(oauthConfig(f), f.accounts, f.sessions)

	account, err := svc.provisionAccount("j.doe+x@example.com", "  ")
	require.NoError(t, err)
	assert.Equal(t, "j.doex", account.Username)
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "adalovelace", normalizeUsername("Ada Lovelace"))
	assert.Equal(t, "a_b-c.d", normalizeUsername("A_B-C.D"))
	assert.Equal(t, "user", normalizeUsername("   "))
	assert.Equal(t, "user", normalizeUsername("!@#$%"))
}
