package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/domain"
	"github.com/forsetihq/flowd/internal/repository"
	"github.com/forsetihq/flowd/internal/security"
	"github.com/forsetihq/flowd/internal/session"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

var (
	ErrUnknownProvider = errors.New("unknown oauth provider")
	ErrMissingEmail    = errors.New("provider did not supply an email address")
	// ErrProviderError wraps any failure in the external flow; handlers
	// surface it as a redirect with a non-sensitive message.
	ErrProviderError = errors.New("external authentication failed")
)

const stateTTL = 10 * time.Minute

type oauthProvider struct {
	name        string
	displayName string
	oauth       *oauth2.Config
	userinfoURL string
}

// ProviderInfo is the public listing of a configured provider.
type ProviderInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// OAuthService implements third-party single-sign-on. The provider registry
// is built once at construction from config and never mutated.
type OAuthService struct {
	cfg       *config.Config
	accounts  repository.AccountRepository
	sessions  session.Store
	providers map[string]*oauthProvider
	order     []string
}

func NewOAuthService(cfg *config.Config, accounts repository.AccountRepository, sessions session.Store) *OAuthService {
	s := &OAuthService{
		cfg:       cfg,
		accounts:  accounts,
		sessions:  sessions,
		providers: make(map[string]*oauthProvider),
	}
	for _, pc := range cfg.OAuthProviders {
		p := &oauthProvider{name: pc.Name, displayName: pc.DisplayName}
		base := &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  strings.TrimRight(cfg.OAuthRedirectURL, "/") + "/" + pc.Name + "/callback",
			Scopes:       []string{"openid", "email", "profile"},
		}
		switch {
		case pc.Name == "google":
			base.Endpoint = google.Endpoint
			p.userinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
		case pc.Name == "microsoft":
			base.Endpoint = microsoft.AzureADEndpoint("common")
			p.userinfoURL = "https://graph.microsoft.com/oidc/userinfo"
		case pc.IssuerURL != "":
			// Generic OIDC: endpoints derived from the issuer base URL.
			issuer := strings.TrimRight(pc.IssuerURL, "/")
			base.Endpoint = oauth2.Endpoint{
				AuthURL:  issuer + "/authorize",
				TokenURL: issuer + "/token",
			}
			p.userinfoURL = issuer + "/userinfo"
		default:
			continue
		}
		p.oauth = base
		s.providers[pc.Name] = p
		s.order = append(s.order, pc.Name)
	}
	return s
}

// Providers lists the configured providers in registration order.
func (s *OAuthService) Providers() []ProviderInfo {
	out := make([]ProviderInfo, 0, len(s.order))
	for _, name := range s.order {
		p := s.providers[name]
		out = append(out, ProviderInfo{Name: p.name, DisplayName: p.displayName})
	}
	return out
}

// LoginURL issues the provider's authorization redirect with a signed,
// expiring state parameter.
func (s *OAuthService) LoginURL(providerName string) (string, error) {
	p, ok := s.providers[providerName]
	if !ok {
		return "", ErrUnknownProvider
	}
	state, err := security.SignState(providerName, s.cfg.OAuthStateSecret, stateTTL)
	if err != nil {
		return "", err
	}
	return p.oauth.AuthCodeURL(state), nil
}

type userInfo struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
}

// HandleCallback exchanges the provider response for an identity assertion
// and establishes a session, provisioning an account on first login.
func (s *OAuthService) HandleCallback(ctx context.Context, providerName, state, code string) (*session.Session, error) {
	p, ok := s.providers[providerName]
	if !ok {
		return nil, ErrUnknownProvider
	}
	if err := security.VerifyState(state, providerName, s.cfg.OAuthStateSecret); err != nil {
		return nil, fmt.Errorf("%w: state verification failed", ErrProviderError)
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	token, err := p.oauth.Exchange(exchangeCtx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed", ErrProviderError)
	}
	info, err := s.fetchUserInfo(ctx, p, token)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(info.Email))
	if email == "" {
		return nil, ErrMissingEmail
	}

	account, err := s.accounts.FindByIdentifier(email)
	if errors.Is(err, repository.ErrAccountNotFound) {
		account, err = s.provisionAccount(email, firstNonEmpty(info.Name, info.PreferredUsername))
	}
	if err != nil {
		return nil, err
	}

	needsUpdate := account.MustUpdateCredentials
	return s.sessions.Create(ctx, account.ID, needsUpdate)
}

func (s *OAuthService) fetchUserInfo(ctx context.Context, p *oauthProvider, token *oauth2.Token) (*userInfo, error) {
	infoCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(infoCtx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.oauth.Client(infoCtx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo fetch failed", ErrProviderError)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo status %d", ErrProviderError, resp.StatusCode)
	}
	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: userinfo decode failed", ErrProviderError)
	}
	return &info, nil
}

// provisionAccount creates a non-administrative account for a first OAuth
// login: random unguessable password credential, handle derived from the
// display name or the email local part, numeric suffix on collision.
func (s *OAuthService) provisionAccount(email, displayName string) (*domain.Account, error) {
	base := normalizeUsername(displayName)
	if base == "user" {
		base = normalizeUsername(strings.SplitN(email, "@", 2)[0])
	}
	username, err := s.uniqueUsername(base)
	if err != nil {
		return nil, err
	}
	randomPassword, err := security.NewRandomString(48)
	if err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(randomPassword)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{
		Username:              username,
		Email:                 &email,
		PasswordHash:          hash,
		MustUpdateCredentials: s.cfg.OAuthForceUpdate,
	}
	if err := s.accounts.Create(account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// A concurrent first login won; reuse its account.
			return s.accounts.FindByIdentifier(email)
		}
		return nil, err
	}
	return account, nil
}

func (s *OAuthService) uniqueUsername(base string) (string, error) {
	candidate := base
	for suffix := 1; ; suffix++ {
		_, err := s.accounts.FindByIdentifier(candidate)
		if errors.Is(err, repository.ErrAccountNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s%d", base, suffix)
	}
}

func normalizeUsername(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
