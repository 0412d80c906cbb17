package service

import (
	"context"
	"errors"
	"time"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/domain"
	"github.com/forsetihq/flowd/internal/repository"
	"github.com/forsetihq/flowd/internal/security"
	"github.com/forsetihq/flowd/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEnrollmentOutstanding means the account exists but has no
	// authenticator secret on file yet; the caller is sent to the account
	// surface to finish setup.
	ErrEnrollmentOutstanding = errors.New("authenticator not configured")
)

// AuthService implements the Local-TOTP verification strategy. The entire
// login proof is computed within the request; no ledger and no network.
type AuthService struct {
	cfg      *config.Config
	accounts repository.AccountRepository
	sessions session.Store
}

func NewAuthService(cfg *config.Config, accounts repository.AccountRepository, sessions session.Store) *AuthService {
	return &AuthService{cfg: cfg, accounts: accounts, sessions: sessions}
}

// LoginTOTP verifies a code against the first account's stored secret and
// establishes a session. In demo mode the code is compared against the
// fixed configured value and the demo account is provisioned lazily.
func (s *AuthService) LoginTOTP(ctx context.Context, code string) (*session.Session, error) {
	if s.cfg.DemoMode {
		return s.loginDemo(ctx, code)
	}

	account, err := s.accounts.First()
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrNotApplicable
		}
		return nil, err
	}
	if account.TOTPSecret == "" {
		return nil, ErrEnrollmentOutstanding
	}
	match, err := security.VerifyTOTP(account.TOTPSecret, code, s.cfg.TOTPSkew, time.Now())
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrInvalidCode
	}
	return s.sessions.Create(ctx, account.ID, account.MustUpdateCredentials)
}

func (s *AuthService) loginDemo(ctx context.Context, code string) (*session.Session, error) {
	if code != s.cfg.DemoCode {
		return nil, ErrInvalidCode
	}
	account, err := s.demoAccount()
	if err != nil {
		return nil, err
	}
	return s.sessions.Create(ctx, account.ID, false)
}

// demoAccount returns the single demo account, creating it if a reset just
// wiped the store.
func (s *AuthService) demoAccount() (*domain.Account, error) {
	account, err := s.accounts.First()
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}
	account = &domain.Account{
		Username: s.cfg.DefaultAdminUsername,
		IsAdmin:  true,
	}
	if err := s.accounts.Create(account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return s.accounts.First()
		}
		return nil, err
	}
	return account, nil
}

// Logout discards the session; any state transitions back to Anonymous.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}
