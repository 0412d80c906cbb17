package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/domain"
	"github.com/forsetihq/flowd/internal/repository"
	"github.com/forsetihq/flowd/internal/security"
	"github.com/forsetihq/flowd/internal/session"
)

var (
	ErrHandleRequired   = errors.New("handle must not be empty")
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	// ErrNoChangeMade rejects a forced update that changes nothing: same
	// handle, no new password.
	ErrNoChangeMade     = errors.New("credential update changes nothing")
	ErrMFASetupRequired = errors.New("authenticator setup must be completed")
	ErrInvalidProof     = errors.New("authenticator proof code rejected")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrMissingFields    = errors.New("required fields missing")
)

// CredentialUpdate carries a credential-change request. Email is optional
// and stored lowercased. Proof is the authenticator code confirming a
// pending secret when enrollment is still outstanding for the account.
type CredentialUpdate struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Proof           string
}

// NewAccountInput is the operator-facing account creation payload.
type NewAccountInput struct {
	Username    string
	Password    string
	Email       string
	PhoneNumber string
	CountryCode string
	IsAdmin     bool
	ForceUpdate bool
}

// AccountService covers the authenticated account surface: profile reads,
// credential updates, deferred authenticator setup, and account creation.
type AccountService struct {
	cfg      *config.Config
	accounts repository.AccountRepository
	sessions session.Store
	pending  *session.PendingSecrets
}

func NewAccountService(cfg *config.Config, accounts repository.AccountRepository, sessions session.Store, pending *session.PendingSecrets) *AccountService {
	return &AccountService{cfg: cfg, accounts: accounts, sessions: sessions, pending: pending}
}

func (s *AccountService) Get(accountID uint) (*domain.Account, error) {
	return s.accounts.FindByID(accountID)
}

// BeginTOTPSetup hands out enrollment material for an authenticated account
// that has no authenticator secret yet. The secret stays session-scoped until
// UpdateCredentials commits it with a valid proof code.
func (s *AccountService) BeginTOTPSetup(ctx context.Context, sessionKey string, accountID uint) (*EnrollmentMaterial, error) {
	account, err := s.accounts.FindByID(accountID)
	if err != nil {
		return nil, err
	}
	if account.TOTPSecret != "" {
		return nil, ErrNotApplicable
	}
	secret, err := s.pending.GetOrCreate(sessionKey, security.GenerateTOTPSecret)
	if err != nil {
		return nil, err
	}
	return &EnrollmentMaterial{
		Secret:          secret,
		ProvisioningURI: security.ProvisioningURI(secret, account.Username, s.cfg.TOTPIssuer),
	}, nil
}

// UpdateCredentials applies a credential change and clears the account's
// must-update flag. Validation order is fixed: empty handle, then password
// confirmation, then the no-op check, then outstanding authenticator setup.
// The write is a single UPDATE so a concurrent duplicate handle or email
// surfaces as repository.ErrDuplicate, never a partial change.
func (s *AccountService) UpdateCredentials(ctx context.Context, sessionID, sessionKey string, accountID uint, update CredentialUpdate) (*domain.Account, error) {
	account, err := s.accounts.FindByID(accountID)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(update.Username)
	if username == "" {
		return nil, ErrHandleRequired
	}
	if update.Password != update.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	email := strings.ToLower(strings.TrimSpace(update.Email))
	if account.MustUpdateCredentials && username == account.Username && update.Password == "" && email == "" {
		return nil, ErrNoChangeMade
	}

	fields := map[string]any{
		"username":                username,
		"must_update_credentials": false,
	}
	if email != "" {
		fields["email"] = email
	}

	if s.enrollmentOutstanding(account) {
		secret, ok := s.pending.Get(sessionKey)
		if !ok || update.Proof == "" {
			return nil, ErrMFASetupRequired
		}
		match, err := security.VerifyTOTP(secret, update.Proof, s.cfg.TOTPSkew, time.Now())
		if err != nil {
			return nil, err
		}
		if !match {
			return nil, ErrInvalidProof
		}
		fields["totp_secret"] = secret
	}

	if update.Password != "" {
		hash, err := security.HashPassword(update.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}

	if err := s.accounts.UpdateFields(account.ID, fields); err != nil {
		return nil, err
	}
	if err := s.sessions.SetNeedsUpdate(ctx, sessionID, false); err != nil && !errors.Is(err, session.ErrNotFound) {
		return nil, err
	}
	s.pending.Discard(sessionKey)

	return s.accounts.FindByID(account.ID)
}

// enrollmentOutstanding reports whether this account still owes an
// authenticator secret. Only the local strategy requires one, and demo mode
// never does.
func (s *AccountService) enrollmentOutstanding(account *domain.Account) bool {
	return account.TOTPSecret == "" && s.cfg.AuthMode == config.ModeTOTP && !s.cfg.DemoMode
}

// CreateAccount provisions an account. The very first account may be created
// without an authenticated actor and is always administrative; afterwards an
// authenticated admin is required.
func (s *AccountService) CreateAccount(ctx context.Context, actor *domain.Account, input NewAccountInput) (*domain.Account, error) {
	count, err := s.accounts.Count()
	if err != nil {
		return nil, err
	}
	first := count == 0
	if !first && (actor == nil || !actor.IsAdmin) {
		return nil, ErrNotAuthorized
	}
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" || input.PhoneNumber == "" || input.CountryCode == "" {
		return nil, ErrMissingFields
	}
	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{
		Username:              username,
		PasswordHash:          hash,
		PhoneNumber:           input.PhoneNumber,
		CountryCode:           strings.TrimPrefix(input.CountryCode, "+"),
		IsAdmin:               first || input.IsAdmin,
		MustUpdateCredentials: !first && input.ForceUpdate,
	}
	if email := strings.ToLower(strings.TrimSpace(input.Email)); email != "" {
		account.Email = &email
	}
	if err := s.accounts.Create(account); err != nil {
		return nil, err
	}
	return account, nil
}
