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
	// ErrNotApplicable signals a lifecycle mismatch (e.g. enrollment after
	// bootstrap completed). Handlers redirect instead of erroring.
	ErrNotApplicable   = errors.New("operation not applicable in current state")
	ErrInvalidCode     = errors.New("invalid authenticator code")
	ErrNoSecretPending = errors.New("no enrollment secret pending")
)

// EnrollmentMaterial is what a caller needs to register the secret in an
// authenticator app: the raw base32 secret for manual entry and the
// otpauth URI for scanning.
type EnrollmentMaterial struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

// BootstrapService drives first-run enrollment: the one account that exists
// before any credentials do.
type BootstrapService struct {
	cfg      *config.Config
	accounts repository.AccountRepository
	pending  *session.PendingSecrets
}

func NewBootstrapService(cfg *config.Config, accounts repository.AccountRepository, pending *session.PendingSecrets) *BootstrapService {
	return &BootstrapService{cfg: cfg, accounts: accounts, pending: pending}
}

func (s *BootstrapService) AccountCount(ctx context.Context) (int64, error) {
	return s.accounts.Count()
}

// BeginEnrollment hands out the pending secret for the caller's session,
// generating one on first call. The secret lives only in the session cache
// until CompleteEnrollment commits it.
func (s *BootstrapService) BeginEnrollment(ctx context.Context, sessionKey string) (*EnrollmentMaterial, error) {
	if s.cfg.DemoMode {
		return nil, ErrNotApplicable
	}
	count, err := s.accounts.Count()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrNotApplicable
	}
	secret, err := s.pending.GetOrCreate(sessionKey, security.GenerateTOTPSecret)
	if err != nil {
		return nil, err
	}
	return &EnrollmentMaterial{
		Secret:          secret,
		ProvisioningURI: security.ProvisioningURI(secret, s.cfg.DefaultAdminUsername, s.cfg.TOTPIssuer),
	}, nil
}

// CompleteEnrollment verifies the submitted code against the pending secret
// and creates the sole initial administrative account. The unique index on
// username is the final arbiter if two confirmations race: the loser gets
// a conflict.
func (s *BootstrapService) CompleteEnrollment(ctx context.Context, sessionKey, code string) (*domain.Account, error) {
	if s.cfg.DemoMode {
		return nil, ErrNotApplicable
	}
	count, err := s.accounts.Count()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrNotApplicable
	}
	secret, ok := s.pending.Get(sessionKey)
	if !ok {
		return nil, ErrNoSecretPending
	}
	match, err := security.VerifyTOTP(secret, code, s.cfg.TOTPSkew, time.Now())
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrInvalidCode
	}

	account := &domain.Account{
		Username:              s.cfg.DefaultAdminUsername,
		IsAdmin:               true,
		MustUpdateCredentials: false,
		TOTPSecret:            secret,
	}
	if err := s.accounts.Create(account); err != nil {
		return nil, err
	}
	s.pending.Discard(sessionKey)
	return account, nil
}
