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
	"github.com/forsetihq/flowd/internal/sms"

	"github.com/google/uuid"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrAlreadyRedeemed   = errors.New("challenge already redeemed")
	ErrChallengeExpired  = errors.New("challenge expired")
	// ErrProviderUnavailable is the provider outage at the service boundary,
	// so handlers never import the sms client directly.
	ErrProviderUnavailable = sms.ErrProviderUnavailable
)

// ChallengeInfo is returned from Start: the opaque token the caller must
// present together with the delivered code, and a masked hint at where the
// code went.
type ChallengeInfo struct {
	Token       string    `json:"token"`
	MaskedPhone string    `json:"masked_phone"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SMSAuthService implements the two-step challenge/response strategy
// against an external phone verification provider.
type SMSAuthService struct {
	cfg        *config.Config
	accounts   repository.AccountRepository
	challenges repository.ChallengeRepository
	sessions   session.Store
	verifier   sms.Verifier
}

func NewSMSAuthService(
	cfg *config.Config,
	accounts repository.AccountRepository,
	challenges repository.ChallengeRepository,
	sessions session.Store,
	verifier sms.Verifier,
) *SMSAuthService {
	return &SMSAuthService{cfg: cfg, accounts: accounts, challenges: challenges, sessions: sessions, verifier: verifier}
}

// Start checks the password, asks the provider to deliver a code to the
// account's phone, and records a time-boxed challenge. A provider failure
// creates no challenge and is never downgraded to a credential error.
func (s *SMSAuthService) Start(ctx context.Context, identifier, password string) (*ChallengeInfo, error) {
	// Best-effort hygiene; expiry is enforced at Complete regardless.
	_, _ = s.challenges.PurgeExpired(time.Now())

	account, err := s.accounts.FindByIdentifier(identifier)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := security.VerifyPassword(account.PasswordHash, password)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	providerCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	if err := s.verifier.StartVerification(providerCtx, phoneE164(account)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	challenge := &domain.LoginChallenge{
		Token:     uuid.NewString(),
		AccountID: account.ID,
		ExpiresAt: now.Add(s.cfg.ChallengeTTL),
	}
	if err := s.challenges.Create(challenge); err != nil {
		return nil, err
	}
	return &ChallengeInfo{
		Token:       challenge.Token,
		MaskedPhone: account.MaskedPhone(),
		ExpiresAt:   challenge.ExpiresAt,
	}, nil
}

// Complete redeems a challenge. The redeem is a single conditional update,
// so of two concurrent completions with the same token exactly one wins.
func (s *SMSAuthService) Complete(ctx context.Context, token, code string) (*session.Session, error) {
	challenge, err := s.challenges.FindByToken(token)
	if err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	if challenge.Redeemed() {
		return nil, ErrAlreadyRedeemed
	}
	now := time.Now().UTC()
	if challenge.Expired(now) {
		return nil, ErrChallengeExpired
	}

	account, err := s.accounts.FindByID(challenge.AccountID)
	if err != nil {
		return nil, err
	}

	providerCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	approved, err := s.verifier.CheckVerification(providerCtx, phoneE164(account), code)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, ErrInvalidCode
	}

	if err := s.challenges.Redeem(token, now); err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			// Lost the race against a concurrent completion.
			return nil, ErrAlreadyRedeemed
		}
		return nil, err
	}
	return s.sessions.Create(ctx, account.ID, account.MustUpdateCredentials)
}

func phoneE164(a *domain.Account) string {
	return "+" + a.CountryCode + a.PhoneNumber
}
