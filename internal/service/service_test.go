package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/database"
	"github.com/forsetihq/flowd/internal/repository"
	"github.com/forsetihq/flowd/internal/session"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	cfg        *config.Config
	store      *database.Store
	accounts   repository.AccountRepository
	challenges repository.ChallengeRepository
	records    repository.RecordRepository
	sessions   session.Store
	pending    *session.PendingSecrets
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		DatabaseURL:          "file:" + filepath.Join(t.TempDir(), "test.sqlite"),
		AuthMode:             config.ModeTOTP,
		SessionTTL:           time.Hour,
		TOTPIssuer:           "Forseti Flow",
		TOTPSkew:             1,
		ChallengeTTL:         5 * time.Minute,
		ProviderTimeout:      5 * time.Second,
		DemoCode:             "246810",
		DemoResetMaxAge:      24 * time.Hour,
		DefaultAdminUsername: "forseti",
	}
	store, err := database.NewStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &fixture{
		cfg:        cfg,
		store:      store,
		accounts:   repository.NewAccountRepository(store),
		challenges: repository.NewChallengeRepository(store),
		records:    repository.NewRecordRepository(store),
		sessions:   session.NewMemoryStore(time.Hour),
		pending:    session.NewPendingSecrets(time.Hour),
	}
}
