// Package di wires the object graph. wire_gen.go is generated from wire.go
// and checked in.
package di

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/database"
	flowhttp "github.com/forsetihq/flowd/internal/http"
	"github.com/forsetihq/flowd/internal/http/handlers"
	"github.com/forsetihq/flowd/internal/http/middleware"
	"github.com/forsetihq/flowd/internal/observability"
	"github.com/forsetihq/flowd/internal/service"
	"github.com/forsetihq/flowd/internal/session"
	"github.com/forsetihq/flowd/internal/sms"

	"github.com/redis/go-redis/v9"
)

// pendingSecretTTL bounds how long an uncommitted enrollment secret lives.
const pendingSecretTTL = 10 * time.Minute

// ProvideSessionStore picks the session backend: redis when configured,
// in-process memory otherwise.
func ProvideSessionStore(cfg *config.Config) session.Store {
	if cfg.SessionBackend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return session.NewRedisStore(client, cfg.SessionTTL)
	}
	return session.NewMemoryStore(cfg.SessionTTL)
}

func ProvidePendingSecrets() *session.PendingSecrets {
	return session.NewPendingSecrets(pendingSecretTTL)
}

func ProvideVerifier(cfg *config.Config) sms.Verifier {
	return sms.NewClient(cfg.SMSProviderBaseURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSChannel, cfg.ProviderTimeout)
}

func ProvideLogger(cfg *config.Config, telemetry *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, telemetry.LoggerProvider)
}

func ProvideRouter(
	logger *slog.Logger,
	store *database.Store,
	lifecycle *service.DemoLifecycle,
	auth *middleware.Authenticator,
	health *handlers.HealthHandler,
	pages *handlers.PagesHandler,
	authAPI *handlers.AuthHandler,
	account *handlers.AccountHandler,
	records *handlers.RecordsHandler,
) http.Handler {
	return flowhttp.NewRouter(flowhttp.RouterDeps{
		Logger:    logger,
		Store:     store,
		Lifecycle: lifecycle,
		Auth:      auth,
		Health:    health,
		Pages:     pages,
		AuthAPI:   authAPI,
		Account:   account,
		Records:   records,
	})
}
