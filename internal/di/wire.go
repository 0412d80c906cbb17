//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/forsetihq/flowd/internal/app"
	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/database"
	"github.com/forsetihq/flowd/internal/http/handlers"
	"github.com/forsetihq/flowd/internal/http/middleware"
	"github.com/forsetihq/flowd/internal/observability"
	"github.com/forsetihq/flowd/internal/repository"
	"github.com/forsetihq/flowd/internal/service"

	"github.com/google/wire"
)

func InitializeApp(ctx context.Context, cfg *config.Config, telemetry *observability.Runtime) (*app.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideSessionStore,
		ProvidePendingSecrets,
		ProvideVerifier,
		ProvideRouter,
		database.NewStore,
		repository.NewAccountRepository,
		repository.NewChallengeRepository,
		repository.NewRecordRepository,
		service.NewBootstrapService,
		service.NewAuthService,
		service.NewSMSAuthService,
		service.NewOAuthService,
		service.NewAccountService,
		service.NewRecordService,
		service.NewDemoLifecycle,
		middleware.NewAuthenticator,
		handlers.NewHealthHandler,
		handlers.NewPagesHandler,
		handlers.NewAuthHandler,
		handlers.NewAccountHandler,
		handlers.NewRecordsHandler,
		app.New,
	)
	return nil, nil
}
